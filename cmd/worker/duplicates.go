package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/linguaflow/content-pipeline/internal/config"
	"github.com/linguaflow/content-pipeline/internal/domain"
	"github.com/linguaflow/content-pipeline/internal/platform/logger"
	"github.com/linguaflow/content-pipeline/internal/platform/postgres"
	"github.com/linguaflow/content-pipeline/internal/store"
)

// newDuplicatesCommand builds the operator tool for inspecting approved
// content that exactly or nearly matches a given text. Useful before
// bulk-importing drafts, or when triaging review-queue items that smell
// like re-submissions.
func newDuplicatesCommand() *cobra.Command {
	var (
		text        string
		language    string
		contentType string
		threshold   float64
	)

	cmd := &cobra.Command{
		Use:   "duplicates",
		Short: "Find approved content matching a text",
		Long: "Duplicates reports approved records whose primary text exactly " +
			"matches or is trigram-similar to the given text, most similar first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ct := domain.ContentType(contentType)
			if !ct.IsValid() {
				return fmt.Errorf("invalid content type %q", contentType)
			}
			if threshold <= 0 || threshold > 1 {
				return fmt.Errorf("threshold must be in (0, 1], got %v", threshold)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			log, err := logger.Setup(cfg.Server.LogLevel)
			if err != nil {
				return fmt.Errorf("failed to set up logger: %w", err)
			}

			db, err := openDatabase(cfg.Database.URL, log)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			duplications := postgres.NewPostgresDuplicationStore(db, log)
			ctx := cmd.Context()

			exactID, err := duplications.FindExactMatch(ctx, text, language, ct)
			switch {
			case err == nil:
				cmd.Printf("exact match: %s\n", exactID)
			case errors.Is(err, store.ErrNotFound):
				cmd.Println("no exact match")
			default:
				return fmt.Errorf("exact match lookup failed: %w", err)
			}

			matches, err := duplications.FindSimilar(ctx, text, language, ct, threshold)
			if err != nil {
				return fmt.Errorf("similarity lookup failed: %w", err)
			}

			if len(matches) == 0 {
				cmd.Printf("no matches at or above similarity %.2f\n", threshold)
				return nil
			}

			for _, match := range matches {
				cmd.Printf("%.3f  %s  %s\n", match.Similarity, match.ID, match.Text)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "text to match against approved content")
	cmd.Flags().StringVar(&language, "language", "", "language code, e.g. EN")
	cmd.Flags().StringVar(&contentType, "type", "", "content type: meaning, utterance, rule, or exercise")
	cmd.Flags().Float64Var(&threshold, "threshold", 0.3, "minimum trigram similarity")
	_ = cmd.MarkFlagRequired("text")
	_ = cmd.MarkFlagRequired("language")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}
