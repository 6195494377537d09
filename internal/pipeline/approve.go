package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/linguaflow/content-pipeline/internal/domain"
	"github.com/linguaflow/content-pipeline/internal/store"
)

// Approval policy constants.
const (
	// minAutoApproveConfidence is the producer confidence below which an
	// item always goes to manual review.
	minAutoApproveConfidence = 0.7

	// coldStartThreshold is the approved-corpus size below which every
	// item of a (type, language) pair gets human eyes.
	coldStartThreshold = 10

	// auditSampleRate is the fraction of otherwise auto-approvable items
	// still routed to review as a continuous quality audit.
	auditSampleRate = 0.1
)

// Review-queue priorities; lower numbers are reviewed first.
const (
	priorityOrthographyRule = 1
	priorityMeaning         = 2
	priorityUtterance       = 3
	priorityRule            = 4
	priorityExercise        = 5
	priorityUnclassified    = 10
)

// ruleCategoryOrthography marks spelling rules, which jump the review
// queue.
const ruleCategoryOrthography = "orthography"

// msgRequiresReview is the domain-failure message reported when an item is
// routed to the manual review queue.
const msgRequiresReview = "Item requires manual operator review"

// ApprovalStep decides whether a validated item is auto-approved or
// queued for manual operator review. "Needs review" is a routing decision,
// not an error: it is reported as a failed StepResult which keeps the item
// in VALIDATED until an operator acts.
type ApprovalStep struct {
	store        store.ApprovalStore
	sampler      Sampler
	autoApproval bool
	logger       *slog.Logger
}

// NewApprovalStep creates an ApprovalStep. autoApproval is the
// environment-level override: when true, manual-review routing is bypassed
// entirely and every item approves. If sampler is nil, a time-seeded
// random sampler is used; if logger is nil, the default logger is used.
func NewApprovalStep(s store.ApprovalStore, sampler Sampler, autoApproval bool, logger *slog.Logger) *ApprovalStep {
	if s == nil {
		panic("approval store cannot be nil")
	}

	if sampler == nil {
		sampler = NewRandomSampler()
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &ApprovalStep{
		store:        s,
		sampler:      sampler,
		autoApproval: autoApproval,
		logger:       logger.With(slog.String("component", "approval_step")),
	}
}

// Approve evaluates the review heuristics for a validated item. The
// returned error is reserved for infrastructure failures (count lookups,
// queue writes).
func (a *ApprovalStep) Approve(ctx context.Context, item *domain.Item) (StepResult, error) {
	if a.autoApproval {
		a.logger.Debug("auto-approval enabled, bypassing review routing",
			slog.String("item_id", item.ID.String()))
		return successResult(), nil
	}

	payload, err := item.DecodePayload()
	if err != nil {
		return failureResult(err.Error()), nil
	}

	needsReview, err := a.requiresManualReview(ctx, item, payload)
	if err != nil {
		return StepResult{}, err
	}

	if !needsReview {
		return successResult(), nil
	}

	entry := &domain.ReviewQueueEntry{
		ItemID:      item.ID,
		ContentType: item.ContentType,
		Priority:    reviewPriority(item.ContentType, payload),
		QueuedAt:    time.Now().UTC(),
	}

	if err := a.store.QueueForReview(ctx, entry); err != nil {
		return StepResult{}, fmt.Errorf("failed to queue item for review: %w", err)
	}

	a.logger.Info("item queued for manual review",
		slog.String("item_id", item.ID.String()),
		slog.String("content_type", item.ContentType.String()),
		slog.Int("priority", entry.Priority))

	return failureResult(msgRequiresReview), nil
}

// requiresManualReview evaluates the routing heuristics in order,
// short-circuiting on the first that demands review.
func (a *ApprovalStep) requiresManualReview(ctx context.Context, item *domain.Item, payload domain.Payload) (bool, error) {
	// Low producer confidence always gets human eyes.
	if confidence, ok := item.Confidence(); ok && confidence < minAutoApproveConfidence {
		return true, nil
	}

	// Rules and exercises are never auto-approved.
	if item.ContentType == domain.ContentTypeRule || item.ContentType == domain.ContentTypeExercise {
		return true, nil
	}

	// Cold-start guard: the first items of any (type, language) pair are
	// always reviewed.
	approved, err := a.store.ApprovedCount(ctx, item.ContentType, domain.PayloadLanguage(payload))
	if err != nil {
		return false, fmt.Errorf("approved count lookup failed: %w", err)
	}
	if approved < coldStartThreshold {
		return true, nil
	}

	// Continuous quality audit: a random sample still goes to review.
	if a.sampler.Sample(auditSampleRate) {
		return true, nil
	}

	return false, nil
}

// reviewPriority computes the queue priority for a content type; lower is
// reviewed first. Orthography rules jump the queue.
func reviewPriority(contentType domain.ContentType, payload domain.Payload) int {
	switch contentType {
	case domain.ContentTypeRule:
		if rule, ok := payload.(domain.RulePayload); ok && rule.Category == ruleCategoryOrthography {
			return priorityOrthographyRule
		}
		return priorityRule
	case domain.ContentTypeMeaning:
		return priorityMeaning
	case domain.ContentTypeUtterance:
		return priorityUtterance
	case domain.ContentTypeExercise:
		return priorityExercise
	default:
		return priorityUnclassified
	}
}
