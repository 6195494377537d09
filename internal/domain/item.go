package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Item-specific validation errors.
var (
	// ErrItemIDEmpty is returned when an item ID is empty or nil.
	ErrItemIDEmpty = errors.New("item ID cannot be empty")

	// ErrItemPayloadEmpty is returned when an item carries no payload.
	ErrItemPayloadEmpty = errors.New("item payload cannot be empty")

	// ErrItemPayloadInvalid is returned when an item's payload is not valid JSON.
	ErrItemPayloadInvalid = errors.New("item payload must be valid JSON")
)

// SourceMetadata describes where an item came from. Confidence is the
// producer's self-reported score in [0,1] and feeds the approval
// heuristics; everything else the producer attached is kept in Extra and
// never participates in validation logic.
type SourceMetadata struct {
	Confidence *float64       `json:"confidence,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler. Producers write arbitrary
// keys at the top level; confidence is pulled out and the rest lands in
// Extra.
func (m *SourceMetadata) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	if v, ok := fields["confidence"]; ok {
		if f, ok := v.(float64); ok {
			m.Confidence = &f
		}
		delete(fields, "confidence")
	}

	if len(fields) > 0 {
		m.Extra = fields
	}

	return nil
}

// MarshalJSON implements json.Marshaler, inverting UnmarshalJSON.
func (m SourceMetadata) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(m.Extra)+1)
	for k, v := range m.Extra {
		fields[k] = v
	}
	if m.Confidence != nil {
		fields["confidence"] = *m.Confidence
	}
	return json.Marshal(fields)
}

// Item is a unit of learning content moving through the promotion
// pipeline. The payload is stored as raw JSONB and decoded into its typed
// variant by the pipeline steps; DraftID is the lineage reference back to
// the originating draft and is copied forward on every stage move.
type Item struct {
	ID          uuid.UUID       `json:"id"`
	ContentType ContentType     `json:"content_type"`
	Stage       Stage           `json:"stage"`
	DraftID     uuid.UUID       `json:"draft_id"`
	Payload     json.RawMessage `json:"payload"`
	Source      SourceMetadata  `json:"source,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewDraftItem creates a new DRAFT item with the given content type and
// raw payload. The lineage reference starts out pointing at the item
// itself. Returns an error if validation fails.
func NewDraftItem(contentType ContentType, payload json.RawMessage) (*Item, error) {
	id := uuid.New()
	item := &Item{
		ID:          id,
		ContentType: contentType,
		Stage:       StageDraft,
		DraftID:     id,
		Payload:     payload,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	return item, nil
}

// Validate checks the item's structural invariants.
// Returns an error if any field fails validation.
func (i *Item) Validate() error {
	if i.ID == uuid.Nil {
		return ErrItemIDEmpty
	}

	if !i.ContentType.IsValid() {
		return ErrInvalidContentType
	}

	if !i.Stage.IsValid() {
		return ErrInvalidStage
	}

	if len(i.Payload) == 0 {
		return ErrItemPayloadEmpty
	}

	var js json.RawMessage
	if err := json.Unmarshal(i.Payload, &js); err != nil {
		return ErrItemPayloadInvalid
	}

	return nil
}

// DecodePayload decodes the item's raw payload into its typed variant.
func (i *Item) DecodePayload() (Payload, error) {
	return DecodePayload(i.ContentType, i.Payload)
}

// SetPayload replaces the item's raw payload with the encoded form of the
// given variant and bumps the UpdatedAt timestamp.
func (i *Item) SetPayload(payload Payload) error {
	raw, err := EncodePayload(payload)
	if err != nil {
		return err
	}

	i.Payload = raw
	i.UpdatedAt = time.Now().UTC()
	return nil
}

// Confidence returns the producer confidence score and whether one was
// reported.
func (i *Item) Confidence() (float64, bool) {
	if i.Source.Confidence == nil {
		return 0, false
	}
	return *i.Source.Confidence, true
}
