package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Envelope wraps every storefront event. Field names follow the shop's
// other producers so one consumer can route them all.
type Envelope[T any] struct {
	EventName     string    `json:"eventName"`
	EventVersion  int       `json:"eventVersion"`
	EventID       string    `json:"eventId"`
	CorrelationID string    `json:"correlationId,omitempty"`
	Producer      string    `json:"producer"`
	PartitionKey  string    `json:"partitionKey"`
	OccurredAt    time.Time `json:"occurredAt"`
	Payload       T         `json:"payload"`
}

func NewEnvelope[T any](name string, version int, key, correlationID string, payload T) Envelope[T] {
	return Envelope[T]{
		EventName:     name,
		EventVersion:  version,
		EventID:       uuid.NewString(),
		CorrelationID: correlationID,
		Producer:      Producer,
		PartitionKey:  key,
		OccurredAt:    time.Now().UTC(),
		Payload:       payload,
	}
}

// Validate reports every problem with the envelope's identity at once.
func (e Envelope[T]) Validate(name string, version int) error {
	var errs []error
	if e.EventName != name {
		errs = append(errs, fmt.Errorf("event name %q, want %q", e.EventName, name))
	}
	if e.EventVersion != version {
		errs = append(errs, fmt.Errorf("event version %d, want %d", e.EventVersion, version))
	}
	if _, err := uuid.Parse(e.EventID); err != nil {
		errs = append(errs, fmt.Errorf("event id %q: %w", e.EventID, err))
	}
	if e.PartitionKey == "" {
		errs = append(errs, errors.New("partition key is empty"))
	}
	return errors.Join(errs...)
}

// Decode unmarshals body and validates it as the named event.
func Decode[T any](body []byte, name string, version int) (Envelope[T], error) {
	var env Envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return env, fmt.Errorf("decode %s: %w", name, err)
	}
	if err := env.Validate(name, version); err != nil {
		return env, fmt.Errorf("invalid %s: %w", name, err)
	}
	return env, nil
}
