// Package store records rxcore streams so they can be replayed later.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xinjiayu/rxcore"
)

// Record is one persisted stream event.
type Record struct {
	ID      uuid.UUID
	Run     uuid.UUID // recording that produced the record, uuid.Nil for direct appends
	Stream  string
	Seq     uint64
	Kind    rxcore.ItemKind
	Payload json.RawMessage // JSON encoded value, only for next events
	Error   string          // error message, only for error events
	Time    time.Time
}

// EventStore persists records per stream.
type EventStore interface {
	// Append stores a record under the next Seq of its stream and returns
	// that Seq. record.Seq is ignored. Seq values of a stream start at 1
	// and are never reused.
	Append(ctx context.Context, record Record) (uint64, error)

	// List returns records of a stream in Seq order.
	// afterSeq: return records with Seq > afterSeq (0 means all)
	// limit: max records to return (0 means no limit)
	List(ctx context.Context, stream string, afterSeq uint64, limit int) ([]Record, error)

	// LatestSeq returns the highest Seq for a stream (0 if none).
	LatestSeq(ctx context.Context, stream string) (uint64, error)

	// Streams returns the names of all recorded streams.
	Streams(ctx context.Context) ([]string, error)
}

// RecordedError is the error replayed for a recorded error event.
type RecordedError struct {
	Stream  string
	Message string
}

func (e *RecordedError) Error() string {
	return e.Message
}

func parseKind(s string) (rxcore.ItemKind, error) {
	switch s {
	case rxcore.KindNext.String():
		return rxcore.KindNext, nil
	case rxcore.KindError.String():
		return rxcore.KindError, nil
	case rxcore.KindComplete.String():
		return rxcore.KindComplete, nil
	default:
		return 0, fmt.Errorf("store: unknown record kind %q", s)
	}
}
