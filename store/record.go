package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/xinjiayu/rxcore"
)

// Persist appends every event of each subscription to store under stream.
// Every subscription is a separate recording with its own run id. Events
// pass through unchanged; an append failure is logged and does not affect
// the stream.
func Persist[T any](source rxcore.Observable[T], store EventStore, stream string, logger *slog.Logger) rxcore.Observable[T] {
	if logger == nil {
		logger = slog.Default()
	}

	return rxcore.Defer(func() rxcore.Observable[T] {
		ctx := context.Background()
		run := uuid.New()
		log := logger.With("stream", stream, "run", run.String())

		return rxcore.Operate(source, func(downstream rxcore.Emitter[T]) rxcore.Observer[T] {
			return func(item rxcore.Item[T]) {
				record, err := newRecord(stream, run, item)
				if err == nil {
					_, err = store.Append(ctx, record)
				}
				if err != nil {
					log.Warn("store: append failed", "kind", item.Kind.String(), "error", err)
				}

				switch item.Kind {
				case rxcore.KindNext:
					downstream.OnNext(item.Value)
				case rxcore.KindError:
					downstream.OnError(item.Error)
				default:
					downstream.OnComplete()
				}
			}
		})
	})
}

func newRecord[T any](stream string, run uuid.UUID, item rxcore.Item[T]) (Record, error) {
	record := Record{
		ID:     uuid.New(),
		Run:    run,
		Stream: stream,
		Kind:   item.Kind,
		Time:   time.Now(),
	}

	switch item.Kind {
	case rxcore.KindNext:
		payload, err := json.Marshal(item.Value)
		if err != nil {
			return Record{}, fmt.Errorf("store: marshal value: %w", err)
		}
		record.Payload = payload
	case rxcore.KindError:
		if item.Error != nil {
			record.Error = item.Error.Error()
		}
	}
	return record, nil
}

// Runs returns the recordings of stream in the order they started.
func Runs(ctx context.Context, store EventStore, stream string) ([]uuid.UUID, error) {
	records, err := store.List(ctx, stream, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("store: runs of %s: %w", stream, err)
	}
	return runOrder(records), nil
}

func runOrder(records []Record) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var runs []uuid.UUID
	for _, r := range records {
		if !seen[r.Run] {
			seen[r.Run] = true
			runs = append(runs, r.Run)
		}
	}
	return runs
}

// FromStore replays the most recently started recording of stream as a
// cold Observable. Every subscription reads the records again. A recorded
// error is replayed as *RecordedError; a recording without a terminal event
// completes after its last value.
func FromStore[T any](ctx context.Context, store EventStore, stream string) rxcore.Observable[T] {
	return replay[T](ctx, store, stream, func(records []Record) (uuid.UUID, bool) {
		runs := runOrder(records)
		if len(runs) == 0 {
			return uuid.Nil, false
		}
		return runs[len(runs)-1], true
	})
}

// FromRun replays one recording of stream, as returned by Runs. An unknown
// run completes without values.
func FromRun[T any](ctx context.Context, store EventStore, stream string, run uuid.UUID) rxcore.Observable[T] {
	return replay[T](ctx, store, stream, func([]Record) (uuid.UUID, bool) {
		return run, true
	})
}

func replay[T any](ctx context.Context, store EventStore, stream string, pick func([]Record) (uuid.UUID, bool)) rxcore.Observable[T] {
	return rxcore.Create(func(emitter rxcore.Emitter[T]) rxcore.Disposable {
		records, err := store.List(ctx, stream, 0, 0)
		if err != nil {
			emitter.OnError(fmt.Errorf("store: replay %s: %w", stream, err))
			return nil
		}

		run, ok := pick(records)
		if !ok {
			emitter.OnComplete()
			return nil
		}

		for _, r := range records {
			if r.Run != run {
				continue
			}
			if emitter.IsDisposed() {
				return nil
			}
			if err := ctx.Err(); err != nil {
				emitter.OnError(err)
				return nil
			}

			switch r.Kind {
			case rxcore.KindNext:
				var value T
				if err := json.Unmarshal(r.Payload, &value); err != nil {
					emitter.OnError(fmt.Errorf("store: decode %s#%d: %w", stream, r.Seq, err))
					return nil
				}
				emitter.OnNext(value)
			case rxcore.KindError:
				emitter.OnError(&RecordedError{Stream: stream, Message: r.Error})
				return nil
			default:
				emitter.OnComplete()
				return nil
			}
		}

		emitter.OnComplete()
		return nil
	})
}
