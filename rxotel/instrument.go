// Package rxotel provides OpenTelemetry instrumentation for rxcore streams.
package rxotel

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xinjiayu/rxcore"
)

// Instrumentation holds the tracer and instruments shared by every
// instrumented stream.
type Instrumentation struct {
	tracer trace.Tracer

	events        metric.Int64Counter
	subscriptions metric.Int64Counter
	failures      metric.Int64Counter
	lifetime      metric.Float64Histogram
}

// NewInstrumentation creates the counters and histogram used by Instrument.
func NewInstrumentation(tracer trace.Tracer, meter metric.Meter) (*Instrumentation, error) {
	events, err := meter.Int64Counter("rx.events",
		metric.WithDescription("Number of events delivered by instrumented streams"),
	)
	if err != nil {
		return nil, err
	}

	subscriptions, err := meter.Int64Counter("rx.subscriptions",
		metric.WithDescription("Number of subscriptions to instrumented streams"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter("rx.failures",
		metric.WithDescription("Number of subscriptions that terminated with an error"),
	)
	if err != nil {
		return nil, err
	}

	lifetime, err := meter.Float64Histogram("rx.subscription.duration",
		metric.WithDescription("Time from subscribe to terminal event or dispose in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Instrumentation{
		tracer:        tracer,
		events:        events,
		subscriptions: subscriptions,
		failures:      failures,
		lifetime:      lifetime,
	}, nil
}

// Instrument wraps source so that every subscription runs inside its own
// span named "rx:<name>". Events are counted by kind; an error terminal
// records the error on the span and sets its status.
func Instrument[T any](source rxcore.Observable[T], name string, inst *Instrumentation) rxcore.Observable[T] {
	return rxcore.Defer(func() rxcore.Observable[T] {
		s := inst.start(name)
		traced := rxcore.Operate(source, func(downstream rxcore.Emitter[T]) rxcore.Observer[T] {
			return func(item rxcore.Item[T]) {
				s.record(item.Kind)
				switch item.Kind {
				case rxcore.KindNext:
					downstream.OnNext(item.Value)
				case rxcore.KindError:
					s.end(item.Kind, item.Error)
					downstream.OnError(item.Error)
				default:
					s.end(item.Kind, nil)
					downstream.OnComplete()
				}
			}
		})
		return rxcore.DoFinally(traced, s.dispose)
	})
}

// subscriptionSpan is the per-subscription tracing state.
type subscriptionSpan struct {
	inst  *Instrumentation
	name  string
	ctx   context.Context
	span  trace.Span
	attrs attribute.Set
	start time.Time
	ended int32
}

func (inst *Instrumentation) start(name string) *subscriptionSpan {
	attrs := attribute.NewSet(attribute.String("rx.observable", name))
	ctx, span := inst.tracer.Start(context.Background(), "rx:"+name,
		trace.WithAttributes(attrs.ToSlice()...),
	)
	inst.subscriptions.Add(ctx, 1, metric.WithAttributeSet(attrs))

	return &subscriptionSpan{
		inst:  inst,
		name:  name,
		ctx:   ctx,
		span:  span,
		attrs: attrs,
		start: time.Now(),
	}
}

func (s *subscriptionSpan) record(kind rxcore.ItemKind) {
	s.inst.events.Add(s.ctx, 1, metric.WithAttributes(
		attribute.String("rx.observable", s.name),
		attribute.String("rx.kind", kind.String()),
	))
}

// end closes the span once with the terminal outcome.
func (s *subscriptionSpan) end(kind rxcore.ItemKind, err error) {
	if !atomic.CompareAndSwapInt32(&s.ended, 0, 1) {
		return
	}

	s.span.SetAttributes(attribute.String("rx.terminal", kind.String()))
	if err != nil {
		s.inst.failures.Add(s.ctx, 1, metric.WithAttributeSet(s.attrs))
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.finish()
}

// dispose closes the span if the subscriber left before a terminal event.
func (s *subscriptionSpan) dispose() {
	if !atomic.CompareAndSwapInt32(&s.ended, 0, 1) {
		return
	}
	s.span.SetAttributes(attribute.String("rx.terminal", "disposed"))
	s.finish()
}

func (s *subscriptionSpan) finish() {
	s.inst.lifetime.Record(s.ctx, time.Since(s.start).Seconds(), metric.WithAttributeSet(s.attrs))
	s.span.End()
}
