package playground

import (
	"context"
	"time"

	"github.com/xinjiayu/rxcore"
	"github.com/xinjiayu/rxcore/scheduler"
)

// stamp 相对虚拟时钟起点的时间
func stamp(clock rxcore.Scheduler) time.Duration {
	return clock.Now().Sub(epoch)
}

// emitAt 在虚拟时间at向subject发送value
func emitAt[T any](clock *rxcore.VirtualScheduler, subject rxcore.Subject[T], at time.Duration, value T) {
	clock.ScheduleAfter(at-stamp(clock), func() { subject.OnNext(value) })
}

func init() {
	register(
		Scenario{
			Name:        "interval",
			Chapter:     ChapterTime,
			Description: "three ticks of a one second interval on a virtual clock",
			Run: func(ctx context.Context, env *Env) error {
				clock := newVirtualClock()
				rxcore.Take(rxcore.Interval(time.Second, clock), 3).SubscribeWithCallbacks(
					func(n int) { env.printf("%v tick %d\n", stamp(clock), n) },
					nil,
					func() { env.printf("%v Completed\n", stamp(clock)) },
				)

				clock.AdvanceBy(10 * time.Second)
				env.printf("pending tasks: %d\n", clock.Pending())
				return nil
			},
		},
		Scenario{
			Name:        "timer-delay",
			Chapter:     ChapterTime,
			Description: "a timer and a delayed sequence",
			Run: func(ctx context.Context, env *Env) error {
				clock := newVirtualClock()
				rxcore.Timer(2*time.Second, clock).SubscribeWithCallbacks(
					func(n int) { env.printf("%v timer %d\n", stamp(clock), n) }, nil, nil,
				)
				rxcore.Delay(rxcore.Of("a", "b"), 500*time.Millisecond, clock).SubscribeWithCallbacks(
					func(s string) { env.printf("%v delayed %s\n", stamp(clock), s) },
					nil,
					func() { env.printf("%v delay Completed\n", stamp(clock)) },
				)

				clock.AdvanceBy(3 * time.Second)
				return nil
			},
		},
		Scenario{
			Name:        "debounce",
			Chapter:     ChapterTime,
			Description: "only the last keystroke of a burst gets through",
			Run: func(ctx context.Context, env *Env) error {
				clock := newVirtualClock()
				keys := rxcore.NewPublishSubject[string](env.subjectOptions()...)

				rxcore.Debounce[string](keys, 300*time.Millisecond, clock).SubscribeWithCallbacks(
					func(s string) { env.printf("%v search %q\n", stamp(clock), s) }, nil, nil,
				)

				emitAt(clock, keys, 0, "r")
				emitAt(clock, keys, 100*time.Millisecond, "rx")
				emitAt(clock, keys, 200*time.Millisecond, "rxg")
				emitAt(clock, keys, 800*time.Millisecond, "rxgo")
				clock.AdvanceBy(2 * time.Second)
				return nil
			},
		},
		Scenario{
			Name:        "timeout",
			Chapter:     ChapterTime,
			Description: "a silent source fails after its deadline",
			Run: func(ctx context.Context, env *Env) error {
				clock := newVirtualClock()
				source := rxcore.NewPublishSubject[int](env.subjectOptions()...)

				rxcore.Timeout[int](source, time.Second, clock).SubscribeWithCallbacks(
					func(n int) { env.printf("%v value %d\n", stamp(clock), n) },
					func(err error) { env.printf("%v %v\n", stamp(clock), err) },
					nil,
				)

				emitAt(clock, source, 500*time.Millisecond, 1)
				emitAt(clock, source, 1200*time.Millisecond, 2)
				clock.AdvanceBy(5 * time.Second)
				env.printf("source observers: %d\n", source.ObserverCount())
				return nil
			},
		},
		Scenario{
			Name:        "realtime-interval",
			Chapter:     ChapterTime,
			Description: "the same interval on a goroutine scheduler and the wall clock",
			Run: func(ctx context.Context, env *Env) error {
				clock := scheduler.NewGoroutineScheduler()
				defer clock.Wait()

				ticks, err := rxcore.ToSlice(ctx, rxcore.Take(rxcore.Interval(10*time.Millisecond, clock), 3))
				if err != nil {
					return err
				}
				env.printf("%v\n", ticks)
				return nil
			},
		},
		Scenario{
			Name:        "cron-schedule",
			Chapter:     ChapterTime,
			Description: "upcoming firings of a cron expression",
			Run: func(ctx context.Context, env *Env) error {
				clock := scheduler.NewCronScheduler(env.Logger)
				defer clock.Stop()

				const spec = "*/15 * * * *"
				next := epoch
				for i := 0; i < 3; i++ {
					var err error
					if next, err = clock.Next(spec, next); err != nil {
						return err
					}
					env.printf("%s fires at %s\n", spec, next.Format("15:04"))
				}
				return nil
			},
		},
	)
}
