package playground

import (
	"context"
	"errors"

	"github.com/xinjiayu/rxcore"
)

func init() {
	register(
		Scenario{
			Name:        "publish-subject",
			Chapter:     ChapterSubjects,
			Description: "a publish subject drops values sent before subscription",
			Run: func(ctx context.Context, env *Env) error {
				subject := rxcore.NewPublishSubject[string](env.subjectOptions()...)
				observable := subject.AsObservable()

				subject.OnNext("Number one")
				d := observable.SubscribeWithCallbacks(printValue[string](env), nil, nil)
				defer d.Dispose()
				subject.OnNext("Number two")
				return nil
			},
		},
		Scenario{
			Name:        "behavior-subject",
			Chapter:     ChapterSubjects,
			Description: "a behavior subject replays its current value",
			Run: func(ctx context.Context, env *Env) error {
				subject := rxcore.NewBehaviorSubject("Number zero", env.subjectOptions()...)

				subject.OnNext("Number one")
				subject.OnNext("Number two")
				d := subject.SubscribeWithCallbacks(printValue[string](env), nil, nil)
				defer d.Dispose()
				subject.OnNext("Number three")

				current, err := subject.Value()
				if err != nil {
					return err
				}
				env.printf("current: %s\n", current)
				return nil
			},
		},
		Scenario{
			Name:        "replay-subject",
			Chapter:     ChapterSubjects,
			Description: "a replay subject replays up to its buffer size",
			Run: func(ctx context.Context, env *Env) error {
				subject := rxcore.NewReplaySubject[string](3, env.subjectOptions()...)

				subject.OnNext("Number one")
				subject.OnNext("Number two")
				subject.OnNext("Number three")
				subject.OnNext("Number four")
				d := subject.SubscribeWithCallbacks(printValue[string](env), nil, nil)
				defer d.Dispose()
				subject.OnNext("Number five")
				return nil
			},
		},
		Scenario{
			Name:        "async-subject",
			Chapter:     ChapterSubjects,
			Description: "an async subject only emits its last value on completion",
			Run: func(ctx context.Context, env *Env) error {
				subject := rxcore.NewAsyncSubject[int](env.subjectOptions()...)
				subject.SubscribeWithCallbacks(printValue[int](env), nil, func() { env.println("Completed") })

				subject.OnNext(1)
				subject.OnNext(2)
				subject.OnNext(3)
				env.println("before completion")
				subject.OnComplete()

				env.println("late subscriber:")
				subject.SubscribeWithCallbacks(printValue[int](env), nil, func() { env.println("Completed") })
				return nil
			},
		},
		Scenario{
			Name:        "challenge-publish",
			Chapter:     ChapterSubjects,
			Description: "subscribe to a publish subject and emit through it",
			Run: func(ctx context.Context, env *Env) error {
				subject := rxcore.NewPublishSubject[string](env.subjectOptions()...)
				bag := rxcore.NewCompositeDisposable()
				defer bag.Dispose()

				bag.Add(subject.SubscribeWithCallbacks(func(text string) {
					env.printf("received: %s\n", text)
				}, nil, nil))
				subject.OnNext("Hello, subject")
				return nil
			},
		},
		Scenario{
			Name:        "challenge-replay",
			Chapter:     ChapterSubjects,
			Description: "a replay subject with buffer two prints 2, 3",
			Run: func(ctx context.Context, env *Env) error {
				subject := rxcore.NewReplaySubject[int](env.ReplayBuffer, env.subjectOptions()...)
				bag := rxcore.NewCompositeDisposable()
				defer bag.Dispose()

				subject.OnNext(1)
				subject.OnNext(2)
				subject.OnNext(3)
				bag.Add(subject.SubscribeWithCallbacks(printValue[int](env), nil, nil))
				return nil
			},
		},
		Scenario{
			Name:        "replay-error",
			Chapter:     ChapterSubjects,
			Description: "late subscribers to a failed replay subject only see the error",
			Run: func(ctx context.Context, env *Env) error {
				subject := rxcore.NewReplaySubject[int](env.ReplayBuffer, env.subjectOptions()...)
				subject.OnNext(1)
				subject.OnNext(2)
				subject.OnError(errors.New("replay failed"))

				subject.SubscribeWithCallbacks(
					printValue[int](env),
					func(err error) { env.println(err) },
					nil,
				)

				if err := subject.TryOnNext(3); err != nil {
					env.println(err)
				}
				return nil
			},
		},
		Scenario{
			Name:        "subject-skip-take",
			Chapter:     ChapterSubjects,
			Description: "skip and take applied to a hot subject",
			Run: func(ctx context.Context, env *Env) error {
				subject := rxcore.NewPublishSubject[int](env.subjectOptions()...)
				rxcore.Take(rxcore.Skip[int](subject, 2), 2).SubscribeWithCallbacks(
					printValue[int](env),
					nil,
					func() { env.println("Completed") },
				)

				for i := 1; i <= 6; i++ {
					subject.OnNext(i)
				}
				env.printf("observers left: %d\n", subject.ObserverCount())
				return nil
			},
		},
	)
}
