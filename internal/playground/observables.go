package playground

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/xinjiayu/rxcore"
)

var errAnError = errors.New("anError")

func init() {
	register(
		Scenario{
			Name:        "just-of-from-range",
			Chapter:     ChapterObservables,
			Description: "creating observables without subscribing prints nothing",
			Run: func(ctx context.Context, env *Env) error {
				_ = rxcore.Just(1)
				_ = rxcore.Of(1, 2, 3)
				_ = rxcore.Of([]int{1, 2, 3})
				_ = rxcore.FromSlice([]int{1, 2, 3})
				_ = rxcore.Range(1, 10)
				return nil
			},
		},
		Scenario{
			Name:        "subscribe",
			Chapter:     ChapterObservables,
			Description: "subscribe with an onNext handler",
			Run: func(ctx context.Context, env *Env) error {
				rxcore.Of(1, 2, 3).SubscribeWithCallbacks(printValue[int](env), nil, nil)
				return nil
			},
		},
		Scenario{
			Name:        "empty",
			Chapter:     ChapterObservables,
			Description: "an empty observable only completes",
			Run: func(ctx context.Context, env *Env) error {
				rxcore.Empty[struct{}]().SubscribeWithCallbacks(
					printValue[struct{}](env),
					nil,
					func() { env.println("Completed") },
				)
				return nil
			},
		},
		Scenario{
			Name:        "never",
			Chapter:     ChapterObservables,
			Description: "a never observable neither emits nor completes",
			Run: func(ctx context.Context, env *Env) error {
				d := rxcore.Never[any]().SubscribeWithCallbacks(
					printValue[any](env),
					nil,
					func() { env.println("Completed") },
				)
				d.Dispose()
				return nil
			},
		},
		Scenario{
			Name:        "dispose",
			Chapter:     ChapterObservables,
			Description: "dispose a subscription manually",
			Run: func(ctx context.Context, env *Env) error {
				source := rxcore.DoFinally(rxcore.Of("A", "B", "C"), func() { env.println("Disposed!") })
				subscription := source.SubscribeWithCallbacks(printValue[string](env), nil, nil)
				subscription.Dispose()
				return nil
			},
		},
		Scenario{
			Name:        "dispose-bag",
			Chapter:     ChapterObservables,
			Description: "a composite disposable releases every subscription at once",
			Run: func(ctx context.Context, env *Env) error {
				bag := rxcore.NewCompositeDisposable()
				defer bag.Dispose()

				bag.Add(rxcore.Of("A", "B", "C").SubscribeWithCallbacks(printValue[string](env), nil, nil))
				bag.Add(rxcore.Of("D", "E", "F").SubscribeWithCallbacks(printValue[string](env), nil, nil))
				return nil
			},
		},
		Scenario{
			Name:        "deferred",
			Chapter:     ChapterObservables,
			Description: "defer picks a new observable on every subscription",
			Run: func(ctx context.Context, env *Env) error {
				flip := false
				factory := rxcore.Defer(func() rxcore.Observable[int] {
					flip = !flip
					if flip {
						return rxcore.Of(1, 2, 3)
					}
					return rxcore.Of(4, 5, 6)
				})

				bag := rxcore.NewCompositeDisposable()
				defer bag.Dispose()
				for i := 0; i < 3; i++ {
					bag.Add(factory.SubscribeWithCallbacks(printValue[int](env), nil, nil))
					env.println()
				}
				return nil
			},
		},
		Scenario{
			Name:        "create",
			Chapter:     ChapterObservables,
			Description: "events after an error are never delivered",
			Run: func(ctx context.Context, env *Env) error {
				source := rxcore.Create(func(emitter rxcore.Emitter[string]) rxcore.Disposable {
					emitter.OnNext("1")
					emitter.OnError(errAnError)
					emitter.OnComplete()
					emitter.OnNext("?")
					return nil
				})

				bag := rxcore.NewCompositeDisposable()
				defer bag.Dispose()
				bag.Add(rxcore.DoFinally(source, func() { env.println("Disposed") }).SubscribeWithCallbacks(
					printValue[string](env),
					func(err error) { env.println(err) },
					func() { env.println("Completed") },
				))
				return nil
			},
		},
		Scenario{
			Name:        "completable",
			Chapter:     ChapterObservables,
			Description: "a completable only completes or fails",
			Run: func(ctx context.Context, env *Env) error {
				condition := true
				rxcore.CreateCompletable(func(emitter rxcore.CompletableEmitter) rxcore.Disposable {
					if condition {
						emitter.OnComplete()
					} else {
						emitter.OnError(errAnError)
					}
					return nil
				}).Subscribe(
					func() { env.println("Completed!") },
					func(err error) { env.println(err) },
				)
				return nil
			},
		},
		Scenario{
			Name:        "single",
			Chapter:     ChapterObservables,
			Description: "a single succeeds with one value or fails",
			Run: func(ctx context.Context, env *Env) error {
				condition := true
				rxcore.CreateSingle(func(emitter rxcore.SingleEmitter[string]) rxcore.Disposable {
					if condition {
						emitter.OnSuccess("Success!")
					} else {
						emitter.OnError(errAnError)
					}
					return nil
				}).Subscribe(
					printValue[string](env),
					func(err error) { env.println(err) },
				)
				return nil
			},
		},
		Scenario{
			Name:        "maybe",
			Chapter:     ChapterObservables,
			Description: "a maybe succeeds, completes empty or fails",
			Run: func(ctx context.Context, env *Env) error {
				rxcore.CreateMaybe(func(emitter rxcore.MaybeEmitter[int]) rxcore.Disposable {
					number, err := strconv.Atoi("1")
					if err != nil {
						emitter.OnError(err)
					} else {
						emitter.OnSuccess(number)
					}
					emitter.OnComplete()
					return nil
				}).Subscribe(
					printValue[int](env),
					func(err error) { env.println(err) },
					func() { env.println("Completed") },
				)
				return nil
			},
		},
		Scenario{
			Name:        "challenge-never-do",
			Chapter:     ChapterObservables,
			Description: "side effects on subscribe and dispose of a never observable",
			Run: func(ctx context.Context, env *Env) error {
				source := rxcore.DoOnDispose(
					rxcore.DoOnSubscribe(rxcore.Never[any](), func() { env.println("Subscribed") }),
					func() { env.println("Disposed") },
				)
				d := source.SubscribeWithCallbacks(printValue[any](env), nil, nil)
				d.Dispose()
				return nil
			},
		},
		Scenario{
			Name:        "challenge-never-debug",
			Chapter:     ChapterObservables,
			Description: "the debug operator logs the subscription lifecycle",
			Run: func(ctx context.Context, env *Env) error {
				d := rxcore.Debug(rxcore.Never[any](), "never", env.debugLogger()).Subscribe(nil)
				d.Dispose()
				return nil
			},
		},
		Scenario{
			Name:        "challenge-single-file",
			Chapter:     ChapterObservables,
			Description: "load a text file as a single",
			Run: func(ctx context.Context, env *Env) error {
				loadText("rxplay-missing.txt").Subscribe(
					printValue[string](env),
					func(err error) { env.println(err) },
				)
				return nil
			},
		},
	)
}

// errFileNotFound 文件不存在
var errFileNotFound = errors.New("fileNotFound")

// loadText 以Single形式读取文件内容
func loadText(filename string) rxcore.Single[string] {
	return rxcore.CreateSingle(func(emitter rxcore.SingleEmitter[string]) rxcore.Disposable {
		data, err := os.ReadFile(filename)
		switch {
		case errors.Is(err, os.ErrNotExist):
			emitter.OnError(errFileNotFound)
		case err != nil:
			emitter.OnError(fmt.Errorf("unreadable: %w", err))
		default:
			emitter.OnSuccess(string(data))
		}
		return nil
	})
}
