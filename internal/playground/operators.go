package playground

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xinjiayu/rxcore"
)

// doSomeRxLogic 每个数字产生两个事件
func doSomeRxLogic(number int) (rxcore.Observable[int], error) {
	return rxcore.Of(number*10, number*100), nil
}

func square(value int) (rxcore.Observable[int], error) {
	return rxcore.Of(value * value), nil
}

func init() {
	register(
		Scenario{
			Name:        "filter",
			Chapter:     ChapterOperators,
			Description: "keep only even numbers",
			Run: func(ctx context.Context, env *Env) error {
				numbers := rxcore.Range(1, 10)
				rxcore.Filter(numbers, func(n int) bool { return n%2 == 0 }).
					SubscribeWithCallbacks(printValue[int](env), nil, nil)
				return nil
			},
		},
		Scenario{
			Name:        "map",
			Chapter:     ChapterOperators,
			Description: "negate even numbers",
			Run: func(ctx context.Context, env *Env) error {
				rxcore.Map(rxcore.Of(1, 2, 3, 4, 5), func(n int) (int, error) {
					if n%2 == 0 {
						return n * -1, nil
					}
					return n, nil
				}).SubscribeWithCallbacks(printValue[int](env), nil, nil)
				return nil
			},
		},
		Scenario{
			Name:        "flatmap",
			Chapter:     ChapterOperators,
			Description: "merge the observables produced for each number",
			Run: func(ctx context.Context, env *Env) error {
				rxcore.FlatMap(rxcore.Of(1, 2, 3, 4, 5), doSomeRxLogic).
					SubscribeWithCallbacks(func(n int) { env.printf("Line length: %d\n", n) }, nil, nil)
				return nil
			},
		},
		Scenario{
			Name:        "flatmap-map",
			Chapter:     ChapterOperators,
			Description: "chain map after flatMap",
			Run: func(ctx context.Context, env *Env) error {
				merged := rxcore.FlatMap(rxcore.Of(1, 2, 3, 4, 5), doSomeRxLogic)
				rxcore.Map(merged, func(n int) (int, error) { return n / 10, nil }).
					SubscribeWithCallbacks(func(n int) { env.printf("Line length: %d\n", n) }, nil, nil)
				return nil
			},
		},
		Scenario{
			Name:        "challenge-map",
			Chapter:     ChapterOperators,
			Description: "describe each number of a range",
			Run: func(ctx context.Context, env *Env) error {
				rxcore.Map(rxcore.Range(1, 5), func(n int) (string, error) {
					return fmt.Sprintf("value %d doubled is %d", n, n*2), nil
				}).SubscribeWithCallbacks(printValue[string](env), nil, nil)
				return nil
			},
		},
		Scenario{
			Name:        "challenge-flatmap",
			Chapter:     ChapterOperators,
			Description: "square each number through an inner observable",
			Run: func(ctx context.Context, env *Env) error {
				rxcore.FlatMap(rxcore.Range(1, 5), square).
					SubscribeWithCallbacks(printValue[int](env), nil, nil)
				return nil
			},
		},
		Scenario{
			Name:        "challenge-filter",
			Chapter:     ChapterOperators,
			Description: "keep names starting with S",
			Run: func(ctx context.Context, env *Env) error {
				names := rxcore.Of("Steve", "Simon", "Dave", "Bob", "Sam", "Joe", "James")
				rxcore.Filter(names, func(name string) bool { return strings.HasPrefix(name, "S") }).
					SubscribeWithCallbacks(printValue[string](env), nil, nil)
				return nil
			},
		},
		Scenario{
			Name:        "scan-reduce",
			Chapter:     ChapterOperators,
			Description: "running totals and the final sum",
			Run: func(ctx context.Context, env *Env) error {
				sum := func(total, n int) (int, error) { return total + n, nil }
				rxcore.Scan(rxcore.Range(1, 5), 0, sum).
					SubscribeWithCallbacks(func(n int) { env.printf("running: %d\n", n) }, nil, nil)
				rxcore.Reduce(rxcore.Range(1, 5), 0, sum).
					SubscribeWithCallbacks(func(n int) { env.printf("total: %d\n", n) }, nil, nil)
				return nil
			},
		},
		Scenario{
			Name:        "distinct-startwith",
			Chapter:     ChapterOperators,
			Description: "drop consecutive duplicates after a leading value",
			Run: func(ctx context.Context, env *Env) error {
				source := rxcore.StartWith(rxcore.DistinctUntilChanged(rxcore.Of(1, 1, 2, 2, 2, 1, 3, 3)), 0)
				values, err := rxcore.ToSlice(ctx, source)
				if err != nil {
					return err
				}
				env.println(values)
				return nil
			},
		},
		Scenario{
			Name:        "merge-concat",
			Chapter:     ChapterOperators,
			Description: "combine several sources",
			Run: func(ctx context.Context, env *Env) error {
				letters := rxcore.Of("A", "B")
				digits := rxcore.Of("1", "2")

				merged, err := rxcore.ToSlice(ctx, rxcore.Merge(letters, digits))
				if err != nil {
					return err
				}
				concatenated, err := rxcore.ToSlice(ctx, rxcore.Concat(digits, letters))
				if err != nil {
					return err
				}
				env.printf("merge: %v\n", merged)
				env.printf("concat: %v\n", concatenated)
				return nil
			},
		},
		Scenario{
			Name:        "retry",
			Chapter:     ChapterOperators,
			Description: "resubscribe twice to a source that fails on its fourth event",
			Run: func(ctx context.Context, env *Env) error {
				attempt := 0
				source := rxcore.Create(func(emitter rxcore.Emitter[int]) rxcore.Disposable {
					attempt++
					env.printf("attempt %d\n", attempt)
					for i := 1; i <= 3; i++ {
						emitter.OnNext(i)
					}
					emitter.OnError(errors.New("event 4 failed"))
					return nil
				})

				rxcore.Retry(source, 2).SubscribeWithCallbacks(
					printValue[int](env),
					func(err error) { env.println(err) },
					nil,
				)
				return nil
			},
		},
		Scenario{
			Name:        "catch",
			Chapter:     ChapterOperators,
			Description: "switch to a fallback sequence on error",
			Run: func(ctx context.Context, env *Env) error {
				failing := rxcore.Concat(rxcore.Of(1, 2), rxcore.Throw[int](errAnError))
				rxcore.Catch(failing, func(err error) rxcore.Observable[int] {
					env.printf("caught: %v\n", err)
					return rxcore.Of(-1, -2)
				}).SubscribeWithCallbacks(
					printValue[int](env),
					func(err error) { env.println(err) },
					func() { env.println("Completed") },
				)

				values, err := rxcore.ToSlice(ctx, rxcore.OnErrorReturn(failing, 0))
				if err != nil {
					return err
				}
				env.printf("onErrorReturn: %v\n", values)
				return nil
			},
		},
		Scenario{
			Name:        "share",
			Chapter:     ChapterOperators,
			Description: "publish turns a cold source into a hot one",
			Run: func(ctx context.Context, env *Env) error {
				subscriptions := 0
				cold := rxcore.Defer(func() rxcore.Observable[int] {
					subscriptions++
					return rxcore.Of(1, 2, 3)
				})

				hot := rxcore.Publish(cold, env.subjectOptions()...)
				hot.SubscribeWithCallbacks(func(n int) { env.printf("first: %d\n", n) }, nil, nil)
				hot.SubscribeWithCallbacks(func(n int) { env.printf("second: %d\n", n) }, nil, nil)
				hot.Connect()

				env.printf("upstream subscriptions: %d\n", subscriptions)
				return nil
			},
		},
	)
}
