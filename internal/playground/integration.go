package playground

import (
	"context"
	"strings"

	"github.com/xinjiayu/rxcore"
	"github.com/xinjiayu/rxcore/rxotel"
	"github.com/xinjiayu/rxcore/store"
)

const recordStream = "playground.record-replay"

func init() {
	register(
		Scenario{
			Name:        "record-replay",
			Chapter:     ChapterIntegration,
			Description: "record a stream to the event store and replay it later",
			Run: func(ctx context.Context, env *Env) error {
				words := rxcore.Map(rxcore.Of("alpha", "beta", "gamma"), func(s string) (string, error) {
					return strings.ToUpper(s), nil
				})

				recorded, err := rxcore.ToSlice(ctx, store.Persist(words, env.Store, recordStream, env.Logger))
				if err != nil {
					return err
				}
				env.printf("recorded: %v\n", recorded)

				replayed, err := rxcore.ToSlice(ctx, store.FromStore[string](ctx, env.Store, recordStream))
				if err != nil {
					return err
				}
				env.printf("replayed: %v\n", replayed)
				return nil
			},
		},
		Scenario{
			Name:        "instrumented",
			Chapter:     ChapterIntegration,
			Description: "trace every subscription of a flatMap pipeline",
			Run: func(ctx context.Context, env *Env) error {
				inst, err := env.instrumentation()
				if err != nil {
					return err
				}

				pipeline := rxotel.Instrument(rxcore.FlatMap(rxcore.Of(1, 2, 3), doSomeRxLogic), "flatmap", inst)
				values, err := rxcore.ToSlice(ctx, pipeline)
				if err != nil {
					return err
				}
				env.printf("values: %v\n", values)

				first, err := rxcore.FirstOrError(pipeline).Get(ctx)
				if err != nil {
					return err
				}
				env.printf("first: %d\n", first)
				return nil
			},
		},
	)
}
