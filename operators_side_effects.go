// Side effect operators for rxcore
// 副作用操作符实现，包含DoOnNext, DoOnError, DoOnComplete, Debug等
package rxcore

import (
	"log/slog"
	"sync/atomic"
)

// ============================================================================
// 副作用操作符实现
// ============================================================================

// DoOnNext 在每个值发射时执行副作用操作
func DoOnNext[T any](source Observable[T], action OnNext[T]) Observable[T] {
	return doOnEach(source, func(item Item[T]) {
		if item.Kind == KindNext && action != nil {
			action(item.Value)
		}
	})
}

// DoOnError 在发生错误时执行副作用操作
func DoOnError[T any](source Observable[T], action OnError) Observable[T] {
	return doOnEach(source, func(item Item[T]) {
		if item.IsError() && action != nil {
			action(item.Error)
		}
	})
}

// DoOnComplete 在完成时执行副作用操作
func DoOnComplete[T any](source Observable[T], action OnComplete) Observable[T] {
	return doOnEach(source, func(item Item[T]) {
		if item.IsComplete() && action != nil {
			action()
		}
	})
}

// doOnEach 在事件转发给下游之前执行action，action panic时以*PanicError终止下游
func doOnEach[T any](source Observable[T], action func(item Item[T])) Observable[T] {
	return newObservable(func(sub *subscriber[T]) {
		subscribeChild(source, sub, func(item Item[T]) {
			if r := SafeExecute(func() { action(item) }); r != nil {
				sub.OnError(newPanicError(r))
				return
			}
			sub.on(item)
		})
	})
}

// DoOnSubscribe 在订阅上游之前执行副作用操作，panic时不订阅上游
func DoOnSubscribe[T any](source Observable[T], action func()) Observable[T] {
	return newObservable(func(sub *subscriber[T]) {
		if r := SafeExecute(action); r != nil {
			sub.OnError(newPanicError(r))
			return
		}
		subscribeChild(source, sub, sub.on)
	})
}

// DoOnDispose 仅在下游主动取消订阅时执行，正常终止不会触发
func DoOnDispose[T any](source Observable[T], action func()) Observable[T] {
	return newObservable(func(sub *subscriber[T]) {
		var terminated int32
		sub.add(NewBaseDisposable(func() {
			if atomic.LoadInt32(&terminated) == 0 {
				runDisposeAction("DoOnDispose", action)
			}
		}))
		subscribeChild(source, sub, func(item Item[T]) {
			if item.IsTerminal() {
				atomic.StoreInt32(&terminated, 1)
			}
			sub.on(item)
		})
	})
}

// DoFinally 在终止事件投递之后或取消订阅时执行一次
func DoFinally[T any](source Observable[T], action func()) Observable[T] {
	return newObservable(func(sub *subscriber[T]) {
		sub.add(NewBaseDisposable(func() {
			runDisposeAction("DoFinally", action)
		}))
		subscribeChild(source, sub, sub.on)
	})
}

// runDisposeAction 执行释放阶段的回调。此时下游可能已经收到终止事件，
// panic无法再作为错误投递，只能记录到slog.Default()。
func runDisposeAction(operator string, action func()) {
	if r := SafeExecute(action); r != nil {
		slog.Default().Error("rxcore: dispose action panicked",
			"operator", operator, "error", newPanicError(r))
	}
}

// Debug 把订阅的生命周期事件写入日志，事件本身不做任何修改。
// logger为nil时使用slog.Default()。
func Debug[T any](source Observable[T], name string, logger *slog.Logger) Observable[T] {
	if logger == nil {
		logger = slog.Default()
	}

	return newObservable(func(sub *subscriber[T]) {
		log := logger.With("observable", name)
		log.Info("subscribed")
		sub.add(NewBaseDisposable(func() {
			log.Info("disposed")
		}))

		subscribeChild(source, sub, func(item Item[T]) {
			switch item.Kind {
			case KindNext:
				log.Info("event", "kind", item.Kind.String(), "value", item.Value)
			case KindError:
				log.Info("event", "kind", item.Kind.String(), "error", item.Error)
			default:
				log.Info("event", "kind", item.Kind.String())
			}
			sub.on(item)
		})
	})
}
