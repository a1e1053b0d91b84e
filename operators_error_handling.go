// Error handling operators for rxcore
// 错误处理操作符实现，包含Catch, Retry, OnErrorReturn等
package rxcore

// ============================================================================
// 错误处理操作符实现
// ============================================================================

// Catch 错误捕获操作符。上游出错时不转发错误，而是订阅handler返回的Observable；
// 出错之前的值和完成信号原样通过。
func Catch[T any](source Observable[T], handler func(err error) Observable[T]) Observable[T] {
	return newObservable(func(sub *subscriber[T]) {
		subscribeChild(source, sub, func(item Item[T]) {
			if !item.IsError() {
				sub.on(item)
				return
			}

			var fallback Observable[T]
			if r := SafeExecute(func() { fallback = handler(item.Error) }); r != nil {
				sub.OnError(newPanicError(r))
				return
			}
			if fallback == nil {
				sub.OnError(ErrNilObservable)
				return
			}
			subscribeChild(fallback, sub, sub.on)
		})
	})
}

// OnErrorReturn 发生错误时发射指定值然后完成
func OnErrorReturn[T any](source Observable[T], value T) Observable[T] {
	return Catch(source, func(error) Observable[T] {
		return Just(value)
	})
}

// OnErrorResumeNext 发生错误时切换到另一个Observable
func OnErrorResumeNext[T any](source Observable[T], next Observable[T]) Observable[T] {
	return Catch(source, func(error) Observable[T] {
		return next
	})
}

// retryUnbounded 表示不限次数的重试
const retryUnbounded = -1

// Retry 上游出错时重新订阅同一个源，最多重试maxAttempts次
// （总共订阅maxAttempts+1次）。次数用尽后把最后一个错误转发给下游。
func Retry[T any](source Observable[T], maxAttempts int) Observable[T] {
	if maxAttempts < 0 {
		maxAttempts = 0
	}
	return retry(source, maxAttempts)
}

// RetryForever 上游出错时无限次重新订阅。
// 注意：如果源总是确定性地失败，订阅将永远循环下去，这由调用者负责。
func RetryForever[T any](source Observable[T]) Observable[T] {
	return retry(source, retryUnbounded)
}

func retry[T any](source Observable[T], maxAttempts int) Observable[T] {
	return newObservable(func(sub *subscriber[T]) {
		var (
			t        trampoline
			attempts int
			current  Disposable
			observer Observer[T]
		)

		// 同步失败的源会在subscribeChild内部再次请求订阅，
		// trampoline把它展开成循环
		resubscribe := func() {
			if sub.IsDisposed() {
				return
			}
			if current != nil {
				sub.remove(current)
			}
			current = subscribeChild(source, sub, observer)
		}

		observer = func(item Item[T]) {
			if !item.IsError() {
				sub.on(item)
				return
			}

			if maxAttempts != retryUnbounded && attempts >= maxAttempts {
				sub.OnError(item.Error)
				return
			}
			attempts++
			t.run(resubscribe)
		}

		t.run(resubscribe)
	})
}
