// Factory functions for rxcore
// 工厂函数，创建冷Observable
package rxcore

import "iter"

// ============================================================================
// 基础工厂函数
// ============================================================================

// Create 由生产函数创建Observable。生产函数可以返回nil，
// 返回的Disposable会在订阅取消或终止时被释放。
// 生产函数自身的panic属于编程错误，不会被转换为错误事件。
func Create[T any](producer func(emitter Emitter[T]) Disposable) Observable[T] {
	return newObservable(func(sub *subscriber[T]) {
		if d := producer(sub); d != nil {
			sub.add(d)
		}
	})
}

// Just 创建只发射一个值的Observable
func Just[T any](value T) Observable[T] {
	return FromSlice([]T{value})
}

// Of 从给定的值创建Observable
func Of[T any](values ...T) Observable[T] {
	return FromSlice(values)
}

// FromSlice 从切片创建Observable
func FromSlice[T any](values []T) Observable[T] {
	return newObservable(func(sub *subscriber[T]) {
		for _, value := range values {
			if sub.IsDisposed() {
				return
			}
			sub.OnNext(value)
		}
		sub.OnComplete()
	})
}

// FromSequence 从迭代器创建Observable，每次订阅重新迭代
func FromSequence[T any](seq iter.Seq[T]) Observable[T] {
	return newObservable(func(sub *subscriber[T]) {
		for value := range seq {
			if sub.IsDisposed() {
				return
			}
			sub.OnNext(value)
		}
		sub.OnComplete()
	})
}

// Range 创建发射[start, start+count)范围整数的Observable，count<=0时直接完成
func Range(start, count int) Observable[int] {
	return newObservable(func(sub *subscriber[int]) {
		for i := 0; i < count; i++ {
			if sub.IsDisposed() {
				return
			}
			sub.OnNext(start + i)
		}
		sub.OnComplete()
	})
}

// Empty 创建一个空的Observable，立即完成
func Empty[T any]() Observable[T] {
	return newObservable(func(sub *subscriber[T]) {
		sub.OnComplete()
	})
}

// Never 创建一个永不发射也永不终止的Observable
func Never[T any]() Observable[T] {
	return newObservable(func(sub *subscriber[T]) {})
}

// Throw 创建一个立即发射错误的Observable
func Throw[T any](err error) Observable[T] {
	return newObservable(func(sub *subscriber[T]) {
		sub.OnError(err)
	})
}

// Defer 在每次订阅时调用工厂函数，订阅其返回的Observable
func Defer[T any](factory func() Observable[T]) Observable[T] {
	return newObservable(func(sub *subscriber[T]) {
		var source Observable[T]
		if r := SafeExecute(func() { source = factory() }); r != nil {
			sub.OnError(newPanicError(r))
			return
		}
		if source == nil {
			sub.OnError(ErrNilObservable)
			return
		}
		subscribeChild(source, sub, sub.on)
	})
}
