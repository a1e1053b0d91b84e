// Transformation operators for rxcore
// 转换和过滤操作符：Map, Filter, FlatMap, Scan, Take, Skip等
package rxcore

import "sync/atomic"

// forwardTerminal 把上游的终止事件原样转发给下游
func forwardTerminal[T, R any](sub *subscriber[R], item Item[T]) {
	if item.IsError() {
		sub.OnError(item.Error)
		return
	}
	sub.OnComplete()
}

// Map 对每个值应用转换函数。转换函数返回错误或panic时，
// 下游收到错误事件，流随之终止。
func Map[T, R any](source Observable[T], transformer Transformer[T, R]) Observable[R] {
	return newObservable(func(sub *subscriber[R]) {
		subscribeChild(source, sub, func(item Item[T]) {
			if item.IsTerminal() {
				forwardTerminal(sub, item)
				return
			}

			result, err := invoke[T, R](transformer, item.Value)
			if err != nil {
				sub.OnError(err)
				return
			}
			sub.OnNext(result)
		})
	})
}

// Filter 只转发满足谓词的值，被排除的值不产生任何事件
func Filter[T any](source Observable[T], predicate Predicate[T]) Observable[T] {
	return newObservable(func(sub *subscriber[T]) {
		subscribeChild(source, sub, func(item Item[T]) {
			if item.IsTerminal() {
				sub.on(item)
				return
			}

			var keep bool
			if r := SafeExecute(func() { keep = predicate(item.Value) }); r != nil {
				sub.OnError(newPanicError(r))
				return
			}
			if keep {
				sub.OnNext(item.Value)
			}
		})
	})
}

// Scan 每个订阅维护独立的累加状态，每收到一个值就发射新的状态
func Scan[T, S any](source Observable[T], seed S, accumulator Accumulator[S, T]) Observable[S] {
	return newObservable(func(sub *subscriber[S]) {
		state := seed
		step := func(value T) (S, error) { return accumulator(state, value) }

		subscribeChild(source, sub, func(item Item[T]) {
			if item.IsTerminal() {
				forwardTerminal(sub, item)
				return
			}

			next, err := invoke(step, item.Value)
			if err != nil {
				sub.OnError(err)
				return
			}
			state = next
			sub.OnNext(state)
		})
	})
}

// FlatMap 把每个值转换为内部Observable并合并它们的事件。
// 外部与所有内部Observable都完成后才向下游发送完成；
// 任意一个错误立即终止整个流并释放其余的内部订阅。
func FlatMap[T, R any](source Observable[T], transformer Transformer[T, Observable[R]]) Observable[R] {
	return newObservable(func(sub *subscriber[R]) {
		out := newSerializer(sub.on)
		active := int32(1) // 外部Observable本身也算一个

		finish := func() {
			if atomic.AddInt32(&active, -1) == 0 {
				out.push(CreateCompleteItem[R]())
			}
		}

		subscribeChild(source, sub, func(item Item[T]) {
			switch item.Kind {
			case KindError:
				out.push(CreateErrorItem[R](item.Error))
				return
			case KindComplete:
				finish()
				return
			}

			inner, err := invoke[T, Observable[R]](transformer, item.Value)
			if err == nil && inner == nil {
				err = ErrNilObservable
			}
			if err != nil {
				out.push(CreateErrorItem[R](err))
				return
			}

			atomic.AddInt32(&active, 1)
			child := subscribeChild(inner, sub, func(innerItem Item[R]) {
				if innerItem.IsComplete() {
					finish()
					return
				}
				out.push(innerItem)
			})
			if child.IsDisposed() {
				sub.remove(child)
			}
		})
	})
}

// Take 只取前count个值然后完成，并取消上游订阅
func Take[T any](source Observable[T], count int) Observable[T] {
	if count <= 0 {
		return Empty[T]()
	}

	return newObservable(func(sub *subscriber[T]) {
		taken := 0
		subscribeChild(source, sub, func(item Item[T]) {
			if item.IsTerminal() {
				sub.on(item)
				return
			}

			taken++
			sub.OnNext(item.Value)
			if taken >= count {
				sub.OnComplete()
			}
		})
	})
}

// Skip 跳过前count个值
func Skip[T any](source Observable[T], count int) Observable[T] {
	return newObservable(func(sub *subscriber[T]) {
		skipped := 0
		subscribeChild(source, sub, func(item Item[T]) {
			if !item.IsTerminal() && skipped < count {
				skipped++
				return
			}
			sub.on(item)
		})
	})
}

// DistinctUntilChanged 丢弃与前一个值相等的值
func DistinctUntilChanged[T comparable](source Observable[T]) Observable[T] {
	return newObservable(func(sub *subscriber[T]) {
		var (
			last    T
			hasLast bool
		)
		subscribeChild(source, sub, func(item Item[T]) {
			if item.IsTerminal() {
				sub.on(item)
				return
			}
			if hasLast && last == item.Value {
				return
			}
			last, hasLast = item.Value, true
			sub.OnNext(item.Value)
		})
	})
}

// StartWith 在源序列之前先发射给定的值
func StartWith[T any](source Observable[T], values ...T) Observable[T] {
	return Concat(FromSlice(values), source)
}
