// Aggregation and blocking operators for rxcore
// 聚合操作符以及把Observable转换为普通返回值的阻塞操作
package rxcore

import "context"

// Reduce 累加所有值，上游完成时发射最终状态
func Reduce[T, S any](source Observable[T], seed S, accumulator Accumulator[S, T]) Observable[S] {
	return newObservable(func(sub *subscriber[S]) {
		state := seed
		step := func(value T) (S, error) { return accumulator(state, value) }

		subscribeChild(source, sub, func(item Item[T]) {
			switch item.Kind {
			case KindNext:
				next, err := invoke(step, item.Value)
				if err != nil {
					sub.OnError(err)
					return
				}
				state = next
			case KindError:
				sub.OnError(item.Error)
			default:
				sub.OnNext(state)
				sub.OnComplete()
			}
		})
	})
}

// ToSlice 订阅并收集所有值，直到完成、出错或ctx被取消
func ToSlice[T any](ctx context.Context, source Observable[T]) ([]T, error) {
	var values []T
	done := make(chan error, 1)

	subscription := source.Subscribe(func(item Item[T]) {
		switch item.Kind {
		case KindNext:
			values = append(values, item.Value)
		case KindError:
			done <- item.Error
		default:
			done <- nil
		}
	})
	defer subscription.Dispose()

	select {
	case err := <-done:
		return values, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// First 阻塞获取第一个值，空序列返回ErrEmpty
func First[T any](ctx context.Context, source Observable[T]) (T, error) {
	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)

	subscription := Take(source, 1).Subscribe(func(item Item[T]) {
		switch item.Kind {
		case KindNext:
			done <- result{value: item.Value}
		case KindError:
			done <- result{err: item.Error}
		default:
			select {
			case done <- result{err: ErrEmpty}:
			default:
			}
		}
	})
	defer subscription.Dispose()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
