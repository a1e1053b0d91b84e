// Time-based operators for rxcore
// 时间操作符，所有计时都委托给调用者提供的Scheduler
package rxcore

import (
	"sync"
	"time"
)

// Interval 每隔period发射一个递增整数，从0开始
func Interval(period time.Duration, scheduler Scheduler) Observable[int] {
	return newObservable(func(sub *subscriber[int]) {
		out := newSerializer(sub.on)
		var (
			mu      sync.Mutex
			counter int
		)

		sub.add(scheduler.ScheduleRecurring(period, func() {
			mu.Lock()
			claimed := out.enqueue(CreateItem(counter))
			counter++
			mu.Unlock()

			if claimed {
				out.drain()
			}
		}))
	})
}

// Timer 在delay之后发射0然后完成
func Timer(delay time.Duration, scheduler Scheduler) Observable[int] {
	return newObservable(func(sub *subscriber[int]) {
		sub.add(scheduler.ScheduleAfter(delay, func() {
			sub.OnNext(0)
			sub.OnComplete()
		}))
	})
}

// Delay 把每个值和完成信号推迟delay后发射，错误立即转发
func Delay[T any](source Observable[T], delay time.Duration, scheduler Scheduler) Observable[T] {
	return newObservable(func(sub *subscriber[T]) {
		out := newSerializer(sub.on)
		var (
			mu      sync.Mutex
			pending []Item[T]
		)

		// 每次触发只取队首，即使调度器打乱了触发顺序，输出顺序也不变
		fire := func() {
			mu.Lock()
			if len(pending) == 0 {
				mu.Unlock()
				return
			}
			item := pending[0]
			pending = pending[1:]
			claimed := out.enqueue(item)
			mu.Unlock()

			if claimed {
				out.drain()
			}
		}

		subscribeChild(source, sub, func(item Item[T]) {
			if item.IsError() {
				mu.Lock()
				pending = nil
				mu.Unlock()
				out.push(item)
				return
			}

			mu.Lock()
			pending = append(pending, item)
			mu.Unlock()
			sub.add(scheduler.ScheduleAfter(delay, fire))
		})
	})
}

// Debounce 只有在window时间内没有新值时才发射最近的值；
// 完成时立即发射尚未发出的值
func Debounce[T any](source Observable[T], window time.Duration, scheduler Scheduler) Observable[T] {
	return newObservable(func(sub *subscriber[T]) {
		out := newSerializer(sub.on)
		timer := NewSerialDisposable()
		sub.add(timer)

		var (
			mu         sync.Mutex
			latest     T
			hasLatest  bool
			generation uint64
		)

		subscribeChild(source, sub, func(item Item[T]) {
			mu.Lock()
			generation++
			current := generation

			switch item.Kind {
			case KindNext:
				latest, hasLatest = item.Value, true
				mu.Unlock()

				timer.Set(scheduler.ScheduleAfter(window, func() {
					mu.Lock()
					if current != generation || !hasLatest {
						mu.Unlock()
						return
					}
					hasLatest = false
					claimed := out.enqueue(CreateItem(latest))
					mu.Unlock()

					if claimed {
						out.drain()
					}
				}))

			case KindError:
				hasLatest = false
				claimed := out.enqueue(item)
				mu.Unlock()
				if claimed {
					out.drain()
				}

			default:
				items := make([]Item[T], 0, 2)
				if hasLatest {
					items = append(items, CreateItem(latest))
					hasLatest = false
				}
				claimed := out.enqueue(append(items, item)...)
				mu.Unlock()
				if claimed {
					out.drain()
				}
			}
		})
	})
}

// Timeout 如果在timeout时间内没有收到下一个事件，则以ErrTimeout终止
func Timeout[T any](source Observable[T], timeout time.Duration, scheduler Scheduler) Observable[T] {
	return newObservable(func(sub *subscriber[T]) {
		out := newSerializer(sub.on)
		timer := NewSerialDisposable()
		sub.add(timer)

		var (
			mu         sync.Mutex
			generation uint64
		)

		arm := func(current uint64) {
			timer.Set(scheduler.ScheduleAfter(timeout, func() {
				mu.Lock()
				if current != generation {
					mu.Unlock()
					return
				}
				generation++
				claimed := out.enqueue(CreateErrorItem[T](ErrTimeout))
				mu.Unlock()

				if claimed {
					out.drain()
				}
			}))
		}

		mu.Lock()
		first := generation
		mu.Unlock()
		arm(first)

		subscribeChild(source, sub, func(item Item[T]) {
			mu.Lock()
			generation++
			current := generation
			claimed := out.enqueue(item)
			mu.Unlock()

			if !item.IsTerminal() {
				arm(current)
			}
			if claimed {
				out.drain()
			}
		})
	})
}
