// Combination operators for rxcore
// 组合操作符：Merge, Concat
package rxcore

import "sync"

// trampoline 把同步完成引发的重新订阅展开成循环，避免递归加深调用栈
type trampoline struct {
	mu      sync.Mutex
	running bool
	pending bool
}

// run 执行step；如果step执行期间又请求了运行，则在当前调用中继续循环
func (t *trampoline) run(step func()) {
	t.mu.Lock()
	if t.running {
		t.pending = true
		t.mu.Unlock()
		return
	}
	t.running = true
	t.mu.Unlock()

	for {
		step()

		t.mu.Lock()
		if !t.pending {
			t.running = false
			t.mu.Unlock()
			return
		}
		t.pending = false
		t.mu.Unlock()
	}
}

// Merge 同时订阅所有源并按到达顺序转发事件，全部完成后才完成
func Merge[T any](sources ...Observable[T]) Observable[T] {
	return FlatMap(FromSlice(sources), func(source Observable[T]) (Observable[T], error) {
		return source, nil
	})
}

// Concat 依次订阅每个源，前一个完成后才订阅下一个
func Concat[T any](sources ...Observable[T]) Observable[T] {
	return newObservable(func(sub *subscriber[T]) {
		var (
			t       trampoline
			index   int
			current Disposable
			step    func()
		)

		step = func() {
			if sub.IsDisposed() {
				return
			}
			if current != nil {
				sub.remove(current)
			}
			if index >= len(sources) {
				sub.OnComplete()
				return
			}

			source := sources[index]
			index++
			current = subscribeChild(source, sub, func(item Item[T]) {
				if item.IsComplete() {
					t.run(step)
					return
				}
				sub.on(item)
			})
		}

		t.run(step)
	})
}
