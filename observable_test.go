// Observable tests for rxcore
// 验证订阅语义、终止事件约束以及工厂函数
package rxcore

import (
	"errors"
	"reflect"
	"slices"
	"sync"
	"testing"
)

// recorder 记录观察者收到的所有事件，可以在多个goroutine中使用
type recorder[T any] struct {
	mu       sync.Mutex
	items    []T
	errors   []error
	complete int
}

func newRecorder[T any]() *recorder[T] {
	return &recorder[T]{}
}

func (r *recorder[T]) observer() Observer[T] {
	return func(item Item[T]) {
		r.mu.Lock()
		defer r.mu.Unlock()
		switch item.Kind {
		case KindNext:
			r.items = append(r.items, item.Value)
		case KindError:
			r.errors = append(r.errors, item.Error)
		default:
			r.complete++
		}
	}
}

func (r *recorder[T]) values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.items...)
}

// err 返回第一个错误
func (r *recorder[T]) err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.errors) == 0 {
		return nil
	}
	return r.errors[0]
}

func (r *recorder[T]) completions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.complete
}

// terminals 终止事件的总数
func (r *recorder[T]) terminals() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errors) + r.complete
}

// ============================================================================
// 订阅语义测试
// ============================================================================

func TestColdObservable(t *testing.T) {
	t.Run("每次订阅重新执行生产逻辑", func(t *testing.T) {
		subscriptions := 0
		source := Create(func(emitter Emitter[int]) Disposable {
			subscriptions++
			emitter.OnNext(subscriptions)
			emitter.OnComplete()
			return nil
		})

		first := newRecorder[int]()
		second := newRecorder[int]()
		source.Subscribe(first.observer())
		source.Subscribe(second.observer())

		if !reflect.DeepEqual(first.values(), []int{1}) || !reflect.DeepEqual(second.values(), []int{2}) {
			t.Errorf("期望 [1] 和 [2], 得到 %v 和 %v", first.values(), second.values())
		}
	})

	t.Run("Of可以被多次订阅", func(t *testing.T) {
		source := Of(1, 2, 3)
		for i := 0; i < 2; i++ {
			rec := newRecorder[int]()
			source.Subscribe(rec.observer())
			if !reflect.DeepEqual(rec.values(), []int{1, 2, 3}) || rec.completions() != 1 {
				t.Errorf("第%d次订阅期望 [1 2 3], 得到 %v", i+1, rec.values())
			}
		}
	})

	t.Run("nil观察者不会panic", func(t *testing.T) {
		d := Of(1, 2).Subscribe(nil)
		if !d.IsDisposed() {
			t.Error("同步完成后订阅应该已释放")
		}
	})
}

func TestTerminalInvariant(t *testing.T) {
	t.Run("错误之后的事件被忽略", func(t *testing.T) {
		anError := errors.New("anError")
		rec := newRecorder[int]()
		Create(func(emitter Emitter[int]) Disposable {
			emitter.OnNext(1)
			emitter.OnError(anError)
			emitter.OnNext(2)
			emitter.OnComplete()
			emitter.OnError(errors.New("second"))
			return nil
		}).Subscribe(rec.observer())

		if !reflect.DeepEqual(rec.values(), []int{1}) {
			t.Errorf("期望 [1], 得到 %v", rec.values())
		}
		if rec.terminals() != 1 || !errors.Is(rec.err(), anError) {
			t.Errorf("期望恰好一个错误终止, 得到 %d 个终止, err=%v", rec.terminals(), rec.err())
		}
	})

	t.Run("终止后释放生产者资源", func(t *testing.T) {
		released := 0
		Create(func(emitter Emitter[int]) Disposable {
			emitter.OnComplete()
			return NewBaseDisposable(func() { released++ })
		}).Subscribe(nil)

		if released != 1 {
			t.Errorf("期望资源被释放一次, 得到 %d", released)
		}
	})

	t.Run("取消后IsDisposed通知同步生产者", func(t *testing.T) {
		var d Disposable
		produced := 0
		source := Create(func(emitter Emitter[int]) Disposable {
			for i := 0; i < 100 && !emitter.IsDisposed(); i++ {
				produced++
				emitter.OnNext(i)
			}
			return nil
		})
		d = source.SubscribeWithCallbacks(func(v int) {
			if v == 2 && d != nil {
				d.Dispose()
			}
		}, nil, nil)

		// 订阅在返回前无法被取消，所以生产者会全部执行
		if produced != 100 {
			t.Errorf("期望生产100个值, 得到 %d", produced)
		}
	})

	t.Run("操作符链中下游取消立即停止上游", func(t *testing.T) {
		produced := 0
		source := Create(func(emitter Emitter[int]) Disposable {
			for i := 0; i < 100 && !emitter.IsDisposed(); i++ {
				produced++
				emitter.OnNext(i)
			}
			emitter.OnComplete()
			return nil
		})

		rec := newRecorder[int]()
		Take(source, 3).Subscribe(rec.observer())

		if produced != 3 {
			t.Errorf("期望生产3个值, 得到 %d", produced)
		}
		if !reflect.DeepEqual(rec.values(), []int{0, 1, 2}) || rec.completions() != 1 {
			t.Errorf("期望 [0 1 2], 得到 %v", rec.values())
		}
	})
}

// ============================================================================
// 工厂函数测试
// ============================================================================

func TestFactories(t *testing.T) {
	t.Run("Just和Range", func(t *testing.T) {
		got, err := ToSlice(t.Context(), Just("x"))
		if err != nil || !reflect.DeepEqual(got, []string{"x"}) {
			t.Errorf("Just期望 [x], 得到 %v (%v)", got, err)
		}

		ints, _ := ToSlice(t.Context(), Range(5, 3))
		if !reflect.DeepEqual(ints, []int{5, 6, 7}) {
			t.Errorf("Range期望 [5 6 7], 得到 %v", ints)
		}

		empty, err := ToSlice(t.Context(), Range(0, -1))
		if err != nil || len(empty) != 0 {
			t.Errorf("负数count应该直接完成, 得到 %v (%v)", empty, err)
		}
	})

	t.Run("FromSequence每次订阅重新迭代", func(t *testing.T) {
		source := FromSequence(slices.Values([]string{"a", "b"}))
		for i := 0; i < 2; i++ {
			got, err := ToSlice(t.Context(), source)
			if err != nil || !reflect.DeepEqual(got, []string{"a", "b"}) {
				t.Errorf("期望 [a b], 得到 %v (%v)", got, err)
			}
		}
	})

	t.Run("Empty和Throw", func(t *testing.T) {
		rec := newRecorder[int]()
		Empty[int]().Subscribe(rec.observer())
		if rec.completions() != 1 || len(rec.values()) != 0 {
			t.Errorf("Empty应该只完成, 得到 %v / %d", rec.values(), rec.completions())
		}

		anError := errors.New("anError")
		_, err := ToSlice(t.Context(), Throw[int](anError))
		if !errors.Is(err, anError) {
			t.Errorf("期望 %v, 得到 %v", anError, err)
		}
	})

	t.Run("Never不产生任何事件", func(t *testing.T) {
		rec := newRecorder[int]()
		d := Never[int]().Subscribe(rec.observer())
		if rec.terminals() != 0 || d.IsDisposed() {
			t.Error("Never不应该终止")
		}
		d.Dispose()
		if !d.IsDisposed() {
			t.Error("Dispose之后应该已释放")
		}
	})

	t.Run("Defer每次订阅调用工厂函数", func(t *testing.T) {
		flip := false
		source := Defer(func() Observable[int] {
			flip = !flip
			if flip {
				return Of(1, 2, 3)
			}
			return Of(4, 5, 6)
		})

		first, _ := ToSlice(t.Context(), source)
		second, _ := ToSlice(t.Context(), source)
		if !reflect.DeepEqual(first, []int{1, 2, 3}) || !reflect.DeepEqual(second, []int{4, 5, 6}) {
			t.Errorf("期望交替的序列, 得到 %v 和 %v", first, second)
		}
	})

	t.Run("Defer的panic和nil转换为错误", func(t *testing.T) {
		_, err := ToSlice(t.Context(), Defer(func() Observable[int] { panic("boom") }))
		var panicErr *PanicError
		if !errors.As(err, &panicErr) || panicErr.Value != "boom" {
			t.Errorf("期望PanicError(boom), 得到 %v", err)
		}

		_, err = ToSlice(t.Context(), Defer(func() Observable[int] { return nil }))
		if !errors.Is(err, ErrNilObservable) {
			t.Errorf("期望 ErrNilObservable, 得到 %v", err)
		}
	})
}

func TestItem(t *testing.T) {
	t.Run("事件类型", func(t *testing.T) {
		next := CreateItem(1)
		failed := CreateErrorItem[int](errors.New("x"))
		done := CreateCompleteItem[int]()

		if next.IsTerminal() || !failed.IsError() || !done.IsComplete() || !done.IsTerminal() {
			t.Error("事件类型判断错误")
		}
		kinds := []string{next.Kind.String(), failed.Kind.String(), done.Kind.String()}
		if !reflect.DeepEqual(kinds, []string{"next", "error", "completed"}) {
			t.Errorf("事件名称不符: %v", kinds)
		}
	})

	t.Run("PanicError展开内部错误", func(t *testing.T) {
		inner := errors.New("inner")
		err := newPanicError(inner)
		if !errors.Is(err, inner) {
			t.Error("PanicError应该可以展开为内部错误")
		}
		if errors.Unwrap(newPanicError("text")) != nil {
			t.Error("非error的panic值不应该展开")
		}
	})
}
