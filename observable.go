// Observable implementation for rxcore
// Observable核心实现：同步推送，每次订阅独立执行生产逻辑
package rxcore

import (
	"sync"
	"sync/atomic"
)

// ============================================================================
// Observable 核心接口
// ============================================================================

// Observable 可观察序列的核心接口。Observable本身是不可变的描述，
// 每次Subscribe都会重新执行生产逻辑。
type Observable[T any] interface {
	// Subscribe 订阅观察者，返回用于取消订阅的Disposable
	Subscribe(observer Observer[T]) Disposable

	// SubscribeWithCallbacks 使用回调函数订阅，任一回调可以为nil
	SubscribeWithCallbacks(onNext OnNext[T], onError OnError, onComplete OnComplete) Disposable
}

// Emitter 生产者视角的观察者，由Create传入生产函数
type Emitter[T any] interface {
	OnNext(value T)
	OnError(err error)
	OnComplete()
	// IsDisposed 订阅被取消或已终止时返回true，同步生产者应据此提前退出
	IsDisposed() bool
}

// ============================================================================
// subscriber 单个订阅的状态
// ============================================================================

// subscriber 包装下游观察者，保证终止事件之后不再投递任何事件，
// 并在释放时丢弃对观察者的引用
type subscriber[T any] struct {
	observer  atomic.Pointer[Observer[T]]
	done      int32
	resources *CompositeDisposable
}

func newSubscriber[T any](observer Observer[T]) *subscriber[T] {
	if observer == nil {
		observer = func(Item[T]) {}
	}
	s := &subscriber[T]{resources: NewCompositeDisposable()}
	s.observer.Store(&observer)
	return s
}

// on 按事件类型分发
func (s *subscriber[T]) on(item Item[T]) {
	switch item.Kind {
	case KindNext:
		s.OnNext(item.Value)
	case KindError:
		s.OnError(item.Error)
	default:
		s.OnComplete()
	}
}

func (s *subscriber[T]) OnNext(value T) {
	if atomic.LoadInt32(&s.done) == 1 {
		return
	}
	if o := s.observer.Load(); o != nil {
		(*o)(CreateItem(value))
	}
}

func (s *subscriber[T]) OnError(err error) {
	s.terminate(CreateErrorItem[T](err))
}

func (s *subscriber[T]) OnComplete() {
	s.terminate(CreateCompleteItem[T]())
}

// terminate 最多投递一次终止事件，然后释放上游资源
func (s *subscriber[T]) terminate(item Item[T]) {
	if !atomic.CompareAndSwapInt32(&s.done, 0, 1) {
		return
	}
	if o := s.observer.Load(); o != nil {
		(*o)(item)
	}
	s.Dispose()
}

func (s *subscriber[T]) add(d Disposable) {
	s.resources.Add(d)
}

func (s *subscriber[T]) remove(d Disposable) {
	s.resources.Remove(d)
}

// Dispose 取消订阅
func (s *subscriber[T]) Dispose() {
	s.observer.Store(nil)
	s.resources.Dispose()
}

// IsDisposed 检查是否已取消或已终止
func (s *subscriber[T]) IsDisposed() bool {
	return s.resources.IsDisposed()
}

// resourceHolder 可以挂载子订阅的对象
type resourceHolder interface {
	add(d Disposable)
}

// ============================================================================
// Observable 核心实现
// ============================================================================

// observableImpl Observable的核心实现
type observableImpl[T any] struct {
	onSubscribe func(sub *subscriber[T])
}

// newObservable 创建新的Observable
func newObservable[T any](onSubscribe func(sub *subscriber[T])) Observable[T] {
	return &observableImpl[T]{onSubscribe: onSubscribe}
}

// Subscribe 订阅观察者
func (o *observableImpl[T]) Subscribe(observer Observer[T]) Disposable {
	sub := newSubscriber(observer)
	o.onSubscribe(sub)
	return sub
}

// SubscribeWithCallbacks 使用回调函数订阅
func (o *observableImpl[T]) SubscribeWithCallbacks(onNext OnNext[T], onError OnError, onComplete OnComplete) Disposable {
	return o.Subscribe(NewObserver(onNext, onError, onComplete))
}

// subscribeChild 订阅上游并把上游订阅挂到parent上。
// 对内部实现的Observable，子订阅在生产逻辑运行之前就已挂载，
// 因此下游取消时同步生产者能够立即感知。
func subscribeChild[T any](source Observable[T], parent resourceHolder, observer Observer[T]) Disposable {
	if impl, ok := source.(*observableImpl[T]); ok {
		child := newSubscriber(observer)
		parent.add(child)
		impl.onSubscribe(child)
		return child
	}

	d := source.Subscribe(observer)
	parent.add(d)
	return d
}

// Operate 用自定义的上游观察者构造操作符。operator在每次订阅时调用一次，
// 它收到下游的Emitter并返回用于接收上游事件的Observer。
// 上游订阅先挂到下游再开始生产，下游取消会立即传播到同步上游。
func Operate[T, R any](source Observable[T], operator func(downstream Emitter[R]) Observer[T]) Observable[R] {
	return newObservable(func(sub *subscriber[R]) {
		subscribeChild(source, sub, operator(sub))
	})
}

// ============================================================================
// serializer 串行投递
// ============================================================================

// serializer 把并发或重入的事件排队，同一时刻只有一个调用者在投递。
// enqueue返回true的调用者负责调用drain。
type serializer[T any] struct {
	deliver  func(item Item[T])
	mu       sync.Mutex
	queue    []Item[T]
	emitting bool
}

func newSerializer[T any](deliver func(item Item[T])) *serializer[T] {
	return &serializer[T]{deliver: deliver}
}

func (s *serializer[T]) enqueue(items ...Item[T]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queue = append(s.queue, items...)
	if s.emitting {
		return false
	}
	s.emitting = true
	return true
}

func (s *serializer[T]) drain() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.queue = nil
			s.emitting = false
			s.mu.Unlock()
			return
		}
		item := s.queue[0]
		s.queue[0] = Item[T]{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.deliver(item)
	}
}

func (s *serializer[T]) push(item Item[T]) {
	if s.enqueue(item) {
		s.drain()
	}
}
