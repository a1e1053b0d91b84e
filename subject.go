// Subject implementations for rxcore
// 实现Subject系统，包括PublishSubject、BehaviorSubject、ReplaySubject和AsyncSubject
package rxcore

import (
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
	"github.com/google/uuid"
)

// DefaultReplayBufferSize ReplaySubject未指定有效容量时的默认缓存大小
const DefaultReplayBufferSize = 100

// Subject 既是Observable又是Observer
type Subject[T any] interface {
	Observable[T]

	// OnNext 发送下一个值，Subject终止后为空操作
	OnNext(value T)
	// OnError 以错误终止Subject
	OnError(err error)
	// OnComplete 以完成终止Subject
	OnComplete()

	// AsObservable 隐藏Subject的输入端
	AsObservable() Observable[T]
	// AsObserver 把Subject作为观察者，用于订阅其他Observable
	AsObserver() Observer[T]

	// HasObservers 检查是否有观察者
	HasObservers() bool
	// ObserverCount 获取观察者数量
	ObserverCount() int
}

// ============================================================================
// subjectObserver - 每个订阅者独立的串行投递队列
// ============================================================================

type subjectObserver[T any] struct {
	*serializer[T]
	id       uuid.UUID
	owner    *subjectCore[T]
	observer atomic.Pointer[Observer[T]]
	disposed int32
}

func newSubjectObserver[T any](owner *subjectCore[T], observer Observer[T]) *subjectObserver[T] {
	if observer == nil {
		observer = func(Item[T]) {}
	}
	so := &subjectObserver[T]{id: uuid.New(), owner: owner}
	so.observer.Store(&observer)
	so.serializer = newSerializer(so.deliver)
	return so
}

func (so *subjectObserver[T]) deliver(item Item[T]) {
	if atomic.LoadInt32(&so.disposed) == 1 {
		return
	}
	o := so.observer.Load()
	if o == nil {
		return
	}
	if item.IsTerminal() {
		atomic.StoreInt32(&so.disposed, 1)
		so.observer.Store(nil)
	}
	(*o)(item)
}

// Dispose 只停止向这个订阅者投递，不影响其他订阅者
func (so *subjectObserver[T]) Dispose() {
	if atomic.CompareAndSwapInt32(&so.disposed, 0, 1) {
		so.observer.Store(nil)
		so.owner.remove(so.id)
	}
}

func (so *subjectObserver[T]) IsDisposed() bool {
	return atomic.LoadInt32(&so.disposed) == 1
}

// ============================================================================
// subjectCore - 各种Subject共享的状态机：Active -> Stopped(terminal)
// ============================================================================

// retention 新订阅者在Active状态下收到的历史值
type retention[T any] interface {
	record(value T)
	backlog() []Item[T]
}

type subjectCore[T any] struct {
	config *Config

	mu        sync.Mutex
	observers map[uuid.UUID]*subjectObserver[T]
	order     []uuid.UUID // 注册顺序即通知顺序
	stopped   bool
	terminal  Item[T]
	retained  retention[T]

	// finalItems 终止后新订阅者收到的事件，默认只有终止事件
	finalItems func() []Item[T]
	// preceding 终止事件之前额外广播的事件，调用时持有锁
	preceding func(terminal Item[T]) []Item[T]
}

func newSubjectCore[T any](retained retention[T], options []Option) *subjectCore[T] {
	s := &subjectCore[T]{
		config:    newConfig(options),
		observers: make(map[uuid.UUID]*subjectObserver[T]),
		retained:  retained,
	}
	s.finalItems = func() []Item[T] { return []Item[T]{s.terminal} }
	return s
}

// Subscribe 订阅观察者。历史值在Subscribe返回之前同步投递，
// 并且注册与历史值入队在同一把锁内完成，并发的OnNext不会插队。
func (s *subjectCore[T]) Subscribe(observer Observer[T]) Disposable {
	so := newSubjectObserver(s, observer)

	s.mu.Lock()
	claimed := false
	if s.stopped {
		claimed = so.enqueue(s.finalItems()...)
	} else {
		s.observers[so.id] = so
		s.order = append(s.order, so.id)
		if s.retained != nil {
			if backlog := s.retained.backlog(); len(backlog) > 0 {
				claimed = so.enqueue(backlog...)
			}
		}
	}
	s.mu.Unlock()

	if claimed {
		so.drain()
	}
	return so
}

// SubscribeWithCallbacks 使用回调函数订阅
func (s *subjectCore[T]) SubscribeWithCallbacks(onNext OnNext[T], onError OnError, onComplete OnComplete) Disposable {
	return s.Subscribe(NewObserver(onNext, onError, onComplete))
}

// TryOnNext 发送下一个值，Subject已终止时返回ErrSubjectTerminated
func (s *subjectCore[T]) TryOnNext(value T) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrSubjectTerminated
	}
	if s.retained != nil {
		s.retained.record(value)
	}
	claimed := s.broadcast(CreateItem(value))
	s.mu.Unlock()

	drainAll(claimed)
	return nil
}

// OnNext 发送下一个值
func (s *subjectCore[T]) OnNext(value T) {
	if err := s.TryOnNext(value); err != nil {
		s.violation(KindNext)
	}
}

// OnError 发送错误并终止
func (s *subjectCore[T]) OnError(err error) {
	s.stop(CreateErrorItem[T](err))
}

// OnComplete 发送完成信号并终止
func (s *subjectCore[T]) OnComplete() {
	s.stop(CreateCompleteItem[T]())
}

func (s *subjectCore[T]) stop(terminal Item[T]) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		s.violation(terminal.Kind)
		return
	}
	s.stopped = true
	s.terminal = terminal
	var items []Item[T]
	if s.preceding != nil {
		items = s.preceding(terminal)
	}
	claimed := s.broadcast(append(items, terminal)...)
	s.observers = make(map[uuid.UUID]*subjectObserver[T])
	s.order = nil
	s.mu.Unlock()

	drainAll(claimed)
}

// broadcast 按注册顺序把事件放入每个订阅者的队列，调用者需持有锁
func (s *subjectCore[T]) broadcast(items ...Item[T]) []*subjectObserver[T] {
	var claimed []*subjectObserver[T]
	for _, id := range s.order {
		so := s.observers[id]
		if so.enqueue(items...) {
			claimed = append(claimed, so)
		}
	}
	return claimed
}

func drainAll[T any](claimed []*subjectObserver[T]) {
	for _, so := range claimed {
		so.drain()
	}
}

func (s *subjectCore[T]) remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.observers[id]; !ok {
		return
	}
	delete(s.observers, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *subjectCore[T]) violation(kind ItemKind) {
	if s.config.Strict {
		s.config.Logger.Warn("rxcore: event sent to terminated subject", "event", kind.String())
	}
}

// AsObservable 隐藏Subject的输入端
func (s *subjectCore[T]) AsObservable() Observable[T] {
	return newObservable(func(sub *subscriber[T]) {
		sub.add(s.Subscribe(sub.on))
	})
}

// AsObserver 返回Observer函数
func (s *subjectCore[T]) AsObserver() Observer[T] {
	return func(item Item[T]) {
		switch item.Kind {
		case KindNext:
			s.OnNext(item.Value)
		case KindError:
			s.OnError(item.Error)
		default:
			s.OnComplete()
		}
	}
}

// HasObservers 检查是否有观察者
func (s *subjectCore[T]) HasObservers() bool {
	return s.ObserverCount() > 0
}

// ObserverCount 获取观察者数量
func (s *subjectCore[T]) ObserverCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// IsStopped 检查Subject是否已终止
func (s *subjectCore[T]) IsStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// ============================================================================
// PublishSubject - 发布主题
// ============================================================================

// PublishSubject 发布主题，只向当前订阅者发送新的值
type PublishSubject[T any] struct {
	*subjectCore[T]
}

// NewPublishSubject 创建新的发布主题
func NewPublishSubject[T any](options ...Option) *PublishSubject[T] {
	return &PublishSubject[T]{subjectCore: newSubjectCore[T](nil, options)}
}

// ============================================================================
// BehaviorSubject - 行为主题
// ============================================================================

type behaviorRetention[T any] struct {
	current T
}

func (r *behaviorRetention[T]) record(value T) { r.current = value }

func (r *behaviorRetention[T]) backlog() []Item[T] {
	return []Item[T]{CreateItem(r.current)}
}

// BehaviorSubject 行为主题，保存最后一个值，新订阅者会立即收到它
type BehaviorSubject[T any] struct {
	*subjectCore[T]
	state *behaviorRetention[T]
}

// NewBehaviorSubject 创建新的行为主题，必须提供初始值
func NewBehaviorSubject[T any](seed T, options ...Option) *BehaviorSubject[T] {
	state := &behaviorRetention[T]{current: seed}
	return &BehaviorSubject[T]{
		subjectCore: newSubjectCore[T](state, options),
		state:       state,
	}
}

// Value 获取当前值；以错误终止后返回该错误
func (bs *BehaviorSubject[T]) Value() (T, error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.stopped && bs.terminal.IsError() {
		var zero T
		return zero, bs.terminal.Error
	}
	return bs.state.current, nil
}

// ============================================================================
// ReplaySubject - 重放主题
// ============================================================================

type replayRetention[T any] struct {
	size   int
	buffer *queue.Queue
}

func (r *replayRetention[T]) record(value T) {
	if r.buffer.Length() >= r.size {
		r.buffer.Remove()
	}
	r.buffer.Add(value)
}

func (r *replayRetention[T]) values() []T {
	values := make([]T, r.buffer.Length())
	for i := range values {
		values[i], _ = r.buffer.Get(i).(T)
	}
	return values
}

func (r *replayRetention[T]) backlog() []Item[T] {
	values := r.values()
	items := make([]Item[T], len(values))
	for i, v := range values {
		items[i] = CreateItem(v)
	}
	return items
}

// ReplaySubject 重放主题，缓存最近bufferSize个值，新订阅者按发射顺序收到它们
type ReplaySubject[T any] struct {
	*subjectCore[T]
	state *replayRetention[T]
}

// NewReplaySubject 创建新的重放主题
func NewReplaySubject[T any](bufferSize int, options ...Option) *ReplaySubject[T] {
	if bufferSize <= 0 {
		bufferSize = DefaultReplayBufferSize
	}

	state := &replayRetention[T]{size: bufferSize, buffer: queue.New()}
	return &ReplaySubject[T]{
		subjectCore: newSubjectCore[T](state, options),
		state:       state,
	}
}

// BufferSize 缓存容量
func (rs *ReplaySubject[T]) BufferSize() int {
	return rs.state.size
}

// BufferedValues 获取所有缓存的值，最旧的在前
func (rs *ReplaySubject[T]) BufferedValues() []T {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.state.values()
}

// ============================================================================
// AsyncSubject - 异步主题
// ============================================================================

// AsyncSubject 异步主题，只在完成时发送最后一个值
type AsyncSubject[T any] struct {
	*subjectCore[T]
	last     T
	hasValue bool
}

// NewAsyncSubject 创建新的异步主题
func NewAsyncSubject[T any](options ...Option) *AsyncSubject[T] {
	as := &AsyncSubject[T]{subjectCore: newSubjectCore[T](nil, options)}
	as.preceding = func(terminal Item[T]) []Item[T] {
		if terminal.IsComplete() && as.hasValue {
			return []Item[T]{CreateItem(as.last)}
		}
		return nil
	}
	as.finalItems = func() []Item[T] {
		return append(as.preceding(as.terminal), as.terminal)
	}
	return as
}

// OnNext 记录最后一个值但不立即发送
func (as *AsyncSubject[T]) OnNext(value T) {
	if err := as.TryOnNext(value); err != nil {
		as.violation(KindNext)
	}
}

// TryOnNext 记录最后一个值，已终止时返回ErrSubjectTerminated
func (as *AsyncSubject[T]) TryOnNext(value T) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.stopped {
		return ErrSubjectTerminated
	}
	as.last = value
	as.hasValue = true
	return nil
}

// AsObserver 返回Observer函数
func (as *AsyncSubject[T]) AsObserver() Observer[T] {
	return func(item Item[T]) {
		switch item.Kind {
		case KindNext:
			as.OnNext(item.Value)
		case KindError:
			as.OnError(item.Error)
		default:
			as.OnComplete()
		}
	}
}

// 编译期接口检查
var (
	_ Subject[int] = (*PublishSubject[int])(nil)
	_ Subject[int] = (*BehaviorSubject[int])(nil)
	_ Subject[int] = (*ReplaySubject[int])(nil)
	_ Subject[int] = (*AsyncSubject[int])(nil)
)
