// Single, Maybe and Completable traits for rxcore
// 特征序列：对事件数量有约束的Observable包装
package rxcore

import "context"

// ============================================================================
// Single - 只发射一个值或一个错误
// ============================================================================

// SingleEmitter Single的生产者接口
type SingleEmitter[T any] interface {
	OnSuccess(value T)
	OnError(err error)
	IsDisposed() bool
}

type singleEmitter[T any] struct {
	Emitter[T]
}

func (e singleEmitter[T]) OnSuccess(value T) {
	e.OnNext(value)
	e.OnComplete()
}

// Single 恰好以一个值或一个错误结束的序列
type Single[T any] struct {
	source Observable[T]
}

// CreateSingle 由生产函数创建Single，生产函数返回的Disposable在订阅取消时释放
func CreateSingle[T any](producer func(emitter SingleEmitter[T]) Disposable) Single[T] {
	return Single[T]{source: Create(func(emitter Emitter[T]) Disposable {
		return producer(singleEmitter[T]{emitter})
	})}
}

// SingleJust 创建立即成功的Single
func SingleJust[T any](value T) Single[T] {
	return Single[T]{source: Just(value)}
}

// FirstOrError 取source的第一个值；source为空时以ErrEmpty结束
func FirstOrError[T any](source Observable[T]) Single[T] {
	return Single[T]{source: newObservable(func(sub *subscriber[T]) {
		subscribeChild(Take(source, 1), sub, func(item Item[T]) {
			switch item.Kind {
			case KindNext:
				sub.OnNext(item.Value)
				sub.OnComplete()
			case KindError:
				sub.OnError(item.Error)
			default:
				sub.OnError(ErrEmpty)
			}
		})
	})}
}

// Subscribe 订阅Single，任一回调可以为nil
func (s Single[T]) Subscribe(onSuccess OnNext[T], onError OnError) Disposable {
	return s.source.SubscribeWithCallbacks(onSuccess, onError, nil)
}

// AsObservable 转换为Observable
func (s Single[T]) AsObservable() Observable[T] {
	return s.source
}

// Get 阻塞等待结果
func (s Single[T]) Get(ctx context.Context) (T, error) {
	return First(ctx, s.source)
}

// ============================================================================
// Maybe - 发射一个值、直接完成或出错
// ============================================================================

// MaybeEmitter Maybe的生产者接口
type MaybeEmitter[T any] interface {
	OnSuccess(value T)
	OnError(err error)
	OnComplete()
	IsDisposed() bool
}

type maybeEmitter[T any] struct {
	Emitter[T]
}

func (e maybeEmitter[T]) OnSuccess(value T) {
	e.OnNext(value)
	e.OnComplete()
}

// Maybe 最多一个值的序列
type Maybe[T any] struct {
	source Observable[T]
}

// CreateMaybe 由生产函数创建Maybe
func CreateMaybe[T any](producer func(emitter MaybeEmitter[T]) Disposable) Maybe[T] {
	return Maybe[T]{source: Create(func(emitter Emitter[T]) Disposable {
		return producer(maybeEmitter[T]{emitter})
	})}
}

// FirstOrEmpty 取source的第一个值；source为空时直接完成
func FirstOrEmpty[T any](source Observable[T]) Maybe[T] {
	return Maybe[T]{source: Take(source, 1)}
}

// Subscribe 订阅Maybe：有值时只调用onSuccess，没有值时只调用onComplete
func (m Maybe[T]) Subscribe(onSuccess OnNext[T], onError OnError, onComplete OnComplete) Disposable {
	received := false
	return m.source.SubscribeWithCallbacks(
		func(value T) {
			received = true
			if onSuccess != nil {
				onSuccess(value)
			}
		},
		onError,
		func() {
			if !received && onComplete != nil {
				onComplete()
			}
		},
	)
}

// AsObservable 转换为Observable
func (m Maybe[T]) AsObservable() Observable[T] {
	return m.source
}

// ============================================================================
// Completable - 只关心完成或出错
// ============================================================================

// CompletableEmitter Completable的生产者接口
type CompletableEmitter interface {
	OnComplete()
	OnError(err error)
	IsDisposed() bool
}

// Completable 不发射值的序列
type Completable struct {
	source Observable[struct{}]
}

// CreateCompletable 由生产函数创建Completable
func CreateCompletable(producer func(emitter CompletableEmitter) Disposable) Completable {
	return Completable{source: Create(func(emitter Emitter[struct{}]) Disposable {
		return producer(emitter)
	})}
}

// IgnoreElements 丢弃所有值，只保留终止事件
func IgnoreElements[T any](source Observable[T]) Completable {
	return Completable{source: newObservable(func(sub *subscriber[struct{}]) {
		subscribeChild(source, sub, func(item Item[T]) {
			switch item.Kind {
			case KindError:
				sub.OnError(item.Error)
			case KindComplete:
				sub.OnComplete()
			}
		})
	})}
}

// Subscribe 订阅Completable
func (c Completable) Subscribe(onComplete OnComplete, onError OnError) Disposable {
	return c.source.SubscribeWithCallbacks(nil, onError, onComplete)
}

// AsObservable 转换为不发射值的Observable
func (c Completable) AsObservable() Observable[struct{}] {
	return c.source
}

// Wait 阻塞直到完成或出错
func (c Completable) Wait(ctx context.Context) error {
	_, err := ToSlice(ctx, c.source)
	return err
}
