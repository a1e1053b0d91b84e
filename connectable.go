// Connectable observable implementation for rxcore
// 实现Connectable，把冷Observable转换为由PublishSubject多播的热Observable
package rxcore

import "sync"

// ============================================================================
// Connectable 实现
// ============================================================================

// Connectable 在Connect之前不订阅上游；连接后所有订阅者共享同一个上游订阅。
// 上游终止后Connectable保持终止状态，之后的订阅者只收到终止事件。
type Connectable[T any] struct {
	source  Observable[T]
	subject *PublishSubject[T]

	mu         sync.Mutex
	connection Disposable
}

// Publish 创建Connectable
func Publish[T any](source Observable[T], options ...Option) *Connectable[T] {
	return &Connectable[T]{
		source:  source,
		subject: NewPublishSubject[T](options...),
	}
}

// Subscribe 订阅多播的事件，不会触发连接
func (c *Connectable[T]) Subscribe(observer Observer[T]) Disposable {
	return c.subject.Subscribe(observer)
}

// SubscribeWithCallbacks 使用回调函数订阅
func (c *Connectable[T]) SubscribeWithCallbacks(onNext OnNext[T], onError OnError, onComplete OnComplete) Disposable {
	return c.subject.SubscribeWithCallbacks(onNext, onError, onComplete)
}

// Connect 订阅上游并开始多播。已经连接时返回现有的连接；
// 释放返回的Disposable会断开上游，之后可以再次Connect。
func (c *Connectable[T]) Connect() Disposable {
	c.mu.Lock()
	if c.connection != nil {
		existing := c.connection
		c.mu.Unlock()
		return existing
	}

	upstream := NewSerialDisposable()
	var conn Disposable
	conn = NewBaseDisposable(func() {
		c.mu.Lock()
		if c.connection == conn {
			c.connection = nil
		}
		c.mu.Unlock()
		upstream.Dispose()
	})
	c.connection = conn
	c.mu.Unlock()

	// 同步上游会在Subscribe返回之前推送完所有事件
	upstream.Set(c.source.Subscribe(c.subject.AsObserver()))
	return conn
}

// IsConnected 检查是否已经连接
func (c *Connectable[T]) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connection != nil
}

// RefCount 第一个订阅者到来时自动连接，最后一个订阅者离开时断开
func (c *Connectable[T]) RefCount() Observable[T] {
	var (
		mu   sync.Mutex
		refs int
		conn Disposable
	)

	release := func() {
		mu.Lock()
		refs--
		var last Disposable
		if refs == 0 {
			last, conn = conn, nil
		}
		mu.Unlock()

		if last != nil {
			last.Dispose()
		}
	}

	return newObservable(func(sub *subscriber[T]) {
		mu.Lock()
		refs++
		first := refs == 1
		mu.Unlock()

		sub.add(NewBaseDisposable(release))
		sub.add(c.Subscribe(sub.on))
		if !first || sub.IsDisposed() {
			return
		}

		d := c.Connect()
		mu.Lock()
		if refs > 0 {
			if conn == nil {
				conn = d
			}
			d = nil
		}
		mu.Unlock()

		// 同步上游可能在Connect返回前就让所有订阅者离开
		if d != nil {
			d.Dispose()
		}
	})
}

// Share 等价于Publish(source).RefCount()
func Share[T any](source Observable[T], options ...Option) Observable[T] {
	return Publish(source, options...).RefCount()
}

var _ Observable[int] = (*Connectable[int])(nil)
