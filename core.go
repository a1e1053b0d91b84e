// Package rxcore provides reactive programming primitives for Go
// 基于泛型的响应式流核心，提供Observable、Subject、操作符以及调度器抽象
package rxcore

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// ============================================================================
// 核心类型定义
// ============================================================================

// ItemKind 事件类型
type ItemKind uint8

const (
	// KindNext 普通数据事件
	KindNext ItemKind = iota
	// KindError 错误事件（终止）
	KindError
	// KindComplete 完成事件（终止）
	KindComplete
)

func (k ItemKind) String() string {
	switch k {
	case KindNext:
		return "next"
	case KindError:
		return "error"
	case KindComplete:
		return "completed"
	default:
		return "unknown"
	}
}

// Item 表示流中的一个事件，可能是值、错误或完成信号
type Item[T any] struct {
	Kind  ItemKind
	Value T     // 仅在KindNext时有效
	Error error // 仅在KindError时有效
}

// IsError 检查事件是否为错误
func (item Item[T]) IsError() bool {
	return item.Kind == KindError
}

// IsComplete 检查事件是否为完成信号
func (item Item[T]) IsComplete() bool {
	return item.Kind == KindComplete
}

// IsTerminal 错误或完成都是终止事件
func (item Item[T]) IsTerminal() bool {
	return item.Kind != KindNext
}

// CreateItem 创建包含值的事件
func CreateItem[T any](value T) Item[T] {
	return Item[T]{Kind: KindNext, Value: value}
}

// CreateErrorItem 创建错误事件
func CreateErrorItem[T any](err error) Item[T] {
	return Item[T]{Kind: KindError, Error: err}
}

// CreateCompleteItem 创建完成事件
func CreateCompleteItem[T any]() Item[T] {
	return Item[T]{Kind: KindComplete}
}

// ============================================================================
// 函数类型定义
// ============================================================================

// Observer 观察者函数类型，接收单个订阅的全部事件
type Observer[T any] func(item Item[T])

// OnNext 处理下一个值的函数
type OnNext[T any] func(value T)

// OnError 处理错误的函数
type OnError func(err error)

// OnComplete 处理完成的函数
type OnComplete func()

// Predicate 谓词函数，用于过滤
type Predicate[T any] func(value T) bool

// Transformer 转换函数，用于映射；返回错误将终止流
type Transformer[T, R any] func(value T) (R, error)

// Accumulator 累加函数，用于Scan和Reduce
type Accumulator[S, T any] func(state S, value T) (S, error)

// NewObserver 由三个回调组装观察者，任一回调可以为nil
func NewObserver[T any](onNext OnNext[T], onError OnError, onComplete OnComplete) Observer[T] {
	return func(item Item[T]) {
		switch item.Kind {
		case KindNext:
			if onNext != nil {
				onNext(item.Value)
			}
		case KindError:
			if onError != nil {
				onError(item.Error)
			}
		case KindComplete:
			if onComplete != nil {
				onComplete()
			}
		}
	}
}

// ============================================================================
// 生命周期管理
// ============================================================================

// Disposable 可释放资源的接口，Dispose必须是幂等的
type Disposable interface {
	// Dispose 释放资源
	Dispose()
	// IsDisposed 检查是否已释放
	IsDisposed() bool
}

// baseDisposable 基础可释放资源实现
type baseDisposable struct {
	disposed int32
	action   func()
}

// NewBaseDisposable 创建基础可释放资源，action最多执行一次
func NewBaseDisposable(action func()) Disposable {
	return &baseDisposable{
		action: action,
	}
}

// Dispose 释放资源
func (d *baseDisposable) Dispose() {
	if atomic.CompareAndSwapInt32(&d.disposed, 0, 1) {
		if d.action != nil {
			d.action()
		}
	}
}

// IsDisposed 检查是否已释放
func (d *baseDisposable) IsDisposed() bool {
	return atomic.LoadInt32(&d.disposed) == 1
}

// Disposed 返回一个已经释放的Disposable
func Disposed() Disposable {
	d := &baseDisposable{}
	d.disposed = 1
	return d
}

// compactThreshold CompositeDisposable在超过此长度时清理已释放的资源
const compactThreshold = 64

// CompositeDisposable 组合式资源管理器（DisposeBag）
type CompositeDisposable struct {
	mu        sync.Mutex
	disposed  bool
	resources []Disposable
	compactAt int
}

// NewCompositeDisposable 创建组合式资源管理器
func NewCompositeDisposable(disposables ...Disposable) *CompositeDisposable {
	cd := &CompositeDisposable{compactAt: compactThreshold}
	for _, d := range disposables {
		cd.Add(d)
	}
	return cd
}

// Add 添加可释放资源；若已释放则立即释放该资源
func (cd *CompositeDisposable) Add(disposable Disposable) {
	if disposable == nil {
		return
	}

	cd.mu.Lock()
	if cd.disposed {
		cd.mu.Unlock()
		disposable.Dispose()
		return
	}

	if len(cd.resources) >= cd.compactAt {
		cd.compact()
	}
	cd.resources = append(cd.resources, disposable)
	cd.mu.Unlock()
}

// compact 移除已经释放的资源，调用者需持有锁
func (cd *CompositeDisposable) compact() {
	live := cd.resources[:0]
	for _, r := range cd.resources {
		if !r.IsDisposed() {
			live = append(live, r)
		}
	}
	for i := len(live); i < len(cd.resources); i++ {
		cd.resources[i] = nil
	}
	cd.resources = live

	cd.compactAt = compactThreshold
	if n := 2 * len(live); n > cd.compactAt {
		cd.compactAt = n
	}
}

// Remove 移除资源但不释放它
func (cd *CompositeDisposable) Remove(disposable Disposable) bool {
	cd.mu.Lock()
	defer cd.mu.Unlock()

	for i, r := range cd.resources {
		if r == disposable {
			cd.resources = append(cd.resources[:i], cd.resources[i+1:]...)
			return true
		}
	}
	return false
}

// Dispose 释放所有资源
func (cd *CompositeDisposable) Dispose() {
	cd.mu.Lock()
	if cd.disposed {
		cd.mu.Unlock()
		return
	}
	cd.disposed = true
	resources := cd.resources
	cd.resources = nil
	cd.mu.Unlock()

	// 在锁外释放，避免资源回调重入时死锁
	for _, resource := range resources {
		resource.Dispose()
	}
}

// IsDisposed 检查是否已释放
func (cd *CompositeDisposable) IsDisposed() bool {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	return cd.disposed
}

// Len 当前持有的资源数量
func (cd *CompositeDisposable) Len() int {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	return len(cd.resources)
}

// SerialDisposable 持有单个可替换的资源，替换时释放旧资源
type SerialDisposable struct {
	mu       sync.Mutex
	disposed bool
	current  Disposable
}

// NewSerialDisposable 创建SerialDisposable
func NewSerialDisposable() *SerialDisposable {
	return &SerialDisposable{}
}

// Set 替换当前资源，旧资源会被释放
func (sd *SerialDisposable) Set(disposable Disposable) {
	sd.mu.Lock()
	if sd.disposed {
		sd.mu.Unlock()
		if disposable != nil {
			disposable.Dispose()
		}
		return
	}
	previous := sd.current
	sd.current = disposable
	sd.mu.Unlock()

	if previous != nil && previous != disposable {
		previous.Dispose()
	}
}

// Dispose 释放当前资源
func (sd *SerialDisposable) Dispose() {
	sd.mu.Lock()
	if sd.disposed {
		sd.mu.Unlock()
		return
	}
	sd.disposed = true
	current := sd.current
	sd.current = nil
	sd.mu.Unlock()

	if current != nil {
		current.Dispose()
	}
}

// IsDisposed 检查是否已释放
func (sd *SerialDisposable) IsDisposed() bool {
	sd.mu.Lock()
	defer sd.mu.Unlock()
	return sd.disposed
}

// ============================================================================
// 工具函数
// ============================================================================

// SafeExecute 安全执行函数，捕获panic
func SafeExecute(action func()) (recovered interface{}) {
	defer func() {
		if r := recover(); r != nil {
			recovered = r
		}
	}()

	action()
	return nil
}

// invoke 调用用户回调，panic会被转换为*PanicError
func invoke[T, R any](fn func(T) (R, error), value T) (result R, err error) {
	if r := SafeExecute(func() { result, err = fn(value) }); r != nil {
		var zero R
		return zero, newPanicError(r)
	}
	return result, err
}

// ============================================================================
// 配置选项
// ============================================================================

// Option 配置选项接口
type Option interface {
	Apply(config *Config)
}

// optionFunc 函数形式的配置选项
type optionFunc func(config *Config)

func (f optionFunc) Apply(config *Config) { f(config) }

// Config 配置结构
type Config struct {
	// Logger 用于严格模式下报告违规调用
	Logger *slog.Logger
	// Strict 为true时，向已终止的Subject发送事件会被记录
	Strict bool
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Logger: slog.Default(),
	}
}

// WithLogger 指定日志记录器
func WithLogger(logger *slog.Logger) Option {
	return optionFunc(func(config *Config) {
		if logger != nil {
			config.Logger = logger
		}
	})
}

// WithStrictMode 开启严格模式
func WithStrictMode() Option {
	return optionFunc(func(config *Config) {
		config.Strict = true
	})
}

func newConfig(options []Option) *Config {
	config := DefaultConfig()
	for _, opt := range options {
		if opt != nil {
			opt.Apply(config)
		}
	}
	return config
}
