// Package scheduler provides wall-clock schedulers for rxcore
// 基于真实时钟的调度器实现：goroutine调度器和cron调度器
package scheduler

import (
	"sync"
	"time"

	"github.com/xinjiayu/rxcore"
)

// ============================================================================
// Goroutine调度器 - Goroutine Scheduler
// ============================================================================

// GoroutineScheduler 在新的goroutine中执行任务，延迟任务使用time.AfterFunc，
// 周期任务在独立的goroutine中串行执行
type GoroutineScheduler struct {
	wg sync.WaitGroup
}

// NewGoroutineScheduler 创建goroutine调度器
func NewGoroutineScheduler() *GoroutineScheduler {
	return &GoroutineScheduler{}
}

// Now 当前时间
func (s *GoroutineScheduler) Now() time.Time {
	return time.Now()
}

// Schedule 在新的goroutine中执行任务
func (s *GoroutineScheduler) Schedule(action func()) rxcore.Disposable {
	task := newTask(action)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		task.run()
	}()
	return task
}

// ScheduleAfter 延迟执行任务
func (s *GoroutineScheduler) ScheduleAfter(delay time.Duration, action func()) rxcore.Disposable {
	if delay <= 0 {
		return s.Schedule(action)
	}

	task := newTask(action)
	s.wg.Add(1)
	timer := time.AfterFunc(delay, func() {
		defer s.wg.Done()
		task.run()
	})
	task.mu.Lock()
	task.onCancel = func() {
		if timer.Stop() {
			s.wg.Done()
		}
	}
	task.mu.Unlock()
	return task
}

// ScheduleRecurring 周期执行任务，上一次执行结束前不会开始下一次
func (s *GoroutineScheduler) ScheduleRecurring(period time.Duration, action func()) rxcore.Disposable {
	if period <= 0 {
		return rxcore.Disposed()
	}

	done := make(chan struct{})
	var once sync.Once
	d := rxcore.NewBaseDisposable(func() {
		once.Do(func() { close(done) })
	})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if d.IsDisposed() {
					return
				}
				action()
			}
		}
	}()
	return d
}

// Wait 等待所有已经开始的任务结束，周期任务需要先被释放
func (s *GoroutineScheduler) Wait() {
	s.wg.Wait()
}

// task 单次任务，释放后不再执行
type task struct {
	mu       sync.Mutex
	action   func()
	done     bool
	onCancel func()
}

func newTask(action func()) *task {
	return &task{action: action}
}

func (t *task) run() {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return
	}
	t.done = true
	action := t.action
	t.action = nil
	t.mu.Unlock()

	action()
}

func (t *task) Dispose() {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return
	}
	t.done = true
	t.action = nil
	cancel := t.onCancel
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (t *task) IsDisposed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

var _ rxcore.Scheduler = (*GoroutineScheduler)(nil)
