// Scheduler abstractions for rxcore
// 调度器接口以及不依赖真实时钟的调度器实现
package rxcore

import (
	"container/heap"
	"sync"
	"sync/atomic"
	"time"
)

// ============================================================================
// 调度器接口
// ============================================================================

// Scheduler 调度器接口，控制任务执行时机和方式。
// 时间相关的操作符只通过Scheduler安排任务，自身不创建计时器。
type Scheduler interface {
	// Now 调度器的当前时间
	Now() time.Time
	// Schedule 尽快执行一个任务
	Schedule(action func()) Disposable
	// ScheduleAfter 延迟调度一个任务
	ScheduleAfter(delay time.Duration, action func()) Disposable
	// ScheduleRecurring 以固定周期重复执行任务，第一次在一个周期之后
	ScheduleRecurring(period time.Duration, action func()) Disposable
}

// ============================================================================
// 立即调度器 - Immediate Scheduler
// ============================================================================

// immediateScheduler 立即在当前goroutine中执行任务
type immediateScheduler struct{}

// NewImmediateScheduler 创建立即调度器。它只支持无延迟的任务，
// 安排延迟或周期任务会以ErrUnsupportedSchedule panic。
func NewImmediateScheduler() Scheduler {
	return immediateScheduler{}
}

func (immediateScheduler) Now() time.Time { return time.Now() }

// Schedule 立即执行任务
func (immediateScheduler) Schedule(action func()) Disposable {
	action()
	return Disposed()
}

// ScheduleAfter 只接受零延迟
func (s immediateScheduler) ScheduleAfter(delay time.Duration, action func()) Disposable {
	if delay > 0 {
		panic(ErrUnsupportedSchedule)
	}
	return s.Schedule(action)
}

func (immediateScheduler) ScheduleRecurring(time.Duration, func()) Disposable {
	panic(ErrUnsupportedSchedule)
}

// ============================================================================
// 虚拟时间调度器 - Virtual Scheduler
// ============================================================================

type virtualTask struct {
	due      time.Time
	seq      uint64
	period   time.Duration
	action   func()
	disposed int32
	index    int
}

func (t *virtualTask) Dispose()         { atomic.StoreInt32(&t.disposed, 1) }
func (t *virtualTask) IsDisposed() bool { return atomic.LoadInt32(&t.disposed) == 1 }

// taskHeap 按到期时间排序，同一时间按安排顺序
type taskHeap []*virtualTask

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}
func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *taskHeap) Push(x any) {
	task := x.(*virtualTask)
	task.index = len(*h)
	*h = append(*h, task)
}
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	task := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return task
}

// VirtualScheduler 虚拟时钟调度器。时间只在调用AdvanceBy/AdvanceTo时前进，
// 到期的任务在调用者的goroutine中按顺序执行，适合确定性地测试时间操作符。
type VirtualScheduler struct {
	mu    sync.Mutex
	now   time.Time
	seq   uint64
	tasks taskHeap
}

// NewVirtualScheduler 创建从start开始的虚拟时钟调度器
func NewVirtualScheduler(start time.Time) *VirtualScheduler {
	return &VirtualScheduler{now: start}
}

// Now 当前虚拟时间
func (s *VirtualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Schedule 在当前虚拟时间安排任务，下一次Advance或Flush时执行
func (s *VirtualScheduler) Schedule(action func()) Disposable {
	return s.ScheduleAfter(0, action)
}

// ScheduleAfter 在now+delay时执行
func (s *VirtualScheduler) ScheduleAfter(delay time.Duration, action func()) Disposable {
	if delay < 0 {
		delay = 0
	}
	return s.push(delay, 0, action)
}

// ScheduleRecurring 每隔period执行一次；period必须为正，否则不安排任何任务
func (s *VirtualScheduler) ScheduleRecurring(period time.Duration, action func()) Disposable {
	if period <= 0 {
		return Disposed()
	}
	return s.push(period, period, action)
}

func (s *VirtualScheduler) push(delay, period time.Duration, action func()) *virtualTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	task := &virtualTask{
		due:    s.now.Add(delay),
		seq:    s.seq,
		period: period,
		action: action,
	}
	heap.Push(&s.tasks, task)
	return task
}

// AdvanceBy 把虚拟时间推进d并执行期间到期的任务
func (s *VirtualScheduler) AdvanceBy(d time.Duration) {
	s.AdvanceTo(s.Now().Add(d))
}

// AdvanceTo 把虚拟时间推进到t并执行期间到期的任务
func (s *VirtualScheduler) AdvanceTo(t time.Time) {
	for {
		s.mu.Lock()
		if len(s.tasks) == 0 || s.tasks[0].due.After(t) {
			if t.After(s.now) {
				s.now = t
			}
			s.mu.Unlock()
			return
		}

		task := heap.Pop(&s.tasks).(*virtualTask)
		if task.due.After(s.now) {
			s.now = task.due
		}
		s.mu.Unlock()

		if task.IsDisposed() {
			continue
		}
		if task.period == 0 {
			task.Dispose()
		}
		task.action()

		if task.period > 0 && !task.IsDisposed() {
			s.mu.Lock()
			s.seq++
			task.seq = s.seq
			task.due = task.due.Add(task.period)
			heap.Push(&s.tasks, task)
			s.mu.Unlock()
		}
	}
}

// Flush 执行当前时间已经到期的任务
func (s *VirtualScheduler) Flush() {
	s.AdvanceBy(0)
}

// Pending 尚未执行且未取消的任务数量
func (s *VirtualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, task := range s.tasks {
		if !task.IsDisposed() {
			n++
		}
	}
	return n
}
