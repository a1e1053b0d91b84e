// Time operator tests for rxcore
// 使用虚拟时钟确定性地验证时间操作符
package rxcore

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"
)

var epoch = time.Date(2019, 1, 10, 0, 0, 0, 0, time.UTC)

// timeline 记录每个事件发生时的虚拟时间偏移
type timeline[T any] struct {
	scheduler *VirtualScheduler
	events    []string
}

func newTimeline[T any](scheduler *VirtualScheduler) *timeline[T] {
	return &timeline[T]{scheduler: scheduler}
}

func (tl *timeline[T]) observer() Observer[T] {
	return func(item Item[T]) {
		at := tl.scheduler.Now().Sub(epoch)
		switch item.Kind {
		case KindNext:
			tl.events = append(tl.events, fmt.Sprintf("%v:%v", at, item.Value))
		case KindError:
			tl.events = append(tl.events, fmt.Sprintf("%v:error(%v)", at, item.Error))
		default:
			tl.events = append(tl.events, fmt.Sprintf("%v:completed", at))
		}
	}
}

func TestInterval(t *testing.T) {
	t.Run("按周期发射递增整数", func(t *testing.T) {
		vs := NewVirtualScheduler(epoch)
		tl := newTimeline[int](vs)
		Take(Interval(time.Second, vs), 3).Subscribe(tl.observer())

		vs.AdvanceBy(5 * time.Second)

		expected := []string{"1s:0", "2s:1", "3s:2", "3s:completed"}
		if !reflect.DeepEqual(tl.events, expected) {
			t.Errorf("期望 %v, 得到 %v", expected, tl.events)
		}
		if vs.Pending() != 0 {
			t.Errorf("完成后不应该有剩余任务, 得到 %d", vs.Pending())
		}
	})

	t.Run("取消订阅停止计时", func(t *testing.T) {
		vs := NewVirtualScheduler(epoch)
		tl := newTimeline[int](vs)
		d := Interval(time.Second, vs).Subscribe(tl.observer())

		vs.AdvanceBy(2 * time.Second)
		d.Dispose()
		vs.AdvanceBy(2 * time.Second)

		if len(tl.events) != 2 {
			t.Errorf("期望2个事件, 得到 %v", tl.events)
		}
	})
}

func TestTimer(t *testing.T) {
	vs := NewVirtualScheduler(epoch)
	tl := newTimeline[int](vs)
	Timer(2*time.Second, vs).Subscribe(tl.observer())

	vs.AdvanceBy(time.Second)
	if len(tl.events) != 0 {
		t.Fatalf("到期之前不应该发射, 得到 %v", tl.events)
	}

	vs.AdvanceBy(time.Second)
	expected := []string{"2s:0", "2s:completed"}
	if !reflect.DeepEqual(tl.events, expected) {
		t.Errorf("期望 %v, 得到 %v", expected, tl.events)
	}
}

func TestDelay(t *testing.T) {
	t.Run("推迟值和完成信号", func(t *testing.T) {
		vs := NewVirtualScheduler(epoch)
		subject := NewPublishSubject[int]()
		tl := newTimeline[int](vs)
		Delay(subject.AsObservable(), 500*time.Millisecond, vs).Subscribe(tl.observer())

		subject.OnNext(1)
		vs.AdvanceBy(300 * time.Millisecond)
		subject.OnNext(2)
		vs.AdvanceBy(200 * time.Millisecond)
		vs.AdvanceBy(300 * time.Millisecond)
		subject.OnComplete()
		vs.AdvanceBy(time.Second)

		expected := []string{"500ms:1", "800ms:2", "1.3s:completed"}
		if !reflect.DeepEqual(tl.events, expected) {
			t.Errorf("期望 %v, 得到 %v", expected, tl.events)
		}
	})

	t.Run("错误立即转发并丢弃未发射的值", func(t *testing.T) {
		vs := NewVirtualScheduler(epoch)
		subject := NewPublishSubject[int]()
		tl := newTimeline[int](vs)
		Delay(subject.AsObservable(), time.Second, vs).Subscribe(tl.observer())

		subject.OnNext(1)
		subject.OnError(errors.New("boom"))
		vs.AdvanceBy(2 * time.Second)

		expected := []string{"0s:error(boom)"}
		if !reflect.DeepEqual(tl.events, expected) {
			t.Errorf("期望 %v, 得到 %v", expected, tl.events)
		}
		if vs.Pending() != 0 {
			t.Errorf("错误之后不应该有剩余任务, 得到 %d", vs.Pending())
		}
	})
}

func TestDebounce(t *testing.T) {
	t.Run("安静期之后发射最近的值", func(t *testing.T) {
		vs := NewVirtualScheduler(epoch)
		subject := NewPublishSubject[string]()
		tl := newTimeline[string](vs)
		Debounce(subject.AsObservable(), 500*time.Millisecond, vs).Subscribe(tl.observer())

		subject.OnNext("r")
		vs.AdvanceBy(100 * time.Millisecond)
		subject.OnNext("rx")
		vs.AdvanceBy(time.Second)
		subject.OnNext("rxg")
		vs.AdvanceBy(time.Second)

		expected := []string{"600ms:rx", "1.6s:rxg"}
		if !reflect.DeepEqual(tl.events, expected) {
			t.Errorf("期望 %v, 得到 %v", expected, tl.events)
		}
	})

	t.Run("完成时立即发射待定的值", func(t *testing.T) {
		vs := NewVirtualScheduler(epoch)
		subject := NewPublishSubject[string]()
		tl := newTimeline[string](vs)
		Debounce(subject.AsObservable(), time.Second, vs).Subscribe(tl.observer())

		subject.OnNext("a")
		subject.OnComplete()
		vs.AdvanceBy(2 * time.Second)

		expected := []string{"0s:a", "0s:completed"}
		if !reflect.DeepEqual(tl.events, expected) {
			t.Errorf("期望 %v, 得到 %v", expected, tl.events)
		}
	})
}

func TestTimeout(t *testing.T) {
	t.Run("每个事件重新计时", func(t *testing.T) {
		vs := NewVirtualScheduler(epoch)
		subject := NewPublishSubject[int]()
		tl := newTimeline[int](vs)
		Timeout(subject.AsObservable(), time.Second, vs).Subscribe(tl.observer())

		vs.AdvanceBy(500 * time.Millisecond)
		subject.OnNext(1)
		vs.AdvanceBy(2 * time.Second)

		expected := []string{"500ms:1", "1.5s:error(rxcore: timeout)"}
		if !reflect.DeepEqual(tl.events, expected) {
			t.Errorf("期望 %v, 得到 %v", expected, tl.events)
		}
		if subject.HasObservers() {
			t.Error("超时之后应该取消上游订阅")
		}
	})

	t.Run("及时完成不会超时", func(t *testing.T) {
		vs := NewVirtualScheduler(epoch)
		tl := newTimeline[int](vs)
		Timeout(Of(1, 2), time.Second, vs).Subscribe(tl.observer())
		vs.AdvanceBy(5 * time.Second)

		expected := []string{"0s:1", "0s:2", "0s:completed"}
		if !reflect.DeepEqual(tl.events, expected) {
			t.Errorf("期望 %v, 得到 %v", expected, tl.events)
		}
		if vs.Pending() != 0 {
			t.Errorf("完成后不应该有剩余任务, 得到 %d", vs.Pending())
		}
	})
}
