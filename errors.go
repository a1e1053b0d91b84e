package rxcore

import (
	"errors"
	"fmt"
)

var (
	// ErrSubjectTerminated 向已经终止的Subject发送事件
	ErrSubjectTerminated = errors.New("rxcore: subject already terminated")
	// ErrEmpty 序列在产生值之前就完成了
	ErrEmpty = errors.New("rxcore: sequence contains no elements")
	// ErrTimeout 在限定时间内没有收到事件
	ErrTimeout = errors.New("rxcore: timeout")
	// ErrUnsupportedSchedule 调度器不支持该类型的任务
	ErrUnsupportedSchedule = errors.New("rxcore: scheduler does not support this kind of task")
	// ErrNilObservable 工厂函数返回了nil
	ErrNilObservable = errors.New("rxcore: factory returned a nil observable")
)

// PanicError 用户回调中发生的panic
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("rxcore: callback panicked: %v", e.Value)
}

// Unwrap 当panic的值本身是error时返回它
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func newPanicError(recovered interface{}) error {
	return &PanicError{Value: recovered}
}
