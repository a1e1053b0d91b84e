package scheduler

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/xinjiayu/rxcore"
)

// ============================================================================
// Cron调度器 - Cron Scheduler
// ============================================================================

// standardParser 五字段cron表达式，另外支持@every、@hourly等描述符
var standardParser = cron.NewParser(
	cron.Minute |
		cron.Hour |
		cron.Dom |
		cron.Month |
		cron.Dow |
		cron.Descriptor,
)

// CronScheduler 使用robfig/cron执行周期任务，单次任务委托给GoroutineScheduler。
// cron的时间粒度是秒，小于一秒的周期按一秒处理。
type CronScheduler struct {
	*GoroutineScheduler
	cron *cron.Cron
}

// NewCronScheduler 创建并启动cron调度器，logger为nil时使用slog.Default()
func NewCronScheduler(logger *slog.Logger) *CronScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cl := cronLogger{logger: logger.With("component", "cron")}

	c := cron.New(
		cron.WithParser(standardParser),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	c.Start()

	return &CronScheduler{
		GoroutineScheduler: NewGoroutineScheduler(),
		cron:               c,
	}
}

// ScheduleRecurring 以固定周期执行任务
func (s *CronScheduler) ScheduleRecurring(period time.Duration, action func()) rxcore.Disposable {
	if period <= 0 {
		return rxcore.Disposed()
	}
	id := s.cron.Schedule(cron.Every(period), cron.FuncJob(action))
	return s.entry(id)
}

// ScheduleCron 按cron表达式执行任务，例如"*/5 * * * *"或"@every 10s"
func (s *CronScheduler) ScheduleCron(spec string, action func()) (rxcore.Disposable, error) {
	clean := strings.TrimSpace(spec)
	if clean == "" {
		return nil, fmt.Errorf("scheduler: cron expression is required")
	}

	id, err := s.cron.AddFunc(clean, action)
	if err != nil {
		return nil, fmt.Errorf("scheduler: invalid cron expression %q: %w", clean, err)
	}
	return s.entry(id), nil
}

// Next 表达式在from之后的下一次触发时间
func (s *CronScheduler) Next(spec string, from time.Time) (time.Time, error) {
	schedule, err := standardParser.Parse(strings.TrimSpace(spec))
	if err != nil {
		return time.Time{}, fmt.Errorf("scheduler: invalid cron expression %q: %w", spec, err)
	}
	return schedule.Next(from), nil
}

// Stop 停止调度新的任务并等待正在执行的任务结束
func (s *CronScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.GoroutineScheduler.Wait()
}

func (s *CronScheduler) entry(id cron.EntryID) rxcore.Disposable {
	return rxcore.NewBaseDisposable(func() {
		s.cron.Remove(id)
	})
}

// FromCron 每次按cron表达式触发时发射触发时间。
// 表达式非法时返回错误，订阅不会开始。
func FromCron(s *CronScheduler, spec string) (rxcore.Observable[time.Time], error) {
	if _, err := standardParser.Parse(strings.TrimSpace(spec)); err != nil {
		return nil, fmt.Errorf("scheduler: invalid cron expression %q: %w", spec, err)
	}

	return rxcore.Create(func(emitter rxcore.Emitter[time.Time]) rxcore.Disposable {
		d, err := s.ScheduleCron(spec, func() {
			emitter.OnNext(s.Now())
		})
		if err != nil {
			emitter.OnError(err)
			return nil
		}
		return d
	}), nil
}

// cronLogger 把cron的日志接口适配到slog
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}

var _ rxcore.Scheduler = (*CronScheduler)(nil)
