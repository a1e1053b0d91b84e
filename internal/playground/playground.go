// Package playground contains the rxplay tutorial scenarios. Every scenario
// writes deterministic text to its Env so the output can be asserted.
package playground

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xinjiayu/rxcore"
	"github.com/xinjiayu/rxcore/rxotel"
	"github.com/xinjiayu/rxcore/store"
)

// Chapter 场景所属的章节
type Chapter string

const (
	ChapterObservables Chapter = "observables"
	ChapterSubjects    Chapter = "subjects"
	ChapterOperators   Chapter = "operators"
	ChapterTime        Chapter = "time"
	ChapterIntegration Chapter = "integration"
)

// Scenario 一个可运行的示例
type Scenario struct {
	Name        string
	Chapter     Chapter
	Description string
	Run         func(ctx context.Context, env *Env) error
}

// Env 场景运行所需的依赖
type Env struct {
	Out    io.Writer
	Logger *slog.Logger

	// Store 记录与回放场景使用的存储
	Store store.EventStore
	// Instrumentation 为nil时使用no-op的tracer和meter
	Instrumentation *rxotel.Instrumentation

	// Strict 以严格模式创建Subject
	Strict bool
	// ReplayBuffer 重放类场景的缓存大小
	ReplayBuffer int
}

// NewEnv 创建输出到out的默认环境
func NewEnv(out io.Writer) *Env {
	return &Env{
		Out:          out,
		Logger:       slog.New(slog.DiscardHandler),
		Store:        store.NewMemStore(),
		ReplayBuffer: 2,
	}
}

func (e *Env) println(args ...any) {
	fmt.Fprintln(e.Out, args...)
}

func (e *Env) printf(format string, args ...any) {
	fmt.Fprintf(e.Out, format, args...)
}

// debugLogger 写到Out且不带时间戳的日志，用于Debug操作符的场景
func (e *Env) debugLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(e.Out, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// subjectOptions 根据环境生成Subject选项
func (e *Env) subjectOptions() []rxcore.Option {
	options := []rxcore.Option{rxcore.WithLogger(e.Logger)}
	if e.Strict {
		options = append(options, rxcore.WithStrictMode())
	}
	return options
}

func (e *Env) instrumentation() (*rxotel.Instrumentation, error) {
	if e.Instrumentation != nil {
		return e.Instrumentation, nil
	}
	return rxotel.NewInstrumentation(
		tracenoop.NewTracerProvider().Tracer("rxplay"),
		metricnoop.NewMeterProvider().Meter("rxplay"),
	)
}

// printValue 打印每个值的观察者回调
func printValue[T any](env *Env) rxcore.OnNext[T] {
	return func(value T) { env.println(value) }
}

// epoch 虚拟时钟场景的起点
var epoch = time.Date(2019, 1, 10, 0, 0, 0, 0, time.UTC)

func newVirtualClock() *rxcore.VirtualScheduler {
	return rxcore.NewVirtualScheduler(epoch)
}

// ============================================================================
// 场景目录
// ============================================================================

var catalogue []Scenario

func register(scenarios ...Scenario) {
	catalogue = append(catalogue, scenarios...)
}

// Catalogue 按章节和注册顺序返回所有场景
func Catalogue() []Scenario {
	order := map[Chapter]int{
		ChapterObservables: 0,
		ChapterSubjects:    1,
		ChapterOperators:   2,
		ChapterTime:        3,
		ChapterIntegration: 4,
	}

	scenarios := make([]Scenario, len(catalogue))
	copy(scenarios, catalogue)
	sort.SliceStable(scenarios, func(i, j int) bool {
		return order[scenarios[i].Chapter] < order[scenarios[j].Chapter]
	})
	return scenarios
}

// Find 按名称查找场景
func Find(name string) (Scenario, bool) {
	for _, s := range catalogue {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}

// Run 运行场景，输出带有首尾标记
func Run(ctx context.Context, s Scenario, env *Env) error {
	env.printf("\n>>> Example of: %s\n", s.Name)
	err := s.Run(ctx, env)
	env.println("<<<")
	if err != nil {
		return fmt.Errorf("playground: %s: %w", s.Name, err)
	}
	return nil
}
