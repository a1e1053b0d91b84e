package rxcore

import (
	"bytes"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"
)

func TestDoOperators(t *testing.T) {
	t.Run("副作用在下游之前执行", func(t *testing.T) {
		var log []string
		source := DoOnComplete(DoOnNext(Of(1, 2), func(v int) {
			log = append(log, "do:next")
		}), func() {
			log = append(log, "do:complete")
		})

		source.SubscribeWithCallbacks(
			func(int) { log = append(log, "next") },
			nil,
			func() { log = append(log, "complete") },
		)

		expected := []string{"do:next", "next", "do:next", "next", "do:complete", "complete"}
		if !reflect.DeepEqual(log, expected) {
			t.Errorf("期望 %v, 得到 %v", expected, log)
		}
	})

	t.Run("DoOnError", func(t *testing.T) {
		var seen error
		anError := errors.New("anError")
		_, err := ToSlice(t.Context(), DoOnError(Throw[int](anError), func(err error) { seen = err }))
		if !errors.Is(seen, anError) || !errors.Is(err, anError) {
			t.Errorf("期望副作用和下游都收到错误, 得到 %v / %v", seen, err)
		}
	})

	t.Run("DoOnSubscribe在生产之前执行", func(t *testing.T) {
		var log []string
		source := DoOnSubscribe(Create(func(emitter Emitter[int]) Disposable {
			log = append(log, "produce")
			emitter.OnComplete()
			return nil
		}), func() { log = append(log, "subscribe") })

		source.Subscribe(nil)
		if !reflect.DeepEqual(log, []string{"subscribe", "produce"}) {
			t.Errorf("顺序不符: %v", log)
		}
	})
}

func TestDoOperatorsPanic(t *testing.T) {
	t.Run("DoOnNext的panic转换为PanicError", func(t *testing.T) {
		rec := newRecorder[int]()
		DoOnNext(Of(1, 2, 3), func(v int) {
			if v == 2 {
				panic("bad value")
			}
		}).Subscribe(rec.observer())

		var panicErr *PanicError
		if !errors.As(rec.err(), &panicErr) || panicErr.Value != "bad value" {
			t.Fatalf("期望PanicError(bad value), 得到 %v", rec.err())
		}
		if !reflect.DeepEqual(rec.values(), []int{1}) || rec.terminals() != 1 {
			t.Errorf("期望 [1] 和一个终止事件, 得到 %v / %d", rec.values(), rec.terminals())
		}
	})

	t.Run("DoOnError的panic替换原错误", func(t *testing.T) {
		anError := errors.New("anError")
		_, err := ToSlice(t.Context(), DoOnError(Throw[int](anError), func(error) {
			panic(anError)
		}))

		var panicErr *PanicError
		if !errors.As(err, &panicErr) || !errors.Is(err, anError) {
			t.Errorf("期望包装anError的PanicError, 得到 %v", err)
		}
	})

	t.Run("DoOnSubscribe的panic阻止订阅上游", func(t *testing.T) {
		produced := false
		source := DoOnSubscribe(Create(func(emitter Emitter[int]) Disposable {
			produced = true
			emitter.OnComplete()
			return nil
		}), func() { panic("no subscribe") })

		rec := newRecorder[int]()
		source.Subscribe(rec.observer())

		var panicErr *PanicError
		if !errors.As(rec.err(), &panicErr) || produced {
			t.Errorf("期望PanicError且上游未被订阅, 得到 %v / %v", rec.err(), produced)
		}
	})

	t.Run("DoFinally的panic不会逃逸", func(t *testing.T) {
		rec := newRecorder[int]()
		r := SafeExecute(func() {
			DoFinally(Of(1), func() { panic("finally") }).Subscribe(rec.observer())
		})
		if r != nil {
			t.Fatalf("panic不应该逃逸, 得到 %v", r)
		}
		if !reflect.DeepEqual(rec.values(), []int{1}) || rec.completions() != 1 {
			t.Errorf("下游应该正常完成, 得到 %v / %d", rec.values(), rec.completions())
		}
	})
}

func TestDoOnDispose(t *testing.T) {
	t.Run("主动取消时执行", func(t *testing.T) {
		calls := 0
		d := DoOnDispose(Never[int](), func() { calls++ }).Subscribe(nil)
		d.Dispose()
		d.Dispose()
		if calls != 1 {
			t.Errorf("期望执行1次, 得到 %d", calls)
		}
	})

	t.Run("正常终止时不执行", func(t *testing.T) {
		calls := 0
		d := DoOnDispose(Of(1, 2), func() { calls++ }).Subscribe(nil)
		d.Dispose()

		_, _ = ToSlice(t.Context(), DoOnDispose(Throw[int](errors.New("x")), func() { calls++ }))
		if calls != 0 {
			t.Errorf("终止后不应该执行, 得到 %d", calls)
		}
	})
}

func TestDoFinally(t *testing.T) {
	cases := []struct {
		name   string
		source Observable[int]
		cancel bool
	}{
		{"完成", Of(1), false},
		{"错误", Throw[int](errors.New("x")), false},
		{"取消", Never[int](), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			d := DoFinally(tc.source, func() { calls++ }).Subscribe(nil)
			if tc.cancel {
				d.Dispose()
			}
			d.Dispose()
			if calls != 1 {
				t.Errorf("期望执行1次, 得到 %d", calls)
			}
		})
	}
}

func TestDebug(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))

	got, err := ToSlice(t.Context(), Debug(Of(7), "numbers", logger))
	if err != nil || !reflect.DeepEqual(got, []int{7}) {
		t.Fatalf("Debug不应该改变事件, 得到 %v (%v)", got, err)
	}

	expected := []string{
		"level=INFO msg=subscribed observable=numbers",
		"level=INFO msg=event observable=numbers kind=next value=7",
		"level=INFO msg=event observable=numbers kind=completed",
		"level=INFO msg=disposed observable=numbers",
	}
	lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
	if !reflect.DeepEqual(lines, expected) {
		t.Errorf("日志不符\n期望: %q\n得到: %q", expected, lines)
	}
}
