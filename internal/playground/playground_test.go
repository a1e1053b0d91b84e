package playground

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xinjiayu/rxcore/store"
)

// runScenario 运行场景并返回去掉首尾标记的输出
func runScenario(t *testing.T, name string, env *Env) string {
	t.Helper()

	s, ok := Find(name)
	if !ok {
		t.Fatalf("场景 %q 不存在", name)
	}

	var buf bytes.Buffer
	if env == nil {
		env = NewEnv(&buf)
	} else {
		env.Out = &buf
	}
	if err := Run(context.Background(), s, env); err != nil {
		t.Fatalf("运行 %q 失败: %v", name, err)
	}

	out := strings.TrimPrefix(buf.String(), "\n>>> Example of: "+name+"\n")
	return strings.TrimSuffix(out, "<<<\n")
}

func TestScenarioOutput(t *testing.T) {
	cases := []struct {
		name     string
		expected string
	}{
		{"just-of-from-range", ""},
		{"subscribe", "1\n2\n3\n"},
		{"empty", "Completed\n"},
		{"never", ""},
		{"dispose", "A\nB\nC\nDisposed!\n"},
		{"dispose-bag", "A\nB\nC\nD\nE\nF\n"},
		{"deferred", "1\n2\n3\n\n4\n5\n6\n\n1\n2\n3\n\n"},
		{"create", "1\nanError\nDisposed\n"},
		{"completable", "Completed!\n"},
		{"single", "Success!\n"},
		{"maybe", "1\n"},
		{"challenge-never-do", "Subscribed\nDisposed\n"},
		{"challenge-never-debug", "level=INFO msg=subscribed observable=never\nlevel=INFO msg=disposed observable=never\n"},
		{"challenge-single-file", "fileNotFound\n"},

		{"publish-subject", "Number two\n"},
		{"behavior-subject", "Number two\nNumber three\ncurrent: Number three\n"},
		{"replay-subject", "Number two\nNumber three\nNumber four\nNumber five\n"},
		{"async-subject", "before completion\n3\nCompleted\nlate subscriber:\n3\nCompleted\n"},
		{"challenge-publish", "received: Hello, subject\n"},
		{"challenge-replay", "2\n3\n"},
		{"replay-error", "replay failed\nrxcore: subject already terminated\n"},
		{"subject-skip-take", "3\n4\nCompleted\nobservers left: 0\n"},

		{"filter", "2\n4\n6\n8\n10\n"},
		{"map", "1\n-2\n3\n-4\n5\n"},
		{"flatmap", "Line length: 10\nLine length: 100\nLine length: 20\nLine length: 200\nLine length: 30\nLine length: 300\nLine length: 40\nLine length: 400\nLine length: 50\nLine length: 500\n"},
		{"flatmap-map", "Line length: 1\nLine length: 10\nLine length: 2\nLine length: 20\nLine length: 3\nLine length: 30\nLine length: 4\nLine length: 40\nLine length: 5\nLine length: 50\n"},
		{"challenge-flatmap", "1\n4\n9\n16\n25\n"},
		{"challenge-filter", "Steve\nSimon\nSam\n"},
		{"scan-reduce", "running: 1\nrunning: 3\nrunning: 6\nrunning: 10\nrunning: 15\ntotal: 15\n"},
		{"distinct-startwith", "[0 1 2 1 3]\n"},
		{"merge-concat", "merge: [A B 1 2]\nconcat: [1 2 A B]\n"},
		{"retry", "attempt 1\n1\n2\n3\nattempt 2\n1\n2\n3\nattempt 3\n1\n2\n3\nevent 4 failed\n"},
		{"catch", "1\n2\ncaught: anError\n-1\n-2\nCompleted\nonErrorReturn: [1 2 0]\n"},
		{"share", "first: 1\nsecond: 1\nfirst: 2\nsecond: 2\nfirst: 3\nsecond: 3\nupstream subscriptions: 1\n"},

		{"interval", "1s tick 0\n2s tick 1\n3s tick 2\n3s Completed\npending tasks: 0\n"},
		{"timer-delay", "500ms delayed a\n500ms delayed b\n500ms delay Completed\n2s timer 0\n"},
		{"debounce", "500ms search \"rxg\"\n1.1s search \"rxgo\"\n"},
		{"timeout", "500ms value 1\n1.2s value 2\n2.2s rxcore: timeout\nsource observers: 0\n"},
		{"realtime-interval", "[0 1 2]\n"},
		{"cron-schedule", "*/15 * * * * fires at 00:15\n*/15 * * * * fires at 00:30\n*/15 * * * * fires at 00:45\n"},

		{"instrumented", "values: [10 100 20 200 30 300]\nfirst: 10\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := runScenario(t, tc.name, nil)
			if got != tc.expected {
				t.Errorf("输出不符\n期望:\n%s\n得到:\n%s", tc.expected, got)
			}
		})
	}
}

func TestChallengeMapDescribesEveryValue(t *testing.T) {
	got := runScenario(t, "challenge-map", nil)
	lines := strings.Split(strings.TrimSpace(got), "\n")
	if len(lines) != 5 {
		t.Fatalf("期望5行输出, 得到 %d: %q", len(lines), got)
	}
	if lines[4] != "value 5 doubled is 10" {
		t.Errorf("最后一行不符: %q", lines[4])
	}
}

func TestRecordReplay(t *testing.T) {
	t.Run("内存存储", func(t *testing.T) {
		got := runScenario(t, "record-replay", nil)
		expected := "recorded: [ALPHA BETA GAMMA]\nreplayed: [ALPHA BETA GAMMA]\n"
		if got != expected {
			t.Errorf("期望 %q, 得到 %q", expected, got)
		}
	})

	t.Run("SQLite存储并重复运行", func(t *testing.T) {
		s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "playground.db"))
		if err != nil {
			t.Fatalf("打开存储失败: %v", err)
		}
		defer s.Close()

		env := NewEnv(nil)
		env.Store = s
		for i := 0; i < 2; i++ {
			got := runScenario(t, "record-replay", env)
			if !strings.Contains(got, "replayed: [ALPHA BETA GAMMA]") {
				t.Errorf("第%d次运行回放不符: %q", i+1, got)
			}
		}

		latest, err := s.LatestSeq(context.Background(), recordStream)
		if err != nil {
			t.Fatalf("LatestSeq失败: %v", err)
		}
		if latest != 8 {
			t.Errorf("两次运行后期望seq为8, 得到 %d", latest)
		}

		runs, err := store.Runs(context.Background(), s, recordStream)
		if err != nil {
			t.Fatalf("Runs失败: %v", err)
		}
		if len(runs) != 2 {
			t.Errorf("每次运行应该是一次独立的录制, 得到 %d", len(runs))
		}
	})
}

func TestStrictModeLogsViolations(t *testing.T) {
	var logs bytes.Buffer
	env := NewEnv(nil)
	env.Strict = true
	env.Logger = NewEnv(&logs).debugLogger()

	got := runScenario(t, "replay-error", env)
	if !strings.Contains(got, "replay failed") {
		t.Errorf("输出不符: %q", got)
	}
	// TryOnNext只返回错误，不记录日志
	if strings.Contains(logs.String(), "terminated subject") {
		t.Errorf("不应该记录日志: %q", logs.String())
	}
}

func TestCatalogue(t *testing.T) {
	t.Run("名称唯一且有描述", func(t *testing.T) {
		seen := map[string]bool{}
		for _, s := range Catalogue() {
			if seen[s.Name] {
				t.Errorf("重复的场景名称 %q", s.Name)
			}
			seen[s.Name] = true
			if s.Description == "" {
				t.Errorf("场景 %q 缺少描述", s.Name)
			}
			if s.Run == nil {
				t.Errorf("场景 %q 缺少Run", s.Name)
			}
		}
	})

	t.Run("按章节排序", func(t *testing.T) {
		scenarios := Catalogue()
		if scenarios[0].Chapter != ChapterObservables {
			t.Errorf("第一个场景应属于observables, 得到 %s", scenarios[0].Chapter)
		}
		if last := scenarios[len(scenarios)-1]; last.Chapter != ChapterIntegration {
			t.Errorf("最后一个场景应属于integration, 得到 %s", last.Chapter)
		}
	})

	t.Run("未知场景", func(t *testing.T) {
		if _, ok := Find("nope"); ok {
			t.Error("不应该找到未知场景")
		}
	})
}
