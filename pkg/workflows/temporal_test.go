package workflows

import (
	"testing"

	"github.com/ghuser/nftmarket/pkg/logger"
)

type recordingLogger struct {
	logger.Logger
	bound   []any
	records *[]record
}

type record struct {
	level string
	msg   string
	args  []any
}

func (l recordingLogger) add(level, msg string, args []any) {
	*l.records = append(*l.records, record{level, msg, append(append([]any{}, l.bound...), args...)})
}

func (l recordingLogger) Debug(msg string, args ...any) { l.add("debug", msg, args) }
func (l recordingLogger) Info(msg string, args ...any)  { l.add("info", msg, args) }
func (l recordingLogger) Warn(msg string, args ...any)  { l.add("warn", msg, args) }
func (l recordingLogger) Error(msg string, args ...any) { l.add("error", msg, args) }

func (l recordingLogger) With(args ...any) logger.Logger {
	return recordingLogger{bound: append(append([]any{}, l.bound...), args...), records: l.records}
}

func TestTemporalLogger(t *testing.T) {
	var records []record
	tl := temporalLogger{log: recordingLogger{records: &records}}

	tl.Info("started worker", "task_queue", "market-withdrawals")
	tl.With("workflow_id", "withdrawal-01").(temporalLogger).Error("activity failed", "attempt", 3)
	tl.Warn("poll retry")
	tl.Debug("heartbeat")

	want := []struct {
		level string
		msg   string
		nargs int
	}{
		{"info", "started worker", 2},
		{"error", "activity failed", 4},
		{"warn", "poll retry", 0},
		{"debug", "heartbeat", 0},
	}
	if len(records) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(records))
	}
	for i, w := range want {
		r := records[i]
		if r.level != w.level || r.msg != w.msg || len(r.args) != w.nargs {
			t.Errorf("record %d: got %+v, want %+v", i, r, w)
		}
	}
	if records[1].args[0] != "workflow_id" {
		t.Errorf("bound attrs should come first, got %v", records[1].args)
	}
}

func TestWorkerOptions(t *testing.T) {
	if got := workerOptions(0).MaxConcurrentActivityExecutionSize; got != 0 {
		t.Errorf("zero concurrency should keep the SDK default, got %d", got)
	}
	if got := workerOptions(4).MaxConcurrentActivityExecutionSize; got != 4 {
		t.Errorf("expected 4, got %d", got)
	}
}
