package transcriber

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"murmur/log"
	"murmur/notify"
	"murmur/wavio"
)

type doneResult struct {
	id   int
	text string
}

func newTestDispatcher(rec Recognizer, notifier notify.Notifier) (*Dispatcher, chan doneResult) {
	results := make(chan doneResult, 16)
	d := NewDispatcher(rec, notifier, func(id int, text string) {
		results <- doneResult{id, text}
	})
	d.floor = 100 * time.Millisecond
	d.policy.Backoff = time.Millisecond
	return d, results
}

func waitResult(t *testing.T, results chan doneResult) doneResult {
	t.Helper()
	select {
	case r := <-results:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for dispatch result")
		return doneResult{}
	}
}

func TestDeadlineFloorForShortClips(t *testing.T) {
	d := &Dispatcher{floor: DeadlineFloor}
	// 2s of audio still gets the fixed floor.
	if got := d.deadlineFor(2 * time.Second); got != DeadlineFloor {
		t.Errorf("deadline = %v, want %v", got, DeadlineFloor)
	}
}

func TestDeadlineScalesForLongClips(t *testing.T) {
	d := &Dispatcher{floor: DeadlineFloor}
	if got := d.deadlineFor(30 * time.Second); got != 60*time.Second {
		t.Errorf("deadline = %v, want 60s", got)
	}
}

func TestDispatchReportsText(t *testing.T) {
	rec := NewFake("hello world")
	d, results := newTestDispatcher(rec, notify.NewFake())
	defer d.Close()

	d.Dispatch(0, make([]int16, wavio.SampleRate)) // 1s of silence
	r := waitResult(t, results)
	if r.id != 0 {
		t.Errorf("id = %d, want 0", r.id)
	}
	if r.text != "hello world" {
		t.Errorf("text = %q, want %q", r.text, "hello world")
	}
	if rec.Calls() != 1 {
		t.Errorf("calls = %d, want 1", rec.Calls())
	}
}

func TestTimeoutNeverRetries(t *testing.T) {
	rec := NewFake("too late").Delay(time.Second)
	notifier := notify.NewFake()
	d, results := newTestDispatcher(rec, notifier)
	defer d.Close()
	d.floor = 50 * time.Millisecond

	d.Dispatch(3, make([]int16, wavio.SampleRate))
	r := waitResult(t, results)
	if r.text != "" {
		t.Errorf("text = %q, want empty on timeout", r.text)
	}
	if rec.Calls() != 1 {
		t.Errorf("calls = %d, want 1 (no retry after timeout)", rec.Calls())
	}
	if notifier.Count() != 1 {
		t.Errorf("notifications = %d, want 1", notifier.Count())
	}
}

func TestTransientErrorRetries(t *testing.T) {
	rec := NewFake("second try").FailWith(errors.New("503"))
	notifier := notify.NewFake()
	d, results := newTestDispatcher(rec, notifier)
	defer d.Close()

	d.Dispatch(1, make([]int16, wavio.SampleRate/2))
	r := waitResult(t, results)
	if r.text != "second try" {
		t.Errorf("text = %q, want %q", r.text, "second try")
	}
	if rec.Calls() != 2 {
		t.Errorf("calls = %d, want 2", rec.Calls())
	}
	if notifier.Count() != 0 {
		t.Errorf("notifications = %d, want 0 after recovery", notifier.Count())
	}
}

func TestTransientErrorGivesUpAfterRetries(t *testing.T) {
	boom := errors.New("boom")
	rec := NewFake("never").FailWith(boom, boom, boom)
	notifier := notify.NewFake()
	d, results := newTestDispatcher(rec, notifier)
	defer d.Close()

	d.Dispatch(2, make([]int16, wavio.SampleRate/2))
	r := waitResult(t, results)
	if r.text != "" {
		t.Errorf("text = %q, want empty after exhausted retries", r.text)
	}
	if rec.Calls() != maxAttempts {
		t.Errorf("calls = %d, want %d", rec.Calls(), maxAttempts)
	}
	if notifier.Count() != 1 {
		t.Errorf("notifications = %d, want 1", notifier.Count())
	}
}

func TestSlowChunkDoesNotBlockNextSubmission(t *testing.T) {
	rec := NewFake("slow").Delay(300 * time.Millisecond)
	d, results := newTestDispatcher(rec, notify.NewFake())
	defer d.Close()
	d.floor = 2 * time.Second

	d.Dispatch(0, make([]int16, wavio.SampleRate))
	d.Dispatch(1, make([]int16, wavio.SampleRate))

	// Both must finish despite sharing the pool with a slow call.
	got := map[int]bool{}
	for i := 0; i < 2; i++ {
		r := waitResult(t, results)
		got[r.id] = true
	}
	if !got[0] || !got[1] {
		t.Errorf("completions = %v, want both chunks", got)
	}
}

func TestLongRecordingAppendsTranscriptLog(t *testing.T) {
	tmp := t.TempDir()
	log.SetDir(tmp)
	if err := log.Init(); err != nil {
		t.Fatalf("log init: %v", err)
	}
	t.Cleanup(func() { log.Close(); log.SetDir("") })

	rec := NewFake("a very long dictation")
	d, results := newTestDispatcher(rec, notify.NewFake())
	defer d.Close()

	samples := make([]int16, 31*wavio.SampleRate)
	d.Dispatch(0, samples)
	waitResult(t, results)

	data, err := os.ReadFile(filepath.Join(tmp, "transcripts_log.txt"))
	if err != nil {
		t.Fatalf("reading transcript log: %v", err)
	}
	if !strings.Contains(string(data), "a very long dictation") {
		t.Error("transcript log missing long recording text")
	}
	if !strings.Contains(string(data), "Duration: 31.0s") {
		t.Errorf("transcript log missing duration header:\n%s", data)
	}
}

func TestEmptySamplesStillComplete(t *testing.T) {
	rec := NewFake("")
	d, results := newTestDispatcher(rec, notify.NewFake())
	defer d.Close()

	d.Dispatch(7, nil)
	r := waitResult(t, results)
	if r.id != 7 || r.text != "" {
		t.Errorf("result = %+v, want id 7 empty text", r)
	}
}
