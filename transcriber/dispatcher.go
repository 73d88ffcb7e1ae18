package transcriber

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"murmur/log"
	"murmur/notify"
	"murmur/retry"
	"murmur/wavio"
)

const (
	// PoolSize keeps one stuck recognition call from blocking the next
	// submission.
	PoolSize = 2

	// DeadlineFloor gives short clips a usable minimum wait; longer
	// clips scale the deadline with their duration instead.
	DeadlineFloor = 10 * time.Second

	// LongRecording is the audio duration past which transcripts are
	// appended to the transcript log regardless of outcome.
	LongRecording = 30 * time.Second

	maxAttempts  = 3 // one call plus two retries for transient errors
	retryBackoff = 500 * time.Millisecond
)

// ErrDeadlineExceeded reports that a recognition call outlived its
// deadline. A hang is assumed systemic, so it is never retried.
var ErrDeadlineExceeded = errors.New("recognition deadline exceeded")

type job struct {
	id      int
	samples []int16
}

// Dispatcher runs recognition calls on a fixed-size worker pool with a
// per-chunk deadline and limited retry. Results are reported through
// the done callback; the dispatcher never touches sequencing state.
type Dispatcher struct {
	rec      Recognizer
	notifier notify.Notifier
	done     func(id int, text string)
	policy   retry.Policy
	floor    time.Duration

	jobs      chan job
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewDispatcher(rec Recognizer, notifier notify.Notifier, done func(id int, text string)) *Dispatcher {
	d := &Dispatcher{
		rec:      rec,
		notifier: notifier,
		done:     done,
		policy:   retry.Policy{MaxAttempts: maxAttempts, Backoff: retryBackoff},
		floor:    DeadlineFloor,
		jobs:     make(chan job, 16),
	}
	d.wg.Add(PoolSize)
	for i := 0; i < PoolSize; i++ {
		go d.worker()
	}
	return d
}

// Dispatch queues one finalized sample buffer for recognition. The
// dispatcher owns the samples from this point on.
func (d *Dispatcher) Dispatch(id int, samples []int16) {
	d.jobs <- job{id: id, samples: samples}
}

// Close stops accepting work and waits for queued jobs to finish.
// Workers stuck inside a hung recognition call are not waited for
// beyond their deadline.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() { close(d.jobs) })
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.jobs {
		d.done(j.id, d.process(j))
	}
}

func (d *Dispatcher) process(j job) string {
	audioDur := wavio.Duration(len(j.samples))
	start := time.Now()

	wavData, err := wavio.Encode(j.samples)
	if err != nil {
		log.Errorf("chunk %d: wav encode: %v", j.id, err)
		return ""
	}

	deadline := d.deadlineFor(audioDur)
	var text string
	attempts := 0
	err = d.policy.Do(func() error {
		attempts++
		t, err := d.transcribeOnce(wavData, deadline)
		if err != nil {
			return err
		}
		text = t
		return nil
	})

	outcome := "ok"
	if err != nil {
		text = ""
		if errors.Is(err, ErrDeadlineExceeded) {
			outcome = "timeout"
			d.notifier.Notify("Transcription timed out",
				"The recognizer did not answer in time; this recording was dropped.")
		} else {
			outcome = "error"
			log.Errorf("chunk %d: transcription: %v", j.id, err)
			d.notifier.Notify("Transcription failed", err.Error())
		}
	}

	text = strings.TrimSpace(text)
	if audioDur >= LongRecording {
		log.Transcript(text, audioDur)
	}
	log.Dispatch(j.id, outcome, audioDur.Seconds(),
		float64(time.Since(start).Milliseconds()), attempts)
	return text
}

// deadlineFor budgets max(floor, 2 x audio duration) for one call.
func (d *Dispatcher) deadlineFor(audio time.Duration) time.Duration {
	if scaled := 2 * audio; scaled > d.floor {
		return scaled
	}
	return d.floor
}

// transcribeOnce runs a single recognition call and waits at most
// deadline for it. The timeout only stops the wait: the underlying
// call cannot be preempted and may keep running behind it.
func (d *Dispatcher) transcribeOnce(wavData []byte, deadline time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), deadline)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		text, err := d.rec.Transcribe(ctx, wavData)
		ch <- result{text, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) {
			return "", retry.Permanent(ErrDeadlineExceeded)
		}
		return r.text, r.err
	case <-ctx.Done():
		return "", retry.Permanent(ErrDeadlineExceeded)
	}
}
