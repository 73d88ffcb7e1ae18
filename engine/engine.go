// Package engine is the sequencing core: a single actor that consumes
// the command stream and turns it into capture lifecycle calls,
// dispatches and strictly in-order text injection. All chunk-ordering
// state lives here and is touched by exactly one goroutine, so none of
// it needs locks.
package engine

import (
	"context"

	"murmur/inject"
	"murmur/log"
	"murmur/notify"
)

// CommandKind tags the three inputs the actor reacts to.
type CommandKind int

const (
	BeginCapture CommandKind = iota
	EndCapture
	ChunkDone
)

// Command is one unit of the actor's input stream. BeginCapture and
// EndCapture come from the key adapter; ChunkDone from the dispatcher.
type Command struct {
	Kind  CommandKind
	Chunk int
	Text  string
}

// Stream is one active capture resource, owned by the engine from open
// until close.
type Stream interface {
	StopAndDrain() []int16
	Close()
}

// Recorder opens a fresh capture stream per recording.
type Recorder interface {
	Open() (Stream, error)
}

// Dispatcher accepts a finalized sample buffer for recognition and
// later reports the result as a ChunkDone command.
type Dispatcher interface {
	Dispatch(id int, samples []int16)
}

// Injector delivers one chunk's text to the input focus.
type Injector interface {
	Inject(text string) inject.Status
}

// Engine sequences recordings and their transcripts. Chunk ids are
// handed out strictly increasing with no gaps; chunk i's text is never
// injected before every chunk j < i has been.
type Engine struct {
	recorder Recorder
	disp     Dispatcher
	injector Injector
	notifier notify.Notifier

	commands chan Command

	capturing    bool
	stream       Stream
	currentChunk int
	nextRecord   int
	nextType     int
	pending      map[int]string

	// onFlush observes each successfully injected chunk. Set before
	// Run; used by the headless test mode and tests.
	onFlush func(id int, text string)
}

func New(recorder Recorder, disp Dispatcher, injector Injector, notifier notify.Notifier) *Engine {
	if notifier == nil {
		notifier = notify.Discard()
	}
	return &Engine{
		recorder: recorder,
		disp:     disp,
		injector: injector,
		notifier: notifier,
		commands: make(chan Command, 64),
		pending:  make(map[int]string),
	}
}

// SetOnFlush installs the flush observer. Call before Run.
func (e *Engine) SetOnFlush(fn func(id int, text string)) {
	e.onFlush = fn
}

// SetDispatcher wires the dispatcher after construction; the dispatcher
// itself needs the engine for its completion callback. Call before Run.
func (e *Engine) SetDispatcher(d Dispatcher) {
	e.disp = d
}

// Submit queues one command for the actor. Safe from any goroutine.
func (e *Engine) Submit(cmd Command) {
	e.commands <- cmd
}

// Run drains the command stream until ctx is cancelled. This is the
// only goroutine that may touch sequencing state.
func (e *Engine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			e.abortCapture()
			return
		case cmd := <-e.commands:
			e.apply(cmd)
		}
	}
}

// apply handles exactly one command. It is synchronous so tests can
// drive the actor deterministically without the Run loop.
func (e *Engine) apply(cmd Command) {
	switch cmd.Kind {
	case BeginCapture:
		e.begin()
	case EndCapture:
		e.end()
	case ChunkDone:
		e.complete(cmd.Chunk, cmd.Text)
	}
}

// begin opens a capture stream and allocates the chunk id. The id is
// consumed only after the resource is running, so a failed open leaves
// no gap in the sequence.
func (e *Engine) begin() {
	if e.capturing {
		return
	}

	stream, err := e.recorder.Open()
	if err != nil {
		log.Errorf("starting recording: %v", err)
		e.notifier.Notify("Microphone unavailable", "Could not start recording. Check the audio device.")
		return
	}

	e.currentChunk = e.nextRecord
	e.nextRecord++
	e.capturing = true
	e.stream = stream
	log.Chunk("recording", e.currentChunk)
}

// end finalizes the current recording, if any, then always attempts a
// flush: a release is also the retry point for chunks deferred while
// the key was held.
func (e *Engine) end() {
	if e.capturing {
		e.capturing = false
		samples := e.stream.StopAndDrain()
		e.stream.Close()
		e.stream = nil
		id := e.currentChunk

		if len(samples) == 0 {
			// Tap with no audio: complete immediately, skip the
			// recognizer, keep the sequence moving.
			log.Chunk("empty", id)
			e.pending[id] = ""
		} else {
			log.Chunk("transcribing", id)
			e.disp.Dispatch(id, samples)
		}
	}
	e.flush()
}

func (e *Engine) complete(id int, text string) {
	log.Chunk("transcribed", id)
	e.pending[id] = text
	// Recording takes priority over injection; completions arriving
	// mid-capture stay queued until the recording ends.
	if !e.capturing {
		e.flush()
	}
}

// flush injects pending chunks in id order. It stops at the first gap
// (an earlier chunk still outstanding) or the first deferral (key
// still physically held); both are retried on a later command.
func (e *Engine) flush() {
	for {
		text, ok := e.pending[e.nextType]
		if !ok {
			return
		}
		switch e.injector.Inject(text) {
		case inject.Injected:
			delete(e.pending, e.nextType)
			log.Chunk("typed", e.nextType)
			if e.onFlush != nil {
				e.onFlush(e.nextType, text)
			}
			e.nextType++
		case inject.Deferred:
			log.Chunk("deferred", e.nextType)
			return
		case inject.Failed:
			// Drop this chunk's text but keep the sequence moving;
			// later chunks are already-finished work.
			delete(e.pending, e.nextType)
			e.notifier.Notify("Typing failed", "A transcribed chunk could not be injected and was dropped.")
			e.nextType++
		}
	}
}

// abortCapture releases a live stream on shutdown without dispatching.
func (e *Engine) abortCapture() {
	if !e.capturing {
		return
	}
	e.capturing = false
	e.stream.StopAndDrain()
	e.stream.Close()
	e.stream = nil
}
