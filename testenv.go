package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"murmur/beep"
	"murmur/capture"
	"murmur/config"
	"murmur/engine"
	"murmur/health"
	"murmur/hotkey"
	"murmur/inject"
	"murmur/log"
	"murmur/notify"
	"murmur/transcriber"
	"murmur/wavio"
)

// stdoutTyper prints injected text instead of synthesizing keystrokes,
// so test runs are observable and harmless.
type stdoutTyper struct{}

func (stdoutTyper) Type(text string) error {
	fmt.Printf("TYPED: %s\n", text)
	return nil
}

// runTestMode drives the full engine against the fake capture backend
// and fake hotkey, scripted over stdin:
//
//	KEYDOWN / KEYUP  press and release the push-to-talk key
//	SLEEP <ms>       pause the script
//	WAIT             block until every finished recording has flushed
//	QUIT             end the session
func runTestMode(wavPath string, cfg config.Config) {
	beep.Disable()
	defer log.Close()

	var rec transcriber.Recognizer
	if apiKey := os.Getenv("GROQ_API_KEY"); apiKey != "" {
		rec = transcriber.NewWhisper(apiKey, cfg.WhisperModel(), cfg.Language)
	} else {
		rec = transcriber.NewFake("test transcription")
	}
	log.SessionStart(rec.Name(), cfg.Model, cfg.Language)

	fakeCtx, err := capture.NewFakeContext(wavPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
		os.Exit(1)
	}

	monitor := health.NewMonitor(notify.Discard(), func() { gracefulShutdown(1) })
	mgr := capture.NewManager(fakeCtx, nil, capture.Config{
		SampleRate: wavio.SampleRate,
		Channels:   wavio.Channels,
	}, monitor)

	hk := hotkey.NewFake()
	injector := inject.New(hk, stdoutTyper{})
	hk.SetSuppress(injector.TypingInProgress)

	var started, flushed atomic.Int64

	eng := engine.New(recorder{mgr}, nil, injector, notify.Discard())
	eng.SetOnFlush(func(int, string) {
		flushed.Add(1)
		chunksFlushed.Add(1)
	})

	disp := transcriber.NewDispatcher(rec, notify.Discard(), func(id int, text string) {
		eng.Submit(engine.Command{Kind: engine.ChunkDone, Chunk: id, Text: text})
	})
	defer disp.Close()
	eng.SetDispatcher(disp)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go eng.Run(ctx)

	go func() {
		for {
			select {
			case <-hk.Keydown():
				eng.Submit(engine.Command{Kind: engine.BeginCapture})
			case <-hk.Keyup():
				eng.Submit(engine.Command{Kind: engine.EndCapture})
			case <-ctx.Done():
				return
			}
		}
	}()

	waitFlushed := func() {
		for flushed.Load() < started.Load() {
			time.Sleep(10 * time.Millisecond)
		}
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		switch cmd {
		case "KEYDOWN":
			hk.SimKeydown()
		case "KEYUP":
			started.Add(1)
			hk.SimKeyup()
		case "WAIT":
			waitFlushed()
		case "QUIT":
			gracefulShutdown(0)
		default:
			if strings.HasPrefix(cmd, "SLEEP ") {
				if ms, err := strconv.Atoi(cmd[6:]); err == nil {
					time.Sleep(time.Duration(ms) * time.Millisecond)
				}
			}
		}
	}
	gracefulShutdown(0)
}
