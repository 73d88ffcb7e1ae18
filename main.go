package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
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
	"murmur/shutdown"
	"murmur/transcriber"
	"murmur/wavio"
)

var version = "dev"

var (
	shutdownOnce  sync.Once
	instanceLock  *health.Lock
	chunksFlushed atomic.Int64
)

func gracefulShutdown(code int) {
	shutdownOnce.Do(func() {
		if n := chunksFlushed.Load(); n > 0 {
			log.SessionEnd(int(n))
		}
		log.Close()
		if instanceLock != nil {
			instanceLock.Release()
		}
		os.Exit(code)
	})
}

func initCrashLog() {
	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n",
		time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}

// recorder adapts the capture manager to the engine's Recorder port.
type recorder struct {
	mgr *capture.Manager
}

func (r recorder) Open() (engine.Stream, error) {
	return r.mgr.Open()
}

func run() {
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	langFlag := flag.String("lang", "", "Language code for transcription (e.g., en, es, fr); overrides preferences")
	modelFlag := flag.String("model", "", "Recognition quality tier: tiny, base, small, medium, large; overrides preferences")
	configFlag := flag.String("config", "", "Preferences file path (default: OS-specific location)")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven)")
	crashFlag := flag.Bool("crash", false, "Trigger synthetic panic for testing crash logging")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("murmur %s\n", version)
		os.Exit(0)
	}

	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}
	initCrashLog()

	if *crashFlag {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	configPath := *configFlag
	if configPath == "" {
		configPath, _ = config.DefaultPath()
	}
	cfg := config.Load(configPath)
	if *modelFlag != "" {
		if !config.ValidTier(*modelFlag) {
			fmt.Fprintf(os.Stderr, "Error: unknown model tier %q (use tiny, base, small, medium or large)\n", *modelFlag)
			os.Exit(1)
		}
		cfg.Model = *modelFlag
	}
	if *langFlag != "" {
		cfg.Language = *langFlag
	}
	if *deviceFlag != "" {
		cfg.Device = *deviceFlag
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}

	instanceLock, err = health.AcquireLock(log.Dir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *testFlag {
		args := flag.Args()
		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, "Usage: murmur -test <wav-file>")
			os.Exit(1)
		}
		runTestMode(args[0], cfg)
		return
	}

	notifier := notify.Discard()
	if cfg.Notifications {
		notifier = notify.NewDesktop()
	}

	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "Error: GROQ_API_KEY is not set")
		os.Exit(1)
	}
	rec := transcriber.NewWhisper(apiKey, cfg.WhisperModel(), cfg.Language)
	log.SessionStart(rec.Name(), cfg.Model, cfg.Language)

	captureCtx, err := capture.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer captureCtx.Close()

	var selectedDevice *capture.DeviceInfo
	if cfg.Device != "" {
		if devices, err := captureCtx.Devices(); err == nil {
			for i := range devices {
				if devices[i].Name == cfg.Device {
					selectedDevice = &devices[i]
					break
				}
			}
		}
		if selectedDevice == nil {
			log.Warnf("device not found, using default: %s", cfg.Device)
		}
	} else if *setupFlag {
		selectedDevice, err = capture.SelectDevice(captureCtx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			selectedDevice = nil
		}
	}

	monitor := health.NewMonitor(notifier, func() { gracefulShutdown(1) })
	mgr := capture.NewManager(captureCtx, selectedDevice, capture.Config{
		SampleRate: wavio.SampleRate,
		Channels:   wavio.Channels,
	}, monitor)

	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		log.Errorf("hotkey register error: %v", err)
		fmt.Fprintf(os.Stderr, "Error registering hotkey: %v\n", err)
		os.Exit(1)
	}
	defer hk.Unregister()

	injector := inject.New(hk, inject.NewTyper())
	hk.SetSuppress(injector.TypingInProgress)

	eng := engine.New(recorder{mgr}, nil, injector, notifier)
	eng.SetOnFlush(func(int, string) { chunksFlushed.Add(1) })

	disp := transcriber.NewDispatcher(rec, notifier, func(id int, text string) {
		eng.Submit(engine.Command{Kind: engine.ChunkDone, Chunk: id, Text: text})
	})
	defer disp.Close()
	eng.SetDispatcher(disp)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go eng.Run(ctx)

	go beep.Init()

	go func() {
		for {
			select {
			case <-hk.Keydown():
				go beep.PlayStart()
				eng.Submit(engine.Command{Kind: engine.BeginCapture})
			case <-hk.Keyup():
				go beep.PlayEnd()
				eng.Submit(engine.Command{Kind: engine.EndCapture})
			case <-ctx.Done():
				return
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	<-sigChan
	cancel()
	gracefulShutdown(0)
}
