package log

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog        zerolog.Logger
	diagFile       *os.File
	transcriptFile *os.File
	logMu          sync.Mutex
	logReady       bool
	pid            int
	dir            string
)

const transcriptRule = 80

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		if !filepath.IsAbs(flagPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, flagPath), nil
		}
		return flagPath, nil
	}

	// Priority 2: MURMUR_LOG_PATH environment variable
	envPath := os.Getenv("MURMUR_LOG_PATH")
	if envPath != "" {
		if !filepath.IsAbs(envPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, envPath), nil
		}
		return envPath, nil
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	transcriptPath := filepath.Join(dir, "transcripts_log.txt")
	transcriptFile, err = os.OpenFile(transcriptPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if transcriptFile != nil {
		transcriptFile.Close()
		transcriptFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// Chunk logs a chunk lifecycle transition.
func Chunk(event string, id int) {
	if logReady {
		diagLog.Info().Int("chunk", id).Msg(event)
	}
}

// Dispatch logs the outcome of one recognition dispatch.
func Dispatch(id int, outcome string, audioS, totalMs float64, attempts int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("chunk", id).
		Str("outcome", outcome).
		Float64("audio_s", audioS).
		Float64("total_ms", totalMs).
		Int("attempts", attempts).
		Msg("dispatch")
}

// Leak logs an abandoned capture resource.
func Leak(count int64) {
	if logReady {
		diagLog.Warn().Int64("leaks", count).Msg("capture_handle_abandoned")
	}
}

// CreateFailure logs a failed capture open.
func CreateFailure(consecutive int64) {
	if logReady {
		diagLog.Warn().Int64("consecutive", consecutive).Msg("capture_create_failure")
	}
}

// Transcript appends one block to the long-recording transcript log:
// a rule line, a timestamped duration header, then the text.
func Transcript(text string, audio time.Duration) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	block := fmt.Sprintf("\n%s\n[%s] Duration: %.1fs\n%s\n",
		strings.Repeat("=", transcriptRule),
		time.Now().Format("2006-01-02 15:04:05"),
		audio.Seconds(),
		text)
	transcriptFile.WriteString(block)
}

func SessionStart(recognizer, model, language string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("recognizer", recognizer).
		Str("model", model).
		Str("language", language).
		Msg("session_start")
}

func SessionEnd(chunks int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("chunks", chunks).
		Msg("session_end")
}
