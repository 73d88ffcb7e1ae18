package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setupLogDir(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	SetDir(tmp)
	t.Cleanup(func() { Close(); SetDir("") })
	return tmp
}

func TestResolveDirFlag(t *testing.T) {
	got, err := ResolveDir("/tmp/mylog")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/mylog" {
		t.Errorf("got %q, want /tmp/mylog", got)
	}
}

func TestResolveDirFlagRelative(t *testing.T) {
	got, err := ResolveDir("logs")
	if err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(wd, "logs")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveDirEnv(t *testing.T) {
	t.Setenv("MURMUR_LOG_PATH", "/tmp/murmur-env-log")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/murmur-env-log" {
		t.Errorf("got %q, want /tmp/murmur-env-log", got)
	}
}

func TestResolveDirDefault(t *testing.T) {
	t.Setenv("MURMUR_LOG_PATH", "")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if got == "" {
		t.Error("default log dir should not be empty")
	}
}

func TestInitCreatesLogFiles(t *testing.T) {
	tmp := setupLogDir(t)
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	Info("hello")
	Chunk("chunk_recording", 0)
	Close()

	diag, err := os.ReadFile(filepath.Join(tmp, "diagnostics_log.txt"))
	if err != nil {
		t.Fatalf("reading diagnostics: %v", err)
	}
	if !strings.Contains(string(diag), "hello") {
		t.Error("diagnostics missing info message")
	}
	if !strings.Contains(string(diag), "chunk_recording") {
		t.Error("diagnostics missing chunk event")
	}
}

func TestLoggingBeforeInitIsNoop(t *testing.T) {
	setupLogDir(t)
	// Must not panic without Init.
	Info("dropped")
	Warnf("dropped %d", 1)
	Transcript("dropped", time.Minute)
	Leak(1)
}

func TestTranscriptBlockFormat(t *testing.T) {
	tmp := setupLogDir(t)
	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	Transcript("a long dictation", 42*time.Second+300*time.Millisecond)
	Close()

	data, err := os.ReadFile(filepath.Join(tmp, "transcripts_log.txt"))
	if err != nil {
		t.Fatalf("reading transcripts: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, strings.Repeat("=", 80)) {
		t.Error("missing rule line")
	}
	if !strings.Contains(text, "Duration: 42.3s") {
		t.Errorf("missing duration header, got:\n%s", text)
	}
	if !strings.Contains(text, "a long dictation") {
		t.Error("missing transcript text")
	}
}
