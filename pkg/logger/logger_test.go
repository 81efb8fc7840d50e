package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	err := Init(WithWriter(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
	if Named("test") == nil {
		t.Fatal("named logger is nil")
	}
}

func TestLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(WithWriter(&buf), WithFormat("json"), WithSource(false)).Named("pipeline").With(String("run_id", "r1"))

	l.Info(context.Background(), "stage finished", Int("rows", 3), String("stage", "load"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("entry is not json: %v: %s", err, buf.String())
	}
	for k, want := range map[string]any{"msg": "stage finished", "logger": "pipeline", "run_id": "r1", "stage": "load", "rows": float64(3)} {
		if entry[k] != want {
			t.Errorf("%s = %v, want %v", k, entry[k], want)
		}
	}
	if _, ok := entry["source"]; ok {
		t.Error("source should be omitted")
	}
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(WithWriter(&buf))
	defer SetLevel(0)

	if err := SetLevelString("warn"); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	l.Info(ctx, "hidden")
	l.Warn(ctx, "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info entry written at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "logger_test.go") {
		t.Errorf("warn entry missing or without source: %s", out)
	}
	if err := SetLevelString("loud"); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestNop(t *testing.T) {
	Nop().Error(context.Background(), "discarded", String("k", "v"))
}
