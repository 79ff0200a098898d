package log

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	scigoErrors "github.com/YuminosukeSato/chocotune/pkg/errors"
)

func TestTestLogger(t *testing.T) {
	logger, buffer := NewTestLogger(LevelInfo)

	logger.Debug("hidden")
	logger.Info("search started", FamilyKey, "ridge", CandidatesKey, 20)
	logger.With(RunIDKey, "abc").Warn("unknown label", "label", "X")
	logger.Error("fit failed", scigoErrors.New("boom"), FoldKey, 2)

	if strings.Contains(buffer.String(), "hidden") {
		t.Error("debug record should be filtered at info level")
	}
	tests := []struct {
		key   string
		value interface{}
	}{
		{FamilyKey, "ridge"},
		{CandidatesKey, 20.0},
		{RunIDKey, "abc"},
		{"error", "boom"},
		{FoldKey, 2.0},
	}
	for _, tt := range tests {
		if !logger.ContainsField(tt.key, tt.value) {
			t.Errorf("expected field %s=%v in %s", tt.key, tt.value, buffer.String())
		}
	}
	entries, err := logger.GetLogEntries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 entries, got %d", len(entries))
	}
}

func TestZerologProvider(t *testing.T) {
	var buf bytes.Buffer
	p := newZerologProvider(&buf, LevelDebug)
	logger := p.GetLoggerWithName("tuning.harness").With(FamilyKey, "knn")

	logger.Info("candidate scored", CandidateKey, 3, ScoreKey, 0.25)
	logger.Error("search failed", scigoErrors.NewValueError("SVR.Fit", "bad gamma"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %s", len(lines), buf.String())
	}
	var first map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatal(err)
	}
	if first[ComponentKey] != "tuning.harness" || first[FamilyKey] != "knn" {
		t.Errorf("missing context fields: %v", first)
	}
	if first[CandidateKey] != 3.0 {
		t.Errorf("candidate = %v", first[CandidateKey])
	}
	var second map[string]interface{}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatal(err)
	}
	if msg, _ := second["error"].(string); !strings.Contains(msg, "bad gamma") {
		t.Errorf("error field = %v", second["error"])
	}

	p.SetLevel(LevelError)
	if logger := p.GetLogger(); logger.Enabled(context.Background(), LevelInfo) {
		t.Error("info should be disabled after SetLevel(LevelError)")
	}
}

func TestToLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ToLogLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ToLogLevel(%q) err = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ToLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetupLoggerRoutesWarnings(t *testing.T) {
	var buf bytes.Buffer
	prev := SetProvider(newZerologProvider(&buf, LevelInfo))
	defer func() {
		SetProvider(prev)
		scigoErrors.SetZerologWarnFunc(nil)
	}()

	if err := SetupLogger("warn", &buf); err != nil {
		t.Fatal(err)
	}
	scigoErrors.Warn(scigoErrors.NewUnknownLabelWarning("SetValueEncoder", []string{"Q"}))
	if !strings.Contains(buf.String(), "UnknownLabelWarning") {
		t.Errorf("warning not routed to zerolog: %s", buf.String())
	}
}

func TestSetProviderWithTestProvider(t *testing.T) {
	p, buffer := NewTestLoggerProvider(LevelDebug)
	prev := SetProvider(p)
	defer SetProvider(prev)

	GetLoggerWithName("tuning.artifact").Debug("directory exists", PathKey, "results/models")
	if !p.logger.ContainsMessage("directory exists") || !p.logger.ContainsField(ComponentKey, "tuning.artifact") {
		t.Errorf("unexpected log output: %s", buffer.String())
	}

	p.logger.Clear()
	SetLevel(LevelWarn)
	GetLogger().Info("search started")
	if buffer.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %s", buffer.String())
	}
}
