package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/storybox/pkg/story"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("test") }, true},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("test") }, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("test") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("got log output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	time.Sleep(10 * time.Millisecond)
	prog.done("Loaded FOREST01")

	if !strings.Contains(buf.String(), "Loaded FOREST01 (") {
		t.Errorf("progress output = %q", buf.String())
	}
}

func TestLogFindings(t *testing.T) {
	raw := &story.RawPackage{
		PackageFormat: story.FormatStudio,
		PackageID:     "LONELY",
		RawNodes:      []story.RawNode{{ID: "a"}},
	}
	g, err := story.Build(raw)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	pkg := story.NewPackage(story.PackageParams{
		ID:    "LONELY",
		Graph: g,
		Report: story.Report{Warnings: []story.Finding{{
			Kind: story.FindingMissingMedia, Node: 0, Slot: -1, Message: "stage has no media",
		}}},
	})

	var buf bytes.Buffer
	logFindings(newLogger(&buf, log.InfoLevel), pkg)
	out := buf.String()
	if !strings.Contains(out, "missing-media: node 0: stage has no media") || !strings.Contains(out, "LONELY") {
		t.Errorf("findings output = %q", out)
	}
}
