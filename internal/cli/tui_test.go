package cli

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/storybox/internal/testsupport"
	"github.com/matzehuels/storybox/pkg/loader"
)

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func TestWalkModel(t *testing.T) {
	dir := testsupport.WriteForestStudio(t, t.TempDir())
	pkg, err := loader.New(loader.Options{}).Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	var m tea.Model = NewWalkModel(pkg)
	steps := []struct {
		key   string
		stage string
	}{
		{"enter", "Fox"},
		{"right", "Owl"},
		{"right", "Fox"},
		{"left", "Owl"},
		{"enter", "Cover"},
		{"enter", "Fox"},
		{"h", "Cover"},
		{"enter", "Fox"},
		{"r", "Cover"},
	}
	for i, s := range steps {
		m, _ = m.Update(keyMsg(s.key))
		wm := m.(WalkModel)
		if wm.err != nil {
			t.Fatalf("step %d (%s): %v", i, s.key, wm.err)
		}
		if got := wm.walker.Stage().Name; got != s.stage {
			t.Fatalf("step %d (%s): stage = %s, want %s", i, s.key, got, s.stage)
		}
	}

	view := m.View()
	for _, want := range []string{"The Forest", "Cover", "cover.png", "9 steps"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestWalkModelQuit(t *testing.T) {
	dir := testsupport.WriteForestStudio(t, t.TempDir())
	pkg, err := loader.New(loader.Options{}).Load(context.Background(), dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	_, cmd := NewWalkModel(pkg).Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("q should return a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}
