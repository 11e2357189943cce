package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"chronosync/internal/authority"
)

func newTestModel() Model {
	m := NewModel(NewClient("http://localhost:0"), 0)
	mi, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return mi.(Model)
}

func TestPollUpdatesTableAndLog(t *testing.T) {
	m := newTestModel()
	mi, _ := m.Update(pollMsg{
		metrics: authority.Metrics{Mode: "normal", Attempts: 3, Successes: 2},
		status:  Status{Mode: "normal", Kind: "network", Confidence: "good"},
	})
	m = mi.(Model)
	if len(m.logs) != 1 {
		t.Fatalf("expected 1 log line, got %d", len(m.logs))
	}
	if !strings.Contains(m.logs[0], "mode=normal") {
		t.Fatalf("log line missing mode: %q", m.logs[0])
	}
	view := m.View()
	if !strings.Contains(view, "normal") {
		t.Fatalf("view missing mode:\n%s", view)
	}
}

func TestPollErrorIsLogged(t *testing.T) {
	m := newTestModel()
	mi, _ := m.Update(pollMsg{err: errFake})
	m = mi.(Model)
	if len(m.logs) != 1 || !strings.Contains(m.logs[0], "poll failed") {
		t.Fatalf("expected poll failure log, got %v", m.logs)
	}
	if m.lastErr == nil {
		t.Fatal("lastErr not recorded")
	}
}

func TestWrapToggle(t *testing.T) {
	m := newTestModel()
	if m.wrap {
		t.Fatal("wrap should start off")
	}
	mi, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'w'}})
	m = mi.(Model)
	if !m.wrap {
		t.Fatal("wrap not toggled")
	}
}

func TestScrollToggle(t *testing.T) {
	m := newTestModel()
	m.vp.Height = 1
	for _, line := range []string{"l1", "l2"} {
		m.appendLog(line)
	}
	if m.vp.YOffset != 1 {
		t.Fatalf("expected YOffset 1, got %d", m.vp.YOffset)
	}
	mi, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	m = mi.(Model)
	if m.autoscroll {
		t.Fatal("autoscroll should be off")
	}
	m.appendLog("l3")
	if m.vp.YOffset != 1 {
		t.Fatalf("expected YOffset unchanged, got %d", m.vp.YOffset)
	}
}

func TestQuitKey(t *testing.T) {
	m := newTestModel()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if msg := cmd(); msg != tea.Quit() {
		t.Fatalf("expected tea.Quit, got %v", msg)
	}
}

var errFake = errFakeType{}

type errFakeType struct{}

func (errFakeType) Error() string { return "fake failure" }
