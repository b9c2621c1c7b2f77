package task

import (
	"testing"

	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/clickup"
)

func TestResolveStatusDirectMatch(t *testing.T) {
	vocab := []clickup.Status{
		{Status: "à faire", Type: "open"},
		{Status: "en cours", Type: "custom"},
		{Status: "achevée", Type: "done"},
	}

	for _, tc := range []struct {
		target DisplayStatus
		want   string
	}{
		{StatusTodo, "à faire"},
		{StatusInProgress, "en cours"},
		{StatusDone, "achevée"},
	} {
		got, err := ResolveStatus(vocab, tc.target)
		if err != nil {
			t.Fatalf("ResolveStatus(%s) failed: %v", tc.target, err)
		}
		if got.Status != tc.want {
			t.Errorf("ResolveStatus(%s) = %q, want %q", tc.target, got.Status, tc.want)
		}
	}
}

func TestResolveStatusKeywordFallback(t *testing.T) {
	vocab := []clickup.Status{
		{Status: "Open", Type: "open"},
		{Status: "In Progress", Type: "custom"},
		{Status: "Complete", Type: "done"},
	}

	got, err := ResolveStatus(vocab, StatusInProgress)
	if err != nil {
		t.Fatalf("ResolveStatus failed: %v", err)
	}
	if got.Status != "In Progress" {
		t.Errorf("got %q, want In Progress", got.Status)
	}

	got, err = ResolveStatus(vocab, StatusDone)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != "Complete" {
		t.Errorf("got %q, want Complete", got.Status)
	}
}

func TestResolveStatusDoneTypeFallback(t *testing.T) {
	vocab := []clickup.Status{
		{Status: "backlog", Type: "open"},
		{Status: "livré", Type: "done"},
	}
	got, err := ResolveStatus(vocab, StatusDone)
	if err != nil {
		t.Fatalf("ResolveStatus failed: %v", err)
	}
	if got.Status != "livré" {
		t.Errorf("got %q, want livré", got.Status)
	}
}

func TestResolveStatusFailsLoudly(t *testing.T) {
	vocab := []clickup.Status{{Status: "backlog", Type: "open"}}
	if _, err := ResolveStatus(vocab, StatusInProgress); err == nil {
		t.Fatal("expected error when nothing matches")
	}
}

func TestNormalizeStatus(t *testing.T) {
	for _, tc := range []struct {
		in   clickup.Status
		want DisplayStatus
	}{
		{clickup.Status{Status: "à faire", Type: "open"}, StatusTodo},
		{clickup.Status{Status: "en cours", Type: "custom"}, StatusInProgress},
		{clickup.Status{Status: "achevée", Type: "custom"}, StatusDone},
		{clickup.Status{Status: "whatever", Type: "closed"}, StatusDone},
		{clickup.Status{Status: "backlog", Type: "open"}, StatusTodo},
	} {
		if got := NormalizeStatus(tc.in); got != tc.want {
			t.Errorf("NormalizeStatus(%q/%s) = %s, want %s", tc.in.Status, tc.in.Type, got, tc.want)
		}
	}
}
