package reader

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/readgate/internal/gate"
	"github.com/abhisek/readgate/internal/policy"
	"github.com/abhisek/readgate/internal/source"
)

type fakeCommands struct {
	completed int
	err       error
}

func (f *fakeCommands) CompleteReading() error {
	f.completed++
	return f.err
}
func (f *fakeCommands) SubmitIntent(string) error { return nil }
func (f *fakeCommands) Submit([]int) error        { return nil }
func (f *fakeCommands) Close() error              { return nil }

func enter() tea.KeyPressMsg { return tea.KeyPressMsg{Code: tea.KeyEnter} }

func TestPlaybackStartsOnlyForMedia(t *testing.T) {
	article := New(gate.ReaderView{Source: source.EffectiveSource{Kind: source.KindURL, URL: "https://example.com/a", Content: "text"}}, nil)
	if article.Init() != nil || article.Playing() {
		t.Fatal("article started playback")
	}

	video := New(gate.ReaderView{Source: source.EffectiveSource{Kind: source.KindURL, URL: "https://youtube.com/watch?v=1", Platform: "youtube"}}, nil)
	if video.Init() == nil || !video.Playing() {
		t.Fatal("video did not start playback")
	}
	video.StopPlayback()
	if video.Playing() {
		t.Fatal("playback still running after StopPlayback")
	}
}

func TestEnterCompletesReadingOnce(t *testing.T) {
	cmds := &fakeCommands{err: gate.ErrBusy}
	s := New(gate.ReaderView{Source: source.EffectiveSource{Kind: source.KindSelfText, Text: "hello"}}, cmds)

	_, cmd := s.Update(enter())
	if cmd == nil {
		t.Fatal("enter did not produce a command")
	}
	if _, again := s.Update(enter()); again != nil {
		t.Fatal("second enter sent while waiting")
	}

	s.Update(cmd())
	if cmds.completed != 1 {
		t.Fatalf("CompleteReading called %d times, want 1", cmds.completed)
	}
	if !strings.Contains(s.notice, "preparing") {
		t.Fatalf("notice = %q", s.notice)
	}
	if _, retry := s.Update(enter()); retry == nil {
		t.Fatal("enter ignored after an error")
	}
}

func TestUserOnlyShowsUserText(t *testing.T) {
	s := New(gate.ReaderView{
		Source:      source.EffectiveSource{Kind: source.KindSelfText, Text: "quoted post"},
		Requirement: policy.Requirement{Required: true, QuestionCount: 1, TestMode: policy.ModeUserOnly},
		UserText:    "my long reply",
	}, nil)
	out := s.View(80, 30)
	if !strings.Contains(out, "quoted post") || !strings.Contains(out, "my long reply") {
		t.Fatalf("view missing source or user text:\n%s", out)
	}
	if !strings.Contains(out, "1 question about your text") {
		t.Fatalf("view missing requirement line:\n%s", out)
	}
}
