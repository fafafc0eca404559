package tui

import (
	"github.com/abhisek/readgate/internal/gate"
	"github.com/abhisek/readgate/internal/qa"
)

// Messages sent by Surfaces into the program. They are delivered in the
// order the workflow made the calls.

type attachMsg struct {
	cmds  gate.Commands
	state func() gate.State
}

type showReaderMsg struct {
	view gate.ReaderView
}

type stopPlaybackMsg struct{}

type hideReaderMsg struct{}

// showQuizMsg carries a channel closed once the quiz screen is mounted.
type showQuizMsg struct {
	session qa.Session
	mounted chan struct{}
}

type hideQuizMsg struct{}

type showIntentMsg struct {
	minWords int
}

type showErrorMsg struct {
	err gate.UserError
}

type showVerdictMsg struct {
	verdict gate.Verdict
}
