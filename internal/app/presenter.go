package app

import tea "github.com/charmbracelet/bubbletea"

// EnterFullScreenMsg is injected when the coordinator asks for
// full-screen presentation.
type EnterFullScreenMsg struct{}

// ExitFullScreenMsg is injected when the coordinator leaves full-screen
// presentation.
type ExitFullScreenMsg struct{}

// Presenter bridges the coordinator's full-screen requests into the
// running program. Requests become messages, so the actual terminal
// changes happen on the update loop and are confirmed back through
// FullScreenChanged.
type Presenter struct {
	send func(tea.Msg)
}

// NewPresenter wraps a program's Send function.
func NewPresenter(send func(tea.Msg)) *Presenter {
	return &Presenter{send: send}
}

func (p *Presenter) EnterFullScreen() {
	p.send(EnterFullScreenMsg{})
}

func (p *Presenter) ExitFullScreen() {
	p.send(ExitFullScreenMsg{})
}
