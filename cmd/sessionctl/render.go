package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/charmbracelet/lipgloss"
)

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(12)

	authStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	unauthStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)
)

type snapshotView struct {
	State     string    `json:"state"`
	Identity  string    `json:"identity,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	Loading   bool      `json:"loading"`
	Version   uint64    `json:"version"`
	At        time.Time `json:"at"`
}

func viewOf(s goSession.Snapshot) snapshotView {
	v := snapshotView{
		State:    s.State.String(),
		Identity: s.Identity(),
		Loading:  s.Loading,
		Version:  s.Version,
		At:       s.At,
	}
	if s.Session != nil {
		v.ExpiresAt = s.Session.ExpiresAt
	}
	return v
}

func writeJSON(w io.Writer, s goSession.Snapshot) error {
	return json.NewEncoder(w).Encode(viewOf(s))
}

// renderSnapshot formats s as an aligned block for a terminal.
func renderSnapshot(s goSession.Snapshot) string {
	var state string
	switch {
	case s.Loading:
		state = pendingStyle.Render(s.State.String() + " (loading)")
	case s.Authenticated():
		state = authStyle.Render(s.State.String())
	default:
		state = unauthStyle.Render(s.State.String())
	}

	rows := []string{row("state", state)}
	if s.Session != nil {
		rows = append(rows,
			row("identity", s.Identity()),
			row("expires", fmt.Sprintf("%s (in %s)", s.Session.ExpiresAt.Local().Format(time.RFC3339),
				time.Until(s.Session.ExpiresAt).Round(time.Second))),
		)
	}
	rows = append(rows, row("version", fmt.Sprintf("%d", s.Version)))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), strings.TrimSpace(value))
}
