package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type noticeKind int

const (
	noticeNone noticeKind = iota
	noticeSuccess
	noticeError
)

// notice is a panel's single transient message slot. Success and error
// share the slot, so showing one replaces the other.
type notice struct {
	kind noticeKind
	text string
	id   int
}

// clearNoticeMsg expires the notice with the given id on a panel
type clearNoticeMsg struct {
	panel Panel
	id    int
}

func (n *notice) show(kind noticeKind, text string, panel Panel, d time.Duration, after scheduler) tea.Cmd {
	n.id++
	n.kind = kind
	n.text = text
	id := n.id
	return after(d, func(time.Time) tea.Msg {
		return clearNoticeMsg{panel: panel, id: id}
	})
}

// expire clears the slot unless a newer notice replaced the one that set
// the timer.
func (n *notice) expire(id int) {
	if id == n.id {
		n.dismiss()
	}
}

func (n *notice) dismiss() {
	n.kind = noticeNone
	n.text = ""
}

func (n notice) Text() string { return n.text }

func (n notice) IsError() bool { return n.kind == noticeError }

func (n notice) IsSuccess() bool { return n.kind == noticeSuccess }

func (n notice) View() string {
	switch n.kind {
	case noticeSuccess:
		return SuccessNoticeStyle.Render("✓ " + n.text)
	case noticeError:
		return ErrorNoticeStyle.Render("✗ " + n.text)
	default:
		return ""
	}
}
