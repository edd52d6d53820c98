package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/modemctl/internal/deviceapi"
	"github.com/muurk/modemctl/internal/logging"
)

// Narrow layouts shorten topic names longer than maxTopicDisplay to
// truncatedTopicRunes characters plus an ellipsis.
const (
	maxTopicDisplay     = 20
	truncatedTopicRunes = 17
)

type topicsLoadedMsg struct {
	seq    int
	topics []string
	err    error
}

type topicAddedMsg struct {
	topic string
	err   error
}

type topicDeletedMsg struct {
	topic string
	err   error
}

// DisplayTopic returns the label shown for a topic row. Only the label is
// shortened; the row keeps the full name for deletion.
func DisplayTopic(name string, narrow bool) string {
	if !narrow || utf8.RuneCountInString(name) <= maxTopicDisplay {
		return name
	}
	runes := []rune(name)
	return string(runes[:truncatedTopicRunes]) + "..."
}

// TopicsModel is the Subscribe panel: the device's subscription list plus
// the add form and delete confirmation.
type TopicsModel struct {
	dev   Device
	after scheduler

	input     textinput.Model
	focusList bool

	topics  []string
	cursor  int
	seq     int
	loading bool
	failed  bool

	adding   bool
	deleting bool
	// confirmTopic is the full name awaiting a yes/no answer
	confirmTopic string

	notice notice
	narrow bool
}

// NewTopicsModel creates the Subscribe panel model
func NewTopicsModel(dev Device, after scheduler) TopicsModel {
	in := textinput.New()
	in.Placeholder = "sensors/+/temperature"
	in.Prompt = ""
	in.Width = 40
	in.Focus()

	return TopicsModel{
		dev:   dev,
		after: after,
		input: in,
	}
}

// List starts a fetch of the subscription list. Responses belonging to an
// older fetch are dropped when they arrive.
func (m *TopicsModel) List() tea.Cmd {
	m.seq++
	m.loading = true
	seq, dev := m.seq, m.dev
	return func() tea.Msg {
		topics, err := dev.ListTopics(context.Background())
		return topicsLoadedMsg{seq: seq, topics: topics, err: err}
	}
}

// Add validates the input and posts it. Validation failures never reach
// the device.
func (m *TopicsModel) Add() tea.Cmd {
	if m.adding {
		return nil
	}
	topic, err := deviceapi.ValidateTopic(m.input.Value())
	if err != nil {
		return m.notice.show(noticeError, deviceapi.FailureMessage("failed to add topic", err), PanelSubscribe, topicNoticeDuration, m.after)
	}

	m.adding = true
	dev := m.dev
	return func() tea.Msg {
		return topicAddedMsg{topic: topic, err: dev.AddTopic(context.Background(), topic)}
	}
}

// RequestDelete asks for confirmation before deleting the selected topic
func (m *TopicsModel) RequestDelete() {
	if m.deleting || m.cursor >= len(m.topics) {
		return
	}
	m.confirmTopic = m.topics[m.cursor]
}

// CancelDelete closes an open confirmation without a request
func (m *TopicsModel) CancelDelete() {
	m.confirmTopic = ""
}

// Confirming reports whether a delete confirmation is open
func (m TopicsModel) Confirming() bool { return m.confirmTopic != "" }

// ConfirmDelete answers the open confirmation. Declining makes no request.
func (m *TopicsModel) ConfirmDelete(yes bool) tea.Cmd {
	topic := m.confirmTopic
	m.confirmTopic = ""
	if !yes || topic == "" || m.deleting {
		return nil
	}

	m.deleting = true
	dev := m.dev
	return func() tea.Msg {
		return topicDeletedMsg{topic: topic, err: dev.DeleteTopic(context.Background(), topic)}
	}
}

// SetWidth recomputes the narrow layout flag
func (m *TopicsModel) SetWidth(width, narrowWidth int) {
	m.narrow = width > 0 && width <= narrowWidth
}

// Update handles Subscribe results and, when focused, keys
func (m TopicsModel) Update(msg tea.Msg) (TopicsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case topicsLoadedMsg:
		if msg.seq != m.seq {
			logging.Debug("dropping superseded topic list", zap.Int("seq", msg.seq), zap.Int("current", m.seq))
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.failed = true
			m.topics = nil
			m.cursor = 0
			return m, m.notice.show(noticeError, deviceapi.FailureMessage("failed to load topics", msg.err), PanelSubscribe, topicNoticeDuration, m.after)
		}
		m.failed = false
		m.topics = msg.topics
		if m.Confirming() && !slices.Contains(m.topics, m.confirmTopic) {
			m.CancelDelete()
		}
		if m.cursor >= len(m.topics) {
			m.cursor = max(len(m.topics)-1, 0)
		}
		return m, nil

	case topicAddedMsg:
		m.adding = false
		if msg.err != nil {
			logging.Warn("add topic failed", zap.String("topic", msg.topic), zap.Error(msg.err))
			return m, m.notice.show(noticeError, deviceapi.FailureMessage("failed to add topic", msg.err), PanelSubscribe, topicNoticeDuration, m.after)
		}
		m.input.SetValue("")
		return m, tea.Batch(
			m.notice.show(noticeSuccess, fmt.Sprintf("subscribed to %s", msg.topic), PanelSubscribe, topicNoticeDuration, m.after),
			m.List(),
		)

	case topicDeletedMsg:
		m.deleting = false
		if msg.err != nil {
			logging.Warn("delete topic failed", zap.String("topic", msg.topic), zap.Error(msg.err))
			return m, m.notice.show(noticeError, deviceapi.FailureMessage("failed to delete topic", msg.err), PanelSubscribe, topicNoticeDuration, m.after)
		}
		return m, tea.Batch(
			m.notice.show(noticeSuccess, fmt.Sprintf("unsubscribed from %s", msg.topic), PanelSubscribe, topicNoticeDuration, m.after),
			m.List(),
		)

	case clearNoticeMsg:
		m.notice.expire(msg.id)
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m TopicsModel) updateKeys(msg tea.KeyMsg) (TopicsModel, tea.Cmd) {
	if m.Confirming() {
		switch msg.String() {
		case "y", "Y":
			cmd := m.ConfirmDelete(true)
			return m, cmd
		case "n", "N", "esc":
			m.ConfirmDelete(false)
		}
		return m, nil
	}

	switch msg.String() {
	case "tab", "shift+tab":
		m.focusList = !m.focusList
		if m.focusList {
			m.input.Blur()
		} else {
			m.input.Focus()
		}
		return m, nil
	case "esc":
		m.notice.dismiss()
		return m, nil
	}

	if m.focusList {
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.topics)-1 {
				m.cursor++
			}
		case "d", "delete", "x":
			m.RequestDelete()
		case "r":
			cmd := m.List()
			return m, cmd
		}
		return m, nil
	}

	if msg.String() == "enter" {
		cmd := m.Add()
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// Topics returns the last successfully fetched list
func (m TopicsModel) Topics() []string { return m.topics }

// Selected returns the full name of the highlighted row
func (m TopicsModel) Selected() string {
	if m.cursor < len(m.topics) {
		return m.topics[m.cursor]
	}
	return ""
}

// Input returns the add field's current text
func (m TopicsModel) Input() string { return m.input.Value() }

// SetInput replaces the add field's text
func (m *TopicsModel) SetInput(s string) { m.input.SetValue(s) }

// Adding reports whether an add request is in flight
func (m TopicsModel) Adding() bool { return m.adding }

// Deleting reports whether a delete request is in flight
func (m TopicsModel) Deleting() bool { return m.deleting }

// Notice returns the panel's transient message
func (m TopicsModel) Notice() notice { return m.notice }

// View renders the Subscribe panel
func (m TopicsModel) View() string {
	var b strings.Builder

	b.WriteString(RenderTitle("Subscriptions"))
	b.WriteString("\n")

	switch {
	case m.loading && len(m.topics) == 0 && !m.failed:
		b.WriteString(RenderPlaceholder("loading…"))
		b.WriteString("\n")
	case m.failed:
		b.WriteString(RenderPlaceholder("could not load topics"))
		b.WriteString("\n")
	case len(m.topics) == 0:
		b.WriteString(RenderPlaceholder("no topics"))
		b.WriteString("\n")
	default:
		for i, t := range m.topics {
			label := fmt.Sprintf("%2d  %s", i+1, DisplayTopic(t, m.narrow))
			if m.focusList && i == m.cursor {
				b.WriteString(SelectedRowStyle.Render("→ " + label))
			} else {
				b.WriteString("  " + label)
			}
			b.WriteString("\n")
		}
		b.WriteString(RenderSubtitle(fmt.Sprintf("  %d of %d topics", len(m.topics), deviceapi.MaxTopics)))
		b.WriteString("\n")
		if m.focusList && m.narrow {
			if sel := m.Selected(); sel != DisplayTopic(sel, true) {
				b.WriteString(RenderSubtitle("  " + sel))
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("\n")
	addLabel := m.input.View()
	if m.adding {
		addLabel += BusyStyle.Render("  adding…")
	}
	b.WriteString(RenderField("Add topic", addLabel, !m.focusList))
	b.WriteString("\n")
	if m.deleting {
		b.WriteString(BusyStyle.Render("  deleting…"))
		b.WriteString("\n")
	}

	if n := m.notice.View(); n != "" {
		b.WriteString("\n")
		b.WriteString(n)
		b.WriteString("\n")
	}

	return b.String()
}

// ConfirmView renders the delete confirmation dialog
func (m TopicsModel) ConfirmView() string {
	return fmt.Sprintf("Unsubscribe from\n\n  %s\n\n[y] yes   [n] no", m.confirmTopic)
}
