package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/modemctl/internal/deviceapi"
	"github.com/muurk/modemctl/internal/logging"
)

type publishResultMsg struct {
	topic string
	err   error
}

// PublishModel is the Publish panel. It keeps no device state, so entering
// it fetches nothing.
type PublishModel struct {
	dev   Device
	after scheduler

	topic   textinput.Model
	message textinput.Model
	focus   int

	publishing bool
	notice     notice
}

// NewPublishModel creates the Publish panel model
func NewPublishModel(dev Device, after scheduler) PublishModel {
	topic := textinput.New()
	topic.Placeholder = "devices/modem/cmd"
	topic.Prompt = ""
	topic.Width = 40
	topic.Focus()

	message := textinput.New()
	message.Placeholder = `{"led":"on"}`
	message.Prompt = ""
	message.Width = 60

	return PublishModel{
		dev:     dev,
		after:   after,
		topic:   topic,
		message: message,
	}
}

// Publish validates the form and posts it
func (m *PublishModel) Publish() tea.Cmd {
	if m.publishing {
		return nil
	}
	req, err := deviceapi.ValidatePublish(m.topic.Value(), m.message.Value())
	if err != nil {
		return m.notice.show(noticeError, deviceapi.FailureMessage("failed to publish message", err), PanelPublish, publishNoticeDuration, m.after)
	}

	m.publishing = true
	dev := m.dev
	return func() tea.Msg {
		return publishResultMsg{topic: req.Topic, err: dev.Publish(context.Background(), req.Topic, req.Message)}
	}
}

// SetValues fills the form
func (m *PublishModel) SetValues(topic, message string) {
	m.topic.SetValue(topic)
	m.message.SetValue(message)
}

// Publishing reports whether a publish request is in flight
func (m PublishModel) Publishing() bool { return m.publishing }

// Notice returns the panel's transient message
func (m PublishModel) Notice() notice { return m.notice }

// Update handles publish results and, when focused, keys
func (m PublishModel) Update(msg tea.Msg) (PublishModel, tea.Cmd) {
	switch msg := msg.(type) {
	case publishResultMsg:
		m.publishing = false
		if msg.err != nil {
			logging.Warn("publish failed", zap.String("topic", msg.topic), zap.Error(msg.err))
			return m, m.notice.show(noticeError, deviceapi.FailureMessage("failed to publish message", msg.err), PanelPublish, publishNoticeDuration, m.after)
		}
		return m, m.notice.show(noticeSuccess, "message published to "+msg.topic, PanelPublish, publishNoticeDuration, m.after)

	case clearNoticeMsg:
		m.notice.expire(msg.id)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			m.focus = 1 - m.focus
			if m.focus == 0 {
				m.message.Blur()
				m.topic.Focus()
			} else {
				m.topic.Blur()
				m.message.Focus()
			}
			return m, nil
		case "esc":
			m.notice.dismiss()
			return m, nil
		case "enter":
			cmd := m.Publish()
			return m, cmd
		}

		var cmd tea.Cmd
		if m.focus == 0 {
			m.topic, cmd = m.topic.Update(msg)
		} else {
			m.message, cmd = m.message.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

// View renders the Publish panel
func (m PublishModel) View() string {
	var b strings.Builder

	b.WriteString(RenderTitle("Publish"))
	b.WriteString("\n")
	b.WriteString(RenderField("Topic", m.topic.View(), m.focus == 0))
	b.WriteString("\n")
	b.WriteString(RenderField("Message", m.message.View(), m.focus == 1))
	b.WriteString("\n")

	if m.publishing {
		b.WriteString("\n")
		b.WriteString(BusyStyle.Render("  publishing…"))
		b.WriteString("\n")
	}
	if n := m.notice.View(); n != "" {
		b.WriteString("\n")
		b.WriteString(n)
		b.WriteString("\n")
	}
	return b.String()
}
