package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/modemctl/internal/deviceapi"
	"github.com/muurk/modemctl/internal/logging"
)

type settingsLoadedMsg struct {
	settings *deviceapi.BrokerSettings
	err      error
}

type settingsSavedMsg struct {
	err error
}

const (
	fieldBroker = iota
	fieldUsername
	fieldPassword
	settingsFieldCount
)

// SettingsModel is the Settings panel: broker connection form plus the
// live connection badge.
type SettingsModel struct {
	dev   Device
	after scheduler

	inputs       []textinput.Model
	focus        int
	showPassword bool

	loading bool
	saving  bool
	notice  notice
}

// NewSettingsModel creates the Settings panel model
func NewSettingsModel(dev Device, after scheduler) SettingsModel {
	broker := textinput.New()
	broker.Placeholder = "mqtt://broker.example.com:1883"
	broker.Prompt = ""
	broker.Width = 44

	username := textinput.New()
	username.Prompt = ""
	username.Width = 32

	password := textinput.New()
	password.Prompt = ""
	password.Width = 32
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	m := SettingsModel{
		dev:    dev,
		after:  after,
		inputs: []textinput.Model{broker, username, password},
	}
	m.inputs[fieldBroker].Focus()
	return m
}

// Load fetches the current broker settings
func (m *SettingsModel) Load() tea.Cmd {
	m.loading = true
	dev := m.dev
	return func() tea.Msg {
		s, err := dev.GetSettings(context.Background())
		return settingsLoadedMsg{settings: s, err: err}
	}
}

// Save validates the form and posts it. Invalid input never reaches the
// device.
func (m *SettingsModel) Save() tea.Cmd {
	if m.saving {
		return nil
	}
	settings, err := deviceapi.ValidateSettings(m.Values())
	if err != nil {
		return m.notice.show(noticeError, deviceapi.FailureMessage("failed to save settings", err), PanelSettings, settingsNoticeDuration, m.after)
	}

	m.saving = true
	dev := m.dev
	return func() tea.Msg {
		return settingsSavedMsg{err: dev.SaveSettings(context.Background(), settings)}
	}
}

// Values returns the form contents
func (m SettingsModel) Values() deviceapi.BrokerSettings {
	return deviceapi.BrokerSettings{
		Broker:   m.inputs[fieldBroker].Value(),
		Username: m.inputs[fieldUsername].Value(),
		Password: m.inputs[fieldPassword].Value(),
	}
}

// SetValues fills the form
func (m *SettingsModel) SetValues(s deviceapi.BrokerSettings) {
	m.inputs[fieldBroker].SetValue(s.Broker)
	m.inputs[fieldUsername].SetValue(s.Username)
	m.inputs[fieldPassword].SetValue(s.Password)
}

// TogglePassword switches the password field between masked and plain
func (m *SettingsModel) TogglePassword() {
	m.showPassword = !m.showPassword
	if m.showPassword {
		m.inputs[fieldPassword].EchoMode = textinput.EchoNormal
	} else {
		m.inputs[fieldPassword].EchoMode = textinput.EchoPassword
	}
}

// PasswordVisible reports whether the password is shown in clear
func (m SettingsModel) PasswordVisible() bool { return m.showPassword }

// Saving reports whether a save request is in flight
func (m SettingsModel) Saving() bool { return m.saving }

// Notice returns the panel's transient message
func (m SettingsModel) Notice() notice { return m.notice }

// Update handles Settings results and, when focused, keys
func (m SettingsModel) Update(msg tea.Msg) (SettingsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case settingsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			return m, m.notice.show(noticeError, deviceapi.FailureMessage("failed to load settings", msg.err), PanelSettings, settingsNoticeDuration, m.after)
		}
		if msg.settings != nil {
			m.SetValues(*msg.settings)
		}
		m.notice.dismiss()
		return m, nil

	case settingsSavedMsg:
		m.saving = false
		if msg.err != nil {
			logging.Warn("save settings failed", zap.Error(msg.err))
			return m, m.notice.show(noticeError, deviceapi.FailureMessage("failed to save settings", msg.err), PanelSettings, settingsNoticeDuration, m.after)
		}
		// Give the modem a moment to reconnect before re-checking
		refresh := m.after(statusRefreshDelay, func(time.Time) tea.Msg { return statusRefreshMsg{} })
		return m, tea.Batch(
			m.notice.show(noticeSuccess, "settings saved", PanelSettings, settingsNoticeDuration, m.after),
			refresh,
		)

	case clearNoticeMsg:
		m.notice.expire(msg.id)
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m SettingsModel) updateKeys(msg tea.KeyMsg) (SettingsModel, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		m.setFocus((m.focus + 1) % settingsFieldCount)
		return m, nil
	case "shift+tab", "up":
		m.setFocus((m.focus + settingsFieldCount - 1) % settingsFieldCount)
		return m, nil
	case "ctrl+t":
		m.TogglePassword()
		return m, nil
	case "ctrl+r":
		cmd := m.Load()
		return m, cmd
	case "esc":
		m.notice.dismiss()
		return m, nil
	case "enter":
		cmd := m.Save()
		return m, cmd
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *SettingsModel) setFocus(i int) {
	m.inputs[m.focus].Blur()
	m.focus = i
	m.inputs[m.focus].Focus()
}

// View renders the form with the connection badge above it
func (m SettingsModel) View(badge StatusBadge) string {
	var b strings.Builder

	b.WriteString(RenderTitle("Broker Settings"))
	b.WriteString("\n")
	b.WriteString(RenderField("Status", badge.View(), false))
	b.WriteString("\n\n")

	if m.loading {
		b.WriteString(RenderPlaceholder("loading settings…"))
		b.WriteString("\n")
	}

	labels := []string{"Broker", "Username", "Password"}
	for i, in := range m.inputs {
		value := in.View()
		if i == fieldPassword {
			hint := "ctrl+t show"
			if m.showPassword {
				hint = "ctrl+t hide"
			}
			value += SubtitleStyle.Render("  " + hint)
		}
		b.WriteString(RenderField(labels[i], value, i == m.focus))
		b.WriteString("\n")
	}

	if m.saving {
		b.WriteString("\n")
		b.WriteString(BusyStyle.Render("  saving…"))
		b.WriteString("\n")
	}

	if n := m.notice.View(); n != "" {
		b.WriteString("\n")
		b.WriteString(n)
		b.WriteString("\n")
	}

	return b.String()
}
