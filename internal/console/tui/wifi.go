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

type networkModeMsg struct {
	mode deviceapi.NetworkMode
	err  error
}

type wifiSavedMsg struct {
	message string
	err     error
}

// wifiRefetchMsg re-reads the network mode once the save notice has run
type wifiRefetchMsg struct{}

// WiFiModel is the WiFi station panel: the current uplink and a form to
// join a network.
type WiFiModel struct {
	dev   Device
	after scheduler

	mode      deviceapi.NetworkMode
	modeKnown bool
	modeErr   error

	ssid         textinput.Model
	password     textinput.Model
	focus        int
	showPassword bool

	saving bool
	notice notice
}

// NewWiFiModel creates the WiFi panel model
func NewWiFiModel(dev Device, after scheduler) WiFiModel {
	ssid := textinput.New()
	ssid.Prompt = ""
	ssid.CharLimit = 32
	ssid.Width = 32
	ssid.Focus()

	password := textinput.New()
	password.Prompt = ""
	password.CharLimit = 63
	password.Width = 32
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return WiFiModel{
		dev:      dev,
		after:    after,
		ssid:     ssid,
		password: password,
	}
}

// FetchMode reads the modem's current uplink
func (m *WiFiModel) FetchMode() tea.Cmd {
	dev := m.dev
	return func() tea.Msg {
		mode, err := dev.GetNetworkMode(context.Background())
		return networkModeMsg{mode: mode, err: err}
	}
}

// Save validates and posts the station credentials
func (m *WiFiModel) Save() tea.Cmd {
	if m.saving {
		return nil
	}
	station, err := deviceapi.ValidateWiFiStation(deviceapi.WiFiStation{
		SSID:     m.ssid.Value(),
		Password: m.password.Value(),
	})
	if err != nil {
		return m.notice.show(noticeError, deviceapi.FailureMessage("failed to save WiFi settings", err), PanelWiFi, wifiNoticeDuration, m.after)
	}

	m.saving = true
	dev := m.dev
	return func() tea.Msg {
		message, err := dev.SaveWiFiStation(context.Background(), station)
		return wifiSavedMsg{message: message, err: err}
	}
}

// SetValues fills the form
func (m *WiFiModel) SetValues(ssid, password string) {
	m.ssid.SetValue(ssid)
	m.password.SetValue(password)
}

// TogglePassword switches the password field between masked and plain
func (m *WiFiModel) TogglePassword() {
	m.showPassword = !m.showPassword
	if m.showPassword {
		m.password.EchoMode = textinput.EchoNormal
	} else {
		m.password.EchoMode = textinput.EchoPassword
	}
}

// Mode returns the last fetched uplink and whether one is known
func (m WiFiModel) Mode() (deviceapi.NetworkMode, bool) { return m.mode, m.modeKnown }

// Saving reports whether a save request is in flight
func (m WiFiModel) Saving() bool { return m.saving }

// Notice returns the panel's transient message
func (m WiFiModel) Notice() notice { return m.notice }

// Update handles WiFi results and, when focused, keys
func (m WiFiModel) Update(msg tea.Msg) (WiFiModel, tea.Cmd) {
	switch msg := msg.(type) {
	case networkModeMsg:
		m.modeErr = msg.err
		if msg.err == nil {
			m.mode = msg.mode
			m.modeKnown = true
		}
		return m, nil

	case wifiSavedMsg:
		m.saving = false
		refetch := m.after(wifiNoticeDuration, func(time.Time) tea.Msg { return wifiRefetchMsg{} })
		if msg.err != nil {
			logging.Warn("save WiFi station failed", zap.Error(msg.err))
			return m, tea.Batch(
				m.notice.show(noticeError, deviceapi.FailureMessage("failed to save WiFi settings", msg.err), PanelWiFi, wifiNoticeDuration, m.after),
				refetch,
			)
		}
		text := msg.message
		if text == "" {
			text = "WiFi settings saved"
		}
		return m, tea.Batch(
			m.notice.show(noticeSuccess, text, PanelWiFi, wifiNoticeDuration, m.after),
			refetch,
		)

	case wifiRefetchMsg:
		return m, m.FetchMode()

	case clearNoticeMsg:
		m.notice.expire(msg.id)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			m.focus = 1 - m.focus
			if m.focus == 0 {
				m.password.Blur()
				m.ssid.Focus()
			} else {
				m.ssid.Blur()
				m.password.Focus()
			}
			return m, nil
		case "ctrl+t":
			m.TogglePassword()
			return m, nil
		case "esc":
			m.notice.dismiss()
			return m, nil
		case "enter":
			cmd := m.Save()
			return m, cmd
		}

		var cmd tea.Cmd
		if m.focus == 0 {
			m.ssid, cmd = m.ssid.Update(msg)
		} else {
			m.password, cmd = m.password.Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

// View renders the WiFi panel
func (m WiFiModel) View() string {
	var b strings.Builder

	b.WriteString(RenderTitle("WiFi Station"))
	b.WriteString("\n")

	mode := PlaceholderStyle.Render("checking…")
	switch {
	case m.modeKnown:
		mode = m.mode.String()
	case m.modeErr != nil:
		mode = ErrorNoticeStyle.Render(deviceapi.GetShortErrorMessage(m.modeErr))
	}
	b.WriteString(RenderField("Uplink", mode, false))
	b.WriteString("\n\n")

	b.WriteString(RenderField("SSID", m.ssid.View(), m.focus == 0))
	b.WriteString("\n")
	hint := "ctrl+t show"
	if m.showPassword {
		hint = "ctrl+t hide"
	}
	b.WriteString(RenderField("Password", m.password.View()+SubtitleStyle.Render("  "+hint), m.focus == 1))
	b.WriteString("\n")

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
