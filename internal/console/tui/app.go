package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/muurk/modemctl/internal/logging"
)

// Panel is one tab of the console. Exactly one panel is active at a time.
type Panel int

const (
	PanelSubscribe Panel = iota
	PanelPublish
	PanelSettings
	PanelSensors
	PanelWiFi
)

// Panels lists every panel in tab order
var Panels = []Panel{PanelSubscribe, PanelPublish, PanelSettings, PanelSensors, PanelWiFi}

// String returns the tab label
func (p Panel) String() string {
	switch p {
	case PanelSubscribe:
		return "Subscribe"
	case PanelPublish:
		return "Publish"
	case PanelSettings:
		return "Settings"
	case PanelSensors:
		return "Sensors"
	case PanelWiFi:
		return "WiFi"
	default:
		return fmt.Sprintf("Panel(%d)", int(p))
	}
}

// TabState is the rendering state of one tab
type TabState struct {
	Panel  Panel
	Active bool
}

// TabStates returns the tab bar for the given active panel. Exactly one
// entry is active.
func TabStates(active Panel) []TabState {
	states := make([]TabState, len(Panels))
	for i, p := range Panels {
		states[i] = TabState{Panel: p, Active: p == active}
	}
	return states
}

// Options configures the console
type Options struct {
	// Address is shown in the header, e.g. "192.168.4.1:80"
	Address string

	PollInterval   time.Duration
	SensorInterval time.Duration

	// NarrowWidth is the terminal width at or below which long topic
	// names are shortened
	NarrowWidth int
}

// selectPanelMsg switches tabs
type selectPanelMsg struct {
	panel Panel
}

// SelectPanel returns a message that switches the console to p
func SelectPanel(p Panel) tea.Msg { return selectPanelMsg{panel: p} }

// AppModel is the top-level console model. It owns the panel state
// machine and the lifecycles of the status poller and sensor watch.
type AppModel struct {
	active Panel

	topics   TopicsModel
	publish  PublishModel
	settings SettingsModel
	sensors  SensorsModel
	wifi     WiFiModel
	poller   Poller

	address     string
	narrowWidth int

	Width  int
	Height int

	help     help.Model
	keys     appKeyMap
	quitting bool
}

// NewAppModel creates the console on the Subscribe panel
func NewAppModel(dev Device, opts Options) AppModel {
	return newAppModel(dev, opts, tea.Tick)
}

func newAppModel(dev Device, opts Options, after scheduler) AppModel {
	if opts.NarrowWidth <= 0 {
		opts.NarrowWidth = DefaultNarrowWidth
	}

	m := AppModel{
		active:      PanelSubscribe,
		topics:      NewTopicsModel(dev, after),
		publish:     NewPublishModel(dev, after),
		settings:    NewSettingsModel(dev, after),
		sensors:     NewSensorsModel(dev, opts.SensorInterval, after),
		wifi:        NewWiFiModel(dev, after),
		poller:      NewPoller(dev, opts.PollInterval, after),
		address:     opts.Address,
		narrowWidth: opts.NarrowWidth,
		help:        help.New(),
		keys:        newAppKeyMap(),
	}
	return m
}

// Init enters the initial panel
func (m AppModel) Init() tea.Cmd {
	return func() tea.Msg { return initialLoadMsg{} }
}

// initialLoadMsg triggers the Subscribe fetch once the program is running
type initialLoadMsg struct{}

// Active returns the active panel
func (m AppModel) Active() Panel { return m.active }

// Poller exposes the status poller
func (m AppModel) Poller() Poller { return m.poller }

// Topics exposes the Subscribe panel model
func (m AppModel) Topics() TopicsModel { return m.topics }

// Settings exposes the Settings panel model
func (m AppModel) Settings() SettingsModel { return m.settings }

// Publish exposes the Publish panel model
func (m AppModel) Publish() PublishModel { return m.publish }

// Sensors exposes the Sensors panel model
func (m AppModel) Sensors() SensorsModel { return m.sensors }

// WiFi exposes the WiFi panel model
func (m AppModel) WiFi() WiFiModel { return m.wifi }

// Update routes messages. Results always reach their panel's model, even
// when that panel is no longer on screen.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.help.Width = msg.Width
		if m.active == PanelSubscribe {
			m.topics.SetWidth(m.Width, m.narrowWidth)
		}
		return m, nil

	case initialLoadMsg:
		m.topics.SetWidth(m.Width, m.narrowWidth)
		return m, m.topics.List()

	case selectPanelMsg:
		return m.selectPanel(msg.panel)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		if msg.source == tickSensors {
			m.sensors, cmd = m.sensors.Update(msg)
			return m, cmd
		}
		return m, m.poller.Update(msg)

	case statusResultMsg, statusRefreshMsg:
		return m, m.poller.Update(msg)

	case topicsLoadedMsg, topicAddedMsg, topicDeletedMsg:
		m.topics, cmd = m.topics.Update(msg)
		return m, cmd

	case publishResultMsg:
		m.publish, cmd = m.publish.Update(msg)
		return m, cmd

	case settingsLoadedMsg, settingsSavedMsg:
		m.settings, cmd = m.settings.Update(msg)
		return m, cmd

	case sensorResultMsg:
		m.sensors, cmd = m.sensors.Update(msg)
		return m, cmd

	case networkModeMsg, wifiSavedMsg, wifiRefetchMsg:
		m.wifi, cmd = m.wifi.Update(msg)
		return m, cmd

	case clearNoticeMsg:
		return m.routeToPanel(msg.panel, msg)
	}

	return m, nil
}

func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m.quit()
	}
	// The delete confirmation is modal: only its own answers get through
	if m.active == PanelSubscribe && m.topics.Confirming() {
		return m.routeToPanel(PanelSubscribe, msg)
	}

	switch {
	case key.Matches(msg, m.keys.Subscribe):
		return m.selectPanel(PanelSubscribe)
	case key.Matches(msg, m.keys.Publish):
		return m.selectPanel(PanelPublish)
	case key.Matches(msg, m.keys.Settings):
		return m.selectPanel(PanelSettings)
	case key.Matches(msg, m.keys.Sensors):
		return m.selectPanel(PanelSensors)
	case key.Matches(msg, m.keys.WiFi):
		return m.selectPanel(PanelWiFi)
	case key.Matches(msg, m.keys.Next):
		return m.selectPanel(Panels[(int(m.active)+1)%len(Panels)])
	case key.Matches(msg, m.keys.Prev):
		return m.selectPanel(Panels[(int(m.active)+len(Panels)-1)%len(Panels)])
	}

	// Sensors has no text fields, so a bare q is safe to take there
	if m.active == PanelSensors && key.Matches(msg, bindQuit) {
		return m.quit()
	}
	return m.routeToPanel(m.active, msg)
}

func (m AppModel) routeToPanel(p Panel, msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch p {
	case PanelSubscribe:
		m.topics, cmd = m.topics.Update(msg)
	case PanelPublish:
		m.publish, cmd = m.publish.Update(msg)
	case PanelSettings:
		m.settings, cmd = m.settings.Update(msg)
	case PanelSensors:
		m.sensors, cmd = m.sensors.Update(msg)
	case PanelWiFi:
		m.wifi, cmd = m.wifi.Update(msg)
	}
	return m, cmd
}

// selectPanel performs a tab transition. Selecting the active panel does
// nothing; leaving Settings stops the status poller and leaving Sensors
// stops the sensor watch.
func (m AppModel) selectPanel(target Panel) (AppModel, tea.Cmd) {
	if target == m.active {
		return m, nil
	}

	switch m.active {
	case PanelSubscribe:
		m.topics.CancelDelete()
	case PanelSettings:
		m.poller.Stop()
	case PanelSensors:
		m.sensors.Stop()
	}

	logging.Debug("panel change", zap.Stringer("from", m.active), zap.Stringer("to", target))
	m.active = target

	var cmd tea.Cmd
	switch target {
	case PanelSubscribe:
		m.topics.SetWidth(m.Width, m.narrowWidth)
		cmd = m.topics.List()
	case PanelSettings:
		cmd = tea.Batch(m.settings.Load(), m.poller.Start())
	case PanelSensors:
		cmd = m.sensors.Start()
	case PanelWiFi:
		cmd = m.wifi.FetchMode()
	}
	return m, cmd
}

func (m AppModel) quit() (AppModel, tea.Cmd) {
	m.poller.Stop()
	m.sensors.Stop()
	m.quitting = true
	return m, tea.Quit
}

// View renders the active panel inside the application frame
func (m AppModel) View() string {
	if m.quitting {
		return ""
	}

	width, height := m.Width, m.Height
	if width == 0 {
		width = DefaultNarrowWidth
	}
	if height == 0 {
		height = 24
	}

	if m.active == PanelSubscribe && m.topics.Confirming() {
		return RenderModal(m.topics.ConfirmView()+"\n\n"+m.help.View(panelKeyMap{bindYes, bindNo}), width, height)
	}

	var body string
	switch m.active {
	case PanelSubscribe:
		body = m.topics.View()
	case PanelPublish:
		body = m.publish.View()
	case PanelSettings:
		body = m.settings.View(m.poller.Badge())
	case PanelSensors:
		body = m.sensors.View()
	case PanelWiFi:
		body = m.wifi.View()
	}

	content := lipgloss.JoinVertical(lipgloss.Left, renderTabs(m.active), "", body)
	footer := m.help.View(m.panelKeys()) + "\n" + m.help.View(m.keys)
	return RenderApplicationContainer(BuildHeaderContent(m.address), content, footer, width, height)
}

func (m AppModel) panelKeys() panelKeyMap {
	switch m.active {
	case PanelSubscribe:
		if m.topics.focusList {
			return panelKeyMap{bindMove, bindDelete, bindRefresh, bindTab}
		}
		return panelKeyMap{bindSubmit, bindTab, bindDismiss}
	case PanelSettings:
		return panelKeyMap{bindSubmit, bindTab, bindReveal, bindReload}
	case PanelSensors:
		return panelKeyMap{bindRefresh, bindQuit}
	case PanelWiFi:
		return panelKeyMap{bindSubmit, bindTab, bindReveal}
	default:
		return panelKeyMap{bindSubmit, bindTab, bindDismiss}
	}
}

func renderTabs(active Panel) string {
	tabs := make([]string, 0, len(Panels))
	for i, t := range TabStates(active) {
		label := fmt.Sprintf("F%d %s", i+1, t.Panel)
		if t.Active {
			tabs = append(tabs, ActiveTabStyle.Render(label))
		} else {
			tabs = append(tabs, InactiveTabStyle.Render(label))
		}
	}
	return strings.Join(tabs, " ")
}

// Run starts the console full-screen and blocks until the user quits
func Run(dev Device, opts Options) error {
	p := tea.NewProgram(NewAppModel(dev, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
