package tui

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/modemctl/internal/discovery"
)

// ScanFunc browses the network for modems
type ScanFunc func() ([]*discovery.Device, error)

type scanCompleteMsg struct {
	devices []*discovery.Device
	err     error
}

// pickerKeyMap defines key bindings for the device picker
type pickerKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Rescan key.Binding
	Manual key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k pickerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Rescan, k.Manual, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k pickerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter},
		{k.Rescan, k.Manual, k.Quit},
	}
}

// deviceItem wraps a Device for use with bubbles/list
type deviceItem struct {
	device *discovery.Device
}

func (d deviceItem) FilterValue() string {
	return d.device.Name + " " + d.device.IP + " " + d.device.Hostname
}

func (d deviceItem) Title() string { return d.device.Name }

func (d deviceItem) Description() string { return d.device.Address() }

// deviceDelegate renders one device per two-line row
type deviceDelegate struct{}

func (d deviceDelegate) Height() int { return 2 }

func (d deviceDelegate) Spacing() int { return 1 }

func (d deviceDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d deviceDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(deviceItem)
	if !ok {
		return
	}
	dev := it.device

	name := dev.Name
	if dev.IsEmulator() {
		name += SubtitleStyle.Render(" (emulator)")
	}
	details := dev.Address()
	if fw := dev.GetMetadata("firmware"); fw != "" {
		details += " • firmware " + fw
	}

	if index == m.Index() {
		fmt.Fprint(w, SelectedRowStyle.Render("→ "+name)+"\n  "+SubtitleStyle.Render(details))
		return
	}
	fmt.Fprint(w, "  "+name+"\n  "+SubtitleStyle.Render(details))
}

// PickerModel lets the user choose a modem from an mDNS scan or enter an
// address by hand.
type PickerModel struct {
	scan ScanFunc

	Scanning   bool
	DeviceList list.Model
	Err        error
	selected   *discovery.Device

	ManualMode bool
	AddrInput  textinput.Model

	Width   int
	Height  int
	Spinner spinner.Model
	Help    help.Model
	Keys    pickerKeyMap
}

// NewPickerModel creates a picker that scans with scan
func NewPickerModel(scan ScanFunc) PickerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	addr := textinput.New()
	addr.Placeholder = "192.168.4.1 or 192.168.4.1:8080"
	addr.Width = 30

	deviceList := list.New([]list.Item{}, deviceDelegate{}, 0, 0)
	deviceList.Title = "Modems"
	deviceList.SetShowStatusBar(false)
	deviceList.SetShowHelp(false)
	deviceList.SetFilteringEnabled(false)
	deviceList.Styles.Title = TitleStyle

	return PickerModel{
		scan:       scan,
		DeviceList: deviceList,
		AddrInput:  addr,
		Spinner:    s,
		Help:       help.New(),
		Keys: pickerKeyMap{
			Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "move up")),
			Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "move down")),
			Enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "connect")),
			Rescan: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rescan")),
			Manual: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "enter address")),
			Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
		},
	}
}

// Init starts the first scan
func (m PickerModel) Init() tea.Cmd {
	return tea.Batch(m.runScan(), m.Spinner.Tick)
}

func (m PickerModel) runScan() tea.Cmd {
	scan := m.scan
	return func() tea.Msg {
		devices, err := scan()
		return scanCompleteMsg{devices: devices, err: err}
	}
}

// Update handles messages and updates the model
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.DeviceList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case scanCompleteMsg:
		m.Scanning = false
		m.Err = msg.err
		items := make([]list.Item, len(msg.devices))
		for i, dev := range msg.devices {
			items[i] = deviceItem{device: dev}
		}
		return m, m.DeviceList.SetItems(items)

	case spinner.TickMsg:
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.ManualMode {
			return m.updateManualMode(msg)
		}
		return m.updateNormalMode(msg)
	}

	return m, nil
}

func (m PickerModel) updateNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Enter):
		if it, ok := m.DeviceList.SelectedItem().(deviceItem); ok {
			m.selected = it.device
			return m, tea.Quit
		}
		return m, nil

	case key.Matches(msg, m.Keys.Rescan):
		if m.Scanning {
			return m, nil
		}
		m.Scanning = true
		m.Err = nil
		return m, tea.Batch(m.DeviceList.SetItems(nil), m.runScan(), m.Spinner.Tick)

	case key.Matches(msg, m.Keys.Manual):
		m.ManualMode = true
		m.AddrInput.SetValue("")
		return m, m.AddrInput.Focus()
	}

	var cmd tea.Cmd
	m.DeviceList, cmd = m.DeviceList.Update(msg)
	return m, cmd
}

func (m PickerModel) updateManualMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.ManualMode = false
		m.AddrInput.Blur()
		m.Err = nil
		return m, nil

	case "enter":
		dev, err := ManualDevice(m.AddrInput.Value())
		if err != nil {
			m.Err = err
			return m, nil
		}
		m.selected = dev
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.AddrInput, cmd = m.AddrInput.Update(msg)
	return m, cmd
}

// ManualDevice builds a device from "host" or "host:port"
func ManualDevice(addr string) (*discovery.Device, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("address required")
	}

	host, port := addr, discovery.DefaultPort
	if h, p, err := net.SplitHostPort(addr); err == nil {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 || n > 65535 {
			return nil, fmt.Errorf("invalid port %q", p)
		}
		host, port = h, n
	}

	return &discovery.Device{
		Name:         host,
		Hostname:     host,
		IP:           host,
		Port:         port,
		DiscoveredAt: time.Now(),
	}, nil
}

// Selected returns the chosen device, or nil if the user quit
func (m PickerModel) Selected() *discovery.Device { return m.selected }

// View renders the picker
func (m PickerModel) View() string {
	var b strings.Builder

	switch {
	case m.ManualMode:
		b.WriteString(RenderSubtitle("Enter modem address"))
		b.WriteString("\n\n  Address: ")
		b.WriteString(m.AddrInput.View())
		b.WriteString("\n")
		if m.Err != nil {
			b.WriteString("\n")
			b.WriteString(ErrorNoticeStyle.Render("✗ " + m.Err.Error()))
			b.WriteString("\n")
		}
	case m.Scanning:
		b.WriteString(fmt.Sprintf("\n  %s Searching for modems…\n", m.Spinner.View()))
	case m.Err != nil:
		b.WriteString(ErrorNoticeStyle.Render(fmt.Sprintf("✗ Scan failed: %v", m.Err)))
		b.WriteString("\n\n  Press m to enter an address or r to rescan.\n")
	case len(m.DeviceList.Items()) == 0:
		b.WriteString(lipgloss.NewStyle().Foreground(WarningColor).Bold(true).Render("⚠ No modems found"))
		b.WriteString("\n\n")
		b.WriteString("  • Check the modem is powered and on this network\n")
		b.WriteString("  • mDNS (UDP 5353) must not be blocked\n")
		b.WriteString("  • Press m to enter an address by hand\n")
	default:
		b.WriteString(m.DeviceList.View())
	}

	return RenderApplicationContainer(BuildHeaderContent("device selection"), b.String(), m.Help.View(m.Keys), m.Width, m.Height)
}

// Pick runs the picker full-screen and returns the chosen device, or nil
// if the user quit without choosing.
func Pick(scan ScanFunc) (*discovery.Device, error) {
	m := NewPickerModel(scan)
	m.Scanning = true
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return nil, err
	}
	return final.(PickerModel).Selected(), nil
}
