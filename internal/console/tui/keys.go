package tui

import "github.com/charmbracelet/bubbles/key"

// appKeyMap holds the bindings that work on every panel
type appKeyMap struct {
	Subscribe key.Binding
	Publish   key.Binding
	Settings  key.Binding
	Sensors   key.Binding
	WiFi      key.Binding
	Next      key.Binding
	Prev      key.Binding
	Quit      key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k appKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k appKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Subscribe, k.Publish, k.Settings, k.Sensors, k.WiFi},
		{k.Next, k.Prev, k.Quit},
	}
}

func newAppKeyMap() appKeyMap {
	return appKeyMap{
		Subscribe: key.NewBinding(key.WithKeys("f1"), key.WithHelp("F1", "subscribe")),
		Publish:   key.NewBinding(key.WithKeys("f2"), key.WithHelp("F2", "publish")),
		Settings:  key.NewBinding(key.WithKeys("f3"), key.WithHelp("F3", "settings")),
		Sensors:   key.NewBinding(key.WithKeys("f4"), key.WithHelp("F4", "sensors")),
		WiFi:      key.NewBinding(key.WithKeys("f5"), key.WithHelp("F5", "wifi")),
		Next:      key.NewBinding(key.WithKeys("ctrl+n", "ctrl+right"), key.WithHelp("ctrl+n", "next tab")),
		Prev:      key.NewBinding(key.WithKeys("ctrl+p", "ctrl+left"), key.WithHelp("ctrl+p", "prev tab")),
		Quit:      key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// panelKeyMap lists the panel-local bindings for the footer
type panelKeyMap []key.Binding

func (k panelKeyMap) ShortHelp() []key.Binding { return k }

func (k panelKeyMap) FullHelp() [][]key.Binding { return [][]key.Binding{k} }

var (
	bindTab     = key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field"))
	bindSubmit  = key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit"))
	bindReveal  = key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "show password"))
	bindReload  = key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reload"))
	bindDelete  = key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete"))
	bindRefresh = key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh"))
	bindMove    = key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "move"))
	bindYes     = key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "confirm"))
	bindNo      = key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n/esc", "cancel"))
	bindDismiss = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss"))
	bindQuit    = key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit"))
)
