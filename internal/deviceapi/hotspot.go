package deviceapi

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Access point endpoints. They are older than the MQTT API: replies carry
// a "status":"200" string instead of the success envelope, and client
// management answers with an empty body.
const (
	PathHotspot       = "/wlan_general"
	PathHotspotRadio  = "/wlan_advance"
	PathStations      = "/system/station_state"
	PathStationKick   = "/system/station_state/delete_device"
	PathStationRename = "/system/station_state/change_name"
)

// Access point auth modes, spelled as the firmware spells them
const (
	AuthOpen    = "OPEN"
	AuthWEP     = "WEP"
	AuthWPA2    = "WAP2_PSK"
	AuthWPAWPA2 = "WPA_WPA2_PSK"
)

// AuthModes lists the accepted auth modes
var AuthModes = []string{AuthOpen, AuthWEP, AuthWPA2, AuthWPAWPA2}

// Firmware buffer limits for the access point and client names
const (
	MaxHotspotSSID     = 31
	MaxHotspotPassword = 63
	MaxStationName     = 35
)

const hotspotStatusOK = "200"

// Hotspot is the modem's own access point
type Hotspot struct {
	SSID     string `json:"ssid"`
	Hidden   bool   `json:"hidden"`
	AuthMode string `json:"auth_mode"`
	Password string `json:"password"`
}

// HotspotReply is the body of /wlan_general in both directions. Every
// field is a string; the firmware spells a visible SSID "flase", so
// anything but "true" reads as visible.
type HotspotReply struct {
	Status   string `json:"status,omitempty"`
	SSID     string `json:"ssid"`
	HideSSID string `json:"if_hide_ssid"`
	AuthMode string `json:"auth_mode"`
	Password string `json:"password"`
}

// NewHotspotReply encodes h in the firmware's layout
func NewHotspotReply(h Hotspot) HotspotReply {
	return HotspotReply{
		SSID:     h.SSID,
		HideSSID: strconv.FormatBool(h.Hidden),
		AuthMode: h.AuthMode,
		Password: h.Password,
	}
}

// Hotspot decodes the reply
func (r HotspotReply) Hotspot() Hotspot {
	return Hotspot{
		SSID:     r.SSID,
		Hidden:   r.HideSSID == "true",
		AuthMode: r.AuthMode,
		Password: r.Password,
	}
}

// HotspotRadio is the access point's channel plan
type HotspotRadio struct {
	Bandwidth int `json:"bandwidth"` // MHz, 20 or 40
	Channel   int `json:"channel"`
}

// HotspotRadioReply is the body of /wlan_advance in both directions
type HotspotRadioReply struct {
	Status    string `json:"status,omitempty"`
	Bandwidth string `json:"bandwidth"`
	Channel   string `json:"channel"`
}

// NewHotspotRadioReply encodes r in the firmware's layout
func NewHotspotRadioReply(r HotspotRadio) HotspotRadioReply {
	return HotspotRadioReply{
		Bandwidth: strconv.Itoa(r.Bandwidth),
		Channel:   strconv.Itoa(r.Channel),
	}
}

// Radio decodes the reply
func (r HotspotRadioReply) Radio() (HotspotRadio, error) {
	bw, err := strconv.Atoi(r.Bandwidth)
	if err != nil {
		return HotspotRadio{}, fmt.Errorf("bandwidth %q: %w", r.Bandwidth, err)
	}
	ch, err := strconv.Atoi(r.Channel)
	if err != nil {
		return HotspotRadio{}, fmt.Errorf("channel %q: %w", r.Channel, err)
	}
	return HotspotRadio{Bandwidth: bw, Channel: ch}, nil
}

// Station is a client associated with the access point
type Station struct {
	Name      string        `json:"name"`
	MAC       string        `json:"mac"`
	IP        string        `json:"ip"`
	Connected time.Duration `json:"-"`
}

// StationEntry is one element of the station list. OnlineSince is the
// association time in microseconds since boot, despite the field name.
type StationEntry struct {
	Name        string `json:"name_str"`
	MAC         string `json:"mac_str"`
	IP          string `json:"ip_str"`
	OnlineSince string `json:"online_time_s"`
}

// StationListReply is the body of GET /system/station_state. Now is the
// device uptime in microseconds.
type StationListReply struct {
	Stations []StationEntry `json:"station_list"`
	Now      string         `json:"now_time"`
}

// Decode converts the list, measuring connection times against Now
func (r StationListReply) Decode() ([]Station, error) {
	now, err := strconv.ParseInt(r.Now, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("now_time %q: %w", r.Now, err)
	}
	stations := make([]Station, 0, len(r.Stations))
	for _, e := range r.Stations {
		since, err := strconv.ParseInt(e.OnlineSince, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("online_time_s %q: %w", e.OnlineSince, err)
		}
		st := Station{Name: e.Name, MAC: e.MAC, IP: e.IP}
		if now > since {
			st.Connected = time.Duration(now-since) * time.Microsecond
		}
		stations = append(stations, st)
	}
	return stations, nil
}

// StationRequest names a client by MAC for kick and rename
type StationRequest struct {
	Name string `json:"name_str,omitempty"`
	MAC  string `json:"mac_str"`
}

// ValidateHotspot trims the SSID and checks every field against what the
// firmware stores
func ValidateHotspot(h Hotspot) (Hotspot, error) {
	h.SSID = strings.TrimSpace(h.SSID)
	if h.SSID == "" {
		return h, NewValidationError("hotspot SSID required")
	}
	if len(h.SSID) > MaxHotspotSSID {
		return h, NewValidationError(fmt.Sprintf("hotspot SSID too long (max %d chars): %d chars", MaxHotspotSSID, len(h.SSID)))
	}

	mode := strings.ToUpper(strings.TrimSpace(h.AuthMode))
	switch mode {
	case AuthOpen:
		h.Password = ""
	case AuthWEP:
		if n := len(h.Password); n != 5 && n != 13 {
			return h, NewValidationError(fmt.Sprintf("WEP key must be 5 or 13 chars: %d chars", n))
		}
	case AuthWPA2, AuthWPAWPA2:
		if len(h.Password) < 8 {
			return h, NewValidationError(fmt.Sprintf("hotspot password too short (min 8 chars): %d chars", len(h.Password)))
		}
		if len(h.Password) > MaxHotspotPassword {
			return h, NewValidationError(fmt.Sprintf("hotspot password too long (max %d chars): %d chars", MaxHotspotPassword, len(h.Password)))
		}
	default:
		return h, NewValidationError(fmt.Sprintf("unknown auth mode %q (use %s)", h.AuthMode, strings.Join(AuthModes, ", ")))
	}
	h.AuthMode = mode
	return h, nil
}

// ValidateHotspotRadio accepts 20 or 40 MHz on channels 1-13
func ValidateHotspotRadio(r HotspotRadio) error {
	if r.Bandwidth != 20 && r.Bandwidth != 40 {
		return NewValidationError(fmt.Sprintf("bandwidth must be 20 or 40 MHz: %d", r.Bandwidth))
	}
	if r.Channel < 1 || r.Channel > 13 {
		return NewValidationError(fmt.Sprintf("channel must be 1-13: %d", r.Channel))
	}
	return nil
}

// NormalizeMAC parses a 6-byte hardware address and returns it in the
// firmware's lower-case colon form
func NormalizeMAC(mac string) (string, error) {
	hw, err := net.ParseMAC(strings.TrimSpace(mac))
	if err != nil || len(hw) != 6 {
		return "", NewValidationError(fmt.Sprintf("invalid MAC address %q", mac))
	}
	return hw.String(), nil
}

// ValidateStationName trims name and checks it fits the firmware's buffer
func ValidateStationName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", NewValidationError("client name required")
	}
	if len(name) > MaxStationName {
		return "", NewValidationError(fmt.Sprintf("client name too long (max %d chars): %d chars", MaxStationName, len(name)))
	}
	return name, nil
}

// GetHotspot returns the access point configuration
func (c *Client) GetHotspot(ctx context.Context) (*Hotspot, error) {
	var reply HotspotReply
	if err := c.Get(ctx, PathHotspot, &reply); err != nil {
		return nil, err
	}
	h := reply.Hotspot()
	return &h, nil
}

// SaveHotspot stores the access point configuration. The modem restarts
// to apply it, dropping every associated client.
func (c *Client) SaveHotspot(ctx context.Context, h Hotspot) error {
	var reply HotspotReply
	if err := c.Post(ctx, PathHotspot, NewHotspotReply(h), &reply); err != nil {
		return err
	}
	if reply.Status != hotspotStatusOK {
		return NewServerError(PathHotspot, "hotspot settings not accepted")
	}
	return nil
}

// GetHotspotRadio returns the access point's bandwidth and channel
func (c *Client) GetHotspotRadio(ctx context.Context) (*HotspotRadio, error) {
	var reply HotspotRadioReply
	if err := c.Get(ctx, PathHotspotRadio, &reply); err != nil {
		return nil, err
	}
	radio, err := reply.Radio()
	if err != nil {
		return nil, NewParseError(PathHotspotRadio, err)
	}
	return &radio, nil
}

// SaveHotspotRadio stores the channel plan. The modem restarts to apply it.
func (c *Client) SaveHotspotRadio(ctx context.Context, r HotspotRadio) error {
	var reply HotspotRadioReply
	if err := c.Post(ctx, PathHotspotRadio, NewHotspotRadioReply(r), &reply); err != nil {
		return err
	}
	if reply.Status != hotspotStatusOK {
		return NewServerError(PathHotspotRadio, "radio settings not accepted")
	}
	return nil
}

// ListStations returns the clients associated with the access point
func (c *Client) ListStations(ctx context.Context) ([]Station, error) {
	var reply StationListReply
	if err := c.Get(ctx, PathStations, &reply); err != nil {
		return nil, err
	}
	stations, err := reply.Decode()
	if err != nil {
		return nil, NewParseError(PathStations, err)
	}
	return stations, nil
}

// KickStation deauthenticates the client with the given MAC
func (c *Client) KickStation(ctx context.Context, mac string) error {
	return c.Post(ctx, PathStationKick, StationRequest{MAC: mac}, nil)
}

// RenameStation stores a display name for a MAC. The name survives
// reconnects.
func (c *Client) RenameStation(ctx context.Context, mac, name string) error {
	return c.Post(ctx, PathStationRename, StationRequest{MAC: mac, Name: name}, nil)
}
