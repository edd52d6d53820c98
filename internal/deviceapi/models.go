package deviceapi

import (
	"fmt"
	"net/url"
)

// Firmware limits on the subscription topic list.
const (
	MaxTopics      = 20
	MaxTopicLength = 64
)

// Endpoint paths exposed by the modem firmware.
const (
	PathTopics         = "/api/mqtt/topics"
	PathTopicsAdd      = "/api/mqtt/topics/add"
	PathTopicsDelete   = "/api/mqtt/topics/delete"
	PathPublish        = "/api/mqtt/publish"
	PathSettings       = "/api/mqtt/settings"
	PathSettingsSave   = "/api/mqtt/settings/save"
	PathStatus         = "/api/mqtt/status"
	PathSensors        = "/sensors/data"
	PathNetworkMode    = "/network_mode"
	PathWiFiStation    = "/wifi_sta"
	PathMessagesStream = "/ws/messages"
)

// ConnectionStatus is the modem's MQTT client state as reported by
// /api/mqtt/status.
type ConnectionStatus int

const (
	StatusDisconnected  ConnectionStatus = 0
	StatusConnecting    ConnectionStatus = 1
	StatusConnected     ConnectionStatus = 2
	StatusFailedAuth    ConnectionStatus = 3
	StatusFailedServer  ConnectionStatus = 4
	StatusFailedNetwork ConnectionStatus = 5
	StatusFailedUnknown ConnectionStatus = 6
)

// String returns the English label for the status code
func (s ConnectionStatus) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusFailedAuth:
		return "authentication failed"
	case StatusFailedServer:
		return "server unreachable"
	case StatusFailedNetwork:
		return "network failure"
	case StatusFailedUnknown:
		return "unknown failure"
	default:
		return fmt.Sprintf("status %d", int(s))
	}
}

// IsError reports whether the code falls outside the three healthy states.
func (s ConnectionStatus) IsError() bool {
	return s != StatusDisconnected && s != StatusConnecting && s != StatusConnected
}

// Reply is the envelope every /api/mqtt endpoint shares.
type Reply struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// TopicList is the body of GET /api/mqtt/topics
type TopicList struct {
	Reply
	Topics []string `json:"topics"`
}

// TopicRequest is the body of the topic add and delete calls
type TopicRequest struct {
	Topic string `json:"topic"`
}

// PublishRequest is the body of POST /api/mqtt/publish
type PublishRequest struct {
	Topic   string `json:"topic"`
	Message string `json:"message"`
}

// BrokerSettings holds the modem's broker connection parameters.
// They are never persisted on this side.
type BrokerSettings struct {
	Broker   string `json:"broker"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// SettingsReply is the body of GET /api/mqtt/settings
type SettingsReply struct {
	Reply
	BrokerSettings
}

// StatusReply is the body of GET /api/mqtt/status
type StatusReply struct {
	Reply
	Status       ConnectionStatus `json:"status"`
	StatusText   string           `json:"status_text"`
	ErrorMessage string           `json:"error_message,omitempty"`
}

// Connection is the most recent status observation.
type Connection struct {
	Status       ConnectionStatus
	Text         string
	ErrorMessage string
}

// Label prefers the device's own text, falling back to the English name.
func (c Connection) Label() string {
	if c.Text != "" {
		return c.Text
	}
	return c.Status.String()
}

// SensorReading is the body of GET /sensors/data
type SensorReading struct {
	Temperature    float64 `json:"temperature"`
	Humidity       float64 `json:"humidity"`
	LightIntensity float64 `json:"light_intensity"`
	SensorsValid   bool    `json:"sensors_valid"`

	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	NSIndicator string  `json:"ns_indicator"`
	EWIndicator string  `json:"ew_indicator"`
	Altitude    float64 `json:"altitude"`
	Speed       float64 `json:"speed"`
	Course      float64 `json:"course"`
	DataSource  int     `json:"data_source"` // 0 = GNSS, otherwise cellular location
	GPSValid    bool    `json:"gps_valid"`

	Timestamp int64 `json:"timestamp"`
}

// LocationSource names where the position fix came from
func (s SensorReading) LocationSource() string {
	if s.DataSource == 0 {
		return "GNSS"
	}
	return "cellular"
}

// NetworkMode is the modem's uplink
type NetworkMode int

const (
	NetworkMode4G          NetworkMode = 0
	NetworkModeWiFiStation NetworkMode = 1
)

// String returns the uplink name
func (m NetworkMode) String() string {
	switch m {
	case NetworkMode4G:
		return "4G"
	case NetworkModeWiFiStation:
		return "WiFi station"
	default:
		return fmt.Sprintf("mode %d", int(m))
	}
}

// NetworkModeReply is the body of GET /network_mode
type NetworkModeReply struct {
	Mode NetworkMode `json:"mode"`
}

// WiFiStation is the form posted to /wifi_sta
type WiFiStation struct {
	SSID     string
	Password string
}

// ToFormData encodes the station credentials the way the firmware parses them
func (w WiFiStation) ToFormData() url.Values {
	form := url.Values{}
	form.Set("ssid", w.SSID)
	form.Set("password", w.Password)
	return form
}

// WiFiReply is the body returned by POST /wifi_sta. Unlike the MQTT
// endpoints it reports "success" or "error" in a status string.
type WiFiReply struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// OK reports whether the firmware accepted the credentials
func (r WiFiReply) OK() bool {
	return r.Status == "success"
}

// StreamedMessage is one frame on the emulator's /ws/messages feed.
type StreamedMessage struct {
	Topic      string `json:"topic"`
	Payload    string `json:"payload"`
	ReceivedAt int64  `json:"received_at"`
}
