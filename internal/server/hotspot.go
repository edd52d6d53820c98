package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/modemctl/internal/deviceapi"
	"github.com/muurk/modemctl/internal/logging"
)

// Reply text for the access point endpoints, sent as plain HTTP 500 bodies
// like the firmware's httpd error path
const (
	msgInvalidPost     = "invalid post"
	msgStationNotFound = "station not found"
)

var errStationMissing = errors.New(msgStationNotFound)

type station struct {
	mac   string
	ip    string
	since time.Time
}

// AccessPoint is the modem's own WiFi network: its configuration, the
// clients associated with it, and the names given to them. Names are
// kept per MAC and outlive the association.
type AccessPoint struct {
	mu sync.RWMutex

	boot     time.Time
	config   deviceapi.Hotspot
	radio    deviceapi.HotspotRadio
	stations []station
	names    map[string]string
	restarts int
}

// NewAccessPoint creates the access point as it is at boot
func NewAccessPoint(boot time.Time, config deviceapi.Hotspot, radio deviceapi.HotspotRadio) *AccessPoint {
	return &AccessPoint{
		boot:   boot,
		config: config,
		radio:  radio,
		names:  make(map[string]string),
	}
}

// nameKey is the flash key the firmware files client names under
func nameKey(mac string) string {
	return strings.ReplaceAll(mac, ":", "")
}

// Associate adds a client, replacing any earlier association of the MAC
func (a *AccessPoint) Associate(mac, ip string, at time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.removeLocked(mac)
	a.stations = append([]station{{mac: mac, ip: ip, since: at}}, a.stations...)
}

// Kick deauthenticates a client
func (a *AccessPoint) Kick(mac string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.removeLocked(mac) {
		return errStationMissing
	}
	return nil
}

func (a *AccessPoint) removeLocked(mac string) bool {
	for i, st := range a.stations {
		if st.mac == mac {
			a.stations = append(a.stations[:i], a.stations[i+1:]...)
			return true
		}
	}
	return false
}

// Rename stores a display name for mac, associated or not
func (a *AccessPoint) Rename(mac, name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.names[nameKey(mac)] = name
}

// Stations lists the associated clients, newest first, with times in
// microseconds since boot
func (a *AccessPoint) Stations(now time.Time) deviceapi.StationListReply {
	a.mu.RLock()
	defer a.mu.RUnlock()

	reply := deviceapi.StationListReply{
		Stations: make([]deviceapi.StationEntry, 0, len(a.stations)),
		Now:      strconv.FormatInt(now.Sub(a.boot).Microseconds(), 10),
	}
	for _, st := range a.stations {
		name, ok := a.names[nameKey(st.mac)]
		if !ok {
			name = nameKey(st.mac)
		}
		reply.Stations = append(reply.Stations, deviceapi.StationEntry{
			Name:        name,
			MAC:         st.mac,
			IP:          st.ip,
			OnlineSince: strconv.FormatInt(st.since.Sub(a.boot).Microseconds(), 10),
		})
	}
	return reply
}

// Config returns the access point configuration
func (a *AccessPoint) Config() deviceapi.Hotspot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config
}

// SetConfig stores a new configuration and restarts the access point
func (a *AccessPoint) SetConfig(h deviceapi.Hotspot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.config = h
	a.restartLocked()
}

// Radio returns the channel plan
func (a *AccessPoint) Radio() deviceapi.HotspotRadio {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.radio
}

// SetRadio stores a new channel plan and restarts the access point
func (a *AccessPoint) SetRadio(r deviceapi.HotspotRadio) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.radio = r
	a.restartLocked()
}

// Restarts counts how often a save restarted the access point
func (a *AccessPoint) Restarts() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.restarts
}

// restartLocked stands in for the firmware's reboot after a save. The
// clients are dropped; real ones would associate again.
func (a *AccessPoint) restartLocked() {
	a.restarts++
	a.stations = nil
}

// newAccessPoint builds the access point from the emulator config and
// associates the seeded clients at boot
func newAccessPoint(config *Config, boot time.Time) *AccessPoint {
	radio := deviceapi.HotspotRadio{Bandwidth: config.HotspotBandwidth, Channel: config.HotspotChannel}
	if radio.Bandwidth == 0 {
		radio.Bandwidth = 20
	}
	if radio.Channel == 0 {
		radio.Channel = 1
	}
	ap := NewAccessPoint(boot, deviceapi.Hotspot{
		SSID:     config.HotspotSSID,
		AuthMode: config.HotspotAuth,
		Password: config.HotspotPassword,
	}, radio)

	for _, e := range config.Stations {
		mac, ip, ok := strings.Cut(strings.TrimSpace(e), "@")
		if !ok {
			logging.Warn("Ignoring station seed without @ip", zap.String("entry", e))
			continue
		}
		norm, err := deviceapi.NormalizeMAC(mac)
		if err != nil {
			logging.Warn("Ignoring station seed", zap.String("entry", e), zap.Error(err))
			continue
		}
		ap.Associate(norm, strings.TrimSpace(ip), boot)
	}
	return ap
}

// hotspotPost is a /wlan_general body; every field is required
type hotspotPost struct {
	SSID     *string `json:"ssid"`
	HideSSID *string `json:"if_hide_ssid"`
	AuthMode *string `json:"auth_mode"`
	Password *string `json:"password"`
}

// radioPost is a /wlan_advance body; both fields are required
type radioPost struct {
	Bandwidth *string `json:"bandwidth"`
	Channel   *string `json:"channel"`
}

// truncate cuts s to the firmware buffer size n
func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func invalidPost(w http.ResponseWriter) {
	http.Error(w, msgInvalidPost, http.StatusInternalServerError)
}

func (s *Server) handleHotspot(w http.ResponseWriter, r *http.Request) {
	reply := deviceapi.NewHotspotReply(s.ap.Config())
	reply.Status = "200"
	writeJSON(w, reply)
}

func (s *Server) handleHotspotSave(w http.ResponseWriter, r *http.Request) {
	var req hotspotPost
	if err := decodeBody(w, r, &req); err != nil {
		invalidPost(w)
		return
	}
	if req.SSID == nil || req.HideSSID == nil || req.AuthMode == nil || req.Password == nil {
		invalidPost(w)
		return
	}

	reply := deviceapi.HotspotReply{
		Status:   "200",
		SSID:     truncate(*req.SSID, deviceapi.MaxHotspotSSID),
		HideSSID: truncate(*req.HideSSID, 7),
		AuthMode: truncate(*req.AuthMode, 15),
		Password: truncate(*req.Password, deviceapi.MaxHotspotPassword),
	}
	s.ap.SetConfig(reply.Hotspot())
	logging.Info("Hotspot settings saved, restarting access point",
		zap.String("ssid", reply.SSID),
		zap.String("auth_mode", reply.AuthMode))

	writeJSON(w, reply)
}

func (s *Server) handleHotspotRadio(w http.ResponseWriter, r *http.Request) {
	reply := deviceapi.NewHotspotRadioReply(s.ap.Radio())
	reply.Status = "200"
	writeJSON(w, reply)
}

func (s *Server) handleHotspotRadioSave(w http.ResponseWriter, r *http.Request) {
	var req radioPost
	if err := decodeBody(w, r, &req); err != nil || req.Bandwidth == nil || req.Channel == nil {
		invalidPost(w)
		return
	}

	reply := deviceapi.HotspotRadioReply{
		Status:    "200",
		Bandwidth: truncate(*req.Bandwidth, 3),
		Channel:   truncate(*req.Channel, 3),
	}
	radio, err := reply.Radio()
	if err != nil {
		invalidPost(w)
		return
	}
	s.ap.SetRadio(radio)
	logging.Info("Hotspot radio saved, restarting access point",
		zap.Int("bandwidth", radio.Bandwidth),
		zap.Int("channel", radio.Channel))

	writeJSON(w, reply)
}

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.ap.Stations(s.now()))
}

// decodeStation reads a station request, requiring the name when named
// is set. The MAC comes back normalized.
func decodeStation(w http.ResponseWriter, r *http.Request, named bool) (deviceapi.StationRequest, bool) {
	var req deviceapi.StationRequest
	if err := decodeBody(w, r, &req); err != nil {
		return req, false
	}
	mac, err := deviceapi.NormalizeMAC(req.MAC)
	if err != nil || (named && req.Name == "") {
		return req, false
	}
	req.MAC = mac
	return req, true
}

func (s *Server) handleStationKick(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeStation(w, r, false)
	if !ok {
		invalidPost(w)
		return
	}
	if err := s.ap.Kick(req.MAC); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	logging.Info("Station deauthenticated", zap.String("mac", req.MAC))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleStationRename(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeStation(w, r, true)
	if !ok {
		invalidPost(w)
		return
	}
	s.ap.Rename(req.MAC, truncate(req.Name, deviceapi.MaxStationName))

	logging.Info("Station renamed", zap.String("mac", req.MAC), zap.String("name", req.Name))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
}
