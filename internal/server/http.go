package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/muurk/modemctl/internal/deviceapi"
	"github.com/muurk/modemctl/internal/logging"
)

// maxRequestBody matches the firmware's receive buffer
const maxRequestBody = 1024

// Reply messages. The firmware answers HTTP 200 for handled failures and
// reports them in the envelope.
const (
	msgInvalidJSON     = "invalid JSON data"
	msgInvalidForm     = "invalid form data"
	msgTopicAdded      = "topic added"
	msgTopicDeleted    = "topic deleted"
	msgInvalidPublish  = "invalid topic or message"
	msgPublished       = "message published"
	msgPublishFailed   = "publish failed"
	msgSettingsSaved   = "MQTT settings saved, reconnecting"
	msgWiFiSaved       = "WiFi settings saved, connecting"
	msgWiFiSSIDMissing = "SSID required"
)

// statusText is the device's own label for each link state
func statusText(s deviceapi.ConnectionStatus) string {
	switch s {
	case deviceapi.StatusDisconnected:
		return "disconnected"
	case deviceapi.StatusConnecting:
		return "connecting"
	case deviceapi.StatusConnected:
		return "connected"
	case deviceapi.StatusFailedAuth:
		return "authentication failed"
	case deviceapi.StatusFailedServer:
		return "server connection failed"
	case deviceapi.StatusFailedNetwork:
		return "network connection failed"
	default:
		return "unknown error"
	}
}

// Handler returns the emulated firmware HTTP API
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc(deviceapi.PathTopics, s.handleTopics).Methods(http.MethodGet)
	r.HandleFunc(deviceapi.PathTopicsAdd, s.handleTopicAdd).Methods(http.MethodPost)
	r.HandleFunc(deviceapi.PathTopicsDelete, s.handleTopicDelete).Methods(http.MethodPost)
	r.HandleFunc(deviceapi.PathPublish, s.handlePublish).Methods(http.MethodPost)
	r.HandleFunc(deviceapi.PathSettings, s.handleSettings).Methods(http.MethodGet)
	r.HandleFunc(deviceapi.PathSettingsSave, s.handleSettingsSave).Methods(http.MethodPost)
	r.HandleFunc(deviceapi.PathStatus, s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc(deviceapi.PathSensors, s.handleSensors).Methods(http.MethodGet)
	r.HandleFunc(deviceapi.PathNetworkMode, s.handleNetworkMode).Methods(http.MethodGet)
	r.HandleFunc(deviceapi.PathWiFiStation, s.handleWiFiStation).Methods(http.MethodPost)
	r.HandleFunc(deviceapi.PathHotspot, s.handleHotspot).Methods(http.MethodGet)
	r.HandleFunc(deviceapi.PathHotspot, s.handleHotspotSave).Methods(http.MethodPost)
	r.HandleFunc(deviceapi.PathHotspotRadio, s.handleHotspotRadio).Methods(http.MethodGet)
	r.HandleFunc(deviceapi.PathHotspotRadio, s.handleHotspotRadioSave).Methods(http.MethodPost)
	r.HandleFunc(deviceapi.PathStations, s.handleStations).Methods(http.MethodGet)
	r.HandleFunc(deviceapi.PathStationKick, s.handleStationKick).Methods(http.MethodPost)
	r.HandleFunc(deviceapi.PathStationRename, s.handleStationRename).Methods(http.MethodPost)
	r.Handle(deviceapi.PathMessagesStream, s.feed).Methods(http.MethodGet)

	var h http.Handler = r
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(h)
	h = handlers.CombinedLoggingHandler(zap.NewStdLog(logging.GetLogger()).Writer(), h)
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("Failed to write response", zap.Error(err))
	}
}

func writeReply(w http.ResponseWriter, ok bool, message string) {
	writeJSON(w, deviceapi.Reply{Success: ok, Message: message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(out)
}

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, deviceapi.TopicList{
		Reply:  deviceapi.Reply{Success: true},
		Topics: s.state.Topics(),
	})
}

func (s *Server) handleTopicAdd(w http.ResponseWriter, r *http.Request) {
	var req deviceapi.TopicRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeReply(w, false, msgInvalidJSON)
		return
	}

	topic := strings.TrimSpace(req.Topic)
	if err := s.state.AddTopic(topic); err != nil {
		writeReply(w, false, err.Error())
		return
	}
	if err := s.link.Subscribe(topic); err != nil {
		logging.Warn("Subscribe failed", zap.String("topic", topic), zap.Error(err))
	}

	logging.Info("Topic added", zap.String("topic", topic))
	writeReply(w, true, msgTopicAdded)
}

func (s *Server) handleTopicDelete(w http.ResponseWriter, r *http.Request) {
	var req deviceapi.TopicRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeReply(w, false, msgInvalidJSON)
		return
	}

	if err := s.state.DeleteTopic(req.Topic); err != nil {
		writeReply(w, false, err.Error())
		return
	}
	if err := s.link.Unsubscribe(req.Topic); err != nil {
		logging.Warn("Unsubscribe failed", zap.String("topic", req.Topic), zap.Error(err))
	}

	logging.Info("Topic deleted", zap.String("topic", req.Topic))
	writeReply(w, true, msgTopicDeleted)
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req deviceapi.PublishRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeReply(w, false, msgInvalidJSON)
		return
	}
	if req.Topic == "" || req.Message == "" {
		writeReply(w, false, msgInvalidPublish)
		return
	}

	if err := s.link.Publish(req.Topic, req.Message); err != nil {
		logging.Warn("Publish failed", zap.String("topic", req.Topic), zap.Error(err))
		writeReply(w, false, msgPublishFailed)
		return
	}

	logging.LogMQTTMessage("sent", req.Topic, []byte(req.Message))
	writeReply(w, true, msgPublished)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, deviceapi.SettingsReply{
		Reply:          deviceapi.Reply{Success: true},
		BrokerSettings: s.state.Settings(),
	})
}

func (s *Server) handleSettingsSave(w http.ResponseWriter, r *http.Request) {
	var req settingsUpdate
	if err := decodeBody(w, r, &req); err != nil {
		writeReply(w, false, msgInvalidJSON)
		return
	}
	if req.Broker != nil {
		broker := strings.TrimSpace(*req.Broker)
		if err := deviceapi.ValidateBroker(broker); err != nil {
			logging.Warn("Rejected broker settings", zap.String("broker", broker), zap.Error(err))
			writeReply(w, false, errorMessage(err))
			return
		}
		req.Broker = &broker
	}

	settings := s.state.UpdateSettings(req)
	logging.Info("Broker settings saved", zap.String("broker", settings.Broker))
	s.link.Connect(settings)

	writeReply(w, true, msgSettingsSaved)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, msg := s.state.Status()
	writeJSON(w, deviceapi.StatusReply{
		Reply:        deviceapi.Reply{Success: true},
		Status:       status,
		StatusText:   statusText(status),
		ErrorMessage: msg,
	})
}

func (s *Server) handleSensors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.sensors.Read(s.now()))
}

func (s *Server) handleNetworkMode(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, deviceapi.NetworkModeReply{Mode: s.state.NetworkMode()})
}

func (s *Server) handleWiFiStation(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := r.ParseForm(); err != nil {
		writeJSON(w, deviceapi.WiFiReply{Status: "error", Message: msgInvalidForm})
		return
	}

	ssid := r.PostFormValue("ssid")
	if ssid == "" {
		writeJSON(w, deviceapi.WiFiReply{Status: "error", Message: msgWiFiSSIDMissing})
		return
	}

	s.state.SetStation(ssid)
	logging.Info("WiFi station configured", zap.String("ssid", ssid))
	writeJSON(w, deviceapi.WiFiReply{Status: "success", Message: msgWiFiSaved})
}

// errorMessage returns the bare message of a DeviceError, without its type
func errorMessage(err error) string {
	var devErr *deviceapi.DeviceError
	if errors.As(err, &devErr) {
		return devErr.Message
	}
	return err.Error()
}
