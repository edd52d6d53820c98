package deviceapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	client := NewClient("192.168.4.1", 80)

	if client.BaseURL != "http://192.168.4.1:80" {
		t.Errorf("BaseURL = %s, want http://192.168.4.1:80", client.BaseURL)
	}

	if client.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", client.Timeout, DefaultTimeout)
	}

	if client.HTTPClient == nil {
		t.Error("HTTPClient should not be nil")
	}
}

func TestNewClient_DefaultPort(t *testing.T) {
	client := NewClient("modem.local", 0)

	if client.BaseURL != "http://modem.local:80" {
		t.Errorf("BaseURL = %s, want http://modem.local:80", client.BaseURL)
	}
}

func TestNewClientWithURL_TrimsSlash(t *testing.T) {
	client := NewClientWithURL("http://192.168.4.1:8080/")

	if client.BaseURL != "http://192.168.4.1:8080" {
		t.Errorf("BaseURL = %s, want http://192.168.4.1:8080", client.BaseURL)
	}
}

func TestSetTimeout(t *testing.T) {
	client := NewClient("192.168.4.1", 80)
	client.SetTimeout(2 * time.Second)

	if client.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", client.Timeout)
	}

	client.SetTimeout(0)
	if client.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v after reset", client.Timeout, DefaultTimeout)
	}
}

func TestListTopics_Order(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != PathTopics {
			t.Errorf("request = %s %s, want GET %s", r.Method, r.URL.Path, PathTopics)
		}
		w.Write([]byte(`{"success":true,"topics":["z/last","a/first","m/middle"]}`))
	}))
	defer server.Close()

	topics, err := NewClientWithURL(server.URL).ListTopics(context.Background())
	if err != nil {
		t.Fatalf("ListTopics() error = %v", err)
	}

	want := []string{"z/last", "a/first", "m/middle"}
	if len(topics) != len(want) {
		t.Fatalf("len(topics) = %d, want %d", len(topics), len(want))
	}
	for i := range want {
		if topics[i] != want[i] {
			t.Errorf("topics[%d] = %s, want %s", i, topics[i], want[i])
		}
	}
}

func TestListTopics_NullTopics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	topics, err := NewClientWithURL(server.URL).ListTopics(context.Background())
	if err != nil {
		t.Fatalf("ListTopics() error = %v", err)
	}
	if topics == nil || len(topics) != 0 {
		t.Errorf("topics = %#v, want empty non-nil slice", topics)
	}
}

func TestListTopics_ServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"storage unavailable"}`))
	}))
	defer server.Close()

	_, err := NewClientWithURL(server.URL).ListTopics(context.Background())
	if !IsServerError(err) {
		t.Fatalf("ListTopics() error = %v, want server error", err)
	}
	if got := FailureMessage("failed to load topics", err); got != "failed to load topics: storage unavailable" {
		t.Errorf("FailureMessage() = %q", got)
	}
}

func TestAddTopic_PostsJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Method = %s, want POST", r.Method)
		}
		if r.URL.Path != PathTopicsAdd {
			t.Errorf("Path = %s, want %s", r.URL.Path, PathTopicsAdd)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %s, want application/json", ct)
		}

		var req TopicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if req.Topic != "sensors/temp" {
			t.Errorf("topic = %s, want sensors/temp", req.Topic)
		}
		w.Write([]byte(`{"success":true,"message":"ok"}`))
	}))
	defer server.Close()

	if err := NewClientWithURL(server.URL).AddTopic(context.Background(), "sensors/temp"); err != nil {
		t.Errorf("AddTopic() error = %v, want nil", err)
	}
}

func TestAddTopic_Duplicate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"duplicate"}`))
	}))
	defer server.Close()

	err := NewClientWithURL(server.URL).AddTopic(context.Background(), "a/b")
	if got := FailureMessage("failed to add topic", err); got != "failed to add topic: duplicate" {
		t.Errorf("FailureMessage() = %q, want %q", got, "failed to add topic: duplicate")
	}
}

func TestDeleteTopic_SendsFullName(t *testing.T) {
	long := "devices/very-long-device-identifier/telemetry"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req TopicRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Topic != long {
			t.Errorf("topic = %s, want %s", req.Topic, long)
		}
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	if err := NewClientWithURL(server.URL).DeleteTopic(context.Background(), long); err != nil {
		t.Errorf("DeleteTopic() error = %v", err)
	}
}

func TestPublish(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req PublishRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Topic != "cmd/led" || req.Message != "on" {
			t.Errorf("body = %+v, want cmd/led on", req)
		}
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	if err := NewClientWithURL(server.URL).Publish(context.Background(), "cmd/led", "on"); err != nil {
		t.Errorf("Publish() error = %v", err)
	}
}

func TestGetSettings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"broker":"mqtt://broker.local:1883","username":"modem","password":"secret"}`))
	}))
	defer server.Close()

	settings, err := NewClientWithURL(server.URL).GetSettings(context.Background())
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	if settings.Broker != "mqtt://broker.local:1883" {
		t.Errorf("Broker = %s", settings.Broker)
	}
	if settings.Username != "modem" || settings.Password != "secret" {
		t.Errorf("credentials = %s/%s, want modem/secret", settings.Username, settings.Password)
	}
}

func TestSaveSettings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var s BrokerSettings
		_ = json.NewDecoder(r.Body).Decode(&s)
		if s.Broker != "mqtts://b:8883" || s.Username != "u" || s.Password != "p" {
			t.Errorf("body = %+v", s)
		}
		w.Write([]byte(`{"success":true,"message":"saved"}`))
	}))
	defer server.Close()

	err := NewClientWithURL(server.URL).SaveSettings(context.Background(), BrokerSettings{Broker: "mqtts://b:8883", Username: "u", Password: "p"})
	if err != nil {
		t.Errorf("SaveSettings() error = %v", err)
	}
}

func TestGetStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"status":3,"status_text":"auth failed","error_message":"bad password"}`))
	}))
	defer server.Close()

	conn, err := NewClientWithURL(server.URL).GetStatus(context.Background())
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if conn.Status != StatusFailedAuth {
		t.Errorf("Status = %v, want %v", conn.Status, StatusFailedAuth)
	}
	if conn.ErrorMessage != "bad password" {
		t.Errorf("ErrorMessage = %s, want bad password", conn.ErrorMessage)
	}
}

func TestNotModifiedIsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer server.Close()

	err := NewClientWithURL(server.URL).Get(context.Background(), PathStatus, nil)
	if err != nil {
		t.Errorf("Get() error = %v, want nil for 304", err)
	}
}

func TestNotModifiedWithoutBodyIsParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer server.Close()

	_, err := NewClientWithURL(server.URL).ListTopics(context.Background())
	if !IsParseError(err) {
		t.Fatalf("ListTopics() error = %v, want parse error for an empty 304", err)
	}
	if IsRequestFailed(err) || IsHTTPError(err) {
		t.Errorf("empty 304 classified as %v, want parse error only", err)
	}
}

func TestHTTPStatusIsRequestFailed(t *testing.T) {
	codes := []int{http.StatusNoContent, http.StatusNotFound, http.StatusInternalServerError, http.StatusBadGateway}

	for _, code := range codes {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))

		_, err := NewClientWithURL(server.URL).ListTopics(context.Background())
		server.Close()

		if !IsRequestFailed(err) {
			t.Errorf("status %d: error = %v, want request failed", code, err)
		}
		if !IsHTTPError(err) {
			t.Errorf("status %d: error type should be HTTP", code)
		}
	}
}

func TestMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	_, err := NewClientWithURL(server.URL).GetStatus(context.Background())
	if !IsParseError(err) {
		t.Fatalf("GetStatus() error = %v, want parse error", err)
	}
	if IsRequestFailed(err) {
		t.Error("parse error must not be classified as request failed")
	}
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClientWithURL(server.URL)
	client.SetTimeout(50 * time.Millisecond)

	start := time.Now()
	_, err := client.GetStatus(context.Background())
	if !IsTimeout(err) {
		t.Fatalf("GetStatus() error = %v, want timeout", err)
	}
	if !IsRequestFailed(err) {
		t.Error("timeout should count as request failed")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("request took %v, timeout not applied", elapsed)
	}
}

func TestConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClientWithURL(url).ListTopics(context.Background())
	if !IsRequestFailed(err) {
		t.Errorf("ListTopics() error = %v, want request failed", err)
	}
}

func TestNoRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_ = NewClientWithURL(server.URL).AddTopic(context.Background(), "a")
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestSaveWiFiStation_FormEncoded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %s", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "ssid=Home+Net") {
			t.Errorf("body = %s, want encoded ssid", body)
		}
		w.Write([]byte(`{"status":"success","message":"saved, connecting"}`))
	}))
	defer server.Close()

	msg, err := NewClientWithURL(server.URL).SaveWiFiStation(context.Background(), WiFiStation{SSID: "Home Net", Password: "password1"})
	if err != nil {
		t.Fatalf("SaveWiFiStation() error = %v", err)
	}
	if msg != "saved, connecting" {
		t.Errorf("message = %q", msg)
	}
}

func TestSaveWiFiStation_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","message":"save failed"}`))
	}))
	defer server.Close()

	_, err := NewClientWithURL(server.URL).SaveWiFiStation(context.Background(), WiFiStation{SSID: "x"})
	if !IsServerError(err) {
		t.Errorf("SaveWiFiStation() error = %v, want server error", err)
	}
}

func TestGetSensorsAndNetworkMode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PathSensors:
			w.Write([]byte(`{"temperature":21.5,"humidity":40,"light_intensity":300,"sensors_valid":true,"gps_valid":false,"data_source":1,"timestamp":1700000000}`))
		case PathNetworkMode:
			w.Write([]byte(`{"mode":1}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)

	reading, err := client.GetSensors(context.Background())
	if err != nil {
		t.Fatalf("GetSensors() error = %v", err)
	}
	if reading.Temperature != 21.5 || !reading.SensorsValid {
		t.Errorf("reading = %+v", reading)
	}
	if reading.LocationSource() != "cellular" {
		t.Errorf("LocationSource() = %s, want cellular", reading.LocationSource())
	}

	mode, err := client.GetNetworkMode(context.Background())
	if err != nil {
		t.Fatalf("GetNetworkMode() error = %v", err)
	}
	if mode != NetworkModeWiFiStation {
		t.Errorf("mode = %v, want %v", mode, NetworkModeWiFiStation)
	}
}

func TestStreamURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://127.0.0.1:8080", "ws://127.0.0.1:8080/ws/messages"},
		{"https://modem.example", "wss://modem.example/ws/messages"},
	}

	for _, tt := range tests {
		got, err := NewClientWithURL(tt.base).StreamURL()
		if err != nil {
			t.Fatalf("StreamURL(%s) error = %v", tt.base, err)
		}
		if got != tt.want {
			t.Errorf("StreamURL(%s) = %s, want %s", tt.base, got, tt.want)
		}
	}
}
