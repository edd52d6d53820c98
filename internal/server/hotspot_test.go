package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/muurk/modemctl/internal/deviceapi"
)

func hotspotConfig() *Config {
	cfg := testConfig()
	cfg.HotspotSSID = "modem-ap"
	cfg.HotspotAuth = deviceapi.AuthWPAWPA2
	cfg.HotspotPassword = "modem1234"
	cfg.HotspotChannel = 6
	cfg.HotspotBandwidth = 20
	cfg.Stations = []string{
		"7C:DF:A1:00:00:01@192.168.4.2",
		"7c:df:a1:00:00:02@192.168.4.3",
		"not-a-mac@192.168.4.9",
		"7c:df:a1:00:00:03",
	}
	return cfg
}

func TestHotspotRoundTrip(t *testing.T) {
	s, _, client := newTestEmulator(t, hotspotConfig())
	ctx := context.Background()

	got, err := client.GetHotspot(ctx)
	if err != nil {
		t.Fatalf("GetHotspot() error = %v", err)
	}
	want := deviceapi.Hotspot{SSID: "modem-ap", AuthMode: deviceapi.AuthWPAWPA2, Password: "modem1234"}
	if *got != want {
		t.Errorf("GetHotspot() = %+v, want %+v", *got, want)
	}

	next := deviceapi.Hotspot{SSID: "field-ap", Hidden: true, AuthMode: deviceapi.AuthWPA2, Password: "new-secret"}
	if err := client.SaveHotspot(ctx, next); err != nil {
		t.Fatalf("SaveHotspot() error = %v", err)
	}
	if got, _ := client.GetHotspot(ctx); *got != next {
		t.Errorf("GetHotspot() after save = %+v, want %+v", *got, next)
	}
	if n := s.AccessPoint().Restarts(); n != 1 {
		t.Errorf("restarts = %d, want 1", n)
	}
}

func TestHotspotRadioRoundTrip(t *testing.T) {
	_, _, client := newTestEmulator(t, hotspotConfig())
	ctx := context.Background()

	got, err := client.GetHotspotRadio(ctx)
	if err != nil {
		t.Fatalf("GetHotspotRadio() error = %v", err)
	}
	if *got != (deviceapi.HotspotRadio{Bandwidth: 20, Channel: 6}) {
		t.Errorf("GetHotspotRadio() = %+v", *got)
	}

	next := deviceapi.HotspotRadio{Bandwidth: 40, Channel: 11}
	if err := client.SaveHotspotRadio(ctx, next); err != nil {
		t.Fatalf("SaveHotspotRadio() error = %v", err)
	}
	if got, _ := client.GetHotspotRadio(ctx); *got != next {
		t.Errorf("GetHotspotRadio() after save = %+v, want %+v", *got, next)
	}
}

func TestHotspotSaveRequiresEveryField(t *testing.T) {
	s, _, _ := newTestEmulator(t, hotspotConfig())

	tests := []struct {
		path string
		body string
	}{
		{deviceapi.PathHotspot, `{"ssid":"x","auth_mode":"OPEN","password":""}`},
		{deviceapi.PathHotspot, `{not json`},
		{deviceapi.PathHotspotRadio, `{"bandwidth":"20"}`},
		{deviceapi.PathHotspotRadio, `{"bandwidth":"20","channel":"six"}`},
		{deviceapi.PathStationRename, `{"mac_str":"7c:df:a1:00:00:01"}`},
		{deviceapi.PathStationKick, `{"mac_str":"garbage"}`},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), msgInvalidPost) {
			t.Errorf("POST %s %s = %d %q, want 500 %q", tt.path, tt.body, rec.Code, rec.Body.String(), msgInvalidPost)
		}
	}
	if n := s.AccessPoint().Restarts(); n != 0 {
		t.Errorf("restarts = %d, want none after rejected saves", n)
	}
}

func TestStationsKickAndRename(t *testing.T) {
	_, _, client := newTestEmulator(t, hotspotConfig())
	ctx := context.Background()

	stations, err := client.ListStations(ctx)
	if err != nil {
		t.Fatalf("ListStations() error = %v", err)
	}
	// bad seeds are skipped, the newest association is listed first
	if len(stations) != 2 {
		t.Fatalf("stations = %+v, want 2", stations)
	}
	if stations[0].MAC != "7c:df:a1:00:00:02" || stations[1].MAC != "7c:df:a1:00:00:01" {
		t.Errorf("station order = %s, %s", stations[0].MAC, stations[1].MAC)
	}
	if stations[1].Name != "7cdfa1000001" || stations[1].IP != "192.168.4.2" {
		t.Errorf("unnamed station = %+v, want the bare MAC as name", stations[1])
	}

	if err := client.RenameStation(ctx, "7c:df:a1:00:00:01", "laptop"); err != nil {
		t.Fatalf("RenameStation() error = %v", err)
	}
	if err := client.KickStation(ctx, "7c:df:a1:00:00:02"); err != nil {
		t.Fatalf("KickStation() error = %v", err)
	}

	stations, _ = client.ListStations(ctx)
	if len(stations) != 1 || stations[0].Name != "laptop" {
		t.Errorf("stations after rename and kick = %+v", stations)
	}

	err = client.KickStation(ctx, "7c:df:a1:00:00:02")
	if !deviceapi.IsHTTPError(err) {
		t.Errorf("KickStation(gone) error = %v, want HTTP error", err)
	}
}

func TestAccessPointNamesOutliveAssociation(t *testing.T) {
	boot := time.Unix(1700000000, 0)
	ap := NewAccessPoint(boot, deviceapi.Hotspot{}, deviceapi.HotspotRadio{})

	ap.Rename("7c:df:a1:00:00:05", "tablet")
	ap.Associate("7c:df:a1:00:00:05", "192.168.4.7", boot.Add(30*time.Second))

	reply := ap.Stations(boot.Add(2 * time.Minute))
	if reply.Now != "120000000" {
		t.Errorf("now_time = %s, want 120000000", reply.Now)
	}
	if len(reply.Stations) != 1 {
		t.Fatalf("stations = %+v", reply.Stations)
	}
	if e := reply.Stations[0]; e.Name != "tablet" || e.OnlineSince != "30000000" {
		t.Errorf("station = %+v", e)
	}

	stations, err := reply.Decode()
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if stations[0].Connected != 90*time.Second {
		t.Errorf("connected = %v, want 1m30s", stations[0].Connected)
	}
}

func TestAccessPointRestartDropsClients(t *testing.T) {
	boot := time.Unix(1700000000, 0)
	ap := NewAccessPoint(boot, deviceapi.Hotspot{}, deviceapi.HotspotRadio{Bandwidth: 20, Channel: 1})
	ap.Associate("7c:df:a1:00:00:01", "192.168.4.2", boot)

	ap.SetRadio(deviceapi.HotspotRadio{Bandwidth: 40, Channel: 3})

	if n := len(ap.Stations(boot).Stations); n != 0 {
		t.Errorf("stations after restart = %d, want 0", n)
	}
	if ap.Restarts() != 1 {
		t.Errorf("restarts = %d, want 1", ap.Restarts())
	}
}
