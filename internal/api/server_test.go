package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/smazurov/audiohal/internal/api/models"
	"github.com/smazurov/audiohal/internal/events"
	"github.com/smazurov/audiohal/pkg/coreaudio"
	"github.com/smazurov/audiohal/pkg/coreaudio/simhal"
)

const testPID = 4242

func studioDevice() simhal.DeviceSpec {
	return simhal.DeviceSpec{
		Name:           "Studio Interface",
		Manufacturer:   "Acme",
		UID:            "acme-studio",
		Transport:      "usb",
		InputChannels:  4,
		OutputChannels: 2,
		SampleRates:    []float64{44100, 48000, 96000},
		ChannelVolume:  true,
		MinDecibels:    -64,
		ClockSources:   []string{"Internal", "S/PDIF"},
	}
}

func micDevice() simhal.DeviceSpec {
	return simhal.DeviceSpec{
		Name:          "USB Microphone",
		UID:           "usb-mic",
		Transport:     "usb",
		InputChannels: 1,
		SampleRates:   []float64{48000},
		MainVolume:    true,
		MinDecibels:   -40,
		MaxDecibels:   20,
	}
}

func newTestHAL(t *testing.T) (*simhal.HAL, *coreaudio.Registry) {
	t.Helper()
	h, err := simhal.NewWithFixture(simhal.Fixture{Devices: []simhal.DeviceSpec{
		simhal.NullDevice(), studioDevice(), micDevice(),
	}}, simhal.WithProcessID(testPID), simhal.WithSettleDelay(10*time.Millisecond))
	if err != nil {
		t.Fatalf("Failed to create HAL: %v", err)
	}
	reg := coreaudio.NewRegistry(h, coreaudio.WithProcessID(testPID), coreaudio.WithSettleTimeout(2*time.Second))
	if err := reg.Start(); err != nil {
		t.Fatalf("Failed to start registry: %v", err)
	}
	t.Cleanup(reg.Stop)
	return h, reg
}

func newTestAPI(t *testing.T) (humatest.TestAPI, *simhal.HAL) {
	t.Helper()
	h, reg := newTestHAL(t)
	_, api := humatest.New(t)
	s := newServer(api, &Options{Registry: reg, Bus: events.New()})
	s.registerRoutes()
	return api, h
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(resp.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to decode %q: %v", resp.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, resp *httptest.ResponseRecorder, want int) {
	t.Helper()
	if resp.Code != want {
		t.Fatalf("Expected status %d, got %d: %s", want, resp.Code, resp.Body.String())
	}
}

func TestHealth(t *testing.T) {
	api, _ := newTestAPI(t)

	resp := api.Get("/api/health")
	expectStatus(t, resp, http.StatusOK)
	health := decode[models.HealthData](t, resp)
	if health.Status != "ok" || health.Devices != 3 {
		t.Errorf("Unexpected health %+v", health)
	}
}

func TestVersion(t *testing.T) {
	api, _ := newTestAPI(t)

	resp := api.Get("/api/version")
	expectStatus(t, resp, http.StatusOK)
	info := decode[models.VersionData](t, resp)
	if info.Version == "" || info.GoVersion == "" {
		t.Errorf("Unexpected version %+v", info)
	}
}

func TestListDevices(t *testing.T) {
	api, _ := newTestAPI(t)

	tests := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?direction=input", 3},
		{"?direction=output", 2},
	}
	for _, tt := range tests {
		resp := api.Get("/api/devices" + tt.query)
		expectStatus(t, resp, http.StatusOK)
		list := decode[struct {
			Devices []models.DeviceInfo `json:"devices"`
			Count   int                 `json:"count"`
		}](t, resp)
		if list.Count != tt.want || len(list.Devices) != tt.want {
			t.Errorf("%q: expected %d devices, got %d", tt.query, tt.want, list.Count)
		}
	}

	expectStatus(t, api.Get("/api/devices?direction=sideways"), http.StatusUnprocessableEntity)
}

func TestGetDevice(t *testing.T) {
	api, _ := newTestAPI(t)

	resp := api.Get("/api/devices/NullAudioDevice_UID")
	expectStatus(t, resp, http.StatusOK)
	d := decode[models.DeviceDetail](t, resp)
	if d.Name != "Null Audio Device" || d.Manufacturer != "Apple Inc." {
		t.Errorf("Unexpected identity %q by %q", d.Name, d.Manufacturer)
	}
	if d.InputChannels != 2 || d.OutputChannels != 2 {
		t.Errorf("Expected 2/2 channels, got %d/%d", d.InputChannels, d.OutputChannels)
	}
	if d.HogModePID != -1 {
		t.Errorf("Expected free device, got hog pid %d", d.HogModePID)
	}
	if len(d.ClockSources) != 0 || d.ClockSourceID != nil {
		t.Errorf("Null device should have no clock source, got %+v", d.ClockSources)
	}

	resp = api.Get("/api/devices/acme-studio")
	expectStatus(t, resp, http.StatusOK)
	d = decode[models.DeviceDetail](t, resp)
	if len(d.ClockSources) != 2 || d.ClockSources[1].Name != "S/PDIF" {
		t.Errorf("Unexpected clock sources %+v", d.ClockSources)
	}
	if d.ClockSourceID == nil || *d.ClockSourceID != 1 {
		t.Errorf("Expected clock source 1, got %v", d.ClockSourceID)
	}

	expectStatus(t, api.Get("/api/devices/missing"), http.StatusNotFound)
}

func TestListStreams(t *testing.T) {
	api, _ := newTestAPI(t)

	resp := api.Get("/api/devices/NullAudioDevice_UID/streams")
	expectStatus(t, resp, http.StatusOK)
	all := decode[struct {
		Streams []models.Stream `json:"streams"`
	}](t, resp)
	if len(all.Streams) != 2 {
		t.Fatalf("Expected 2 streams, got %d", len(all.Streams))
	}

	resp = api.Get("/api/devices/NullAudioDevice_UID/streams?scope=input")
	expectStatus(t, resp, http.StatusOK)
	in := decode[struct {
		Streams []models.Stream `json:"streams"`
	}](t, resp)
	if len(in.Streams) != 1 || in.Streams[0].Scope != "input" {
		t.Fatalf("Expected one input stream, got %+v", in.Streams)
	}
	st := in.Streams[0]
	if st.VirtualFormat == nil || st.VirtualFormat.SampleRate != 44100 || !st.VirtualFormat.Float {
		t.Errorf("Unexpected virtual format %+v", st.VirtualFormat)
	}
	for _, f := range st.AvailableFormats {
		if f.SampleRate != 44100 {
			t.Errorf("Available format at %v does not match the nominal rate", f.SampleRate)
		}
	}
}

func TestVolume(t *testing.T) {
	api, _ := newTestAPI(t)
	path := "/api/devices/NullAudioDevice_UID/volume"

	resp := api.Put(path, map[string]any{"volume": 0.5})
	expectStatus(t, resp, http.StatusOK)
	v := decode[models.VolumeData](t, resp)
	if v.Volume == nil || *v.Volume != 0.5 || v.Decibels == nil || *v.Decibels != -70.5 {
		t.Errorf("Unexpected volume state %+v", v)
	}
	if !v.CanSetVolume || !v.CanMute {
		t.Errorf("Main channel should be settable and mutable: %+v", v)
	}

	resp = api.Put(path, map[string]any{"decibels": -96, "scope": "input"})
	expectStatus(t, resp, http.StatusOK)
	v = decode[models.VolumeData](t, resp)
	if v.Scope != "input" || *v.Volume != 0 {
		t.Errorf("Expected input volume 0, got %+v", v)
	}

	resp = api.Get(path + "?scope=input")
	expectStatus(t, resp, http.StatusOK)
	if v = decode[models.VolumeData](t, resp); *v.Volume != 0 {
		t.Errorf("Expected persisted input volume 0, got %v", *v.Volume)
	}

	expectStatus(t, api.Put(path, map[string]any{"volume": 0.5, "channel": 1}), http.StatusUnprocessableEntity)
	expectStatus(t, api.Put(path, map[string]any{"volume": 1.5}), http.StatusUnprocessableEntity)
	expectStatus(t, api.Put(path, map[string]any{"channel": 0}), http.StatusBadRequest)
	expectStatus(t, api.Get(path+"?channel=1"), http.StatusNotFound)
}

func TestVirtualMainVolume(t *testing.T) {
	api, _ := newTestAPI(t)
	path := "/api/devices/acme-studio/volume"

	resp := api.Put(path, map[string]any{"virtual": true, "volume": 0.5})
	expectStatus(t, resp, http.StatusOK)
	v := decode[models.VolumeData](t, resp)
	if !v.Virtual || v.Volume == nil || *v.Volume != 0.5 {
		t.Errorf("Unexpected virtual state %+v", v)
	}
	if v.Balance == nil || *v.Balance != 0.5 {
		t.Errorf("Expected centred balance, got %v", v.Balance)
	}

	resp = api.Get(path + "?channel=2")
	expectStatus(t, resp, http.StatusOK)
	if v = decode[models.VolumeData](t, resp); *v.Volume != 0.5 {
		t.Errorf("Expected right channel at 0.5, got %v", *v.Volume)
	}

	expectStatus(t, api.Get(path), http.StatusNotFound)
	expectStatus(t, api.Put(path, map[string]any{"virtual": true, "decibels": -6}), http.StatusBadRequest)
}

func TestMute(t *testing.T) {
	api, _ := newTestAPI(t)
	path := "/api/devices/NullAudioDevice_UID/mute"

	resp := api.Put(path, map[string]any{"muted": true})
	expectStatus(t, resp, http.StatusOK)
	v := decode[models.VolumeData](t, resp)
	if v.Muted == nil || !*v.Muted {
		t.Errorf("Expected muted, got %+v", v)
	}

	resp = api.Put(path, map[string]any{"muted": false})
	expectStatus(t, resp, http.StatusOK)
	if v = decode[models.VolumeData](t, resp); *v.Muted {
		t.Error("Expected unmuted")
	}

	expectStatus(t, api.Put(path, map[string]any{"muted": true, "channel": 2}), http.StatusUnprocessableEntity)
}

func TestStereoPair(t *testing.T) {
	api, _ := newTestAPI(t)
	path := "/api/devices/NullAudioDevice_UID/stereo-pair"

	resp := api.Get(path)
	expectStatus(t, resp, http.StatusOK)
	pair := decode[models.StereoPairData](t, resp)
	if pair.Left != 1 || pair.Right != 2 {
		t.Errorf("Expected 1/2, got %d/%d", pair.Left, pair.Right)
	}

	resp = api.Put(path, map[string]any{"left": 2, "right": 2})
	expectStatus(t, resp, http.StatusOK)
	if pair = decode[models.StereoPairData](t, resp); pair.Left != 2 || pair.Right != 2 {
		t.Errorf("Expected 2/2, got %d/%d", pair.Left, pair.Right)
	}

	expectStatus(t, api.Put(path, map[string]any{"left": 1, "right": 3}), http.StatusUnprocessableEntity)
}

func TestSampleRate(t *testing.T) {
	api, _ := newTestAPI(t)
	path := "/api/devices/NullAudioDevice_UID/sample-rate"

	resp := api.Get(path)
	expectStatus(t, resp, http.StatusOK)
	rate := decode[models.SampleRateData](t, resp)
	if rate.Nominal != 44100 || !rate.Settled || len(rate.Available) != 2 {
		t.Errorf("Unexpected initial rate %+v", rate)
	}

	resp = api.Put(path, map[string]any{"rate": 48000, "wait": true})
	expectStatus(t, resp, http.StatusOK)
	rate = decode[models.SampleRateData](t, resp)
	if rate.Nominal != 48000 || rate.Actual != 48000 || !rate.Settled {
		t.Errorf("Expected settled 48000, got %+v", rate)
	}

	expectStatus(t, api.Put(path, map[string]any{"rate": 22050}), http.StatusUnprocessableEntity)
}

func TestClockSource(t *testing.T) {
	api, _ := newTestAPI(t)

	resp := api.Put("/api/devices/acme-studio/clock-source", map[string]any{"id": 2})
	expectStatus(t, resp, http.StatusOK)
	cs := decode[struct {
		ID   uint32 `json:"id"`
		Name string `json:"name"`
	}](t, resp)
	if cs.ID != 2 || cs.Name != "S/PDIF" {
		t.Errorf("Expected S/PDIF, got %+v", cs)
	}

	expectStatus(t, api.Put("/api/devices/acme-studio/clock-source", map[string]any{"id": 5}), http.StatusUnprocessableEntity)
	expectStatus(t, api.Put("/api/devices/NullAudioDevice_UID/clock-source", map[string]any{"id": 1}), http.StatusUnprocessableEntity)
}

func TestHogMode(t *testing.T) {
	api, h := newTestAPI(t)
	path := "/api/devices/NullAudioDevice_UID/hog"

	resp := api.Post(path)
	expectStatus(t, resp, http.StatusOK)
	hog := decode[models.HogModeData](t, resp)
	if hog.PID != testPID || !hog.Owned {
		t.Errorf("Expected ownership by %d, got %+v", testPID, hog)
	}

	resp = api.Delete(path)
	expectStatus(t, resp, http.StatusOK)
	if hog = decode[models.HogModeData](t, resp); hog.PID != -1 || hog.Owned {
		t.Errorf("Expected release, got %+v", hog)
	}

	id, _ := h.DeviceID("NullAudioDevice_UID")
	if err := h.ForceHogMode(id, 777); err != nil {
		t.Fatalf("ForceHogMode: %v", err)
	}
	expectStatus(t, api.Post(path), http.StatusConflict)
	expectStatus(t, api.Delete(path), http.StatusConflict)
}

func TestAggregateLifecycle(t *testing.T) {
	api, _ := newTestAPI(t)

	resp := api.Post("/api/aggregates", map[string]any{
		"name":   "Studio + Mic",
		"uid":    "studio-mic",
		"main":   "acme-studio",
		"second": "usb-mic",
	})
	expectStatus(t, resp, http.StatusCreated)
	agg := decode[models.DeviceDetail](t, resp)
	if !agg.Aggregate || agg.Transport != "aggregate" {
		t.Errorf("Expected aggregate transport, got %+v", agg.DeviceInfo)
	}
	if len(agg.SubDevices) != 2 {
		t.Errorf("Expected 2 sub-devices, got %v", agg.SubDevices)
	}

	expectStatus(t, api.Get("/api/devices/studio-mic"), http.StatusOK)
	expectStatus(t, api.Post("/api/aggregates", map[string]any{
		"name": "Again", "uid": "studio-mic", "main": "acme-studio",
	}), http.StatusConflict)

	expectStatus(t, api.Delete("/api/aggregates/studio-mic"), http.StatusNoContent)
	expectStatus(t, api.Get("/api/devices/studio-mic"), http.StatusNotFound)
}

func TestAggregateErrors(t *testing.T) {
	api, _ := newTestAPI(t)

	expectStatus(t, api.Post("/api/aggregates", map[string]any{
		"name": "Ghost", "uid": "ghost-agg", "main": "missing",
	}), http.StatusNotFound)
	expectStatus(t, api.Delete("/api/aggregates/acme-studio"), http.StatusConflict)
	expectStatus(t, api.Delete("/api/aggregates/missing"), http.StatusNotFound)
}

func TestLogLevels(t *testing.T) {
	api, _ := newTestAPI(t)

	resp := api.Put("/api/logs/levels", map[string]any{"module": "api", "level": "debug"})
	expectStatus(t, resp, http.StatusOK)
	levels := decode[struct {
		Levels map[string]string `json:"levels"`
	}](t, resp)
	if levels.Levels["api"] != "debug" {
		t.Errorf("Expected api at debug, got %v", levels.Levels)
	}
	t.Cleanup(func() {
		api.Put("/api/logs/levels", map[string]any{"module": "api", "level": "info"})
	})

	expectStatus(t, api.Put("/api/logs/levels", map[string]any{"level": "loud"}), http.StatusUnprocessableEntity)
	expectStatus(t, api.Get("/api/logs?limit=5"), http.StatusOK)
}
