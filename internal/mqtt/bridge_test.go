package mqtt

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/audiohal/internal/events"
	"github.com/smazurov/audiohal/pkg/coreaudio"
	"github.com/smazurov/audiohal/pkg/coreaudio/hal"
	"github.com/smazurov/audiohal/pkg/coreaudio/simhal"
)

type fakeBroker struct {
	mu       sync.Mutex
	retained map[string]string
	handlers map[string]MessageHandler
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{retained: map[string]string{}, handlers: map[string]MessageHandler{}}
}

func (f *fakeBroker) Publish(topic string, payload []byte, retained bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if retained {
		if len(payload) == 0 {
			delete(f.retained, topic)
		} else {
			f.retained[topic] = string(payload)
		}
	}
	return nil
}

func (f *fakeBroker) Subscribe(topic string, handler MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[topic] = handler
	return nil
}

func (f *fakeBroker) get(topic string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.retained[topic]
	return v, ok
}

func (f *fakeBroker) deliver(pattern, topic, payload string) error {
	f.mu.Lock()
	h := f.handlers[pattern]
	f.mu.Unlock()
	if h == nil {
		return errors.New("no handler for " + pattern)
	}
	return h(topic, []byte(payload))
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func newTestBridge(t *testing.T) (*fakeBroker, *events.Bus, *coreaudio.Registry) {
	t.Helper()
	h, err := simhal.NewWithFixture(simhal.Fixture{Devices: []simhal.DeviceSpec{simhal.NullDevice()}})
	if err != nil {
		t.Fatal(err)
	}
	reg := coreaudio.NewRegistry(h)
	if err := reg.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(reg.Stop)

	broker := newFakeBroker()
	bus := events.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	b := NewBridge(broker, Topics{Prefix: "audiohal"}, bus, reg, logger)
	if err := b.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(b.Stop)
	return broker, bus, reg
}

func TestBridgePublishesInitialPresence(t *testing.T) {
	broker, _, _ := newTestBridge(t)

	got, ok := broker.get("audiohal/devices/NullAudioDevice_UID")
	if !ok {
		t.Fatal("Expected retained presence for the null device")
	}
	if !containsAll(got, `"id":`, `"name":"Null Audio Device"`) {
		t.Errorf("Unexpected presence payload %s", got)
	}
}

func TestBridgeMirrorsEvents(t *testing.T) {
	broker, bus, _ := newTestBridge(t)

	events.Publish(bus, events.VolumeChangedEvent{UID: "acme/studio", Scope: "output", Channel: 1, Volume: 0.25})
	events.Publish(bus, events.MuteChangedEvent{UID: "acme/studio", Scope: "input", Channel: 0, Muted: true})
	events.Publish(bus, events.HogModeChangedEvent{UID: "acme/studio", PID: 321})
	events.Publish(bus, events.SampleRateChangedEvent{UID: "acme/studio", Nominal: 48000, Actual: 44100})

	tests := []struct {
		topic string
		want  string
	}{
		{"audiohal/devices/acme_studio/volume/output/1", "0.25"},
		{"audiohal/devices/acme_studio/mute/input/0", "true"},
		{"audiohal/devices/acme_studio/hog_mode", "321"},
		{"audiohal/devices/acme_studio/sample_rate", `{"nominal":48000,"actual":44100,"settled":false}`},
	}
	for _, tt := range tests {
		eventually(t, func() bool {
			got, _ := broker.get(tt.topic)
			return got == tt.want
		}, "expected "+tt.want+" on "+tt.topic)
	}
}

func TestBridgeClearsRemovedDevices(t *testing.T) {
	broker, bus, _ := newTestBridge(t)

	events.Publish(bus, events.DeviceAddedEvent{UID: "usb-mic", ID: 40, Name: "USB Microphone"})
	eventually(t, func() bool {
		_, ok := broker.get("audiohal/devices/usb-mic")
		return ok
	}, "presence not published")

	events.Publish(bus, events.DeviceRemovedEvent{UID: "usb-mic", ID: 40})
	eventually(t, func() bool {
		_, ok := broker.get("audiohal/devices/usb-mic")
		return !ok
	}, "presence not cleared")
}

func TestBridgeAppliesCommands(t *testing.T) {
	broker, _, reg := newTestBridge(t)
	topics := Topics{Prefix: "audiohal"}
	d, ok := reg.DeviceByUID("NullAudioDevice_UID")
	if !ok {
		t.Fatal("null device not indexed")
	}

	if err := broker.deliver(topics.VolumeCommands(), "audiohal/devices/NullAudioDevice_UID/volume/output/0/set", "0.5"); err != nil {
		t.Fatalf("volume command: %v", err)
	}
	if v, _ := d.Volume(0, hal.ScopeOutput); v != 0.5 {
		t.Errorf("Expected volume 0.5, got %v", v)
	}

	if err := broker.deliver(topics.MuteCommands(), "audiohal/devices/NullAudioDevice_UID/mute/input/0/set", "true"); err != nil {
		t.Fatalf("mute command: %v", err)
	}
	if muted, _ := d.IsMuted(0, hal.ScopeInput); !muted {
		t.Error("Expected input muted")
	}

	bad := []struct {
		topic   string
		payload string
	}{
		{"audiohal/devices/NullAudioDevice_UID/volume/output/0/set", "loud"},
		{"audiohal/devices/NullAudioDevice_UID/volume/output/1/set", "0.5"},
		{"audiohal/devices/NullAudioDevice_UID/volume/output/0/set", "1.5"},
		{"audiohal/devices/missing/volume/output/0/set", "0.5"},
		{"audiohal/devices/NullAudioDevice_UID/mute/sideways/0/set", "true"},
	}
	for _, tt := range bad {
		if err := broker.deliver(topics.VolumeCommands(), tt.topic, tt.payload); err == nil {
			t.Errorf("Expected error for %s = %s", tt.topic, tt.payload)
		}
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
