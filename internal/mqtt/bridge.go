package mqtt

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/smazurov/audiohal/internal/events"
	"github.com/smazurov/audiohal/pkg/coreaudio"
	"github.com/smazurov/audiohal/pkg/coreaudio/hal"
)

// Broker is the part of Client the bridge needs.
type Broker interface {
	Publish(topic string, payload []byte, retained bool) error
	Subscribe(topic string, handler MessageHandler) error
}

type presence struct {
	ID   uint32 `json:"id"`
	Name string `json:"name"`
}

type sampleRateState struct {
	Nominal float64 `json:"nominal"`
	Actual  float64 `json:"actual"`
	Settled bool    `json:"settled"`
}

// Bridge mirrors device state from the event bus into retained MQTT topics
// and applies volume and mute commands received on set topics.
type Bridge struct {
	broker   Broker
	topics   Topics
	bus      *events.Bus
	registry *coreaudio.Registry
	logger   *slog.Logger

	mu     sync.Mutex
	unsubs []func()
}

// NewBridge creates a bridge. Call Start to begin mirroring.
func NewBridge(broker Broker, topics Topics, bus *events.Bus, registry *coreaudio.Registry, logger *slog.Logger) *Bridge {
	return &Bridge{
		broker:   broker,
		topics:   topics,
		bus:      bus,
		registry: registry,
		logger:   logger,
	}
}

// Start publishes the presence of every current device, then follows the bus.
func (b *Bridge) Start() error {
	b.mu.Lock()
	b.unsubs = append(b.unsubs,
		events.Subscribe(b.bus, b.onDeviceAdded),
		events.Subscribe(b.bus, b.onDeviceRemoved),
		events.Subscribe(b.bus, b.onVolumeChanged),
		events.Subscribe(b.bus, b.onMuteChanged),
		events.Subscribe(b.bus, b.onSampleRateChanged),
		events.Subscribe(b.bus, b.onHogModeChanged),
	)
	b.mu.Unlock()

	for _, d := range b.registry.Devices() {
		uid, ok := d.UID()
		if !ok {
			continue
		}
		name, _ := d.Name()
		b.publishJSON(b.topics.Device(uid), presence{ID: uint32(d.ID()), Name: name})
	}

	if err := b.broker.Subscribe(b.topics.VolumeCommands(), b.handleCommand); err != nil {
		return fmt.Errorf("subscribe volume commands: %w", err)
	}
	if err := b.broker.Subscribe(b.topics.MuteCommands(), b.handleCommand); err != nil {
		return fmt.Errorf("subscribe mute commands: %w", err)
	}
	return nil
}

// Stop unsubscribes from the bus.
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, unsub := range b.unsubs {
		unsub()
	}
	b.unsubs = nil
}

func (b *Bridge) onDeviceAdded(e events.DeviceAddedEvent) {
	b.publishJSON(b.topics.Device(e.UID), presence{ID: e.ID, Name: e.Name})
}

// An empty retained payload clears the retained presence.
func (b *Bridge) onDeviceRemoved(e events.DeviceRemovedEvent) {
	b.publish(b.topics.Device(e.UID), nil)
}

func (b *Bridge) onVolumeChanged(e events.VolumeChangedEvent) {
	b.publish(b.topics.Volume(e.UID, e.Scope, e.Channel),
		[]byte(strconv.FormatFloat(float64(e.Volume), 'g', -1, 32)))
}

func (b *Bridge) onMuteChanged(e events.MuteChangedEvent) {
	b.publish(b.topics.Mute(e.UID, e.Scope, e.Channel), []byte(strconv.FormatBool(e.Muted)))
}

func (b *Bridge) onSampleRateChanged(e events.SampleRateChangedEvent) {
	b.publishJSON(b.topics.SampleRate(e.UID), sampleRateState{Nominal: e.Nominal, Actual: e.Actual, Settled: e.Settled})
}

func (b *Bridge) onHogModeChanged(e events.HogModeChangedEvent) {
	b.publish(b.topics.HogMode(e.UID), []byte(strconv.FormatInt(int64(e.PID), 10)))
}

func (b *Bridge) publishJSON(topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		b.logger.Error("Failed to encode MQTT payload", "topic", topic, "error", err)
		return
	}
	b.publish(topic, payload)
}

func (b *Bridge) publish(topic string, payload []byte) {
	if err := b.broker.Publish(topic, payload, true); err != nil {
		b.logger.Warn("MQTT publish failed", "topic", topic, "error", err)
	}
}

func (b *Bridge) handleCommand(topic string, payload []byte) error {
	cmd, ok := b.topics.ParseCommand(topic)
	if !ok {
		return fmt.Errorf("unrecognised command topic %q", topic)
	}
	d, ok := b.device(cmd.UID)
	if !ok {
		return fmt.Errorf("unknown device %q", cmd.UID)
	}
	scope, err := hal.ParseScope(cmd.Scope)
	if err != nil {
		return err
	}
	value := strings.TrimSpace(string(payload))

	switch cmd.Control {
	case "volume":
		v, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return fmt.Errorf("invalid volume %q: %w", value, err)
		}
		if !d.SetVolume(float32(v), cmd.Channel, scope) {
			return fmt.Errorf("volume %v rejected on %s channel %d", v, scope, cmd.Channel)
		}
	case "mute":
		muted, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid mute %q: %w", value, err)
		}
		if !d.SetMute(muted, cmd.Channel, scope) {
			return fmt.Errorf("mute rejected on %s channel %d", scope, cmd.Channel)
		}
	}
	b.logger.Debug("MQTT command applied", "topic", topic, "value", value)
	return nil
}

// device finds a device by the escaped UID used in topics.
func (b *Bridge) device(escaped string) (*coreaudio.Device, bool) {
	if d, ok := b.registry.DeviceByUID(escaped); ok {
		return d, true
	}
	for _, d := range b.registry.Devices() {
		if uid, ok := d.UID(); ok && Escape(uid) == escaped {
			return d, true
		}
	}
	return nil, false
}
