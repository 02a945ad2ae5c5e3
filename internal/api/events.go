package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/audiohal/internal/events"
)

// registerSSERoutes registers the device event stream.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time device list and property changes. The current device list is sent first as device-added events.",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"device-added":        events.DeviceAddedEvent{},
		"device-removed":      events.DeviceRemovedEvent{},
		"volume-changed":      events.VolumeChangedEvent{},
		"mute-changed":        events.MuteChangedEvent{},
		"sample-rate-changed": events.SampleRateChangedEvent{},
		"hog-mode-changed":    events.HogModeChangedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 32)

		// Subscribe before the snapshot so nothing between the two is lost.
		unsubscribers := []func(){
			events.SubscribeToChannel[events.DeviceAddedEvent](s.bus, eventCh),
			events.SubscribeToChannel[events.DeviceRemovedEvent](s.bus, eventCh),
			events.SubscribeToChannel[events.VolumeChangedEvent](s.bus, eventCh),
			events.SubscribeToChannel[events.MuteChangedEvent](s.bus, eventCh),
			events.SubscribeToChannel[events.SampleRateChangedEvent](s.bus, eventCh),
			events.SubscribeToChannel[events.HogModeChangedEvent](s.bus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		ts := time.Now().UTC().Format(time.RFC3339)
		for _, d := range s.registry.Devices() {
			uid, _ := d.UID()
			name, _ := d.Name()
			if err := send.Data(events.DeviceAddedEvent{UID: uid, ID: uint32(d.ID()), Name: name, Timestamp: ts}); err != nil {
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
