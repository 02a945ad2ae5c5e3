package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/audiohal/internal/api/models"
	"github.com/smazurov/audiohal/pkg/coreaudio"
	"github.com/smazurov/audiohal/pkg/coreaudio/hal"
)

// DeviceUIDInput selects a device by UID.
type DeviceUIDInput struct {
	UID string `path:"uid" example:"NullAudioDevice_UID" doc:"Persistent device UID"`
}

// DeviceListInput filters the device list.
type DeviceListInput struct {
	Direction string `query:"direction" enum:"input,output" doc:"Only devices with channels in this direction"`
}

// StreamListInput selects the streams of one scope, or of both when empty.
type StreamListInput struct {
	DeviceUIDInput
	Scope string `query:"scope" enum:"input,output"`
}

func (s *Server) registerDeviceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-devices",
		Method:      http.MethodGet,
		Path:        "/api/devices",
		Summary:     "List Devices",
		Description: "List every device the registry has indexed",
		Tags:        []string{"devices"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, input *DeviceListInput) (*models.DeviceListResponse, error) {
		var devices []*coreaudio.Device
		switch input.Direction {
		case "input":
			devices = s.registry.InputDevices()
		case "output":
			devices = s.registry.OutputDevices()
		default:
			devices = s.registry.Devices()
		}

		resp := &models.DeviceListResponse{}
		resp.Body.Devices = make([]models.DeviceInfo, 0, len(devices))
		for _, d := range devices {
			resp.Body.Devices = append(resp.Body.Devices, deviceInfo(d))
		}
		resp.Body.Count = len(resp.Body.Devices)
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-device",
		Method:      http.MethodGet,
		Path:        "/api/devices/{uid}",
		Summary:     "Get Device",
		Description: "Get detailed information about one device",
		Tags:        []string{"devices"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(_ context.Context, input *DeviceUIDInput) (*models.DeviceResponse, error) {
		d, err := s.device(input.UID)
		if err != nil {
			return nil, err
		}
		return &models.DeviceResponse{Body: deviceDetail(d)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-device-streams",
		Method:      http.MethodGet,
		Path:        "/api/devices/{uid}/streams",
		Summary:     "List Streams",
		Description: "List the streams of a device with their current and available formats",
		Tags:        []string{"devices"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(_ context.Context, input *StreamListInput) (*models.StreamListResponse, error) {
		d, err := s.device(input.UID)
		if err != nil {
			return nil, err
		}
		scopes := []hal.Scope{hal.ScopeOutput, hal.ScopeInput}
		if input.Scope != "" {
			scope, err := parseScope(input.Scope)
			if err != nil {
				return nil, err
			}
			scopes = []hal.Scope{scope}
		}

		resp := &models.StreamListResponse{}
		resp.Body.Streams = []models.Stream{}
		for _, scope := range scopes {
			streams, ok := d.Streams(scope)
			if !ok {
				continue
			}
			for _, st := range streams {
				resp.Body.Streams = append(resp.Body.Streams, streamInfo(st, scope))
			}
		}
		resp.Body.Count = len(resp.Body.Streams)
		return resp, nil
	})
}

// device resolves a UID or returns a 404 error.
func (s *Server) device(uid string) (*coreaudio.Device, error) {
	d, ok := s.registry.DeviceByUID(uid)
	if !ok {
		return nil, huma.Error404NotFound(fmt.Sprintf("device %q not found", uid))
	}
	return d, nil
}

func parseScope(s string) (hal.Scope, error) {
	scope, err := hal.ParseScope(s)
	if err != nil || (scope != hal.ScopeInput && scope != hal.ScopeOutput) {
		return 0, huma.Error400BadRequest(fmt.Sprintf("invalid scope %q", s))
	}
	return scope, nil
}

func deviceInfo(d *coreaudio.Device) models.DeviceInfo {
	info := models.DeviceInfo{
		ID:                  uint32(d.ID()),
		Aggregate:           d.IsAggregate(),
		DefaultInput:        d.IsDefaultInput(),
		DefaultOutput:       d.IsDefaultOutput(),
		DefaultSystemOutput: d.IsDefaultSystemOutput(),
		HogModePID:          hal.HogModeNoOwner,
	}
	info.UID, _ = d.UID()
	info.Name, _ = d.Name()
	info.Manufacturer, _ = d.Manufacturer()
	transport, _ := d.TransportType()
	info.Transport = transport.String()
	info.InputChannels, _ = d.Channels(hal.ScopeInput)
	info.OutputChannels, _ = d.Channels(hal.ScopeOutput)
	info.NominalSampleRate, _ = d.NominalSampleRate()
	info.Alive, _ = d.IsAlive()
	info.Running, _ = d.IsRunning()
	info.Hidden, _ = d.IsHidden()
	if pid, ok := d.HogModePID(); ok {
		info.HogModePID = pid
	}
	return info
}

func deviceDetail(d *coreaudio.Device) models.DeviceDetail {
	detail := models.DeviceDetail{DeviceInfo: deviceInfo(d)}
	detail.ModelUID, _ = d.ModelUID()
	detail.ActualSampleRate, _ = d.ActualSampleRate()
	detail.NominalSampleRates, _ = d.NominalSampleRates()
	detail.OutputLatency, _ = d.Latency(hal.ScopeOutput)
	detail.InputLatency, _ = d.Latency(hal.ScopeInput)
	detail.BufferFrameSize, _ = d.BufferFrameSize()

	if ids, ok := d.ClockSourceIDs(); ok {
		for _, id := range ids {
			name, _ := d.ClockSourceNameForID(id)
			detail.ClockSources = append(detail.ClockSources, models.ClockSource{ID: id, Name: name})
		}
	}
	if id, ok := d.ClockSourceID(); ok {
		detail.ClockSourceID = &id
	}
	if subs, ok := d.OwnedAggregateDevices(); ok {
		for _, sub := range subs {
			if uid, ok := sub.UID(); ok {
				detail.SubDevices = append(detail.SubDevices, uid)
			}
		}
	}
	return detail
}

func streamInfo(st *coreaudio.Stream, scope hal.Scope) models.Stream {
	out := models.Stream{
		ID:    uint32(st.ID()),
		Scope: scope.String(),
	}
	out.Name, _ = st.Name()
	terminal, _ := st.TerminalType()
	out.Terminal = terminal.String()
	out.StartingChannel, _ = st.StartingChannel()
	out.Latency, _ = st.Latency()
	out.Active, _ = st.IsActive()
	if f, ok := st.VirtualFormat(); ok {
		m := formatModel(f)
		out.VirtualFormat = &m
	}
	if f, ok := st.PhysicalFormat(); ok {
		m := formatModel(f)
		out.PhysicalFormat = &m
	}
	if formats, ok := st.AvailablePhysicalFormatsMatchingNominalRate(); ok {
		for _, f := range formats {
			out.AvailableFormats = append(out.AvailableFormats, formatModel(f))
		}
	}
	return out
}

func formatModel(f hal.StreamFormat) models.Format {
	return models.Format{
		SampleRate:       f.SampleRate,
		FormatID:         hal.FourCCString(f.FormatID),
		ChannelsPerFrame: f.ChannelsPerFrame,
		BitsPerChannel:   f.BitsPerChannel,
		Float:            f.FormatFlags&hal.FormatFlagIsFloat != 0,
		Mixable:          f.Mixable(),
	}
}
