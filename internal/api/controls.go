package api

import (
	"context"
	"fmt"
	"math"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/audiohal/internal/api/models"
	"github.com/smazurov/audiohal/pkg/coreaudio"
	"github.com/smazurov/audiohal/pkg/coreaudio/hal"
)

// VolumeInput addresses one channel of one scope.
type VolumeInput struct {
	DeviceUIDInput
	Scope   string `query:"scope" enum:"input,output" default:"output"`
	Channel uint32 `query:"channel" doc:"0 is the main channel"`
	Virtual bool   `query:"virtual" doc:"Report the virtual main volume over the stereo pair"`
}

type SetVolumeInput struct {
	DeviceUIDInput
	Body models.SetVolumeBody
}

type SetMuteInput struct {
	DeviceUIDInput
	Body models.SetMuteBody
}

type StereoPairInput struct {
	DeviceUIDInput
	Scope string `query:"scope" enum:"input,output" default:"output"`
}

type SetStereoPairInput struct {
	DeviceUIDInput
	Body models.StereoPairData
}

type SetSampleRateInput struct {
	DeviceUIDInput
	Body models.SetSampleRateBody
}

type SetClockSourceInput struct {
	DeviceUIDInput
	Body models.SetClockSourceBody
}

func (s *Server) registerControlRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-volume",
		Method:      http.MethodGet,
		Path:        "/api/devices/{uid}/volume",
		Summary:     "Get Volume",
		Description: "Get the volume, decibel level and mute state of one channel",
		Tags:        []string{"controls"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 404},
	}, func(_ context.Context, input *VolumeInput) (*models.VolumeResponse, error) {
		d, err := s.device(input.UID)
		if err != nil {
			return nil, err
		}
		scope, err := parseScope(input.Scope)
		if err != nil {
			return nil, err
		}
		return volumeState(d, input.UID, scope, input.Channel, input.Virtual)
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-volume",
		Method:      http.MethodPut,
		Path:        "/api/devices/{uid}/volume",
		Summary:     "Set Volume",
		Description: "Set a channel volume as a scalar or in decibels, or the virtual main volume and balance",
		Tags:        []string{"controls"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 404, 422},
	}, func(_ context.Context, input *SetVolumeInput) (*models.VolumeResponse, error) {
		d, err := s.device(input.UID)
		if err != nil {
			return nil, err
		}
		body := input.Body
		scope, err := parseScope(body.Scope)
		if err != nil {
			return nil, err
		}

		if body.Virtual {
			if body.Decibels != nil {
				return nil, huma.Error400BadRequest("decibels cannot be set on the virtual main volume")
			}
			if body.Volume == nil && body.Balance == nil {
				return nil, huma.Error400BadRequest("volume or balance is required")
			}
			if body.Volume != nil && !d.SetVirtualMainVolume(*body.Volume, scope) {
				return nil, huma.Error422UnprocessableEntity("virtual main volume rejected")
			}
			if body.Balance != nil && !d.SetVirtualMainBalance(*body.Balance, scope) {
				return nil, huma.Error422UnprocessableEntity("virtual main balance rejected")
			}
			return volumeState(d, input.UID, scope, 0, true)
		}

		var v float32
		switch {
		case body.Decibels != nil:
			scalar, ok := d.DecibelsToScalar(*body.Decibels, body.Channel, scope)
			if !ok {
				return nil, huma.Error422UnprocessableEntity(fmt.Sprintf("channel %d has no decibel conversion", body.Channel))
			}
			v = scalar
		case body.Volume != nil:
			v = *body.Volume
		default:
			return nil, huma.Error400BadRequest("volume or decibels is required")
		}
		if !d.SetVolume(v, body.Channel, scope) {
			return nil, huma.Error422UnprocessableEntity(fmt.Sprintf("volume rejected on %s channel %d", scope, body.Channel))
		}
		return volumeState(d, input.UID, scope, body.Channel, false)
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-mute",
		Method:      http.MethodPut,
		Path:        "/api/devices/{uid}/mute",
		Summary:     "Set Mute",
		Description: "Mute or unmute one channel",
		Tags:        []string{"controls"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 404, 422},
	}, func(_ context.Context, input *SetMuteInput) (*models.VolumeResponse, error) {
		d, err := s.device(input.UID)
		if err != nil {
			return nil, err
		}
		scope, err := parseScope(input.Body.Scope)
		if err != nil {
			return nil, err
		}
		if !d.SetMute(input.Body.Muted, input.Body.Channel, scope) {
			return nil, huma.Error422UnprocessableEntity(fmt.Sprintf("mute rejected on %s channel %d", scope, input.Body.Channel))
		}
		return volumeState(d, input.UID, scope, input.Body.Channel, false)
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-stereo-pair",
		Method:      http.MethodGet,
		Path:        "/api/devices/{uid}/stereo-pair",
		Summary:     "Get Stereo Pair",
		Description: "Get the preferred channels for stereo",
		Tags:        []string{"controls"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 404},
	}, func(_ context.Context, input *StereoPairInput) (*models.StereoPairResponse, error) {
		d, err := s.device(input.UID)
		if err != nil {
			return nil, err
		}
		scope, err := parseScope(input.Scope)
		if err != nil {
			return nil, err
		}
		return stereoPair(d, scope)
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-stereo-pair",
		Method:      http.MethodPut,
		Path:        "/api/devices/{uid}/stereo-pair",
		Summary:     "Set Stereo Pair",
		Description: "Set the preferred channels for stereo",
		Tags:        []string{"controls"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 404, 422},
	}, func(_ context.Context, input *SetStereoPairInput) (*models.StereoPairResponse, error) {
		d, err := s.device(input.UID)
		if err != nil {
			return nil, err
		}
		scope, err := parseScope(input.Body.Scope)
		if err != nil {
			return nil, err
		}
		pair := hal.StereoPair{Left: input.Body.Left, Right: input.Body.Right}
		if !d.SetPreferredChannelsForStereo(pair, scope) {
			return nil, huma.Error422UnprocessableEntity(fmt.Sprintf("stereo pair %d/%d rejected", pair.Left, pair.Right))
		}
		return stereoPair(d, scope)
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-sample-rate",
		Method:      http.MethodGet,
		Path:        "/api/devices/{uid}/sample-rate",
		Summary:     "Get Sample Rate",
		Description: "Get the nominal, actual and available sample rates",
		Tags:        []string{"clock"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(_ context.Context, input *DeviceUIDInput) (*models.SampleRateResponse, error) {
		d, err := s.device(input.UID)
		if err != nil {
			return nil, err
		}
		return sampleRate(d, input.UID)
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-sample-rate",
		Method:      http.MethodPut,
		Path:        "/api/devices/{uid}/sample-rate",
		Summary:     "Set Sample Rate",
		Description: "Set the nominal sample rate. With wait, block until the hardware follows or the settle timeout passes.",
		Tags:        []string{"clock"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 404, 422},
	}, func(ctx context.Context, input *SetSampleRateInput) (*models.SampleRateResponse, error) {
		d, err := s.device(input.UID)
		if err != nil {
			return nil, err
		}
		rate := input.Body.Rate
		if !d.SetNominalSampleRate(rate) {
			return nil, huma.Error422UnprocessableEntity(fmt.Sprintf("sample rate %v not supported", rate))
		}
		if input.Body.Wait {
			ctx, cancel := context.WithTimeout(ctx, s.registry.SettleTimeout())
			defer cancel()
			if !d.WaitForSampleRate(ctx, rate) {
				s.logger.Warn("Sample rate did not settle", "uid", input.UID, "rate", rate)
			}
		}
		return sampleRate(d, input.UID)
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-clock-source",
		Method:      http.MethodPut,
		Path:        "/api/devices/{uid}/clock-source",
		Summary:     "Set Clock Source",
		Description: "Select the clock source of a device",
		Tags:        []string{"clock"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 422},
	}, func(_ context.Context, input *SetClockSourceInput) (*models.ClockSourceResponse, error) {
		d, err := s.device(input.UID)
		if err != nil {
			return nil, err
		}
		if !d.SetClockSourceID(input.Body.ID) {
			return nil, huma.Error422UnprocessableEntity(fmt.Sprintf("clock source %d rejected", input.Body.ID))
		}
		resp := &models.ClockSourceResponse{}
		resp.Body.ID, _ = d.ClockSourceID()
		resp.Body.Name, _ = d.ClockSourceName()
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "take-hog-mode",
		Method:      http.MethodPost,
		Path:        "/api/devices/{uid}/hog",
		Summary:     "Take Hog Mode",
		Description: "Take exclusive access to a device for this process",
		Tags:        []string{"hog"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 409},
	}, func(_ context.Context, input *DeviceUIDInput) (*models.HogModeResponse, error) {
		d, err := s.device(input.UID)
		if err != nil {
			return nil, err
		}
		if !d.SetHogMode() {
			pid, _ := d.HogModePID()
			return nil, huma.Error409Conflict(fmt.Sprintf("device is held by process %d", pid))
		}
		return hogMode(d, input.UID), nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "release-hog-mode",
		Method:      http.MethodDelete,
		Path:        "/api/devices/{uid}/hog",
		Summary:     "Release Hog Mode",
		Description: "Release exclusive access held by this process",
		Tags:        []string{"hog"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 409},
	}, func(_ context.Context, input *DeviceUIDInput) (*models.HogModeResponse, error) {
		d, err := s.device(input.UID)
		if err != nil {
			return nil, err
		}
		if !d.UnsetHogMode() {
			return nil, huma.Error409Conflict("device is not held by this process")
		}
		return hogMode(d, input.UID), nil
	})
}

func volumeState(d *coreaudio.Device, uid string, scope hal.Scope, channel uint32, virtual bool) (*models.VolumeResponse, error) {
	data := models.VolumeData{
		UID:     uid,
		Scope:   scope.String(),
		Channel: channel,
		Virtual: virtual,
	}

	if virtual {
		v, ok := d.VirtualMainVolume(scope)
		if !ok {
			return nil, huma.Error404NotFound(fmt.Sprintf("no virtual main volume on %s", scope))
		}
		data.Volume = &v
		if db, ok := d.VirtualMainVolumeInDecibels(scope); ok {
			data.Decibels = &db
		}
		if b, ok := d.VirtualMainBalance(scope); ok {
			data.Balance = &b
		}
		if m, ok := d.IsMainChannelMuted(scope); ok {
			data.Muted = &m
		}
		data.CanSetVolume = d.CanSetVirtualMainVolume(scope)
		data.CanMute = d.CanMuteMainChannel(scope)
		return &models.VolumeResponse{Body: data}, nil
	}

	if v, ok := d.Volume(channel, scope); ok {
		data.Volume = &v
	}
	if db, ok := d.VolumeInDecibels(channel, scope); ok {
		data.Decibels = &db
	}
	if m, ok := d.IsMuted(channel, scope); ok {
		data.Muted = &m
	}
	if data.Volume == nil && data.Muted == nil {
		return nil, huma.Error404NotFound(fmt.Sprintf("%s channel %d has no volume or mute control", scope, channel))
	}
	data.CanSetVolume = d.CanSetVolume(channel, scope)
	data.CanMute = d.CanMute(channel, scope)
	return &models.VolumeResponse{Body: data}, nil
}

func stereoPair(d *coreaudio.Device, scope hal.Scope) (*models.StereoPairResponse, error) {
	pair, ok := d.PreferredChannelsForStereo(scope)
	if !ok {
		return nil, huma.Error404NotFound(fmt.Sprintf("no stereo pair on %s", scope))
	}
	return &models.StereoPairResponse{Body: models.StereoPairData{
		Scope: scope.String(),
		Left:  pair.Left,
		Right: pair.Right,
	}}, nil
}

func sampleRate(d *coreaudio.Device, uid string) (*models.SampleRateResponse, error) {
	nominal, ok := d.NominalSampleRate()
	if !ok {
		return nil, huma.Error404NotFound("device has no nominal sample rate")
	}
	data := models.SampleRateData{UID: uid, Nominal: nominal}
	data.Actual, _ = d.ActualSampleRate()
	data.Available, _ = d.NominalSampleRates()
	data.Settled = math.Abs(data.Actual-nominal) <= 1
	return &models.SampleRateResponse{Body: data}, nil
}

func hogMode(d *coreaudio.Device, uid string) *models.HogModeResponse {
	pid, ok := d.HogModePID()
	if !ok {
		pid = hal.HogModeNoOwner
	}
	return &models.HogModeResponse{Body: models.HogModeData{
		UID:   uid,
		PID:   pid,
		Owned: d.OwnsHogMode(),
	}}
}
