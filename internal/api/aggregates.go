package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/audiohal/internal/api/models"
	"github.com/smazurov/audiohal/pkg/coreaudio"
	"github.com/smazurov/audiohal/pkg/coreaudio/hal"
)

func (s *Server) registerAggregateRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "create-aggregate",
		Method:        http.MethodPost,
		Path:          "/api/aggregates",
		Summary:       "Create Aggregate Device",
		Description:   "Combine one or two devices into a new aggregate device, clocked by the main device",
		Tags:          []string{"aggregates"},
		Security:      withAuth(),
		DefaultStatus: http.StatusCreated,
		Errors:        []int{401, 404, 409, 422},
	}, func(_ context.Context, input *models.CreateAggregateRequest) (*models.AggregateResponse, error) {
		body := input.Body
		if _, exists := s.registry.DeviceByUID(body.UID); exists {
			return nil, huma.Error409Conflict(fmt.Sprintf("device %q already exists", body.UID))
		}
		mainDevice, err := s.device(body.Main)
		if err != nil {
			return nil, err
		}
		var second *coreaudio.Device
		if body.Second != "" {
			if second, err = s.device(body.Second); err != nil {
				return nil, err
			}
		}

		d, ok := s.registry.CreateAggregateDevice(mainDevice, second, body.Name, body.UID)
		if !ok {
			return nil, huma.Error422UnprocessableEntity("aggregate device was not created")
		}
		return &models.AggregateResponse{Body: deviceDetail(d)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "delete-aggregate",
		Method:        http.MethodDelete,
		Path:          "/api/aggregates/{uid}",
		Summary:       "Delete Aggregate Device",
		Description:   "Destroy an aggregate device and wait until the registry drops it",
		Tags:          []string{"aggregates"},
		Security:      withAuth(),
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{401, 404, 409},
	}, func(ctx context.Context, input *DeviceUIDInput) (*struct{}, error) {
		d, err := s.device(input.UID)
		if err != nil {
			return nil, err
		}
		if err := s.registry.RemoveAggregateDevice(d.ID()); err != nil {
			if errors.Is(err, hal.StatusIllegalOperation) {
				return nil, huma.Error409Conflict(fmt.Sprintf("device %q is not an aggregate", input.UID))
			}
			return nil, huma.Error404NotFound(fmt.Sprintf("device %q not found", input.UID), err)
		}

		ctx, cancel := context.WithTimeout(ctx, s.registry.SettleTimeout())
		defer cancel()
		if !s.registry.WaitForDeviceGone(ctx, d.ID()) {
			s.logger.Warn("Aggregate device still indexed after removal", "uid", input.UID)
		}
		return &struct{}{}, nil
	})
}
