package coreaudio

import (
	"context"

	"github.com/smazurov/audiohal/pkg/coreaudio/hal"
)

// CreateAggregateDevice asks the HAL for a new aggregate device built from
// main and, when not nil, second. A second equal to main is ignored so the
// descriptor never lists a sub-device twice. The HAL announces the device
// asynchronously; CreateAggregateDevice waits up to the settle timeout for
// the registry to index it under uid.
func (r *Registry) CreateAggregateDevice(main, second *Device, name, uid string) (*Device, bool) {
	if main == nil || name == "" || uid == "" {
		return nil, false
	}
	mainUID, ok := main.UID()
	if !ok {
		return nil, false
	}
	desc := hal.AggregateDescription{
		Name:          name,
		UID:           uid,
		MainSubDevice: mainUID,
		SubDevices:    []string{mainUID},
	}
	if second != nil && !second.Equal(main) {
		secondUID, ok := second.UID()
		if !ok {
			return nil, false
		}
		desc.SubDevices = append(desc.SubDevices, secondUID)
	}

	id, err := r.hal.CreateAggregateDevice(desc)
	if err != nil {
		r.logger.Warn("Aggregate device creation rejected", "uid", uid, "error", err)
		return nil, false
	}
	r.logger.Debug("Aggregate device requested", "uid", uid, "id", id, "sub_devices", desc.SubDevices)

	ctx, cancel := context.WithTimeout(context.Background(), r.settleTimeout)
	defer cancel()
	d, ok := r.WaitForDevice(ctx, uid)
	if !ok {
		r.logger.Warn("Aggregate device did not appear", "uid", uid, "timeout", r.settleTimeout)
		return nil, false
	}
	r.logger.Info("Aggregate device created", "uid", uid, "id", d.ID())
	return d, true
}

// RemoveAggregateDevice destroys an aggregate device. On success the ID
// stops resolving once the HAL's device-list-changed notification has been
// reconciled; use WaitForDeviceGone to observe that. A rejected destruction
// leaves the device indexed.
func (r *Registry) RemoveAggregateDevice(id hal.ObjectID) error {
	if err := r.hal.DestroyAggregateDevice(id); err != nil {
		r.logger.Warn("Aggregate device removal rejected", "id", id, "error", err)
		return err
	}
	r.logger.Info("Aggregate device removed", "id", id)
	return nil
}

// OwnedAggregateDevices returns the sub-devices of an aggregate device:
// owned objects that resolve to indexed devices with a UID.
func (d *Device) OwnedAggregateDevices() ([]*Device, bool) {
	ids, ok := d.OwnedObjectIDs()
	if !ok {
		return nil, false
	}
	var subs []*Device
	for _, sub := range d.reg.resolve(ids) {
		if sub.id == d.id {
			continue
		}
		if _, ok := sub.UID(); ok {
			subs = append(subs, sub)
		}
	}
	return subs, true
}

// IsAggregate reports whether d owns any sub-devices.
//
// This is a heuristic: plain devices own streams and controls, which have
// no UID, while aggregates also own their sub-devices, which do. Treat it
// as an observation of the HAL, not a guarantee.
func (d *Device) IsAggregate() bool {
	subs, ok := d.OwnedAggregateDevices()
	return ok && len(subs) > 0
}

// OwnedAggregateInputDevices returns the sub-devices with input channels.
func (d *Device) OwnedAggregateInputDevices() ([]*Device, bool) {
	return d.ownedAggregates(hal.ScopeInput)
}

// OwnedAggregateOutputDevices returns the sub-devices with output channels.
func (d *Device) OwnedAggregateOutputDevices() ([]*Device, bool) {
	return d.ownedAggregates(hal.ScopeOutput)
}

func (d *Device) ownedAggregates(scope hal.Scope) ([]*Device, bool) {
	subs, ok := d.OwnedAggregateDevices()
	if !ok {
		return nil, false
	}
	var out []*Device
	for _, sub := range subs {
		if n, ok := sub.LayoutChannels(scope); ok && n > 0 {
			out = append(out, sub)
		}
	}
	return out, true
}
