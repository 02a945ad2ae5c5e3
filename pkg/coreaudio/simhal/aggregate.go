package simhal

import (
	"slices"

	"github.com/smazurov/audiohal/pkg/coreaudio/hal"
)

// CreateAggregateDevice implements hal.HAL. The device is published
// immediately but only announced through an asynchronous
// device-list-changed notification.
func (h *HAL) CreateAggregateDevice(desc hal.AggregateDescription) (hal.ObjectID, error) {
	if desc.UID == "" || desc.Name == "" || desc.MainSubDevice == "" {
		return 0, hal.StatusIllegalOperation
	}

	h.mu.Lock()
	if h.deviceByUID(desc.UID) != nil {
		h.mu.Unlock()
		return 0, hal.StatusIllegalOperation
	}
	uids := []string{desc.MainSubDevice}
	for _, uid := range desc.SubDevices {
		if !slices.Contains(uids, uid) {
			uids = append(uids, uid)
		}
	}
	subs := make([]*object, 0, len(uids))
	for _, uid := range uids {
		sub := h.deviceByUID(uid)
		if sub == nil {
			h.mu.Unlock()
			return 0, hal.StatusBadDevice
		}
		subs = append(subs, sub)
	}

	main := subs[0].dev.spec
	spec := DeviceSpec{
		Name:              desc.Name,
		Manufacturer:      "Apple Inc.",
		UID:               desc.UID,
		Transport:         "aggregate",
		Hidden:            desc.Private,
		SampleRates:       main.SampleRates,
		NominalSampleRate: main.nominalRate(),
		BufferFrameSize:   main.BufferFrameSize,
	}
	for _, sub := range subs {
		spec.InputChannels += sub.dev.channels[hal.ScopeInput]
		spec.OutputChannels += sub.dev.channels[hal.ScopeOutput]
	}

	o := h.buildDevice(spec, hal.ClassAggregateDevice)
	stored := desc
	stored.SubDevices = slices.Clone(desc.SubDevices)
	o.dev.aggregate = &stored

	owned, _ := hal.ObjectIDs.Decode(o.props[hal.Global(hal.PropertyOwnedObjects)].data)
	related := []hal.ObjectID{o.id}
	for _, sub := range subs {
		o.dev.subs = append(o.dev.subs, sub.id)
		related = append(related, sub.id)
	}
	owned = append(append([]hal.ObjectID(nil), o.dev.subs...), owned...)
	o.put(hal.Global(hal.PropertyOwnedObjects), hal.ObjectIDs.Encode(owned), false)
	o.put(hal.Global(hal.PropertyRelatedDevices), hal.ObjectIDs.Encode(related), false)

	changes := h.publish(o)
	h.mu.Unlock()

	go func() {
		h.emit(changes)
		h.emitDeviceList()
	}()
	return o.id, nil
}

// DestroyAggregateDevice implements hal.HAL. Only aggregate devices can be
// destroyed.
func (h *HAL) DestroyAggregateDevice(id hal.ObjectID) error {
	h.mu.Lock()
	o, ok := h.objects[id]
	if !ok || o.dev == nil {
		h.mu.Unlock()
		return hal.StatusBadObject
	}
	if o.dev.aggregate == nil {
		h.mu.Unlock()
		return hal.StatusIllegalOperation
	}
	changes := h.unpublish(o)
	h.mu.Unlock()

	h.emit(changes)
	h.emitDeviceList()
	return nil
}

// Aggregate returns the description an aggregate was created from.
func (h *HAL) Aggregate(id hal.ObjectID) (hal.AggregateDescription, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	o, ok := h.objects[id]
	if !ok || o.dev == nil || o.dev.aggregate == nil {
		return hal.AggregateDescription{}, false
	}
	return *o.dev.aggregate, true
}
