// Package hal defines the boundary between this module and a host audio
// hardware abstraction layer: how properties are addressed, how their raw
// data is marshaled into typed values, and the interface a HAL backend
// implements.
//
// Reads and writes never return errors to the caller. An unsupported
// address, a size mismatch or any HAL status yields absence (Read) or false
// (Write); callers re-read to discover current state.
package hal

// HAL is the host hardware abstraction layer.
//
// Notifications are delivered asynchronously on goroutines the caller does
// not control. Delivery is at least once; listeners must be idempotent.
type HAL interface {
	// DeviceIDs enumerates the devices currently published by the HAL.
	DeviceIDs() ([]ObjectID, error)

	HasProperty(id ObjectID, addr Address) bool
	IsPropertySettable(id ObjectID, addr Address) (bool, error)
	PropertyDataSize(id ObjectID, addr Address) (uint32, error)
	// GetPropertyData reads a property. The qualifier carries the input of
	// translation properties and is nil otherwise.
	GetPropertyData(id ObjectID, addr Address, qualifier []byte) ([]byte, error)
	SetPropertyData(id ObjectID, addr Address, data []byte) error

	// AddDeviceListListener registers fn for device-list-changed
	// notifications and returns a function that removes it.
	AddDeviceListListener(fn func()) (remove func())
	// AddPropertyListener registers fn for changes of sel on object id, on
	// any scope or element.
	AddPropertyListener(id ObjectID, sel Selector, fn func(Address)) (remove func())

	// CreateAggregateDevice submits a creation request. The new device is
	// published through a later device-list-changed notification.
	CreateAggregateDevice(desc AggregateDescription) (ObjectID, error)
	DestroyAggregateDevice(id ObjectID) error
}

// AggregateDescription is the construction request for a composite device.
// Sub-devices are referenced by UID.
type AggregateDescription struct {
	Name          string
	UID           string
	MainSubDevice string
	SubDevices    []string
	// Private aggregates are not offered to users as selectable devices.
	Private bool
	Stacked bool
}

// Read fetches the property at addr and decodes it with c.
func Read[T any](h HAL, id ObjectID, addr Address, c Codec[T]) (T, bool) {
	var zero T
	if h == nil || !h.HasProperty(id, addr) {
		return zero, false
	}
	size, err := h.PropertyDataSize(id, addr)
	if err != nil || !c.Fits(size) {
		return zero, false
	}
	data, err := h.GetPropertyData(id, addr, nil)
	if err != nil {
		return zero, false
	}
	return c.Decode(data)
}

// Write encodes v with c and stores it at addr.
func Write[T any](h HAL, id ObjectID, addr Address, c Codec[T], v T) bool {
	if h == nil || !h.HasProperty(id, addr) {
		return false
	}
	settable, err := h.IsPropertySettable(id, addr)
	if err != nil || !settable {
		return false
	}
	if c.Size() > 0 {
		size, sizeErr := h.PropertyDataSize(id, addr)
		if sizeErr != nil || !c.Fits(size) {
			return false
		}
	}
	return h.SetPropertyData(id, addr, c.Encode(v)) == nil
}

// Translate reads a translation property: in is encoded as the qualifier
// and the result decoded with out.
func Translate[In, Out any](h HAL, id ObjectID, addr Address, in Codec[In], v In, out Codec[Out]) (Out, bool) {
	var zero Out
	if h == nil || !h.HasProperty(id, addr) {
		return zero, false
	}
	data, err := h.GetPropertyData(id, addr, in.Encode(v))
	if err != nil {
		return zero, false
	}
	return out.Decode(data)
}
