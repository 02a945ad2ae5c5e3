package coreaudio

import (
	"github.com/smazurov/audiohal/pkg/coreaudio/hal"
)

// Object is a HAL object handed out by a Registry.
type Object interface {
	ID() hal.ObjectID
	base() object
}

type object struct {
	id  hal.ObjectID
	reg *Registry
}

// ID returns the HAL object ID. It is only meaningful while the object is alive.
func (o object) ID() hal.ObjectID { return o.id }

func (o object) base() object { return o }

// ClassID returns the HAL class of the object.
func (o object) ClassID() (uint32, bool) {
	return read(o, hal.Global(hal.PropertyClassID), hal.Uint32)
}

// OwnedObjectIDs lists the objects this object owns.
func (o object) OwnedObjectIDs() ([]hal.ObjectID, bool) {
	return read(o, hal.Global(hal.PropertyOwnedObjects), hal.ObjectIDs)
}

// OnPropertyChange calls fn whenever sel changes on this object. The
// callback runs on a HAL goroutine and may be called more than once per
// change.
func (o object) OnPropertyChange(sel hal.Selector, fn func(hal.Address)) (remove func()) {
	return o.reg.hal.AddPropertyListener(o.id, sel, fn)
}

// GetProperty reads any property of obj.
func GetProperty[T any](obj Object, addr hal.Address, c hal.Codec[T]) (T, bool) {
	return read(obj.base(), addr, c)
}

// SetProperty writes any property of obj.
func SetProperty[T any](obj Object, addr hal.Address, c hal.Codec[T], v T) bool {
	return write(obj.base(), addr, c, v)
}

func read[T any](o object, addr hal.Address, c hal.Codec[T]) (T, bool) {
	v, ok := hal.Read(o.reg.hal, o.id, addr, c)
	o.reg.observer.PropertyAccess("read", addr.Selector, ok)
	return v, ok
}

func write[T any](o object, addr hal.Address, c hal.Codec[T], v T) bool {
	ok := hal.Write(o.reg.hal, o.id, addr, c, v)
	o.reg.observer.PropertyAccess("write", addr.Selector, ok)
	if !ok {
		o.reg.logger.Debug("Property write rejected", "object", o.id, "address", addr.String(), "shape", c.Name())
	}
	return ok
}

func translate[In, Out any](o object, addr hal.Address, in hal.Codec[In], v In, out hal.Codec[Out]) (Out, bool) {
	r, ok := hal.Translate(o.reg.hal, o.id, addr, in, v, out)
	o.reg.observer.PropertyAccess("translate", addr.Selector, ok)
	return r, ok
}

func has(o object, addr hal.Address) bool {
	return o.reg.hal.HasProperty(o.id, addr)
}

// settable reports the HAL's write permission flag for addr.
func settable(o object, addr hal.Address) bool {
	if !has(o, addr) {
		return false
	}
	ok, err := o.reg.hal.IsPropertySettable(o.id, addr)
	return err == nil && ok
}
