package coreaudio

import "github.com/smazurov/audiohal/pkg/coreaudio/hal"

// HogModePID returns the PID holding exclusive access to the device, or
// hal.HogModeNoOwner. The value is always read from the HAL since another
// process or the system may release it at any time.
func (d *Device) HogModePID() (int32, bool) {
	return read(d.object, hal.Global(hal.PropertyHogMode), hal.Int32)
}

// SetHogMode takes exclusive access for this process. It reports true only
// when the HAL shows this process as the owner afterwards.
func (d *Device) SetHogMode() bool {
	owner, ok := d.HogModePID()
	if !ok {
		return false
	}
	if owner == d.reg.pid {
		return true
	}
	if owner != hal.HogModeNoOwner {
		return false
	}
	if !write(d.object, hal.Global(hal.PropertyHogMode), hal.Int32, d.reg.pid) {
		return false
	}
	owner, ok = d.HogModePID()
	return ok && owner == d.reg.pid
}

// UnsetHogMode releases exclusive access held by this process. When another
// process is the owner nothing is written and false is returned.
func (d *Device) UnsetHogMode() bool {
	owner, ok := d.HogModePID()
	if !ok || owner != d.reg.pid {
		return false
	}
	if !write(d.object, hal.Global(hal.PropertyHogMode), hal.Int32, hal.HogModeNoOwner) {
		return false
	}
	owner, ok = d.HogModePID()
	return ok && owner == hal.HogModeNoOwner
}

// OwnsHogMode reports whether this process currently holds the device.
func (d *Device) OwnsHogMode() bool {
	owner, ok := d.HogModePID()
	return ok && owner == d.reg.pid
}
