// Package coreaudio is a control-and-query layer over a host audio HAL.
//
// A Registry enumerates the HAL's devices and keeps ID and UID indices
// current as device-list-changed notifications arrive. Devices and streams
// are handed out by the registry and expose typed accessors for the HAL's
// properties: channel volume and mute, the virtual main volume and balance,
// stereo pairing, sample rate and clock source, hog mode, aggregate device
// lifecycle and stream formats.
//
// Accessors never return errors. A property the device does not support,
// a marshaling mismatch, or an object that vanished underneath the caller
// all surface as absence (a false second return value); mutators report
// whether the HAL accepted the write. Writes that reconfigure hardware are
// accepted before they take effect, so callers that need the new state wait
// for it separately (see Device.WaitForSampleRate and Registry.WaitForDevice).
//
// Basic usage:
//
//	reg := coreaudio.NewRegistry(backend, coreaudio.WithLogger(logger))
//	if err := reg.Start(); err != nil {
//		return err
//	}
//	defer reg.Stop()
//
//	out, ok := reg.DefaultDevice(coreaudio.DefaultOutput)
//	if ok && out.CanSetVirtualMainVolume(hal.ScopeOutput) {
//		out.SetVirtualMainVolume(0.5, hal.ScopeOutput)
//	}
package coreaudio
