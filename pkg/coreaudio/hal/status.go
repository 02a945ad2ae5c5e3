package hal

import (
	"errors"
	"fmt"
)

// Status is a HAL result code. A non-zero Status is an error.
type Status int32

// StatusOK reports success.
const StatusOK Status = 0

// HAL failure codes.
var (
	StatusNotRunning           = Status(int32(FourCC("stop")))
	StatusUnspecified          = Status(int32(FourCC("what")))
	StatusUnknownProperty      = Status(int32(FourCC("who?")))
	StatusBadPropertySize      = Status(int32(FourCC("!siz")))
	StatusIllegalOperation     = Status(int32(FourCC("nope")))
	StatusBadObject            = Status(int32(FourCC("!obj")))
	StatusBadDevice            = Status(int32(FourCC("!dev")))
	StatusUnsupportedFormat    = Status(int32(FourCC("!dat")))
	StatusUnsupportedOperation = Status(int32(FourCC("unop")))
)

var statusNames = map[Status]string{
	StatusOK:                   "ok",
	StatusNotRunning:           "not running",
	StatusUnspecified:          "unspecified error",
	StatusUnknownProperty:      "unknown property",
	StatusBadPropertySize:      "bad property size",
	StatusIllegalOperation:     "illegal operation",
	StatusBadObject:            "bad object",
	StatusBadDevice:            "bad device",
	StatusUnsupportedFormat:    "unsupported format",
	StatusUnsupportedOperation: "unsupported operation",
}

func (s Status) Error() string {
	if name, ok := statusNames[s]; ok {
		return "hal: " + name
	}
	return fmt.Sprintf("hal: status %d (%s)", int32(s), FourCCString(uint32(s)))
}

// StatusOf extracts the Status from err. Errors that are not a Status map to
// StatusUnspecified; nil maps to StatusOK.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	var s Status
	if errors.As(err, &s) {
		return s
	}
	return StatusUnspecified
}
