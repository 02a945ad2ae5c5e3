package hal

import (
	"fmt"
	"strings"
)

// ObjectID identifies an object inside the HAL. IDs are only valid while the
// object is alive and must not be persisted across process restarts.
type ObjectID uint32

const (
	// UnknownObject is never a valid object.
	UnknownObject ObjectID = 0
	// SystemObject is the root object holding the device list and default roles.
	SystemObject ObjectID = 1
)

// Selector names a property. Selectors are four-character codes.
type Selector uint32

// FourCC packs a four byte code into a big-endian uint32.
func FourCC(code string) uint32 {
	if len(code) != 4 {
		panic(fmt.Sprintf("hal: four character code must be 4 bytes, got %q", code))
	}
	return uint32(code[0])<<24 | uint32(code[1])<<16 | uint32(code[2])<<8 | uint32(code[3])
}

// FourCCString renders a four-character code, falling back to hex when the
// value contains unprintable bytes.
func FourCCString(v uint32) string {
	b := []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("0x%08x", v)
		}
	}
	return string(b)
}

func (s Selector) String() string { return FourCCString(uint32(s)) }

// Scope is the direction a property applies to.
type Scope uint32

// Property scopes.
var (
	ScopeGlobal      = Scope(FourCC("glob"))
	ScopeInput       = Scope(FourCC("inpt"))
	ScopeOutput      = Scope(FourCC("outp"))
	ScopePlayThrough = Scope(FourCC("ptru"))
)

func (s Scope) String() string {
	switch s {
	case ScopeGlobal:
		return "global"
	case ScopeInput:
		return "input"
	case ScopeOutput:
		return "output"
	case ScopePlayThrough:
		return "playthrough"
	default:
		return FourCCString(uint32(s))
	}
}

// ParseScope accepts "input", "output", "global" and their first letters.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "input", "in", "i":
		return ScopeInput, nil
	case "output", "out", "o", "":
		return ScopeOutput, nil
	case "global", "g":
		return ScopeGlobal, nil
	case "playthrough", "thru":
		return ScopePlayThrough, nil
	default:
		return 0, fmt.Errorf("hal: unknown scope %q", s)
	}
}

// Element indexes a property inside a scope. Element 0 is the main
// (master) channel; element N is channel N.
type Element uint32

// ElementMain addresses the main channel or the object as a whole.
const ElementMain Element = 0

// Address identifies one property on one object.
type Address struct {
	Selector Selector
	Scope    Scope
	Element  Element
}

// Global addresses sel in the global scope on the main element.
func Global(sel Selector) Address {
	return Address{Selector: sel, Scope: ScopeGlobal, Element: ElementMain}
}

// Scoped addresses sel in scope on the main element.
func Scoped(sel Selector, scope Scope) Address {
	return Address{Selector: sel, Scope: scope, Element: ElementMain}
}

// Channel addresses sel on channel ch of scope.
func Channel(sel Selector, scope Scope, ch uint32) Address {
	return Address{Selector: sel, Scope: scope, Element: Element(ch)}
}

func (a Address) String() string {
	return fmt.Sprintf("%s/%s/%d", a.Selector, a.Scope, a.Element)
}
