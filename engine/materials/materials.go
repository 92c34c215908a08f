// Package materials implements the four-resource inventory (carbon,
// silicon, plutonium, copper) carried by entities and floor tiles, its
// saturating 32-bit wire encoding, and the partial order used to check
// whether one inventory fits inside another.
package materials

// Materials is a four-component resource quantity. Field order mirrors
// the wire encoding's byte order (copper highest, carbon lowest).
type Materials struct {
	Carbon    int `json:"c"`
	Silicon   int `json:"s"`
	Plutonium int `json:"p"`
	Copper    int `json:"o"`
}

// Add returns the component-wise sum of a and b.
func Add(a, b Materials) Materials {
	return Materials{
		Carbon:    a.Carbon + b.Carbon,
		Silicon:   a.Silicon + b.Silicon,
		Plutonium: a.Plutonium + b.Plutonium,
		Copper:    a.Copper + b.Copper,
	}
}

// Sub returns the component-wise difference a - b.
func Sub(a, b Materials) Materials {
	return Materials{
		Carbon:    a.Carbon - b.Carbon,
		Silicon:   a.Silicon - b.Silicon,
		Plutonium: a.Plutonium - b.Plutonium,
		Copper:    a.Copper - b.Copper,
	}
}

// AddAssign adds b into *a in place.
func (a *Materials) AddAssign(b Materials) { *a = Add(*a, b) }

// SubAssign subtracts b from *a in place.
func (a *Materials) SubAssign(b Materials) { *a = Sub(*a, b) }

// Volume is the sum of all four components, used as the single scalar
// "how much stuff" an inventory slot holds.
func (m Materials) Volume() int {
	return m.Carbon + m.Silicon + m.Plutonium + m.Copper
}

// NonNegative reports whether every component of m is >= 0 (invariant
// P4 on any stored Materials value).
func (m Materials) NonNegative() bool {
	return m.Carbon >= 0 && m.Silicon >= 0 && m.Plutonium >= 0 && m.Copper >= 0
}

// LessEqual reports whether every component of a is <= the matching
// component of b. Unlike a total order, two Materials values can be
// mutually LessEqual-false (neither fits inside the other) — callers
// that need a definite ordering must check both directions explicitly,
// the same way the reference partial order does.
func (a Materials) LessEqual(b Materials) bool {
	return a.Carbon <= b.Carbon && a.Silicon <= b.Silicon &&
		a.Plutonium <= b.Plutonium && a.Copper <= b.Copper
}

// saturate clamps v into [0,255], the range a single wire byte can hold.
func saturate(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Encode packs m into the 32-bit wire format:
// copper<<24 | plutonium<<16 | silicon<<8 | carbon, each component
// saturated to a byte.
func (m Materials) Encode() uint32 {
	c := uint32(saturate(m.Carbon))
	s := uint32(saturate(m.Silicon))
	p := uint32(saturate(m.Plutonium))
	o := uint32(saturate(m.Copper))
	return o<<24 | p<<16 | s<<8 | c
}

// Decode unpacks the 32-bit wire format produced by Encode.
func Decode(word uint32) Materials {
	return Materials{
		Carbon:    int(word & 0xFF),
		Silicon:   int((word >> 8) & 0xFF),
		Plutonium: int((word >> 16) & 0xFF),
		Copper:    int((word >> 24) & 0xFF),
	}
}
