// Package codec implements every bit-exact wire encoding a guest module
// exchanges with the host: board coordinates, displacements, materials,
// view results and the verb a bot's turn decodes to. All encodings are
// little-endian-agnostic by construction — they are built with shifts
// and masks on unsigned integers, never with byte-order-sensitive casts,
// so they round-trip identically regardless of the guest's target.
package codec

import (
	"github.com/pkg/errors"

	"github.com/1siamBot/sandbox-arena/engine/geometry"
	"github.com/1siamBot/sandbox-arena/engine/materials"
)

// EncodeCoord packs a position into the 32-bit wire format (x<<16)|y.
func EncodeCoord(p geometry.Pos) uint32 {
	return uint32(p.X)<<16 | uint32(p.Y)&0xFFFF
}

// DecodeCoord unpacks a position from the wire format EncodeCoord
// produces.
func DecodeCoord(word uint32) geometry.Pos {
	return geometry.Pos{X: int(word >> 16), Y: int(word & 0xFFFF)}
}

// EncodeDisplace packs a displacement into two signed bytes in a u16:
// high byte is DX, low byte is DY.
func EncodeDisplace(d geometry.Displace) uint16 {
	return uint16(uint8(d.DY)) | uint16(uint8(d.DX))<<8
}

// DecodeDisplace unpacks a displacement from the wire format
// EncodeDisplace produces.
func DecodeDisplace(word uint16) geometry.Displace {
	return geometry.Displace{
		DX: int8(word >> 8),
		DY: int8(word & 0xFF),
	}
}

// DecodeDirection maps the wire encoding 0=North,1=West,2=East,3=South
// onto geometry.Direction. The ordinal values match geometry.Direction's
// own iota order, so this is a bounds-checked identity conversion.
func DecodeDirection(v uint8) (geometry.Direction, error) {
	if v > uint8(geometry.South) {
		return 0, errors.Errorf("codec: invalid direction opcode %d", v)
	}
	return geometry.Direction(v), nil
}

// DecodeNeighbor maps the wire encoding 0=Here,1=North,2=West,3=East,
// 4=South onto geometry.Neighbor.
func DecodeNeighbor(v uint8) (geometry.Neighbor, error) {
	if v > uint8(geometry.NeighborSouth) {
		return 0, errors.Errorf("codec: invalid neighbor opcode %d", v)
	}
	return geometry.Neighbor(v), nil
}

// ViewKind discriminates the four shapes a ViewResult can take.
type ViewKind uint8

const (
	ViewEmpty ViewKind = iota
	ViewOutOfBounds
	ViewError
	ViewEntity
)

// ViewResult is the i64 discriminated union get_entity returns to a
// guest: nothing there, out of bounds, a host-side error, or an
// entity's hp plus whether it is an enemy and whether it has a brain.
type ViewResult struct {
	Kind     ViewKind
	HP       int
	IsEnemy  bool
	HasBrain bool
}

// Encode packs a ViewResult into the i64 wire format: top byte is the
// discriminant, the next byte is a bitset of (isEnemy, hasBrain) for
// the Entity variant, and the low 32 bits carry HP for the Entity
// variant.
func (v ViewResult) Encode() int64 {
	var flags uint64
	if v.IsEnemy {
		flags |= 1
	}
	if v.HasBrain {
		flags |= 2
	}
	word := uint64(v.Kind)<<56 | flags<<48 | uint64(uint32(v.HP))
	return int64(word)
}

// DecodeViewResult unpacks the i64 wire format Encode produces.
func DecodeViewResult(word int64) ViewResult {
	u := uint64(word)
	kind := ViewKind(u >> 56)
	flags := (u >> 48) & 0xFF
	hp := int(int32(uint32(u)))
	return ViewResult{
		Kind:     kind,
		HP:       hp,
		IsEnemy:  flags&1 != 0,
		HasBrain: flags&2 != 0,
	}
}

// EncodeTileMaterials packs a floor materials reading into the i64 a
// guest receives for a query over terrain rather than an entity: the
// low 32 bits are the standard materials.Encode() word, the high bits
// are zero.
func EncodeTileMaterials(m materials.Materials) int64 {
	return int64(uint64(m.Encode()))
}

// DecodeTileMaterials unpacks the wire format EncodeTileMaterials
// produces.
func DecodeTileMaterials(word int64) materials.Materials {
	return materials.Decode(uint32(uint64(word)))
}

// VerbOpcode identifies which action a decoded Verb represents.
type VerbOpcode uint8

const (
	OpWait VerbOpcode = iota
	OpAttemptMove
	OpGetMaterials
	OpDropMaterials
	OpShoot
	OpDrill
	OpConstruct
)

// Verb is a bot's decoded turn action. Only the fields relevant to Op
// are meaningful; the rest are zero.
type Verb struct {
	Op          VerbOpcode
	Direction   geometry.Direction
	Neighbor    geometry.Neighbor
	Materials   materials.Materials
	Displace    geometry.Displace
	TemplateIdx uint8
}

// Encode packs a Verb into the i64 wire format: the opcode occupies the
// top byte; the remaining 56 bits hold the opcode-specific payload,
// packed low-to-high in the order the fields are listed for that
// opcode below.
func (v Verb) Encode() int64 {
	word := uint64(v.Op) << 56
	switch v.Op {
	case OpWait:
	case OpAttemptMove:
		word |= uint64(v.Direction)
	case OpGetMaterials, OpDropMaterials:
		word |= uint64(v.Neighbor)
		word |= uint64(v.Materials.Encode()) << 8
	case OpShoot:
		word |= uint64(EncodeDisplace(v.Displace))
	case OpDrill:
		word |= uint64(v.Direction)
	case OpConstruct:
		word |= uint64(v.TemplateIdx)
		word |= uint64(v.Direction) << 8
	}
	return int64(word)
}

// Decode unpacks a Verb from the i64 wire format Encode produces. It
// never fails: an unrecognized opcode, or a recognized opcode with a
// malformed payload (an out-of-range direction or neighbor), decodes to
// Wait rather than propagating an error. A guest module is untrusted
// code; the only sound contract for what it hands back is "always a
// well-formed Verb".
func Decode(word int64) Verb {
	u := uint64(word)
	op := VerbOpcode(u >> 56)
	payload := u & 0x00FFFFFFFFFFFFFF

	switch op {
	case OpWait:
		return Verb{Op: OpWait}
	case OpAttemptMove:
		d, err := DecodeDirection(uint8(payload))
		if err != nil {
			return Verb{Op: OpWait}
		}
		return Verb{Op: OpAttemptMove, Direction: d}
	case OpGetMaterials, OpDropMaterials:
		n, err := DecodeNeighbor(uint8(payload))
		if err != nil {
			return Verb{Op: OpWait}
		}
		m := materials.Decode(uint32(payload >> 8))
		return Verb{Op: op, Neighbor: n, Materials: m}
	case OpShoot:
		d := DecodeDisplace(uint16(payload))
		return Verb{Op: OpShoot, Displace: d}
	case OpDrill:
		d, err := DecodeDirection(uint8(payload))
		if err != nil {
			return Verb{Op: OpWait}
		}
		return Verb{Op: OpDrill, Direction: d}
	case OpConstruct:
		idx := uint8(payload)
		d, err := DecodeDirection(uint8(payload >> 8))
		if err != nil {
			return Verb{Op: OpWait}
		}
		return Verb{Op: OpConstruct, TemplateIdx: idx, Direction: d}
	default:
		return Verb{Op: OpWait}
	}
}

// Invert rewrites v into board-absolute terms for a Red-team bot: every
// Direction, Neighbor and Displace it carries is mirrored 180 degrees.
func (v Verb) Invert() Verb {
	out := v
	switch v.Op {
	case OpAttemptMove, OpDrill:
		out.Direction = v.Direction.Invert()
	case OpGetMaterials, OpDropMaterials:
		out.Neighbor = v.Neighbor.Invert()
	case OpShoot:
		out.Displace = v.Displace.Invert()
	case OpConstruct:
		out.Direction = v.Direction.Invert()
	}
	return out
}
