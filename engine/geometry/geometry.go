// Package geometry implements the board's coordinate system: absolute
// positions, the four cardinal directions, neighbor offsets and the
// bounded relative displacement bots use to address nearby tiles.
//
// Every type here also knows how to invert itself across the board's
// center, which is how a Red-team bot's view of the world is built: Red
// always sees and acts on a board rotated 180 degrees from Blue's.
package geometry

import (
	"github.com/pkg/errors"
)

// Width and Height are the fixed board dimensions. They are compile-time
// constants rather than runtime configuration because every encoded
// Coord, every bounds check and every invert() depends on them being
// stable for the lifetime of a match (and of a replay recorded against
// one).
const (
	Width  = 60
	Height = 60
)

// ErrOutOfBounds is returned when a position falls outside [0,Width) x
// [0,Height).
var ErrOutOfBounds = errors.New("geometry: position out of bounds")

// ErrDisplaceOutOfBounds is returned by AddDisplace when the displacement
// itself exceeds Range on either axis.
var ErrDisplaceOutOfBounds = errors.New("geometry: displaced position out of bounds")

// Pos is an absolute board position.
type Pos struct {
	X, Y int
}

// InBounds reports whether p lies within the board.
func (p Pos) InBounds() bool {
	return p.X >= 0 && p.Y >= 0 && p.X < Width && p.Y < Height
}

// ToIndex returns the tile-slice index for p, matching the row-major
// layout used throughout the state and codec packages.
func (p Pos) ToIndex() int {
	return p.X + p.Y*Width
}

// FromIndex is the inverse of ToIndex.
func FromIndex(i int) Pos {
	return Pos{X: i % Width, Y: i / Width}
}

// Invert rotates p 180 degrees around the board center. This is the
// transform applied to every position, direction and displacement a
// Red-team bot perceives or emits.
func (p Pos) Invert() Pos {
	return Pos{X: Width - p.X - 1, Y: Height - p.Y - 1}
}

// Direction is one of the four cardinal directions a unit can move or
// drill in.
type Direction uint8

const (
	North Direction = iota
	West
	East
	South
)

// Invert returns the opposite direction, used when translating a
// Red-team bot's intent into board-absolute terms.
func (d Direction) Invert() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	default:
		return d
	}
}

// Delta returns the unit offset this direction moves a position by.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case South:
		return 0, 1
	case East:
		return 1, 0
	case West:
		return -1, 0
	default:
		return 0, 0
	}
}

// Apply returns the position one step from p in direction d, without
// bounds checking.
func (p Pos) Apply(d Direction) Pos {
	dx, dy := d.Delta()
	return Pos{X: p.X + dx, Y: p.Y + dy}
}

// Neighbor identifies a tile adjacent to (or coincident with) an entity:
// the entity's own tile, or one of the four cardinal neighbors.
type Neighbor uint8

const (
	Here Neighbor = iota
	NeighborNorth
	NeighborWest
	NeighborEast
	NeighborSouth
)

// Invert maps a neighbor to its 180-degree counterpart.
func (n Neighbor) Invert() Neighbor {
	switch n {
	case NeighborNorth:
		return NeighborSouth
	case NeighborSouth:
		return NeighborNorth
	case NeighborEast:
		return NeighborWest
	case NeighborWest:
		return NeighborEast
	default:
		return n
	}
}

// Pos returns the absolute position a neighbor refers to relative to
// origin, without bounds checking.
func (n Neighbor) Pos(origin Pos) Pos {
	switch n {
	case NeighborNorth:
		return origin.Apply(North)
	case NeighborWest:
		return origin.Apply(West)
	case NeighborEast:
		return origin.Apply(East)
	case NeighborSouth:
		return origin.Apply(South)
	default:
		return origin
	}
}

// AreNeighbors reports whether b is reachable from a via some Neighbor
// (including a == b).
func AreNeighbors(a, b Pos) bool {
	if a == b {
		return true
	}
	dx := a.X - b.X
	dy := a.Y - b.Y
	return (dx == 0 && (dy == 1 || dy == -1)) || (dy == 0 && (dx == 1 || dx == -1))
}

// Range is the maximum per-axis magnitude of a Displace accepted by
// InRange and AddDisplace, i.e. how far the host's get_materials and
// get_entity imports let a bot look.
const Range = 5

// Displace is a small signed offset, wire-encoded as two signed bytes.
// A bot uses it to name a tile within Range of its own position without
// knowing the absolute board coordinates.
type Displace struct {
	DX, DY int8
}

// Invert negates both axes, translating a Red-team bot's displacement
// into board-absolute terms.
func (d Displace) Invert() Displace {
	return Displace{DX: -d.DX, DY: -d.DY}
}

// InRange reports whether neither axis of d exceeds Range in magnitude.
// This is a disjunction over the two axes: out of range means "this OR
// that axis is too far", not "both axes are too far" — the latter is a
// mistake the reference implementation this engine descends from made,
// and it is deliberately not repeated here (see DESIGN.md).
func (d Displace) InRange() bool {
	return !(abs8(d.DX) > Range || abs8(d.DY) > Range)
}

func abs8(v int8) int8 {
	if v < 0 {
		return -v
	}
	return v
}

// SquareNorm returns the squared Euclidean norm of d (dx*dx + dy*dy).
func (d Displace) SquareNorm() int {
	x := int(d.DX)
	y := int(d.DY)
	return x*x + y*y
}

// AddDisplace applies a displacement to an origin, returning an error if
// the result falls outside either Range or the board.
func AddDisplace(origin Pos, d Displace) (Pos, error) {
	if !d.InRange() {
		return Pos{}, errors.Wrapf(ErrDisplaceOutOfBounds, "displace (%d,%d) exceeds range %d", d.DX, d.DY, Range)
	}
	p := Pos{X: origin.X + int(d.DX), Y: origin.Y + int(d.DY)}
	if !p.InBounds() {
		return Pos{}, errors.Wrapf(ErrOutOfBounds, "displaced position (%d,%d)", p.X, p.Y)
	}
	return p, nil
}
