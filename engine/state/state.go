// Package state holds the single mutable board: a grid of tiles (each
// with a floor material stockpile and at most one entity) plus the
// entities themselves and the three teams' construction template
// tables. All mutation goes through this package so invariants P1-P5
// hold after every call.
package state

import (
	"github.com/pkg/errors"

	"github.com/1siamBot/sandbox-arena/engine/entity"
	"github.com/1siamBot/sandbox-arena/engine/geometry"
	"github.com/1siamBot/sandbox-arena/engine/materials"
)

// Team identifies which side an entity belongs to. Gray is the neutral
// third team used by level-authored structures (resource deposits,
// rubble, scenery) that sit on the board but are not bot-controlled by
// either side.
type Team uint8

const (
	Blue Team = iota
	Gray
	Red
)

// NumTemplates is the size of each team's construction template table.
const NumTemplates = 4

// EntityID uniquely identifies a live board entity. IDs are never
// reused within a match, satisfying invariant P3.
type EntityID uint64

// Tile is one cell of the board: a floor material stockpile and,
// optionally, the entity occupying it.
type Tile struct {
	Materials materials.Materials
	EntityID  *EntityID
}

// State is the entire mutable board.
type State struct {
	tiles         []Tile
	entities      map[EntityID]*entity.FullEntity
	teams         map[EntityID]Team
	blueTemplates [NumTemplates]*entity.FullEntity
	redTemplates  [NumTemplates]*entity.FullEntity
	grayTemplates [NumTemplates]*entity.FullEntity
	nextID        EntityID
}

// New returns an empty board of geometry.Width x geometry.Height tiles.
func New() *State {
	return &State{
		tiles:    make([]Tile, geometry.Width*geometry.Height),
		entities: make(map[EntityID]*entity.FullEntity),
		teams:    make(map[EntityID]Team),
	}
}

var (
	// ErrEmptyTile is returned when an operation required an entity to be
	// present on a tile that has none.
	ErrEmptyTile = errors.New("state: tile is empty")
	// ErrOccupiedTile is returned when an operation required a tile to be
	// free but an entity already occupies it.
	ErrOccupiedTile = errors.New("state: tile is occupied")
	// ErrNoMaterialFloor is returned when a floor stockpile lacks enough
	// of some material to satisfy a transfer.
	ErrNoMaterialFloor = errors.New("state: insufficient floor materials")
	// ErrNoSpace is returned when an entity's inventory cannot hold the
	// requested volume of materials.
	ErrNoSpace = errors.New("state: insufficient inventory space")
	// ErrNoMaterialEntity is returned when an entity's inventory lacks
	// enough of some material to satisfy a transfer.
	ErrNoMaterialEntity = errors.New("state: insufficient entity materials")
	// ErrUnknownEntity is returned when an EntityID has no live entity.
	ErrUnknownEntity = errors.New("state: unknown entity id")
)

// Tiles exposes the tile slice for read-only iteration (codec, replay
// snapshotting). Callers must not mutate the returned slice.
func (s *State) Tiles() []Tile { return s.tiles }

// GetTile returns the tile at p, or an error if p is out of bounds.
func (s *State) GetTile(p geometry.Pos) (Tile, error) {
	if !p.InBounds() {
		return Tile{}, errors.Wrapf(geometry.ErrOutOfBounds, "GetTile(%v)", p)
	}
	return s.tiles[p.ToIndex()], nil
}

// HasEntity reports whether p is occupied.
func (s *State) HasEntity(p geometry.Pos) bool {
	t, err := s.GetTile(p)
	return err == nil && t.EntityID != nil
}

// GetEntity returns the entity at p.
func (s *State) GetEntity(p geometry.Pos) (EntityID, *entity.FullEntity, error) {
	t, err := s.GetTile(p)
	if err != nil {
		return 0, nil, err
	}
	if t.EntityID == nil {
		return 0, nil, errors.Wrapf(ErrEmptyTile, "GetEntity(%v)", p)
	}
	return *t.EntityID, s.entities[*t.EntityID], nil
}

// GetEntityByID looks up a live entity directly by id.
func (s *State) GetEntityByID(id EntityID) (*entity.FullEntity, Team, error) {
	e, ok := s.entities[id]
	if !ok {
		return nil, 0, errors.Wrapf(ErrUnknownEntity, "id %d", id)
	}
	return e, s.teams[id], nil
}

// PositionOf linearly scans for the tile currently holding id. The
// board is small enough (geometry.Width*geometry.Height tiles) that
// this is cheap relative to a turn's WASM execution cost; a reverse
// index is not worth the bookkeeping it would add.
func (s *State) PositionOf(id EntityID) (geometry.Pos, bool) {
	for i, t := range s.tiles {
		if t.EntityID != nil && *t.EntityID == id {
			return geometry.FromIndex(i), true
		}
	}
	return geometry.Pos{}, false
}

// PlaceEntity puts e on tile p under team, assigning it a fresh id.
// p must currently be empty.
func (s *State) PlaceEntity(p geometry.Pos, team Team, e *entity.FullEntity) (EntityID, error) {
	t, err := s.GetTile(p)
	if err != nil {
		return 0, err
	}
	if t.EntityID != nil {
		return 0, errors.Wrapf(ErrOccupiedTile, "PlaceEntity(%v)", p)
	}
	if e.MaxHP == 0 {
		e.MaxHP = e.HP
	}
	s.nextID++
	id := s.nextID
	s.entities[id] = e
	s.teams[id] = team
	s.tiles[p.ToIndex()].EntityID = &id
	return id, nil
}

// RemoveEntity deletes the entity at p and returns its id.
func (s *State) RemoveEntity(p geometry.Pos) (EntityID, error) {
	t, err := s.GetTile(p)
	if err != nil {
		return 0, err
	}
	if t.EntityID == nil {
		return 0, errors.Wrapf(ErrEmptyTile, "RemoveEntity(%v)", p)
	}
	id := *t.EntityID
	delete(s.entities, id)
	delete(s.teams, id)
	s.tiles[p.ToIndex()].EntityID = nil
	return id, nil
}

// MoveEntity relocates the entity on tile from to tile to. to must be
// empty and from must be occupied.
func (s *State) MoveEntity(from, to geometry.Pos) error {
	ft, err := s.GetTile(from)
	if err != nil {
		return errors.Wrap(err, "MoveEntity: from")
	}
	if ft.EntityID == nil {
		return errors.Wrapf(ErrEmptyTile, "MoveEntity: from %v", from)
	}
	tt, err := s.GetTile(to)
	if err != nil {
		return errors.Wrap(err, "MoveEntity: to")
	}
	if tt.EntityID != nil {
		return errors.Wrapf(ErrOccupiedTile, "MoveEntity: to %v", to)
	}
	id := *ft.EntityID
	s.tiles[from.ToIndex()].EntityID = nil
	s.tiles[to.ToIndex()].EntityID = &id
	return nil
}

// GetFloorMaterials returns the floor stockpile at p.
func (s *State) GetFloorMaterials(p geometry.Pos) (materials.Materials, error) {
	t, err := s.GetTile(p)
	if err != nil {
		return materials.Materials{}, err
	}
	return t.Materials, nil
}

// MoveMaterialToEntity transfers amount from the floor at p into the
// inventory of the entity on p, subject to floor availability and
// remaining inventory space (inventory volume capped by InventorySize).
func (s *State) MoveMaterialToEntity(p geometry.Pos, amount materials.Materials) error {
	idx := p.ToIndex()
	tile := s.tiles[idx]
	if !amount.LessEqual(tile.Materials) {
		return errors.Wrapf(ErrNoMaterialFloor, "MoveMaterialToEntity(%v)", p)
	}
	if tile.EntityID == nil {
		return errors.Wrapf(ErrEmptyTile, "MoveMaterialToEntity(%v)", p)
	}
	e := s.entities[*tile.EntityID]
	if e.Assets.Volume()+amount.Volume() > e.InventorySize {
		return errors.Wrapf(ErrNoSpace, "MoveMaterialToEntity(%v)", p)
	}
	s.tiles[idx].Materials.SubAssign(amount)
	e.Assets.AddAssign(amount)
	return nil
}

// MoveMaterialToFloor transfers amount from the inventory of the
// entity on p onto the floor at p, subject to entity availability.
func (s *State) MoveMaterialToFloor(p geometry.Pos, amount materials.Materials) error {
	idx := p.ToIndex()
	tile := s.tiles[idx]
	if tile.EntityID == nil {
		return errors.Wrapf(ErrEmptyTile, "MoveMaterialToFloor(%v)", p)
	}
	e := s.entities[*tile.EntityID]
	if !amount.LessEqual(e.Assets) {
		return errors.Wrapf(ErrNoMaterialEntity, "MoveMaterialToFloor(%v)", p)
	}
	e.Assets.SubAssign(amount)
	s.tiles[idx].Materials.AddAssign(amount)
	return nil
}

// Attack reduces the HP of the entity at p by damage, removing it from
// the board entirely if HP falls to zero or below.
func (s *State) Attack(p geometry.Pos, damage int) error {
	t, err := s.GetTile(p)
	if err != nil {
		return err
	}
	if t.EntityID == nil {
		return errors.Wrapf(ErrEmptyTile, "Attack(%v)", p)
	}
	id := *t.EntityID
	e := s.entities[id]
	e.HP -= damage
	if e.HP <= 0 {
		delete(s.entities, id)
		delete(s.teams, id)
		s.tiles[p.ToIndex()].EntityID = nil
	}
	return nil
}

// GetVisible resolves a line-of-sight query from origin along disp: it
// steps pointwise along the integer segment from origin to
// origin+disp, stopping at (and returning) the first stepped tile that
// holds an entity, or the segment's endpoint if none does. It returns
// an error if any stepped tile, including the endpoint, falls outside
// the board.
func (s *State) GetVisible(origin geometry.Pos, disp geometry.Displace) (geometry.Pos, error) {
	steps := abs(int(disp.DX))
	if h := abs(int(disp.DY)); h > steps {
		steps = h
	}
	if steps == 0 {
		return origin, nil
	}
	var cur geometry.Pos
	for i := 1; i <= steps; i++ {
		cur = geometry.Pos{
			X: origin.X + int(disp.DX)*i/steps,
			Y: origin.Y + int(disp.DY)*i/steps,
		}
		if !cur.InBounds() {
			return geometry.Pos{}, errors.Wrapf(geometry.ErrOutOfBounds, "GetVisible(%v, %+v)", origin, disp)
		}
		if s.HasEntity(cur) {
			return cur, nil
		}
	}
	return cur, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// SetMessage overwrites the broadcast message attached to a live
// entity. Unlike every other mutation, it has no decoded Verb driving
// it — a guest's turn can never produce it on the wire — so it is only
// reachable through this direct call.
func (s *State) SetMessage(id EntityID, msg *string) error {
	e, ok := s.entities[id]
	if !ok {
		return errors.Wrapf(ErrUnknownEntity, "SetMessage id %d", id)
	}
	e.Message = msg
	return nil
}

// Templates returns the construction template table for team.
func (s *State) Templates(team Team) *[NumTemplates]*entity.FullEntity {
	switch team {
	case Blue:
		return &s.blueTemplates
	case Red:
		return &s.redTemplates
	default:
		return &s.grayTemplates
	}
}

// SetFloorMaterials overwrites the floor stockpile at p. Used only by
// level/state construction, never by the action pipeline.
func (s *State) SetFloorMaterials(p geometry.Pos, m materials.Materials) error {
	if !p.InBounds() {
		return errors.Wrapf(geometry.ErrOutOfBounds, "SetFloorMaterials(%v)", p)
	}
	s.tiles[p.ToIndex()].Materials = m
	return nil
}

// TeamOf returns the owning team of a live entity.
func (s *State) TeamOf(id EntityID) (Team, bool) {
	t, ok := s.teams[id]
	return t, ok
}

// SetTemplates overwrites team's construction template table. Used by
// the match driver while building initial state from a Squad, and by
// replay while restoring a genesis snapshot.
func (s *State) SetTemplates(team Team, templates [NumTemplates]*entity.FullEntity) {
	*s.Templates(team) = templates
}

// Entities returns every live entity, keyed by id (Teams holds their
// teams). Used
// only for snapshotting (replay genesis, external inspection); callers
// must not mutate the returned entities in place.
func (s *State) Entities() map[EntityID]*entity.FullEntity {
	return s.entities
}

// Teams returns the team ownership of every live entity, keyed by id.
func (s *State) Teams() map[EntityID]Team {
	return s.teams
}

// RestoreEntity places a previously-recorded entity back at p under id
// and team, without allocating a fresh id. Used only when rebuilding a
// State from a replay genesis snapshot.
func (s *State) RestoreEntity(p geometry.Pos, id EntityID, team Team, e *entity.FullEntity) error {
	t, err := s.GetTile(p)
	if err != nil {
		return err
	}
	if t.EntityID != nil {
		return errors.Wrapf(ErrOccupiedTile, "RestoreEntity(%v)", p)
	}
	s.entities[id] = e
	s.teams[id] = team
	s.tiles[p.ToIndex()].EntityID = &id
	if id > s.nextID {
		s.nextID = id
	}
	return nil
}
