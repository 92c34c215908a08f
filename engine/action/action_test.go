package action

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/1siamBot/sandbox-arena/engine/codec"
	"github.com/1siamBot/sandbox-arena/engine/entity"
	"github.com/1siamBot/sandbox-arena/engine/geometry"
	"github.com/1siamBot/sandbox-arena/engine/materials"
	"github.com/1siamBot/sandbox-arena/engine/state"
)

func walker(hp int) *entity.FullEntity {
	return &entity.FullEntity{
		HP:            hp,
		InventorySize: 10,
		Abilities:     &entity.Abilities[entity.Full]{MovementType: entity.Walk},
	}
}

func TestValidateApplyWait(t *testing.T) {
	s := state.New()
	id, _ := s.PlaceEntity(geometry.Pos{X: 5, Y: 5}, state.Blue, walker(10))
	eff, err := Validate(s, id, codec.Verb{Op: codec.OpWait})
	require.NoError(t, err)
	_, err = Apply(s, eff)
	require.NoError(t, err)
}

func TestValidateMoveRejectsOccupiedDestination(t *testing.T) {
	s := state.New()
	id, _ := s.PlaceEntity(geometry.Pos{X: 5, Y: 5}, state.Blue, walker(10))
	s.PlaceEntity(geometry.Pos{X: 5, Y: 4}, state.Red, walker(10))
	_, err := Validate(s, id, codec.Verb{Op: codec.OpAttemptMove, Direction: geometry.North})
	require.Error(t, err, "expected destination-blocked error")
}

func TestValidateMoveRejectsImmobileEntity(t *testing.T) {
	s := state.New()
	id, _ := s.PlaceEntity(geometry.Pos{X: 5, Y: 5}, state.Blue, &entity.FullEntity{HP: 10})
	_, err := Validate(s, id, codec.Verb{Op: codec.OpAttemptMove, Direction: geometry.North})
	require.Error(t, err, "expected cannot-move error")
}

func TestApplyMoveMutatesBoard(t *testing.T) {
	s := state.New()
	from := geometry.Pos{X: 5, Y: 5}
	id, _ := s.PlaceEntity(from, state.Blue, walker(10))
	eff, err := Validate(s, id, codec.Verb{Op: codec.OpAttemptMove, Direction: geometry.North})
	require.NoError(t, err)
	_, err = Apply(s, eff)
	require.NoError(t, err)

	want := from.Apply(geometry.North)
	gotID, _, err := s.GetEntity(want)
	require.NoError(t, err)
	require.Equal(t, id, gotID)
}

func gunner(hp, copper int) *entity.FullEntity {
	gun := 5
	return &entity.FullEntity{
		HP:        hp,
		Assets:    materials.Materials{Copper: copper},
		Abilities: &entity.Abilities[entity.Full]{GunDamage: &gun},
	}
}

func TestShootAppliesDamage(t *testing.T) {
	s := state.New()
	id, _ := s.PlaceEntity(geometry.Pos{X: 10, Y: 10}, state.Blue, gunner(10, 1))
	s.PlaceEntity(geometry.Pos{X: 11, Y: 10}, state.Red, &entity.FullEntity{HP: 3})

	eff, err := Validate(s, id, codec.Verb{Op: codec.OpShoot, Displace: geometry.Displace{DX: 1, DY: 0}})
	require.NoError(t, err)
	require.True(t, eff.Hit)
	_, err = Apply(s, eff)
	require.NoError(t, err)
	require.False(t, s.HasEntity(geometry.Pos{X: 11, Y: 10}), "target should have died (hp 3, damage 5)")
}

func TestShootRejectsWithoutCopper(t *testing.T) {
	s := state.New()
	id, _ := s.PlaceEntity(geometry.Pos{X: 10, Y: 10}, state.Blue, gunner(10, 0))
	s.PlaceEntity(geometry.Pos{X: 11, Y: 10}, state.Red, &entity.FullEntity{HP: 3})

	_, err := Validate(s, id, codec.Verb{Op: codec.OpShoot, Displace: geometry.Displace{DX: 1, DY: 0}})
	require.ErrorIs(t, err, ErrNoCopper)
}

func TestShootRejectsBeyondSquareNormLimit(t *testing.T) {
	s := state.New()
	id, _ := s.PlaceEntity(geometry.Pos{X: 10, Y: 10}, state.Blue, gunner(10, 1))

	// square_norm = 16+16 = 32 > 25, even though each axis is within Range.
	_, err := Validate(s, id, codec.Verb{Op: codec.OpShoot, Displace: geometry.Displace{DX: 4, DY: 4}})
	require.ErrorIs(t, err, ErrTooFar)
}

func TestShootAcceptsExactSquareNormLimit(t *testing.T) {
	s := state.New()
	id, _ := s.PlaceEntity(geometry.Pos{X: 10, Y: 10}, state.Blue, gunner(10, 1))

	// square_norm = 9+16 = 25, exactly at the limit.
	eff, err := Validate(s, id, codec.Verb{Op: codec.OpShoot, Displace: geometry.Displace{DX: 3, DY: 4}})
	require.NoError(t, err)
	require.False(t, eff.Hit, "nothing occupies the resolved tile")
}

func TestShootStopsAtFirstEntityAlongLineOfSight(t *testing.T) {
	s := state.New()
	id, _ := s.PlaceEntity(geometry.Pos{X: 10, Y: 10}, state.Blue, gunner(10, 1))
	// blocker sits between the shooter and the displaced endpoint.
	s.PlaceEntity(geometry.Pos{X: 12, Y: 10}, state.Red, &entity.FullEntity{HP: 3})
	s.PlaceEntity(geometry.Pos{X: 14, Y: 10}, state.Red, &entity.FullEntity{HP: 3})

	eff, err := Validate(s, id, codec.Verb{Op: codec.OpShoot, Displace: geometry.Displace{DX: 4, DY: 0}})
	require.NoError(t, err)
	require.Equal(t, geometry.Pos{X: 12, Y: 10}, eff.To, "shot should resolve to the nearer blocker, not the endpoint")
	require.True(t, eff.Hit)
}

func TestShootMissIsNotAnError(t *testing.T) {
	s := state.New()
	id, _ := s.PlaceEntity(geometry.Pos{X: 10, Y: 10}, state.Blue, gunner(10, 1))

	eff, err := Validate(s, id, codec.Verb{Op: codec.OpShoot, Displace: geometry.Displace{DX: 3, DY: 0}})
	require.NoError(t, err)
	require.False(t, eff.Hit)
	_, err = Apply(s, eff)
	require.NoError(t, err, "a miss must apply cleanly, not error on the empty target tile")
}

func TestSetMessageAttachesToEntity(t *testing.T) {
	s := state.New()
	id, _ := s.PlaceEntity(geometry.Pos{X: 5, Y: 5}, state.Blue, walker(10))

	eff, err := ValidateSetMessage(s, id, "hello")
	require.NoError(t, err)
	_, err = Apply(s, eff)
	require.NoError(t, err)

	_, e, err := s.GetEntity(geometry.Pos{X: 5, Y: 5})
	require.NoError(t, err)
	require.NotNil(t, e.Message)
	require.Equal(t, "hello", *e.Message)
}

func TestSetMessageTruncatesLongInput(t *testing.T) {
	s := state.New()
	id, _ := s.PlaceEntity(geometry.Pos{X: 5, Y: 5}, state.Blue, walker(10))

	long := make([]byte, MaxMessageLen+10)
	for i := range long {
		long[i] = 'x'
	}
	eff, err := ValidateSetMessage(s, id, string(long))
	require.NoError(t, err)
	require.Len(t, *eff.Message, MaxMessageLen)
}

func TestGetMaterialsRejectsInsufficientFloor(t *testing.T) {
	s := state.New()
	p := geometry.Pos{X: 8, Y: 8}
	id, _ := s.PlaceEntity(p, state.Blue, walker(10))
	s.SetFloorMaterials(p, materials.Materials{Carbon: 1})
	_, err := Validate(s, id, codec.Verb{Op: codec.OpGetMaterials, Neighbor: geometry.Here, Materials: materials.Materials{Carbon: 5}})
	require.Error(t, err, "expected insufficient floor material error")
}

func TestValidateNeverMutates(t *testing.T) {
	s := state.New()
	from := geometry.Pos{X: 2, Y: 2}
	id, _ := s.PlaceEntity(from, state.Blue, walker(10))
	_, err := Validate(s, id, codec.Verb{Op: codec.OpAttemptMove, Direction: geometry.North})
	require.NoError(t, err)

	gotID, _, err := s.GetEntity(from)
	require.NoError(t, err, "Validate must not move the entity; only Apply may")
	require.Equal(t, id, gotID)
}
