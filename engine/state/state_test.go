package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/1siamBot/sandbox-arena/engine/entity"
	"github.com/1siamBot/sandbox-arena/engine/geometry"
	"github.com/1siamBot/sandbox-arena/engine/materials"
)

func TestPlaceGetRemoveEntity(t *testing.T) {
	s := New()
	p := geometry.Pos{X: 1, Y: 1}
	e := &entity.FullEntity{HP: 10, InventorySize: 5}
	id, err := s.PlaceEntity(p, Blue, e)
	require.NoError(t, err)

	gotID, gotE, err := s.GetEntity(p)
	require.NoError(t, err)
	require.Equal(t, id, gotID)
	require.Same(t, e, gotE)

	_, err = s.RemoveEntity(p)
	require.NoError(t, err)
	require.False(t, s.HasEntity(p), "tile should be empty after RemoveEntity")
}

func TestPlaceEntityOccupiedTile(t *testing.T) {
	s := New()
	p := geometry.Pos{X: 2, Y: 2}
	_, err := s.PlaceEntity(p, Blue, &entity.FullEntity{})
	require.NoError(t, err)
	_, err = s.PlaceEntity(p, Red, &entity.FullEntity{})
	require.Error(t, err, "expected occupied-tile error")
}

func TestMoveEntity(t *testing.T) {
	s := New()
	from := geometry.Pos{X: 0, Y: 0}
	to := geometry.Pos{X: 1, Y: 0}
	id, _ := s.PlaceEntity(from, Blue, &entity.FullEntity{})
	require.NoError(t, s.MoveEntity(from, to))

	gotID, _, err := s.GetEntity(to)
	require.NoError(t, err)
	require.Equal(t, id, gotID)
	require.False(t, s.HasEntity(from), "origin tile should be empty after move")
}

func TestMaterialTransfers(t *testing.T) {
	s := New()
	p := geometry.Pos{X: 3, Y: 3}
	require.NoError(t, s.SetFloorMaterials(p, materials.Materials{Carbon: 10}))
	_, err := s.PlaceEntity(p, Blue, &entity.FullEntity{InventorySize: 20})
	require.NoError(t, err)

	require.NoError(t, s.MoveMaterialToEntity(p, materials.Materials{Carbon: 4}))
	floor, _ := s.GetFloorMaterials(p)
	require.Equal(t, 6, floor.Carbon)

	require.NoError(t, s.MoveMaterialToFloor(p, materials.Materials{Carbon: 1}))
	floor, _ = s.GetFloorMaterials(p)
	require.Equal(t, 7, floor.Carbon)
}

func TestMoveMaterialToEntityRespectsInventorySpace(t *testing.T) {
	s := New()
	p := geometry.Pos{X: 4, Y: 4}
	s.SetFloorMaterials(p, materials.Materials{Carbon: 100})
	s.PlaceEntity(p, Blue, &entity.FullEntity{InventorySize: 2})
	err := s.MoveMaterialToEntity(p, materials.Materials{Carbon: 50})
	require.Error(t, err, "expected insufficient space error")
}

func TestAttackRemovesEntityAtZeroHP(t *testing.T) {
	s := New()
	p := geometry.Pos{X: 5, Y: 5}
	s.PlaceEntity(p, Red, &entity.FullEntity{HP: 5})
	require.NoError(t, s.Attack(p, 10))
	require.False(t, s.HasEntity(p), "entity should be removed once HP reaches zero")
}

func TestAttackWoundsWithoutKilling(t *testing.T) {
	s := New()
	p := geometry.Pos{X: 6, Y: 6}
	s.PlaceEntity(p, Red, &entity.FullEntity{HP: 5})
	require.NoError(t, s.Attack(p, 2))

	_, e, err := s.GetEntity(p)
	require.NoError(t, err)
	require.Equal(t, 3, e.HP)
}

func TestGetVisibleStopsAtFirstOccupiedTile(t *testing.T) {
	s := New()
	origin := geometry.Pos{X: 10, Y: 10}
	s.PlaceEntity(geometry.Pos{X: 12, Y: 10}, Blue, &entity.FullEntity{})

	got, err := s.GetVisible(origin, geometry.Displace{DX: 4, DY: 0})
	require.NoError(t, err)
	require.Equal(t, geometry.Pos{X: 12, Y: 10}, got)
}

func TestGetVisibleReturnsEndpointWhenEmpty(t *testing.T) {
	s := New()
	origin := geometry.Pos{X: 10, Y: 10}

	got, err := s.GetVisible(origin, geometry.Displace{DX: 3, DY: 0})
	require.NoError(t, err)
	require.Equal(t, geometry.Pos{X: 13, Y: 10}, got)
}

func TestGetVisibleRejectsOutOfBoundsEndpoint(t *testing.T) {
	s := New()
	origin := geometry.Pos{X: 0, Y: 0}

	_, err := s.GetVisible(origin, geometry.Displace{DX: -1, DY: 0})
	require.Error(t, err, "expected out-of-bounds error")
}

func TestPlaceEntityDefaultsMaxHP(t *testing.T) {
	s := New()
	p := geometry.Pos{X: 7, Y: 7}
	s.PlaceEntity(p, Blue, &entity.FullEntity{HP: 8})

	_, e, err := s.GetEntity(p)
	require.NoError(t, err)
	require.Equal(t, 8, e.MaxHP)
}

func TestSetMessageOverwritesEntityMessage(t *testing.T) {
	s := New()
	p := geometry.Pos{X: 8, Y: 8}
	id, _ := s.PlaceEntity(p, Blue, &entity.FullEntity{HP: 5})

	require.NoError(t, s.SetMessage(id, nil))
	msg := "hi"
	require.NoError(t, s.SetMessage(id, &msg))

	_, e, err := s.GetEntity(p)
	require.NoError(t, err)
	require.Equal(t, "hi", *e.Message)
}
