package entity

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/1siamBot/sandbox-arena/engine/materials"
)

func TestCostBareHasNoSurcharge(t *testing.T) {
	body := FullEntity{HP: 0, InventorySize: 0, Assets: materials.Materials{Carbon: 5}}
	require.Equal(t, body.Assets, Cost(body))
}

func TestCostWalkerAddsWeightToPlutonium(t *testing.T) {
	gun := 3
	body := FullEntity{
		HP:            10,
		InventorySize: 2,
		Abilities: &Abilities[Full]{
			MovementType: Walk,
			DrillDamage:  1,
			GunDamage:    &gun,
			Brain:        Full{Code: []byte{1, 2, 3}, Gas: 100},
		},
	}
	got := Cost(body)
	wantCarbon := body.HP*body.HP + body.InventorySize*body.InventorySize
	require.Equal(t, wantCarbon, got.Carbon)
	wantPlutonium := Weight(body) + 1 + gun*gun + 3 + 100/10 + 1
	require.Equal(t, wantPlutonium, got.Plutonium)
}

func TestWeightIsHPPlusInventory(t *testing.T) {
	body := FullEntity{HP: 7, InventorySize: 3}
	require.Equal(t, 10, Weight(body))
}
