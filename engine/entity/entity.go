// Package entity defines the three-rung entity "brain" model: a Bare
// entity has no code at all, a Half entity names two sub-templates
// (used for construction blueprints), and a Full entity additionally
// carries the compiled WASM code and its gas budget.
package entity

import "github.com/1siamBot/sandbox-arena/engine/materials"

// MovementType describes how an entity may traverse the board.
type MovementType uint8

const (
	Still MovementType = iota
	Walk
	Fly
)

// NumSubEntities is the width of the sub-template reference array a
// Full entity's brain carries. Construct does not consult it: a builder
// may construct from any index of its team's template table.
const NumSubEntities = 2

// Abilities describes what an entity with a brain of type T can do
// beyond sitting on the board: move, drill, optionally shoot, and run
// its brain.
type Abilities[T any] struct {
	MovementType MovementType
	DrillDamage  int
	GunDamage    *int
	Brain        T
}

// Entity is the generic entity shape shared by all three brain rungs.
// HP, InventorySize and Assets are meaningful regardless of rung;
// Abilities is nil for units that can never act (turrets, resource
// deposits, rubble).
type Entity[T any] struct {
	HP            int
	MaxHP         int
	InventorySize int
	Assets        materials.Materials
	Abilities     *Abilities[T]
	// Message is a short broadcast message the entity's brain has set via
	// SetMessage, attached to its tile for observers; purely
	// informational, nil until set.
	Message *string `json:",omitempty"`
}

// Half is the brain carried by a Half-rung entity: two optional indices
// into the owning team's template table. They are recorded only; the
// Construct action does not check them.
type Half struct {
	SubEntities [2]*uint8
}

// Full is the brain carried by a Full-rung entity: the sub-template
// references a Half has, plus the compiled guest module and its
// per-turn gas budget.
type Full struct {
	SubEntities [NumSubEntities]*uint8
	Code        []byte
	Gas         uint64
}

// BareEntity, HalfEntity and FullEntity are the three rungs of the
// brain model, from least to most capable.
type (
	BareEntity = Entity[struct{}]
	HalfEntity = Entity[Half]
	FullEntity = Entity[Full]
)

// Weight is the mass figure used to scale movement cost in Cost: HP
// plus inventory size.
func Weight(body FullEntity) int {
	return body.HP + body.InventorySize
}

// Cost prices a Full entity in Materials: its raw assets, plus a
// quadratic carbon surcharge for durability (HP, inventory size), plus
// a plutonium surcharge for everything a brain gives it (movement,
// drilling, shooting, code size and gas budget). The quadratic/weighted
// terms exist so a squad cannot trade a few expensive, overpowered
// units for a compatibility check that only looks at token counts.
func Cost(body FullEntity) materials.Materials {
	w := Weight(body)
	result := body.Assets
	result.Carbon += body.HP * body.HP
	result.Carbon += body.InventorySize * body.InventorySize
	if a := body.Abilities; a != nil {
		switch a.MovementType {
		case Walk:
			result.Plutonium += w
		case Fly:
			result.Plutonium += w * w
		}
		result.Plutonium += a.DrillDamage
		if a.GunDamage != nil {
			d := *a.GunDamage
			result.Plutonium += d * d
		}
		result.Plutonium += len(a.Brain.Code)
		result.Plutonium += int(a.Brain.Gas)/10 + 1
	}
	return result
}
