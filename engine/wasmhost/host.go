// Package wasmhost sandboxes a team's compiled bot modules behind
// Wasmer and exposes the three host imports a guest's execute() export
// can call: get_coord, get_materials and get_entity. Every call and
// every turn is metered against a gas budget; a guest that traps or
// runs out of gas contributes nothing but a Wait for that turn rather
// than failing the match.
package wasmhost

import (
	"github.com/pkg/errors"
	"github.com/wasmerio/wasmer-go/wasmer"

	"github.com/1siamBot/sandbox-arena/engine/codec"
	"github.com/1siamBot/sandbox-arena/engine/geometry"
	"github.com/1siamBot/sandbox-arena/engine/state"
)

// costPerHostCall is the gas charged for each get_coord/get_materials/
// get_entity import a guest invokes. Wasmer's own fuel-metering
// middleware instruments every guest instruction; this module meters
// only at the host-import boundary instead, which is coarser but
// sufficient to bound a misbehaving or infinite-looping bot to a fixed
// number of board queries per turn without depending on a specific
// Cranelift/Wasmer middleware version being available.
const costPerHostCall = 10

// ErrOutOfGas is returned (and causes the turn to resolve as Wait) when
// a brain exhausts its per-turn gas budget mid-execution.
var ErrOutOfGas = errors.New("wasmhost: brain ran out of gas")

// turnContext is the mutable per-call environment a brain's imports
// close over: which entity is acting, its team (for perspective
// inversion) and its remaining gas.
type turnContext struct {
	board  *state.State
	actor  state.EntityID
	pos    geometry.Pos
	team   state.Team
	gasLeft uint64
}

func (tc *turnContext) charge() error {
	if tc.gasLeft < costPerHostCall {
		return ErrOutOfGas
	}
	tc.gasLeft -= costPerHostCall
	return nil
}

// Brain wraps one compiled guest module, instantiated once and reused
// turn after turn; only the turnContext closed over by its imports
// changes between turns.
type Brain struct {
	store    *wasmer.Store
	module   *wasmer.Module
	instance *wasmer.Instance
	ctx      *turnContext
}

// Compile compiles wasmBytes against a fresh Wasmer store and wires the
// three host imports, each reading and charging against brain.ctx.
func Compile(wasmBytes []byte, board *state.State) (*Brain, error) {
	engine := wasmer.NewEngine()
	store := wasmer.NewStore(engine)
	module, err := wasmer.NewModule(store, wasmBytes)
	if err != nil {
		return nil, errors.Wrap(err, "wasmhost: compile module")
	}

	b := &Brain{store: store, module: module, ctx: &turnContext{board: board}}

	getCoord := wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(), wasmer.NewValueTypes(wasmer.I32)),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := b.ctx.charge(); err != nil {
				return nil, err
			}
			pos := b.ctx.pos
			if b.ctx.team == state.Red {
				pos = pos.Invert()
			}
			return []wasmer.Value{wasmer.NewI32(int32(codec.EncodeCoord(pos)))}, nil
		},
	)

	getMaterials := wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32), wasmer.NewValueTypes(wasmer.I64)),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := b.ctx.charge(); err != nil {
				return nil, err
			}
			displ := codec.DecodeDisplace(uint16(args[0].I32()))
			if b.ctx.team == state.Red {
				displ = displ.Invert()
			}
			if !displ.InRange() {
				return []wasmer.Value{wasmer.NewI64(-1)}, nil
			}
			target, err := geometry.AddDisplace(b.ctx.pos, displ)
			if err != nil {
				return []wasmer.Value{wasmer.NewI64(-1)}, nil
			}
			m, err := b.ctx.board.GetFloorMaterials(target)
			if err != nil {
				return []wasmer.Value{wasmer.NewI64(-1)}, nil
			}
			return []wasmer.Value{wasmer.NewI64(codec.EncodeTileMaterials(m))}, nil
		},
	)

	getEntity := wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32), wasmer.NewValueTypes(wasmer.I64)),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := b.ctx.charge(); err != nil {
				return nil, err
			}
			displ := codec.DecodeDisplace(uint16(args[0].I32()))
			if b.ctx.team == state.Red {
				displ = displ.Invert()
			}
			if !displ.InRange() {
				return []wasmer.Value{wasmer.NewI64(codec.ViewResult{Kind: codec.ViewOutOfBounds}.Encode())}, nil
			}
			target, err := geometry.AddDisplace(b.ctx.pos, displ)
			if err != nil {
				return []wasmer.Value{wasmer.NewI64(codec.ViewResult{Kind: codec.ViewOutOfBounds}.Encode())}, nil
			}
			id, e, err := b.ctx.board.GetEntity(target)
			if err != nil {
				return []wasmer.Value{wasmer.NewI64(codec.ViewResult{Kind: codec.ViewEmpty}.Encode())}, nil
			}
			otherTeam, _ := b.ctx.board.TeamOf(id)
			isEnemy := otherTeam != b.ctx.team
			hasBrain := e.Abilities != nil && len(e.Abilities.Brain.Code) > 0
			v := codec.ViewResult{Kind: codec.ViewEntity, HP: e.HP, IsEnemy: isEnemy, HasBrain: hasBrain}
			return []wasmer.Value{wasmer.NewI64(v.Encode())}, nil
		},
	)

	importObject := wasmer.NewImportObject()
	importObject.Register("env", map[string]wasmer.IntoExtern{
		"get_coord":     getCoord,
		"get_materials": getMaterials,
		"get_entity":    getEntity,
	})

	instance, err := wasmer.NewInstance(module, importObject)
	if err != nil {
		return nil, errors.Wrap(err, "wasmhost: instantiate module")
	}
	b.instance = instance
	return b, nil
}

// Execute runs one turn for actor, who must currently be on the board,
// charging against gasBudget. It returns the raw i64 execute() result,
// which the caller decodes with codec.Decode, or an error if the brain
// trapped or ran out of gas — either of which the caller should treat
// as a Wait for this turn rather than propagating.
func (b *Brain) Execute(actor state.EntityID, team state.Team, gasBudget uint64) (int64, error) {
	pos, ok := b.ctx.board.PositionOf(actor)
	if !ok {
		return 0, errors.Errorf("wasmhost: actor %d is not on the board", actor)
	}
	b.ctx.actor = actor
	b.ctx.pos = pos
	b.ctx.team = team
	b.ctx.gasLeft = gasBudget

	execute, err := b.instance.Exports.GetFunction("execute")
	if err != nil {
		return 0, errors.Wrap(err, "wasmhost: guest has no execute export")
	}
	result, err := execute()
	if err != nil {
		return 0, errors.Wrap(err, "wasmhost: guest trapped")
	}
	asI64, ok := result.(int64)
	if !ok {
		return 0, errors.Errorf("wasmhost: execute returned non-i64 result %v", result)
	}
	return asI64, nil
}
