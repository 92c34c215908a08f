// Package match is the driver that builds a board from two squads and
// a level, then runs the turn loop: each Full-brained entity's guest
// module is asked for a Verb, the Verb is validated and applied, and
// the resulting Event is appended to the match's replay recording.
// Unlike the teacher's wall-clock fixed-timestep loop, stepping here is
// driven entirely by turn order — there is no time.Now() anywhere on
// this path, because a match must produce byte-identical replays no
// matter how fast or slow the machine running it is.
package match

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/1siamBot/sandbox-arena/engine/action"
	"github.com/1siamBot/sandbox-arena/engine/codec"
	"github.com/1siamBot/sandbox-arena/engine/entity"
	"github.com/1siamBot/sandbox-arena/engine/geometry"
	"github.com/1siamBot/sandbox-arena/engine/materials"
	"github.com/1siamBot/sandbox-arena/engine/replay"
	"github.com/1siamBot/sandbox-arena/engine/squad"
	"github.com/1siamBot/sandbox-arena/engine/state"
	"github.com/1siamBot/sandbox-arena/engine/telemetry"
	"github.com/1siamBot/sandbox-arena/engine/wasmhost"
)

// Status is the match's coarse lifecycle state, the turn-based
// analogue of the teacher's wall-clock GameState enum.
type Status uint8

const (
	StatusSetup Status = iota
	StatusRunning
	StatusFinished
)

// Spawn places one squad template at a fixed board position when the
// match is built.
type Spawn struct {
	Pos         geometry.Pos
	TemplateIdx int
}

// Level is everything a level author supplies beyond the two squads:
// where each side's units start, pre-placed floor materials, and the
// construction blueprints each side's Construct verb can build from.
type Level struct {
	BlueSpawns    []Spawn
	RedSpawns     []Spawn
	FloorDeposits []FloorDeposit
	BlueTemplates [state.NumTemplates]*entity.FullEntity
	RedTemplates  [state.NumTemplates]*entity.FullEntity
	GrayTemplates [state.NumTemplates]*entity.FullEntity
	MaxTicks      uint64
}

// FloorDeposit pre-places a materials stockpile on the board.
type FloorDeposit struct {
	Pos       geometry.Pos
	Materials materials.Materials
}

// Driver owns the board, every acting entity's compiled brain, and the
// recording of the match as it plays out.
type Driver struct {
	state      *state.State
	brains     map[state.EntityID]*wasmhost.Brain
	order      []state.EntityID
	tick       uint64
	maxTicks   uint64
	status     Status
	bus        *telemetry.Bus
	recorder   *replay.Recorder
	gasBudget  uint64
	log        zerolog.Logger
}

// Build constructs the initial board from two squads and a level:
// places every squad template at its level-assigned spawn, seeds floor
// deposits, installs each team's construction templates, and compiles
// a wasmhost.Brain for every Full-brained unit.
func Build(blue, red squad.Squad, level Level, gasBudget uint64, log zerolog.Logger) (*Driver, error) {
	s := state.New()
	for _, d := range level.FloorDeposits {
		if err := s.SetFloorMaterials(d.Pos, d.Materials); err != nil {
			return nil, err
		}
	}
	s.SetTemplates(state.Blue, level.BlueTemplates)
	s.SetTemplates(state.Red, level.RedTemplates)
	s.SetTemplates(state.Gray, level.GrayTemplates)

	d := &Driver{
		state:     s,
		brains:    make(map[state.EntityID]*wasmhost.Brain),
		maxTicks:  level.MaxTicks,
		bus:       telemetry.NewBus(),
		gasBudget: gasBudget,
		log:       log,
	}

	if err := d.placeSquad(blue.Templates, level.BlueSpawns, state.Blue, s); err != nil {
		return nil, err
	}
	if err := d.placeSquad(red.Templates, level.RedSpawns, state.Red, s); err != nil {
		return nil, err
	}

	sort.Slice(d.order, func(i, j int) bool { return d.order[i] < d.order[j] })
	return d, nil
}

func (d *Driver) placeSquad(templates [state.NumTemplates]*entity.FullEntity, spawns []Spawn, team state.Team, s *state.State) error {
	for _, spawn := range spawns {
		tmpl := templates[spawn.TemplateIdx]
		if tmpl == nil {
			continue
		}
		copyEntity := *tmpl
		id, err := s.PlaceEntity(spawn.Pos, team, &copyEntity)
		if err != nil {
			return err
		}
		if copyEntity.Abilities != nil && len(copyEntity.Abilities.Brain.Code) > 0 {
			brain, err := wasmhost.Compile(copyEntity.Abilities.Brain.Code, s)
			if err != nil {
				d.log.Warn().Err(err).Uint64("entity", uint64(id)).Msg("failed to compile brain, unit will only ever wait")
			} else {
				d.brains[id] = brain
			}
			d.order = append(d.order, id)
		}
	}
	return nil
}

// SetMessage attaches a broadcast message to actor out of band. Unlike
// every other action, SetMessage has no codec opcode a bot's own turn
// can decode to, so this is its only entry point — for the API layer,
// or any other caller outside the turn loop.
func (d *Driver) SetMessage(actor state.EntityID, msg string) error {
	eff, err := action.ValidateSetMessage(d.state, actor, msg)
	if err != nil {
		return err
	}
	ev, err := action.Apply(d.state, eff)
	if err != nil {
		return err
	}
	if d.recorder != nil {
		if err := d.recorder.Record(replay.Frame{ev}); err != nil {
			return err
		}
	}
	d.bus.Emit(telemetry.Event{Type: eventTypeFor(ev.Kind), Tick: d.tick, Payload: ev})
	return nil
}

// AttachRecorder wires rec so every Step's frame is persisted. Must be
// called before the first Step if a recording is wanted.
func (d *Driver) AttachRecorder(rec *replay.Recorder) {
	d.recorder = rec
}

// Bus exposes the telemetry bus for subscriber registration.
func (d *Driver) Bus() *telemetry.Bus { return d.bus }

// Status reports the match's current lifecycle state.
func (d *Driver) Status() Status { return d.status }

// Tick reports how many turns have elapsed.
func (d *Driver) Tick() uint64 { return d.tick }

// State exposes the live board for read access (UI, API server).
func (d *Driver) State() *state.State { return d.state }

// Step runs exactly one full round: every entity placed with brain code
// takes its turn (one whose code failed to compile always waits), in
// ascending entity-id order (a fixed, deterministic
// order that never depends on wall-clock arrival or map iteration).
func (d *Driver) Step() {
	if d.status == StatusSetup {
		d.status = StatusRunning
		d.bus.Emit(telemetry.Event{Type: telemetry.EvtMatchStart, Tick: d.tick})
	}

	var frame replay.Frame
	for _, id := range d.order {
		e, team, err := d.state.GetEntityByID(id)
		if err != nil {
			continue // entity died earlier this match
		}
		verb := d.decideVerb(id, team, e)
		eff, err := action.Validate(d.state, id, verb)
		if err != nil {
			d.log.Debug().Err(err).Uint64("entity", uint64(id)).Msg("bot action rejected, treated as wait")
			d.bus.Emit(telemetry.Event{Type: telemetry.EvtBotFault, Tick: d.tick, Payload: err})
			eff = action.Effect{Kind: action.KindWait, Actor: id}
		}
		ev, err := action.Apply(d.state, eff)
		if err != nil {
			d.log.Error().Err(err).Uint64("entity", uint64(id)).Msg("validated action failed to apply")
			continue
		}
		frame = append(frame, ev)
		d.bus.Emit(telemetry.Event{Type: eventTypeFor(ev.Kind), Tick: d.tick, Payload: ev})
	}

	if d.recorder != nil {
		if err := d.recorder.Record(frame); err != nil {
			d.log.Error().Err(err).Msg("failed to record frame")
		}
	}
	d.bus.Dispatch()
	d.tick++

	if d.isOver() {
		d.status = StatusFinished
		d.bus.Emit(telemetry.Event{Type: telemetry.EvtMatchEnd, Tick: d.tick})
		d.bus.Dispatch()
	}
}

// Run steps the match until it finishes or maxTicks is reached.
func (d *Driver) Run() {
	for d.status != StatusFinished && (d.maxTicks == 0 || d.tick < d.maxTicks) {
		d.Step()
	}
	if d.status != StatusFinished {
		d.status = StatusFinished
	}
}

func (d *Driver) decideVerb(id state.EntityID, team state.Team, e *entity.FullEntity) codec.Verb {
	brain, ok := d.brains[id]
	if !ok {
		return codec.Verb{Op: codec.OpWait}
	}
	gas := d.gasBudget
	if e.Abilities != nil && e.Abilities.Brain.Gas > 0 {
		gas = e.Abilities.Brain.Gas
	}
	raw, err := brain.Execute(id, team, gas)
	if err != nil {
		d.log.Debug().Err(err).Uint64("entity", uint64(id)).Msg("brain failed to execute, treated as wait")
		return codec.Verb{Op: codec.OpWait}
	}
	verb := codec.Decode(raw)
	if team == state.Red {
		verb = verb.Invert()
	}
	return verb
}

// isOver reports whether one side has no Full-brained units left.
func (d *Driver) isOver() bool {
	blueAlive, redAlive := false, false
	for id := range d.brains {
		if _, team, err := d.state.GetEntityByID(id); err == nil {
			switch team {
			case state.Blue:
				blueAlive = true
			case state.Red:
				redAlive = true
			}
		}
	}
	return !blueAlive || !redAlive
}

// Winner returns the winning team once the match has finished, or
// false if it ended in a draw (both or neither side has brains left)
// or hasn't finished yet.
func (d *Driver) Winner() (state.Team, bool) {
	if d.status != StatusFinished {
		return 0, false
	}
	blueAlive, redAlive := false, false
	for id := range d.brains {
		if _, team, err := d.state.GetEntityByID(id); err == nil {
			switch team {
			case state.Blue:
				blueAlive = true
			case state.Red:
				redAlive = true
			}
		}
	}
	if blueAlive == redAlive {
		return 0, false
	}
	if blueAlive {
		return state.Blue, true
	}
	return state.Red, true
}

func eventTypeFor(k action.Kind) telemetry.EventType {
	switch k {
	case action.KindMove:
		return telemetry.EvtTurnMove
	case action.KindGetMaterials:
		return telemetry.EvtTurnGetMaterials
	case action.KindDropMaterials:
		return telemetry.EvtTurnDropMaterials
	case action.KindShoot:
		return telemetry.EvtTurnShoot
	case action.KindDrill:
		return telemetry.EvtTurnDrill
	case action.KindConstruct:
		return telemetry.EvtTurnConstruct
	case action.KindSetMessage:
		return telemetry.EvtTurnSetMessage
	default:
		return telemetry.EvtTurnMove
	}
}
