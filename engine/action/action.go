// Package action implements the validate -> apply -> log pipeline every
// bot's decoded turn goes through. Validate is pure: it reads the board
// to check an action is legal and produces an Effect describing exactly
// what would happen, but it never mutates state.State and it never
// calls Apply. Apply is the only function that mutates the board, and
// it always produces the Event that gets appended to the match's replay
// log. Keeping these two steps separate (rather than having the
// validator perform the mutation itself, which the system this engine
// descends from did) is what lets Validate be called speculatively —
// for UI preview, for squad legality checks — without side effects.
package action

import (
	"github.com/pkg/errors"

	"github.com/1siamBot/sandbox-arena/engine/codec"
	"github.com/1siamBot/sandbox-arena/engine/entity"
	"github.com/1siamBot/sandbox-arena/engine/geometry"
	"github.com/1siamBot/sandbox-arena/engine/materials"
	"github.com/1siamBot/sandbox-arena/engine/state"
)

// Validation failure sentinels. Each is wrapped with context via
// errors.Wrapf at the point it's returned, so callers can match the
// sentinel with errors.Is while logs still carry the specifics.
var (
	ErrNotYourTurn       = errors.New("action: actor is not the entity taking this turn")
	ErrNoAbilities       = errors.New("action: entity has no abilities")
	ErrCannotMove        = errors.New("action: entity cannot move")
	ErrDestinationBlocked = errors.New("action: destination tile is occupied")
	ErrOutOfBounds       = errors.New("action: target position is out of bounds")
	ErrNotNeighbor       = errors.New("action: target is not adjacent")
	ErrNoFloorMaterial   = errors.New("action: insufficient floor material")
	ErrNoInventorySpace  = errors.New("action: insufficient inventory space")
	ErrNoEntityMaterial  = errors.New("action: insufficient entity material")
	ErrNoGun             = errors.New("action: entity cannot shoot")
	ErrNoCopper          = errors.New("action: entity is not carrying copper to fire")
	ErrTooFar            = errors.New("action: shoot target exceeds weapon range")
	ErrNotVisible        = errors.New("action: shoot target is not visible from actor")
	ErrNoDrill           = errors.New("action: entity cannot drill")
	ErrNothingToDrill    = errors.New("action: no entity to drill at target")
	ErrNoTemplate        = errors.New("action: no template at that index")
	ErrConstructBlocked  = errors.New("action: construction site is occupied")
)

// shootSquareNormLimit is the maximum Euclidean squared distance a
// Shoot's displacement may span (a radius-5 circle), distinct from the
// per-axis box check (geometry.Displace.InRange) used by the host's
// get_entity/get_materials imports.
const shootSquareNormLimit = 25

// Kind discriminates the resolved Effect/Event shapes, one per Verb
// opcode (Wait included, so a no-op turn still produces a loggable
// Event).
type Kind uint8

const (
	KindWait Kind = iota
	KindMove
	KindGetMaterials
	KindDropMaterials
	KindShoot
	KindDrill
	KindConstruct
	// KindSetMessage has no codec opcode — a guest's decoded turn can
	// never produce it — and is only reachable via ValidateSetMessage,
	// called directly by whatever external surface (the API layer)
	// wants to attach a broadcast message to an entity.
	KindSetMessage
)

// MaxMessageLen is the fixed byte length a SetMessage message is capped
// at; longer input is truncated, never rejected.
const MaxMessageLen = 32

// Effect is what Validate decides would happen, computed but not yet
// applied. Only the fields relevant to Kind are populated.
type Effect struct {
	Kind      Kind
	Actor     state.EntityID
	From, To  geometry.Pos
	Amount    materials.Materials
	Damage      int
	Hit         bool
	Template    *entity.FullEntity
	Team        state.Team
	TemplateIdx uint8
	Message     *string
}

// Event is the record of an Effect having actually been applied,
// appended to a match's replay log. It never needs revalidating: a
// sound Event can always be replayed by touching state.State exactly
// as Apply did.
type Event struct {
	Kind        Kind
	Actor       state.EntityID
	From, To    geometry.Pos
	Amount      materials.Materials
	Damage      int
	Hit         bool
	Team        state.Team
	TemplateIdx uint8
	Message     *string
}

// Validate checks that verb is legal for actor to perform from its
// current position on s, and if so returns the Effect it would cause.
// It never mutates s.
func Validate(s *state.State, actor state.EntityID, verb codec.Verb) (Effect, error) {
	e, team, err := s.GetEntityByID(actor)
	if err != nil {
		return Effect{}, errors.Wrap(err, "validate")
	}
	pos, ok := s.PositionOf(actor)
	if !ok {
		return Effect{}, errors.Wrapf(ErrNotYourTurn, "actor %d is not on the board", actor)
	}

	switch verb.Op {
	case codec.OpWait:
		return Effect{Kind: KindWait, Actor: actor}, nil

	case codec.OpAttemptMove:
		if e.Abilities == nil || e.Abilities.MovementType == entity.Still {
			return Effect{}, errors.Wrap(ErrCannotMove, "validate AttemptMove")
		}
		to := pos.Apply(verb.Direction)
		if !to.InBounds() {
			return Effect{}, errors.Wrapf(ErrOutOfBounds, "validate AttemptMove to %v", to)
		}
		if s.HasEntity(to) {
			return Effect{}, errors.Wrapf(ErrDestinationBlocked, "validate AttemptMove to %v", to)
		}
		return Effect{Kind: KindMove, Actor: actor, From: pos, To: to}, nil

	case codec.OpGetMaterials:
		target := verb.Neighbor.Pos(pos)
		if !target.InBounds() {
			return Effect{}, errors.Wrapf(ErrOutOfBounds, "validate GetMaterials at %v", target)
		}
		floor, err := s.GetFloorMaterials(target)
		if err != nil {
			return Effect{}, errors.Wrap(err, "validate GetMaterials")
		}
		if !verb.Materials.LessEqual(floor) {
			return Effect{}, errors.Wrapf(ErrNoFloorMaterial, "validate GetMaterials at %v", target)
		}
		if e.Assets.Volume()+verb.Materials.Volume() > e.InventorySize {
			return Effect{}, errors.Wrapf(ErrNoInventorySpace, "validate GetMaterials at %v", target)
		}
		return Effect{Kind: KindGetMaterials, Actor: actor, From: target, To: pos, Amount: verb.Materials}, nil

	case codec.OpDropMaterials:
		target := verb.Neighbor.Pos(pos)
		if !target.InBounds() {
			return Effect{}, errors.Wrapf(ErrOutOfBounds, "validate DropMaterials at %v", target)
		}
		if !verb.Materials.LessEqual(e.Assets) {
			return Effect{}, errors.Wrapf(ErrNoEntityMaterial, "validate DropMaterials at %v", target)
		}
		return Effect{Kind: KindDropMaterials, Actor: actor, From: pos, To: target, Amount: verb.Materials}, nil

	case codec.OpShoot:
		if e.Abilities == nil || e.Abilities.GunDamage == nil {
			return Effect{}, errors.Wrap(ErrNoGun, "validate Shoot")
		}
		if e.Assets.Copper < 1 {
			return Effect{}, errors.Wrap(ErrNoCopper, "validate Shoot")
		}
		if verb.Displace.SquareNorm() > shootSquareNormLimit {
			return Effect{}, errors.Wrapf(ErrTooFar, "validate Shoot displace %+v", verb.Displace)
		}
		target, err := s.GetVisible(pos, verb.Displace)
		if err != nil {
			return Effect{}, errors.Wrap(ErrNotVisible, "validate Shoot")
		}
		return Effect{Kind: KindShoot, Actor: actor, From: pos, To: target, Damage: *e.Abilities.GunDamage, Hit: s.HasEntity(target)}, nil

	case codec.OpDrill:
		if e.Abilities == nil || e.Abilities.DrillDamage == 0 {
			return Effect{}, errors.Wrap(ErrNoDrill, "validate Drill")
		}
		target := pos.Apply(verb.Direction)
		if !target.InBounds() {
			return Effect{}, errors.Wrapf(ErrOutOfBounds, "validate Drill at %v", target)
		}
		if !s.HasEntity(target) {
			return Effect{}, errors.Wrapf(ErrNothingToDrill, "validate Drill at %v", target)
		}
		return Effect{Kind: KindDrill, Actor: actor, From: pos, To: target, Damage: e.Abilities.DrillDamage}, nil

	case codec.OpConstruct:
		if int(verb.TemplateIdx) >= state.NumTemplates {
			return Effect{}, errors.Wrapf(ErrNoTemplate, "validate Construct index %d", verb.TemplateIdx)
		}
		tmpl := (*s.Templates(team))[verb.TemplateIdx]
		if tmpl == nil {
			return Effect{}, errors.Wrapf(ErrNoTemplate, "validate Construct index %d", verb.TemplateIdx)
		}
		target := pos.Apply(verb.Direction)
		if !target.InBounds() {
			return Effect{}, errors.Wrapf(ErrOutOfBounds, "validate Construct at %v", target)
		}
		if s.HasEntity(target) {
			return Effect{}, errors.Wrapf(ErrConstructBlocked, "validate Construct at %v", target)
		}
		return Effect{Kind: KindConstruct, Actor: actor, From: pos, To: target, Template: tmpl, Team: team, TemplateIdx: verb.TemplateIdx}, nil

	default:
		return Effect{}, errors.Errorf("validate: unknown verb opcode %d", verb.Op)
	}
}

// ValidateSetMessage checks that actor is a live entity on s and
// returns the Effect that would attach msg to it, truncated to
// MaxMessageLen bytes. Unlike Validate, this never arrives from a
// decoded codec.Verb — it exists for callers outside the turn loop
// (the API layer) that want to attach a broadcast message to an entity
// out of band.
func ValidateSetMessage(s *state.State, actor state.EntityID, msg string) (Effect, error) {
	if _, _, err := s.GetEntityByID(actor); err != nil {
		return Effect{}, errors.Wrap(err, "validate SetMessage")
	}
	if len(msg) > MaxMessageLen {
		msg = msg[:MaxMessageLen]
	}
	return Effect{Kind: KindSetMessage, Actor: actor, Message: &msg}, nil
}

// Apply mutates s according to eff, which must have come from a
// successful Validate call against the current state (callers must not
// let other turns run between Validate and Apply for the same actor).
// It returns the Event to append to the replay log.
func Apply(s *state.State, eff Effect) (Event, error) {
	switch eff.Kind {
	case KindWait:
		return Event{Kind: KindWait, Actor: eff.Actor}, nil

	case KindMove:
		if err := s.MoveEntity(eff.From, eff.To); err != nil {
			return Event{}, errors.Wrap(err, "apply Move")
		}
		return Event{Kind: KindMove, Actor: eff.Actor, From: eff.From, To: eff.To}, nil

	case KindGetMaterials:
		if err := s.MoveMaterialToEntity(eff.From, eff.Amount); err != nil {
			return Event{}, errors.Wrap(err, "apply GetMaterials")
		}
		return Event{Kind: KindGetMaterials, Actor: eff.Actor, From: eff.From, To: eff.To, Amount: eff.Amount}, nil

	case KindDropMaterials:
		if err := s.MoveMaterialToFloor(eff.From, eff.Amount); err != nil {
			return Event{}, errors.Wrap(err, "apply DropMaterials")
		}
		return Event{Kind: KindDropMaterials, Actor: eff.Actor, From: eff.From, To: eff.To, Amount: eff.Amount}, nil

	case KindShoot:
		if eff.Hit {
			if err := s.Attack(eff.To, eff.Damage); err != nil {
				return Event{}, errors.Wrap(err, "apply Shoot")
			}
		}
		return Event{Kind: KindShoot, Actor: eff.Actor, From: eff.From, To: eff.To, Damage: eff.Damage, Hit: eff.Hit}, nil

	case KindDrill:
		if err := s.Attack(eff.To, eff.Damage); err != nil {
			return Event{}, errors.Wrap(err, "apply Drill")
		}
		return Event{Kind: KindDrill, Actor: eff.Actor, From: eff.From, To: eff.To, Damage: eff.Damage}, nil

	case KindConstruct:
		full := &entity.FullEntity{
			HP:            eff.Template.HP,
			MaxHP:         eff.Template.MaxHP,
			InventorySize: eff.Template.InventorySize,
			Assets:        eff.Template.Assets,
		}
		if a := eff.Template.Abilities; a != nil {
			full.Abilities = &entity.Abilities[entity.Full]{
				MovementType: a.MovementType,
				DrillDamage:  a.DrillDamage,
				GunDamage:    a.GunDamage,
				Brain: entity.Full{
					SubEntities: a.Brain.SubEntities,
					Code:        a.Brain.Code,
					Gas:         a.Brain.Gas,
				},
			}
		}
		if _, err := s.PlaceEntity(eff.To, eff.Team, full); err != nil {
			return Event{}, errors.Wrap(err, "apply Construct")
		}
		return Event{Kind: KindConstruct, Actor: eff.Actor, From: eff.From, To: eff.To, Team: eff.Team, TemplateIdx: eff.TemplateIdx}, nil

	case KindSetMessage:
		if err := s.SetMessage(eff.Actor, eff.Message); err != nil {
			return Event{}, errors.Wrap(err, "apply SetMessage")
		}
		return Event{Kind: KindSetMessage, Actor: eff.Actor, Message: eff.Message}, nil

	default:
		return Event{}, errors.Errorf("apply: unknown effect kind %d", eff.Kind)
	}
}
