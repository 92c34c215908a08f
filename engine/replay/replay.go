// Package replay records and plays back a match's event log: a genesis
// snapshot of the starting board plus one Frame of action.Events per
// turn taken. Replaying a Script never revalidates anything — it is
// strict, state-level playback distinct from the live, validated turn
// loop in package match. A recorded Script that was ever internally
// inconsistent would have already failed during live play.
package replay

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"sort"

	"github.com/klauspost/compress/pgzip"
	"github.com/pkg/errors"

	"github.com/1siamBot/sandbox-arena/engine/action"
	"github.com/1siamBot/sandbox-arena/engine/entity"
	"github.com/1siamBot/sandbox-arena/engine/geometry"
	"github.com/1siamBot/sandbox-arena/engine/materials"
	"github.com/1siamBot/sandbox-arena/engine/state"
)

// Frame is every Event produced by one round of match.Driver.Step: one
// Event per entity that took a turn, in ascending entity-id order (empty
// when no entity acted). match.Driver.SetMessage records a one-Event
// Frame of its own.
type Frame []action.Event

// EntityRecord places one entity at a position for snapshot purposes.
type EntityRecord struct {
	Pos    geometry.Pos       `json:"pos"`
	ID     state.EntityID     `json:"id"`
	Team   state.Team         `json:"team"`
	Entity *entity.FullEntity `json:"entity"`
}

// Snapshot is a JSON-serializable copy of a state.State, used only as
// the genesis record a Script replays from; it is never mutated in
// place the way the live state.State is.
type Snapshot struct {
	FloorMaterials []materialsByPos     `json:"floor_materials"`
	Entities       []EntityRecord       `json:"entities"`
	BlueTemplates  [state.NumTemplates]*entity.FullEntity `json:"blue_templates"`
	RedTemplates   [state.NumTemplates]*entity.FullEntity `json:"red_templates"`
	GrayTemplates  [state.NumTemplates]*entity.FullEntity `json:"gray_templates"`
}

type materialsByPos struct {
	Pos       geometry.Pos         `json:"pos"`
	Materials materials.Materials  `json:"materials"`
}

// TakeSnapshot copies every tile's floor materials, every live entity
// and the three teams' template tables out of s.
func TakeSnapshot(s *state.State) Snapshot {
	snap := Snapshot{
		BlueTemplates: *s.Templates(state.Blue),
		RedTemplates:  *s.Templates(state.Red),
		GrayTemplates: *s.Templates(state.Gray),
	}
	for i, t := range s.Tiles() {
		if t.Materials.Volume() > 0 {
			snap.FloorMaterials = append(snap.FloorMaterials, materialsByPos{
				Pos:       geometry.FromIndex(i),
				Materials: t.Materials,
			})
		}
	}
	for id, e := range s.Entities() {
		p, ok := s.PositionOf(id)
		if !ok {
			continue
		}
		team, _ := s.Teams()[id]
		ec := *e
		snap.Entities = append(snap.Entities, EntityRecord{Pos: p, ID: id, Team: team, Entity: &ec})
	}
	sort.Slice(snap.Entities, func(i, j int) bool { return snap.Entities[i].ID < snap.Entities[j].ID })
	return snap
}

// Script is a complete, replayable match recording.
type Script struct {
	Genesis Snapshot `json:"genesis"`
	Frames  []Frame  `json:"frames"`
}

// Recorder accumulates Frames as a live match.Driver produces them and
// streams them to a compressed file on disk, the way the teacher's
// command recorder streamed each GameCommand to a buffered file as it
// happened rather than holding the whole match in memory.
type Recorder struct {
	script Script
	file   *os.File
	gz     *pgzip.Writer
	enc    *json.Encoder
}

// NewRecorder creates path and writes genesis as the first line of a
// gzip-compressed, newline-delimited JSON stream: a Snapshot followed
// by one Frame per line.
func NewRecorder(path string, genesis Snapshot) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "replay: create recording file")
	}
	gz, err := pgzip.NewWriterLevel(f, gzip.BestSpeed)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "replay: open compressor")
	}
	r := &Recorder{
		script: Script{Genesis: genesis},
		file:   f,
		gz:     gz,
		enc:    json.NewEncoder(gz),
	}
	if err := r.enc.Encode(genesis); err != nil {
		return nil, errors.Wrap(err, "replay: write genesis")
	}
	return r, nil
}

// Record appends a frame to both the in-memory script and the on-disk
// stream.
func (r *Recorder) Record(frame Frame) error {
	r.script.Frames = append(r.script.Frames, frame)
	if err := r.enc.Encode(frame); err != nil {
		return errors.Wrap(err, "replay: write frame")
	}
	return nil
}

// Script returns everything recorded so far.
func (r *Recorder) Script() Script { return r.script }

// Close flushes and closes the recording.
func (r *Recorder) Close() error {
	if err := r.gz.Close(); err != nil {
		r.file.Close()
		return errors.Wrap(err, "replay: close compressor")
	}
	return errors.Wrap(r.file.Close(), "replay: close recording file")
}

// Load reads a complete Script from a recording written by Recorder.
func Load(path string) (Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return Script{}, errors.Wrap(err, "replay: open recording file")
	}
	defer f.Close()

	gz, err := pgzip.NewReader(bufio.NewReader(f))
	if err != nil {
		return Script{}, errors.Wrap(err, "replay: open decompressor")
	}
	defer gz.Close()

	dec := json.NewDecoder(gz)
	var script Script
	if err := dec.Decode(&script.Genesis); err != nil {
		return Script{}, errors.Wrap(err, "replay: read genesis")
	}
	for {
		var frame Frame
		if err := dec.Decode(&frame); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return Script{}, errors.Wrap(err, "replay: read frame")
		}
		script.Frames = append(script.Frames, frame)
	}
	return script, nil
}

// Replay applies every event in script to a fresh state.State built
// from its genesis, in order, with no revalidation. It returns an error
// the instant any event turns out to be inconsistent with the board it
// is being replayed against — that can only happen if the recording
// itself was corrupted, since a live match never records an Event that
// didn't actually apply.
func Replay(script Script) (*state.State, error) {
	s := state.New()
	for _, fm := range script.Genesis.FloorMaterials {
		if err := s.SetFloorMaterials(fm.Pos, fm.Materials); err != nil {
			return nil, errors.Wrapf(err, "replay: restoring genesis tile %v", fm.Pos)
		}
	}
	for _, rec := range script.Genesis.Entities {
		e := *rec.Entity
		if err := s.RestoreEntity(rec.Pos, rec.ID, rec.Team, &e); err != nil {
			return nil, errors.Wrapf(err, "replay: restoring genesis entity %d", rec.ID)
		}
	}
	s.SetTemplates(state.Blue, script.Genesis.BlueTemplates)
	s.SetTemplates(state.Red, script.Genesis.RedTemplates)
	s.SetTemplates(state.Gray, script.Genesis.GrayTemplates)

	for fi, frame := range script.Frames {
		for ei, ev := range frame {
			if err := replayEvent(s, ev); err != nil {
				return nil, errors.Wrapf(err, "replay: frame %d event %d", fi, ei)
			}
		}
	}
	return s, nil
}

func replayEvent(s *state.State, ev action.Event) error {
	switch ev.Kind {
	case action.KindWait:
		return nil
	case action.KindMove:
		return s.MoveEntity(ev.From, ev.To)
	case action.KindGetMaterials:
		return s.MoveMaterialToEntity(ev.From, ev.Amount)
	case action.KindDropMaterials:
		return s.MoveMaterialToFloor(ev.From, ev.Amount)
	case action.KindDrill:
		return s.Attack(ev.To, ev.Damage)
	case action.KindShoot:
		if !ev.Hit {
			return nil
		}
		return s.Attack(ev.To, ev.Damage)
	case action.KindConstruct:
		tmpl := (*s.Templates(ev.Team))[ev.TemplateIdx]
		if tmpl == nil {
			return errors.Errorf("replay: construct event references empty template %d", ev.TemplateIdx)
		}
		full := &entity.FullEntity{HP: tmpl.HP, MaxHP: tmpl.MaxHP, InventorySize: tmpl.InventorySize, Assets: tmpl.Assets}
		if a := tmpl.Abilities; a != nil {
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
		_, err := s.PlaceEntity(ev.To, ev.Team, full)
		return err
	case action.KindSetMessage:
		return s.SetMessage(ev.Actor, ev.Message)
	default:
		return errors.Errorf("replay: unknown event kind %d", ev.Kind)
	}
}
