// Package apiserver exposes a running match.Driver over HTTP and a
// websocket event stream, for external viewers/tooling — not part of
// the core engine's own dependency graph, but a consumer of it.
package apiserver

import (
	"encoding/binary"
	"io"

	"github.com/1siamBot/sandbox-arena/engine/action"
	"github.com/1siamBot/sandbox-arena/engine/geometry"
	"github.com/1siamBot/sandbox-arena/engine/materials"
	"github.com/1siamBot/sandbox-arena/engine/state"
)

// EventFrame is the binary form of an action.Event broadcast to
// websocket subscribers: fixed-width fields, little-endian, so a
// browser-side viewer can decode it with a DataView without pulling in
// a JSON parser on the hot path. The event's Hit flag and Message are
// not carried by the binary form.
type EventFrame struct {
	Tick   uint64
	Event  action.Event
}

// Encode writes f to w as a fixed-width binary record.
func (f EventFrame) Encode(w io.Writer) error {
	fields := []any{
		f.Tick,
		uint8(f.Event.Kind),
		uint64(f.Event.Actor),
		int32(f.Event.From.X), int32(f.Event.From.Y),
		int32(f.Event.To.X), int32(f.Event.To.Y),
		int32(f.Event.Amount.Carbon), int32(f.Event.Amount.Silicon),
		int32(f.Event.Amount.Plutonium), int32(f.Event.Amount.Copper),
		int32(f.Event.Damage),
		uint8(f.Event.Team),
		f.Event.TemplateIdx,
	}
	for _, field := range fields {
		if err := binary.Write(w, binary.LittleEndian, field); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads an EventFrame written by Encode.
func Decode(r io.Reader) (EventFrame, error) {
	var (
		tick              uint64
		kind              uint8
		actor             uint64
		fx, fy, tx, ty    int32
		carbon, silicon   int32
		plutonium, copper int32
		damage            int32
		team              uint8
		templateIdx       uint8
	)
	fields := []any{
		&tick, &kind, &actor, &fx, &fy, &tx, &ty,
		&carbon, &silicon, &plutonium, &copper, &damage, &team, &templateIdx,
	}
	for _, field := range fields {
		if err := binary.Read(r, binary.LittleEndian, field); err != nil {
			return EventFrame{}, err
		}
	}
	return EventFrame{
		Tick: tick,
		Event: action.Event{
			Kind:        action.Kind(kind),
			Actor:       state.EntityID(actor),
			From:        geometry.Pos{X: int(fx), Y: int(fy)},
			To:          geometry.Pos{X: int(tx), Y: int(ty)},
			Amount:      materials.Materials{Carbon: int(carbon), Silicon: int(silicon), Plutonium: int(plutonium), Copper: int(copper)},
			Damage:      int(damage),
			Team:        state.Team(team),
			TemplateIdx: templateIdx,
		},
	}, nil
}
