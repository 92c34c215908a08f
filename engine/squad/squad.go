// Package squad implements the pre-match squad descriptor: the compiled
// bot code and unit templates a player brings to a match, and the
// battlefield-compatibility check ("BFState") a level author uses to
// cap how expensive a squad is allowed to be on a given level.
package squad

import (
	"github.com/pkg/errors"

	"github.com/1siamBot/sandbox-arena/engine/entity"
	"github.com/1siamBot/sandbox-arena/engine/geometry"
	"github.com/1siamBot/sandbox-arena/engine/materials"
	"github.com/1siamBot/sandbox-arena/engine/state"
)

// Squad is everything a player supplies to enter a match: up to
// state.NumTemplates unit templates, each carrying its own compiled
// guest module inline in its Abilities.Brain.Code (there is no separate
// shared code table — a template that should run no code simply leaves
// Brain.Code empty, as match.Build's placeSquad checks for).
type Squad struct {
	Templates [state.NumTemplates]*entity.FullEntity
}

// EntitySlot is one template slot of a BFState: either empty, or a
// template priced at a given unit count.
type EntitySlot struct {
	Template *entity.FullEntity
	Count    int
}

// Tile is one battlefield-descriptor cell: an optional reference (by
// template index) to a unit the level author placed directly on the
// board, plus any floor materials staged there before the match. This
// is distinct from state.Tile, whose EntityID addresses a live match
// entity rather than a template slot.
type Tile struct {
	Materials   materials.Materials
	TemplateIdx *int
}

// BFState ("battlefield state") is the economic shape of a squad on a
// specific level: how many tokens and how much raw material budget it
// is allowed, the per-template unit counts it has bought, and whatever
// it has placed directly on the board (pre-built structures, staged
// floor deposits).
type BFState struct {
	Materials materials.Materials
	Tokens    int
	MinTokens int
	Tiles     [geometry.Width * geometry.Height]Tile
	Entities  [state.NumTemplates]EntitySlot
}

// EntityCost prices one template slot: NumTemplates-independent Cost of
// the template, scaled by how many units of it are bought.
func EntityCost(slot EntitySlot) materials.Materials {
	if slot.Template == nil || slot.Count == 0 {
		return materials.Materials{}
	}
	unit := entity.Cost(*slot.Template)
	return materials.Materials{
		Carbon:    unit.Carbon * slot.Count,
		Silicon:   unit.Silicon * slot.Count,
		Plutonium: unit.Plutonium * slot.Count,
		Copper:    unit.Copper * slot.Count,
	}
}

// Cost prices an entire BFState: its raw material budget, every tile
// in the board's bottom half (y >= Height/2 — either team's own
// construction side once mirrored), and every template's cost scaled
// by however many units of it exist, whether bought outright
// (Entities[i].Count) or placed directly on a bottom-half tile. It also
// returns the per-template unit counts, which IsCompatible uses to
// enforce the level's minimum unit floor.
func Cost(b BFState) (total materials.Materials, tokens int, counts [state.NumTemplates]int) {
	total = b.Materials
	tokens = b.Tokens
	for i, t := range b.Tiles {
		if geometry.FromIndex(i).Y < geometry.Height/2 {
			continue
		}
		total = materials.Add(total, t.Materials)
		if t.TemplateIdx != nil {
			counts[*t.TemplateIdx]++
		}
	}
	for i, slot := range b.Entities {
		counts[i] += slot.Count
		if slot.Template == nil || counts[i] == 0 {
			continue
		}
		unit := entity.Cost(*slot.Template)
		total = materials.Add(total, materials.Materials{
			Carbon:    unit.Carbon * counts[i],
			Silicon:   unit.Silicon * counts[i],
			Plutonium: unit.Plutonium * counts[i],
			Copper:    unit.Copper * counts[i],
		})
	}
	return total, tokens, counts
}

var (
	// ErrCostExceedsReference is returned by IsCompatible when a
	// candidate BFState costs more than the level's reference allows.
	ErrCostExceedsReference = errors.New("squad: cost exceeds reference budget")
	// ErrTokensExceedReference is returned when a candidate spends more
	// tokens than the reference allows.
	ErrTokensExceedReference = errors.New("squad: tokens exceed reference budget")
	// ErrBelowMinTokens is returned when a candidate holds fewer tokens
	// than the reference's author-specified floor.
	ErrBelowMinTokens = errors.New("squad: tokens below reference minimum")
	// ErrTemplateCountDecreased is returned when a candidate has fewer
	// units of some template than the reference guarantees every squad
	// on this level, which would make the level unwinnable as designed.
	ErrTemplateCountDecreased = errors.New("squad: per-template unit count decreased from reference")
	// ErrBoardEntityRemoved is returned when a candidate fails to
	// reproduce a unit the reference placed directly on some tile.
	ErrBoardEntityRemoved = errors.New("squad: candidate removed a board-placed entity present in reference")
	// ErrBoardMaterialRemoved is returned when a candidate has fewer
	// floor materials staged on some tile than the reference does.
	ErrBoardMaterialRemoved = errors.New("squad: candidate removed board-placed materials present in reference")
	// ErrIncompatibleTemplate is returned when a candidate's template
	// for a slot the reference also fills has a different ability
	// shape (movement, drilling, shooting) than the reference's.
	ErrIncompatibleTemplate = errors.New("squad: template is not structurally compatible with reference")
	// ErrInsufficientTokens is returned by BuyBot/SellBot when the
	// requested trade cannot be funded.
	ErrInsufficientTokens = errors.New("squad: insufficient tokens")
)

// IsCompatible reports whether candidate is a legal squad configuration
// for a level whose author-specified budget is reference: candidate's
// Cost and Tokens must not exceed reference's, candidate's tokens must
// not fall below reference.MinTokens, candidate must not have fewer
// units of any template than reference does, candidate must not remove
// any board-placed entity or floor material the reference pre-placed,
// and any template candidate fills in a slot reference also fills must
// be structurally compatible with reference's (a level author
// guarantees players at least the reference's units and placements; a
// squad may add more capability but never remove the floor).
func IsCompatible(candidate, reference BFState) error {
	cc, ct, ccounts := Cost(candidate)
	rc, rt, rcounts := Cost(reference)
	if !cc.LessEqual(rc) {
		return errors.Wrapf(ErrCostExceedsReference, "candidate cost %+v exceeds reference %+v", cc, rc)
	}
	if ct > rt {
		return errors.Wrapf(ErrTokensExceedReference, "candidate tokens %d exceed reference %d", ct, rt)
	}
	if candidate.Tokens < reference.MinTokens {
		return errors.Wrapf(ErrBelowMinTokens, "candidate tokens %d below reference minimum %d", candidate.Tokens, reference.MinTokens)
	}
	for i := range ccounts {
		if ccounts[i] < rcounts[i] {
			return errors.Wrapf(ErrTemplateCountDecreased, "template %d: candidate count %d < reference %d", i, ccounts[i], rcounts[i])
		}
	}
	for i := range candidate.Tiles {
		refTile, newTile := reference.Tiles[i], candidate.Tiles[i]
		if refTile.TemplateIdx != nil {
			if newTile.TemplateIdx == nil || *newTile.TemplateIdx != *refTile.TemplateIdx {
				return errors.Wrapf(ErrBoardEntityRemoved, "tile %d", i)
			}
		}
		if !refTile.Materials.LessEqual(newTile.Materials) {
			return errors.Wrapf(ErrBoardMaterialRemoved, "tile %d", i)
		}
	}
	for i := range candidate.Entities {
		newSlot, refSlot := candidate.Entities[i], reference.Entities[i]
		if newSlot.Template != nil && refSlot.Template != nil && !templatesCompatible(newSlot.Template, refSlot.Template) {
			return errors.Wrapf(ErrIncompatibleTemplate, "template %d", i)
		}
	}
	return nil
}

// templatesCompatible reports whether candidate offers at least the
// same shape of abilities as reference: same movement type, same drill
// damage, and shooting capability present/absent the same way. A squad
// may rewrite a template's code and raw stats, but not its ability
// shape, without failing a level's compatibility check.
func templatesCompatible(candidate, reference *entity.FullEntity) bool {
	ca, ra := candidate.Abilities, reference.Abilities
	if (ca == nil) != (ra == nil) {
		return false
	}
	if ca == nil {
		return true
	}
	return ca.MovementType == ra.MovementType &&
		ca.DrillDamage == ra.DrillDamage &&
		(ca.GunDamage == nil) == (ra.GunDamage == nil)
}

// BuyBot spends tokenCost tokens to add one unit of the template in
// slot idx, initializing the slot from template if it was empty.
func (b *BFState) BuyBot(idx int, template *entity.FullEntity, tokenCost int) error {
	if b.Tokens < tokenCost {
		return errors.Wrapf(ErrInsufficientTokens, "buy bot: have %d, need %d", b.Tokens, tokenCost)
	}
	slot := &b.Entities[idx]
	if slot.Template == nil {
		slot.Template = template
	}
	slot.Count++
	b.Tokens -= tokenCost
	return nil
}

// SellBot refunds tokenCost tokens for removing one unit of the
// template in slot idx. Selling below MinTokens-implied floor counts is
// rejected by IsCompatible, not by SellBot itself — SellBot only
// enforces that the slot isn't already empty.
func (b *BFState) SellBot(idx int, tokenRefund int) error {
	slot := &b.Entities[idx]
	if slot.Count == 0 {
		return errors.New("squad: cannot sell from an empty template slot")
	}
	slot.Count--
	b.Tokens += tokenRefund
	if slot.Count == 0 {
		slot.Template = nil
	}
	return nil
}
