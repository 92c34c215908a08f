package replay

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/1siamBot/sandbox-arena/engine/action"
	"github.com/1siamBot/sandbox-arena/engine/entity"
	"github.com/1siamBot/sandbox-arena/engine/geometry"
	"github.com/1siamBot/sandbox-arena/engine/materials"
	"github.com/1siamBot/sandbox-arena/engine/state"
)

func TestRecordLoadRoundTrip(t *testing.T) {
	s := state.New()
	p := geometry.Pos{X: 3, Y: 3}
	s.SetFloorMaterials(p, materials.Materials{Carbon: 5})
	s.PlaceEntity(p, state.Blue, &entity.FullEntity{HP: 10, InventorySize: 4})

	path := filepath.Join(t.TempDir(), "match.replay")
	rec, err := NewRecorder(path, TakeSnapshot(s))
	require.NoError(t, err)
	require.NoError(t, rec.Record(Frame{{Kind: action.KindWait}}))
	require.NoError(t, rec.Close())

	script, err := Load(path)
	require.NoError(t, err)
	require.Len(t, script.Frames, 1)
	require.Len(t, script.Genesis.Entities, 1)
}

func TestReplayReproducesMove(t *testing.T) {
	s := state.New()
	from := geometry.Pos{X: 2, Y: 2}
	to := from.Apply(geometry.North)
	id, _ := s.PlaceEntity(from, state.Blue, &entity.FullEntity{HP: 5})

	genesis := TakeSnapshot(s)
	script := Script{Genesis: genesis, Frames: []Frame{
		{{Kind: action.KindMove, Actor: id, From: from, To: to}},
	}}

	replayed, err := Replay(script)
	require.NoError(t, err)
	gotID, _, err := replayed.GetEntity(to)
	require.NoError(t, err)
	require.Equal(t, id, gotID)
}
