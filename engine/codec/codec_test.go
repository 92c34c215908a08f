package codec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/1siamBot/sandbox-arena/engine/geometry"
	"github.com/1siamBot/sandbox-arena/engine/materials"
)

func TestCoordRoundTrip(t *testing.T) {
	p := geometry.Pos{X: 12, Y: 34}
	require.Equal(t, p, DecodeCoord(EncodeCoord(p)))
}

func TestDisplaceRoundTrip(t *testing.T) {
	d := geometry.Displace{DX: -5, DY: 5}
	require.Equal(t, d, DecodeDisplace(EncodeDisplace(d)))
}

func TestTileMaterialsRoundTrip(t *testing.T) {
	m := materials.Materials{Carbon: 1, Silicon: 2, Plutonium: 3, Copper: 4}
	require.Equal(t, m, DecodeTileMaterials(EncodeTileMaterials(m)))
}

func TestViewResultRoundTrip(t *testing.T) {
	v := ViewResult{Kind: ViewEntity, HP: 42, IsEnemy: true, HasBrain: false}
	require.Equal(t, v, DecodeViewResult(v.Encode()))
}

func TestVerbRoundTripAllOpcodes(t *testing.T) {
	gun := geometry.Displace{DX: 3, DY: -2}
	cases := []Verb{
		{Op: OpWait},
		{Op: OpAttemptMove, Direction: geometry.South},
		{Op: OpGetMaterials, Neighbor: geometry.NeighborEast, Materials: materials.Materials{Carbon: 9}},
		{Op: OpDropMaterials, Neighbor: geometry.Here, Materials: materials.Materials{Copper: 7}},
		{Op: OpShoot, Displace: gun},
		{Op: OpDrill, Direction: geometry.West},
		{Op: OpConstruct, TemplateIdx: 2, Direction: geometry.North},
	}
	for _, v := range cases {
		got := Decode(v.Encode())
		require.Equal(t, v, got)
	}
}

func TestDecodeFallsBackToWaitOnUnknownOpcode(t *testing.T) {
	got := Decode(int64(255) << 56)
	require.Equal(t, Verb{Op: OpWait}, got, "an unrecognized opcode must decode to Wait, not fail")
}

func TestDecodeFallsBackToWaitOnMalformedPayload(t *testing.T) {
	got := Decode(int64(OpAttemptMove) << 56 | 0xFF)
	require.Equal(t, Verb{Op: OpWait}, got, "an out-of-range direction payload must decode to Wait, not fail")
}

func TestVerbInvertMirrorsDirectionalFields(t *testing.T) {
	v := Verb{Op: OpAttemptMove, Direction: geometry.North}
	inv := v.Invert()
	require.Equal(t, geometry.South, inv.Direction)
	require.Equal(t, v, v.Invert().Invert(), "Invert should be an involution")
}
