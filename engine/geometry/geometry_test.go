package geometry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPosInvertIsInvolution(t *testing.T) {
	p := Pos{X: 3, Y: 58}
	require.Equal(t, p, p.Invert().Invert())
}

func TestPosInvertCorners(t *testing.T) {
	got := Pos{X: 0, Y: 0}.Invert()
	require.Equal(t, Pos{X: Width - 1, Y: Height - 1}, got)
}

func TestToIndexRoundTrip(t *testing.T) {
	p := Pos{X: 7, Y: 12}
	require.Equal(t, p, FromIndex(p.ToIndex()))
}

func TestDirectionInvertIsInvolution(t *testing.T) {
	for _, d := range []Direction{North, South, East, West} {
		require.Equal(t, d, d.Invert().Invert())
	}
}

func TestDisplaceInRangeIsDisjunction(t *testing.T) {
	// Only the X axis exceeds range: must be rejected (disjunction), not
	// accepted as it would be under the original's buggy conjunction.
	d := Displace{DX: Range + 1, DY: 0}
	require.False(t, d.InRange())
}

func TestAddDisplaceOutOfBoard(t *testing.T) {
	origin := Pos{X: 0, Y: 0}
	_, err := AddDisplace(origin, Displace{DX: -1, DY: 0})
	require.Error(t, err)
}

func TestAreNeighbors(t *testing.T) {
	a := Pos{X: 5, Y: 5}
	require.True(t, AreNeighbors(a, a), "a tile is its own neighbor")
	require.True(t, AreNeighbors(a, Pos{X: 6, Y: 5}), "adjacent tiles must be neighbors")
	require.False(t, AreNeighbors(a, Pos{X: 6, Y: 6}), "diagonal tiles must not be neighbors")
}
