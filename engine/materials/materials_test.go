package materials

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := Materials{Carbon: 10, Silicon: 20, Plutonium: 30, Copper: 40}
	require.Equal(t, m, Decode(m.Encode()))
}

func TestEncodeSaturates(t *testing.T) {
	m := Materials{Carbon: 1000, Silicon: -5, Plutonium: 255, Copper: 256}
	want := Materials{Carbon: 255, Silicon: 0, Plutonium: 255, Copper: 255}
	require.Equal(t, want, Decode(m.Encode()))
}

func TestAddSubInverse(t *testing.T) {
	a := Materials{Carbon: 5, Silicon: 3, Plutonium: 1, Copper: 9}
	b := Materials{Carbon: 2, Silicon: 1, Plutonium: 1, Copper: 4}
	require.Equal(t, a, Sub(Add(a, b), b))
}

func TestLessEqualNotTotalOrder(t *testing.T) {
	a := Materials{Carbon: 5, Silicon: 0}
	b := Materials{Carbon: 0, Silicon: 5}
	require.False(t, a.LessEqual(b) || b.LessEqual(a), "incomparable materials must not satisfy LessEqual either direction")
}

func TestVolume(t *testing.T) {
	m := Materials{Carbon: 1, Silicon: 2, Plutonium: 3, Copper: 4}
	require.Equal(t, 10, m.Volume())
}
