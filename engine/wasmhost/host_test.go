package wasmhost

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChargeDeductsGas(t *testing.T) {
	tc := &turnContext{gasLeft: costPerHostCall * 2}
	require.NoError(t, tc.charge())
	require.Equal(t, uint64(costPerHostCall), tc.gasLeft)
	require.NoError(t, tc.charge())
	require.Error(t, tc.charge(), "expected out-of-gas error once budget is exhausted")
}
