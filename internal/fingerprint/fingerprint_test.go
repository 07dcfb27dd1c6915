package fingerprint

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompute_Deterministic(t *testing.T) {
	payload := map[string]interface{}{"card_name": "gold", "amount": float64(5)}

	first, err := Compute("card_click", payload)
	require.NoError(t, err)
	second, err := Compute("card_click", payload)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Len(t, first, 64)
}

func TestCompute_KeyOrderIrrelevant(t *testing.T) {
	a, err := Compute("card_click", map[string]interface{}{
		"amount":    float64(5),
		"card_name": "gold",
		"nested":    map[string]interface{}{"x": float64(1), "y": float64(2)},
	})
	require.NoError(t, err)

	b, err := Compute("card_click", map[string]interface{}{
		"nested":    map[string]interface{}{"y": float64(2), "x": float64(1)},
		"card_name": "gold",
		"amount":    float64(5),
	})
	require.NoError(t, err)

	require.Equal(t, a, b)
}

func TestCompute_PayloadDifferenceChangesHash(t *testing.T) {
	a, err := Compute("card_click", map[string]interface{}{"amount": float64(5)})
	require.NoError(t, err)

	b, err := Compute("card_click", map[string]interface{}{"amount": float64(6)})
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}

func TestCompute_EventTypeChangesHash(t *testing.T) {
	payload := map[string]interface{}{"amount": float64(5)}

	a, err := Compute("card_click", payload)
	require.NoError(t, err)

	b, err := Compute("card_view", payload)
	require.NoError(t, err)

	require.NotEqual(t, a, b)
}

func TestCompute_NilPayloadEqualsEmpty(t *testing.T) {
	a, err := Compute("card_click", nil)
	require.NoError(t, err)

	b, err := Compute("card_click", map[string]interface{}{})
	require.NoError(t, err)

	require.Equal(t, a, b)
}

func TestCompute_UnencodablePayload(t *testing.T) {
	_, err := Compute("card_click", map[string]interface{}{"value": math.NaN()})
	require.Error(t, err)
}
