package worldstate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignatureIgnoresKeyOrder(t *testing.T) {
	var a, b State
	require.NoError(t, json.Unmarshal([]byte(`{"a":1,"b":{"y":2,"x":[1,"two"]},"c":true}`), &a))
	require.NoError(t, json.Unmarshal([]byte(`{"c":true,"b":{"x":[1,"two"],"y":2},"a":1}`), &b))

	sigA, err := Signature(a)
	require.NoError(t, err)
	sigB, err := Signature(b)
	require.NoError(t, err)
	assert.Equal(t, sigA, sigB)
	assert.Len(t, sigA, 64)
}

func TestSignatureDistinguishesStates(t *testing.T) {
	cases := []State{
		MustFromMap(map[string]any{"a": 1}),
		MustFromMap(map[string]any{"a": 2}),
		MustFromMap(map[string]any{"a": "1"}),
		MustFromMap(map[string]any{"a": []any{1, 2}}),
		MustFromMap(map[string]any{"a": []any{2, 1}}),
		MustFromMap(map[string]any{"a": 1, "b": false}),
		New(),
	}

	seen := make(map[string]int)
	for i, s := range cases {
		sig, err := Signature(s)
		require.NoError(t, err)
		if prev, ok := seen[sig]; ok {
			t.Fatalf("states %d and %d share signature %s", prev, i, sig)
		}
		seen[sig] = i
	}
}

func TestSignatureNumericForms(t *testing.T) {
	intSig, err := Signature(State{"n": Int(3)})
	require.NoError(t, err)
	floatSig, err := Signature(State{"n": Number(3.0)})
	require.NoError(t, err)
	assert.Equal(t, intSig, floatSig)
}

func TestSignatureTreatsNullAsAbsent(t *testing.T) {
	withNull, err := Signature(State{"carrier": Null(), "staff": Int(2)})
	require.NoError(t, err)
	without, err := Signature(State{"staff": Int(2)})
	require.NoError(t, err)
	assert.Equal(t, without, withNull)

	empty, err := Signature(New())
	require.NoError(t, err)
	onlyNull, err := Signature(State{"carrier": Null()})
	require.NoError(t, err)
	assert.Equal(t, empty, onlyNull)

	assert.True(t, State{"carrier": Null()}.Equal(New()))
}
