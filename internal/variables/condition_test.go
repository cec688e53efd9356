package variables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_Comparisons(t *testing.T) {
	s := New()
	require.NoError(t, s.SetNumeric("NumA", 5))
	require.NoError(t, s.SetString("StrA", "Hello"))
	require.NoError(t, s.SetVersion("VerA", [4]uint16{1, 2, 0, 0}))

	tests := []struct {
		name string
		cond string
		want bool
	}{
		{"numeric equality", "NumA = 5", true},
		{"numeric inequality", "NumA <> 5", false},
		{"string case-sensitive mismatch", "StrA = \"hello\"", false},
		{"string case-insensitive match", "StrA ~= \"hello\"", true},
		{"version ordered compare", "VerA > v1.0", true},
		{"version ordered compare false", "VerA < v1.0", false},
		{"numeric begins-with bitmask", "12 << 8", true},
		{"string begins-with", "StrA << \"He\"", true},
		{"contains", "StrA >< \"ell\"", true},
		{"numeric low-bits subset false", "65536 << 1", false},
		{"numeric high-bits subset true", "65536 >> 1", true},
		{"and both true", "(NumA = 5) AND (StrA ~= \"hello\")", true},
		{"or one true", "(NumA = 1) OR (StrA ~= \"hello\")", true},
		{"not inverts", "NOT (NumA = 1)", true},
		{"undefined variable is false", "Missing", false},
		{"coerce string to numeric", "NumA = \"5\"", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.Evaluate(tc.cond)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got, tc.cond)
		})
	}
}

func TestEvaluate_CommutativityProperties(t *testing.T) {
	// §8 property 8: equivalent conditions yield the same truth value.
	s := New()
	require.NoError(t, s.SetNumeric("A", 1))
	require.NoError(t, s.SetNumeric("B", 0))

	ab, err := s.Evaluate("A AND B")
	require.NoError(t, err)
	ba, err := s.Evaluate("B AND A")
	require.NoError(t, err)
	assert.Equal(t, ab, ba)

	notNotA, err := s.Evaluate("NOT NOT A")
	require.NoError(t, err)
	plainA, err := s.Evaluate("A")
	require.NoError(t, err)
	assert.Equal(t, plainA, notNotA)
}

func TestEvaluate_InvalidCoercionIsError(t *testing.T) {
	s := New()
	require.NoError(t, s.SetNumeric("N", 1))
	_, err := s.Evaluate("N = \"not-a-number\"")
	assert.Error(t, err)
}
