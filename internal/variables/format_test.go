package variables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat_Substitution(t *testing.T) {
	s := New()
	require.NoError(t, s.SetString("InstallFolder", `C:\Program Files\App`))

	got, err := s.Format(`Installing into [InstallFolder] now`)
	require.NoError(t, err)
	assert.Equal(t, `Installing into C:\Program Files\App now`, got)
}

func TestFormat_EmptyBracketsAndEscapes(t *testing.T) {
	s := New()
	got, err := s.Format(`a[]b[\[]c[\]]d`)
	require.NoError(t, err)
	assert.Equal(t, "ab[c]d", got)
}

func TestFormat_UnterminatedBracketCopiedVerbatim(t *testing.T) {
	s := New()
	got, err := s.Format(`tail [unterminated`)
	require.NoError(t, err)
	assert.Equal(t, `tail [unterminated`, got)
}

func TestFormat_UndefinedNameIsEmpty(t *testing.T) {
	s := New()
	got, err := s.Format(`[Missing]`)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestFormatEscapeRoundTrip(t *testing.T) {
	// §8 property 7: format(escape(s)) == s for s with no unescaped brackets.
	s := New()
	inputs := []string{"plain text", "has [one] bracket pair literally, escaped", "trailing ]"}
	for _, in := range inputs {
		escaped := Escape(in)
		got, err := s.Format(escaped)
		require.NoError(t, err)
		assert.Equal(t, in, got)
	}
}

func TestFormat_SelfReferenceDoesNotRecurseUnbounded(t *testing.T) {
	s := New()
	require.NoError(t, s.SetString("A", "[A]"))

	got, err := s.Format("[A]")
	require.NoError(t, err)
	assert.Equal(t, "[A]", got)
}

func TestFormat_CaseSensitiveNames(t *testing.T) {
	s := New()
	require.NoError(t, s.SetString("Foo", "upper-miss"))
	require.NoError(t, s.SetString("foo", "lower-hit"))
	got, err := s.Format("[foo]")
	require.NoError(t, err)
	assert.Equal(t, "lower-hit", got)
}
