package gmns2graph

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkTypesAllocateFirstLetter(t *testing.T) {
	lt := NewLinkTypes()
	code, err := lt.FindOrAllocate("Arterial")
	require.NoError(t, err)
	assert.Equal(t, byte('a'), code)

	registered, ok := lt.Get('a')
	require.True(t, ok)
	assert.Equal(t, "Arterial", registered.LinkType)
}

func TestLinkTypesAllocateIsIdempotent(t *testing.T) {
	lt := NewLinkTypes()
	first, err := lt.FindOrAllocate("Arterial")
	require.NoError(t, err)
	second, err := lt.FindOrAllocate("Arterial")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, lt.Codes(), 1)
}

func TestLinkTypesCollisionFallsBackToUpperCase(t *testing.T) {
	lt := NewLinkTypes()
	_, err := lt.FindOrAllocate("arterial")
	require.NoError(t, err)

	code, err := lt.FindOrAllocate("avenue")
	require.NoError(t, err)
	assert.Equal(t, byte('A'), code)
}

func TestLinkTypesCollisionWalksTheName(t *testing.T) {
	lt := NewLinkTypes()
	_, err := lt.FindOrAllocate("arterial") // takes 'a'
	require.NoError(t, err)
	_, err = lt.FindOrAllocate("avenue") // takes 'A'
	require.NoError(t, err)

	code, err := lt.FindOrAllocate("alley")
	require.NoError(t, err)
	assert.Equal(t, byte('l'), code)
}

func TestLinkTypesAlphabetFallback(t *testing.T) {
	lt := NewLinkTypes()
	// Exhaust every candidate the name itself offers
	lt.register('z', "taken-z")
	lt.register('Z', "taken-Z")

	code, err := lt.FindOrAllocate("zzz")
	require.NoError(t, err)
	assert.Equal(t, byte('a'), code)
}

func TestLinkTypesAlphabetExhausted(t *testing.T) {
	lt := NewLinkTypes()
	for i := 0; i < len(asciiLetters); i++ {
		lt.register(asciiLetters[i], string(asciiLetters[i])+"-taken")
	}
	_, err := lt.FindOrAllocate("zzz")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlphabetExhausted))
}

func TestLinkTypesCodesAreUnique(t *testing.T) {
	lt := NewLinkTypes()
	names := []string{"arterial", "avenue", "alley", "boulevard", "bridge", "Arcade"}
	for _, name := range names {
		_, err := lt.FindOrAllocate(name)
		require.NoError(t, err)
	}
	codes := lt.Codes()
	assert.Len(t, codes, len(names))
	seen := map[byte]struct{}{}
	for _, c := range codes {
		_, dup := seen[c]
		assert.False(t, dup, "code %c allocated twice", c)
		seen[c] = struct{}{}
	}
}

func TestModesRegistry(t *testing.T) {
	m := NewModes()
	require.NoError(t, m.Add(Mode{Code: 'c', Name: "car"}))
	require.NoError(t, m.Add(Mode{Code: 'w', Name: "walk"}))

	assert.True(t, m.Contains('c'))
	assert.False(t, m.Contains('b'))
	assert.Equal(t, []byte{'c', 'w'}, m.Codes())

	err := m.Add(Mode{Code: 'c', Name: "car again"})
	require.Error(t, err)

	mode, ok := m.Get('w')
	require.True(t, ok)
	assert.Equal(t, "walk", mode.Name)
}
