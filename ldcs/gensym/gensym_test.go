package gensym

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolSequence(t *testing.T) {
	g := New()

	var got []string
	for i := 0; i < 29; i++ {
		got = append(got, g.Symbol())
	}

	assert.Equal(t, "A", got[0])
	assert.Equal(t, "B", got[1])
	assert.Equal(t, "Z", got[25])
	assert.Equal(t, "X0", got[26])
	assert.Equal(t, "X1", got[27])
	assert.Equal(t, "X2", got[28])
}

func TestSymbolsNeverRepeat(t *testing.T) {
	g := New()
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		s := g.Symbol()
		require.False(t, seen[s], "symbol %s issued twice", s)
		seen[s] = true
	}
}

func TestCategoriesAreIndependent(t *testing.T) {
	g := New()

	assert.Equal(t, 1, g.Next(Negation))
	assert.Equal(t, 2, g.Next(Negation))
	assert.Equal(t, 1, g.Next(Disjunction))
	assert.Equal(t, "A", g.Symbol())
	assert.Equal(t, 3, g.Next(Negation))
	assert.Equal(t, 3, g.Peek(Negation))
	assert.Equal(t, 0, g.Peek(Goal))
}

func TestReset(t *testing.T) {
	g := New()
	g.Symbol()
	g.Next(Gather)
	g.Next(Gather)

	g.ResetSymbols()
	assert.Equal(t, "A", g.Symbol())
	assert.Equal(t, 3, g.Next(Gather))

	g.Reset()
	assert.Equal(t, "A", g.Symbol())
	assert.Equal(t, 1, g.Next(Gather))
}

func TestCategoryString(t *testing.T) {
	tests := []struct {
		c    Category
		want string
	}{
		{Disjunction, "disjunction"},
		{Negation, "negation"},
		{Aggregation, "aggregation"},
		{Superlative, "superlative"},
		{Object, "object"},
		{Category(99), "category(99)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.c.String())
	}
}
