package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dungeon/internal/game/dice"
)

func TestParse_Forms(t *testing.T) {
	cases := []struct {
		in                    string
		count, sides, modifer int
	}{
		{"d6", 1, 6, 0},
		{"2d4", 2, 4, 0},
		{"1d8+2", 1, 8, 2},
		{"3D6-1", 3, 6, -1},
		{"3", 0, 0, 3},
	}
	for _, tc := range cases {
		e, err := dice.Parse(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.count, e.Count, tc.in)
		assert.Equal(t, tc.sides, e.Sides, tc.in)
		assert.Equal(t, tc.modifer, e.Modifier, tc.in)
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"", "xd6", "0d6", "2d", "2d0", "1d6+x", "abc"} {
		_, err := dice.Parse(in)
		assert.Error(t, err, "expected %q to be rejected", in)
	}
}

func TestParse_ConstantRollsItself(t *testing.T) {
	e, err := dice.Parse("3")
	require.NoError(t, err)
	assert.Zero(t, e.Count)
	assert.Zero(t, e.Sides)
	assert.Equal(t, 3, e.Min())
	assert.Equal(t, 3, e.Max())
	assert.Equal(t, 3, e.Roll(dice.NewSeededSource(1)))
}

func TestCryptoSource_Intn_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Intn(6)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 6)
	}
}

func TestCryptoSource_Intn_PanicsOnZero(t *testing.T) {
	assert.Panics(t, func() { dice.NewCryptoSource().Intn(0) })
}

func TestSeededSource_IsDeterministic(t *testing.T) {
	a := dice.NewSeededSource(42)
	b := dice.NewSeededSource(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Intn(1000), b.Intn(1000))
	}
}

func TestPick_ReturnsElement(t *testing.T) {
	items := []string{"a", "b", "c"}
	src := dice.NewSeededSource(7)
	for i := 0; i < 50; i++ {
		assert.Contains(t, items, dice.Pick(src, items))
	}
}

func TestProperty_Roll_WithinBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e := dice.Expression{
			Raw:      "NdS+M",
			Count:    rapid.IntRange(1, 10).Draw(rt, "count"),
			Sides:    rapid.IntRange(1, 20).Draw(rt, "sides"),
			Modifier: rapid.IntRange(-10, 10).Draw(rt, "modifier"),
		}
		seed := rapid.Uint64().Draw(rt, "seed")
		got := e.Roll(dice.NewSeededSource(seed))
		assert.GreaterOrEqual(rt, got, e.Min())
		assert.LessOrEqual(rt, got, e.Max())
	})
}
