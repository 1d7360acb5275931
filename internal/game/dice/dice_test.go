package dice_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/encountersim/internal/game/dice"
	"github.com/cory-johannsen/encountersim/internal/game/dice/dicetest"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want dice.Expression
	}{
		{"3d6+2", dice.Expression{Count: 3, Sides: 6, Multiplier: 1, Addend: 2}},
		{"2d8x2-1", dice.Expression{Count: 2, Sides: 8, Multiplier: 2, Addend: -1}},
		{"4d6/2", dice.Expression{Count: 4, Sides: 6, Multiplier: -2, Addend: 0}},
		{"d6", dice.Expression{Count: 1, Sides: 6, Multiplier: 1}},
		{"1d10x10", dice.Expression{Count: 1, Sides: 10, Multiplier: 10}},
		{"5", dice.Expression{Multiplier: 1, Addend: 5}},
		{"-3", dice.Expression{Multiplier: 1, Addend: -3}},
		{" 12 ", dice.Expression{Multiplier: 1, Addend: 12}},
		{"", dice.Expression{Multiplier: 1}},
		{"-", dice.Expression{Multiplier: 1}},
		{"lots", dice.Expression{Multiplier: 1}},
		{"0d6", dice.Expression{Multiplier: 1}},
		{"3d0", dice.Expression{Multiplier: 1}},
		{"3D6", dice.Expression{Multiplier: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, dice.Parse(tc.in))
		})
	}
}

func TestParse_IgnoresTrailingText(t *testing.T) {
	assert.Equal(t, dice.Expression{Count: 3, Sides: 6, Multiplier: 1}, dice.Parse("3d6+"))
	assert.Equal(t, dice.Expression{Count: 2, Sides: 4, Multiplier: 1}, dice.Parse("2d4x0+1"))
	assert.Equal(t, dice.Expression{Count: 1, Sides: 8, Multiplier: 1, Addend: 1}, dice.Parse("1d8+1 (lair)"))
	assert.Equal(t, dice.Expression{Count: 2, Sides: 6, Multiplier: 1, Addend: 7}, dice.Parse("2d6+007"))
}

func TestExpression_MinMax(t *testing.T) {
	e := dice.Parse("2d8x2-1")
	assert.Equal(t, 3, e.Min())
	assert.Equal(t, 31, e.Max())
	assert.Equal(t, 17, e.Avg())
}

func TestExpression_DivideRoundsUp(t *testing.T) {
	e := dice.Parse("4d6/2")
	// raw sum 7 = 1+2+3+1
	src := dicetest.NewScriptedSource(1, 2, 3, 1)
	assert.Equal(t, 4, e.Roll(src))
	assert.Equal(t, 2, e.Min())
	assert.Equal(t, 12, e.Max())
}

func TestExpression_DivideZeroSum(t *testing.T) {
	e := dice.Expression{Multiplier: -3, Addend: 1}
	assert.Equal(t, 1, e.Min())
}

func TestExpression_AvgRoundsDown(t *testing.T) {
	assert.Equal(t, 7, dice.Parse("2d6").Avg())
	assert.Equal(t, 3, dice.Parse("1d6").Avg())
	assert.Equal(t, -3, dice.Expression{Count: 1, Sides: 2, Multiplier: 1, Addend: -4}.Avg())
}

func TestExpression_ConstantRoll(t *testing.T) {
	e := dice.Parse("5")
	src := dicetest.NewScriptedSource()
	for i := 0; i < 10; i++ {
		assert.Equal(t, 5, e.Roll(src))
	}
	assert.Equal(t, 0, src.Remaining())
}

func TestExpression_BoundRoll(t *testing.T) {
	e := dice.Parse("1d6-3")
	assert.Equal(t, 1, e.BoundRoll(dicetest.NewScriptedSource(1), 1))
	assert.Equal(t, 3, e.BoundRoll(dicetest.NewScriptedSource(6), 1))
}

func TestExpression_AddToAddend(t *testing.T) {
	e := dice.Parse("2d6+1")
	e.AddToAddend(-3)
	assert.Equal(t, -2, e.Addend)
	assert.Equal(t, "2d6-2", e.String())
}

func TestExpression_String(t *testing.T) {
	assert.Equal(t, "3d6+2", dice.Parse("3d6+2").String())
	assert.Equal(t, "4d6/2", dice.Parse("4d6/2").String())
	assert.Equal(t, "1d6", dice.Parse("d6").String())
	assert.Equal(t, "-7", dice.Constant(-7).String())
	assert.Equal(t, "0", dice.Parse("junk").String())
}

func TestRoll_RecordsDice(t *testing.T) {
	res := dice.Roll(dice.Parse("2d6x2+1"), dicetest.NewScriptedSource(3, 4))
	assert.Equal(t, []int{3, 4}, res.Dice)
	assert.Equal(t, 7, res.Sum())
	assert.Equal(t, 15, res.Total())
	assert.Equal(t, "2d6x2+1 → [3 4] = 15", res.String())
}

func TestRollResult_String_PanicsOnEmptyExpression(t *testing.T) {
	r := dice.RollResult{Dice: []int{4}, Multiplier: 1}
	assert.Panics(t, func() { _ = r.String() })
}

func genExpression(t *rapid.T) dice.Expression {
	mult := rapid.IntRange(1, 20).Draw(t, "mult")
	if rapid.Bool().Draw(t, "divide") {
		mult = -mult
	}
	return dice.Expression{
		Count:      rapid.IntRange(1, 50).Draw(t, "count"),
		Sides:      rapid.IntRange(1, 100).Draw(t, "sides"),
		Multiplier: mult,
		Addend:     rapid.IntRange(-1000, 1000).Draw(t, "addend"),
	}
}

// Parse(String()) is the identity for every dice expression.
func TestProperty_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e := genExpression(t)
		assert.Equal(t, e, dice.Parse(e.String()))
	})
}

// Every roll lies within [Min, Max] and Avg lies between them.
func TestProperty_RollWithinBounds(t *testing.T) {
	src := dice.NewSeededSource(42)
	rapid.Check(t, func(t *rapid.T) {
		e := genExpression(t)
		v := e.Roll(src)
		assert.GreaterOrEqual(t, v, e.Min())
		assert.LessOrEqual(t, v, e.Max())
		assert.GreaterOrEqual(t, e.Avg(), e.Min())
		assert.LessOrEqual(t, e.Avg(), e.Max())
	})
}

// Division rounds the raw sum up, matching ceil(sum/div) for positive sums.
func TestProperty_DivisionIsCeiling(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		faces := rapid.SliceOfN(rapid.IntRange(1, 6), 1, 10).Draw(t, "faces")
		div := rapid.IntRange(1, 10).Draw(t, "div")
		sum := 0
		for _, f := range faces {
			sum += f
		}
		e := dice.Expression{Count: len(faces), Sides: 6, Multiplier: -div}
		got := e.Roll(dicetest.NewScriptedSource(faces...))
		assert.Equal(t, (sum+div-1)/div, got)
	})
}

// Arbitrary junk never panics and always yields a usable expression.
func TestProperty_ParseNeverPanics(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "input")
		e := dice.Parse(s)
		if e.Count > 0 {
			require.GreaterOrEqual(t, e.Sides, 1)
			require.NotZero(t, e.Multiplier)
		}
	})
}

func TestProperty_ConstantStringRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(-100000, 100000).Draw(t, "n")
		e := dice.Constant(n)
		assert.Equal(t, e, dice.Parse(e.String()))
		assert.False(t, strings.Contains(e.String(), "d"))
	})
}
