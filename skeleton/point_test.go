package skeleton

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/hupe1980/nblast/internal/errs"
)

func TestParsePoint(t *testing.T) {
	t.Run("child", func(t *testing.T) {
		p, err := ParsePoint("3 2 1.5 -2 3e2 0.75 1")
		require.NoError(t, err)
		assert.Equal(t, 3, p.ID)
		assert.Equal(t, 2, p.Label)
		assert.Equal(t, r3.Vec{X: 1.5, Y: -2, Z: 300}, p.Pos)
		assert.Equal(t, 0.75, p.Radius)
		assert.Equal(t, ParentOf(1), p.Parent)
		assert.False(t, p.IsRoot())
	})

	t.Run("root", func(t *testing.T) {
		p, err := ParsePoint("0 1 0 0 0 1 -1")
		require.NoError(t, err)
		assert.True(t, p.IsRoot())
		assert.Equal(t, NoParent(), p.Parent)
	})

	t.Run("float encoded integers", func(t *testing.T) {
		p, err := ParsePoint("4.0 1 0 0 0 1 2.0")
		require.NoError(t, err)
		assert.Equal(t, 4, p.ID)
		assert.Equal(t, 2, p.Parent.ID)
	})

	t.Run("trailing fields ignored", func(t *testing.T) {
		_, err := ParsePoint("1 1 0 0 0 1 0 extra")
		require.NoError(t, err)
	})
}

func TestParsePoint_Errors(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		field string
	}{
		{"too few fields", "1 2 3", ""},
		{"bad id", "x 1 0 0 0 1 -1", "id"},
		{"fractional id", "1.5 1 0 0 0 1 -1", "id"},
		{"negative id", "-3 1 0 0 0 1 -1", "id"},
		{"bad x", "1 1 a 0 0 1 -1", "x"},
		{"bad z", "1 1 0 0 zz 1 -1", "z"},
		{"nan y", "1 1 0 NaN 0 1 -1", "y"},
		{"bad radius", "1 1 0 0 0 r -1", "radius"},
		{"bad parent", "1 1 0 0 0 1 p", "parent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePoint(tt.line)
			require.Error(t, err)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.field, pe.Field)
			assert.ErrorIs(t, err, errs.ErrInput)
		})
	}
}
