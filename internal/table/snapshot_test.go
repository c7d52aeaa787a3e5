package table

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() IDFunc {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("cell-%d", n)
	}
}

func TestNew(t *testing.T) {
	t.Run("assigns ids and positions", func(t *testing.T) {
		s, err := New([]string{"A", "B"}, [][]int{{1, 2}, {3, 4}}, sequentialIDs())
		require.NoError(t, err)
		require.NoError(t, s.Validate())

		assert.Equal(t, 2, s.RowCount())
		assert.Equal(t, 2, s.ColumnCount())
		c, ok := s.Cell(1, 0)
		require.True(t, ok)
		assert.Equal(t, Cell{ID: "cell-3", Value: 3, Row: 1, Col: 0}, c)
	})

	t.Run("rejects ragged rows", func(t *testing.T) {
		_, err := New([]string{"A", "B"}, [][]int{{1}}, sequentialIDs())
		assert.Error(t, err)
	})

	t.Run("requires id generator", func(t *testing.T) {
		_, err := New([]string{"A"}, nil, nil)
		assert.Error(t, err)
	})
}

func TestSeed(t *testing.T) {
	s := Seed(sequentialIDs())
	require.NoError(t, s.Validate())
	if diff := cmp.Diff(DefaultValues, s.Values()); diff != "" {
		t.Errorf("seed values mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, DefaultHeaders, s.Headers)
}

func TestClone_IsIndependent(t *testing.T) {
	s := Seed(sequentialIDs())
	c := s.Clone()
	c.Rows[0][0].Value = 99
	c.Headers[0] = "changed"

	assert.Equal(t, 1, s.Rows[0][0].Value)
	assert.Equal(t, "Column 1", s.Headers[0])
}

func TestCell_OutOfRange(t *testing.T) {
	s := Seed(sequentialIDs())
	for _, pos := range [][2]int{{-1, 0}, {0, -1}, {3, 0}, {0, 3}} {
		_, ok := s.Cell(pos[0], pos[1])
		assert.False(t, ok, "position %v", pos)
	}
	assert.Nil(t, s.RowValues(5))
}

func TestValidate_DetectsStalePositions(t *testing.T) {
	s := Seed(sequentialIDs())
	s.Rows[2][1].Row = 0
	assert.Error(t, s.Validate())
}

func TestFormatValues(t *testing.T) {
	assert.Equal(t, "10, 20, 30", FormatValues([]int{10, 20, 30}))
	assert.Equal(t, "", FormatValues(nil))
}
