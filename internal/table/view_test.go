package table

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func viewValues(rows [][]Cell) [][]int {
	out := make([][]int, len(rows))
	for i, row := range rows {
		for _, c := range row {
			out[i] = append(out[i], c.Value)
		}
	}
	return out
}

func TestView(t *testing.T) {
	s, err := New([]string{"A", "B"}, [][]int{{3, 10}, {1, 25}, {2, 15}}, sequentialIDs())
	require.NoError(t, err)

	tests := []struct {
		name string
		opts ViewOptions
		want [][]int
	}{
		{
			name: "no options keeps order",
			opts: ViewOptions{SortColumn: -1},
			want: [][]int{{3, 10}, {1, 25}, {2, 15}},
		},
		{
			name: "sort ascending",
			opts: ViewOptions{SortColumn: 0},
			want: [][]int{{1, 25}, {2, 15}, {3, 10}},
		},
		{
			name: "sort descending by second column",
			opts: ViewOptions{SortColumn: 1, Descending: true},
			want: [][]int{{1, 25}, {2, 15}, {3, 10}},
		},
		{
			name: "filter by substring",
			opts: ViewOptions{Filter: "5", SortColumn: -1},
			want: [][]int{{1, 25}, {2, 15}},
		},
		{
			name: "out of range sort column ignored",
			opts: ViewOptions{SortColumn: 7},
			want: [][]int{{3, 10}, {1, 25}, {2, 15}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := viewValues(View(s, tt.opts))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("View() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestView_DoesNotTouchSnapshot(t *testing.T) {
	s, err := New([]string{"A"}, [][]int{{3}, {1}, {2}}, sequentialIDs())
	require.NoError(t, err)
	before := s.Clone()

	rows := View(s, ViewOptions{SortColumn: 0})

	if diff := cmp.Diff(before, s); diff != "" {
		t.Errorf("snapshot changed (-before +after):\n%s", diff)
	}
	// Positions stay tied to the canonical snapshot.
	assert.Equal(t, 1, rows[0][0].Row)
	assert.Equal(t, 2, rows[1][0].Row)
	assert.Equal(t, 0, rows[2][0].Row)
}
