package dsl_test

import (
	"testing"

	"github.com/aretw0/nodechain/pkg/dsl"
	"github.com/stretchr/testify/assert"
)

func TestMerge(t *testing.T) {
	x := dsl.NewNode(dsl.Path("/obj"), "x")
	x2 := dsl.NewNode(dsl.Path("/obj"), "x2")
	y := dsl.NewNode(dsl.Path("/obj"), "y")
	y2 := dsl.NewNode(dsl.Path("/obj"), "y2")

	tests := []struct {
		name      string
		primary   []dsl.Input
		secondary []dsl.Input
		want      []dsl.Input
	}{
		{"sparse primary falls back", []dsl.Input{nil}, []dsl.Input{x}, []dsl.Input{x}},
		{"sparse secondary ignored", []dsl.Input{x}, []dsl.Input{nil}, []dsl.Input{x}},
		{"primary wins", []dsl.Input{x}, []dsl.Input{y}, []dsl.Input{x}},
		{"empty primary", nil, []dsl.Input{x, y}, []dsl.Input{x, y}},
		{"empty secondary", []dsl.Input{x, nil}, nil, []dsl.Input{x, nil}},
		{"per slot", []dsl.Input{x, nil, x2}, []dsl.Input{nil, y, y2}, []dsl.Input{x, y, x2}},
		{"pads shorter", []dsl.Input{nil}, []dsl.Input{nil, y}, []dsl.Input{nil, y}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dsl.Merge(tt.primary, tt.secondary)
			assert.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.True(t, got[i] == tt.want[i], "slot %d: got %v, want %v", i, got[i], tt.want[i])
			}
		})
	}
}

func TestMerge_DoesNotAliasArguments(t *testing.T) {
	x := dsl.NewNode(dsl.Path("/obj"), "x")
	y := dsl.NewNode(dsl.Path("/obj"), "y")
	secondary := []dsl.Input{x}

	got := dsl.Merge(nil, secondary)
	got[0] = y

	assert.True(t, secondary[0] == dsl.Input(x))
}
