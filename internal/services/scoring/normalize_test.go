package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		method string
		in     []float64
		want   []float64
	}{
		{name: "minmax", method: "minmax", in: []float64{10, 20, 30}, want: []float64{0, 50, 100}},
		{name: "zscore", method: "zscore", in: []float64{1, 2, 3}, want: []float64{35, 50, 65}},
		{name: "single value keeps raw", method: "minmax", in: []float64{42}, want: []float64{42}},
		{name: "no spread keeps raw", method: "zscore", in: []float64{70, 70}, want: []float64{70, 70}},
		{name: "empty", method: "minmax", in: nil, want: []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalize(tt.method, tt.in)
			assert.InDeltaSlice(t, tt.want, got, 1e-9)
		})
	}
}

func TestNormalize_ZScoreClamped(t *testing.T) {
	in := []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 100}
	for _, v := range normalize("zscore", in) {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}
