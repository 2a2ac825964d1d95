package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"length mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0.0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0.0},
		{"empty", nil, nil, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func makeRecords(n, dim int, prefix string) []VectorRecord {
	records := make([]VectorRecord, n)
	for i := range records {
		records[i] = VectorRecord{
			NodeID:    fmt.Sprintf("%s-%d", prefix, i),
			Citekey:   prefix,
			Embedding: make([]float32, dim),
		}
	}
	return records
}

func TestFilterDominantDimension_DropsForeignWidth(t *testing.T) {
	records := append(makeRecords(9, 384, "a"), makeRecords(1, 768, "b")...)

	kept, dim, dropped := FilterDominantDimension(records)

	assert.Equal(t, 384, dim)
	assert.Equal(t, 1, dropped)
	require.Len(t, kept, 9)
	for _, r := range kept {
		assert.Equal(t, 384, r.Dimensions())
	}
}

func TestFilterDominantDimension_Uniform(t *testing.T) {
	records := makeRecords(4, 8, "a")

	kept, dim, dropped := FilterDominantDimension(records)

	assert.Equal(t, 8, dim)
	assert.Zero(t, dropped)
	assert.Len(t, kept, 4)
}

func TestFilterDominantDimension_Empty(t *testing.T) {
	kept, dim, dropped := FilterDominantDimension(nil)

	assert.Empty(t, kept)
	assert.Zero(t, dim)
	assert.Zero(t, dropped)
}

func TestDominantDimension_IgnoresEmptyVectors(t *testing.T) {
	records := append(makeRecords(3, 0, "empty"), makeRecords(1, 16, "a")...)
	assert.Equal(t, 16, DominantDimension(records))
}

func TestFilterByDimension(t *testing.T) {
	records := append(makeRecords(2, 4, "a"), makeRecords(3, 2, "b")...)
	assert.Len(t, FilterByDimension(records, 2), 3)
	assert.Empty(t, FilterByDimension(records, 0))
}
