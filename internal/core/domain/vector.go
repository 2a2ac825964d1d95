package domain

import "math"

// CosineSimilarity returns the cosine similarity of a and b.
// Vectors of different length or zero norm score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// DominantDimension returns the most common embedding width among records.
// Ties resolve to the width that reached the count first. Returns 0 for no records.
func DominantDimension(records []VectorRecord) int {
	counts := make(map[int]int)
	best, bestCount := 0, 0
	for _, r := range records {
		d := r.Dimensions()
		if d == 0 {
			continue
		}
		counts[d]++
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best
}

// FilterDominantDimension keeps only records whose width equals the dominant
// width. It returns the kept records, the dominant width and the number of
// records dropped.
func FilterDominantDimension(records []VectorRecord) ([]VectorRecord, int, int) {
	dim := DominantDimension(records)
	kept := FilterByDimension(records, dim)
	return kept, dim, len(records) - len(kept)
}

// FilterByDimension keeps only records of exactly dim dimensions.
func FilterByDimension(records []VectorRecord, dim int) []VectorRecord {
	kept := make([]VectorRecord, 0, len(records))
	for _, r := range records {
		if dim > 0 && r.Dimensions() == dim {
			kept = append(kept, r)
		}
	}
	return kept
}
