package dedupe

import (
	"math"
	"strings"
)

// Ratio returns a normalized Levenshtein similarity score in 0-100.
// Identical strings score 100; two empty strings count as identical.
func Ratio(a, b string) int {
	if a == b {
		return 100
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	dist := levenshtein(a, b)
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}

	return int(math.Round(100 * (1 - float64(dist)/float64(longest))))
}

// levenshtein computes edit distance with a two-row table.
func levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, minInt(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

// TFIDFVectors vectorizes the documents into L2-normalized term-weight
// maps over the whole set, using smoothed inverse document frequency.
func TFIDFVectors(docs []string) []map[string]float64 {
	n := len(docs)
	tokenized := make([][]string, n)
	docFreq := make(map[string]int)

	for i, doc := range docs {
		tokens := strings.Fields(strings.ToLower(doc))
		tokenized[i] = tokens

		seen := make(map[string]bool)
		for _, tok := range tokens {
			if !seen[tok] {
				seen[tok] = true
				docFreq[tok]++
			}
		}
	}

	vectors := make([]map[string]float64, n)
	for i, tokens := range tokenized {
		vec := make(map[string]float64)
		if len(tokens) == 0 {
			vectors[i] = vec
			continue
		}

		for _, tok := range tokens {
			vec[tok]++
		}
		var norm float64
		for tok, count := range vec {
			tf := count / float64(len(tokens))
			idf := math.Log(float64(1+n)/float64(1+docFreq[tok])) + 1
			w := tf * idf
			vec[tok] = w
			norm += w * w
		}
		norm = math.Sqrt(norm)
		if norm > 0 {
			for tok := range vec {
				vec[tok] /= norm
			}
		}
		vectors[i] = vec
	}

	return vectors
}

// Cosine returns the cosine similarity of two L2-normalized vectors.
func Cosine(a, b map[string]float64) float64 {
	// Iterate the smaller map.
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for tok, w := range a {
		dot += w * b[tok]
	}
	return dot
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
