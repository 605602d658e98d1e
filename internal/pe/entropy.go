package pe

import "math"

// CalculateEntropy calculates Shannon entropy for a given data block.
// Entropy value ranges from 0 (completely uniform) to 8 (completely random).
// High entropy (>7.0) often indicates encryption or compression.
func CalculateEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0.0
	}

	// Count byte frequencies
	var freq [256]int
	for _, b := range data {
		freq[b]++
	}

	// Calculate Shannon entropy: H = -Σ(p(x) * log2(p(x)))
	var entropy float64
	dataLen := float64(len(data))

	for _, count := range freq {
		if count == 0 {
			continue
		}
		p := float64(count) / dataLen
		entropy -= p * math.Log2(p)
	}

	return entropy
}

// SectionEntropy calculates the entropy of a section's raw data. Raw data
// extending past the end of the image is clipped.
func SectionEntropy(data []byte, s SectionHeader) float64 {
	start := int(s.PointerToRawData)
	if start >= len(data) {
		return 0.0
	}
	raw, _ := subslice(data, start, min(int(s.SizeOfRawData), len(data)-start))
	return CalculateEntropy(raw)
}
