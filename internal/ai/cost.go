package ai

// Costs are carried as integer micro-dollars (millionths of a USD). Sums over
// millions of small generations stay exact; conversion to display currency
// happens only at read time.

const MicrosPerDollar int64 = 1_000_000

// TextCostMicros computes the cost of a text generation from the tokens used
// and the model's per-thousand-token price.
func TextCostMicros(tokens int, perThousandMicros int64) int64 {
	return int64(tokens) * perThousandMicros / 1000
}

// ImageCostMicros computes the cost of an image generation.
func ImageCostMicros(count int, perImageMicros int64) int64 {
	if count < 1 {
		count = 1
	}
	return int64(count) * perImageMicros
}

// MicrosToUSD converts a micro-dollar amount to USD for display.
func MicrosToUSD(micros int64) float64 {
	return float64(micros) / float64(MicrosPerDollar)
}
