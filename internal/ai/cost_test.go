package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextCostMicros(t *testing.T) {
	// 2500 micro-dollars per 1K tokens, 500 tokens used.
	assert.Equal(t, int64(1250), TextCostMicros(500, 2500))
	assert.Equal(t, int64(0), TextCostMicros(0, 2500))
	assert.Equal(t, int64(2500), TextCostMicros(1000, 2500))
}

func TestTextCostMicrosStaysIntegral(t *testing.T) {
	var total int64
	for i := 0; i < 1_000_000; i++ {
		total += TextCostMicros(3, 1000)
	}
	assert.Equal(t, int64(3_000_000), total)
}

func TestImageCostMicros(t *testing.T) {
	assert.Equal(t, int64(40_000), ImageCostMicros(1, 40_000))
	assert.Equal(t, int64(120_000), ImageCostMicros(3, 40_000))
	// Zero count bills as a single image.
	assert.Equal(t, int64(40_000), ImageCostMicros(0, 40_000))
}

func TestMicrosToUSD(t *testing.T) {
	assert.InDelta(t, 1.25, MicrosToUSD(1_250_000), 1e-9)
	assert.InDelta(t, 0.0, MicrosToUSD(0), 1e-9)
}
