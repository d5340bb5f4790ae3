package nn

import (
	"math/rand"

	"github.com/chewxy/math32"
)

// xavierUniform fills dst with samples from U(-limit, limit) where
// limit = sqrt(6 / (fanIn + fanOut)).
func xavierUniform(rng *rand.Rand, dst []float32, fanIn, fanOut int) {
	limit := math32.Sqrt(6 / float32(fanIn+fanOut))
	for i := range dst {
		dst[i] = (2*rng.Float32() - 1) * limit
	}
}
