package report

import (
	"math"
	"slices"
	"time"

	"github.com/Nullvora/mabor-bench/internal/model"
)

// Summarize computes summary statistics over post-warm-up samples. Returns
// nil when there are no samples. StdDev uses the unbiased sample formula
// and is left nil when fewer than 2 samples remain, since it is undefined
// there rather than zero.
func Summarize(samples []time.Duration) *model.Stats {
	n := len(samples)
	if n == 0 {
		return nil
	}

	sorted := slices.Clone(samples)
	slices.Sort(sorted)

	var sum time.Duration
	for _, d := range samples {
		sum += d
	}
	mean := sum / time.Duration(n)

	stats := &model.Stats{
		Mean:   mean,
		Median: sorted[n/2],
		Min:    sorted[0],
		Max:    sorted[n-1],
	}

	if n >= 2 {
		meanSec := mean.Seconds()
		var sq float64
		for _, d := range samples {
			diff := d.Seconds() - meanSec
			sq += diff * diff
		}
		sd := time.Duration(math.Sqrt(sq/float64(n-1)) * float64(time.Second))
		stats.StdDev = &sd
	}
	return stats
}
