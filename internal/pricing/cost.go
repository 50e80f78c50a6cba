// Package pricing implements the per-job cost model.
package pricing

import (
	"math"

	"reelmate/internal/domain"
)

var baseCost = map[domain.JobType]float64{
	domain.JobTypeAIGenerated: 0.15,
	domain.JobTypeAvatarVideo: 0.25,
	domain.JobTypeVoiceover:   0.10,
}

var qualityMultiplier = map[domain.Quality]float64{
	domain.QualityStandard: 1.0,
	domain.QualityHD:       1.5,
	domain.Quality4K:       2.0,
}

// Cost returns baseCost[jobType] × qualityMultiplier[quality] × max(1, duration/60).
// Unknown job types price as ai-generated and unknown qualities as standard.
func Cost(jobType domain.JobType, durationSeconds int, quality domain.Quality) float64 {
	base, ok := baseCost[jobType]
	if !ok {
		base = baseCost[domain.JobTypeAIGenerated]
	}
	mult, ok := qualityMultiplier[quality]
	if !ok {
		mult = qualityMultiplier[domain.QualityStandard]
	}
	minutes := math.Max(1, float64(durationSeconds)/60)
	return base * mult * minutes
}

// EstimateDurationSeconds derives the spoken duration of a script with the
// fixed characters-per-second heuristic used for billing.
func EstimateDurationSeconds(script string) int {
	n := len([]rune(script))
	if n == 0 {
		return 0
	}
	return int(math.Ceil(float64(n) / 150))
}

// Round formats a cost for presentation.
func Round(cost float64) float64 {
	return math.Round(cost*10000) / 10000
}
