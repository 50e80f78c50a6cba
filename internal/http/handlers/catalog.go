package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"reelmate/internal/domain"
	"reelmate/internal/pricing"
)

func (a *App) Avatars(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"items": a.Catalog.Avatars()})
}

func (a *App) Voices(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"items": a.Catalog.Voices()})
}

type estimateResponse struct {
	JobType         domain.JobType `json:"job_type"`
	Quality         domain.Quality `json:"quality"`
	DurationSeconds int            `json:"duration_seconds"`
	Cost            float64        `json:"cost"`
}

// PricingEstimate prices a job from job_type, quality and either duration
// (seconds) or script, whose duration is estimated the way processing does.
func (a *App) PricingEstimate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp := estimateResponse{
		JobType: domain.JobType(q.Get("job_type")),
		Quality: domain.Quality(q.Get("quality")),
	}
	if resp.JobType == "" {
		resp.JobType = domain.JobTypeAvatarVideo
	}
	if resp.Quality == "" {
		resp.Quality = domain.QualityStandard
	}
	switch {
	case q.Get("duration") != "":
		d, err := strconv.Atoi(q.Get("duration"))
		if err != nil || d < 0 {
			a.fail(w, r, fmt.Errorf("%w: duration must be a non-negative integer", domain.ErrInvalidRequest))
			return
		}
		resp.DurationSeconds = d
	case q.Get("script") != "":
		resp.DurationSeconds = pricing.EstimateDurationSeconds(q.Get("script"))
	default:
		a.fail(w, r, fmt.Errorf("%w: duration or script is required", domain.ErrInvalidRequest))
		return
	}
	resp.Cost = pricing.Round(pricing.Cost(resp.JobType, resp.DurationSeconds, resp.Quality))
	a.json(w, http.StatusOK, resp)
}
