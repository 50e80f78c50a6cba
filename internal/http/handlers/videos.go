package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"reelmate/internal/domain"
	"reelmate/internal/pricing"
	"reelmate/internal/tracker"
)

const maxGenerateBody = 1 << 20

type generateRequest struct {
	UserID             string                    `json:"user_id"`
	CampaignID         string                    `json:"campaign_id"`
	Script             string                    `json:"script"`
	AvatarID           string                    `json:"avatar_id"`
	VoiceID            string                    `json:"voice_id"`
	PromptTemplateID   string                    `json:"prompt_template_id"`
	JobType            domain.JobType            `json:"job_type"`
	ToneSettings       json.RawMessage           `json:"tone_settings"`
	GenerationSettings domain.GenerationSettings `json:"generation_settings"`
}

type generateResponse struct {
	JobID  string           `json:"job_id"`
	Status domain.JobStatus `json:"status"`
}

type jobResponse struct {
	ID                    string                    `json:"id"`
	UserID                string                    `json:"user_id"`
	CampaignID            string                    `json:"campaign_id,omitempty"`
	JobType               domain.JobType            `json:"job_type"`
	Status                domain.JobStatus          `json:"status"`
	Progress              int                       `json:"progress"`
	Script                string                    `json:"script"`
	AvatarID              string                    `json:"avatar_id"`
	VoiceID               string                    `json:"voice_id"`
	PromptTemplateID      string                    `json:"prompt_template_id,omitempty"`
	ToneSettings          json.RawMessage           `json:"tone_settings,omitempty"`
	GenerationSettings    domain.GenerationSettings `json:"generation_settings"`
	Output                *domain.JobOutput         `json:"output,omitempty"`
	ErrorMessage          *string                   `json:"error_message,omitempty"`
	ProcessingStartedAt   *time.Time                `json:"processing_started_at,omitempty"`
	ProcessingCompletedAt *time.Time                `json:"processing_completed_at,omitempty"`
	CreatedAt             time.Time                 `json:"created_at"`
	UpdatedAt             time.Time                 `json:"updated_at"`
}

func toJobResponse(j *domain.GenerationJob) jobResponse {
	resp := jobResponse{
		ID:                    j.ID,
		UserID:                j.UserID,
		CampaignID:            j.CampaignID,
		JobType:               j.Type,
		Status:                j.Status,
		Progress:              tracker.Progress(j.Status),
		Script:                j.Script,
		AvatarID:              j.AvatarID,
		VoiceID:               j.VoiceID,
		PromptTemplateID:      j.PromptTemplateID,
		ToneSettings:          j.ToneSettings,
		GenerationSettings:    j.GenerationSettings,
		Output:                roundedOutput(j.Output),
		ErrorMessage:          j.ErrorMessage,
		ProcessingStartedAt:   j.ProcessingStartedAt,
		ProcessingCompletedAt: j.ProcessingCompletedAt,
		CreatedAt:             j.CreatedAt,
		UpdatedAt:             j.UpdatedAt,
	}
	if len(resp.ToneSettings) == 0 || string(resp.ToneSettings) == "{}" {
		resp.ToneSettings = nil
	}
	return resp
}

// roundedOutput copies out with its cost rounded for display.
func roundedOutput(out *domain.JobOutput) *domain.JobOutput {
	if out == nil {
		return nil
	}
	o := *out
	o.Cost = pricing.Round(o.Cost)
	return &o
}

func (a *App) statusView(v *tracker.StatusView) *tracker.StatusView {
	v.Output = roundedOutput(v.Output)
	return v
}

func (a *App) VideosGenerate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxGenerateBody+1))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if len(body) > maxGenerateBody {
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", "payload too large")
		return
	}
	if err := validateJSON(a.generateSchema, body); err != nil {
		a.fail(w, r, err)
		return
	}
	var req generateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if _, err := a.Catalog.Avatar(req.AvatarID); err != nil {
		a.fail(w, r, fmt.Errorf("%w: unknown avatar_id %q", domain.ErrInvalidRequest, req.AvatarID))
		return
	}
	if _, err := a.Catalog.Voice(req.VoiceID); err != nil {
		a.fail(w, r, fmt.Errorf("%w: unknown voice_id %q", domain.ErrInvalidRequest, req.VoiceID))
		return
	}

	job, err := a.Tracker.Submit(r.Context(), tracker.SubmitRequest{
		UserID:             req.UserID,
		CampaignID:         req.CampaignID,
		Type:               req.JobType,
		Script:             req.Script,
		AvatarID:           req.AvatarID,
		VoiceID:            req.VoiceID,
		PromptTemplateID:   req.PromptTemplateID,
		ToneSettings:       req.ToneSettings,
		GenerationSettings: req.GenerationSettings,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, generateResponse{JobID: job.ID, Status: job.Status})
}

// jobFilter reads the list filters shared by the list and export endpoints.
func jobFilter(r *http.Request) (domain.JobFilter, error) {
	q := r.URL.Query()
	filter := domain.JobFilter{
		UserID:     q.Get("user_id"),
		CampaignID: q.Get("campaign_id"),
		Status:     domain.JobStatus(q.Get("status")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return filter, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidRequest, filter.Status)
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return filter, fmt.Errorf("%w: limit must be a positive integer", domain.ErrInvalidRequest)
		}
		filter.Limit = limit
	}
	return filter, nil
}

func (a *App) VideoJobs(w http.ResponseWriter, r *http.Request) {
	filter, err := jobFilter(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	jobs, err := a.Tracker.List(r.Context(), filter)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items := make([]jobResponse, 0, len(jobs))
	for i := range jobs {
		items = append(items, toJobResponse(&jobs[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) VideoJob(w http.ResponseWriter, r *http.Request) {
	job, err := a.Tracker.Get(r.Context(), chi.URLParam(r, "job_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toJobResponse(job))
}

func (a *App) VideoStatus(w http.ResponseWriter, r *http.Request) {
	view, err := a.Tracker.Status(r.Context(), chi.URLParam(r, "job_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, a.statusView(view))
}

func (a *App) VideoCancel(w http.ResponseWriter, r *http.Request) {
	job, err := a.Tracker.Cancel(r.Context(), chi.URLParam(r, "job_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, a.statusView(tracker.View(job, a.Now())))
}

func (a *App) VideoRetry(w http.ResponseWriter, r *http.Request) {
	job, err := a.Tracker.Retry(r.Context(), chi.URLParam(r, "job_id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, a.statusView(tracker.View(job, a.Now())))
}
