package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5"

	"reelmate/internal/domain"
	"reelmate/internal/report"
	"reelmate/pkg/zip"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// VideoArtifacts streams a zip of the stored artifacts of a completed job.
// Artifacts hosted outside the local store are skipped.
func (a *App) VideoArtifacts(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	job, err := a.Tracker.Get(r.Context(), jobID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if job.Status != domain.JobStatusCompleted || job.Output == nil {
		a.fail(w, r, fmt.Errorf("%w: job %s is %s, artifacts exist only for completed jobs", domain.ErrInvalidTransition, job.ID, job.Status))
		return
	}

	modified := job.UpdatedAt
	if job.ProcessingCompletedAt != nil {
		modified = *job.ProcessingCompletedAt
	}
	var entries []zip.Entry
	for _, u := range []string{job.Output.VideoURL, job.Output.AudioURL, job.Output.ThumbnailURL} {
		key, ok := a.Store.KeyFromURL(u)
		if !ok {
			continue
		}
		data, err := a.Store.Read(r.Context(), key)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		entries = append(entries, zip.Entry{Name: path.Base(key), Data: data, Modified: modified})
	}
	if len(entries) == 0 {
		a.fail(w, r, fmt.Errorf("%w: no stored artifacts for job %s", domain.ErrNotFound, job.ID))
		return
	}

	var buf bytes.Buffer
	if err := zip.Write(&buf, entries); err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=job-%s.zip", job.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// VideoExport returns the filtered job history as an XLSX workbook.
func (a *App) VideoExport(w http.ResponseWriter, r *http.Request) {
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
	data, err := report.JobsXLSX(jobs)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	name := fmt.Sprintf("reelmate-jobs-%s.xlsx", a.Now().UTC().Format(time.DateOnly))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
