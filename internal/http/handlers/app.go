package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"reelmate/internal/catalog"
	"reelmate/internal/domain"
	"reelmate/internal/storage"
	"reelmate/internal/tracker"
)

// App carries the collaborators the REST handlers share.
type App struct {
	Tracker *tracker.Tracker
	Catalog *catalog.Catalog
	Store   *storage.FileStore
	Now     func() time.Time

	generateSchema *jsonschema.Schema
}

func NewApp(t *tracker.Tracker, cat *catalog.Catalog, store *storage.FileStore) (*App, error) {
	schema, err := compileGenerateSchema()
	if err != nil {
		return nil, err
	}
	if cat == nil {
		cat = catalog.Default()
	}
	return &App{Tracker: t, Catalog: cat, Store: store, Now: time.Now, generateSchema: schema}, nil
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, msg string) {
	a.json(w, status, errorBody{Error: errorDetail{Code: code, Message: msg}})
}

// fail maps domain errors onto HTTP statuses. Anything unrecognised is a 500
// carrying the raw message.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		a.error(w, http.StatusConflict, "conflict", err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", err.Error())
	}
}
