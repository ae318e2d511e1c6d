package handlers

import (
	"net/http"
	"strconv"

	"researchd/internal/scholar"
)

const defaultRelatedLimit = 5

// Related searches for publications related to a free-text query. The
// search is best effort: an upstream failure yields an empty result set,
// never an error page.
func (a *App) Related(w http.ResponseWriter, r *http.Request) {
	if a.Scholar == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "related search is not configured")
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "q is required")
		return
	}
	limit, ok := intParam(r, "limit", defaultRelatedLimit, 1, 20)
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "limit must be between 1 and 20")
		return
	}
	startYear, ok := intParam(r, "start_year", 0, 0, 9999)
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "start_year must be a year")
		return
	}
	endYear, ok := intParam(r, "end_year", 0, 0, 9999)
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "end_year must be a year")
		return
	}

	results, err := a.Scholar.SearchRelated(r.Context(), scholar.Query{
		Text:      query,
		Limit:     limit,
		StartYear: startYear,
		EndYear:   endYear,
	})
	if err != nil {
		a.Logger.Warn().Err(err).Str("query", query).Msg("related search failed")
		results = nil
	}
	if results == nil {
		results = []scholar.Result{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": results})
}

func intParam(r *http.Request, name string, fallback, min, max int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		return 0, false
	}
	return n, true
}
