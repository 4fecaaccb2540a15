package ui

import (
	"encoding/json"
	"net/http"

	"crashlens/adapters/stats/estimator"
	"crashlens/domain/collision"
	"crashlens/domain/core"
	"crashlens/domain/risk"
	"crashlens/internal/report"
)

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	md := report.BuildMarkdown(a.stats, a.factors, nil)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(report.RenderHTML(md))
}

func (a *App) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"datasetId":   a.loadReport.DatasetID.String(),
		"total":       a.stats.Total,
		"injured":     a.stats.Injured,
		"baseRate":    a.stats.BaseRate,
		"source":      a.loadReport.Path,
		"rowsSkipped": a.loadReport.RowsSkipped,
		"fingerprint": a.loadReport.Fingerprint.String(),
		"hourly":      a.hourSummary,
	})
}

func (a *App) handleDimensions(w http.ResponseWriter, r *http.Request) {
	dims := make([]map[string]string, 0, len(collision.Dimensions()))
	for _, d := range collision.Dimensions() {
		dims = append(dims, map[string]string{"name": string(d), "label": d.Label()})
	}
	writeJSON(w, http.StatusOK, dims)
}

func (a *App) handleFactors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.factors)
}

func (a *App) handleMarginals(w http.ResponseWriter, r *http.Request) {
	set := a.marginals.Marginals(a.loadReport.Fingerprint, a.records)
	writeJSON(w, http.StatusOK, set)
}

// estimateRequest carries the user's partial selection, keyed by dimension
// name as listed by /api/dimensions.
type estimateRequest struct {
	Selection map[string]string `json:"selection"`
}

func (a *App) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	selection := make(risk.Selection, len(req.Selection))
	for name, value := range req.Selection {
		dim, err := collision.ParseDimension(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		normalized, ok := collision.NormalizeFor(dim, value)
		if !ok {
			// A sentinel/blank value is the same as leaving the dimension
			// unselected.
			continue
		}
		selection[dim] = normalized
	}

	set := a.marginals.Marginals(a.loadReport.Fingerprint, a.records)
	est, err := estimator.Estimate(selection, a.records, set, a.params)
	if err != nil {
		status := http.StatusInternalServerError
		if core.IsCallerError(err) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, est)
}

func (a *App) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.heatmap)
}

func (a *App) handleGeo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.geo)
}

func (a *App) handleHours(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"buckets": a.hours,
		"summary": a.hourSummary,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
