// Package api exposes hit calling over HTTP.
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"chemhits/app"
	"chemhits/domain/bioactivity"
	"chemhits/domain/core"
	"chemhits/domain/run"
	"chemhits/internal"
	apperrors "chemhits/internal/errors"
	"chemhits/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// maxClassifyBody bounds the size of an uploaded record set
const maxClassifyBody = 16 << 20

// HitCaller runs hit calling for the handlers
type HitCaller interface {
	Run(ctx context.Context, q ports.ActivityQuery) (*app.RunResult, error)
	RunRaw(ctx context.Context, target core.TargetID, source string, raw *bioactivity.RawTable) (*app.RunResult, error)
}

// HitsHandler serves the hit-calling endpoints
type HitsHandler struct {
	service HitCaller
	logger  *internal.Logger
}

// NewHitsHandler creates the handler
func NewHitsHandler(service HitCaller, logger *internal.Logger) *HitsHandler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &HitsHandler{service: service, logger: logger.WithComponent("API")}
}

// HitsResponse is returned by both hit-calling endpoints
type HitsResponse struct {
	RunID     core.RunID                      `json:"run_id"`
	TargetID  core.TargetID                   `json:"target_id"`
	Counts    map[string]int                  `json:"counts"`
	Compounds []bioactivity.ClassifiedSummary `json:"compounds"`
	Manifest  *run.RunManifest                `json:"manifest"`
}

// ClassifyRequest carries raw records to classify
type ClassifyRequest struct {
	TargetID           string                  `json:"target_chembl_id"`
	HasConfidenceScore *bool                   `json:"has_confidence_score,omitempty"`
	Records            []bioactivity.RawRecord `json:"records"`
}

// GetTargetHits handles GET /api/targets/{targetID}/hits?types=IC50,Ki&debug=true&limit=200
func (h *HitsHandler) GetTargetHits(w http.ResponseWriter, r *http.Request) {
	target, err := core.ParseTargetID(chi.URLParam(r, "targetID"))
	if err != nil {
		h.renderError(w, r, apperrors.InvalidInput(err.Error()))
		return
	}

	q := ports.ActivityQuery{TargetID: target}
	if types := r.URL.Query().Get("types"); types != "" {
		for _, t := range strings.Split(types, ",") {
			if t = strings.TrimSpace(t); t != "" {
				q.StandardTypes = append(q.StandardTypes, t)
			}
		}
	}
	if debug := r.URL.Query().Get("debug"); debug != "" {
		q.Debug, err = strconv.ParseBool(debug)
		if err != nil {
			h.renderError(w, r, apperrors.InvalidInput("debug must be a boolean"))
			return
		}
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		q.Limit, err = strconv.Atoi(limit)
		if err != nil || q.Limit <= 0 {
			h.renderError(w, r, apperrors.InvalidInput("limit must be a positive integer"))
			return
		}
	}

	result, err := h.service.Run(r.Context(), q)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, newHitsResponse(result))
}

// Classify handles POST /api/classify with raw records in the body
func (h *HitsHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, maxClassifyBody), &req); err != nil {
		h.renderError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()))
		return
	}

	target := core.TargetID("upload")
	if req.TargetID != "" {
		parsed, err := core.ParseTargetID(req.TargetID)
		if err != nil {
			h.renderError(w, r, apperrors.InvalidInput(err.Error()))
			return
		}
		target = parsed
	}

	raw := &bioactivity.RawTable{Records: req.Records}
	if req.HasConfidenceScore != nil {
		raw.HasConfidenceScore = *req.HasConfidenceScore
	} else {
		for _, rec := range req.Records {
			if rec.ConfidenceScore != nil {
				raw.HasConfidenceScore = true
				break
			}
		}
	}

	result, err := h.service.RunRaw(r.Context(), target, "upload", raw)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	render.JSON(w, r, newHitsResponse(result))
}

// Healthz handles GET /healthz
func (h *HitsHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func newHitsResponse(result *app.RunResult) HitsResponse {
	return HitsResponse{
		RunID:     result.Manifest.RunID,
		TargetID:  result.Manifest.TargetID,
		Counts:    result.Manifest.Compounds,
		Compounds: result.Report.Classified.Rows,
		Manifest:  result.Manifest,
	}
}

// renderError maps error codes onto HTTP statuses
func (h *HitsHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := apperrors.GetCode(err)
	switch {
	case core.IsPolicyError(err), code == apperrors.CodeInvalidInput:
		status = http.StatusBadRequest
	case code == apperrors.CodeExternalService:
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("%s %s: %v", r.Method, r.URL.Path, err)
	} else {
		h.logger.Debug("%s %s: %v", r.Method, r.URL.Path, err)
	}

	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": err.Error(), "code": code})
}
