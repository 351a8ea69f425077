package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/ezz-ae/entrestate-inventory-backend/internal/domain"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/observability"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/platform/logger"
	"github.com/ezz-ae/entrestate-inventory-backend/internal/usecase/truthcheck"
)

// ReadinessCheck reports whether the backing store is reachable
type ReadinessCheck func(ctx context.Context) error

// APIResponse is the JSON envelope of every ops endpoint
type APIResponse struct {
	Status int         `json:"status"`
	Msg    string      `json:"msg"`
	Data   interface{} `json:"data,omitempty"`
}

type handler struct {
	truthChecks *truthcheck.TruthCheckService
	ready       ReadinessCheck
	log         *logger.Logger
}

// NewRouter builds the ops router: health, readiness, metrics and truth checks
func NewRouter(truthChecks *truthcheck.TruthCheckService, metrics *observability.Metrics, ready ReadinessCheck, log *logger.Logger) http.Handler {
	h := &handler{truthChecks: truthChecks, ready: ready, log: logger.OrNop(log)}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/healthz", h.healthz)
		r.Get("/readyz", h.readyz)
		r.Route("/v1", func(r chi.Router) {
			r.Get("/truth-checks", h.getTruthChecks)
		})
	})
	return r
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, APIResponse{Status: 0, Msg: "ok"})
}

func (h *handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.ready(ctx); err != nil {
			h.log.Warn("readiness check failed", "error", err)
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, APIResponse{Status: http.StatusServiceUnavailable, Msg: "store unavailable"})
			return
		}
	}
	render.JSON(w, r, APIResponse{Status: 0, Msg: "ready"})
}

func (h *handler) getTruthChecks(w http.ResponseWriter, r *http.Request) {
	res, err := h.truthChecks.BuildTruthChecks(r.Context())
	if err != nil {
		h.log.Error("truth check request failed", "request_id", middleware.GetReqID(r.Context()), "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, APIResponse{Status: http.StatusInternalServerError, Msg: "failed to load truth checks"})
		return
	}
	render.JSON(w, r, APIResponse{Status: 0, Msg: "ok", Data: NewTruthCheckView(res)})
}

// TruthCheckView is the JSON shape of a truth-check result
type TruthCheckView struct {
	ConservativeReady     []BucketView  `json:"conservative_ready"`
	BalancedShort         []BucketView  `json:"balanced_short"`
	SpeculativeLeakCount  int64         `json:"speculative_leak_count"`
	HorizonViolationCount int64         `json:"horizon_violation_count"`
	Healthy               bool          `json:"healthy"`
	Findings              []FindingView `json:"findings"`
}

// BucketView is one distribution bucket
type BucketView struct {
	Label   string  `json:"label"`
	Count   int64   `json:"count"`
	Percent float64 `json:"percent"`
}

// FindingView is one non-zero invariant check
type FindingView struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Count   int64  `json:"count"`
}

// NewTruthCheckView converts a truth-check result for JSON output
func NewTruthCheckView(res *domain.TruthCheckResult) TruthCheckView {
	view := TruthCheckView{
		ConservativeReady:     bucketViews(res.ConservativeReady),
		BalancedShort:         bucketViews(res.BalancedShort),
		SpeculativeLeakCount:  res.SpeculativeLeakCount,
		HorizonViolationCount: res.HorizonViolationCount,
		Healthy:               res.Healthy(),
		Findings:              make([]FindingView, 0, len(res.Findings)),
	}
	for _, f := range res.Findings {
		view.Findings = append(view.Findings, FindingView{Code: string(f.Code), Message: f.Message, Count: f.Count})
	}
	return view
}

func bucketViews(buckets []domain.DistributionBucket) []BucketView {
	out := make([]BucketView, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, BucketView{Label: b.Label, Count: b.Count, Percent: b.Percent})
	}
	return out
}
