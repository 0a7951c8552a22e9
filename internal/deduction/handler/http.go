package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/deduction/dto"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
)

// RegisterRoutes mounts the operational HTTP endpoints.
func (h *DeductionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/stores/{store_id}", func(r chi.Router) {
		r.Post("/cart/validate", h.validateCart)
		r.Post("/recovery", h.runRecovery)
	})
}

type recoveryBody struct {
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
	DryRun bool      `json:"dry_run"`
}

func (h *DeductionHandler) validateCart(w http.ResponseWriter, r *http.Request) {
	var req dto.ValidateCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	req.StoreID = chi.URLParam(r, "store_id")

	lang := r.Header.Get("Accept-Language")
	res, err := h.uc.ValidateCartImmediate(r.Context(), &req)
	if err != nil {
		h.fail(w, lang, err)
		return
	}
	LocalizeResult(lang, res)
	respond(w, http.StatusOK, res)
}

func (h *DeductionHandler) runRecovery(w http.ResponseWriter, r *http.Request) {
	var body recoveryBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if body.To.IsZero() {
		body.To = time.Now()
	}
	if body.From.IsZero() {
		body.From = body.To.Add(-24 * time.Hour)
	}

	summary, err := h.uc.RunRecovery(r.Context(), &dto.RecoveryRequest{
		StoreID: chi.URLParam(r, "store_id"),
		From:    body.From,
		To:      body.To,
		DryRun:  body.DryRun,
	})
	if err != nil && summary == nil {
		h.fail(w, r.Header.Get("Accept-Language"), err)
		return
	}
	if err != nil {
		h.logger.Warn("Recovery run interrupted", zap.Error(err))
	}
	respond(w, http.StatusOK, summary)
}

func (h *DeductionHandler) fail(w http.ResponseWriter, lang string, err error) {
	msg, ok := errorMessage(lang, err)
	if !ok {
		msg = err.Error()
	}
	respond(w, httpStatus(err), map[string]string{"error": msg})
}

func httpStatus(err error) int {
	switch Code(err) {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.FailedPrecondition, codes.Aborted:
		return http.StatusConflict
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
