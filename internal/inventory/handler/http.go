package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (h *InventoryHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/inventory", func(r chi.Router) {
		r.Get("/stores/{store_id}", h.getStoreInventory)
		r.Get("/stores/{store_id}/low-stock", h.listLowStock)
		r.Post("/stores/{store_id}/cache/invalidate", h.invalidateCache)
		r.Get("/sales/{sale_reference}/movements", h.listSaleMovements)
	})
}

func (h *InventoryHandler) getStoreInventory(w http.ResponseWriter, r *http.Request) {
	res, err := h.GetStoreInventory(r.Context(), &StoreRequest{StoreID: chi.URLParam(r, "store_id")})
	reply(w, res, err)
}

func (h *InventoryHandler) listLowStock(w http.ResponseWriter, r *http.Request) {
	res, err := h.ListLowStock(r.Context(), &StoreRequest{StoreID: chi.URLParam(r, "store_id")})
	reply(w, res, err)
}

func (h *InventoryHandler) invalidateCache(w http.ResponseWriter, r *http.Request) {
	if _, err := h.InvalidateCache(r.Context(), &StoreRequest{StoreID: chi.URLParam(r, "store_id")}); err != nil {
		reply(w, nil, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InventoryHandler) listSaleMovements(w http.ResponseWriter, r *http.Request) {
	res, err := h.ListSaleMovements(r.Context(), &SaleRequest{SaleReference: chi.URLParam(r, "sale_reference")})
	reply(w, res, err)
}

func reply(w http.ResponseWriter, body interface{}, err error) {
	if err != nil {
		st := status.Convert(err)
		code := http.StatusInternalServerError
		switch st.Code() {
		case codes.InvalidArgument:
			code = http.StatusBadRequest
		case codes.Unavailable:
			code = http.StatusServiceUnavailable
		}
		respond(w, code, map[string]string{"error": st.Message()})
		return
	}
	respond(w, http.StatusOK, body)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
