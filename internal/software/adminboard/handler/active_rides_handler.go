package handler

import (
	"context"
	"net/http"
	"time"
)

// ----- Handler: GET /admin/rides/active?page=X&page_size=Y -----

func (handler *AdminHTTPHandler) handleActiveRides(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	query := r.URL.Query()
	page := query.Get("page")
	pageSize := query.Get("page_size")

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	activeRides, err := handler.svc.GetActiveRides(ctxWithTimeout, page, pageSize)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err, "failed to fetch active rides")
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, activeRides)
}
