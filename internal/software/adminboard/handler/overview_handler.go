package handler

import (
	"context"
	"net/http"
	"time"
)

// ----- Handler: GET /admin/overview -----

func (handler *AdminHTTPHandler) handleOverview(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	overview, err := handler.svc.GetSystemOverview(ctxWithTimeout)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err, "failed to build system overview")
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, overview)
}
