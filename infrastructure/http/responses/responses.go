package responses

import (
	"context"
	"encoding/json"
	"net/http"

	apperrors "receiptstudio/infrastructure/errors"
	"receiptstudio/infrastructure/logger"
)

type envelope struct {
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    apperrors.Code `json:"code"`
	Message string         `json:"message"`
	Details any            `json:"details,omitempty"`
}

// WriteJSON writes {"data": data} with status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	write(w, status, envelope{Data: data})
}

// WriteError maps err onto its typed code. Untyped errors become INTERNAL_ERROR and
// server-side failures are logged.
func WriteError(ctx context.Context, w http.ResponseWriter, log *logger.Logger, err error) {
	typed := apperrors.As(err)
	if typed == nil {
		typed = apperrors.Wrap(apperrors.CodeInternal, err, "unexpected error")
	}
	meta := apperrors.MetadataFor(typed.Code())

	body := &errorBody{Code: typed.Code(), Message: typed.Message()}
	if meta.HTTPStatus >= http.StatusInternalServerError {
		body.Message = meta.PublicMessage
		if log != nil {
			log.Error(ctx, "request failed", err)
		}
	}
	if meta.DetailsAllowed {
		body.Details = typed.Details()
	}
	if body.Message == "" {
		body.Message = meta.PublicMessage
	}
	write(w, meta.HTTPStatus, envelope{Error: body})
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
