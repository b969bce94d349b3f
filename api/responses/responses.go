package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	pkgerrors "github.com/angelmondragon/sales-analytics/pkg/errors"
	"github.com/angelmondragon/sales-analytics/pkg/logger"
	"github.com/angelmondragon/sales-analytics/pkg/types"
)

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, data)
}

// WriteRaw sends an already encoded JSON document.
func WriteRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

// WriteEmpty sends a status line with no body.
func WriteEmpty(w http.ResponseWriter, status int) {
	w.WriteHeader(status)
}

// WriteError is the single place failures are turned into HTTP responses.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())
	status := StatusFor(typed)

	payload := types.ErrorEnvelope{Error: meta.PublicMessage}
	if meta.DetailsAllowed {
		payload.Details = typed.Details()
	}

	// A client that hung up is not a server fault.
	canceled := errors.Is(err, context.Canceled)

	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{
			"error_code":  string(typed.Code()),
			"status":      status,
			"upstream":    typed.Status(),
			"retryable":   meta.Retryable,
			"error_chain": err.Error(),
		})
		if status >= http.StatusInternalServerError && !canceled {
			logg.Error(ctx, "request.error", err)
		} else {
			logg.Warn(ctx, "request.error")
		}
	}

	writeJSON(w, status, payload)
}

// StatusFor resolves the HTTP status for a typed error. Upstream client
// errors (4xx) are passed through; every other upstream status, including a
// 200 carrying an unusable payload, becomes 502.
func StatusFor(err *pkgerrors.Error) int {
	meta := pkgerrors.MetadataFor(err.Code())
	if err.Code() != pkgerrors.CodeUpstream {
		return meta.HTTPStatus
	}
	if s := err.Status(); s >= http.StatusBadRequest && s < http.StatusInternalServerError {
		return s
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
