package resolve

import (
	"encoding/json"
	"errors"
	"net/http"

	dto "github.com/dropDatabas3/idbridge/internal/http/dto/resolve"
	httperrors "github.com/dropDatabas3/idbridge/internal/http/errors"
	svc "github.com/dropDatabas3/idbridge/internal/http/services/resolve"
	"github.com/dropDatabas3/idbridge/internal/observability/logger"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 64 << 10

// Controller handles the principal-resolution endpoint.
type Controller struct {
	service svc.Service
}

// NewController creates a Controller.
func NewController(service svc.Service) *Controller {
	return &Controller{service: service}
}

// Resolve handles POST /v1/resolve/{provider}.
func (c *Controller) Resolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("Controller.Resolve"))

	provider := chi.URLParam(r, "provider")
	if provider == "" {
		log.Warn("missing provider in path")
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("missing provider"))
		return
	}

	var req dto.ResolveRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON.WithCause(err))
		return
	}

	outcome, err := c.service.Resolve(ctx, svc.Request{
		Provider:  provider,
		Assertion: req.Assertion,
	})
	if err != nil {
		switch {
		case errors.Is(err, svc.ErrMissingAssertion):
			httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("missing assertion"))
		case errors.Is(err, svc.ErrProviderMismatch):
			httperrors.WriteError(w, httperrors.ErrAssertionInvalid.WithDetail("provider mismatch"))
		case errors.Is(err, svc.ErrAssertionRejected):
			httperrors.WriteError(w, httperrors.ErrAssertionInvalid.WithCause(err))
		default:
			log.Error("resolve failed", logger.Err(err))
			httperrors.WriteError(w, err)
		}
		return
	}

	resp := dto.ResolveResponse{
		Status:      string(outcome.Status),
		Provisioned: outcome.Provisioned,
	}
	if outcome.Account != nil {
		resp.UserID = outcome.Account.UserID
		resp.Attributes = outcome.Account.Attributes
	}

	// Rejections keep the outcome in the body but signal via status code so
	// the SSO layer can branch without parsing.
	status := http.StatusOK
	switch resp.Status {
	case "invalid_identity":
		status = http.StatusUnprocessableEntity
	case "provision_failed":
		status = http.StatusBadGateway
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
