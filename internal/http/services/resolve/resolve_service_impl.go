package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/dropDatabas3/idbridge/internal/audit"
	"github.com/dropDatabas3/idbridge/internal/broker"
	"github.com/dropDatabas3/idbridge/internal/email"
	"github.com/dropDatabas3/idbridge/internal/federation"
	"github.com/dropDatabas3/idbridge/internal/observability/logger"
)

// Deps contains dependencies for the resolve service.
type Deps struct {
	Verifier *broker.Verifier
	Resolver *federation.Resolver
	Notifier email.Notifier // optional
	Metrics  *Metrics       // optional
}

type service struct {
	verifier *broker.Verifier
	resolver *federation.Resolver
	notifier email.Notifier
	metrics  *Metrics
}

// NewService creates a Service.
func NewService(d Deps) Service {
	n := d.Notifier
	if n == nil {
		n = email.Noop{}
	}
	return &service{
		verifier: d.Verifier,
		resolver: d.Resolver,
		notifier: n,
		metrics:  d.Metrics,
	}
}

func (s *service) Resolve(ctx context.Context, req Request) (*federation.Outcome, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("resolve"),
		logger.Provider(req.Provider),
	)

	if strings.TrimSpace(req.Assertion) == "" {
		return nil, ErrMissingAssertion
	}

	assertion, err := s.verifier.Verify(req.Assertion)
	if err != nil {
		log.Warn("assertion verification failed", logger.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrAssertionRejected, err)
	}

	// The provider in the path must match the one the broker asserted;
	// otherwise a client could replay a weaker provider's assertion under a
	// stronger provider's name.
	if !strings.EqualFold(assertion.Provider, req.Provider) {
		log.Warn("provider mismatch",
			logger.String("path_provider", req.Provider),
			logger.String("assertion_provider", assertion.Provider),
		)
		return nil, ErrProviderMismatch
	}

	profile := federation.Profile{
		Provider:   federation.ParseProvider(assertion.Provider),
		Attributes: assertion.Attributes,
	}

	outcome := s.resolver.ResolvePrincipal(ctx, profile)
	s.metrics.observe(req.Provider, outcome.Status)

	log.Info("principal resolved", logger.Outcome(string(outcome.Status)))

	switch {
	case outcome.Status == federation.StatusAccepted && outcome.Provisioned:
		audit.Log(ctx, audit.EventAccountProvisioned,
			logger.Provider(req.Provider),
			logger.UserID(outcome.Account.UserID),
			logger.Email(outcome.Identity.Email),
		)
		s.notifier.AccountProvisioned(ctx, outcome.Identity)
	case outcome.Status == federation.StatusAccepted:
		audit.Log(ctx, audit.EventAccountResolved,
			logger.Provider(req.Provider),
			logger.UserID(outcome.Account.UserID),
		)
	default:
		audit.Log(ctx, audit.EventLoginRejected,
			logger.Provider(req.Provider),
			logger.Outcome(string(outcome.Status)),
		)
	}

	return &outcome, nil
}
