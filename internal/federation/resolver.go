package federation

import (
	"context"
	"errors"

	"github.com/dropDatabas3/idbridge/internal/observability/logger"
	"github.com/dropDatabas3/idbridge/internal/store/core"
)

// AccountResolver is the pre-existing local-identity lookup system. It must
// be safe to call twice in immediate succession for the same key and reflect
// any intervening write.
type AccountResolver interface {
	Resolve(ctx context.Context, key string) (*Account, error)
}

// UserProvisioner creates a local account for a normalized identity. Create
// must tolerate a concurrent caller provisioning the same key: the backing
// store's uniqueness constraint turns the race into core.ErrConflict, which
// the state machine treats as "someone else created it".
type UserProvisioner interface {
	Create(ctx context.Context, identity NormalizedIdentity) error
}

// Status is the terminal result of one login attempt.
type Status string

const (
	StatusAccepted        Status = "accepted"
	StatusInvalidIdentity Status = "invalid_identity"
	StatusProvisionFailed Status = "provision_failed"
)

// Outcome is returned to the caller and never persisted. Account is set only
// when Status is StatusAccepted. Provisioned reports whether this attempt
// created the account (as opposed to finding it).
type Outcome struct {
	Status      Status
	Account     *Account
	Identity    NormalizedIdentity
	Provisioned bool
}

// resolver states. The workflow is a single-pass state machine with exactly
// one provisioning attempt and one re-lookup; terminal states are
// ACCEPTED, INVALID_IDENTITY and PROVISION_FAILED.
type resolveState int

const (
	stateStart resolveState = iota
	stateKeyDerived
	stateLookedUp
	stateProvisioning
	stateRelookedUp
)

// ResolverDeps contains dependencies for the provisioning resolver.
type ResolverDeps struct {
	Deriver     *KeyDeriver
	Accounts    AccountResolver
	Provisioner UserProvisioner
	Validator   *PrincipalValidator
}

// Resolver orchestrates the resolve-or-create workflow for one federated
// login attempt.
type Resolver struct {
	deriver     *KeyDeriver
	accounts    AccountResolver
	provisioner UserProvisioner
	validator   *PrincipalValidator
}

// NewResolver creates a Resolver. A nil Validator defaults to the standard
// marker check.
func NewResolver(d ResolverDeps) *Resolver {
	v := d.Validator
	if v == nil {
		v = NewPrincipalValidator("")
	}
	return &Resolver{
		deriver:     d.Deriver,
		accounts:    d.Accounts,
		provisioner: d.Provisioner,
		validator:   v,
	}
}

// ResolvePrincipal runs one login attempt through the state machine. It never
// returns an internal fault: every failure collapses into a rejection
// outcome. Cancellation of ctx resolves to a rejection as well.
func (r *Resolver) ResolvePrincipal(ctx context.Context, p Profile) Outcome {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("federation.resolver"),
		logger.String("provider", p.Provider.String()),
	)

	var (
		state    = stateStart
		identity NormalizedIdentity
		account  *Account
	)

	for {
		switch state {

		case stateStart:
			id, err := r.deriver.Normalize(ctx, p)
			if err != nil {
				log.Warn("identity key derivation failed", logger.Err(err))
				return Outcome{Status: StatusInvalidIdentity}
			}
			identity = id
			state = stateKeyDerived

		case stateKeyDerived:
			acc, err := r.accounts.Resolve(ctx, identity.Email)
			if err != nil {
				// A failed lookup reads as "not existing"; the
				// provisioning path and re-lookup get one chance to
				// recover before the attempt is rejected.
				log.Warn("account lookup failed", logger.Err(err))
				acc = nil
			}
			account = acc
			state = stateLookedUp

		case stateLookedUp:
			if r.validator.IsExisting(account) {
				log.Info("existing account resolved",
					logger.UserID(account.UserID),
					logger.Email(identity.Email),
				)
				return Outcome{Status: StatusAccepted, Account: account, Identity: identity}
			}
			state = stateProvisioning

		case stateProvisioning:
			err := r.provisioner.Create(ctx, identity)
			switch {
			case err == nil:
				log.Info("account provisioned", logger.Email(identity.Email))
			case errors.Is(err, core.ErrConflict):
				// Concurrent first login for the same key: the other
				// request won the create. Re-lookup picks it up.
				log.Info("provisioning conflict, account created concurrently",
					logger.Email(identity.Email))
			default:
				// The re-lookup below decides; a failed create that
				// somehow still wrote the account is accepted.
				log.Warn("provisioning call failed", logger.Err(err))
			}
			state = stateRelookedUp

		case stateRelookedUp:
			acc, err := r.accounts.Resolve(ctx, identity.Email)
			if err != nil {
				log.Warn("account re-lookup failed", logger.Err(err))
				acc = nil
			}
			account = acc
			if r.validator.IsExisting(account) {
				log.Info("account resolved after provisioning",
					logger.UserID(account.UserID),
					logger.Email(identity.Email),
				)
				return Outcome{
					Status:      StatusAccepted,
					Account:     account,
					Identity:    identity,
					Provisioned: true,
				}
			}
			log.Error("account still missing after provisioning attempt",
				logger.Email(identity.Email))
			return Outcome{Status: StatusProvisionFailed, Identity: identity}
		}
	}
}
