package session

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/edunet/core"
	"github.com/trezcool/edunet/core/account"
)

type (
	// Authenticator is the authentication part of the REST API.
	Authenticator interface {
		Login(ctx context.Context, creds account.Credentials) (token string, err error)
		Me(ctx context.Context) (account.Profile, error)
		Register(ctx context.Context, p account.RegistrationPayload) (account.Registration, error)
	}

	// Service implements login, logout and public registration on top of a Session.
	Service struct {
		session  *Session
		auth     Authenticator
		validate *core.Validator
		schema   account.RegistrationSchema
		log      core.Logger
	}
)

func NewService(sess *Session, auth Authenticator, v *core.Validator, logger core.Logger) *Service {
	return &Service{
		session:  sess,
		auth:     auth,
		validate: v,
		schema:   account.NewRegistrationSchema(v),
		log:      logger,
	}
}

// Login exchanges credentials for a token then loads the profile.
// On any failure the session is left logged out.
func (svc *Service) Login(ctx context.Context, creds account.Credentials) (account.Profile, error) {
	creds.Email = core.CleanString(creds.Email, true)
	if err := svc.validate.Struct(creds); err != nil {
		return account.Profile{}, err
	}

	fail := func(err error, msg string) (account.Profile, error) {
		if clrErr := svc.session.Clear(); clrErr != nil {
			svc.log.Error("clearing session after failed login", clrErr)
		}
		return account.Profile{}, errors.Wrap(err, msg)
	}

	token, err := svc.auth.Login(ctx, creds)
	if err != nil {
		return fail(err, "logging in")
	}
	if err = svc.session.Begin(token); err != nil {
		return fail(err, "starting session")
	}
	p, err := svc.auth.Me(ctx)
	if err != nil {
		return fail(err, "loading profile")
	}
	svc.session.SetProfile(p)
	svc.log.Info("logged in", p)
	return p, nil
}

func (svc *Service) Logout() error {
	if p, ok := svc.session.Profile(); ok {
		svc.log.Info("logged out", p)
	}
	return svc.session.Clear()
}

// Register submits the public registration form; no session is required.
func (svc *Service) Register(ctx context.Context, su account.SignUp) (account.Registration, error) {
	payload, err := svc.schema.SignUpPayload(su)
	if err != nil {
		return account.Registration{}, err
	}
	reg, err := svc.auth.Register(ctx, payload)
	if err != nil {
		return account.Registration{}, errors.Wrap(err, "registering")
	}
	return reg, nil
}
