package account

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/edunet/core"
)

type (
	// Backend is the profile part of the REST API.
	Backend interface {
		Me(ctx context.Context) (Profile, error)
		UpdateMe(ctx context.Context, p ProfilePayload) (Profile, error)
		ChangePassword(ctx context.Context, p PasswordPayload) error
	}

	Session interface {
		Authenticated() bool
		SetProfile(p Profile)
	}

	// Editor backs the profile page: load, edit and save the current user, change the password.
	Editor struct {
		backend  Backend
		session  Session
		validate *core.Validator
		log      core.Logger

		mu       sync.RWMutex
		profile  Profile
		draft    ProfileDraft
		load     core.Operation[Profile]
		save     core.Operation[Profile]
		password core.Operation[struct{}]
	}
)

func NewEditor(backend Backend, session Session, v *core.Validator, logger core.Logger) *Editor {
	return &Editor{backend: backend, session: session, validate: v, log: logger}
}

func (ed *Editor) Load(ctx context.Context) (Profile, error) {
	if !ed.session.Authenticated() {
		ed.setLoad(core.Fail[Profile](core.ErrSessionExpired))
		return Profile{}, core.ErrSessionExpired
	}

	ed.setLoad(core.Begin[Profile]())
	p, err := ed.backend.Me(ctx)
	if err != nil {
		ed.setLoad(core.Fail[Profile](err))
		return Profile{}, errors.Wrap(err, "loading profile")
	}

	ed.mu.Lock()
	ed.profile, ed.draft = p, p.Draft()
	ed.load = core.Succeed(p)
	ed.mu.Unlock()
	ed.session.SetProfile(p)
	return p, nil
}

func (ed *Editor) Draft() ProfileDraft {
	ed.mu.RLock()
	defer ed.mu.RUnlock()
	return ed.draft
}

// SetField edits one field of the profile form.
func (ed *Editor) SetField(name, value string) error {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	if err := core.SetField(&ed.draft, name, value); err != nil {
		return err
	}
	if ed.save.State() == core.OpFailed {
		ed.save = core.Operation[Profile]{}
	}
	return nil
}

// SetTheme stores the theme preference; it is sent with the next Save.
func (ed *Editor) SetTheme(theme string) error {
	return ed.SetField("theme", theme)
}

func (ed *Editor) Save(ctx context.Context) (Profile, error) {
	ed.mu.Lock()
	if ed.save.IsPending() {
		ed.mu.Unlock()
		return Profile{}, core.ErrBusy
	}
	if !ed.session.Authenticated() {
		ed.save = core.Fail[Profile](core.ErrSessionExpired)
		ed.mu.Unlock()
		return Profile{}, core.ErrSessionExpired
	}
	draft := ed.draft
	if err := ed.validate.Struct(draft); err != nil {
		ed.save = core.Fail[Profile](err)
		ed.mu.Unlock()
		return Profile{}, err
	}
	ed.save = core.Begin[Profile]()
	ed.mu.Unlock()

	p, err := ed.backend.UpdateMe(ctx, draft.payload())
	if err != nil {
		ed.setSave(core.Fail[Profile](err))
		return Profile{}, errors.Wrap(err, "updating profile")
	}

	ed.mu.Lock()
	ed.profile, ed.draft = p, p.Draft()
	ed.save = core.Succeed(p)
	ed.mu.Unlock()
	ed.session.SetProfile(p)
	return p, nil
}

func (ed *Editor) ChangePassword(ctx context.Context, pc PasswordChange) error {
	ed.mu.Lock()
	if ed.password.IsPending() {
		ed.mu.Unlock()
		return core.ErrBusy
	}
	if !ed.session.Authenticated() {
		ed.password = core.Fail[struct{}](core.ErrSessionExpired)
		ed.mu.Unlock()
		return core.ErrSessionExpired
	}
	if err := ed.validate.Struct(pc.ForUser(ed.profile)); err != nil {
		ed.password = core.Fail[struct{}](err)
		ed.mu.Unlock()
		return err
	}
	ed.password = core.Begin[struct{}]()
	ed.mu.Unlock()

	err := ed.backend.ChangePassword(ctx, PasswordPayload{
		CurrentPassword: pc.CurrentPassword,
		NewPassword:     pc.NewPassword,
	})

	ed.mu.Lock()
	defer ed.mu.Unlock()
	if err != nil {
		ed.password = core.Fail[struct{}](err)
		return errors.Wrap(err, "changing password")
	}
	ed.password = core.Succeed(struct{}{})
	ed.log.Info("password changed", ed.profile)
	return nil
}

func (ed *Editor) Profile() Profile {
	ed.mu.RLock()
	defer ed.mu.RUnlock()
	return ed.profile
}

func (ed *Editor) LoadOp() core.Operation[Profile] {
	ed.mu.RLock()
	defer ed.mu.RUnlock()
	return ed.load
}

func (ed *Editor) SaveOp() core.Operation[Profile] {
	ed.mu.RLock()
	defer ed.mu.RUnlock()
	return ed.save
}

func (ed *Editor) PasswordOp() core.Operation[struct{}] {
	ed.mu.RLock()
	defer ed.mu.RUnlock()
	return ed.password
}

func (ed *Editor) setLoad(op core.Operation[Profile]) {
	ed.mu.Lock()
	ed.load = op
	ed.mu.Unlock()
}

func (ed *Editor) setSave(op core.Operation[Profile]) {
	ed.mu.Lock()
	ed.save = op
	ed.mu.Unlock()
}
