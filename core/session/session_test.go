package session

import (
	"context"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/edunet/core"
	"github.com/trezcool/edunet/core/account"
	"github.com/trezcool/edunet/storage/tokenstore"
	"github.com/trezcool/edunet/tests"
)

func signToken(t *testing.T, exp time.Time) string {
	claims := Claims{
		StandardClaims: jwt.StandardClaims{Subject: "7", ExpiresAt: exp.Unix()},
		Name:           "Ana",
		Email:          "ana@edu.test",
		Roles:          []string{account.RoleAdmin},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("signToken() failed: %v", err)
	}
	return token
}

func TestSession_Restore(t *testing.T) {
	valid := signToken(t, time.Now().Add(time.Hour))
	expired := signToken(t, time.Now().Add(-time.Hour))

	tests := []struct {
		name        string
		stored      string
		wantToken   string
		wantProfile bool
	}{
		{name: "no token"},
		{name: "valid jwt", stored: valid, wantToken: valid, wantProfile: true},
		{name: "expired jwt", stored: expired},
		{name: "opaque token", stored: "opaque", wantToken: "opaque"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := tokenstore.NewMemoryStore(tt.stored)
			sess := New(store, new(testutil.Logger))
			assert.Equal(t, StatusLoading, sess.State().Status)

			require.NoError(t, sess.Restore())
			st := sess.State()
			assert.Equal(t, StatusReady, st.Status)
			assert.Equal(t, tt.wantToken, st.Token)
			assert.Equal(t, tt.wantToken != "", sess.Authenticated())

			p, ok := sess.Profile()
			assert.Equal(t, tt.wantProfile, ok)
			if tt.wantProfile {
				assert.Equal(t, account.Profile{ID: 7, Name: "Ana", Email: "ana@edu.test", Roles: []string{"admin"}}, p)
			}

			persisted, _ := store.Load()
			assert.Equal(t, tt.wantToken, persisted)
		})
	}
}

func TestSession_Subscribe(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	sess := New(store, new(testutil.Logger))

	var states []State
	cancel := sess.Subscribe(func(st State) { states = append(states, st) })

	require.NoError(t, sess.Begin("tok"))
	sess.SetProfile(account.Profile{ID: 1, Name: "Ana"})
	require.NoError(t, sess.Clear())
	cancel()
	require.NoError(t, sess.Begin("ignored"))

	require.Len(t, states, 3)
	assert.True(t, states[0].Authenticated())
	assert.Equal(t, "Ana", states[1].Profile.Name)
	assert.False(t, states[2].Authenticated())
	assert.Nil(t, states[2].Profile)
}

func TestSession_Expire(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	logger := new(testutil.Logger)
	sess := New(store, logger)

	sess.Expire()
	assert.Empty(t, logger.Entries(), "nothing to expire")

	require.NoError(t, sess.Begin("tok"))
	sess.Expire()

	assert.False(t, sess.Authenticated())
	token, _ := store.Load()
	assert.Equal(t, "", token)
	assert.True(t, logger.Contains("session expired"))
}

type authMock struct {
	token    string
	loginErr error
	me       account.Profile
	meErr    error
	logins   int
	regs     []account.RegistrationPayload
}

func (m *authMock) Login(_ context.Context, _ account.Credentials) (string, error) {
	m.logins++
	return m.token, m.loginErr
}

func (m *authMock) Me(_ context.Context) (account.Profile, error) {
	return m.me, m.meErr
}

func (m *authMock) Register(_ context.Context, p account.RegistrationPayload) (account.Registration, error) {
	m.regs = append(m.regs, p)
	return account.Registration{ID: 9, Name: p.Name, Email: p.Email}, nil
}

func newService(auth Authenticator) (*Service, *Session) {
	v := core.NewValidator()
	account.InitValidators(v)
	logger := new(testutil.Logger)
	sess := New(tokenstore.NewMemoryStore(), logger)
	_ = sess.Restore()
	return NewService(sess, auth, v, logger), sess
}

func TestService_Login(t *testing.T) {
	profile := account.Profile{ID: 7, Name: "Ana", Email: "ana@edu.test"}
	creds := account.Credentials{Email: " Ana@Edu.test ", Password: "pwd"}

	t.Run("success", func(t *testing.T) {
		svc, sess := newService(&authMock{token: "tok", me: profile})
		got, err := svc.Login(context.Background(), creds)
		require.NoError(t, err)
		assert.Equal(t, profile, got)

		st := sess.State()
		assert.Equal(t, "tok", st.Token)
		assert.Equal(t, profile, *st.Profile)
	})

	t.Run("invalid credentials form", func(t *testing.T) {
		auth := &authMock{token: "tok"}
		svc, _ := newService(auth)
		_, err := svc.Login(context.Background(), account.Credentials{Email: "ana"})
		require.Error(t, err)
		assert.True(t, core.IsValidation(err))
		assert.Equal(t, 0, auth.logins)
	})

	t.Run("rejected", func(t *testing.T) {
		svc, sess := newService(&authMock{loginErr: &core.APIError{Status: 401, Message: "login failed"}})
		_, err := svc.Login(context.Background(), creds)
		require.Error(t, err)
		assert.Equal(t, "login failed", core.UserMessage(err, ""))
		assert.False(t, sess.Authenticated())
	})

	t.Run("profile fetch fails", func(t *testing.T) {
		svc, sess := newService(&authMock{token: "tok", meErr: errors.New("boom")})
		_, err := svc.Login(context.Background(), creds)
		require.Error(t, err)
		assert.False(t, sess.Authenticated(), "partial state is cleared")
		_, ok := sess.Profile()
		assert.False(t, ok)
	})
}

func TestService_Logout(t *testing.T) {
	svc, sess := newService(&authMock{token: "tok", me: account.Profile{ID: 1}})
	_, err := svc.Login(context.Background(), account.Credentials{Email: "a@b.co", Password: "x"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout())
	assert.False(t, sess.Authenticated())
}

func TestService_Register(t *testing.T) {
	auth := new(authMock)
	svc, _ := newService(auth)

	su := account.SignUp{
		RegistrationDraft: account.RegistrationDraft{
			Name:  "Ana Souza",
			CPF:   "123.456.789-01",
			Email: "Ana@Edu.test",
		},
		Password:        "correct-horse-42",
		ConfirmPassword: "correct-horse-42",
	}
	reg, err := svc.Register(context.Background(), su)
	require.NoError(t, err)
	assert.Equal(t, core.ID(9), reg.ID)

	require.Len(t, auth.regs, 1)
	sent := auth.regs[0]
	assert.Equal(t, "ana@edu.test", sent.Email)
	assert.Equal(t, "12345678901", *sent.CPF)
	assert.Nil(t, sent.BirthDate)
	assert.Equal(t, "correct-horse-42", sent.Password)

	su.ConfirmPassword = "other"
	_, err = svc.Register(context.Background(), su)
	require.Error(t, err)
	assert.Equal(t, "confirmPassword does not match", err.Error())
	assert.Len(t, auth.regs, 1)
}
