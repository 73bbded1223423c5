package fakeapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/edunet/core"
	"github.com/trezcool/edunet/core/account"
)

// TokenLifetime is the validity of the tokens issued by POST /login.
var TokenLifetime = time.Hour

func (api *API) registerAuthAPI(g *echo.Group, jwtAuth echo.MiddlewareFunc) {
	g.POST("/login", api.login)
	g.POST("/registrations", api.register)

	g.GET("/users/me", api.me, jwtAuth)
	g.PUT("/users/me", api.updateMe, jwtAuth)
	g.PUT("/users/me/password", api.changePassword, jwtAuth)

	g.GET("/registrations", api.listRegistrations, jwtAuth)
	g.PUT("/registrations/:id", api.updateRegistration, jwtAuth)
	g.DELETE("/registrations/:id", api.deleteRegistration, jwtAuth)
}

// Token issues a token for the given account, expiring after ttl.
func (api *API) Token(p account.Profile, ttl time.Duration) string {
	now := time.Now()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   p.ID.String(),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
		Name:  p.Name,
		Email: p.Email,
		Roles: p.Roles,
	}
	ss, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(api.secret)
	return ss
}

func bindJSON(ctx echo.Context, v interface{}) error {
	if err := json.NewDecoder(ctx.Request().Body).Decode(v); err != nil {
		return errBadBody
	}
	return nil
}

func (api *API) login(ctx echo.Context) error {
	var creds account.Credentials
	if err := bindJSON(ctx, &creds); err != nil {
		return err
	}

	api.db.mu.Lock()
	usr, ok := api.db.users[strings.ToLower(creds.Email)]
	authenticated := ok && usr.checkPassword(creds.Password)
	var profile account.Profile
	if authenticated {
		profile = usr.profile
	}
	api.db.mu.Unlock()
	if !authenticated {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"token": api.Token(profile, TokenLifetime)})
}

func (api *API) me(ctx echo.Context) error {
	usr, err := api.contextUser(ctx)
	if err != nil {
		return err
	}
	api.db.mu.Lock()
	defer api.db.mu.Unlock()
	return ctx.JSON(http.StatusOK, usr.profile)
}

func (api *API) updateMe(ctx echo.Context) error {
	usr, err := api.contextUser(ctx)
	if err != nil {
		return err
	}
	var data account.ProfilePayload
	if err = bindJSON(ctx, &data); err != nil {
		return err
	}
	if strings.TrimSpace(data.Name) == "" || strings.TrimSpace(data.Email) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name and email are required")
	}

	db := api.db
	db.mu.Lock()
	defer db.mu.Unlock()

	email := strings.ToLower(data.Email)
	if other, ok := db.users[email]; ok && other != usr {
		return echo.NewHTTPError(http.StatusConflict, "this email is already in use")
	}
	delete(db.users, usr.profile.Email)
	usr.profile.Name = data.Name
	usr.profile.Email = email
	usr.profile.BirthDate = data.BirthDate
	usr.profile.CPF = data.CPF
	usr.profile.Description = data.Description
	if data.Theme != "" {
		usr.profile.Theme = data.Theme
	}
	db.users[email] = usr
	return ctx.JSON(http.StatusOK, usr.profile)
}

func (api *API) changePassword(ctx echo.Context) error {
	usr, err := api.contextUser(ctx)
	if err != nil {
		return err
	}
	var data account.PasswordPayload
	if err = bindJSON(ctx, &data); err != nil {
		return err
	}

	api.db.mu.Lock()
	defer api.db.mu.Unlock()
	if !usr.checkPassword(data.CurrentPassword) {
		return echo.NewHTTPError(http.StatusBadRequest, "current password is incorrect")
	}
	usr.setPassword(data.NewPassword)
	return ctx.NoContent(http.StatusNoContent)
}

// register is public: it files the registration and opens a student account.
func (api *API) register(ctx echo.Context) error {
	var data account.RegistrationPayload
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	if strings.TrimSpace(data.Name) == "" || strings.TrimSpace(data.Email) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name and email are required")
	}

	db := api.db
	db.mu.Lock()
	defer db.mu.Unlock()

	email := strings.ToLower(data.Email)
	if _, ok := db.users[email]; ok {
		return echo.NewHTTPError(http.StatusConflict, "this email is already registered")
	}
	reg := account.Registration{
		ID:          db.nextID(),
		Name:        data.Name,
		BirthDate:   data.BirthDate,
		CPF:         data.CPF,
		Email:       email,
		Description: data.Description,
		CreatedAt:   now(),
	}
	db.registrations = append(db.registrations, reg)
	if data.Password != "" {
		usr := &user{
			profile: account.Profile{
				ID:        db.nextID(),
				Name:      reg.Name,
				Email:     email,
				BirthDate: reg.BirthDate,
				CPF:       reg.CPF,
				Theme:     account.ThemeDark,
				Roles:     []string{account.RoleStudent},
			},
		}
		usr.setPassword(data.Password)
		db.users[email] = usr
	}
	return ctx.JSON(http.StatusCreated, reg)
}

func (api *API) listRegistrations(ctx echo.Context) error {
	api.db.mu.Lock()
	defer api.db.mu.Unlock()
	out := append(make([]account.Registration, 0, len(api.db.registrations)), api.db.registrations...)
	return ctx.JSON(http.StatusOK, out)
}

func (api *API) updateRegistration(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data account.RegistrationPayload
	if err = bindJSON(ctx, &data); err != nil {
		return err
	}

	db := api.db
	db.mu.Lock()
	defer db.mu.Unlock()
	for i, reg := range db.registrations {
		if reg.ID != id {
			continue
		}
		reg.Name = data.Name
		reg.Email = strings.ToLower(data.Email)
		// null fields are omitted by the client and keep their stored value
		if data.BirthDate != nil {
			reg.BirthDate = data.BirthDate
		}
		if data.CPF != nil {
			reg.CPF = data.CPF
		}
		if data.Description != nil {
			reg.Description = data.Description
		}
		db.registrations[i] = reg
		return ctx.JSON(http.StatusOK, reg)
	}
	return errNotFound("registration")
}

func (api *API) deleteRegistration(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	db := api.db
	db.mu.Lock()
	defer db.mu.Unlock()
	for i, reg := range db.registrations {
		if reg.ID == id {
			db.registrations = append(db.registrations[:i], db.registrations[i+1:]...)
			return ctx.NoContent(http.StatusNoContent)
		}
	}
	return errNotFound("registration")
}

func pathID(ctx echo.Context, name ...string) (core.ID, error) {
	param := "id"
	if len(name) > 0 {
		param = name[0]
	}
	id, err := core.ParseID(ctx.Param(param))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, errors.Cause(err).Error())
	}
	return id, nil
}

func errNotFound(noun string) error {
	return echo.NewHTTPError(http.StatusNotFound, noun+" not found")
}
