// Package fakeapi is an in-memory stand-in for the education network REST API, used by tests.
package fakeapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
)

const contextTokenKey = "userToken"

var (
	errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errBadBody      = echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
)

type (
	// API is a running fake server. Its zero value is not usable; see Start.
	API struct {
		URL string

		secret   []byte
		app      *echo.Echo
		db       *database
		requests int64

		injMu     sync.Mutex
		injected  []injection
		lastReqMu sync.Mutex
		lastReq   http.Header
	}

	injection struct {
		method, path string
		status       int
		contentType  string
		body         string
	}
)

// Start serves a fresh fake API until the test ends.
func Start(t *testing.T) *API {
	api := New("fake-secret")
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	api.URL = srv.URL
	return api
}

func New(secret string) *API {
	api := &API{
		secret: []byte(secret),
		app:    echo.New(),
		db:     newDatabase(),
	}
	api.app.HideBanner = true
	api.app.Logger.SetLevel(log.OFF)
	api.setup()
	return api
}

func (api *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	api.app.ServeHTTP(w, r)
}

func (api *API) setup() {
	api.app.Pre(middleware.RemoveTrailingSlash())
	api.app.Use(api.countRequests, api.injectFailures)
	api.app.HTTPErrorHandler = httpErrorHandler

	jwtAuth := middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    api.secret,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	})

	g := api.app.Group("/api")
	api.registerAuthAPI(g, jwtAuth)
	api.registerEduAPI(g, jwtAuth)
}

// Claims are the claims of the tokens the fake issues.
type Claims struct {
	jwt.StandardClaims
	Name  string   `json:"name,omitempty"`
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// Requests is the number of requests served so far.
func (api *API) Requests() int {
	return int(atomic.LoadInt64(&api.requests))
}

// LastHeaders returns the headers of the last request.
func (api *API) LastHeaders() http.Header {
	api.lastReqMu.Lock()
	defer api.lastReqMu.Unlock()
	return api.lastReq.Clone()
}

// Inject makes the next request matching method and path get the given answer instead.
func (api *API) Inject(method, path string, status int, contentType, body string) {
	api.injMu.Lock()
	defer api.injMu.Unlock()
	api.injected = append(api.injected, injection{
		method:      method,
		path:        "/api" + path,
		status:      status,
		contentType: contentType,
		body:        body,
	})
}

// Fail makes the next matching request fail with a JSON {"message"} body.
func (api *API) Fail(method, path string, status int, message string) {
	api.Inject(method, path, status, echo.MIMEApplicationJSON, `{"message":"`+message+`"}`)
}

func (api *API) countRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		atomic.AddInt64(&api.requests, 1)
		api.lastReqMu.Lock()
		api.lastReq = ctx.Request().Header.Clone()
		api.lastReqMu.Unlock()
		return next(ctx)
	}
}

func (api *API) injectFailures(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		req := ctx.Request()
		api.injMu.Lock()
		for i, inj := range api.injected {
			if inj.method == req.Method && inj.path == strings.TrimRight(req.URL.Path, "/") {
				api.injected = append(api.injected[:i], api.injected[i+1:]...)
				api.injMu.Unlock()
				if inj.contentType == "" {
					return ctx.NoContent(inj.status)
				}
				return ctx.Blob(inj.status, inj.contentType, []byte(inj.body))
			}
		}
		api.injMu.Unlock()
		return next(ctx)
	}
}

func (api *API) contextUser(ctx echo.Context) (*user, error) {
	token, ok := ctx.Get(contextTokenKey).(*jwt.Token)
	if !ok {
		return nil, errUnauthorized
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errUnauthorized
	}
	usr, ok := api.db.userBySubject(claims.Subject)
	if !ok {
		return nil, errUnauthorized
	}
	return usr, nil
}

// httpErrorHandler answers every error with a JSON {"message"} body.
func httpErrorHandler(err error, ctx echo.Context) {
	code := http.StatusInternalServerError
	message := http.StatusText(code)

	if herr, ok := errors.Cause(err).(*echo.HTTPError); ok {
		code = herr.Code
		if herr == middleware.ErrJWTMissing {
			code = http.StatusUnauthorized
		}
		if msg, ok := herr.Message.(string); ok {
			message = msg
		}
	}

	if !ctx.Response().Committed {
		if err = ctx.JSON(code, echo.Map{"message": message}); err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}
