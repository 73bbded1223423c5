// Package restapi is the HTTP boundary of the client: it speaks version 1 of the education
// network REST API and maps its answers onto the core error taxonomy.
package restapi

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"golang.org/x/time/rate"

	"github.com/trezcool/edunet/core"
)

const (
	headerRequestID = "X-Request-ID"
	loginFailedText = "login failed, check your credentials"
)

// TokenSource provides the bearer token and is told when the server rejects it.
type TokenSource interface {
	Token() (string, bool)
	Expire()
}

type (
	Client struct {
		baseURL  string
		http     *rest.Client
		limiter  *rate.Limiter
		tokens   TokenSource
		validate *core.Validator
		log      core.Logger
	}

	// request describes one API call.
	request struct {
		method   rest.Method
		path     string
		body     interface{}
		out      interface{}
		fallback string // message when the server gives none
		login    bool   // a 401 means bad credentials, not an expired session
	}

	errorBody struct {
		Message string `json:"message"`
	}
)

// NewClient returns a client of the API at conf.BaseURL. httpClient defaults to a plain http.Client.
func NewClient(conf core.APIConfig, tokens TokenSource, v *core.Validator, logger core.Logger, httpClient ...*http.Client) *Client {
	hc := &http.Client{}
	if len(httpClient) > 0 && httpClient[0] != nil {
		hc = httpClient[0]
	}

	limit, burst := rate.Inf, conf.Burst
	if conf.RequestsPerSecond > 0 {
		limit = rate.Limit(conf.RequestsPerSecond)
	}
	if burst < 1 {
		burst = 1
	}

	return &Client{
		baseURL:  core.NormalizeBaseURL(conf.BaseURL),
		http:     &rest.Client{HTTPClient: hc},
		limiter:  rate.NewLimiter(limit, burst),
		tokens:   tokens,
		validate: v,
		log:      logger,
	}
}

func (c *Client) do(ctx context.Context, r request) error {
	endpoint := string(r.method) + " " + r.path

	if err := c.limiter.Wait(ctx); err != nil {
		return &core.APIError{Message: r.fallback, Err: err}
	}

	req := rest.Request{
		Method:  r.method,
		BaseURL: c.baseURL + r.path,
		Headers: map[string]string{
			"Accept":        "application/json",
			headerRequestID: uuid.New().String(),
		},
	}
	if token, ok := c.tokens.Token(); ok {
		req.Headers["Authorization"] = "Bearer " + token
	}
	if r.body != nil {
		body, err := json.Marshal(r.body)
		if err != nil {
			return errors.Wrapf(err, "encoding %s body", endpoint)
		}
		req.Body = body
		req.Headers["Content-Type"] = "application/json"
	}

	res, err := c.send(ctx, req)
	if err != nil {
		return &core.APIError{Message: r.fallback, Err: err}
	}

	switch {
	case res.StatusCode == http.StatusUnauthorized && !r.login:
		c.log.Warn("request rejected with 401: "+endpoint, req.Headers[headerRequestID])
		c.tokens.Expire()
		return core.ErrSessionExpired
	case res.StatusCode == http.StatusNotFound:
		return &core.NotFoundError{Path: r.path, Message: errorMessage(res)}
	case r.login && (res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusBadRequest):
		msg := errorMessage(res)
		if msg == "" {
			msg = loginFailedText
		}
		return &core.APIError{Status: res.StatusCode, Message: msg}
	case res.StatusCode < 200 || res.StatusCode > 299:
		msg := errorMessage(res)
		if msg == "" {
			msg = r.fallback
		}
		return &core.APIError{Status: res.StatusCode, Message: msg}
	}

	if r.out == nil {
		return nil
	}
	if err = decodeStrict(res.Body, r.out); err != nil {
		return &core.SchemaError{Endpoint: endpoint, Err: err}
	}
	if err = c.validateBody(r.out); err != nil {
		return &core.SchemaError{Endpoint: endpoint, Err: err}
	}
	return nil
}

// send is rest.Client.Send bound to ctx: cancelling ctx aborts the request.
func (c *Client) send(ctx context.Context, req rest.Request) (*rest.Response, error) {
	hreq, err := rest.BuildRequestObject(req)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	hres, err := c.http.MakeRequest(hreq.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	res, err := rest.BuildResponse(hres)
	if err != nil {
		return nil, errors.Wrap(err, "reading response")
	}
	return res, nil
}

// errorMessage returns the "message" of a JSON error body, or "".
func errorMessage(res *rest.Response) string {
	if !isJSON(res.Headers) {
		return ""
	}
	var body errorBody
	if err := json.Unmarshal([]byte(res.Body), &body); err != nil {
		return ""
	}
	return strings.TrimSpace(body.Message)
}

func isJSON(headers map[string][]string) bool {
	ct := http.Header(headers).Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(ct)
	return err == nil && (mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"))
}

// decodeStrict decodes exactly one JSON value made only of known fields.
func decodeStrict(body string, dst interface{}) error {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Wrap(err, "decoding body")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("trailing data after body")
	}
	return nil
}

// validateBody checks the required fields of a decoded struct or of every element of a decoded slice.
func (c *Client) validateBody(out interface{}) error {
	v := reflect.Indirect(reflect.ValueOf(out))
	switch v.Kind() {
	case reflect.Struct:
		return c.validate.Struct(v.Interface())
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			if err := c.validateBody(v.Index(i).Addr().Interface()); err != nil {
				return errors.Wrapf(err, "item %d", i)
			}
		}
	}
	return nil
}
