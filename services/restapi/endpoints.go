package restapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/trezcool/edunet/core"
	"github.com/trezcool/edunet/core/account"
	"github.com/trezcool/edunet/core/edu"
	"github.com/trezcool/edunet/core/resource"
	"github.com/trezcool/edunet/core/session"
)

// Collection paths
const (
	PathRegistrations = "/registrations"
	PathUnits         = "/education-units"
	PathClasses       = "/education-classes"
	PathStudents      = "/education-students"
)

// interface compliance checks
var (
	_ session.Authenticator = (*Client)(nil)
	_ account.Backend       = (*Client)(nil)
	_ edu.EnrollmentBackend = (*Client)(nil)
	_ edu.GradeBackend      = (*Client)(nil)
)

var _ resource.Backend[edu.Unit, edu.UnitPayload] = (*Collection[edu.Unit, edu.UnitPayload])(nil)

type loginResponse struct {
	Token string `json:"token" validate:"required"`
}

func (c *Client) Login(ctx context.Context, creds account.Credentials) (string, error) {
	var out loginResponse
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/login",
		body:     creds,
		out:      &out,
		fallback: "could not log in",
		login:    true,
	})
	return out.Token, err
}

func (c *Client) Me(ctx context.Context) (account.Profile, error) {
	var out account.Profile
	err := c.do(ctx, request{method: http.MethodGet, path: "/users/me", out: &out, fallback: "could not load your profile"})
	return out, err
}

func (c *Client) UpdateMe(ctx context.Context, p account.ProfilePayload) (account.Profile, error) {
	var out account.Profile
	err := c.do(ctx, request{method: http.MethodPut, path: "/users/me", body: p, out: &out, fallback: "could not update your profile"})
	return out, err
}

func (c *Client) ChangePassword(ctx context.Context, p account.PasswordPayload) error {
	return c.do(ctx, request{method: http.MethodPut, path: "/users/me/password", body: p, fallback: "could not change your password"})
}

// Register submits a public registration; it works without a session.
func (c *Client) Register(ctx context.Context, p account.RegistrationPayload) (account.Registration, error) {
	var out account.Registration
	err := c.do(ctx, request{method: http.MethodPost, path: PathRegistrations, body: p, out: &out, fallback: "could not register"})
	return out, err
}

func (c *Client) Enroll(ctx context.Context, studentID core.ID, p edu.EnrollmentPayload) (edu.Enrollment, error) {
	var out edu.Enrollment
	err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     fmt.Sprintf("%s/%d/enrollments", PathStudents, studentID),
		body:     p,
		out:      &out,
		fallback: "could not enroll the student",
	})
	return out, err
}

func (c *Client) Unenroll(ctx context.Context, studentID, classID core.ID) error {
	return c.do(ctx, request{
		method:   http.MethodDelete,
		path:     fmt.Sprintf("%s/%d/enrollments/%d", PathStudents, studentID, classID),
		fallback: "could not remove the enrollment",
	})
}

func (c *Client) Grades(ctx context.Context, classID core.ID) ([]edu.GradeEntry, error) {
	out := make([]edu.GradeEntry, 0)
	err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     fmt.Sprintf("%s/%d/grades", PathClasses, classID),
		out:      &out,
		fallback: "could not load the grades of this class",
	})
	return out, err
}

func (c *Client) SaveGrades(ctx context.Context, classID, studentID core.ID, p edu.GradePayload) (edu.GradeEntry, error) {
	var out edu.GradeEntry
	err := c.do(ctx, request{
		method:   http.MethodPut,
		path:     fmt.Sprintf("%s/%d/grades/%d", PathClasses, classID, studentID),
		body:     p,
		out:      &out,
		fallback: "could not save the grades",
	})
	return out, err
}

// Collection is the CRUD endpoint set of one entity: GET|POST path, PUT|DELETE path/{id}.
type Collection[R, P any] struct {
	client *Client
	path   string
	noun   string
}

func NewCollection[R, P any](c *Client, path, noun string) *Collection[R, P] {
	return &Collection[R, P]{client: c, path: path, noun: noun}
}

func (col *Collection[R, P]) List(ctx context.Context) ([]R, error) {
	out := make([]R, 0)
	err := col.client.do(ctx, request{method: http.MethodGet, path: col.path, out: &out, fallback: "could not load the " + col.noun + " list"})
	return out, err
}

func (col *Collection[R, P]) Create(ctx context.Context, p P) (R, error) {
	var out R
	err := col.client.do(ctx, request{method: http.MethodPost, path: col.path, body: p, out: &out, fallback: "could not create the " + col.noun})
	return out, err
}

func (col *Collection[R, P]) Update(ctx context.Context, id core.ID, p P) (R, error) {
	var out R
	err := col.client.do(ctx, request{
		method:   http.MethodPut,
		path:     fmt.Sprintf("%s/%d", col.path, id),
		body:     p,
		out:      &out,
		fallback: "could not update the " + col.noun,
	})
	return out, err
}

func (col *Collection[R, P]) Delete(ctx context.Context, id core.ID) error {
	return col.client.do(ctx, request{
		method:   http.MethodDelete,
		path:     fmt.Sprintf("%s/%d", col.path, id),
		fallback: "could not delete the " + col.noun,
	})
}

func (c *Client) Units() *Collection[edu.Unit, edu.UnitPayload] {
	return NewCollection[edu.Unit, edu.UnitPayload](c, PathUnits, "unit")
}

func (c *Client) Classes() *Collection[edu.Class, edu.ClassPayload] {
	return NewCollection[edu.Class, edu.ClassPayload](c, PathClasses, "class")
}

func (c *Client) Students() *Collection[edu.Student, edu.StudentPayload] {
	return NewCollection[edu.Student, edu.StudentPayload](c, PathStudents, "student")
}

func (c *Client) Registrations() *Collection[account.Registration, account.RegistrationPayload] {
	return NewCollection[account.Registration, account.RegistrationPayload](c, PathRegistrations, "registration")
}
