package account

import (
	"time"

	"github.com/trezcool/edunet/core"
)

// Roles
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Themes
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

type (
	// Profile is the authenticated user as returned by GET /users/me.
	Profile struct {
		ID          core.ID  `json:"id" validate:"required"`
		Name        string   `json:"name" validate:"required"`
		Email       string   `json:"email" validate:"required"`
		BirthDate   *string  `json:"birthDate"`
		CPF         *string  `json:"cpf"`
		Description *string  `json:"description"`
		Theme       string   `json:"theme"`
		Roles       []string `json:"roles"`
	}

	Credentials struct {
		Email    string `json:"email" validate:"notblank,email"`
		Password string `json:"password" validate:"notblank"`
	}

	ProfileDraft struct {
		Name        string `json:"name" validate:"notblank"`
		Email       string `json:"email" validate:"notblank,email"`
		BirthDate   string `json:"birthDate" validate:"omitempty,isodate"`
		CPF         string `json:"cpf" draft:"cpf" validate:"omitempty,cpf"`
		Description string `json:"description" validate:"max=1000"`
		Theme       string `json:"theme" validate:"omitempty,oneof=dark light"`
	}

	ProfilePayload struct {
		Name        string  `json:"name"`
		Email       string  `json:"email"`
		BirthDate   *string `json:"birthDate"`
		CPF         *string `json:"cpf"`
		Description *string `json:"description"`
		Theme       string  `json:"theme,omitempty"`
	}

	PasswordChange struct {
		CurrentPassword string `json:"currentPassword" validate:"notblank"`
		NewPassword     string `json:"newPassword" validate:"notblank"`
		ConfirmPassword string `json:"confirmPassword" validate:"eqfield=NewPassword"`

		// user attributes the new password must not resemble
		name, email string
	}

	PasswordPayload struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}

	// Registration is one personal record of the registration report.
	Registration struct {
		ID          core.ID   `json:"id" validate:"required"`
		Name        string    `json:"name" validate:"required"`
		BirthDate   *string   `json:"birthDate"`
		CPF         *string   `json:"cpf"`
		Email       string    `json:"email"`
		Description *string   `json:"description"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	RegistrationDraft struct {
		Name        string `json:"name" validate:"notblank"`
		BirthDate   string `json:"birthDate" validate:"omitempty,isodate"`
		CPF         string `json:"cpf" draft:"cpf" validate:"omitempty,cpf"`
		Email       string `json:"email" validate:"notblank,email"`
		Description string `json:"description" validate:"max=1000"`
	}

	// SignUp is the public registration form: a record plus the account password.
	SignUp struct {
		RegistrationDraft
		Password        string `json:"password" validate:"notblank"`
		ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
	}

	// RegistrationPayload omits null fields, so an edit keeps whatever the server already has.
	RegistrationPayload struct {
		Name        string  `json:"name"`
		BirthDate   *string `json:"birthDate,omitempty"`
		CPF         *string `json:"cpf,omitempty"`
		Email       string  `json:"email"`
		Description *string `json:"description,omitempty"`
		Password    string  `json:"password,omitempty"`
	}
)

func (p Profile) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (p Profile) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}

// Draft seeds the profile form.
func (p Profile) Draft() ProfileDraft {
	return ProfileDraft{
		Name:        p.Name,
		Email:       p.Email,
		BirthDate:   core.StringValue(p.BirthDate),
		CPF:         core.FormatIDForDisplay(core.StringValue(p.CPF)),
		Description: core.StringValue(p.Description),
		Theme:       p.Theme,
	}
}

func (d ProfileDraft) payload() ProfilePayload {
	return ProfilePayload{
		Name:        core.CleanString(d.Name),
		Email:       core.CleanString(d.Email, true),
		BirthDate:   core.NullableString(d.BirthDate),
		CPF:         core.NullableString(core.SanitizeID(d.CPF)),
		Description: core.NullableString(d.Description),
		Theme:       d.Theme,
	}
}

func (d RegistrationDraft) payload() RegistrationPayload {
	return RegistrationPayload{
		Name:        core.CleanString(d.Name),
		BirthDate:   core.NullableString(d.BirthDate),
		CPF:         core.NullableString(core.SanitizeID(d.CPF)),
		Email:       core.CleanString(d.Email, true),
		Description: core.NullableString(d.Description),
	}
}

// ForUser binds the password change to the attributes of the given profile.
func (pc PasswordChange) ForUser(p Profile) PasswordChange {
	pc.name, pc.email = p.Name, p.Email
	return pc
}
