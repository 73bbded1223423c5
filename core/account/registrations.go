package account

import (
	"github.com/trezcool/edunet/core"
)

// RegistrationSchema maps registrations to their form and wire payload.
type RegistrationSchema struct {
	validate *core.Validator
}

func NewRegistrationSchema(v *core.Validator) RegistrationSchema {
	return RegistrationSchema{validate: v}
}

func (RegistrationSchema) Name() string { return "registration" }

func (RegistrationSchema) RecordID(r Registration) core.ID { return r.ID }

func (RegistrationSchema) EmptyDraft() RegistrationDraft { return RegistrationDraft{} }

func (RegistrationSchema) DraftFrom(r Registration) RegistrationDraft {
	return RegistrationDraft{
		Name:        r.Name,
		BirthDate:   core.StringValue(r.BirthDate),
		CPF:         core.FormatIDForDisplay(core.StringValue(r.CPF)),
		Email:       r.Email,
		Description: core.StringValue(r.Description),
	}
}

func (s RegistrationSchema) Payload(d RegistrationDraft) (RegistrationPayload, error) {
	if err := s.validate.Struct(d); err != nil {
		return RegistrationPayload{}, err
	}
	return d.payload(), nil
}

// SignUpPayload validates a public registration and builds its payload.
func (s RegistrationSchema) SignUpPayload(su SignUp) (RegistrationPayload, error) {
	if err := s.validate.Struct(su); err != nil {
		return RegistrationPayload{}, err
	}
	p := su.RegistrationDraft.payload()
	p.Password = su.Password
	return p, nil
}

// RegistrationText returns the searchable text fields of a registration.
func RegistrationText(r Registration) []string {
	return []string{r.Name, r.Email}
}

// RegistrationDigits returns the digit-only fields of a registration.
func RegistrationDigits(r Registration) []string {
	return []string{core.StringValue(r.CPF)}
}
