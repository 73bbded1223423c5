package edu

import (
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/edunet/core"
)

// InitValidators registers the cross-field validations of the edu forms on v.
func InitValidators(v *core.Validator) {
	v.RegisterStructValidation(classStructValidation, ClassDraft{})
}

func classStructValidation(sl validator.StructLevel) {
	if d, ok := sl.Current().Interface().(ClassDraft); ok {
		core.ReportDateRange(sl, d.StartDate, d.EndDate, "endDate")
	}
}

type UnitSchema struct{ validate *core.Validator }

func NewUnitSchema(v *core.Validator) UnitSchema { return UnitSchema{validate: v} }

func (UnitSchema) Name() string            { return "education-unit" }
func (UnitSchema) RecordID(u Unit) core.ID { return u.ID }
func (UnitSchema) EmptyDraft() UnitDraft   { return UnitDraft{} }
func (UnitSchema) DraftFrom(u Unit) UnitDraft {
	return UnitDraft{
		Name:        u.Name,
		Code:        u.Code,
		City:        core.StringValue(u.City),
		State:       core.StringValue(u.State),
		Description: core.StringValue(u.Description),
	}
}

func (s UnitSchema) Payload(d UnitDraft) (UnitPayload, error) {
	if err := s.validate.Struct(d); err != nil {
		return UnitPayload{}, err
	}
	return UnitPayload{
		Name:        core.CleanString(d.Name),
		Code:        core.CleanString(d.Code),
		City:        core.NullableString(d.City),
		State:       core.NullableString(strings.ToUpper(d.State)),
		Description: core.NullableString(d.Description),
	}, nil
}

type ClassSchema struct{ validate *core.Validator }

func NewClassSchema(v *core.Validator) ClassSchema { return ClassSchema{validate: v} }

func (ClassSchema) Name() string             { return "education-class" }
func (ClassSchema) RecordID(c Class) core.ID { return c.ID }
func (ClassSchema) EmptyDraft() ClassDraft   { return ClassDraft{} }
func (ClassSchema) DraftFrom(c Class) ClassDraft {
	d := ClassDraft{
		EducationUnitID: c.EducationUnitID.String(),
		Name:            c.Name,
		Code:            core.StringValue(c.Code),
		AcademicYear:    core.StringValue(c.AcademicYear),
		StartDate:       core.StringValue(c.StartDate),
		EndDate:         core.StringValue(c.EndDate),
		ScheduleTime:    c.Schedule(),
		Description:     core.StringValue(c.Description),
	}
	if c.Capacity > 0 {
		d.Capacity = strconv.Itoa(c.Capacity)
	}
	return d
}

func (s ClassSchema) Payload(d ClassDraft) (ClassPayload, error) {
	if err := s.validate.Struct(d); err != nil {
		return ClassPayload{}, err
	}
	// both already validated as positive integers
	unitID, _ := core.ParseID(d.EducationUnitID)
	capacity, _ := strconv.Atoi(strings.TrimSpace(d.Capacity))
	return ClassPayload{
		EducationUnitID: unitID,
		Name:            core.CleanString(d.Name),
		Code:            core.NullableString(d.Code),
		AcademicYear:    core.NullableString(d.AcademicYear),
		StartDate:       core.NullableString(d.StartDate),
		EndDate:         core.NullableString(d.EndDate),
		ScheduleTime:    core.NullableString(d.ScheduleTime),
		Capacity:        capacity,
		Description:     core.NullableString(d.Description),
	}, nil
}

type StudentSchema struct{ validate *core.Validator }

func NewStudentSchema(v *core.Validator) StudentSchema { return StudentSchema{validate: v} }

func (StudentSchema) Name() string               { return "education-student" }
func (StudentSchema) RecordID(s Student) core.ID { return s.ID }
func (StudentSchema) EmptyDraft() StudentDraft   { return StudentDraft{} }
func (StudentSchema) DraftFrom(s Student) StudentDraft {
	return StudentDraft{
		Name:             s.Name,
		RegistrationCode: core.StringValue(s.RegistrationCode),
		CPF:              core.FormatIDForDisplay(core.StringValue(s.CPF)),
		BirthDate:        core.StringValue(s.BirthDate),
		GuardianName:     core.StringValue(s.GuardianName),
		GuardianContact:  core.StringValue(s.GuardianContact),
		Notes:            core.StringValue(s.Notes),
	}
}

func (s StudentSchema) Payload(d StudentDraft) (StudentPayload, error) {
	if err := s.validate.Struct(d); err != nil {
		return StudentPayload{}, err
	}
	return StudentPayload{
		Name:             core.CleanString(d.Name),
		RegistrationCode: core.NullableString(d.RegistrationCode),
		CPF:              core.NullableString(core.SanitizeID(d.CPF)),
		BirthDate:        core.NullableString(d.BirthDate),
		GuardianName:     core.NullableString(d.GuardianName),
		GuardianContact:  core.NullableString(d.GuardianContact),
		Notes:            core.NullableString(d.Notes),
	}, nil
}

// Search fields of the list views.

func UnitText(u Unit) []string {
	return []string{u.Name, u.Code, core.StringValue(u.City)}
}

func ClassText(c Class) []string {
	return []string{c.Name, core.StringValue(c.Code), c.EducationUnitName}
}

func StudentText(s Student) []string {
	return []string{s.Name, core.StringValue(s.RegistrationCode), core.StringValue(s.GuardianName)}
}

func StudentDigits(s Student) []string {
	return []string{core.StringValue(s.CPF)}
}
