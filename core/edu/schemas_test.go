package edu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/edunet/core"
)

func newValidator() *core.Validator {
	v := core.NewValidator()
	InitValidators(v)
	return v
}

func validClassDraft() ClassDraft {
	return ClassDraft{
		EducationUnitID: "3",
		Name:            "1º ano A",
		Code:            "0007",
		AcademicYear:    "2025",
		StartDate:       "2025-02-01",
		EndDate:         "2025-12-15",
		ScheduleTime:    "08:00",
		Capacity:        "30",
	}
}

func TestClassSchema_Payload(t *testing.T) {
	schema := NewClassSchema(newValidator())

	p, err := schema.Payload(validClassDraft())
	require.NoError(t, err)
	assert.Equal(t, core.ID(3), p.EducationUnitID)
	assert.Equal(t, 30, p.Capacity)
	assert.Equal(t, "0007", *p.Code)
	assert.Nil(t, p.Description)

	tests := []struct {
		name    string
		mutate  func(d *ClassDraft)
		wantMsg string
	}{
		{name: "negative capacity", mutate: func(d *ClassDraft) { d.Capacity = "-5" }, wantMsg: "capacity must be a positive integer"},
		{name: "zero capacity", mutate: func(d *ClassDraft) { d.Capacity = "0" }, wantMsg: "capacity must be a positive integer"},
		{name: "missing capacity", mutate: func(d *ClassDraft) { d.Capacity = "" }, wantMsg: "capacity is required"},
		{name: "no unit", mutate: func(d *ClassDraft) { d.EducationUnitID = "" }, wantMsg: "educationUnitId is required"},
		{name: "inverted dates", mutate: func(d *ClassDraft) { d.StartDate, d.EndDate = "2025-03-01", "2025-02-01" }, wantMsg: "endDate must not be before the start date"},
		{name: "schedule", mutate: func(d *ClassDraft) { d.ScheduleTime = "23:00" }, wantMsg: "scheduleTime must be a whole hour between 07:00 and 22:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validClassDraft()
			tt.mutate(&d)
			_, err := schema.Payload(d)
			require.Error(t, err)
			assert.True(t, core.IsValidation(err))
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestClassSchema_DraftFrom(t *testing.T) {
	schema := NewClassSchema(newValidator())
	code := "12"
	c := Class{ID: 5, EducationUnitID: 3, Name: "B", Code: &code, Capacity: 25}

	d := schema.DraftFrom(c)
	assert.Equal(t, ClassDraft{EducationUnitID: "3", Name: "B", Code: "12", Capacity: "25"}, d)
	assert.Equal(t, core.ID(5), schema.RecordID(c))
	assert.Equal(t, ClassDraft{}, schema.EmptyDraft())

	slot, display := "08:00", "09:00"
	c.ScheduledTime = &slot
	assert.Equal(t, "08:00", schema.DraftFrom(c).ScheduleTime, "display field only")
	c.ScheduleTime, c.ScheduledTime = &slot, &display
	assert.Equal(t, "09:00", c.Schedule())
	c.ScheduledTime = nil
	assert.Equal(t, "08:00", c.Schedule())
}

func TestStudentSchema(t *testing.T) {
	schema := NewStudentSchema(newValidator())
	cpf := "12345678901"
	s := Student{ID: 2, Name: "Ana", CPF: &cpf}

	d := schema.DraftFrom(s)
	assert.Equal(t, "123.456.789-01", d.CPF)

	p, err := schema.Payload(d)
	require.NoError(t, err)
	assert.Equal(t, "12345678901", *p.CPF)
	assert.Nil(t, p.BirthDate)

	d.CPF = "123.456"
	_, err = schema.Payload(d)
	require.Error(t, err)
	assert.Equal(t, "cpf must contain 11 digits", err.Error())

	_, err = schema.Payload(StudentDraft{})
	assert.Equal(t, "name is required", err.Error())
}

func TestUnitSchema(t *testing.T) {
	schema := NewUnitSchema(newValidator())

	p, err := schema.Payload(UnitDraft{Name: " Centro ", Code: "U1", State: "sp"})
	require.NoError(t, err)
	assert.Equal(t, UnitPayload{Name: "Centro", Code: "U1", State: strPtr("SP")}, p)

	_, err = schema.Payload(UnitDraft{Name: "Centro"})
	require.Error(t, err)
	assert.Equal(t, "code is required", err.Error())
}

func TestNextCode(t *testing.T) {
	tests := []struct {
		codes []string
		want  string
	}{
		{codes: nil, want: "1"},
		{codes: []string{"", "abc"}, want: "1"},
		{codes: []string{"1", "3", "2"}, want: "4"},
		{codes: []string{"0007", "0012"}, want: "0013"},
		{codes: []string{"99"}, want: "100"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NextCode(tt.codes), "%v", tt.codes)
	}

	assert.Equal(t, "3", NextClassCode([]Class{{Code: strPtr("2")}, {}}))
	assert.Equal(t, "2025002", NextRegistrationCode([]Student{{RegistrationCode: strPtr("2025001")}}))
}

func TestGradeDraft_Average(t *testing.T) {
	avg := GradeDraft{AV1: "8", AV2: "6", AV3: ""}.Average()
	require.NotNil(t, avg)
	assert.Equal(t, 7.0, *avg)
	assert.Nil(t, GradeDraft{}.Average())
}

func strPtr(s string) *string {
	return &s
}
