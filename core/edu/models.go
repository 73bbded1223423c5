// Package edu holds the education network entities: units, classes, students with their
// enrollments, and grades.
package edu

import (
	"time"

	"github.com/trezcool/edunet/core"
)

// GradeSlots are the assessments of a term.
var GradeSlots = []string{"av1", "av2", "av3"}

type (
	Unit struct {
		ID          core.ID    `json:"id" validate:"required"`
		Name        string     `json:"name" validate:"required"`
		Code        string     `json:"code"`
		City        *string    `json:"city"`
		State       *string    `json:"state"`
		Description *string    `json:"description"`
		CreatedAt   time.Time  `json:"createdAt"`
		UpdatedAt   *time.Time `json:"updatedAt"`
	}

	UnitDraft struct {
		Name        string `json:"name" validate:"notblank"`
		Code        string `json:"code" validate:"notblank"`
		City        string `json:"city"`
		State       string `json:"state" validate:"max=2"`
		Description string `json:"description" validate:"max=1000"`
	}

	UnitPayload struct {
		Name        string  `json:"name"`
		Code        string  `json:"code"`
		City        *string `json:"city"`
		State       *string `json:"state"`
		Description *string `json:"description"`
	}

	Class struct {
		ID                core.ID    `json:"id" validate:"required"`
		EducationUnitID   core.ID    `json:"educationUnitId" validate:"required"`
		EducationUnitName string     `json:"educationUnitName"`
		Name              string     `json:"name" validate:"required"`
		Code              *string    `json:"code"`
		AcademicYear      *string    `json:"academicYear"`
		StartDate         *string    `json:"startDate"`
		EndDate           *string    `json:"endDate"`
		ScheduleTime      *string    `json:"scheduleTime"`
		ScheduledTime     *string    `json:"scheduledTime"` // display form of the slot; see Schedule
		Capacity          int        `json:"capacity"`
		Description       *string    `json:"description"`
		CreatedAt         time.Time  `json:"createdAt"`
		UpdatedAt         *time.Time `json:"updatedAt"`
	}

	ClassDraft struct {
		EducationUnitID string `json:"educationUnitId" validate:"notblank,posint"`
		Name            string `json:"name" validate:"notblank"`
		Code            string `json:"code"`
		AcademicYear    string `json:"academicYear" validate:"omitempty,numeric,len=4"`
		StartDate       string `json:"startDate" validate:"omitempty,isodate"`
		EndDate         string `json:"endDate" validate:"omitempty,isodate"`
		ScheduleTime    string `json:"scheduleTime" validate:"omitempty,hourslot"`
		Capacity        string `json:"capacity" validate:"notblank,posint"`
		Description     string `json:"description" validate:"max=1000"`
	}

	ClassPayload struct {
		EducationUnitID core.ID `json:"educationUnitId"`
		Name            string  `json:"name"`
		Code            *string `json:"code"`
		AcademicYear    *string `json:"academicYear"`
		StartDate       *string `json:"startDate"`
		EndDate         *string `json:"endDate"`
		ScheduleTime    *string `json:"scheduleTime"`
		Capacity        int     `json:"capacity"`
		Description     *string `json:"description"`
	}

	Enrollment struct {
		EducationClassID   core.ID   `json:"educationClassId" validate:"required"`
		EducationClassName string    `json:"educationClassName"`
		CreatedAt          time.Time `json:"createdAt"`
	}

	EnrollmentPayload struct {
		EducationClassID core.ID `json:"educationClassId"`
	}

	Student struct {
		ID               core.ID      `json:"id" validate:"required"`
		Name             string       `json:"name" validate:"required"`
		RegistrationCode *string      `json:"registrationCode"`
		CPF              *string      `json:"cpf"`
		BirthDate        *string      `json:"birthDate"`
		GuardianName     *string      `json:"guardianName"`
		GuardianContact  *string      `json:"guardianContact"`
		Notes            *string      `json:"notes"`
		Enrollments      []Enrollment `json:"enrollments" validate:"dive"`
		CreatedAt        time.Time    `json:"createdAt"`
		UpdatedAt        *time.Time   `json:"updatedAt"`
	}

	StudentDraft struct {
		Name             string `json:"name" validate:"notblank"`
		RegistrationCode string `json:"registrationCode"`
		CPF              string `json:"cpf" draft:"cpf" validate:"omitempty,cpf"`
		BirthDate        string `json:"birthDate" validate:"omitempty,isodate"`
		GuardianName     string `json:"guardianName"`
		GuardianContact  string `json:"guardianContact"`
		Notes            string `json:"notes" validate:"max=1000"`
	}

	StudentPayload struct {
		Name             string  `json:"name"`
		RegistrationCode *string `json:"registrationCode"`
		CPF              *string `json:"cpf"`
		BirthDate        *string `json:"birthDate"`
		GuardianName     *string `json:"guardianName"`
		GuardianContact  *string `json:"guardianContact"`
		Notes            *string `json:"notes"`
	}

	// GradeEntry is one student's line in a class gradebook.
	GradeEntry struct {
		StudentID   core.ID    `json:"studentId" validate:"required"`
		StudentName string     `json:"studentName"`
		AV1         *float64   `json:"av1"`
		AV2         *float64   `json:"av2"`
		AV3         *float64   `json:"av3"`
		Average     *float64   `json:"average"`
		UpdatedAt   *time.Time `json:"updatedAt"`
	}

	GradeDraft struct {
		AV1 string `json:"av1" validate:"grade"`
		AV2 string `json:"av2" validate:"grade"`
		AV3 string `json:"av3" validate:"grade"`
	}

	GradePayload struct {
		AV1 *float64 `json:"av1"`
		AV2 *float64 `json:"av2"`
		AV3 *float64 `json:"av3"`
	}
)

// Schedule is the class time slot, whichever field the server filled.
func (c Class) Schedule() string {
	if s := core.StringValue(c.ScheduledTime); s != "" {
		return s
	}
	return core.StringValue(c.ScheduleTime)
}

// EnrolledIn returns the student's enrollment in the class, if any.
func (s Student) EnrolledIn(classID core.ID) (Enrollment, bool) {
	for _, e := range s.Enrollments {
		if e.EducationClassID == classID {
			return e, true
		}
	}
	return Enrollment{}, false
}

func (g GradeEntry) Draft() GradeDraft {
	return GradeDraft{
		AV1: core.FormatGrade(g.AV1),
		AV2: core.FormatGrade(g.AV2),
		AV3: core.FormatGrade(g.AV3),
	}
}

// Average is the mean of the grades typed so far.
func (d GradeDraft) Average() *float64 {
	return core.CalculateAverage(d.AV1, d.AV2, d.AV3)
}
