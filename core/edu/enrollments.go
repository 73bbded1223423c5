package edu

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/trezcool/edunet/core"
)

type (
	// EnrollmentBackend links students to classes.
	EnrollmentBackend interface {
		Enroll(ctx context.Context, studentID core.ID, p EnrollmentPayload) (Enrollment, error)
		Unenroll(ctx context.Context, studentID, classID core.ID) error
	}

	Session interface {
		Authenticated() bool
	}

	ClassLister interface {
		Items() []Class
	}

	// StudentCache is the students collection the board reads and patches.
	StudentCache interface {
		Items() []Student
		Get(id core.ID) (Student, bool)
		Replace(s Student)
	}

	EnrolledStudent struct {
		Student    Student
		Enrollment Enrollment
	}

	ClassEnrollments struct {
		Class     Class
		Enrolled  []EnrolledStudent
		Available []Student
	}

	// EnrollmentBoard shows, per class, who is enrolled and who can still be.
	EnrollmentBoard struct {
		classes  ClassLister
		students StudentCache
		backend  EnrollmentBackend
		session  Session
		log      core.Logger

		mu      sync.RWMutex
		ops     map[core.ID]core.Operation[core.ID] // per class; value is the student id
		pending map[core.ID]bool
	}
)

func NewEnrollmentBoard(classes ClassLister, students StudentCache, backend EnrollmentBackend, sess Session, logger core.Logger) *EnrollmentBoard {
	return &EnrollmentBoard{
		classes:  classes,
		students: students,
		backend:  backend,
		session:  sess,
		log:      logger,
		ops:      make(map[core.ID]core.Operation[core.ID]),
		pending:  make(map[core.ID]bool),
	}
}

// Rows returns one entry per class, in the classes' order. Students are sorted by name (pt-BR).
func (b *EnrollmentBoard) Rows() []ClassEnrollments {
	students := b.students.Items()
	SortStudentsByName(students)

	classes := b.classes.Items()
	rows := make([]ClassEnrollments, 0, len(classes))
	for _, c := range classes {
		row := ClassEnrollments{Class: c, Enrolled: []EnrolledStudent{}, Available: []Student{}}
		for _, s := range students {
			if e, ok := s.EnrolledIn(c.ID); ok {
				row.Enrolled = append(row.Enrolled, EnrolledStudent{Student: s, Enrollment: e})
			} else {
				row.Available = append(row.Available, s)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Enroll links the student to the class and patches the cached student.
func (b *EnrollmentBoard) Enroll(ctx context.Context, studentID, classID core.ID) error {
	if err := b.begin(classID); err != nil {
		return err
	}

	student, ok := b.students.Get(studentID)
	if !ok {
		return b.fail(classID, core.NewValidationError(errors.New("select a student to enroll"),
			core.FieldError{Field: "studentId", Error: "select a student to enroll"}))
	}
	if _, ok = student.EnrolledIn(classID); ok {
		return b.fail(classID, core.NewValidationError(errors.New("student is already enrolled in this class")))
	}
	class, known := b.class(classID)
	if known && class.Capacity > 0 && b.enrolledCount(classID) >= class.Capacity {
		msg := fmt.Sprintf("class %s is full (%d students)", class.Name, class.Capacity)
		return b.fail(classID, core.NewValidationError(errors.New(msg)))
	}

	enrollment, err := b.backend.Enroll(ctx, studentID, EnrollmentPayload{EducationClassID: classID})
	if err != nil {
		return b.fail(classID, errors.Wrapf(err, "enrolling student %d in class %d", studentID, classID))
	}
	if enrollment.EducationClassID == 0 {
		enrollment.EducationClassID = classID
	}
	if enrollment.EducationClassName == "" && known {
		enrollment.EducationClassName = class.Name
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}

	// re-read: the student may have changed while the request was in flight
	if current, ok := b.students.Get(studentID); ok {
		student = current
	}
	student.Enrollments = append(append([]Enrollment(nil), student.Enrollments...), enrollment)
	b.students.Replace(student)
	b.succeed(classID, studentID)
	return nil
}

// Unenroll removes the link. A link the server no longer has counts as removed.
func (b *EnrollmentBoard) Unenroll(ctx context.Context, studentID, classID core.ID) error {
	if err := b.begin(classID); err != nil {
		return err
	}

	err := b.backend.Unenroll(ctx, studentID, classID)
	if err != nil && !core.IsNotFound(err) {
		b.log.Error("unenrolling student", studentID, classID, err)
		return b.fail(classID, errors.Wrapf(err, "unenrolling student %d from class %d", studentID, classID))
	}

	if student, ok := b.students.Get(studentID); ok {
		kept := make([]Enrollment, 0, len(student.Enrollments))
		for _, e := range student.Enrollments {
			if e.EducationClassID != classID {
				kept = append(kept, e)
			}
		}
		student.Enrollments = kept
		b.students.Replace(student)
	}
	b.succeed(classID, studentID)
	return nil
}

// Op is the status of the last enroll/unenroll of the class.
func (b *EnrollmentBoard) Op(classID core.ID) core.Operation[core.ID] {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ops[classID]
}

func (b *EnrollmentBoard) begin(classID core.ID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending[classID] {
		return core.ErrBusy
	}
	if !b.session.Authenticated() {
		b.ops[classID] = core.Fail[core.ID](core.ErrSessionExpired)
		return core.ErrSessionExpired
	}
	b.pending[classID] = true
	b.ops[classID] = core.Begin[core.ID]()
	return nil
}

func (b *EnrollmentBoard) fail(classID core.ID, err error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pending, classID)
	b.ops[classID] = core.Fail[core.ID](err)
	return err
}

func (b *EnrollmentBoard) succeed(classID, studentID core.ID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pending, classID)
	b.ops[classID] = core.Succeed(studentID)
}

func (b *EnrollmentBoard) class(id core.ID) (Class, bool) {
	for _, c := range b.classes.Items() {
		if c.ID == id {
			return c, true
		}
	}
	return Class{}, false
}

func (b *EnrollmentBoard) enrolledCount(classID core.ID) int {
	var n int
	for _, s := range b.students.Items() {
		if _, ok := s.EnrolledIn(classID); ok {
			n++
		}
	}
	return n
}

// SortStudentsByName orders students the way a Brazilian Portuguese reader expects.
func SortStudentsByName(students []Student) {
	col := collate.New(language.BrazilianPortuguese, collate.IgnoreCase)
	sort.SliceStable(students, func(i, j int) bool {
		return col.CompareString(students[i].Name, students[j].Name) < 0
	})
}
