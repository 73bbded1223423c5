package edu

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/edunet/core"
)

var errNoClassSelected = errors.New("select a class before saving grades")

type (
	GradeBackend interface {
		Grades(ctx context.Context, classID core.ID) ([]GradeEntry, error)
		SaveGrades(ctx context.Context, classID, studentID core.ID, p GradePayload) (GradeEntry, error)
	}

	// Gradebook edits the grades of one class, one student line at a time.
	// Every line has its own draft and save status.
	Gradebook struct {
		backend  GradeBackend
		session  Session
		validate *core.Validator
		log      core.Logger

		mu       sync.RWMutex
		classID  core.ID
		entries  []GradeEntry
		fetch    core.Operation[int]
		fetchGen int
		drafts   map[core.ID]GradeDraft
		feedback map[core.ID]core.Operation[GradeEntry]
	}
)

func NewGradebook(backend GradeBackend, sess Session, v *core.Validator, logger core.Logger) *Gradebook {
	return &Gradebook{
		backend:  backend,
		session:  sess,
		validate: v,
		log:      logger,
		drafts:   make(map[core.ID]GradeDraft),
		feedback: make(map[core.ID]core.Operation[GradeEntry]),
	}
}

// Select loads the gradebook of a class. Zero clears the selection.
func (gb *Gradebook) Select(ctx context.Context, classID core.ID) error {
	gb.mu.Lock()
	if classID != gb.classID {
		gb.entries = nil
		gb.drafts = make(map[core.ID]GradeDraft)
		gb.feedback = make(map[core.ID]core.Operation[GradeEntry])
	}
	gb.classID = classID
	gb.fetchGen++
	gen := gb.fetchGen
	if classID == 0 {
		gb.fetch = core.Operation[int]{}
		gb.mu.Unlock()
		return nil
	}
	if !gb.session.Authenticated() {
		gb.fetch = core.Fail[int](core.ErrSessionExpired)
		gb.mu.Unlock()
		return core.ErrSessionExpired
	}
	gb.fetch = core.Begin[int]()
	gb.mu.Unlock()

	entries, err := gb.backend.Grades(ctx, classID)

	gb.mu.Lock()
	defer gb.mu.Unlock()
	if gen != gb.fetchGen {
		return err
	}
	if err != nil {
		gb.fetch = core.Fail[int](err)
		return errors.Wrapf(err, "loading grades of class %d", classID)
	}
	gb.entries = entries
	gb.drafts = make(map[core.ID]GradeDraft, len(entries))
	for _, e := range entries {
		gb.drafts[e.StudentID] = e.Draft()
	}
	gb.feedback = make(map[core.ID]core.Operation[GradeEntry])
	gb.fetch = core.Succeed(len(entries))
	return nil
}

func (gb *Gradebook) ClassID() core.ID {
	gb.mu.RLock()
	defer gb.mu.RUnlock()
	return gb.classID
}

func (gb *Gradebook) Entries() []GradeEntry {
	gb.mu.RLock()
	defer gb.mu.RUnlock()
	return append([]GradeEntry(nil), gb.entries...)
}

func (gb *Gradebook) Fetch() core.Operation[int] {
	gb.mu.RLock()
	defer gb.mu.RUnlock()
	return gb.fetch
}

func (gb *Gradebook) Draft(studentID core.ID) GradeDraft {
	gb.mu.RLock()
	defer gb.mu.RUnlock()
	return gb.drafts[studentID]
}

// Average is the live average of the student's draft.
func (gb *Gradebook) Average(studentID core.ID) *float64 {
	return gb.Draft(studentID).Average()
}

func (gb *Gradebook) Feedback(studentID core.ID) core.Operation[GradeEntry] {
	gb.mu.RLock()
	defer gb.mu.RUnlock()
	return gb.feedback[studentID]
}

// SetGrade edits one slot (av1, av2 or av3) of a student's draft.
func (gb *Gradebook) SetGrade(studentID core.ID, slot, value string) error {
	gb.mu.Lock()
	defer gb.mu.Unlock()
	d := gb.drafts[studentID]
	if err := core.SetField(&d, slot, value); err != nil {
		return err
	}
	gb.drafts[studentID] = d
	if op, ok := gb.feedback[studentID]; ok && !op.IsPending() {
		gb.feedback[studentID] = core.Operation[GradeEntry]{}
	}
	return nil
}

// Reset drops the student's unsaved edits.
func (gb *Gradebook) Reset(studentID core.ID) {
	gb.mu.Lock()
	defer gb.mu.Unlock()
	gb.drafts[studentID] = GradeDraft{}
	for _, e := range gb.entries {
		if e.StudentID == studentID {
			gb.drafts[studentID] = e.Draft()
			break
		}
	}
	gb.feedback[studentID] = core.Operation[GradeEntry]{}
}

// Save sends the student's draft. Invalid grades are reported without a request.
func (gb *Gradebook) Save(ctx context.Context, studentID core.ID) (GradeEntry, error) {
	gb.mu.Lock()
	if gb.feedback[studentID].IsPending() {
		gb.mu.Unlock()
		return GradeEntry{}, core.ErrBusy
	}
	fail := func(err error) (GradeEntry, error) {
		gb.feedback[studentID] = core.Fail[GradeEntry](err)
		gb.mu.Unlock()
		return GradeEntry{}, err
	}
	if !gb.session.Authenticated() {
		return fail(core.ErrSessionExpired)
	}
	classID := gb.classID
	if classID == 0 {
		return fail(core.NewValidationError(errNoClassSelected))
	}
	draft := gb.drafts[studentID]
	if err := gb.validate.Struct(draft); err != nil {
		return fail(err)
	}
	gb.feedback[studentID] = core.Begin[GradeEntry]()
	gb.mu.Unlock()

	// grades were validated above
	av1, _ := core.ParseGrade(draft.AV1)
	av2, _ := core.ParseGrade(draft.AV2)
	av3, _ := core.ParseGrade(draft.AV3)
	entry, err := gb.backend.SaveGrades(ctx, classID, studentID, GradePayload{AV1: av1, AV2: av2, AV3: av3})

	gb.mu.Lock()
	defer gb.mu.Unlock()
	if gb.classID != classID {
		if err != nil {
			return GradeEntry{}, err
		}
		return entry, nil
	}
	if err != nil {
		gb.feedback[studentID] = core.Fail[GradeEntry](err)
		return GradeEntry{}, errors.Wrapf(err, "saving grades of student %d", studentID)
	}

	for i, e := range gb.entries {
		if e.StudentID == entry.StudentID {
			gb.entries[i] = entry
			break
		}
	}
	gb.drafts[studentID] = entry.Draft()
	gb.feedback[studentID] = core.Succeed(entry)
	return entry, nil
}
