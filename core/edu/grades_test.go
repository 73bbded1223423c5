package edu

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/edunet/core"
	"github.com/trezcool/edunet/tests"
)

type gradeBackendMock struct {
	entries  map[core.ID][]GradeEntry
	listErr  error
	saveErr  error
	saves    []GradePayload
	gradeGet int
}

func (m *gradeBackendMock) Grades(_ context.Context, classID core.ID) ([]GradeEntry, error) {
	m.gradeGet++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]GradeEntry(nil), m.entries[classID]...), nil
}

func (m *gradeBackendMock) SaveGrades(_ context.Context, _, studentID core.ID, p GradePayload) (GradeEntry, error) {
	if m.saveErr != nil {
		return GradeEntry{}, m.saveErr
	}
	m.saves = append(m.saves, p)
	return GradeEntry{
		StudentID: studentID,
		AV1:       p.AV1,
		AV2:       p.AV2,
		AV3:       p.AV3,
		Average:   core.CalculateAverage(core.FormatGrade(p.AV1), core.FormatGrade(p.AV2), core.FormatGrade(p.AV3)),
	}, nil
}

func gradePtr(v float64) *float64 { return &v }

func newGradebook(authed bool) (*Gradebook, *gradeBackendMock) {
	backend := &gradeBackendMock{entries: map[core.ID][]GradeEntry{
		1: {
			{StudentID: 10, StudentName: "Ana", AV1: gradePtr(8), AV2: gradePtr(6)},
			{StudentID: 11, StudentName: "Bruno"},
		},
	}}
	return NewGradebook(backend, sessionMock(authed), newValidator(), new(testutil.Logger)), backend
}

func TestGradebook_Select(t *testing.T) {
	ctx := context.Background()
	gb, backend := newGradebook(true)

	require.NoError(t, gb.Select(ctx, 1))
	assert.Len(t, gb.Entries(), 2)
	assert.Equal(t, GradeDraft{AV1: "8", AV2: "6"}, gb.Draft(10))
	assert.Equal(t, 7.0, *gb.Average(10))
	assert.Nil(t, gb.Average(11))

	backend.listErr = &core.APIError{Status: 500, Message: "down"}
	require.Error(t, gb.Select(ctx, 1))
	assert.Len(t, gb.Entries(), 2, "previous gradebook is kept")
	assert.Equal(t, "down", gb.Fetch().Message(""))

	require.NoError(t, gb.Select(ctx, 0))
	assert.Empty(t, gb.Entries())
	assert.True(t, gb.Fetch().IsIdle())
}

func TestGradebook_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		gb, backend := newGradebook(true)
		require.NoError(t, gb.Select(ctx, 1))
		require.NoError(t, gb.SetGrade(11, "av1", "9,5"))
		require.NoError(t, gb.SetGrade(11, "av3", "7"))

		entry, err := gb.Save(ctx, 11)
		require.NoError(t, err)
		require.Len(t, backend.saves, 1)
		assert.Equal(t, GradePayload{AV1: gradePtr(9.5), AV3: gradePtr(7)}, backend.saves[0])
		assert.Equal(t, 8.25, *entry.Average)
		assert.Equal(t, entry, gb.Entries()[1])
		assert.Equal(t, GradeDraft{AV1: "9.5", AV3: "7"}, gb.Draft(11))
		assert.Equal(t, core.OpSucceeded, gb.Feedback(11).State())
	})

	t.Run("invalid grade", func(t *testing.T) {
		gb, backend := newGradebook(true)
		require.NoError(t, gb.Select(ctx, 1))
		require.NoError(t, gb.SetGrade(10, "av2", "11"))

		_, err := gb.Save(ctx, 10)
		require.Error(t, err)
		assert.Equal(t, "av2: out of range", gb.Feedback(10).Message(""))
		assert.Empty(t, backend.saves)

		require.NoError(t, gb.SetGrade(10, "av2", "10"))
		assert.True(t, gb.Feedback(10).IsIdle())

		gb.Reset(10)
		assert.Equal(t, GradeDraft{AV1: "8", AV2: "6"}, gb.Draft(10))
	})

	t.Run("unknown slot", func(t *testing.T) {
		gb, _ := newGradebook(true)
		assert.Error(t, gb.SetGrade(10, "av4", "1"))
	})

	t.Run("no class", func(t *testing.T) {
		gb, backend := newGradebook(true)
		_, err := gb.Save(ctx, 10)
		require.Error(t, err)
		assert.Equal(t, "select a class before saving grades", err.Error())
		assert.Empty(t, backend.saves)
	})

	t.Run("no session", func(t *testing.T) {
		gb, backend := newGradebook(false)
		assert.Equal(t, core.ErrSessionExpired, gb.Select(ctx, 1))
		_, err := gb.Save(ctx, 10)
		assert.Equal(t, core.ErrSessionExpired, err)
		assert.Equal(t, 0, backend.gradeGet)
	})

	t.Run("server error", func(t *testing.T) {
		gb, backend := newGradebook(true)
		require.NoError(t, gb.Select(ctx, 1))
		backend.saveErr = &core.APIError{Status: 422, Message: "grades are closed"}
		_, err := gb.Save(ctx, 10)
		require.Error(t, err)
		assert.Equal(t, "grades are closed", gb.Feedback(10).Message(""))
		assert.Equal(t, GradeDraft{AV1: "8", AV2: "6"}, gb.Draft(10))
	})
}
