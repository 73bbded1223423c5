package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestOperation(t *testing.T) {
	var idle Operation[int]
	assert.True(t, idle.IsIdle())
	assert.Equal(t, "idle", idle.State().String())
	assert.NoError(t, idle.Err())

	pending := Begin[int]()
	assert.True(t, pending.IsPending())
	_, ok := pending.Value()
	assert.False(t, ok)

	done := Succeed(42)
	v, ok := done.Value()
	assert.True(t, ok)
	assert.Equal(t, 42, v)
	assert.Equal(t, OpSucceeded, done.State())
	assert.Equal(t, "", done.Message("fallback"))

	failErr := &APIError{Status: 500, Message: "boom"}
	failed := Fail[int](failErr)
	assert.Equal(t, "failed", failed.State().String())
	assert.Equal(t, failErr, failed.Err())
	assert.Equal(t, "boom", failed.Message("fallback"))

	assert.Equal(t, "fallback", Fail[int](errors.New("raw")).Message("fallback"))
}
