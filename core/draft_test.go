package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDraft struct {
	Name    string `json:"name"`
	CPF     string `json:"cpf" draft:"cpf"`
	Code    string `json:"code" draft:"-"`
	Age     int    `json:"age"`
	private string
}

func TestDraftFields(t *testing.T) {
	assert.Equal(t, []string{"name", "cpf"}, DraftFields(testDraft{}))
	assert.Equal(t, []string{"name", "cpf"}, DraftFields(&testDraft{}))
	assert.Nil(t, DraftFields("nope"))
}

func TestSetField(t *testing.T) {
	var d testDraft
	require.NoError(t, SetField(&d, "name", "Ana"))
	require.NoError(t, SetField(&d, "cpf", "12345678901"))
	assert.Equal(t, "Ana", d.Name)
	assert.Equal(t, "123.456.789-01", d.CPF)

	assert.Error(t, SetField(&d, "code", "X"))
	assert.Error(t, SetField(&d, "age", "3"))
	assert.Error(t, SetField(&d, "missing", "3"))
	assert.Error(t, SetField(d, "name", "Ana"))

	got, ok := GetField(d, "cpf")
	assert.True(t, ok)
	assert.Equal(t, "123.456.789-01", got)
	_, ok = GetField(&d, "age")
	assert.False(t, ok)
	assert.Empty(t, d.private)
}
