package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/edunet/core"
	"github.com/trezcool/edunet/core/account"
)

func TestRollbarLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewRollbarLogger(log.New(&buf, "", 0), &core.Config{Env: "TEST", TestMode: true})

	usr := account.Profile{ID: 7, Name: "Ana", Email: "ana@edu.test"}
	l.Error("deleting education-unit 3", errors.New("boom"), usr)
	l.Info("session expired")

	out := buf.String()
	assert.Contains(t, out, "ERROR: deleting education-unit 3\n")
	assert.Contains(t, out, "  boom\n")
	assert.Contains(t, out, "  user: Ana <ana@edu.test>\n")
	assert.Contains(t, out, "INFO: session expired\n")
}

func TestRollbarLogger_prepare(t *testing.T) {
	l := RollbarLogger{std: log.New(&bytes.Buffer{}, "", 0)}
	l.Enable(false)

	args := l.prepare("msg", []interface{}{account.Profile{ID: 1}, "extra", account.Profile{ID: 2}})
	assert.Equal(t, []interface{}{"msg", "extra"}, args)
}
