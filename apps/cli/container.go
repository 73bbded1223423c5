package main

import (
	"log"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/dig"

	"github.com/trezcool/edunet/core"
	"github.com/trezcool/edunet/core/account"
	"github.com/trezcool/edunet/core/edu"
	"github.com/trezcool/edunet/core/resource"
	"github.com/trezcool/edunet/core/session"
	logsvc "github.com/trezcool/edunet/services/logger"
	"github.com/trezcool/edunet/services/restapi"
	"github.com/trezcool/edunet/storage/tokenstore"
)

type (
	unitStore         = resource.Store[edu.Unit, edu.UnitDraft, edu.UnitPayload]
	classStore        = resource.Store[edu.Class, edu.ClassDraft, edu.ClassPayload]
	studentStore      = resource.Store[edu.Student, edu.StudentDraft, edu.StudentPayload]
	registrationStore = resource.Store[account.Registration, account.RegistrationDraft, account.RegistrationPayload]
)

// Stores are the entity collections, one per REST collection.
type Stores struct {
	dig.Out
	Units         *unitStore
	Classes       *classStore
	Students      *studentStore
	Registrations *registrationStore
}

type cliParams struct {
	dig.In
	Logger        core.Logger
	Session       *session.Session
	Auth          *session.Service
	Editor        *account.Editor
	Units         *unitStore
	Classes       *classStore
	Students      *studentStore
	Registrations *registrationStore
	Board         *edu.EnrollmentBoard
	Grades        *edu.Gradebook
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stderr, "EDUNET : ", log.LstdFlags)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newValidator() *core.Validator {
	v := core.NewValidator()
	account.InitValidators(v)
	edu.InitValidators(v)
	return v
}

func newFileTokenStore(conf *core.Config) session.TokenStore {
	return tokenstore.NewFileStore(conf.TokenFile, conf.SecretKey)
}

// newSession restores the persisted session. An unreadable token file logs the user out.
func newSession(store session.TokenStore, logger core.Logger) *session.Session {
	sess := session.New(store, logger)
	if err := sess.Restore(); err != nil {
		logger.Warn("restoring session", err)
	}
	return sess
}

func newClient(conf *core.Config, sess *session.Session, v *core.Validator, logger core.Logger) *restapi.Client {
	return restapi.NewClient(conf.API, sess, v, logger)
}

func newAuthService(sess *session.Session, c *restapi.Client, v *core.Validator, logger core.Logger) *session.Service {
	return session.NewService(sess, c, v, logger)
}

func newEditor(c *restapi.Client, sess *session.Session, v *core.Validator, logger core.Logger) *account.Editor {
	return account.NewEditor(c, sess, v, logger)
}

func newStores(c *restapi.Client, sess *session.Session, v *core.Validator, logger core.Logger) Stores {
	return Stores{
		Units:         resource.NewStore[edu.Unit, edu.UnitDraft, edu.UnitPayload](edu.NewUnitSchema(v), c.Units(), sess, logger),
		Classes:       resource.NewStore[edu.Class, edu.ClassDraft, edu.ClassPayload](edu.NewClassSchema(v), c.Classes(), sess, logger),
		Students:      resource.NewStore[edu.Student, edu.StudentDraft, edu.StudentPayload](edu.NewStudentSchema(v), c.Students(), sess, logger),
		Registrations: resource.NewStore[account.Registration, account.RegistrationDraft, account.RegistrationPayload](account.NewRegistrationSchema(v), c.Registrations(), sess, logger),
	}
}

func newEnrollmentBoard(classes *classStore, students *studentStore, c *restapi.Client, sess *session.Session, logger core.Logger) *edu.EnrollmentBoard {
	return edu.NewEnrollmentBoard(classes, students, c, sess, logger)
}

func newGradebook(c *restapi.Client, sess *session.Session, v *core.Validator, logger core.Logger) *edu.Gradebook {
	return edu.NewGradebook(c, sess, v, logger)
}

func newCommandLine(p cliParams) *commandLine {
	return &commandLine{
		in:            os.Stdin,
		out:           os.Stdout,
		log:           p.Logger,
		session:       p.Session,
		auth:          p.Auth,
		editor:        p.Editor,
		units:         p.Units,
		classes:       p.Classes,
		students:      p.Students,
		registrations: p.Registrations,
		board:         p.Board,
		grades:        p.Grades,
	}
}

// newContainer wires the application. The config and the token store are parameters so tests
// can point the CLI at a fake server and keep the token in memory.
func newContainer(newConfig func() *core.Config, newTokenStore func(*core.Config) session.TokenStore) *dig.Container {
	c := dig.New()

	must(c.Provide(newConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newValidator))
	must(c.Provide(newTokenStore))
	must(c.Provide(newSession))
	must(c.Provide(newClient))
	must(c.Provide(newAuthService))
	must(c.Provide(newEditor))
	must(c.Provide(newStores))
	must(c.Provide(newEnrollmentBoard))
	must(c.Provide(newGradebook))
	must(c.Provide(newCommandLine))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
