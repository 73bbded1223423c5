package fakeapi

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/edunet/core"
	"github.com/trezcool/edunet/core/account"
	"github.com/trezcool/edunet/core/edu"
)

type (
	user struct {
		profile      account.Profile
		passwordHash []byte
	}

	gradeKey struct {
		classID, studentID core.ID
	}

	gradeRecord struct {
		edu.GradePayload
		updatedAt time.Time
	}

	database struct {
		mu            sync.Mutex
		lastID        core.ID
		users         map[string]*user // by lowercase email
		registrations []account.Registration
		units         []edu.Unit
		classes       []edu.Class
		students      []edu.Student
		grades        map[gradeKey]gradeRecord
	}
)

func newDatabase() *database {
	return &database{
		users:  make(map[string]*user),
		grades: make(map[gradeKey]gradeRecord),
	}
}

func (db *database) nextID() core.ID {
	db.lastID++
	return db.lastID
}

func (db *database) userBySubject(sub string) (*user, bool) {
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, false
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, usr := range db.users {
		if int64(usr.profile.ID) == id {
			return usr, true
		}
	}
	return nil, false
}

// AddUser creates an account that can log in.
func (api *API) AddUser(name, email, password string, roles ...string) account.Profile {
	db := api.db
	db.mu.Lock()
	defer db.mu.Unlock()
	if roles == nil {
		roles = []string{}
	}
	usr := &user{
		profile: account.Profile{
			ID:    db.nextID(),
			Name:  name,
			Email: strings.ToLower(email),
			Theme: account.ThemeDark,
			Roles: roles,
		},
	}
	usr.setPassword(password)
	db.users[usr.profile.Email] = usr
	return usr.profile
}

// AddUnit seeds an education unit.
func (api *API) AddUnit(name, code string) edu.Unit {
	db := api.db
	db.mu.Lock()
	defer db.mu.Unlock()
	unit := edu.Unit{ID: db.nextID(), Name: name, Code: code, CreatedAt: now()}
	db.units = append(db.units, unit)
	return unit
}

// AddClass seeds a class of the given unit.
func (api *API) AddClass(unitID core.ID, name string, capacity int) edu.Class {
	db := api.db
	db.mu.Lock()
	defer db.mu.Unlock()
	class := edu.Class{
		ID:              db.nextID(),
		EducationUnitID: unitID,
		Name:            name,
		Capacity:        capacity,
		CreatedAt:       now(),
	}
	if unit, ok := db.unit(unitID); ok {
		class.EducationUnitName = unit.Name
	}
	db.classes = append(db.classes, class)
	return class
}

// AddStudent seeds a student enrolled in the given classes.
func (api *API) AddStudent(name string, classIDs ...core.ID) edu.Student {
	db := api.db
	db.mu.Lock()
	defer db.mu.Unlock()
	student := edu.Student{ID: db.nextID(), Name: name, Enrollments: []edu.Enrollment{}, CreatedAt: now()}
	for _, id := range classIDs {
		e := edu.Enrollment{EducationClassID: id, CreatedAt: now()}
		if class, ok := db.class(id); ok {
			e.EducationClassName = class.Name
		}
		student.Enrollments = append(student.Enrollments, e)
	}
	db.students = append(db.students, student)
	return student
}

// Students returns a snapshot of the student table.
func (api *API) Students() []edu.Student {
	api.db.mu.Lock()
	defer api.db.mu.Unlock()
	return append([]edu.Student(nil), api.db.students...)
}

// Units returns a snapshot of the unit table.
func (api *API) Units() []edu.Unit {
	api.db.mu.Lock()
	defer api.db.mu.Unlock()
	return append([]edu.Unit(nil), api.db.units...)
}

// Grades returns the stored grades of a student in a class.
func (api *API) Grades(classID, studentID core.ID) (edu.GradePayload, bool) {
	api.db.mu.Lock()
	defer api.db.mu.Unlock()
	g, ok := api.db.grades[gradeKey{classID, studentID}]
	return g.GradePayload, ok
}

// CheckPassword reports whether pwd is the current password of the account.
func (api *API) CheckPassword(email, pwd string) bool {
	api.db.mu.Lock()
	defer api.db.mu.Unlock()
	usr, ok := api.db.users[strings.ToLower(email)]
	return ok && usr.checkPassword(pwd)
}

func (usr *user) setPassword(pwd string) {
	// MinCost keeps the tests fast
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	usr.passwordHash = hash
}

func (usr *user) checkPassword(pwd string) bool {
	return bcrypt.CompareHashAndPassword(usr.passwordHash, []byte(pwd)) == nil
}

// the following helpers expect db.mu to be held

func (db *database) unit(id core.ID) (edu.Unit, bool) {
	for _, u := range db.units {
		if u.ID == id {
			return u, true
		}
	}
	return edu.Unit{}, false
}

func (db *database) class(id core.ID) (edu.Class, bool) {
	for _, c := range db.classes {
		if c.ID == id {
			return c, true
		}
	}
	return edu.Class{}, false
}

func (db *database) studentIndex(id core.ID) int {
	for i, s := range db.students {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (db *database) gradeEntry(classID core.ID, student edu.Student) edu.GradeEntry {
	g, ok := db.grades[gradeKey{classID, student.ID}]
	entry := edu.GradeEntry{StudentID: student.ID, StudentName: student.Name, AV1: g.AV1, AV2: g.AV2, AV3: g.AV3}
	if ok {
		entry.UpdatedAt = &g.updatedAt
	}
	var raws []string
	for _, v := range []*float64{g.AV1, g.AV2, g.AV3} {
		raws = append(raws, core.FormatGrade(v))
	}
	entry.Average = core.CalculateAverage(raws...)
	return entry
}

func (db *database) classGrades(classID core.ID) []edu.GradeEntry {
	entries := make([]edu.GradeEntry, 0)
	for _, s := range db.students {
		if _, ok := s.EnrolledIn(classID); ok {
			entries = append(entries, db.gradeEntry(classID, s))
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].StudentName < entries[j].StudentName })
	return entries
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

func updatedNow() *time.Time {
	t := now()
	return &t
}
