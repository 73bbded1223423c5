package fakeapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/edunet/core/edu"
)

func (api *API) registerEduAPI(g *echo.Group, jwtAuth echo.MiddlewareFunc) {
	units := g.Group("/education-units", jwtAuth)
	units.GET("", api.listUnits)
	units.POST("", api.createUnit)
	units.PUT("/:id", api.updateUnit)
	units.DELETE("/:id", api.deleteUnit)

	classes := g.Group("/education-classes", jwtAuth)
	classes.GET("", api.listClasses)
	classes.POST("", api.createClass)
	classes.PUT("/:id", api.updateClass)
	classes.DELETE("/:id", api.deleteClass)
	classes.GET("/:id/grades", api.classGrades)
	classes.PUT("/:id/grades/:studentId", api.saveGrades)

	students := g.Group("/education-students", jwtAuth)
	students.GET("", api.listStudents)
	students.POST("", api.createStudent)
	students.PUT("/:id", api.updateStudent)
	students.DELETE("/:id", api.deleteStudent)
	students.POST("/:id/enrollments", api.enroll)
	students.DELETE("/:id/enrollments/:classId", api.unenroll)
}

// Units

func (api *API) listUnits(ctx echo.Context) error {
	api.db.mu.Lock()
	defer api.db.mu.Unlock()
	return ctx.JSON(http.StatusOK, append(make([]edu.Unit, 0, len(api.db.units)), api.db.units...))
}

func (api *API) createUnit(ctx echo.Context) error {
	var data edu.UnitPayload
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	if strings.TrimSpace(data.Name) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	db := api.db
	db.mu.Lock()
	defer db.mu.Unlock()
	unit := edu.Unit{ID: db.nextID(), CreatedAt: now()}
	applyUnit(&unit, data)
	db.units = append(db.units, unit)
	return ctx.JSON(http.StatusCreated, unit)
}

func (api *API) updateUnit(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data edu.UnitPayload
	if err = bindJSON(ctx, &data); err != nil {
		return err
	}
	db := api.db
	db.mu.Lock()
	defer db.mu.Unlock()
	for i := range db.units {
		if db.units[i].ID == id {
			applyUnit(&db.units[i], data)
			db.units[i].UpdatedAt = updatedNow()
			return ctx.JSON(http.StatusOK, db.units[i])
		}
	}
	return errNotFound("education unit")
}

func (api *API) deleteUnit(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	db := api.db
	db.mu.Lock()
	defer db.mu.Unlock()
	for i, u := range db.units {
		if u.ID == id {
			db.units = append(db.units[:i], db.units[i+1:]...)
			return ctx.NoContent(http.StatusNoContent)
		}
	}
	return errNotFound("education unit")
}

func applyUnit(u *edu.Unit, data edu.UnitPayload) {
	u.Name = data.Name
	u.Code = data.Code
	u.City = data.City
	u.State = data.State
	u.Description = data.Description
}

// Classes

func (api *API) listClasses(ctx echo.Context) error {
	api.db.mu.Lock()
	defer api.db.mu.Unlock()
	return ctx.JSON(http.StatusOK, append(make([]edu.Class, 0, len(api.db.classes)), api.db.classes...))
}

func (api *API) createClass(ctx echo.Context) error {
	var data edu.ClassPayload
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	db := api.db
	db.mu.Lock()
	defer db.mu.Unlock()
	class := edu.Class{ID: db.nextID(), CreatedAt: now()}
	if err := db.applyClass(&class, data); err != nil {
		db.lastID--
		return err
	}
	db.classes = append(db.classes, class)
	return ctx.JSON(http.StatusCreated, class)
}

func (api *API) updateClass(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data edu.ClassPayload
	if err = bindJSON(ctx, &data); err != nil {
		return err
	}
	db := api.db
	db.mu.Lock()
	defer db.mu.Unlock()
	for i := range db.classes {
		if db.classes[i].ID == id {
			class := db.classes[i]
			if err = db.applyClass(&class, data); err != nil {
				return err
			}
			class.UpdatedAt = updatedNow()
			db.classes[i] = class
			return ctx.JSON(http.StatusOK, class)
		}
	}
	return errNotFound("education class")
}

func (api *API) deleteClass(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	db := api.db
	db.mu.Lock()
	defer db.mu.Unlock()
	for i, c := range db.classes {
		if c.ID == id {
			db.classes = append(db.classes[:i], db.classes[i+1:]...)
			return ctx.NoContent(http.StatusNoContent)
		}
	}
	return errNotFound("education class")
}

func (db *database) applyClass(c *edu.Class, data edu.ClassPayload) error {
	if strings.TrimSpace(data.Name) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	if data.Capacity <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "capacity must be positive")
	}
	unit, ok := db.unit(data.EducationUnitID)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "education unit does not exist")
	}
	c.EducationUnitID = unit.ID
	c.EducationUnitName = unit.Name
	c.Name = data.Name
	c.Code = data.Code
	c.AcademicYear = data.AcademicYear
	c.StartDate = data.StartDate
	c.EndDate = data.EndDate
	// the API answers with the display field only
	c.ScheduledTime = data.ScheduleTime
	c.Capacity = data.Capacity
	c.Description = data.Description
	return nil
}

// Students

func (api *API) listStudents(ctx echo.Context) error {
	api.db.mu.Lock()
	defer api.db.mu.Unlock()
	return ctx.JSON(http.StatusOK, append(make([]edu.Student, 0, len(api.db.students)), api.db.students...))
}

func (api *API) createStudent(ctx echo.Context) error {
	var data edu.StudentPayload
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	if strings.TrimSpace(data.Name) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	db := api.db
	db.mu.Lock()
	defer db.mu.Unlock()
	student := edu.Student{ID: db.nextID(), Enrollments: []edu.Enrollment{}, CreatedAt: now()}
	applyStudent(&student, data)
	db.students = append(db.students, student)
	return ctx.JSON(http.StatusCreated, student)
}

func (api *API) updateStudent(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data edu.StudentPayload
	if err = bindJSON(ctx, &data); err != nil {
		return err
	}
	db := api.db
	db.mu.Lock()
	defer db.mu.Unlock()
	if i := db.studentIndex(id); i >= 0 {
		applyStudent(&db.students[i], data)
		db.students[i].UpdatedAt = updatedNow()
		return ctx.JSON(http.StatusOK, db.students[i])
	}
	return errNotFound("student")
}

func (api *API) deleteStudent(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	db := api.db
	db.mu.Lock()
	defer db.mu.Unlock()
	if i := db.studentIndex(id); i >= 0 {
		db.students = append(db.students[:i], db.students[i+1:]...)
		return ctx.NoContent(http.StatusNoContent)
	}
	return errNotFound("student")
}

func applyStudent(s *edu.Student, data edu.StudentPayload) {
	s.Name = data.Name
	s.RegistrationCode = data.RegistrationCode
	s.CPF = data.CPF
	s.BirthDate = data.BirthDate
	s.GuardianName = data.GuardianName
	s.GuardianContact = data.GuardianContact
	s.Notes = data.Notes
}

// Enrollments

func (api *API) enroll(ctx echo.Context) error {
	studentID, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data edu.EnrollmentPayload
	if err = bindJSON(ctx, &data); err != nil {
		return err
	}

	db := api.db
	db.mu.Lock()
	defer db.mu.Unlock()
	i := db.studentIndex(studentID)
	if i < 0 {
		return errNotFound("student")
	}
	class, ok := db.class(data.EducationClassID)
	if !ok {
		return errNotFound("education class")
	}
	if _, ok = db.students[i].EnrolledIn(data.EducationClassID); ok {
		return echo.NewHTTPError(http.StatusConflict, "student is already enrolled in this class")
	}
	enrollment := edu.Enrollment{EducationClassID: class.ID, EducationClassName: class.Name, CreatedAt: now()}
	db.students[i].Enrollments = append(db.students[i].Enrollments, enrollment)
	return ctx.JSON(http.StatusCreated, enrollment)
}

func (api *API) unenroll(ctx echo.Context) error {
	studentID, err := pathID(ctx)
	if err != nil {
		return err
	}
	classID, err := pathID(ctx, "classId")
	if err != nil {
		return err
	}

	db := api.db
	db.mu.Lock()
	defer db.mu.Unlock()
	i := db.studentIndex(studentID)
	if i < 0 {
		return errNotFound("student")
	}
	enrollments := db.students[i].Enrollments
	for j, e := range enrollments {
		if e.EducationClassID == classID {
			db.students[i].Enrollments = append(enrollments[:j:j], enrollments[j+1:]...)
			return ctx.NoContent(http.StatusNoContent)
		}
	}
	return errNotFound("enrollment")
}

// Grades

func (api *API) classGrades(ctx echo.Context) error {
	classID, err := pathID(ctx)
	if err != nil {
		return err
	}
	db := api.db
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.class(classID); !ok {
		return errNotFound("education class")
	}
	return ctx.JSON(http.StatusOK, db.classGrades(classID))
}

func (api *API) saveGrades(ctx echo.Context) error {
	classID, err := pathID(ctx)
	if err != nil {
		return err
	}
	studentID, err := pathID(ctx, "studentId")
	if err != nil {
		return err
	}
	var data edu.GradePayload
	if err = bindJSON(ctx, &data); err != nil {
		return err
	}
	for _, v := range []*float64{data.AV1, data.AV2, data.AV3} {
		if v != nil && (*v < 0 || *v > 10) {
			return echo.NewHTTPError(http.StatusBadRequest, "grades must be between 0 and 10")
		}
	}

	db := api.db
	db.mu.Lock()
	defer db.mu.Unlock()
	i := db.studentIndex(studentID)
	if i < 0 {
		return errNotFound("student")
	}
	if _, ok := db.students[i].EnrolledIn(classID); !ok {
		return errNotFound("enrollment")
	}
	db.grades[gradeKey{classID, studentID}] = gradeRecord{GradePayload: data, updatedAt: now()}
	return ctx.JSON(http.StatusOK, db.gradeEntry(classID, db.students[i]))
}
