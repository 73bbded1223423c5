package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/edunet/core"
	"github.com/trezcool/edunet/core/edu"
)

func (cli *commandLine) gradebook(ctx context.Context, args []string) error {
	sub, args, err := cli.subcommand(args, "grades show -class ID|set -class ID -student ID [-av1 N] [-av2 N] [-av3 N]")
	if err != nil {
		return err
	}
	if err = cli.requireSession(); err != nil {
		return err
	}

	fs := cli.flagSet("grades " + sub)
	classFlag := fs.String("class", "", "The class ID.")
	var studentFlag *string
	var fields []string
	switch sub {
	case "show":
	case "set":
		studentFlag = fs.String("student", "", "The student ID.")
		fields = bindDraftFlags(fs, edu.GradeDraft{})
	default:
		return errors.Errorf("%q: no such grades command", sub)
	}
	if err = parse(fs, args); err != nil {
		return err
	}
	classID, err := parseIDFlag("class", *classFlag)
	if err != nil {
		return err
	}
	if err = cli.grades.Select(ctx, classID); err != nil {
		return err
	}

	if sub == "show" {
		return cli.showGrades()
	}

	studentID, err := parseIDFlag("student", *studentFlag)
	if err != nil {
		return err
	}
	if !cli.inGradebook(studentID) {
		return &core.NotFoundError{Message: fmt.Sprintf("student %d is not enrolled in class %d", studentID, classID)}
	}
	if err = applyDraftFlags(fs, fields, func(slot, value string) error {
		return cli.grades.SetGrade(studentID, slot, value)
	}); err != nil {
		return err
	}
	entry, err := cli.grades.Save(ctx, studentID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "grades of %s saved, average %s\n", entry.StudentName, orDash(core.FormatGrade(entry.Average)))
	return nil
}

func (cli *commandLine) inGradebook(studentID core.ID) bool {
	for _, e := range cli.grades.Entries() {
		if e.StudentID == studentID {
			return true
		}
	}
	return false
}

func (cli *commandLine) showGrades() error {
	entries := cli.grades.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(cli.out, "no students enrolled in this class")
		return nil
	}
	tw := newTable(cli.out)
	tw.row("ID", "STUDENT", "AV1", "AV2", "AV3", "AVERAGE", "UPDATED")
	for _, e := range entries {
		d := cli.grades.Draft(e.StudentID)
		tw.row(
			e.StudentID.String(),
			e.StudentName,
			orDash(d.AV1),
			orDash(d.AV2),
			orDash(d.AV3),
			orDash(core.FormatGrade(cli.grades.Average(e.StudentID))),
			updatedAt(e.UpdatedAt),
		)
	}
	return tw.flush()
}

func updatedAt(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}
