package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/edunet/core"
)

func (cli *commandLine) enrollments(ctx context.Context, args []string) error {
	sub, args, err := cli.subcommand(args, "enrollments list [-class ID]|add -student ID -class ID|rm -student ID -class ID [-yes]")
	if err != nil {
		return err
	}
	if err = cli.requireSession(); err != nil {
		return err
	}

	fs := cli.flagSet("enrollments " + sub)
	classFlag := fs.String("class", "", "The class ID.")
	var studentFlag *string
	var yes *bool
	switch sub {
	case "list":
	case "add", "rm":
		studentFlag = fs.String("student", "", "The student ID.")
		if sub == "rm" {
			yes = fs.Bool("yes", false, "Do not ask for confirmation.")
		}
	default:
		return errors.Errorf("%q: no such enrollments command", sub)
	}
	if err = parse(fs, args); err != nil {
		return err
	}

	// the board reads both collections
	if err = cli.classes.Refresh(ctx); err != nil {
		return err
	}
	if err = cli.students.Refresh(ctx); err != nil {
		return err
	}

	if sub == "list" {
		var classID core.ID
		if *classFlag != "" {
			if classID, err = parseIDFlag("class", *classFlag); err != nil {
				return err
			}
		}
		return cli.listEnrollments(classID)
	}

	classID, err := parseIDFlag("class", *classFlag)
	if err != nil {
		return err
	}
	studentID, err := parseIDFlag("student", *studentFlag)
	if err != nil {
		return err
	}
	class, ok := cli.classes.Get(classID)
	if !ok {
		return &core.NotFoundError{Message: fmt.Sprintf("no class with ID %d", classID)}
	}
	name := fmt.Sprintf("student %d", studentID)
	if s, ok := cli.students.Get(studentID); ok {
		name = s.Name
	}

	if sub == "add" {
		if err = cli.board.Enroll(ctx, studentID, classID); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "enrolled %s in %s\n", name, class.Name)
		return nil
	}

	if !*yes {
		ok, err := cli.Confirm(fmt.Sprintf("Remove %s from %s?", name, class.Name))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cli.out, "cancelled")
			return nil
		}
	}
	if err = cli.board.Unenroll(ctx, studentID, classID); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "removed %s from %s\n", name, class.Name)
	return nil
}

// listEnrollments prints, per class, the enrolled students and how many can still join.
func (cli *commandLine) listEnrollments(classID core.ID) error {
	rows := cli.board.Rows()
	shown := 0
	for _, row := range rows {
		if classID != 0 && row.Class.ID != classID {
			continue
		}
		shown++
		fmt.Fprintf(cli.out, "%s (ID %d, %s) %d/%d\n",
			row.Class.Name, row.Class.ID, orDash(row.Class.EducationUnitName), len(row.Enrolled), row.Class.Capacity)

		tw := newTable(cli.out)
		for _, es := range row.Enrolled {
			tw.row("  "+es.Student.ID.String(), es.Student.Name, "since "+es.Enrollment.CreatedAt.Format(core.DateLayout))
		}
		if err := tw.flush(); err != nil {
			return err
		}
		if len(row.Available) > 0 {
			names := make([]string, 0, len(row.Available))
			for _, s := range row.Available {
				names = append(names, fmt.Sprintf("%s (%d)", s.Name, s.ID))
			}
			fmt.Fprintf(cli.out, "  available: %s\n", strings.Join(names, ", "))
		}
	}
	if shown == 0 {
		if classID != 0 {
			return &core.NotFoundError{Message: fmt.Sprintf("no class with ID %d", classID)}
		}
		fmt.Fprintln(cli.out, "no classes found")
	}
	return nil
}
