package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/trezcool/edunet/core"
	"github.com/trezcool/edunet/core/account"
	"github.com/trezcool/edunet/core/edu"
	"github.com/trezcool/edunet/core/listing"
	"github.com/trezcool/edunet/core/resource"
)

// resourceCmd describes how one collection is listed and edited from the command line.
type resourceCmd[R, D, P any] struct {
	name    string
	noun    string
	store   *resource.Store[R, D, P]
	matcher listing.Matcher[R]
	header  []string
	row     func(R) []string
	id      func(R) core.ID
	label   func(R) string
	// suggest proposes a value for a field the user left out on add, e.g. the next sequential code
	suggest func(items []R) (field, value string)
}

func runResource[R, D, P any](ctx context.Context, cli *commandLine, args []string, rc resourceCmd[R, D, P]) error {
	sub, args, err := cli.subcommand(args, rc.name+" list|add|edit|rm [flags]")
	if err != nil {
		return err
	}
	if err = cli.requireSession(); err != nil {
		return err
	}

	switch sub {
	case "list":
		return listResource(ctx, cli, args, rc)
	case "add":
		return saveResource(ctx, cli, args, rc, false)
	case "edit":
		return saveResource(ctx, cli, args, rc, true)
	case "rm":
		return removeResource(ctx, cli, args, rc)
	default:
		return errors.Errorf("%q: no such %s command", sub, rc.name)
	}
}

func listResource[R, D, P any](ctx context.Context, cli *commandLine, args []string, rc resourceCmd[R, D, P]) error {
	fs := cli.flagSet(rc.name + " list")
	search := fs.String("search", "", "Filter by text (case and accent insensitive) or ID digits.")
	page := fs.Int("page", 1, "The page to show.")
	size := fs.Int("size", listing.DefaultPageSize, fmt.Sprintf("The page size, one of %v.", listing.PageSizes))
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := rc.store.Refresh(ctx); err != nil {
		return err
	}

	pager := listing.NewPager()
	pager.Search(*search)
	pager.SetPageSize(*size)
	pager.Goto(*page)
	res := listing.Apply(rc.store.Items(), pager.Query(), rc.matcher)

	if res.Total == 0 {
		fmt.Fprintf(cli.out, "no %s found\n", rc.name)
		return nil
	}
	tw := newTable(cli.out)
	tw.row(append([]string{"ID"}, rc.header...)...)
	for _, it := range res.Items {
		tw.row(append([]string{rc.id(it).String()}, rc.row(it)...)...)
	}
	if err := tw.flush(); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "page %d of %d (%d %s)\n", res.Page, res.TotalPages, res.Total, rc.name)
	return nil
}

func saveResource[R, D, P any](ctx context.Context, cli *commandLine, args []string, rc resourceCmd[R, D, P], edit bool) error {
	name := rc.name + " add"
	if edit {
		name = rc.name + " edit"
	}
	fs := cli.flagSet(name)
	var idFlag *string
	if edit {
		idFlag = fs.String("id", "", "The ID of the "+rc.noun+" to edit.")
	}
	fields := bindDraftFlags(fs, rc.store.Draft())
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := rc.store.Refresh(ctx); err != nil {
		return err
	}

	rc.store.ResetForm()
	if edit {
		id, err := parseIDFlag("id", *idFlag)
		if err != nil {
			return err
		}
		rec, ok := rc.store.Get(id)
		if !ok {
			return &core.NotFoundError{Message: fmt.Sprintf("no %s with ID %d", rc.noun, id)}
		}
		rc.store.StartEditing(rec)
	} else if rc.suggest != nil {
		if field, value := rc.suggest(rc.store.Items()); !isSet(fs, field) {
			if err := rc.store.SetField(field, value); err != nil {
				return err
			}
		}
	}
	if err := applyDraftFlags(fs, fields, rc.store.SetField); err != nil {
		return err
	}

	rec, err := rc.store.Save(ctx)
	if err != nil {
		return err
	}
	verb := "created"
	if edit {
		verb = "updated"
	}
	fmt.Fprintf(cli.out, "%s %s %s (ID %d)\n", verb, rc.noun, rc.label(rec), rc.id(rec))
	return nil
}

func removeResource[R, D, P any](ctx context.Context, cli *commandLine, args []string, rc resourceCmd[R, D, P]) error {
	fs := cli.flagSet(rc.name + " rm")
	idFlag := fs.String("id", "", "The ID of the "+rc.noun+" to delete.")
	yes := fs.Bool("yes", false, "Do not ask for confirmation.")
	if err := parse(fs, args); err != nil {
		return err
	}
	id, err := parseIDFlag("id", *idFlag)
	if err != nil {
		return err
	}
	if err = rc.store.Refresh(ctx); err != nil {
		return err
	}

	label := fmt.Sprintf("%s %d", rc.noun, id)
	if rec, ok := rc.store.Get(id); ok {
		label = fmt.Sprintf("%s %s", rc.noun, rc.label(rec))
	}
	var confirmer listing.Confirmer = cli
	if *yes {
		confirmer = autoConfirm{}
	}
	removed, err := listing.ConfirmRemove(ctx, confirmer, rc.store, id, label)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Fprintln(cli.out, "cancelled")
		return nil
	}
	fmt.Fprintf(cli.out, "deleted %s\n", label)
	return nil
}

func isSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func (cli *commandLine) unitsCmd() resourceCmd[edu.Unit, edu.UnitDraft, edu.UnitPayload] {
	return resourceCmd[edu.Unit, edu.UnitDraft, edu.UnitPayload]{
		name:    "units",
		noun:    "unit",
		store:   cli.units,
		matcher: listing.Matcher[edu.Unit]{Text: edu.UnitText},
		header:  []string{"CODE", "NAME", "CITY", "STATE"},
		row: func(u edu.Unit) []string {
			return []string{orDash(u.Code), u.Name, orDash(core.StringValue(u.City)), orDash(core.StringValue(u.State))}
		},
		id:    func(u edu.Unit) core.ID { return u.ID },
		label: func(u edu.Unit) string { return strconv.Quote(u.Name) },
		suggest: func(units []edu.Unit) (string, string) {
			codes := make([]string, 0, len(units))
			for _, u := range units {
				codes = append(codes, u.Code)
			}
			return "code", edu.NextCode(codes)
		},
	}
}

func (cli *commandLine) classesCmd() resourceCmd[edu.Class, edu.ClassDraft, edu.ClassPayload] {
	return resourceCmd[edu.Class, edu.ClassDraft, edu.ClassPayload]{
		name:    "classes",
		noun:    "class",
		store:   cli.classes,
		matcher: listing.Matcher[edu.Class]{Text: edu.ClassText},
		header:  []string{"CODE", "NAME", "UNIT", "YEAR", "SCHEDULE", "CAPACITY"},
		row: func(c edu.Class) []string {
			return []string{
				orDash(core.StringValue(c.Code)),
				c.Name,
				orDash(c.EducationUnitName),
				orDash(core.StringValue(c.AcademicYear)),
				orDash(c.Schedule()),
				strconv.Itoa(c.Capacity),
			}
		},
		id:    func(c edu.Class) core.ID { return c.ID },
		label: func(c edu.Class) string { return strconv.Quote(c.Name) },
		suggest: func(classes []edu.Class) (string, string) {
			return "code", edu.NextClassCode(classes)
		},
	}
}

func (cli *commandLine) studentsCmd() resourceCmd[edu.Student, edu.StudentDraft, edu.StudentPayload] {
	return resourceCmd[edu.Student, edu.StudentDraft, edu.StudentPayload]{
		name:    "students",
		noun:    "student",
		store:   cli.students,
		matcher: listing.Matcher[edu.Student]{Text: edu.StudentText, Digits: edu.StudentDigits},
		header:  []string{"REG. CODE", "NAME", "CPF", "BIRTH DATE", "CLASSES"},
		row: func(s edu.Student) []string {
			return []string{
				orDash(core.StringValue(s.RegistrationCode)),
				s.Name,
				orDash(core.FormatIDForDisplay(core.StringValue(s.CPF))),
				orDash(core.StringValue(s.BirthDate)),
				strconv.Itoa(len(s.Enrollments)),
			}
		},
		id:    func(s edu.Student) core.ID { return s.ID },
		label: func(s edu.Student) string { return strconv.Quote(s.Name) },
		suggest: func(students []edu.Student) (string, string) {
			return "registrationCode", edu.NextRegistrationCode(students)
		},
	}
}

func (cli *commandLine) registrationsCmd() resourceCmd[account.Registration, account.RegistrationDraft, account.RegistrationPayload] {
	return resourceCmd[account.Registration, account.RegistrationDraft, account.RegistrationPayload]{
		name:  "registrations",
		noun:  "registration",
		store: cli.registrations,
		matcher: listing.Matcher[account.Registration]{
			Text:   account.RegistrationText,
			Digits: account.RegistrationDigits,
		},
		header: []string{"NAME", "EMAIL", "CPF", "BIRTH DATE", "REGISTERED"},
		row: func(r account.Registration) []string {
			return []string{
				r.Name,
				r.Email,
				orDash(core.FormatIDForDisplay(core.StringValue(r.CPF))),
				orDash(core.StringValue(r.BirthDate)),
				r.CreatedAt.Format(core.DateLayout),
			}
		},
		id:    func(r account.Registration) core.ID { return r.ID },
		label: func(r account.Registration) string { return strconv.Quote(r.Name) },
	}
}
