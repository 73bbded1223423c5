package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/trezcool/edunet/core"
)

type table struct {
	tw *tabwriter.Writer
}

func newTable(w io.Writer) *table {
	return &table{tw: tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)}
}

func (t *table) row(cells ...string) {
	fmt.Fprintln(t.tw, strings.Join(cells, "\t"))
}

func (t *table) flush() error {
	return errors.Wrap(t.tw.Flush(), "writing table")
}

// describe renders err for the terminal: the user message plus one line per invalid field.
func describe(err error) string {
	msg := core.UserMessage(err, err.Error())
	var vErr *core.ValidationError
	if !errors.As(err, &vErr) || len(vErr.Fields) < 2 {
		return msg
	}
	var b strings.Builder
	b.WriteString(msg)
	for _, fe := range vErr.Fields[1:] {
		b.WriteString("\n  ")
		b.WriteString(fe.Error)
	}
	return b.String()
}

// bindDraftFlags declares one string flag per editable field of draft and returns their names.
func bindDraftFlags(fs *flag.FlagSet, draft interface{}) []string {
	fields := core.DraftFields(draft)
	for _, name := range fields {
		fs.String(name, "", "sets "+name)
	}
	return fields
}

// applyDraftFlags passes the draft fields given on the command line to set.
func applyDraftFlags(fs *flag.FlagSet, fields []string, set func(name, value string) error) error {
	var err error
	fs.Visit(func(f *flag.Flag) {
		if err != nil || !contains(fields, f.Name) {
			return
		}
		err = set(f.Name, f.Value.String())
	})
	return err
}

func contains(list []string, s string) bool {
	for _, it := range list {
		if it == s {
			return true
		}
	}
	return false
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
