package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/edunet/core"
	"github.com/trezcool/edunet/core/account"
	"github.com/trezcool/edunet/core/edu"
	"github.com/trezcool/edunet/core/session"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	in  io.Reader
	out io.Writer
	log core.Logger

	session       *session.Session
	auth          *session.Service
	editor        *account.Editor
	units         *unitStore
	classes       *classStore
	students      *studentStore
	registrations *registrationStore
	board         *edu.EnrollmentBoard
	grades        *edu.Gradebook

	lines *bufio.Reader
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -email EMAIL                         - log in (the password is prompted)")
	fmt.Fprintln(cli.out, "  logout                                     - forget the stored session")
	fmt.Fprintln(cli.out, "  whoami                                     - show the logged in user")
	fmt.Fprintln(cli.out, "  register -name NAME -email EMAIL [...]     - sign up (the password is prompted)")
	fmt.Fprintln(cli.out, "  profile show|edit|password                 - view or change your profile")
	fmt.Fprintln(cli.out, "  units|classes|students|registrations list|add|edit|rm")
	fmt.Fprintln(cli.out, "                                             - manage a collection")
	fmt.Fprintln(cli.out, "  enrollments list|add|rm                    - link students to classes")
	fmt.Fprintln(cli.out, "  grades show|set -class ID                  - view or enter the grades of a class")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	ctx := context.Background()
	cmd, rest := args[1], args[2:]
	switch cmd {
	case "login":
		return cli.login(ctx, rest)
	case "logout":
		return cli.logout()
	case "whoami":
		return cli.whoami()
	case "register":
		return cli.register(ctx, rest)
	case "profile":
		return cli.profile(ctx, rest)
	case "units":
		return runResource(ctx, cli, rest, cli.unitsCmd())
	case "classes":
		return runResource(ctx, cli, rest, cli.classesCmd())
	case "students":
		return runResource(ctx, cli, rest, cli.studentsCmd())
	case "registrations":
		return runResource(ctx, cli, rest, cli.registrationsCmd())
	case "enrollments":
		return cli.enrollments(ctx, rest)
	case "grades":
		return cli.gradebook(ctx, rest)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// parse parses args into fs; -h and parse failures print the usage and give errHelp.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	return nil
}

// subcommand splits "list -search x" into "list" and its flags.
func (cli *commandLine) subcommand(args []string, usage string) (string, []string, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		fmt.Fprintln(cli.out, "Usage:", usage)
		return "", nil, errHelp
	}
	return args[0], args[1:], nil
}

func (cli *commandLine) promptPassword(label string) (string, error) {
	fmt.Fprint(cli.out, label+":")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	return string(pwd), nil
}

// Confirm asks a yes/no question on the terminal.
func (cli *commandLine) Confirm(prompt string) (bool, error) {
	if cli.lines == nil {
		cli.lines = bufio.NewReader(cli.in)
	}
	fmt.Fprint(cli.out, prompt+" [y/N] ")
	answer, err := cli.lines.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, errors.Wrap(err, "reading answer")
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

type autoConfirm struct{}

func (autoConfirm) Confirm(string) (bool, error) { return true, nil }

// requireSession fails fast when no one is logged in.
func (cli *commandLine) requireSession() error {
	if !cli.session.Authenticated() {
		return core.NewAuthError("not logged in, run: edunet login -email EMAIL")
	}
	return nil
}

func parseIDFlag(name, value string) (core.ID, error) {
	if value == "" {
		return 0, core.NewValidationError(errors.Errorf("-%s is required", name))
	}
	id, err := core.ParseID(value)
	if err != nil {
		return 0, core.NewValidationError(errors.Errorf("-%s must be a positive integer", name))
	}
	return id, nil
}
