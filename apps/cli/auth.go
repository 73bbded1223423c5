package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/edunet/core"
	"github.com/trezcool/edunet/core/account"
)

func (cli *commandLine) login(ctx context.Context, args []string) error {
	fs := cli.flagSet("login")
	email := fs.String("email", "", "The account email. The password will be prompted next.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *email == "" {
		fs.Usage()
		return errHelp
	}

	pwd, err := cli.promptPassword("Password")
	if err != nil {
		return err
	}
	p, err := cli.auth.Login(ctx, account.Credentials{Email: *email, Password: pwd})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "logged in as %s <%s>\n", p.Name, p.Email)
	return nil
}

func (cli *commandLine) logout() error {
	if err := cli.auth.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "logged out")
	return nil
}

// whoami shows the profile read from the stored token, without a request.
func (cli *commandLine) whoami() error {
	if err := cli.requireSession(); err != nil {
		return err
	}
	p, ok := cli.session.Profile()
	if !ok {
		fmt.Fprintln(cli.out, "logged in")
		return nil
	}
	fmt.Fprintf(cli.out, "%s <%s>", p.Name, p.Email)
	if len(p.Roles) > 0 {
		fmt.Fprintf(cli.out, " [%s]", strings.Join(p.Roles, ", "))
	}
	fmt.Fprintln(cli.out)
	return nil
}

func (cli *commandLine) register(ctx context.Context, args []string) error {
	fs := cli.flagSet("register")
	var su account.SignUp
	fields := bindDraftFlags(fs, su.RegistrationDraft)
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := applyDraftFlags(fs, fields, func(name, value string) error {
		return core.SetField(&su.RegistrationDraft, name, value)
	}); err != nil {
		return err
	}

	var err error
	if su.Password, err = cli.promptPassword("Password"); err != nil {
		return err
	}
	if su.ConfirmPassword, err = cli.promptPassword("Confirm password"); err != nil {
		return err
	}

	reg, err := cli.auth.Register(ctx, su)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "registered %s <%s> (#%d), you can now log in\n", reg.Name, reg.Email, reg.ID)
	return nil
}

func (cli *commandLine) profile(ctx context.Context, args []string) error {
	sub, args, err := cli.subcommand(args, "profile show|edit [-FIELD VALUE ...]|password")
	if err != nil {
		return err
	}
	if err = cli.requireSession(); err != nil {
		return err
	}
	if _, err = cli.editor.Load(ctx); err != nil {
		return err
	}

	switch sub {
	case "show":
		return cli.showProfile()
	case "edit":
		fs := cli.flagSet("profile edit")
		fields := bindDraftFlags(fs, account.ProfileDraft{})
		if err = parse(fs, args); err != nil {
			return err
		}
		if err = applyDraftFlags(fs, fields, cli.editor.SetField); err != nil {
			return err
		}
		p, err := cli.editor.Save(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "profile of %s updated\n", p.Name)
		return nil
	case "password":
		var pc account.PasswordChange
		if pc.CurrentPassword, err = cli.promptPassword("Current password"); err != nil {
			return err
		}
		if pc.NewPassword, err = cli.promptPassword("New password"); err != nil {
			return err
		}
		if pc.ConfirmPassword, err = cli.promptPassword("Confirm new password"); err != nil {
			return err
		}
		if err = cli.editor.ChangePassword(ctx, pc); err != nil {
			return err
		}
		fmt.Fprintln(cli.out, "password changed")
		return nil
	default:
		return errors.Errorf("%q: no such profile command", sub)
	}
}

func (cli *commandLine) showProfile() error {
	p := cli.editor.Profile()
	d := p.Draft()
	tw := newTable(cli.out)
	tw.row("Name", d.Name)
	tw.row("Email", d.Email)
	tw.row("Birth date", d.BirthDate)
	tw.row("CPF", d.CPF)
	tw.row("Theme", d.Theme)
	tw.row("Roles", strings.Join(p.Roles, ", "))
	tw.row("Description", d.Description)
	return tw.flush()
}
