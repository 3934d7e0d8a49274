package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"golang.org/x/term"
)

var (
	readPasswordFunc = term.ReadPassword // подменяется в тестах

	errHelp = errors.New("help provided")
)

type migrator interface {
	Up(ctx context.Context) error
	Down(ctx context.Context) error
	Status(ctx context.Context) error
	Version(ctx context.Context) (int64, error)
}

type adminCreator interface {
	CreateAdmin(ctx context.Context, admin *model.Admin, password string) error
}

type commandLine struct {
	migrator migrator
	admins   adminCreator
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate [up|status|down]                              - manage database schema")
	fmt.Fprintln(cli.out, "  adduser -email EMAIL -name NAME -role admin|tutor [-tutor-id ID] - create or update a panel account")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		return cli.migrate(ctx, args[2:])
	case "adduser":
		return cli.addUser(ctx, args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) migrate(ctx context.Context, args []string) error {
	command := "up"
	if len(args) > 0 {
		command = args[0]
	}

	switch command {
	case "up":
		return cli.migrator.Up(ctx)
	case "down":
		return cli.migrator.Down(ctx)
	case "status":
		if err := cli.migrator.Status(ctx); err != nil {
			return err
		}
		version, err := cli.migrator.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "current version: %d\n", version)
		return nil
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) addUser(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(cli.out)
	email := fs.String("email", "", "Account email. The password will be prompted next.")
	name := fs.String("name", "", "Full name")
	role := fs.String("role", string(model.RoleAdmin), "admin or tutor")
	tutorID := fs.Int64("tutor-id", 0, "Tutor id, required for tutor accounts")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*email) == "" {
		fs.Usage()
		return errHelp
	}

	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return errHelp
	}

	admin := &model.Admin{
		Email:    strings.ToLower(strings.TrimSpace(*email)),
		FullName: strings.TrimSpace(*name),
		Role:     model.Role(*role),
	}
	if *tutorID > 0 {
		admin.TutorID = tutorID
	}

	if err := cli.admins.CreateAdmin(ctx, admin, string(pwd)); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "account %s (%s) saved\n", admin.Email, admin.Role)
	return nil
}
