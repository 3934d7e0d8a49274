package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/Freeeeeet/schedule_registrations/internal/apiclient"
	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"golang.org/x/term"
)

var (
	readPasswordFunc = term.ReadPassword // подменяется в тестах

	errHelp = errors.New("help provided")
)

type commandLine struct {
	client *apiclient.Client
	in     *bufio.Reader
	out    io.Writer
}

func newCommandLine(client *apiclient.Client, in io.Reader, out io.Writer) *commandLine {
	return &commandLine{client: client, in: bufio.NewReader(in), out: out}
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -email EMAIL                      - log in, the password will be prompted")
	fmt.Fprintln(cli.out, "  logout                                  - forget the saved token")
	fmt.Fprintln(cli.out, "  registrations [-status S] [-page N]     - list all registrations")
	fmt.Fprintln(cli.out, "  registrations -schedule ID [-filter F]  - registrations of one schedule with stats")
	fmt.Fprintln(cli.out, "  show ID                                 - registration details and available actions")
	fmt.Fprintln(cli.out, "  approve ID [-notes TEXT]")
	fmt.Fprintln(cli.out, "  reject ID -reason TEXT [-notes TEXT]")
	fmt.Fprintln(cli.out, "  pay ID | free ID                        - mark an approved registration paid or free")
	fmt.Fprintln(cli.out, "  payment-link ID [-link URL]             - send a payment link (generated when empty)")
	fmt.Fprintln(cli.out, "  message ID -text TEXT                   - send a message to the student")
	fmt.Fprintln(cli.out, "  delete-schedule SLUG [-force]")
	fmt.Fprintln(cli.out, "  capacity SCHEDULE_ID")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	cmd, rest := args[1], args[2:]
	switch cmd {
	case "login":
		return cli.login(ctx, rest)
	case "logout":
		if err := cli.client.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(cli.out, "logged out")
		return nil
	case "registrations":
		return cli.registrations(ctx, rest)
	case "show":
		return cli.show(ctx, rest)
	case "approve":
		return cli.approve(ctx, rest)
	case "reject":
		return cli.reject(ctx, rest)
	case "pay":
		return cli.payment(ctx, rest, model.PaymentStatusPaid)
	case "free":
		return cli.payment(ctx, rest, model.PaymentStatusFree)
	case "payment-link":
		return cli.paymentLink(ctx, rest)
	case "message":
		return cli.message(ctx, rest)
	case "delete-schedule":
		return cli.deleteSchedule(ctx, rest)
	case "capacity":
		return cli.capacity(ctx, rest)
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

// parseWithArg разбирает "ARG [flags]" и "[flags] ARG"; лишние аргументы - ошибка
func parseWithArg(fs *flag.FlagSet, args []string) (string, error) {
	var arg string
	var rest []string

	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		if err := fs.Parse(args[1:]); err != nil {
			return "", err
		}
		arg, rest = args[0], fs.Args()
	} else {
		if err := fs.Parse(args); err != nil {
			return "", err
		}
		if fs.NArg() == 0 {
			fs.Usage()
			return "", errHelp
		}
		arg, rest = fs.Arg(0), fs.Args()[1:]
	}

	if len(rest) > 0 {
		fs.Usage()
		return "", fmt.Errorf("unexpected arguments: %s", strings.Join(rest, " "))
	}
	return arg, nil
}

func parseWithID(fs *flag.FlagSet, args []string) (int64, error) {
	raw, err := parseWithArg(fs, args)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func (cli *commandLine) login(ctx context.Context, args []string) error {
	fs := cli.flagSet("login")
	email := fs.String("email", "", "Account email. The password will be prompted next.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		fs.Usage()
		return errHelp
	}

	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return err
	}

	session, err := cli.client.Login(ctx, *email, string(pwd))
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "logged in as %s (%s)\n", session.Admin.Email, session.Admin.Role)
	return nil
}

func (cli *commandLine) registrations(ctx context.Context, args []string) error {
	fs := cli.flagSet("registrations")
	status := fs.String("status", "", "pending, approved or rejected")
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", model.DefaultPageLimit, "page size")
	scheduleID := fs.Int64("schedule", 0, "schedule id")
	filter := fs.String("filter", "all", "all, pending, approved, rejected, paid or unpaid")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *scheduleID > 0 {
		f, ok := model.ParseRegistrationFilter(*filter)
		if !ok {
			return fmt.Errorf("invalid filter %q", *filter)
		}
		result, err := cli.client.ScheduleRegistrations(ctx, *scheduleID, f)
		if err != nil {
			return err
		}
		if result.Schedule != nil {
			fmt.Fprintf(cli.out, "%s\n", result.Schedule.Title)
		}
		s := result.Stats
		fmt.Fprintf(cli.out, "total %d, approved %d, pending %d, rejected %d, paid %d, unpaid %d\n",
			s.Total, s.Approved, s.Pending, s.Rejected, s.Paid, s.Unpaid)
		fmt.Fprintf(cli.out, "enrolled %d of %d (%.0f%%)\n\n", result.Capacity.Enrolled, result.Capacity.Capacity, result.Capacity.Percent)
		cli.printRegistrations(result.Registrations)
		return nil
	}

	result, err := cli.client.ListRegistrations(ctx, model.RegistrationStatus(*status), model.Page{Page: *page, Limit: *limit})
	if err != nil {
		return err
	}
	cli.printRegistrations(result.Registrations)
	fmt.Fprintf(cli.out, "\npage %d of %d, %d total\n", result.Page, result.TotalPages, result.Total)
	return nil
}

func (cli *commandLine) printRegistrations(regs []*model.Registration) {
	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTUDENT\tSCHEDULE\tSTATUS\tPAYMENT")
	for _, reg := range regs {
		student, schedule := "-", "-"
		if reg.User != nil {
			student = reg.User.FullName
		}
		if reg.Schedule != nil {
			schedule = reg.Schedule.Title
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", reg.ID, student, schedule, reg.Status, reg.PaymentStatus)
	}
	w.Flush()
}

func (cli *commandLine) show(ctx context.Context, args []string) error {
	id, err := parseWithID(cli.flagSet("show"), args)
	if err != nil {
		return err
	}
	reg, err := cli.client.GetRegistration(ctx, id)
	if err != nil {
		return err
	}
	cli.printRegistration(reg)
	return nil
}

func (cli *commandLine) printRegistration(reg *apiclient.Registration) {
	fmt.Fprintf(cli.out, "Registration #%d (version %d)\n", reg.ID, reg.Version)
	if reg.User != nil {
		fmt.Fprintf(cli.out, "Student:  %s <%s>\n", reg.User.FullName, reg.User.Email)
	}
	if reg.Schedule != nil {
		fmt.Fprintf(cli.out, "Schedule: %s\n", reg.Schedule.Title)
	}
	if reg.Session != nil {
		fmt.Fprintf(cli.out, "Session:  %s %s\n", reg.Session.StartDate.Format("2006-01-02"), reg.Session.Time)
	}
	fmt.Fprintf(cli.out, "Status:   %s\n", reg.Status)
	fmt.Fprintf(cli.out, "Payment:  %s\n", reg.PaymentStatus)
	if reg.Notes != "" {
		fmt.Fprintf(cli.out, "Notes:    %s\n", reg.Notes)
	}
	actions := make([]string, 0, len(reg.Actions))
	for _, a := range reg.Actions {
		actions = append(actions, string(a))
	}
	fmt.Fprintf(cli.out, "Actions:  %s\n", strings.Join(actions, ", "))
}

// current загружает запись, чтобы проверить переход до отправки изменения
func (cli *commandLine) current(ctx context.Context, id int64) (*model.Registration, error) {
	reg, err := cli.client.GetRegistration(ctx, id)
	if err != nil {
		return nil, err
	}
	return &reg.Registration, nil
}

func (cli *commandLine) approve(ctx context.Context, args []string) error {
	fs := cli.flagSet("approve")
	notes := fs.String("notes", "", "notes for the student")
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}
	return cli.changeStatus(ctx, id, model.StatusChange{To: model.RegistrationStatusApproved, Notes: *notes})
}

func (cli *commandLine) reject(ctx context.Context, args []string) error {
	fs := cli.flagSet("reject")
	reason := fs.String("reason", "", "rejection reason, required")
	notes := fs.String("notes", "", "additional notes")
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}
	change := model.StatusChange{To: model.RegistrationStatusRejected, Notes: *notes, RejectionReason: *reason}

	// причина проверяется до любых запросов
	if strings.TrimSpace(change.RejectionReason) == "" {
		return model.NewValidationError(model.ErrRejectionReasonRequired,
			model.FieldError{Field: "rejectionReason", Error: model.ErrRejectionReasonRequired.Error()})
	}
	return cli.changeStatus(ctx, id, change)
}

func (cli *commandLine) changeStatus(ctx context.Context, id int64, change model.StatusChange) error {
	reg, err := cli.current(ctx, id)
	if err != nil {
		return err
	}
	updated, err := cli.client.UpdateStatus(ctx, reg, change)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "registration #%d is now %s\n", updated.ID, updated.Status)
	return nil
}

func (cli *commandLine) payment(ctx context.Context, args []string, to model.PaymentStatus) error {
	id, err := parseWithID(cli.flagSet(string(to)), args)
	if err != nil {
		return err
	}
	reg, err := cli.current(ctx, id)
	if err != nil {
		return err
	}
	updated, err := cli.client.UpdatePaymentStatus(ctx, reg, to)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "registration #%d payment is now %s\n", updated.ID, updated.PaymentStatus)
	return nil
}

func (cli *commandLine) paymentLink(ctx context.Context, args []string) error {
	fs := cli.flagSet("payment-link")
	link := fs.String("link", "", "payment URL; empty asks the server to generate one")
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}
	reg, err := cli.current(ctx, id)
	if err != nil {
		return err
	}
	updated, err := cli.client.SendPaymentLink(ctx, reg, *link)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "payment link sent: %s\n", updated.PaymentLink)
	return nil
}

func (cli *commandLine) message(ctx context.Context, args []string) error {
	fs := cli.flagSet("message")
	text := fs.String("text", "", "message text")
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}
	if err := cli.client.SendMessage(ctx, id, *text); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "message sent")
	return nil
}

func (cli *commandLine) deleteSchedule(ctx context.Context, args []string) error {
	fs := cli.flagSet("delete-schedule")
	force := fs.Bool("force", false, "delete even if there are registrations")
	slug, err := parseWithArg(fs, args)
	if err != nil {
		return err
	}

	result, err := cli.client.DeleteSchedule(ctx, slug, *force)
	if errors.Is(err, apiclient.ErrRegistrationsConflict) {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) {
			fmt.Fprintln(cli.out, apiErr.Message)
		}
		if !cli.confirm("Delete the schedule with all its registrations and notify the students?") {
			fmt.Fprintln(cli.out, "cancelled")
			return nil
		}
		result, err = cli.client.DeleteSchedule(ctx, slug, true)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "schedule %s deleted, %d students notified\n", slug, result.NotifiedUsers)
	return nil
}

func (cli *commandLine) confirm(question string) bool {
	fmt.Fprintf(cli.out, "%s [y/N]: ", question)
	answer, err := cli.in.ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func (cli *commandLine) capacity(ctx context.Context, args []string) error {
	id, err := parseWithID(cli.flagSet("capacity"), args)
	if err != nil {
		return err
	}
	schedule, err := cli.client.Capacity(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "%s\n", schedule.Title)
	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tSTART\tTIME\tENROLLED\tCAPACITY\tAVAILABLE\tFULL")
	for _, sess := range schedule.Sessions {
		c := model.NewCapacity(0, sess.Capacity)
		if sess.Availability != nil {
			c = *sess.Availability
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%t\n",
			sess.ID, sess.StartDate.Format("2006-01-02"), sess.Time, c.Enrolled, c.Capacity, c.Available, c.IsFull)
	}
	w.Flush()
	if schedule.Capacity != nil {
		fmt.Fprintf(cli.out, "total: %d of %d (%.0f%%)\n", schedule.Capacity.Enrolled, schedule.Capacity.Capacity, schedule.Capacity.Percent)
	}
	return nil
}
