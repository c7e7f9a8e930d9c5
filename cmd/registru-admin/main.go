// Command registru-admin runs back office maintenance tasks from a shell.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"registru/internal/audit"
	"registru/internal/charts"
	"registru/internal/cli"
	"registru/internal/config"
	"registru/internal/core"
	"registru/internal/log"
	"registru/internal/services"
)

const usage = `usage: registru-admin <command> [flags]

commands:
  useradd  -login <login> -password <password> [-type admin|client]
  allocate
  export   -system <name>
  report   [-budgets] [-chart file.png] [period]
  audit
`

// errUsage marks command-line mistakes; they exit with status 2 like
// validation errors.
var errUsage = errors.New("invalid usage")

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentAdmin)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	ctx, stop := cli.SignalContext(logger)
	defer stop()
	ctx = audit.WithActor(ctx, "admin-cli")

	b, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		cli.Fatal(logger, "Failed to open backend", err)
	}

	err = run(ctx, b.Registry, os.Args[1], os.Args[2:], os.Stdout)
	if cerr := b.Cleanup(); cerr != nil {
		logger.Error("Error during cleanup", "error", cerr)
	}
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp), core.IsValidationError(err):
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
}

func run(ctx context.Context, reg *services.Registry, cmd string, args []string, out io.Writer) error {
	switch cmd {
	case "useradd":
		return userAdd(ctx, reg, args, out)
	case "allocate":
		return allocate(ctx, reg, out)
	case "export":
		return export(ctx, reg, args, out)
	case "report":
		return printReport(ctx, reg, args, out)
	case "audit":
		return printAudit(ctx, reg, out)
	default:
		return fmt.Errorf("%w: unknown command %q\n%s", errUsage, cmd, usage)
	}
}

func userAdd(ctx context.Context, reg *services.Registry, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("useradd", flag.ContinueOnError)
	login := fs.String("login", "", "login name")
	password := fs.String("password", "", "initial password")
	accountType := fs.String("type", "client", "account type (admin grants full access)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *login == "" || *password == "" {
		return fmt.Errorf("%w: -login and -password are required", errUsage)
	}

	u, err := reg.CreateUser(ctx, *login, *password, *accountType)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "created user %s (%s, %s)\n", u.Login, u.ID, u.AccountType)
	return nil
}

func allocate(ctx context.Context, reg *services.Registry, out io.Writer) error {
	res, err := reg.RunAllocation(ctx)
	if err != nil {
		return err
	}
	for _, item := range res.Items {
		if item.Err != nil {
			fmt.Fprintf(out, "%s %s -> %s: %v\n", item.TransactionID, item.RuleID, item.CostCenter, item.Err)
		}
	}
	fmt.Fprintf(out, "inserted %d, skipped %d, failed %d\n", res.Inserted, res.SkippedDuplicate, res.Failed)
	return nil
}

func export(ctx context.Context, reg *services.Registry, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	system := fs.String("system", "", "accounting system: "+strings.Join(core.ExportSystems, ", "))
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := reg.RunExport(ctx, *system)
	if err != nil {
		return err
	}
	for _, item := range res.Items {
		if item.Err != nil {
			fmt.Fprintf(out, "%s: %v\n", item.TransactionID, item.Err)
		}
	}
	fmt.Fprintf(out, "exported %d to %s, failed %d\n", res.Exported, res.System, res.Failed)
	return nil
}

func printReport(ctx context.Context, reg *services.Registry, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	budgets := fs.Bool("budgets", false, "print budgets by cost center instead of income/expense")
	chartPath := fs.String("chart", "", "also write the income/expense chart to this PNG file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	period := fs.Arg(0)

	var (
		lines []string
		err   error
	)
	if *budgets {
		lines, err = reg.Reports().BudgetsByCenter(ctx)
	} else {
		lines, err = reg.Reports().IncomeExpense(ctx, period)
	}
	if err != nil {
		return err
	}
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}

	if *chartPath == "" {
		return nil
	}
	totals, p, err := reg.Reports().Totals(ctx, period)
	if err != nil {
		return err
	}
	png, err := charts.IncomeExpenseBars(fmt.Sprintf("Income vs Expense (%s)", periodTitle(p)), totals)
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	if err := os.WriteFile(*chartPath, png, 0644); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	fmt.Fprintf(out, "chart written to %s\n", *chartPath)
	return nil
}

func printAudit(ctx context.Context, reg *services.Registry, out io.Writer) error {
	entries, err := reg.RecentAudit(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s  %-10s  %-13s  %s\n", e.At.Format("2006-01-02 15:04:05"), e.Action, e.UserID, e.Description)
	}
	return nil
}

func periodTitle(p core.Period) string {
	if p.AllTime() {
		return "all time"
	}
	return p.Label
}
