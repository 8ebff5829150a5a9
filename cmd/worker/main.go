package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/app"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/config"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/bonus"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/jobrun"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timeclock-backend-go/internal/pkg/jwt"
)

const usage = `usage: worker <command> [flags]

commands:
  cycle                                   close the open payroll period if it has ended
  accrue                                  credit this week's vacation accrual
  initial-balances                        seed every employee's initial vacation balance
  bonus -month YYYY-MM                    generate the bonus report of a month
  repair -employee ID -start D -end D     clean an employee's clockings
  open-period -start YYYY-MM-DD           open the first payroll period
  token -sub ID [-employee ID] [-admin]   issue an access token`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Args[1], os.Args[2:]); err != nil {
		slog.Error("Command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, command string, args []string) error {
	fs := flag.NewFlagSet(command, flag.ExitOnError)

	// token needs no database
	if command == "token" {
		sub := fs.String("sub", "", "token subject")
		employeeID := fs.String("employee", "", "employee bound to the token")
		admin := fs.Bool("admin", false, "grant admin access")
		fs.Parse(args)
		if *sub == "" {
			return fmt.Errorf("-sub is required")
		}
		var emp *string
		if *employeeID != "" {
			emp = employeeID
		}
		token, _, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration).GenerateAccessToken(*sub, emp, *admin)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	}

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	if err := db.ApplySchema(ctx); err != nil {
		return err
	}

	services, err := app.NewServices(cfg, db)
	if err != nil {
		return err
	}
	jobs, scheduler := services.Jobs(cfg.Cron.CheckInterval)
	jobs.RegisterManualJobs(scheduler)

	switch command {
	case "cycle":
		fs.Parse(args)
		return scheduler.Run(ctx, jobrun.JobPayrollCycle)

	case "accrue":
		fs.Parse(args)
		return scheduler.Run(ctx, jobrun.JobVacationAccrual)

	case "initial-balances":
		fs.Parse(args)
		return scheduler.Run(ctx, jobrun.JobInitialBalances)

	case "bonus":
		monthStr := fs.String("month", "", "month to evaluate, YYYY-MM")
		fs.Parse(args)
		month, err := bonus.ParseMonth(*monthStr)
		if err != nil {
			return err
		}
		if err := jobs.GenerateBonusReport(ctx, month); err != nil {
			return err
		}
		report, err := services.Bonus.GetReport(ctx, month)
		if err != nil {
			return err
		}
		return printJSON(report)

	case "repair":
		employeeID := fs.String("employee", "", "employee id")
		startStr := fs.String("start", "", "first date, YYYY-MM-DD")
		endStr := fs.String("end", "", "last date, YYYY-MM-DD")
		fs.Parse(args)
		start, err := calendar.ParseDate(*startStr)
		if err != nil {
			return err
		}
		end, err := calendar.ParseDate(*endStr)
		if err != nil {
			return err
		}
		report, err := jobs.RepairAttendance(ctx, *employeeID, start, end)
		if err != nil {
			return err
		}
		return printJSON(report)

	case "open-period":
		startStr := fs.String("start", "", "first day of the period, YYYY-MM-DD")
		fs.Parse(args)
		start, err := calendar.ParseDate(*startStr)
		if err != nil {
			return err
		}
		period, err := services.Payroll.OpenInitialPeriod(ctx, start)
		if err != nil {
			return err
		}
		return printJSON(payroll.ToPeriodResponse(period))
	}

	fmt.Fprintln(os.Stderr, usage)
	return fmt.Errorf("unknown command %q", command)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
