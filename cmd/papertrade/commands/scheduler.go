package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/papertrade/internal/scheduler"
	"github.com/wonny/papertrade/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage the scheduler",
	Long: `Starts the scheduler or inspects its jobs.

Subcommands:
  start   - start the scheduler daemon
  list    - list registered jobs
  run     - run a job immediately and wait for it

Example:
  go run ./cmd/papertrade scheduler start
  go run ./cmd/papertrade scheduler list
  go run ./cmd/papertrade scheduler run engine_run`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		Long: `Starts the scheduler and schedules every registered job.

Registered jobs:
- engine_run: SCHEDULER_ENGINE_CRON (default weekdays 16:30), rebalances every strategy

A tick that fires while the previous run is still going is skipped.
The scheduler stops on Ctrl+C after the running job finishes.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// initScheduler registers every job against a. Nothing is started.
func initScheduler(a *app) (*scheduler.Scheduler, error) {
	opts := scheduler.DefaultOptions()
	opts.MaxRetries = a.cfg.Scheduler.MaxRetries

	sched := scheduler.New(a.log, opts)

	job := jobs.NewEngineRunJob(a.engine, a.cfg.Scheduler.EngineCron, a.cfg.Engine.RunTimeout, a.log)
	if err := sched.AddJob(job); err != nil {
		return nil, fmt.Errorf("add job: %w", err)
	}
	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== papertrade Scheduler ===")

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		next, _ := sched.NextRun(jobName)
		fmt.Printf("  - %s (next: %s)\n", jobName, next.Format("2006-01-02 15:04:05"))
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Println("Registered jobs:")
	for name, stat := range sched.GetJobStats() {
		fmt.Printf("  - %s (%s)\n", name, stat.Schedule)
	}

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Printf("Running job: %s\n", jobName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := sched.RunJob(ctx, jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	if !result.Success {
		fmt.Printf("❌ %s failed after %d attempt(s) in %.2fs: %s\n", jobName, result.Attempts, result.Duration.Seconds(), result.Error)
		return fmt.Errorf("job %s failed", jobName)
	}
	fmt.Printf("✅ %s completed in %.2fs\n", jobName, result.Duration.Seconds())
	return nil
}
