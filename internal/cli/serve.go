package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lcrostarosa/nirbhaya/internal/api"
	"github.com/lcrostarosa/nirbhaya/internal/app"
	"github.com/lcrostarosa/nirbhaya/internal/cli/runner"
	"github.com/lcrostarosa/nirbhaya/internal/logging"
	"github.com/lcrostarosa/nirbhaya/internal/middleware"
	"github.com/lcrostarosa/nirbhaya/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Start the HTTP API used by the mobile and web front ends.

Safety news is refreshed in the background on the configured schedule.`,
	Example: `  # Start server on the default port (8090)
  nirbhaya serve

  # Start server on a custom port
  nirbhaya serve --addr :8080`,
	RunE: builder.Config().Wrap(runServe),
}

func init() {
	f := serveCmd.Flags()
	f.StringP("addr", "a", "", "Listen address (default: :8090 or NIRBHAYA_PORT)")
	f.String("schedule", "", "Override the news refresh schedule for this session")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx *runner.CommandContext, cmd *cobra.Command, args []string) error {
	flags := runner.Flags(cmd)
	addr := flags.String("addr")
	schedule := flags.String("schedule")
	if err := flags.Err(); err != nil {
		return err
	}
	if addr == "" {
		addr = ctx.Config.ListenAddr
	}
	if schedule == "" {
		schedule = ctx.Config.News.Schedule
	}

	a, err := ctx.App(cmd.Context())
	if err != nil {
		return err
	}

	limits := middleware.DefaultRateLimitConfig()
	if rps := ctx.Config.RequestsPerSecond; rps > 0 {
		limits.RequestsPerSecond = rps
		limits.BurstSize = int(rps * 2)
	}

	server, err := api.NewServer(api.Deps{
		Session:  a.Session,
		Contacts: a.Contacts,
		Workflow: a.Workflow,
		Location: a.Location,
		Articles: a.Articles,
		Alerts:   a.Alerts,
		Toasts:   a.Toasts,
	}, addr, &api.ServerOptions{RateLimit: limits, Logger: logging.L()})
	if err != nil {
		return err
	}

	printServerInfo(addr)
	sched := setupScheduler(a, schedule)
	return runServer(cmd.Context(), server, sched)
}

func printServerInfo(addr string) {
	logging.Info("Nirbhaya server starting", logging.String("api", "http://localhost"+addr))
	printInfo("Nirbhaya API listening on http://localhost%s", addr)
	printInfo("")
	printInfo("Endpoints available:")
	printInfo("  GET  /health                   - Health check")
	printInfo("  GET  /api/session              - Signed-in profile")
	printInfo("  GET  /api/contacts             - Trusted contacts")
	printInfo("  GET  /api/contacts/export      - Contacts as .xlsx")
	printInfo("  POST /api/sos/open             - Show SOS confirmation")
	printInfo("  POST /api/sos/activate         - Start the SOS countdown")
	printInfo("  POST /api/sos/cancel           - Cancel the countdown")
	printInfo("  GET  /api/location             - Current location")
	printInfo("  GET  /api/articles             - Safety news")
}

func setupScheduler(a *app.App, expr string) *scheduler.Scheduler {
	if expr == "" || expr == "off" {
		return nil
	}
	parsed, err := scheduler.ParseSchedule(expr)
	if err != nil {
		logging.Warn("Invalid news schedule", logging.String("schedule", expr), logging.Err(err))
		return nil
	}

	sched := scheduler.NewScheduler("news-refresh", parsed, a.Articles.Refresh, scheduler.DefaultRetryStrategy(), logging.L())
	logging.Info("News refresh enabled",
		logging.String("schedule", expr),
		logging.String("nextRun", parsed.NextRun(time.Now()).Format("2006-01-02 15:04:05")))
	sched.Start()
	return sched
}

func runServer(parent context.Context, server *api.Server, sched *scheduler.Scheduler) error {
	printInfo("Press Ctrl+C to stop")

	sigCtx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-sigCtx.Done():
	}
	logging.Info("Shutting down...")

	if sched != nil {
		sched.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil && serveErr == nil {
		serveErr = err
	}

	logging.Info("Server stopped")
	return serveErr
}
