package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lcrostarosa/nirbhaya/internal/app"
	"github.com/lcrostarosa/nirbhaya/internal/cli/runner"
	"github.com/lcrostarosa/nirbhaya/internal/sos"
)

var sosCmd = &cobra.Command{
	Use:   "sos",
	Short: "Send an SOS alert to your emergency contacts",
	Long: `Start the SOS countdown. When it reaches zero your location is shared
with every emergency contact. Press Enter or Ctrl+C during the countdown to
cancel.`,
	Example: `  nirbhaya sos
  nirbhaya sos --yes`,
	RunE: builder.Session().Wrap(runSOS),
}

func init() {
	sosCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(sosCmd)
}

func runSOS(ctx *runner.CommandContext, cmd *cobra.Command, args []string) error {
	flags := runner.Flags(cmd)
	skipConfirm := flags.Bool("yes")
	if err := flags.Err(); err != nil {
		return err
	}

	a, err := ctx.App(cmd.Context())
	if err != nil {
		return err
	}

	summary, err := a.Workflow.Open(cmd.Context())
	if err != nil {
		return err
	}
	printSummary(summary)

	if !summary.CanActivate {
		_ = a.Workflow.Close()
		printWarning("No emergency contacts. Add one with: nirbhaya contacts add --emergency ...")
		return nil
	}

	in := bufio.NewReader(stdin)
	if !skipConfirm && !confirm(in, "Send SOS alert now?") {
		_ = a.Workflow.Close()
		printInfo("SOS not sent.")
		return nil
	}

	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	act, err := a.Workflow.Activate(sigCtx)
	if err != nil {
		return err
	}

	go func() {
		if _, err := in.ReadString('\n'); err == nil {
			_ = a.Workflow.Cancel()
		}
	}()

	printInfo("")
	printInfo("🚨 Sending in %d seconds. Press Enter or Ctrl+C to cancel.", summary.CountdownSeconds)
	for n := range act.Countdown() {
		printInfo("   %d...", n)
	}

	res, err := act.Wait(context.Background())
	if err != nil {
		return err
	}
	printResult(res, a)
	return nil
}

func printSummary(s sos.Summary) {
	printHeader("Emergency SOS")
	printInfo("Alert from:  %s", s.UserName)
	printInfo("Platform:    %s", s.Platform)
	printInfo("Channels:    %s", strings.Join(s.Features, ", "))
	printInfo("Countdown:   %ds", s.CountdownSeconds)
	printInfo("")
	printInfo("Emergency contacts (%d):", s.ContactCount)
	for _, c := range s.EmergencyContacts {
		printInfo("  • %s (%s) %s", c.Name, c.Relationship, c.Phone)
	}
	printInfo("")
}

// confirm asks a yes/no question. Anything but y or yes is a no.
func confirm(in *bufio.Reader, question string) bool {
	fmt.Fprintf(stdout, "%s [y/N]: ", question)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func printResult(res sos.Result, a *app.App) {
	printDivider()
	switch res.Outcome {
	case sos.OutcomeCancelled:
		printWarning("SOS cancelled. No one was contacted.")
		return
	case sos.OutcomeNoContacts:
		printWarning("No emergency contacts to notify.")
		return
	case sos.OutcomeFailed:
		printError("SOS failed: %s", res.Error)
		return
	}

	if res.Failed > 0 {
		printWarning("%s", res.Summary)
	} else {
		printSuccess("%s", res.Summary)
	}
	if res.Location != nil {
		printInfo("Location: %s", res.Location.DisplayText())
		printInfo("Map:      %s", res.Location.MapsLink())
	} else {
		printWarning("Location unavailable")
	}
	for _, at := range res.Attempts {
		if at.Delivered {
			printInfo("  ✓ %s", at.ContactName)
		} else {
			printInfo("  ✗ %s: %s", at.ContactName, at.Error)
		}
	}

	if a.Links == nil {
		return
	}
	if links := a.Links.Links(); len(links) > 0 {
		printInfo("")
		printInfo("Open these links to deliver the message:")
		for _, l := range links {
			printInfo("  %s", l)
		}
	}
}
