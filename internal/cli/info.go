package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lcrostarosa/nirbhaya/internal/cli/runner"
)

var locationCmd = &cobra.Command{
	Use:   "location",
	Short: "Show your current location as it would be shared",
	RunE:  builder.Config().Wrap(runLocation),
}

var articlesCmd = &cobra.Command{
	Use:     "articles",
	Aliases: []string{"news"},
	Short:   "Show recent women-safety news",
	RunE:    builder.Config().Wrap(runArticles),
}

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show your past SOS alerts",
	RunE:  builder.Session().Wrap(runAlerts),
}

func init() {
	articlesCmd.Flags().IntP("limit", "n", 10, "Maximum articles to show")
	alertsCmd.Flags().IntP("limit", "n", 20, "Maximum alerts to show")
	rootCmd.AddCommand(locationCmd, articlesCmd, alertsCmd)
}

func runLocation(ctx *runner.CommandContext, cmd *cobra.Command, args []string) error {
	a, err := ctx.App(cmd.Context())
	if err != nil {
		return err
	}
	sample, err := a.Location.Current(cmd.Context())
	if err != nil {
		return err
	}
	printInfo("📍 %s", sample.DisplayText())
	printInfo("   %s", sample.MapsLink())
	if sample.Accuracy > 0 {
		printInfo("   accuracy ±%.0fm", sample.Accuracy)
	}
	return nil
}

func runArticles(ctx *runner.CommandContext, cmd *cobra.Command, args []string) error {
	flags := runner.Flags(cmd)
	limit := flags.Int("limit")
	if err := flags.Err(); err != nil {
		return err
	}

	a, err := ctx.App(cmd.Context())
	if err != nil {
		return err
	}
	fetchCtx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	list := a.Articles.Articles(fetchCtx)
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	printHeader("Safety News")
	for _, art := range list {
		printInfo("• %s", art.Title)
		printInfo("  %s | %s", art.Source.Name, art.PublishedAt)
		if art.URL != "" {
			printInfo("  %s", art.URL)
		}
	}
	return nil
}

func runAlerts(ctx *runner.CommandContext, cmd *cobra.Command, args []string) error {
	flags := runner.Flags(cmd)
	limit := flags.Int("limit")
	if err := flags.Err(); err != nil {
		return err
	}

	a, err := ctx.App(cmd.Context())
	if err != nil {
		return err
	}
	records, err := a.Alerts.List(cmd.Context(), 0)
	if err != nil {
		return err
	}
	user, _ := a.Session.CurrentUser()

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tOUTCOME\tNOTIFIED\tLOCATION")
	shown := 0
	for _, rec := range records {
		if rec.UserID != user.ID {
			continue
		}
		where := "unknown"
		if rec.LocationKnown() {
			where = fmt.Sprintf("%.4f, %.4f", *rec.Latitude, *rec.Longitude)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s\n",
			rec.StartedAt.Local().Format("2006-01-02 15:04"), rec.Outcome, rec.Notified, rec.Attempted, where)
		shown++
		if limit > 0 && shown == limit {
			break
		}
	}
	if shown == 0 {
		printInfo("No SOS alerts recorded.")
		return nil
	}
	return tw.Flush()
}
