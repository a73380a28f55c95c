package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lcrostarosa/nirbhaya/internal/cli/runner"
	"github.com/lcrostarosa/nirbhaya/internal/contacts"
	"github.com/lcrostarosa/nirbhaya/internal/export"
)

var contactsCmd = &cobra.Command{
	Use:     "contacts",
	Aliases: []string{"contact"},
	Short:   "Manage trusted contacts",
}

var contactsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trusted contacts",
	RunE:  builder.Session().Wrap(runContactsList),
}

var contactsAddCmd = &cobra.Command{
	Use:     "add",
	Short:   "Add a trusted contact",
	Example: `  nirbhaya contacts add --name "Meera" --phone "+91 90000 00001" --relationship Sister --emergency`,
	RunE:    builder.Session().Wrap(runContactsAdd),
}

var contactsUpdateCmd = &cobra.Command{
	Use:     "update <id>",
	Short:   "Change a trusted contact",
	Example: `  nirbhaya contacts update 1718000000000 --emergency=false`,
	Args:    cobra.ExactArgs(1),
	RunE:    builder.Session().Wrap(runContactsUpdate),
}

var contactsDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Remove a trusted contact",
	Args:    cobra.ExactArgs(1),
	RunE:    builder.Session().Wrap(runContactsDelete),
}

var contactsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write contacts to an Excel workbook",
	RunE:  builder.Session().Wrap(runContactsExport),
}

func init() {
	f := contactsListCmd.Flags()
	f.Bool("emergency", false, "Only show emergency contacts")

	f = contactsAddCmd.Flags()
	f.String("name", "", "Contact name")
	f.String("phone", "", "Phone number")
	f.String("relationship", "", "Relationship, e.g. Mother")
	f.Bool("emergency", false, "Notify this contact on SOS")
	_ = contactsAddCmd.MarkFlagRequired("name")
	_ = contactsAddCmd.MarkFlagRequired("phone")
	_ = contactsAddCmd.MarkFlagRequired("relationship")

	f = contactsUpdateCmd.Flags()
	f.String("name", "", "Contact name")
	f.String("phone", "", "Phone number")
	f.String("relationship", "", "Relationship")
	f.Bool("emergency", false, "Notify this contact on SOS")

	contactsExportCmd.Flags().StringP("out", "o", "trusted-contacts.xlsx", "Output file")

	contactsCmd.AddCommand(contactsListCmd, contactsAddCmd, contactsUpdateCmd, contactsDeleteCmd, contactsExportCmd)
	rootCmd.AddCommand(contactsCmd)
}

func runContactsList(ctx *runner.CommandContext, cmd *cobra.Command, args []string) error {
	flags := runner.Flags(cmd)
	emergencyOnly := flags.Bool("emergency")
	if err := flags.Err(); err != nil {
		return err
	}

	a, err := ctx.App(cmd.Context())
	if err != nil {
		return err
	}
	list := a.Contacts.List()
	if emergencyOnly {
		list = a.Contacts.EmergencyOnly()
	}
	if len(list) == 0 {
		printInfo("No contacts yet. Add one with: nirbhaya contacts add --name <name> --phone <phone> --relationship <rel>")
		return nil
	}

	printHeader(fmt.Sprintf("Trusted Contacts (%d)", len(list)))
	printContacts(list)
	return nil
}

func printContacts(list []contacts.TrustedContact) {
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPHONE\tRELATIONSHIP\tSOS")
	for _, c := range list {
		sos := ""
		if c.IsEmergency {
			sos = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Phone, c.Relationship, sos)
	}
	_ = tw.Flush()
}

func runContactsAdd(ctx *runner.CommandContext, cmd *cobra.Command, args []string) error {
	flags := runner.Flags(cmd)
	in := contacts.NewContact{
		Name:         flags.String("name"),
		Phone:        flags.String("phone"),
		Relationship: flags.String("relationship"),
		IsEmergency:  flags.Bool("emergency"),
	}
	if err := flags.Err(); err != nil {
		return err
	}

	a, err := ctx.App(cmd.Context())
	if err != nil {
		return err
	}
	c, err := a.Contacts.Add(cmd.Context(), in)
	if err != nil {
		return err
	}
	printSuccess("Added %s (id %s)", c.Name, c.ID)
	if !c.IsEmergency {
		printInfo("Tip: pass --emergency to include this contact in SOS alerts.")
	}
	return nil
}

func runContactsUpdate(ctx *runner.CommandContext, cmd *cobra.Command, args []string) error {
	flags := runner.Flags(cmd)
	patch := contacts.Patch{
		Name:         flags.OptionalString("name"),
		Phone:        flags.OptionalString("phone"),
		Relationship: flags.OptionalString("relationship"),
		IsEmergency:  flags.OptionalBool("emergency"),
	}
	if err := flags.Err(); err != nil {
		return err
	}

	a, err := ctx.App(cmd.Context())
	if err != nil {
		return err
	}
	c, err := a.Contacts.Update(cmd.Context(), args[0], patch)
	if err != nil {
		return err
	}
	printSuccess("Updated %s", c.Name)
	return nil
}

func runContactsDelete(ctx *runner.CommandContext, cmd *cobra.Command, args []string) error {
	a, err := ctx.App(cmd.Context())
	if err != nil {
		return err
	}
	if err := a.Contacts.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	printSuccess("Removed contact %s", args[0])
	return nil
}

func runContactsExport(ctx *runner.CommandContext, cmd *cobra.Command, args []string) (err error) {
	flags := runner.Flags(cmd)
	out := flags.String("out")
	if err := flags.Err(); err != nil {
		return err
	}

	a, err := ctx.App(cmd.Context())
	if err != nil {
		return err
	}
	list := a.Contacts.List()

	f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := export.ContactsXLSX(f, list); err != nil {
		return err
	}
	printSuccess("Exported %d contacts to %s", len(list), out)
	return nil
}
