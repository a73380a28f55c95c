package cli

import (
	"github.com/spf13/cobra"

	"github.com/lcrostarosa/nirbhaya/internal/cli/runner"
	"github.com/lcrostarosa/nirbhaya/internal/session"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with your profile",
	Long: `Store your profile as the signed-in user. The name is shown in every
SOS message; phone and blood group are included when set.`,
	Example: `  nirbhaya login --name "Asha Rao" --phone "+91 98765 43210" --blood-group O+`,
	RunE:    builder.Config().Wrap(runLogin),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and erase your contacts",
	RunE:  builder.Config().Wrap(runLogout),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in profile",
	RunE:  builder.Session().Wrap(runWhoami),
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage your profile",
}

var profileUpdateCmd = &cobra.Command{
	Use:     "update",
	Short:   "Change profile fields",
	Example: `  nirbhaya profile update --blood-group A-`,
	RunE:    builder.Session().Wrap(runProfileUpdate),
}

func addProfileFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("name", "", "Full name")
	f.String("email", "", "Email address")
	f.String("phone", "", "Phone number")
	f.String("blood-group", "", "Blood group, e.g. O+")
	f.String("dob", "", "Date of birth (YYYY-MM-DD)")
	f.String("image", "", "Profile image URL")
}

func init() {
	addProfileFlags(loginCmd)
	loginCmd.Flags().String("id", "", "User id (generated when empty)")
	_ = loginCmd.MarkFlagRequired("name")

	addProfileFlags(profileUpdateCmd)
	profileCmd.AddCommand(profileUpdateCmd)

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, profileCmd)
}

func runLogin(ctx *runner.CommandContext, cmd *cobra.Command, args []string) error {
	flags := runner.Flags(cmd)
	profile := session.UserProfile{
		ID:           flags.String("id"),
		Name:         flags.String("name"),
		Email:        flags.String("email"),
		Phone:        flags.String("phone"),
		BloodGroup:   flags.String("blood-group"),
		DateOfBirth:  flags.String("dob"),
		ProfileImage: flags.String("image"),
	}
	if err := flags.Err(); err != nil {
		return err
	}

	a, err := ctx.App(cmd.Context())
	if err != nil {
		return err
	}
	user, err := a.Session.Login(cmd.Context(), profile)
	if err != nil {
		return err
	}
	printSuccess("Signed in as %s", user.Name)
	return nil
}

func runLogout(ctx *runner.CommandContext, cmd *cobra.Command, args []string) error {
	a, err := ctx.App(cmd.Context())
	if err != nil {
		return err
	}
	if !a.Session.IsAuthenticated() {
		printInfo("Not signed in.")
		return nil
	}
	if err := a.Session.Logout(cmd.Context()); err != nil {
		return err
	}
	printSuccess("Signed out. Contacts were removed from this device.")
	return nil
}

func runWhoami(ctx *runner.CommandContext, cmd *cobra.Command, args []string) error {
	a, err := ctx.App(cmd.Context())
	if err != nil {
		return err
	}
	user, _ := a.Session.CurrentUser()
	printProfile(user)
	return nil
}

func printProfile(u session.UserProfile) {
	printHeader("Profile")
	printInfo("Name:        %s", u.Name)
	printInfo("Email:       %s", orDash(u.Email))
	printInfo("Phone:       %s", orDash(u.Phone))
	printInfo("Blood group: %s", orDash(u.BloodGroup))
	printInfo("Born:        %s", orDash(u.DateOfBirth))
}

func runProfileUpdate(ctx *runner.CommandContext, cmd *cobra.Command, args []string) error {
	flags := runner.Flags(cmd)
	patch := session.ProfilePatch{
		Name:         flags.OptionalString("name"),
		Email:        flags.OptionalString("email"),
		Phone:        flags.OptionalString("phone"),
		BloodGroup:   flags.OptionalString("blood-group"),
		DateOfBirth:  flags.OptionalString("dob"),
		ProfileImage: flags.OptionalString("image"),
	}
	if err := flags.Err(); err != nil {
		return err
	}

	a, err := ctx.App(cmd.Context())
	if err != nil {
		return err
	}
	user, err := a.Session.UpdateProfile(cmd.Context(), patch)
	if err != nil {
		return err
	}
	printSuccess("Profile updated")
	printProfile(user)
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
