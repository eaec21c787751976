package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/me/campusfix/internal/route"
	"github.com/me/campusfix/internal/settings"
	"github.com/me/campusfix/pkg/model"
)

const settingsScreen = "/settings"

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func printSettings(w io.Writer, st settings.Settings, effective settings.Theme) {
	p := st.Profile
	fmt.Fprintln(w, "Profile:")
	fmt.Fprintf(w, "  Name:        %s %s\n", p.FirstName, p.LastName)
	fmt.Fprintf(w, "  Email:       %s\n", p.Email)
	fmt.Fprintf(w, "  Student ID:  %s\n", p.StudentID)
	fmt.Fprintf(w, "  Phone:       %s\n", p.Phone)
	if p.Avatar != "" {
		fmt.Fprintf(w, "  Avatar:      %s\n", p.Avatar)
	}
	n := st.Notifications
	fmt.Fprintln(w, "Notifications:")
	fmt.Fprintf(w, "  email=%s push=%s issue-updates=%s issue-comments=%s weekly-digest=%s marketing=%s\n",
		onOff(n.Email), onOff(n.Push), onOff(n.IssueUpdates), onOff(n.IssueComments), onOff(n.WeeklyDigest), onOff(n.Marketing))
	fmt.Fprintln(w, "Security:")
	fmt.Fprintf(w, "  Two-factor:  %s\n", onOff(st.Security.TwoFactorEnabled))
	fmt.Fprintln(w, "Appearance:")
	fmt.Fprintf(w, "  Language:    %s\n", st.Appearance.Language)
	fmt.Fprintf(w, "  Theme:       %s (showing %s)\n", st.Appearance.Theme, effective)
}

func newSettingsCmd(a *app) *cobra.Command {
	var systemDark bool

	effective := func(st settings.Settings) settings.Theme {
		return settings.ResolveTheme(st.Appearance.Theme, a.session.Snapshot().Authenticated(), settingsScreen, systemDark)
	}

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show and change your local preferences",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.admit(settingsScreen); err != nil {
				return err
			}
			st := a.settings.Load()
			printSettings(cmd.OutOrStdout(), st, effective(st))
			return nil
		}),
	}
	cmd.PersistentFlags().BoolVar(&systemDark, "system-dark", false, "Treat the desktop as using a dark theme")

	theme := &cobra.Command{
		Use:       "theme <light|dark|system>",
		Short:     "Choose the colour theme",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(settings.ThemeLight), string(settings.ThemeDark), string(settings.ThemeSystem)},
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.admit(settingsScreen); err != nil {
				return err
			}
			t := settings.Theme(args[0])
			st, err := a.settings.UpdateAppearance(settings.AppearancePatch{Theme: &t})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Theme set to %s (showing %s).\n", st.Appearance.Theme, effective(st))
			return nil
		}),
	}

	var language string
	lang := &cobra.Command{
		Use:   "language <code>",
		Short: "Choose the display language",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.admit(settingsScreen); err != nil {
				return err
			}
			language = args[0]
			st, err := a.settings.UpdateAppearance(settings.AppearancePatch{Language: &language})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Language set to %s.\n", st.Appearance.Language)
			return nil
		}),
	}

	var np struct{ email, push, updates, comments, digest, marketing bool }
	notify := &cobra.Command{
		Use:   "notify",
		Short: "Turn notification channels on or off",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.admit(settingsScreen); err != nil {
				return err
			}
			changed := cmd.Flags().Changed
			pick := func(name string, v *bool) *bool {
				if changed(name) {
					return v
				}
				return nil
			}
			patch := settings.NotificationsPatch{
				Email:         pick("email", &np.email),
				Push:          pick("push", &np.push),
				IssueUpdates:  pick("issue-updates", &np.updates),
				IssueComments: pick("issue-comments", &np.comments),
				WeeklyDigest:  pick("weekly-digest", &np.digest),
				Marketing:     pick("marketing", &np.marketing),
			}
			if patch == (settings.NotificationsPatch{}) {
				return errNothingToChange
			}
			if _, err := a.settings.UpdateNotifications(patch); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Notification preferences saved.")
			return nil
		}),
	}
	nf := notify.Flags()
	nf.BoolVar(&np.email, "email", false, "Email notifications")
	nf.BoolVar(&np.push, "push", false, "Push notifications")
	nf.BoolVar(&np.updates, "issue-updates", false, "Status changes on your issues")
	nf.BoolVar(&np.comments, "issue-comments", false, "Comments on your issues")
	nf.BoolVar(&np.digest, "weekly-digest", false, "Weekly summary email")
	nf.BoolVar(&np.marketing, "marketing", false, "Product news")

	twoFactor := &cobra.Command{
		Use:       "two-factor <on|off>",
		Short:     "Enable or disable two-factor authentication",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.admit(settingsScreen); err != nil {
				return err
			}
			var enable bool
			switch args[0] {
			case "on":
				enable = true
			case "off":
			default:
				return fmt.Errorf("expected on or off, got %q", args[0])
			}
			res, err := check(a.api.Auth.SetTwoFactor(cmd.Context(), enable))
			if err != nil {
				return err
			}
			if _, err := a.settings.UpdateSecurity(res.TwoFactorEnabled); err != nil {
				return err
			}
			a.session.UpdateUser(model.UserPatch{TwoFactorEnabled: &res.TwoFactorEnabled})
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		}),
	}

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Refresh the cached profile from the server",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.admit(settingsScreen); err != nil {
				return err
			}
			st, err := a.settings.SyncProfile(cmd.Context(), a.api.Auth.Profile)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile synced for %s.\n", st.Profile.Email)
			return nil
		}),
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Restore the default preferences",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.settings.Reset(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Settings restored to defaults.")
			return nil
		}),
	}

	cmd.AddCommand(theme, lang, notify, twoFactor, syncCmd, reset)
	return cmd
}

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show your account profile",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.requireSignIn(); err != nil {
				return err
			}
			u, err := check(a.api.Auth.Profile(cmd.Context()))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:        %s\n", u.FullName())
			fmt.Fprintf(out, "Email:       %s\n", u.Email)
			if u.StudentID != nil {
				fmt.Fprintf(out, "Student ID:  %s\n", *u.StudentID)
			}
			if u.Phone != nil {
				fmt.Fprintf(out, "Phone:       %s\n", *u.Phone)
			}
			fmt.Fprintf(out, "Role:        %s\n", model.ClassifyRole(&u))
			fmt.Fprintf(out, "Two-factor:  %s\n", onOff(u.TwoFactorEnabled))
			fmt.Fprintf(out, "Member since %s\n", ago(u.CreatedAt))
			return nil
		}),
	}

	var first, last, phone, studentID, avatar string
	update := &cobra.Command{
		Use:   "update",
		Short: "Change your name, phone, student ID or avatar",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.requireSignIn(); err != nil {
				return err
			}
			changed := cmd.Flags().Changed
			var p model.UserPatch
			if changed("first-name") {
				p.FirstName = &first
			}
			if changed("last-name") {
				p.LastName = &last
			}
			if changed("phone") {
				p.Phone = &phone
			}
			if changed("student-id") {
				p.StudentID = &studentID
			}
			if changed("avatar") {
				p.Avatar = &avatar
			}
			if p == (model.UserPatch{}) {
				return errNothingToChange
			}

			u, err := check(a.api.Auth.UpdateProfile(cmd.Context(), p))
			if err != nil {
				return err
			}
			a.session.UpdateUser(p)
			if _, err := a.settings.UpdateProfile(settings.ProfilePatch{
				FirstName: p.FirstName,
				LastName:  p.LastName,
				StudentID: p.StudentID,
				Phone:     p.Phone,
				Avatar:    p.Avatar,
			}); err != nil {
				a.logger.Warn("cache profile", "error", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile updated for %s.\n", u.FullName())
			return nil
		}),
	}
	uf := update.Flags()
	uf.StringVar(&first, "first-name", "", "First name")
	uf.StringVar(&last, "last-name", "", "Last name")
	uf.StringVar(&phone, "phone", "", "Phone number")
	uf.StringVar(&studentID, "student-id", "", "Student ID")
	uf.StringVar(&avatar, "avatar", "", "Avatar URL (empty removes it)")

	cmd.AddCommand(update)
	return cmd
}

func newRouteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "route <path>",
		Short: "Show where a web client path would take the current session",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			d := a.routes.Admit(a.session.Snapshot(), args[0])
			out := cmd.OutOrStdout()
			switch d.Kind {
			case route.Allow, route.NotFound, route.Loading:
				fmt.Fprintln(out, d.Kind)
			case route.RedirectLogin:
				fmt.Fprintf(out, "%s %s?from=%s\n", d.Kind, d.Target, d.From)
			case route.RedirectHome, route.Redirect:
				fmt.Fprintf(out, "%s %s\n", d.Kind, d.Target)
			default:
				return errors.New("unknown decision")
			}
			return nil
		}),
	}
}
