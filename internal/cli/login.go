package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/me/campusfix/internal/forms"
	"github.com/me/campusfix/internal/route"
	"github.com/me/campusfix/pkg/model"
)

// prompt reads one line from in after printing label to out.
func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.TrimSpace(label), ":"), err)
	}
	return strings.TrimSpace(line), nil
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password, from string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to CampusFix",
		Long:  "Sign in with email and password. Credentials are kept in the configured credential store.",
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.admit(route.LoginPath); err != nil {
				return err
			}
			var err error
			in := bufio.NewReader(cmd.InOrStdin())
			if email == "" {
				if email, err = prompt(in, cmd.OutOrStdout(), "Email: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = prompt(in, cmd.OutOrStdout(), "Password: "); err != nil {
					return err
				}
			}

			u, err := check(a.session.Login(cmd.Context(), email, password))
			if err != nil {
				return err
			}
			role := a.session.Snapshot().Role
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s).\n", u.FullName(), role)
			fmt.Fprintf(cmd.OutOrStdout(), "Next: %s\n", route.AfterLogin(from, role))
			return nil
		}),
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (prompted if omitted)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted if omitted)")
	cmd.Flags().StringVar(&from, "from", "", "Screen that asked for the sign-in")
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var form model.RegisterForm
	var from string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a CampusFix account and sign in",
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.admit(route.LoginPath); err != nil {
				return err
			}
			u, err := check(a.session.Register(cmd.Context(), form))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account created for %s.\n", u.Email)
			fmt.Fprintf(cmd.OutOrStdout(), "Next: %s\n", route.AfterRegister(from))
			return nil
		}),
	}

	f := cmd.Flags()
	f.StringVar(&form.Email, "email", "", "Email address")
	f.StringVar(&form.FirstName, "first-name", "", "First name")
	f.StringVar(&form.LastName, "last-name", "", "Last name")
	f.StringVar(&form.StudentID, "student-id", "", "Student ID")
	f.StringVar(&form.Password, "password", "", "Password")
	f.StringVar(&form.PasswordConfirm, "password-confirm", "", "Password again")
	f.StringVar(&from, "from", "", "Screen that asked for the sign-in")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget stored credentials",
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			a.session.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		}),
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			snap := a.session.Snapshot()
			out := cmd.OutOrStdout()
			if !snap.Authenticated() {
				fmt.Fprintln(out, "Not signed in.")
				return nil
			}
			u := snap.User
			fmt.Fprintf(out, "User:   %s\n", u.FullName())
			fmt.Fprintf(out, "Email:  %s\n", u.Email)
			fmt.Fprintf(out, "Role:   %s\n", snap.Role)
			fmt.Fprintf(out, "Home:   campusfix %s\n", homeCommand(route.Home(snap.Role)))
			return nil
		}),
	}
}

func newPasswordCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change, forget or reset your password",
	}

	var oldPW, newPW, confirm string
	change := &cobra.Command{
		Use:   "change",
		Short: "Change the password of the signed-in account",
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.requireSignIn(); err != nil {
				return err
			}
			if msg := passwordCheck(oldPW, newPW, confirm); msg != "" {
				return errors.New(msg)
			}
			res, err := check(a.api.Auth.ChangePassword(cmd.Context(), oldPW, newPW, confirm))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		}),
	}
	change.Flags().StringVar(&oldPW, "old", "", "Current password")
	change.Flags().StringVar(&newPW, "new", "", "New password")
	change.Flags().StringVar(&confirm, "confirm", "", "New password again")

	var email string
	forgot := &cobra.Command{
		Use:   "forgot",
		Short: "Request a password reset",
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.admit("/forgot-password"); err != nil {
				return err
			}
			if email == "" {
				return errors.New(model.MsgRequiredFields)
			}
			res, err := check(a.api.Auth.ForgotPassword(cmd.Context(), email))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			if res.ResetToken != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Reset token: %s\n", res.ResetToken)
			}
			return nil
		}),
	}
	forgot.Flags().StringVar(&email, "email", "", "Account email")

	var token, resetPW, resetConfirm string
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Set a new password with a reset token",
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.admit("/forgot-password"); err != nil {
				return err
			}
			if msg := passwordCheck(token, resetPW, resetConfirm); msg != "" {
				return errors.New(msg)
			}
			res, err := check(a.api.Auth.ResetPassword(cmd.Context(), token, resetPW, resetConfirm))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		}),
	}
	reset.Flags().StringVar(&token, "token", "", "Reset token")
	reset.Flags().StringVar(&resetPW, "new", "", "New password")
	reset.Flags().StringVar(&resetConfirm, "confirm", "", "New password again")

	cmd.AddCommand(change, forgot, reset)
	return cmd
}

// passwordCheck validates a password form locally: the current secret
// (old password or reset token) is required and the new password must be
// entered twice identically.
func passwordCheck(current, newPassword, confirm string) string {
	if current == "" {
		return model.MsgRequiredFields
	}
	return forms.PasswordChange(newPassword, confirm)
}
