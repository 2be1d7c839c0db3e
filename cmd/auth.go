package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"moviebook-cli/auth"
	"moviebook-cli/model"
	"moviebook-cli/validation"
)

// passwordEnvVar lets scripts sign in without a prompt.
const passwordEnvVar = "MOVIEBOOK_PASSWORD"

func newLoginCmd(e *env) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := promptCredentials(email, false)
			if err != nil {
				return err
			}
			session, err := e.auth.Login(cmd.Context(), creds)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", session.User.Label(), session.User.EffectiveRole())
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func newSignupCmd(e *env) *cobra.Command {
	var (
		email string
		name  string
		role  string
	)
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			role = strings.ToUpper(strings.TrimSpace(role))
			if role != model.RoleCustomer && role != model.RoleClient {
				return fmt.Errorf("role must be %s or %s", model.RoleCustomer, model.RoleClient)
			}
			if strings.TrimSpace(name) == "" {
				v, err := (&promptui.Prompt{Label: "Name"}).Run()
				if err != nil {
					return err
				}
				name = v
			}
			creds, err := promptCredentials(email, true)
			if err != nil {
				return err
			}
			creds.Name = strings.TrimSpace(name)
			creds.UserRole = role

			session, err := e.auth.Signup(cmd.Context(), creds)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if session == nil {
				fmt.Fprintf(out, "Account created for %s. Run `%s login` to sign in.\n", creds.Email, appName)
				return nil
			}
			fmt.Fprintf(out, "Account created. Logged in as %s.\n", session.User.Label())
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", model.RoleCustomer, "CUSTOMER or CLIENT (theatre owner)")
	return cmd
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.auth.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := e.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			user := session.User
			access := "customer"
			switch {
			case auth.IsAdmin(user):
				access = "admin"
			case auth.IsOwner(user):
				access = "theatre owner"
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendRows([]table.Row{
				{"Name", user.Name},
				{"Email", user.Email},
				{"Role", user.EffectiveRole()},
				{"Access", access},
				{"Signed in", session.SavedAt.Local().Format("2006-01-02 15:04")},
			})
			if claims, err := auth.ParseClaims(session.Token); err == nil && !claims.ExpiresAt.IsZero() {
				t.AppendRow(table.Row{"Expires", claims.ExpiresAt.Local().Format("2006-01-02 15:04")})
			}
			t.Render()
			return nil
		},
	}
}

func promptCredentials(email string, confirm bool) (model.Credentials, error) {
	validateEmail := func(input string) error {
		err := validation.Var(strings.TrimSpace(input), "required,email")
		if err != nil {
			return errors.New("enter a valid email")
		}
		return nil
	}
	if strings.TrimSpace(email) == "" {
		v, err := (&promptui.Prompt{Label: "Email", Validate: validateEmail}).Run()
		if err != nil {
			return model.Credentials{}, err
		}
		email = v
	}

	password := os.Getenv(passwordEnvVar)
	if password == "" {
		v, err := (&promptui.Prompt{Label: "Password", Mask: '*'}).Run()
		if err != nil {
			return model.Credentials{}, err
		}
		password = v
		if confirm {
			again, err := (&promptui.Prompt{Label: "Confirm password", Mask: '*'}).Run()
			if err != nil {
				return model.Credentials{}, err
			}
			if again != password {
				return model.Credentials{}, errors.New("passwords do not match")
			}
		}
	}
	return model.Credentials{Email: strings.TrimSpace(email), Password: password}, nil
}
