package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jmehdipour/rfm-dashboard/internal/gateway"
	"github.com/spf13/cobra"
)

var (
	loginUser, loginPass                 string
	regUser, regEmail, regPass, regPass2 string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and persist the credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.initSession(ctx, false); err != nil {
			return err
		}
		pass, err := orPrompt(cmd, loginPass, "Password: ")
		if err != nil {
			return err
		}
		id, err := a.sess.Login(ctx, loginUser, pass)
		if err != nil {
			if errors.Is(err, gateway.ErrAuthentication) {
				return errors.New("invalid username or password")
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>\n", id.Username, id.Email)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account (does not log in)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		pass, err := orPrompt(cmd, regPass, "Password: ")
		if err != nil {
			return err
		}
		confirm, err := orPrompt(cmd, regPass2, "Confirm password: ")
		if err != nil {
			return err
		}
		if _, err := a.sess.Register(ctx, regUser, regEmail, pass, confirm); err != nil {
			if fields := gateway.FieldErrors(err); len(fields) > 0 {
				for field, msgs := range fields {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", field, strings.Join(msgs, " "))
				}
			}
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Registration successful. Run `rfmdash login` to sign in.")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the persisted credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		a.sess.Logout(ctx)
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the identity behind the persisted credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.initSession(ctx, true); err != nil {
			return err
		}
		id := a.sess.Identity()
		fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> (id %d)\n", id.Username, id.Email, id.ID)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUser, "username", "u", "", "account username")
	loginCmd.Flags().StringVarP(&loginPass, "password", "p", "", "account password (prompted when empty)")
	_ = loginCmd.MarkFlagRequired("username")

	registerCmd.Flags().StringVarP(&regUser, "username", "u", "", "account username")
	registerCmd.Flags().StringVar(&regEmail, "email", "", "account email")
	registerCmd.Flags().StringVarP(&regPass, "password", "p", "", "password (prompted when empty)")
	registerCmd.Flags().StringVar(&regPass2, "password2", "", "password confirmation (prompted when empty)")
	_ = registerCmd.MarkFlagRequired("username")
	_ = registerCmd.MarkFlagRequired("email")
}

var promptIn *bufio.Reader

// orPrompt returns v, or reads one line from stdin when v is empty.
func orPrompt(cmd *cobra.Command, v, prompt string) (string, error) {
	if v != "" {
		return v, nil
	}
	if promptIn == nil {
		promptIn = bufio.NewReader(cmd.InOrStdin())
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, err := promptIn.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
