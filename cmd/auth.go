package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var (
	loginUsername string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and save the session",
	Long: `Sign in to Very Goods. The username and password default to auth.username
and auth.password from the config, which may also be set through
VERYGOODS_AUTH_USERNAME and VERYGOODS_AUTH_PASSWORD or a .env file.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := sessions.Delete(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		username := client.Username()
		return render(cmd.OutOrStdout(), map[string]string{"username": username}, func(w io.Writer) {
			if username == "" {
				fmt.Fprintln(w, "Not signed in.")
				return
			}
			fmt.Fprintf(w, "Signed in as @%s\n", username)
		})
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "username (default auth.username)")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "password (default auth.password)")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	username := loginUsername
	if username == "" {
		username = cfg.Auth.Username
	}
	password := loginPassword
	if password == "" {
		password = cfg.Auth.Password
	}
	if username == "" || password == "" {
		return fmt.Errorf("username and password are required")
	}

	logger.Info().Str("username", username).Msg("Signing in")

	auth, err := client.Login(cmd.Context(), username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := sessions.Save(cmd.Context(), auth); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Signed in as @%s\n", auth.Username)
	return nil
}
