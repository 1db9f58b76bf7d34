package client

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// AuthCmd creates the auth parent command
func AuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication credentials",
		Long:  "Login, logout, and check authentication status for the intranet CLI",
	}

	cmd.AddCommand(AuthLoginCmd())
	cmd.AddCommand(AuthLogoutCmd())
	cmd.AddCommand(AuthStatusCmd())

	return cmd
}

// AuthLoginCmd creates the auth login command
func AuthLoginCmd() *cobra.Command {
	var apiURL string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a user token",
		Long:  "Store a token issued by 'intranetd token issue' in the global config",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, _ := cmd.Flags().GetString("token")
			return runAuthLogin(cmd.OutOrStdout(), cmd.InOrStdin(), token, apiURL)
		},
	}

	cmd.Flags().StringVar(&apiURL, "url", defaultAPIURL, "API URL")

	return cmd
}

// AuthLogoutCmd creates the auth logout command
func AuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := DeleteGlobalConfig(); err != nil {
				return fmt.Errorf("failed to logout: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Successfully logged out")
			return nil
		},
	}
}

// AuthStatusCmd creates the auth status command
func AuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		RunE: func(cmd *cobra.Command, args []string) error {
			flagToken, _ := cmd.Flags().GetString("token")
			flagURL, _ := cmd.Flags().GetString("api-url")
			creds, err := ResolveCredentials(flagToken, flagURL)
			if err != nil {
				return err
			}
			return printAuthStatus(cmd, creds)
		},
	}
}

func runAuthLogin(out io.Writer, in io.Reader, token, apiURL string) error {
	if token == "" {
		fmt.Fprint(out, "Enter token: ")
		input, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read token: %w", err)
		}
		token = strings.TrimSpace(input)
	}

	if !IsValidToken(token) {
		return fmt.Errorf("invalid token format (expected: %s + 64 hex characters)", tokenPrefix)
	}

	if err := SaveGlobalConfig(&GlobalConfig{Token: token, APIURL: apiURL}); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	fmt.Fprintln(out, "Successfully logged in")
	return nil
}

func printAuthStatus(cmd *cobra.Command, creds *Credentials) error {
	authenticated := creds.Source != SourceNone
	if wantJSON(cmd) {
		status := map[string]any{
			"authenticated": authenticated,
			"source":        string(creds.Source),
			"api_url":       creds.APIURL,
		}
		if authenticated {
			status["token"] = maskToken(creds.Token)
		}
		return printJSON(cmd, status)
	}

	out := cmd.OutOrStdout()
	if !authenticated {
		fmt.Fprintln(out, "Not authenticated (searches run anonymously)")
		fmt.Fprintln(out, "Run 'intranet auth login' to authenticate")
		return nil
	}
	fmt.Fprintf(out, "Authenticated: yes\n")
	fmt.Fprintf(out, "Source: %s\n", creds.Source)
	fmt.Fprintf(out, "Token: %s\n", maskToken(creds.Token))
	fmt.Fprintf(out, "API URL: %s\n", creds.APIURL)
	return nil
}

