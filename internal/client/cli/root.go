package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	tokenrpc "github.com/dmitrijs2005/authkeeper/internal/server/grpc"
	"github.com/spf13/cobra"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// verifyRemote is a test seam for the gRPC round trip.
var verifyRemote = func(ctx context.Context, addr, token string) (string, error) {
	conn, err := tokenrpc.NewClient(addr)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	return tokenrpc.VerifyToken(ctx, conn, token)
}

type app struct {
	cfg *Config
	in  *bufio.Reader
}

func (a *app) api() *HTTPClient { return NewHTTPClient(a.cfg.ServerURL) }

func (a *app) tokens() *TokenStore { return NewTokenStore(a.cfg.TokenFile) }

func (a *app) reader(cmd *cobra.Command) *bufio.Reader {
	if a.in == nil {
		a.in = bufio.NewReader(cmd.InOrStdin())
	}
	return a.in
}

// NewRootCmd creates the root command for the authkeeper CLI.
func NewRootCmd(cfg *Config) *cobra.Command {
	a := &app{cfg: cfg}

	cmd := &cobra.Command{
		Use:           "authkeeper",
		Short:         "AuthKeeper command-line client",
		Long:          `Register, sign in and manage an AuthKeeper account from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "AuthKeeper HTTP base URL")
	cmd.PersistentFlags().StringVar(&cfg.GRPCAddr, "grpc", cfg.GRPCAddr, "token service gRPC address")
	cmd.PersistentFlags().StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "where the session token is kept")

	cmd.AddCommand(newRegisterCmd(a))
	cmd.AddCommand(newLoginCmd(a))
	cmd.AddCommand(newLogoutCmd(a))
	cmd.AddCommand(newDeleteCmd(a))
	cmd.AddCommand(newWhoamiCmd(a))

	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var username, email string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := a.reader(cmd)
			var err error
			if username == "" {
				if username, err = readLine(in, cmd.OutOrStdout(), "Username: "); err != nil {
					return err
				}
			}
			if email == "" {
				if email, err = readLine(in, cmd.OutOrStdout(), "Email: "); err != nil {
					return err
				}
			}
			password, err := readSecret(in, cmd.OutOrStdout(), "Password: ")
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			token, err := a.api().Register(cmd.Context(), username, email, password)
			if err != nil {
				return err
			}
			if err := a.tokens().Save(token); err != nil {
				return err
			}
			cmd.Printf("Registered and signed in as %s\n", username)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "user name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := a.reader(cmd)
			var err error
			if email == "" {
				if email, err = readLine(in, cmd.OutOrStdout(), "Email: "); err != nil {
					return err
				}
			}
			password, err := readSecret(in, cmd.OutOrStdout(), "Password: ")
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			token, err := a.api().Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := a.tokens().Save(token); err != nil {
				return err
			}
			cmd.Println("Signed in")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the local session",
		Long: `Forget the local session. The server keeps no session state, so an
already issued token stays valid until it expires.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := a.tokens().Load()
			if err != nil && !errors.Is(err, ErrNotLoggedIn) {
				return err
			}
			if token != "" {
				if err := a.api().Logout(cmd.Context(), token); err != nil {
					cmd.PrintErrf("warning: server logout failed: %v\n", err)
				}
			}
			if err := a.tokens().Clear(); err != nil {
				return err
			}
			cmd.Println("Signed out")
			return nil
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the signed-in account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := a.tokens().Load()
			if err != nil {
				return err
			}
			if !yes {
				answer, err := readLine(a.reader(cmd), cmd.OutOrStdout(), "Delete this account permanently? [y/N]: ")
				if err != nil {
					return err
				}
				if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
					cmd.Println("Aborted")
					return nil
				}
			}

			msg, err := a.api().DeleteAccount(cmd.Context(), token)
			if err != nil {
				return err
			}
			if err := a.tokens().Clear(); err != nil {
				return err
			}
			cmd.Println(msg)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show which user the stored session belongs to",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := a.tokens().Load()
			if err != nil {
				return err
			}
			userID, err := verifyRemote(cmd.Context(), a.cfg.GRPCAddr, token)
			if err != nil {
				if status.Code(err) == codes.Unauthenticated {
					return fmt.Errorf("session is no longer valid: %s", status.Convert(err).Message())
				}
				return err
			}
			cmd.Printf("user id: %s\n", userID)
			return nil
		},
	}
}
