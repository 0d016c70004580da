// Command provision performs the one-time setup steps of the return-mail
// service: obtaining a carrier refresh token and issuing inbound JWTs.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/returnmail/backend/internal/infrastructure/auth"
	"github.com/returnmail/backend/internal/infrastructure/carrier"
	"github.com/returnmail/backend/internal/infrastructure/config"
	"github.com/returnmail/backend/internal/infrastructure/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is set at build time
var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "provision",
		Short:         "One-time credential provisioning for the return-mail service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(authorizeURLCmd())
	rootCmd.AddCommand(exchangeCmd())
	rootCmd.AddCommand(issueTokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func authorizeURLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authorize-url",
		Short: "Print the carrier page where the account holder grants access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			redirectURI, _ := cmd.Flags().GetString("redirect-uri")
			state, _ := cmd.Flags().GetString("state")
			if state == "" {
				state = uuid.NewString()
			}

			broker, _, err := newBroker(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), broker.AuthorizationURL(redirectURI, state))
			fmt.Fprintf(cmd.ErrOrStderr(), "state: %s\n", state)
			return nil
		},
	}
	cmd.Flags().String("redirect-uri", "", "Redirect URI registered with the carrier application")
	cmd.Flags().String("state", "", "Opaque state echoed back on the redirect (random when empty)")
	_ = cmd.MarkFlagRequired("redirect-uri")
	return cmd
}

func exchangeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exchange",
		Short: "Trade an authorization code for the refresh token the server needs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			code, _ := cmd.Flags().GetString("code")
			redirectURI, _ := cmd.Flags().GetString("redirect-uri")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			broker, log, err := newBroker(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			tok, err := broker.ExchangeAuthorizationCode(ctx, code, redirectURI)
			if err != nil {
				return fmt.Errorf("authorization code exchange failed: %w", err)
			}
			if tok.RefreshToken == "" {
				return errors.New("carrier response carried no refresh token")
			}
			log.Info("Authorization code exchanged",
				zap.Int64("refresh_token_expires_in", int64(tok.RefreshTokenExpiresIn)),
				zap.String("scope", tok.Scope),
			)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Store this value as carrier.refresh_token (RETURNS_CARRIER_REFRESH_TOKEN):")
			fmt.Fprintln(out, tok.RefreshToken)
			if tok.RefreshTokenExpiresIn > 0 {
				expires := time.Now().Add(time.Duration(tok.RefreshTokenExpiresIn) * time.Second)
				fmt.Fprintf(out, "Expires: %s\n", expires.UTC().Format(time.RFC3339))
			}
			return nil
		},
	}
	cmd.Flags().String("code", "", "Authorization code from the carrier redirect")
	cmd.Flags().String("redirect-uri", "", "Redirect URI used when requesting the code")
	cmd.Flags().Duration("timeout", 30*time.Second, "Exchange timeout")
	_ = cmd.MarkFlagRequired("code")
	return cmd
}

func issueTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Issue a bearer token for callers when inbound.mode is jwt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			subject, _ := cmd.Flags().GetString("subject")
			source, _ := cmd.Flags().GetString("source")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if cfg.Inbound.JWTSecret == "" {
				return errors.New("inbound.jwt_secret is not configured")
			}

			token, expires, err := auth.NewBearerJWT(cfg.Inbound.JWTSecret, cfg.Inbound.JWTIssuer).Issue(subject, source, ttl)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires: %s\n", expires.UTC().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().String("subject", "", "Caller identity stored in the sub claim")
	cmd.Flags().String("source", "", "Optional caller source tag")
	cmd.Flags().Duration("ttl", 90*24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

// newBroker builds a broker that only needs the client credential
func newBroker(cmd *cobra.Command) (*carrier.TokenBroker, *zap.Logger, error) {
	level, _ := cmd.Flags().GetString("log-level")
	log, err := logger.New(&logger.Config{
		Level:      level,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("initialize logger: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	broker, err := carrier.NewProvisioningBroker(&carrier.TokenConfig{
		TokenURL:     cfg.Carrier.TokenURL,
		AuthorizeURL: cfg.Carrier.AuthorizeURL,
		Environment:  carrier.Environment(cfg.Carrier.Environment),
		ClientID:     cfg.Carrier.ClientID,
		ClientSecret: cfg.Carrier.ClientSecret,
		Scope:        cfg.Carrier.Scope,
		Encoding:     carrier.TokenEncoding(cfg.Carrier.TokenEncoding),
		Timeout:      cfg.External.CallTimeout,
	}, log)
	if err != nil {
		return nil, nil, err
	}
	return broker, log, nil
}
