// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Helpdesk Contributors

package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/helpdeskhq/helpdesk/internal/auth"
	authpg "github.com/helpdeskhq/helpdesk/internal/auth/postgres"
	"github.com/helpdeskhq/helpdesk/internal/config"
	"github.com/helpdeskhq/helpdesk/internal/store"
)

// NewAccountCmd creates the account administration command. A nil deps
// uses the defaults.
func NewAccountCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Administer accounts",
		Long:  `Create or delete accounts directly in the PostgreSQL account store.`,
	}
	config.BindDatabaseFlags(cmd.PersistentFlags())

	var passwordStdin bool
	create := &cobra.Command{
		Use:   "create <username>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAccounts(cmd, deps, func(ctx context.Context, cfg *config.Config, accounts auth.AccountRepository) error {
				password, err := readNewPassword(cmd, deps.withDefaults(), passwordStdin)
				if err != nil {
					return err
				}
				gateway, err := auth.NewGateway(accounts, buildHasher(cfg.Auth))
				if err != nil {
					return err
				}
				account, err := gateway.Register(ctx, args[0], password)
				if err != nil {
					return err
				}
				cmd.Printf("Created account %s (%s)\n", account.Username, account.ID)
				return nil
			})
		},
	}
	create.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from the first line of stdin")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <username>",
		Short: "Delete an account and its sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAccounts(cmd, deps, func(ctx context.Context, _ *config.Config, accounts auth.AccountRepository) error {
				account, err := accounts.GetByUsername(ctx, args[0])
				if err != nil {
					return err
				}
				if err := accounts.Delete(ctx, account.ID); err != nil {
					return err
				}
				cmd.Printf("Deleted account %s\n", account.Username)
				return nil
			})
		},
	})

	return cmd
}

// withAccounts connects to the database and runs fn against the
// PostgreSQL account store.
func withAccounts(cmd *cobra.Command, deps *Deps,
	fn func(ctx context.Context, cfg *config.Config, accounts auth.AccountRepository) error,
) error {
	deps = deps.withDefaults()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	pool, err := deps.Connect(ctx, cfg.Database.URL, store.ConnectOptions{Attempts: 1})
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, cfg, authpg.NewAccountRepository(pool))
}

// readNewPassword reads the password from stdin or prompts twice on a
// terminal.
func readNewPassword(cmd *cobra.Command, deps *Deps, fromStdin bool) (string, error) {
	if fromStdin {
		return readPasswordLine(cmd.InOrStdin())
	}
	if !deps.IsTerminal() {
		return "", oops.Code("ACCOUNT_PASSWORD_REQUIRED").
			Errorf("stdin is not a terminal; use --password-stdin")
	}

	password, err := deps.ReadPassword("Password: ")
	if err != nil {
		return "", oops.Code("ACCOUNT_PASSWORD_READ_FAILED").Wrap(err)
	}
	confirm, err := deps.ReadPassword("Confirm password: ")
	if err != nil {
		return "", oops.Code("ACCOUNT_PASSWORD_READ_FAILED").Wrap(err)
	}
	if password != confirm {
		return "", oops.Code("ACCOUNT_PASSWORD_MISMATCH").Errorf("passwords do not match")
	}
	return password, nil
}

func readPasswordLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", oops.Code("ACCOUNT_PASSWORD_READ_FAILED").Wrap(err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
