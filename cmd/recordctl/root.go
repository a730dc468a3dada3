package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	storage "github.com/tarantool/go-record"
	"github.com/tarantool/go-record/internal/config"
	"github.com/tarantool/go-record/internal/directory"
	"github.com/tarantool/go-record/record"
)

// app holds the state shared by every subcommand.
type app struct {
	configPath string
	driverName string
	logLevel   string

	cfg     config.Config
	logger  *slog.Logger
	storage storage.Storage
	close   func() error
}

func (a *app) tableOptions() []record.Option {
	return []record.Option{
		record.WithLogger(a.logger),
		record.WithMaxRetries(a.cfg.MaxRetries),
		record.WithPrefix(a.cfg.Prefix),
		record.WithFormat(a.cfg.Format),
	}
}

func (a *app) tenants() *directory.Tenants {
	return directory.NewTenants(a.storage, a.tableOptions()...)
}

func (a *app) users() *directory.Users {
	return directory.NewUsers(a.storage, a.tableOptions()...)
}

// setup loads the configuration and opens the store.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("driver") {
		cfg.Driver = a.driverName
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = newLogger(cmd.ErrOrStderr(), level, cfg.Log.Color)

	drv, closeFn, err := openDriver(cmd.Context(), cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Driver, err)
	}

	a.storage = storage.NewStorage(drv)
	a.close = closeFn

	return nil
}

func (a *app) teardown() error {
	if a.close == nil {
		return nil
	}

	closeFn := a.close
	a.close = nil

	if err := closeFn(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}

	return nil
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "recordctl",
		Short: "Manage tenant and user records",
		Long: `recordctl reads and writes tenant and user records in a record store.

Users are versioned by their update date: reconcile keeps the newest copy.

Examples:
  recordctl ident encode "{550E8400-E29B-41D4-A716-446655440000}"
  recordctl tenant put --alias hday --name "Holiday Robotics"
  recordctl user reconcile --tenant hday --alias hal --name HAL
  recordctl user get --tenant hday --alias hal`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVarP(&a.driverName, "driver", "d", config.DriverPebble,
		"storage driver (dummy, pebble, sqlite, etcd, tkv)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	// Commands that touch the store open it first.
	withStore := func(cmd *cobra.Command) *cobra.Command {
		cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		}
		closeAfterRun(cmd, a.teardown)

		return cmd
	}

	rootCmd.AddCommand(
		newIdentCmd(),
		withStore(newTenantCmd(a)),
		withStore(newUserCmd(a)),
		withStore(newDumpCmd(a)),
	)

	return rootCmd
}

// closeAfterRun makes every runnable command under cmd call closeFn when
// it returns, including on failure.
func closeAfterRun(cmd *cobra.Command, closeFn func() error) {
	for _, sub := range cmd.Commands() {
		closeAfterRun(sub, closeFn)
	}

	if cmd.RunE == nil {
		return
	}

	run := cmd.RunE
	cmd.RunE = func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			err = errors.Join(err, closeFn())
		}()

		return run(cmd, args)
	}
}
