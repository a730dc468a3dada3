package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/tarantool/go-record/ident"
	"github.com/tarantool/go-record/internal/directory"
	"github.com/tarantool/go-record/record"
)

var errUserSelectorRequired = errors.New("either --id or --tenant with --alias is required")

type userFlags struct {
	id      string
	tenant  string
	alias   string
	name    string
	created string
	updated string
}

func (f *userFlags) bindSelector(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.id, "id", "", "user identifier")
	cmd.Flags().StringVar(&f.tenant, "tenant", "", "tenant identifier or alias")
	cmd.Flags().StringVar(&f.alias, "alias", "", "user alias within the tenant")
}

func (f *userFlags) bindWrite(cmd *cobra.Command) {
	f.bindSelector(cmd)
	cmd.Flags().StringVar(&f.name, "name", "", "display name")
	cmd.Flags().StringVar(&f.created, "created", "", "creation time, RFC 3339; defaults to now")
	cmd.Flags().StringVar(&f.updated, "updated", "", "update time, RFC 3339; defaults to now")
}

// tenantID resolves --tenant, which holds either an identifier or an alias.
func (a *app) tenantID(ctx context.Context, tenant string) ([]byte, error) {
	if b, ok := ident.Encode(tenant); ok {
		return b, nil
	}

	t, err := a.tenants().Get(ctx, record.ByIndex(directory.AliasIndex, tenant))
	if err != nil {
		return nil, fmt.Errorf("tenant %q: %w", tenant, err)
	}

	return t.ID, nil
}

func (a *app) userQuery(ctx context.Context, f *userFlags) (record.Query, error) {
	if f.id != "" {
		b, ok := ident.Encode(f.id)
		if !ok {
			return record.Query{}, fmt.Errorf("%w: %q", errInvalidIdent, f.id)
		}

		return record.ByKey(identText(b)), nil
	}

	if f.tenant == "" || f.alias == "" {
		return record.Query{}, errUserSelectorRequired
	}

	tenantID, err := a.tenantID(ctx, f.tenant)
	if err != nil {
		return record.Query{}, err
	}

	return record.ByIndex(directory.AliasIndex, directory.UserAlias(tenantID, f.alias)...), nil
}

func parseTime(value string, now time.Time) (*timestamppb.Timestamp, error) {
	if value == "" {
		return timestamppb.New(now), nil
	}

	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q: %w", value, err)
	}

	return timestamppb.New(parsed), nil
}

func (a *app) buildUser(ctx context.Context, f *userFlags) (*directory.User, error) {
	user := &directory.User{Kind: directory.UserKind, Alias: f.alias, Name: f.name} //nolint:exhaustruct

	if f.id == "" {
		user.ID = ident.New()
	} else if b, ok := ident.Encode(f.id); ok {
		user.ID = b
	} else {
		return nil, fmt.Errorf("%w: %q", errInvalidIdent, f.id)
	}

	if f.tenant != "" {
		tenantID, err := a.tenantID(ctx, f.tenant)
		if err != nil {
			return nil, err
		}

		user.TenantID = tenantID
	}

	now := time.Now().UTC()

	var err error

	if user.DateCreated, err = parseTime(f.created, now); err != nil {
		return nil, err
	}

	if user.DateUpdated, err = parseTime(f.updated, now); err != nil {
		return nil, err
	}

	return user, nil
}

func newUserCmd(a *app) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	var flags userFlags

	putCmd := &cobra.Command{
		Use:   "put",
		Short: "Create a user, failing when the identifier or alias is taken",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := a.buildUser(cmd.Context(), &flags)
			if err != nil {
				return err
			}

			if err := a.users().Insert(cmd.Context(), user); err != nil {
				return err
			}

			a.logger.InfoContext(cmd.Context(), "Created user", "id", identText(user.ID), "alias", user.Alias)

			return printYAML(cmd.OutOrStdout(), viewUser(user))
		},
	}
	flags.bindWrite(putCmd)

	reconcileCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Store a user unless a newer copy is already stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := a.buildUser(cmd.Context(), &flags)
			if err != nil {
				return err
			}

			written, err := a.users().Reconcile(cmd.Context(), user)
			if err != nil {
				return err
			}

			if !written {
				a.logger.WarnContext(cmd.Context(), "Stored user is newer, update discarded", "id", identText(user.ID))
			}

			return printYAML(cmd.OutOrStdout(), map[string]any{
				"written": written,
				"user":    viewUser(user),
			})
		},
	}
	flags.bindWrite(reconcileCmd)
	_ = reconcileCmd.MarkFlagRequired("id")

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Print a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			query, err := a.userQuery(cmd.Context(), &flags)
			if err != nil {
				return err
			}

			user, err := a.users().Get(cmd.Context(), query)
			if err != nil {
				return err
			}

			return printYAML(cmd.OutOrStdout(), viewUser(user))
		},
	}
	flags.bindSelector(getCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			query, err := a.userQuery(cmd.Context(), &flags)
			if err != nil {
				return err
			}

			if err := a.users().Delete(cmd.Context(), query); err != nil {
				return err
			}

			a.logger.InfoContext(cmd.Context(), "Deleted user", "query", query.String())

			return nil
		},
	}
	flags.bindSelector(deleteCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print every user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			users, err := a.users().List(cmd.Context())
			if err != nil {
				return err
			}

			views := make([]userView, 0, len(users))
			for _, user := range users {
				views = append(views, viewUser(user))
			}

			return printYAML(cmd.OutOrStdout(), views)
		},
	}

	userCmd.AddCommand(putCmd, reconcileCmd, getCmd, deleteCmd, listCmd)

	return userCmd
}
