package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tarantool/go-record/ident"
	"github.com/tarantool/go-record/internal/directory"
	"github.com/tarantool/go-record/record"
)

var errSelectorRequired = errors.New("either --id or --alias is required")

// tenantQuery selects a tenant by identifier or alias.
func tenantQuery(id, alias string) (record.Query, error) {
	switch {
	case id != "":
		b, ok := ident.Encode(id)
		if !ok {
			return record.Query{}, fmt.Errorf("%w: %q", errInvalidIdent, id)
		}

		return record.ByKey(identText(b)), nil
	case alias != "":
		return record.ByIndex(directory.AliasIndex, alias), nil
	default:
		return record.Query{}, errSelectorRequired
	}
}

func newTenantCmd(a *app) *cobra.Command {
	tenantCmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenants",
	}

	var id, alias, name string

	putCmd := &cobra.Command{
		Use:   "put",
		Short: "Create or overwrite a tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenant := &directory.Tenant{Kind: directory.TenantKind, ID: nil, Alias: alias, Name: name}

			if id == "" {
				tenant.ID = ident.New()
			} else if b, ok := ident.Encode(id); ok {
				tenant.ID = b
			} else {
				return fmt.Errorf("%w: %q", errInvalidIdent, id)
			}

			if _, err := a.tenants().Reconcile(cmd.Context(), tenant); err != nil {
				return err
			}

			a.logger.InfoContext(cmd.Context(), "Stored tenant", "id", identText(tenant.ID), "alias", alias)

			return printYAML(cmd.OutOrStdout(), viewTenant(tenant))
		},
	}
	putCmd.Flags().StringVar(&id, "id", "", "tenant identifier, generated when empty")
	putCmd.Flags().StringVar(&alias, "alias", "", "unique short name")
	putCmd.Flags().StringVar(&name, "name", "", "display name")
	_ = putCmd.MarkFlagRequired("alias")

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Print a tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			query, err := tenantQuery(id, alias)
			if err != nil {
				return err
			}

			tenant, err := a.tenants().Get(cmd.Context(), query)
			if err != nil {
				return err
			}

			return printYAML(cmd.OutOrStdout(), viewTenant(tenant))
		},
	}
	getCmd.Flags().StringVar(&id, "id", "", "tenant identifier")
	getCmd.Flags().StringVar(&alias, "alias", "", "tenant alias")

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove a tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			query, err := tenantQuery(id, alias)
			if err != nil {
				return err
			}

			if err := a.tenants().Delete(cmd.Context(), query); err != nil {
				return err
			}

			a.logger.InfoContext(cmd.Context(), "Deleted tenant", "query", query.String())

			return nil
		},
	}
	deleteCmd.Flags().StringVar(&id, "id", "", "tenant identifier")
	deleteCmd.Flags().StringVar(&alias, "alias", "", "tenant alias")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print every tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenants, err := a.tenants().List(cmd.Context())
			if err != nil {
				return err
			}

			views := make([]tenantView, 0, len(tenants))
			for _, tenant := range tenants {
				views = append(views, viewTenant(tenant))
			}

			return printYAML(cmd.OutOrStdout(), views)
		},
	}

	tenantCmd.AddCommand(putCmd, getCmd, deleteCmd, listCmd)

	return tenantCmd
}
