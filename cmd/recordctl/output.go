package main

import (
	"fmt"
	"io"
	"time"

	"google.golang.org/protobuf/types/known/timestamppb"
	"gopkg.in/yaml.v3"

	"github.com/tarantool/go-record/ident"
	"github.com/tarantool/go-record/internal/directory"
)

type tenantView struct {
	ID    string `yaml:"id"`
	Alias string `yaml:"alias"`
	Name  string `yaml:"name"`
}

type userView struct {
	ID          string `yaml:"id"`
	TenantID    string `yaml:"tenant_id,omitempty"`
	Alias       string `yaml:"alias"`
	Name        string `yaml:"name"`
	DateCreated string `yaml:"date_created,omitempty"`
	DateUpdated string `yaml:"date_updated,omitempty"`
}

func identText(b []byte) string {
	text, _ := ident.Decode(b)
	return text
}

func timeText(ts *timestamppb.Timestamp) string {
	if ts == nil {
		return ""
	}

	return ts.AsTime().Format(time.RFC3339Nano)
}

func viewTenant(t *directory.Tenant) tenantView {
	return tenantView{ID: identText(t.ID), Alias: t.Alias, Name: t.Name}
}

func viewUser(u *directory.User) userView {
	return userView{
		ID:          identText(u.ID),
		TenantID:    identText(u.TenantID),
		Alias:       u.Alias,
		Name:        u.Name,
		DateCreated: timeText(u.DateCreated),
		DateUpdated: timeText(u.DateUpdated),
	}
}

// printYAML writes v as one YAML document.
func printYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2) //nolint:mnd

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to print: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to print: %w", err)
	}

	return nil
}
