package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	storage "github.com/tarantool/go-record"
	"github.com/tarantool/go-record/kv"
	"github.com/tarantool/go-record/marshaller"
	"github.com/tarantool/go-record/namer"
)

type dumpEntry struct {
	Key      string   `yaml:"key"`
	Table    string   `yaml:"table,omitempty"`
	Index    string   `yaml:"index,omitempty"`
	Parts    []string `yaml:"parts,omitempty"`
	Revision int64    `yaml:"revision"`
	Value    any      `yaml:"value"`
}

// decodeValue renders an entity for display. Index entries hold the
// primary storage key as plain text.
func decodeValue(format marshaller.Format, key namer.Key, raw []byte) (any, error) {
	if key.Type == namer.KeyTypeIndex {
		return string(raw), nil
	}

	var value any

	var err error

	switch format {
	case marshaller.FormatYAML:
		err = yaml.Unmarshal(raw, &value)
	default:
		err = msgpack.Unmarshal(raw, &value)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key.Raw, err)
	}

	return printable(value), nil
}

// printable replaces binary strings with hex so YAML shows them on one line.
func printable(value any) any {
	switch v := value.(type) {
	case []byte:
		return hex.EncodeToString(v)
	case map[string]any:
		for k, item := range v {
			v[k] = printable(item)
		}
	case []any:
		for i, item := range v {
			v[i] = printable(item)
		}
	}

	return value
}

func newDumpCmd(a *app) *cobra.Command {
	var (
		table string
		limit int
		raw   bool
	)

	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Print stored keys and decoded values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys := namer.NewDefaultNamer(a.cfg.Prefix)

			prefix := keys.Prefix()
			if table != "" {
				var err error
				if prefix, err = keys.TablePrefix(table); err != nil {
					return err
				}
			}

			values, err := a.storage.Range(cmd.Context(), storage.WithPrefix(prefix), storage.WithLimit(limit))
			if err != nil {
				return err
			}

			entries := make([]dumpEntry, 0, len(values))

			for _, value := range values {
				entry, err := a.dumpEntry(keys, value, raw)
				if err != nil {
					return err
				}

				entries = append(entries, entry)
			}

			a.logger.DebugContext(cmd.Context(), "Dumped keys", "prefix", prefix, "count", len(entries))

			return printYAML(cmd.OutOrStdout(), entries)
		},
	}

	dumpCmd.Flags().StringVarP(&table, "table", "t", "", "only dump this table")
	dumpCmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of keys, 0 for all")
	dumpCmd.Flags().BoolVar(&raw, "raw", false, "print values as stored, without decoding")

	return dumpCmd
}

func (a *app) dumpEntry(keys namer.Namer, value kv.KeyValue, raw bool) (dumpEntry, error) {
	entry := dumpEntry{
		Key:      string(value.Key),
		Table:    "",
		Index:    "",
		Parts:    nil,
		Revision: value.ModRevision,
		Value:    string(value.Value),
	}

	key, err := keys.ParseKey(entry.Key)
	if err != nil {
		// Foreign keys under the prefix are shown as they are.
		return entry, nil //nolint:nilerr
	}

	entry.Table = key.Table
	entry.Index = key.Index
	entry.Parts = key.Parts

	if raw {
		return entry, nil
	}

	entry.Value, err = decodeValue(a.cfg.Format, key, value.Value)
	if err != nil {
		return dumpEntry{}, err
	}

	return entry, nil
}
