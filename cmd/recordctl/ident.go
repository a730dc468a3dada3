package main

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tarantool/go-record/ident"
)

var (
	errInvalidIdent = errors.New("invalid identifier")
	errInvalidHex   = errors.New("invalid hex")
)

func newIdentCmd() *cobra.Command {
	identCmd := &cobra.Command{
		Use:   "ident",
		Short: "Convert 128-bit identifiers between text and hex bytes",
	}

	identCmd.AddCommand(
		&cobra.Command{
			Use:   "encode TEXT...",
			Short: "Print the 16 bytes of textual identifiers as hex",
			Long: `Encode accepts bare, braced and urn:uuid: identifiers in any case.
Characters other than hex digits are ignored.`,
			Args: cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				for _, arg := range args {
					b, ok := ident.Encode(arg)
					if !ok {
						return fmt.Errorf("%w: %q", errInvalidIdent, arg)
					}

					fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(b))
				}

				return nil
			},
		},
		&cobra.Command{
			Use:   "decode HEX...",
			Short: "Print the canonical text of hex encoded identifiers",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				for _, arg := range args {
					b, err := hex.DecodeString(arg)
					if err != nil {
						return fmt.Errorf("%w %q: %w", errInvalidHex, arg, err)
					}

					text, ok := ident.Decode(b)
					if !ok {
						return fmt.Errorf("%w: need 16 bytes, got %d", errInvalidIdent, len(b))
					}

					fmt.Fprintln(cmd.OutOrStdout(), text)
				}

				return nil
			},
		},
		&cobra.Command{
			Use:   "new",
			Short: "Print a random identifier",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				text, _ := ident.Decode(ident.New())
				fmt.Fprintln(cmd.OutOrStdout(), text)

				return nil
			},
		},
	)

	return identCmd
}
