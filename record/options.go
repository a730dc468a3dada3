package record

import (
	"io"
	"log/slog"

	"github.com/tarantool/go-record/internal/options"
	"github.com/tarantool/go-record/marshaller"
	"github.com/tarantool/go-record/namer"
)

// DefaultMaxRetries bounds the compare-and-swap attempts of one write.
const DefaultMaxRetries = 8

type tableOptions struct {
	logger     *slog.Logger
	maxRetries int
	namer      namer.Namer
	format     marshaller.Format
	codec      any
}

// Option configures a Table.
type Option = options.OptionCallback[tableOptions]

func defaultOptions() tableOptions {
	return tableOptions{
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxRetries: DefaultMaxRetries,
		namer:      namer.NewDefaultNamer(namer.DefaultPrefix),
		format:     marshaller.FormatMsgpack,
		codec:      nil,
	}
}

// WithLogger sets the logger for retries and stale writes.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *tableOptions) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

// WithMaxRetries sets how many times a write is attempted before
// it fails with ErrConflict. Values below one are ignored.
func WithMaxRetries(n int) Option {
	return func(opts *tableOptions) {
		if n > 0 {
			opts.maxRetries = n
		}
	}
}

// WithPrefix places the table under a custom key prefix.
func WithPrefix(prefix string) Option {
	return WithNamer(namer.NewDefaultNamer(prefix))
}

// WithNamer replaces the key layout.
func WithNamer(n namer.Namer) Option {
	return func(opts *tableOptions) {
		if n != nil {
			opts.namer = n
		}
	}
}

// WithFormat selects the entity encoding.
func WithFormat(format marshaller.Format) Option {
	return func(opts *tableOptions) {
		opts.format = format
	}
}

// WithMarshaller sets a custom entity codec. E must match the entity type of
// the table, New panics otherwise.
func WithMarshaller[E any](m marshaller.TypedMarshaller[E]) Option {
	return func(opts *tableOptions) {
		opts.codec = m
	}
}
