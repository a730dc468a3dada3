package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// newLogger writes colored logs to stderr when it is a terminal.
func newLogger(w io.Writer, level slog.Leveler, color string) *slog.Logger {
	noColor := color == "never"

	if f, ok := w.(*os.File); ok {
		if color == "auto" {
			noColor = !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
		}

		w = colorable.NewColorable(f)
	} else if color == "auto" {
		noColor = true
	}

	return slog.New(tint.NewHandler(w, &tint.Options{
		AddSource:  false,
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    noColor,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			// Drop empty attributes.
			if a.Value.Kind() == slog.KindString && a.Value.String() == "" {
				return slog.Attr{}
			}

			return a
		},
	}))
}
