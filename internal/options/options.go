// Package options implements functional options shared by the public packages.
package options

// OptionConstructor returns the default value that callbacks are applied to.
type OptionConstructor[T any] func() T

// OptionCallback mutates an options value.
type OptionCallback[T any] func(*T)

// ApplyOptions builds the defaults with constructor (zero value when nil)
// and applies cbs in order. Nil callbacks are skipped.
func ApplyOptions[T any](constructor OptionConstructor[T], cbs []OptionCallback[T]) T {
	var opts T

	if constructor != nil {
		opts = constructor()
	}

	for _, cb := range cbs {
		if cb != nil {
			cb(&opts)
		}
	}

	return opts
}
