package runner

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// FlagSet provides type-safe flag extraction with error accumulation.
// Errors are collected and can be checked at the end with Err().
type FlagSet struct {
	flags *pflag.FlagSet
	errs  []error
}

// Flags creates a new FlagSet for the given command
func Flags(cmd *cobra.Command) *FlagSet {
	return &FlagSet{flags: cmd.Flags()}
}

func (f *FlagSet) record(name string, err error) {
	if err != nil {
		f.errs = append(f.errs, fmt.Errorf("flag %s: %w", name, err))
	}
}

// String extracts a string flag value
func (f *FlagSet) String(name string) string {
	val, err := f.flags.GetString(name)
	f.record(name, err)
	return val
}

// Int extracts an int flag value
func (f *FlagSet) Int(name string) int {
	val, err := f.flags.GetInt(name)
	f.record(name, err)
	return val
}

// Float64 extracts a float flag value
func (f *FlagSet) Float64(name string) float64 {
	val, err := f.flags.GetFloat64(name)
	f.record(name, err)
	return val
}

// Bool extracts a bool flag value
func (f *FlagSet) Bool(name string) bool {
	val, err := f.flags.GetBool(name)
	f.record(name, err)
	return val
}

// Duration extracts a duration flag value
func (f *FlagSet) Duration(name string) time.Duration {
	val, err := f.flags.GetDuration(name)
	f.record(name, err)
	return val
}

// Changed returns true if the flag was explicitly set
func (f *FlagSet) Changed(name string) bool {
	return f.flags.Changed(name)
}

// OptionalString returns a pointer to the flag value when it was set,
// nil otherwise. Patch-style commands use it to leave fields alone.
func (f *FlagSet) OptionalString(name string) *string {
	if !f.Changed(name) {
		return nil
	}
	v := f.String(name)
	return &v
}

// OptionalBool is OptionalString for bool flags
func (f *FlagSet) OptionalBool(name string) *bool {
	if !f.Changed(name) {
		return nil
	}
	v := f.Bool(name)
	return &v
}

// Err returns any accumulated errors joined together
func (f *FlagSet) Err() error {
	return errors.Join(f.errs...)
}

// HasErrors returns true if any errors have been accumulated
func (f *FlagSet) HasErrors() bool {
	return len(f.errs) > 0
}
