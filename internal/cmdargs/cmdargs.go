// Package cmdargs builds argument lists for external commands.
//
// Builders are immutable: every method returns a new Builder and never
// shares its backing array with the receiver, so a partially built list can
// be branched safely.
package cmdargs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrEmptyArguments is returned by Build when no values were appended.
var ErrEmptyArguments = errors.New("no command arguments given")

const redactedText = "<redacted>"

// Value is a single command argument. Secret values only reveal their content
// through Args.Strings.
type Value struct {
	raw    string
	secret bool
}

// Arg returns a plain string argument.
func Arg(s string) Value { return Value{raw: s} }

// Int returns a plain integer argument.
func Int(n int) Value { return Value{raw: strconv.Itoa(n)} }

// Secret returns an argument whose content is never displayed or logged.
func Secret(s string) Value { return Value{raw: s, secret: true} }

// IsSecret reports whether the value is redacted.
func (v Value) IsSecret() bool { return v.secret }

func (v Value) String() string {
	if v.secret {
		return redactedText
	}
	return v.raw
}

func (v Value) GoString() string {
	return fmt.Sprintf("cmdargs.Value(%q)", v.String())
}

// Format makes every fmt verb go through String, so %q or %x cannot leak a secret.
func (v Value) Format(f fmt.State, verb rune) {
	switch verb {
	case 'v':
		if f.Flag('#') {
			_, _ = fmt.Fprint(f, v.GoString())
			return
		}
		_, _ = fmt.Fprint(f, v.String())
	case 'q':
		_, _ = fmt.Fprint(f, strconv.Quote(v.String()))
	default:
		_, _ = fmt.Fprint(f, v.String())
	}
}

func (v Value) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Builder accumulates argument values.
type Builder struct {
	values []Value
}

// New returns an empty Builder.
func New() Builder {
	return Builder{}
}

func (b Builder) with(values []Value) Builder {
	next := make([]Value, 0, len(b.values)+len(values))
	next = append(next, b.values...)
	next = append(next, values...)
	return Builder{values: next}
}

// Append returns a new Builder with values appended.
func (b Builder) Append(values ...Value) Builder {
	return b.with(values)
}

// Add is shorthand for appending plain string arguments.
func (b Builder) Add(args ...string) Builder {
	values := make([]Value, len(args))
	for i, a := range args {
		values[i] = Arg(a)
	}
	return b.with(values)
}

// AppendIf appends the values produced by lazy only when cond is true.
// lazy is not called otherwise.
func (b Builder) AppendIf(cond bool, lazy func() []Value) Builder {
	if !cond {
		return b.with(nil)
	}
	return b.with(lazy())
}

// Optional appends mapper(*value) when value is non-nil.
func Optional[T any](b Builder, value *T, mapper func(T) []Value) Builder {
	if value == nil {
		return b.with(nil)
	}
	return b.with(mapper(*value))
}

// Build returns the accumulated arguments, or ErrEmptyArguments.
func (b Builder) Build() (Args, error) {
	if len(b.values) == 0 {
		return Args{}, ErrEmptyArguments
	}
	return Args{values: b.with(nil).values}, nil
}

// Args is a validated, non-empty argument list.
type Args struct {
	values []Value
}

// Len returns the number of arguments.
func (a Args) Len() int { return len(a.values) }

// Values returns a copy of the argument values.
func (a Args) Values() []Value {
	out := make([]Value, len(a.values))
	copy(out, a.values)
	return out
}

// Strings reveals every argument, secrets included. Only call this when
// handing the arguments to the operating system.
func (a Args) Strings() []string {
	out := make([]string, len(a.values))
	for i, v := range a.values {
		out[i] = v.raw
	}
	return out
}

// String renders the arguments space-separated with secrets redacted.
func (a Args) String() string {
	parts := make([]string, len(a.values))
	for i, v := range a.values {
		parts[i] = v.String()
	}
	return strings.Join(parts, " ")
}

// Redacted returns the display form of each argument.
func (a Args) Redacted() []string {
	out := make([]string, len(a.values))
	for i, v := range a.values {
		out[i] = v.String()
	}
	return out
}
