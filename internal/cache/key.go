package cache

import (
	"fmt"
	"net/url"
)

// Key identifies a cached result: an operation name plus its normalized
// parameters. Keys are comparable and safe to log.
type Key struct {
	operation string
	params    string
}

// KeyParam is one named parameter of a Key.
type KeyParam struct {
	name  string
	value string
}

// Param creates a key parameter. The value is rendered with fmt, so a secret
// cmdargs.Value contributes "<redacted>" and never its content.
func Param(name string, value any) KeyParam {
	return KeyParam{name: name, value: fmt.Sprint(value)}
}

// NewKey builds a key for operation. Parameter order does not matter.
func NewKey(operation string, params ...KeyParam) Key {
	values := url.Values{}
	for _, p := range params {
		values.Add(p.name, p.value)
	}
	return Key{operation: operation, params: values.Encode()}
}

// Operation returns the operation name the key was built with.
func (k Key) Operation() string {
	return k.operation
}

// Param returns the first value of the named parameter, or "" if the key
// has none.
func (k Key) Param(name string) string {
	values, _ := url.ParseQuery(k.params)
	return values.Get(name)
}

func (k Key) String() string {
	if k.params == "" {
		return k.operation
	}
	return k.operation + "?" + k.params
}
