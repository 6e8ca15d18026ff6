// Package naming defines how scheduler components and their ports are named.
package naming

import (
	"fmt"
	"strconv"
	"strings"
)

// Named describes an object that has a name.
type Named interface {
	// Name returns the name of the object.
	Name() string
}

// NamedBase is a base implementation of Named.
type NamedBase struct {
	name string
}

// Name returns the name.
func (b NamedBase) Name() string {
	return b.name
}

// MakeNamedBase creates a new NamedBase. It panics if the name is not valid.
func MakeNamedBase(name string) NamedBase {
	MustBeValid(name)
	return NamedBase{name: name}
}

// Indexed returns the name of the i-th element of a series that belongs to
// parent, for example Indexed("Sched", "Port", 2) is "Sched.Port[2]".
func Indexed(parent, elem string, i int) string {
	return fmt.Sprintf("%s.%s[%d]", parent, elem, i)
}

// Child returns the name of a single child element of parent.
func Child(parent, elem string) string {
	return parent + "." + elem
}

// MustBeValid panics if the name does not follow the naming convention.
//
//  1. Names are hierarchical, separated by dots. "A.B" is valid, "A.B." is
//     not.
//  2. Elements must not be empty.
//  3. Elements are capitalized CamelCase.
//  4. Elements of a series use square-bracket indices, e.g. "Port[3]".
func MustBeValid(name string) {
	if err := Validate(name); err != nil {
		panic(err.Error())
	}
}

// Validate returns an error describing why the name does not follow the
// naming convention, or nil.
func Validate(name string) error {
	for _, token := range strings.Split(name, ".") {
		if err := validateToken(token); err != nil {
			return fmt.Errorf("name %q is not valid: %w", name, err)
		}
	}

	return nil
}

func validateToken(token string) error {
	elem, rest, hasIndex := strings.Cut(token, "[")

	if elem == "" {
		return fmt.Errorf("element must not be empty")
	}

	if strings.ContainsAny(elem, "_\"'- ]") {
		return fmt.Errorf("element %q contains an invalid character", elem)
	}

	if elem[0] < 'A' || elem[0] > 'Z' {
		return fmt.Errorf("element %q must start with a capital letter", elem)
	}

	if !hasIndex {
		return nil
	}

	for _, idx := range strings.Split(rest, "[") {
		digits, ok := strings.CutSuffix(idx, "]")
		if !ok {
			return fmt.Errorf("bracket in %q must match", token)
		}

		if _, err := strconv.Atoi(digits); err != nil {
			return fmt.Errorf("index in %q must be an integer", token)
		}
	}

	return nil
}
