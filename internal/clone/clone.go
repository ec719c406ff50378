// Package clone produces deep, independent copies of arbitrary values so a
// captured snapshot never shares memory with the state it was taken from.
package clone

import (
	goclone "github.com/huandu/go-clone"
)

// Value returns a deep copy of value. Unexported struct fields are copied as
// deeply as exported ones, and pointer cycles are reproduced in the copy
// instead of being followed forever. Funcs are shared.
func Value[T any](value T) T {
	cloned, _ := goclone.Slowly(value).(T)
	return cloned
}
