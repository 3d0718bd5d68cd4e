// Package mocks provides hand-rolled fakes for the persistence interfaces.
//
// Each mock records its calls in Calls and delegates to the matching Impl
// function; calling a method with no Impl panics, so tests fail loudly when
// an unexpected path is exercised.
package mocks

type CallLog[T any] []T

func (l CallLog[T]) Times() uint {
	return uint(len(l))
}
