package cache

import "github.com/google/uuid"

// Token is the identity of a key handle. It is assigned once, when the
// handle is created, and is never derived from the wrapped value.
type Token = uuid.UUID

// Key is an identity-bearing key handle.
//
// Two handles are the same cache slot only if they are the same handle:
// NewKey("a") called twice yields two independent slots even though the
// wrapped values are equal. Reuse the handle to address the same entry.
type Key[T any] struct {
	id  Token
	ref T
}

// NewKey wraps ref in a fresh key handle with a new random Token.
func NewKey[T any](ref T) *Key[T] {
	return &Key[T]{id: uuid.New(), ref: ref}
}

// Value returns the wrapped value.
func (k *Key[T]) Value() T { return k.ref }

// Token returns the handle's identity token.
func (k *Key[T]) Token() Token { return k.id }

// String renders the token; handy in logs.
func (k *Key[T]) String() string { return k.id.String() }

// tokenOf returns k's token and panics on a nil handle.
func tokenOf[T any](k *Key[T]) Token {
	if k == nil {
		panic("cache: nil key")
	}
	return k.id
}
