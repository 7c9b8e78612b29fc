package session

import (
	"context"
	"errors"
)

// ErrOutsideScope is returned when derived state is read without a mounted
// mapper in scope.
var ErrOutsideScope = errors.New("session state must be read within a mounted session")

type scopeKey struct{}

func NewContext(ctx context.Context, m *Mapper) context.Context {
	return context.WithValue(ctx, scopeKey{}, m)
}

func FromContext(ctx context.Context) (*Mapper, error) {
	m, ok := ctx.Value(scopeKey{}).(*Mapper)
	if !ok || m == nil {
		return nil, ErrOutsideScope
	}
	return m, nil
}
