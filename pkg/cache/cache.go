// Package cache remembers surrogate ids resolved from business keys. Only ids
// that exist are cached; misses always go back to the relational store.
package cache

import (
	"context"
)

// IDCache maps a namespaced business key to a surrogate id.
type IDCache interface {
	Get(ctx context.Context, key string) (int64, bool, error)
	Set(ctx context.Context, key string, id int64) error
}

// Key namespaces a business key by the kind of row it identifies.
func Key(kind, businessKey string) string {
	return kind + ":" + businessKey
}

// Layered reads through each cache in order and back-fills the faster ones on
// a hit further down.
type Layered struct {
	layers []IDCache
}

func NewLayered(layers ...IDCache) *Layered {
	return &Layered{layers: layers}
}

func (l *Layered) Get(ctx context.Context, key string) (int64, bool, error) {
	for i, layer := range l.layers {
		id, ok, err := layer.Get(ctx, key)
		if err != nil {
			return 0, false, err
		}
		if !ok {
			continue
		}
		for _, faster := range l.layers[:i] {
			if err := faster.Set(ctx, key, id); err != nil {
				return 0, false, err
			}
		}
		return id, true, nil
	}
	return 0, false, nil
}

func (l *Layered) Set(ctx context.Context, key string, id int64) error {
	for _, layer := range l.layers {
		if err := layer.Set(ctx, key, id); err != nil {
			return err
		}
	}
	return nil
}
