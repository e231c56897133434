// Package kv is the local key/value store the client persists into.
// Values are opaque byte blobs replaced as a whole; there are no
// transactions across calls, mirroring a browser's local storage.
package kv

import "context"

// Repository is the whole-value key/value contract.
//
// Get returns (nil, nil) when the key is absent. Keys returns every stored
// key in ascending order.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// Batch groups writes that should land together. Deletes are applied
// before Sets, so a key may be deleted and re-set in one batch.
type Batch struct {
	Deletes []string
	Sets    map[string][]byte
}

// Set queues value under key.
func (b *Batch) Set(key string, value []byte) {
	if b.Sets == nil {
		b.Sets = make(map[string][]byte)
	}
	b.Sets[key] = value
}

func (b *Batch) Delete(key string) {
	b.Deletes = append(b.Deletes, key)
}

// Batcher is implemented by repositories able to apply a Batch atomically.
type Batcher interface {
	Apply(ctx context.Context, b Batch) error
}
