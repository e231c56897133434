package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ReadJSON decodes the value under key into v. found is false when the key
// is absent. A value that is not valid JSON is returned as an error, never
// silently ignored.
func ReadJSON(ctx context.Context, r Repository, key string, v any) (found bool, err error) {
	raw, err := r.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("decode kv[%s]: %w", key, err)
	}
	return true, nil
}

func WriteJSON(ctx context.Context, r Repository, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode kv[%s]: %w", key, err)
	}
	return r.Set(ctx, key, raw)
}

// KeysWithPrefix filters Keys down to those starting with prefix.
func KeysWithPrefix(ctx context.Context, r Repository, prefix string) ([]string, error) {
	keys, err := r.Keys(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

// Apply writes b atomically when r supports it, and key by key otherwise.
func Apply(ctx context.Context, r Repository, b Batch) error {
	if br, ok := r.(Batcher); ok {
		return br.Apply(ctx, b)
	}

	for _, key := range b.Deletes {
		if err := r.Delete(ctx, key); err != nil {
			return err
		}
	}
	for _, key := range sortedKeys(b.Sets) {
		if err := r.Set(ctx, key, b.Sets[key]); err != nil {
			return err
		}
	}
	return nil
}
