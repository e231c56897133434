// Package collections persists a user's AppData as a single blob and offers
// record-level operations on top of it. Each mutation reads the whole blob,
// changes it in memory and writes it back; concurrent writers for the same
// user can lose updates.
package collections

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/glasshabit/internal/client/models"
	"github.com/dmitrijs2005/glasshabit/internal/client/repositories/kv"
	"github.com/dmitrijs2005/glasshabit/internal/common"
)

type Repository struct {
	store  kv.Repository
	prefix string
}

func NewRepository(store kv.Repository, namespace string) *Repository {
	return &Repository{store: store, prefix: namespace + "data_"}
}

func (r *Repository) key(userID string) string {
	return r.prefix + userID
}

// GetAll returns the user's data. A user with nothing stored gets five
// empty collections.
func (r *Repository) GetAll(ctx context.Context, userID string) (*models.AppData, error) {
	d := models.NewAppData()
	if _, err := kv.ReadJSON(ctx, r.store, r.key(userID), d); err != nil {
		return nil, err
	}
	d.Normalize()
	return d, nil
}

func (r *Repository) save(ctx context.Context, userID string, d *models.AppData) error {
	return kv.WriteJSON(ctx, r.store, r.key(userID), d)
}

func (r *Repository) Add(ctx context.Context, userID string, c models.Collection, item models.Record) error {
	d, err := r.GetAll(ctx, userID)
	if err != nil {
		return err
	}
	if err := d.Insert(c, item); err != nil {
		return err
	}
	return r.save(ctx, userID, d)
}

// Update replaces the first record of c sharing item's id. Nothing is
// written when no such record exists.
func (r *Repository) Update(ctx context.Context, userID string, c models.Collection, item models.Record) error {
	d, err := r.GetAll(ctx, userID)
	if err != nil {
		return err
	}
	found, err := d.Replace(c, item)
	if err != nil || !found {
		return err
	}
	return r.save(ctx, userID, d)
}

// Delete removes every record of c with the given id.
func (r *Repository) Delete(ctx context.Context, userID string, c models.Collection, id string) error {
	d, err := r.GetAll(ctx, userID)
	if err != nil {
		return err
	}
	n, err := d.Remove(c, id)
	if err != nil || n == 0 {
		return err
	}
	return r.save(ctx, userID, d)
}

func (r *Repository) CompletedLogExists(ctx context.Context, userID, taskID, date string) (bool, error) {
	d, err := r.GetAll(ctx, userID)
	if err != nil {
		return false, err
	}
	return d.HasCompletedLog(taskID, date), nil
}

// StageReplace queues d as the user's whole blob on b.
func (r *Repository) StageReplace(b *kv.Batch, userID string, d *models.AppData) error {
	d.Normalize()
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode kv[%s]: %w", r.key(userID), err)
	}
	b.Set(r.key(userID), raw)
	return nil
}

// StageClear queues removal of the user's blob on b.
func (r *Repository) StageClear(b *kv.Batch, userID string) {
	b.Delete(r.key(userID))
}

// Import replaces the user's data with a previously exported document. The
// document must carry non-null "tasks" and "logs"; anything else is
// rejected with common.ErrInvalidBackup and the stored data is left alone.
// Records are not validated.
func (r *Repository) Import(ctx context.Context, userID string, raw []byte) error {
	doc, err := ParseBackup(raw)
	if err != nil {
		return err
	}
	return r.store.Set(ctx, r.key(userID), doc)
}

// ParseBackup checks an export document and returns the bytes to store.
// Each collection present must be an array. A document that has all five
// collections is returned unchanged; otherwise the missing ones are added
// as empty arrays.
func ParseBackup(raw []byte) ([]byte, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidBackup, err)
	}
	for _, required := range []models.Collection{models.CollectionTasks, models.CollectionLogs} {
		if v, ok := fields[string(required)]; !ok || isNull(v) {
			return nil, fmt.Errorf("%w: missing %q", common.ErrInvalidBackup, required)
		}
	}

	complete := true
	for _, c := range models.Collections {
		v, ok := fields[string(c)]
		if !ok || isNull(v) {
			complete = false
			continue
		}
		var xs []json.RawMessage
		if err := json.Unmarshal(v, &xs); err != nil {
			return nil, fmt.Errorf("%w: %q is not an array", common.ErrInvalidBackup, c)
		}
	}
	if complete {
		return raw, nil
	}

	d := &models.AppData{}
	if err := json.Unmarshal(raw, d); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidBackup, err)
	}
	out, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}
	return out, nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// Export renders the user's data in the format Import accepts.
func (r *Repository) Export(ctx context.Context, userID string) ([]byte, error) {
	d, err := r.GetAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	out, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return out, nil
}
