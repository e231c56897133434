package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/glasshabit/internal/client/backup"
	"github.com/dmitrijs2005/glasshabit/internal/client/models"
	"github.com/dmitrijs2005/glasshabit/internal/client/repositories/kv"
	"github.com/dmitrijs2005/glasshabit/internal/common"
	"github.com/google/uuid"
)

func (s *Session) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	return s.profiles.Get(ctx, userID)
}

func (s *Session) GetData(ctx context.Context, userID string) (*models.AppData, error) {
	return s.collections.GetAll(ctx, userID)
}

func (s *Session) AddItem(ctx context.Context, userID string, c models.Collection, item models.Record) error {
	return s.collections.Add(ctx, userID, c, item)
}

func (s *Session) UpdateItem(ctx context.Context, userID string, c models.Collection, item models.Record) error {
	return s.collections.Update(ctx, userID, c, item)
}

func (s *Session) DeleteItem(ctx context.Context, userID string, c models.Collection, id string) error {
	return s.collections.Delete(ctx, userID, c, id)
}

func (s *Session) IsTaskCompleted(ctx context.Context, userID, taskID, date string) (bool, error) {
	return s.collections.CompletedLogExists(ctx, userID, taskID, date)
}

func (s *Session) ImportData(ctx context.Context, userID string, raw []byte) error {
	return s.collections.Import(ctx, userID, raw)
}

func (s *Session) ExportData(ctx context.Context, userID string) ([]byte, error) {
	return s.collections.Export(ctx, userID)
}

// CompleteTask records a completed log for taskID on date and credits the
// task's points to the user's profile. An empty date means today.
func (s *Session) CompleteTask(ctx context.Context, userID, taskID, date string) (*models.TaskLog, error) {
	if date == "" {
		date = s.now().Format(models.DateLayout)
	}

	d, err := s.collections.GetAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	points, ok := d.TaskPoints(taskID)
	if !ok {
		return nil, fmt.Errorf("task %s: %w", taskID, common.ErrorNotFound)
	}
	if d.HasCompletedLog(taskID, date) {
		return nil, common.ErrAlreadyCompleted
	}

	entry := models.TaskLog{ID: uuid.NewString(), TaskID: taskID, Date: date, Completed: true}
	if err := d.Insert(models.CollectionLogs, entry); err != nil {
		return nil, err
	}

	// the log and the points land in one batch
	var b kv.Batch
	if err := s.collections.StageReplace(&b, userID, d); err != nil {
		return nil, err
	}
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		p.Points += points
		if err := s.profiles.StageSet(&b, p); err != nil {
			return nil, err
		}
	}
	if err := kv.Apply(ctx, s.store, b); err != nil {
		return nil, fmt.Errorf("complete task %s: %w", taskID, err)
	}
	return &entry, nil
}

// Backup writes the user's export document to sink under name.
func (s *Session) Backup(ctx context.Context, userID string, sink backup.Sink, name string) error {
	data, err := s.collections.Export(ctx, userID)
	if err != nil {
		return err
	}
	if err := sink.Put(ctx, name, data); err != nil {
		return fmt.Errorf("backup %s: %w", name, err)
	}
	s.log.Info(ctx, "backup written", "uid", userID, "name", name, "bytes", len(data))
	return nil
}

// Restore imports the document stored under name, replacing current data.
func (s *Session) Restore(ctx context.Context, userID string, sink backup.Sink, name string) error {
	data, err := sink.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("restore %s: %w", name, err)
	}
	return s.collections.Import(ctx, userID, data)
}
