package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Record is implemented by every element stored in an AppData collection.
type Record interface {
	RecordID() string
}

type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// DateLayout is the calendar-day format used by logs, expenses and journal.
const DateLayout = "2006-01-02"

type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Frequency   Frequency `json:"frequency"`
	Points      int       `json:"points"`
	CreatedAt   time.Time `json:"createdAt"`
}

type TaskLog struct {
	ID        string `json:"id"`
	TaskID    string `json:"taskId"`
	Date      string `json:"date"`
	Completed bool   `json:"completed"`
	Note      string `json:"note,omitempty"`
}

type Todo struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	DueDate   string    `json:"dueDate,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Expense struct {
	ID          string  `json:"id"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
	Date        string  `json:"date"`
}

type JournalEntry struct {
	ID      string `json:"id"`
	Date    string `json:"date"`
	Content string `json:"content"`
	Mood    string `json:"mood,omitempty"`
}

func (t Task) RecordID() string         { return t.ID }
func (l TaskLog) RecordID() string      { return l.ID }
func (t Todo) RecordID() string         { return t.ID }
func (e Expense) RecordID() string      { return e.ID }
func (j JournalEntry) RecordID() string { return j.ID }

// Document is a record held as its JSON object. Editing a stored record
// through a Document keeps every field it has, including ones no typed
// record declares.
type Document map[string]json.RawMessage

func (d Document) RecordID() string { return idText(d["id"]) }

// Set stores v, JSON-encoded, under field.
func (d Document) Set(field string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", field, err)
	}
	d[field] = raw
	return nil
}

// Bool reads a boolean field. Missing or non-boolean values read as false.
func (d Document) Bool(field string) bool {
	var b bool
	_ = json.Unmarshal(d[field], &b)
	return b
}
