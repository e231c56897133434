package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/glasshabit/internal/common"
)

// Collection names one of the five fixed AppData sequences.
type Collection string

const (
	CollectionTasks    Collection = "tasks"
	CollectionLogs     Collection = "logs"
	CollectionTodos    Collection = "todos"
	CollectionExpenses Collection = "expenses"
	CollectionJournal  Collection = "journal"
)

var Collections = []Collection{
	CollectionTasks,
	CollectionLogs,
	CollectionTodos,
	CollectionExpenses,
	CollectionJournal,
}

func ParseCollection(s string) (Collection, error) {
	if c, ok := lookupCollection(s); ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", common.ErrUnknownCollection, s)
}

func lookupCollection(s string) (Collection, bool) {
	for _, c := range Collections {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// AppData is everything a user has recorded. It is stored as one blob, so
// every mutation is a read-modify-write of the whole value.
//
// Records are kept as the JSON they were stored with. Fields the typed
// records do not declare, and top-level keys other than the five
// collections, are carried through reads and writes unchanged.
type AppData struct {
	items map[Collection][]json.RawMessage
	extra map[string]json.RawMessage
}

func NewAppData() *AppData {
	d := &AppData{}
	d.Normalize()
	return d
}

// Normalize replaces missing collections with empty ones so the blob always
// serializes as five arrays.
func (d *AppData) Normalize() {
	if d.items == nil {
		d.items = make(map[Collection][]json.RawMessage, len(Collections))
	}
	for _, c := range Collections {
		if d.items[c] == nil {
			d.items[c] = []json.RawMessage{}
		}
	}
}

// UnmarshalJSON accepts any object. Each collection present must be an
// array (or null); its elements are not inspected.
func (d *AppData) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}

	d.items = make(map[Collection][]json.RawMessage, len(Collections))
	d.extra = nil
	for k, v := range fields {
		c, ok := lookupCollection(k)
		if !ok {
			if d.extra == nil {
				d.extra = make(map[string]json.RawMessage)
			}
			d.extra[k] = v
			continue
		}
		var xs []json.RawMessage
		if err := json.Unmarshal(v, &xs); err != nil {
			return fmt.Errorf("collection %s: %w", c, err)
		}
		d.items[c] = xs
	}
	d.Normalize()
	return nil
}

// MarshalJSON writes the collections in their fixed order followed by any
// other top-level keys, sorted.
func (d AppData) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range Collections {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeKey(&buf, string(c))
		buf.WriteByte('[')
		for j, x := range d.items[c] {
			if j > 0 {
				buf.WriteByte(',')
			}
			buf.Write(x)
		}
		buf.WriteByte(']')
	}

	keys := make([]string, 0, len(d.extra))
	for k := range d.extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		buf.WriteByte(',')
		writeKey(&buf, k)
		buf.Write(d.extra[k])
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, k string) {
	b, _ := json.Marshal(k)
	buf.Write(b)
	buf.WriteByte(':')
}

// Len returns the number of records in c.
func (d *AppData) Len(c Collection) int {
	return len(d.items[c])
}

// Raw returns the stored JSON of every record in c, in stored order.
func (d *AppData) Raw(c Collection) ([]json.RawMessage, error) {
	if _, ok := lookupCollection(string(c)); !ok {
		return nil, unknownCollection(c)
	}
	return append([]json.RawMessage(nil), d.items[c]...), nil
}

// Document returns the first record of c with the given id as a Document.
func (d *AppData) Document(c Collection, id string) (Document, bool, error) {
	raws, err := d.Raw(c)
	if err != nil {
		return nil, false, err
	}
	for _, raw := range raws {
		if recordID(raw) != id {
			continue
		}
		var doc Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, false, fmt.Errorf("record %s in %s: %w", id, c, err)
		}
		return doc, true, nil
	}
	return nil, false, nil
}

// Insert appends r to collection c. Identifiers are not checked for
// uniqueness.
func (d *AppData) Insert(c Collection, r Record) error {
	raw, err := encodeRecord(c, r)
	if err != nil {
		return err
	}
	d.Normalize()
	d.items[c] = append(d.items[c], raw)
	return nil
}

// Replace overwrites the first element whose id equals r's id and reports
// whether one was found.
func (d *AppData) Replace(c Collection, r Record) (bool, error) {
	raw, err := encodeRecord(c, r)
	if err != nil {
		return false, err
	}
	id := r.RecordID()
	for i, x := range d.items[c] {
		if recordID(x) == id {
			d.items[c][i] = raw
			return true, nil
		}
	}
	return false, nil
}

// Remove drops every element with the given id, keeping the others in
// order, and returns how many were removed.
func (d *AppData) Remove(c Collection, id string) (int, error) {
	if _, ok := lookupCollection(string(c)); !ok {
		return 0, unknownCollection(c)
	}
	xs := d.items[c]
	kept := make([]json.RawMessage, 0, len(xs))
	for _, x := range xs {
		if recordID(x) != id {
			kept = append(kept, x)
		}
	}
	d.Normalize()
	d.items[c] = kept
	return len(xs) - len(kept), nil
}

// HasCompletedLog reports whether a completed log exists for taskID on date.
// Logs that do not decode as a TaskLog never match.
func (d *AppData) HasCompletedLog(taskID, date string) bool {
	for _, raw := range d.items[CollectionLogs] {
		var l struct {
			TaskID    string `json:"taskId"`
			Date      string `json:"date"`
			Completed bool   `json:"completed"`
		}
		if json.Unmarshal(raw, &l) != nil {
			continue
		}
		if l.TaskID == taskID && l.Date == date && l.Completed {
			return true
		}
	}
	return false
}

// TaskPoints returns the points of the first task with the given id. A task
// without a numeric points field is worth zero.
func (d *AppData) TaskPoints(id string) (int, bool) {
	for _, raw := range d.items[CollectionTasks] {
		if recordID(raw) != id {
			continue
		}
		var t struct {
			Points float64 `json:"points"`
		}
		_ = json.Unmarshal(raw, &t)
		return int(t.Points), true
	}
	return 0, false
}

// Decode converts every record of c into T. It fails on the first record
// that does not fit T.
func Decode[T Record](d *AppData, c Collection) ([]T, error) {
	raws, err := d.Raw(c)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raws))
	for i, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", c, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func unknownCollection(c Collection) error {
	return fmt.Errorf("%w: %q", common.ErrUnknownCollection, string(c))
}

func encodeRecord(c Collection, r Record) (json.RawMessage, error) {
	if _, ok := lookupCollection(string(c)); !ok {
		return nil, unknownCollection(c)
	}
	if !fits(c, r) {
		return nil, fmt.Errorf("%w: %T into %s", common.ErrCollectionMismatch, r, c)
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode %s record: %w", c, err)
	}
	return raw, nil
}

// fits reports whether r may be stored in c. Typed records belong to one
// collection; a Document fits any. Both T and *T are accepted.
func fits(c Collection, r Record) bool {
	switch v := r.(type) {
	case Document:
		return v != nil
	case Task:
		return c == CollectionTasks
	case *Task:
		return v != nil && c == CollectionTasks
	case TaskLog:
		return c == CollectionLogs
	case *TaskLog:
		return v != nil && c == CollectionLogs
	case Todo:
		return c == CollectionTodos
	case *Todo:
		return v != nil && c == CollectionTodos
	case Expense:
		return c == CollectionExpenses
	case *Expense:
		return v != nil && c == CollectionExpenses
	case JournalEntry:
		return c == CollectionJournal
	case *JournalEntry:
		return v != nil && c == CollectionJournal
	}
	return false
}

// recordID extracts the "id" of a stored record. Non-string ids compare by
// their JSON text; a record without one has id "".
func recordID(raw json.RawMessage) string {
	var v struct {
		ID json.RawMessage `json:"id"`
	}
	if json.Unmarshal(raw, &v) != nil {
		return ""
	}
	return idText(v.ID)
}

func idText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(raw)
}
