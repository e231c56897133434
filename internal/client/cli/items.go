package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/glasshabit/internal/client/models"
	"github.com/dmitrijs2005/glasshabit/internal/common"
	"github.com/google/uuid"
)

// List prints one collection, or a per-collection count without arguments.
func (a *App) List(ctx context.Context, args []string) error {
	uid, err := a.requireUser()
	if err != nil {
		return err
	}
	data, err := a.session.GetData(ctx, uid)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		for _, c := range models.Collections {
			fmt.Fprintf(a.out, "%-9s %d\n", c, data.Len(c))
		}
		return nil
	}

	c, err := models.ParseCollection(args[0])
	if err != nil {
		return err
	}
	raws, err := data.Raw(c)
	if err != nil {
		return err
	}
	if len(raws) == 0 {
		fmt.Fprintf(a.out, "No %s yet.\n", c)
		return nil
	}

	today := a.today()
	for _, raw := range raws {
		fmt.Fprintln(a.out, describe(c, raw, data, today))
	}
	return nil
}

// describe renders one stored record. Records that do not decode into the
// collection's type are printed as their JSON.
func describe(c models.Collection, raw json.RawMessage, data *models.AppData, today string) string {
	switch c {
	case models.CollectionTasks:
		var v models.Task
		if json.Unmarshal(raw, &v) != nil {
			break
		}
		mark := " "
		if data.HasCompletedLog(v.ID, today) {
			mark = "x"
		}
		return fmt.Sprintf("[%s] %s  %s (%s, %d pts)", mark, v.ID, v.Title, v.Frequency, v.Points)
	case models.CollectionLogs:
		var v models.TaskLog
		if json.Unmarshal(raw, &v) != nil {
			break
		}
		return fmt.Sprintf("%s  task %s on %s completed=%t", v.ID, v.TaskID, v.Date, v.Completed)
	case models.CollectionTodos:
		var v models.Todo
		if json.Unmarshal(raw, &v) != nil {
			break
		}
		mark := " "
		if v.Completed {
			mark = "x"
		}
		s := fmt.Sprintf("[%s] %s  %s", mark, v.ID, v.Text)
		if v.DueDate != "" {
			s += " (due " + v.DueDate + ")"
		}
		return s
	case models.CollectionExpenses:
		var v models.Expense
		if json.Unmarshal(raw, &v) != nil {
			break
		}
		return fmt.Sprintf("%s  %s %.2f %s %s", v.ID, v.Date, v.Amount, v.Category, v.Description)
	case models.CollectionJournal:
		var v models.JournalEntry
		if json.Unmarshal(raw, &v) != nil {
			break
		}
		first, _, _ := strings.Cut(v.Content, "\n")
		return fmt.Sprintf("%s  %s %s %s", v.ID, v.Date, v.Mood, first)
	}
	return string(raw)
}

func (a *App) AddTask(ctx context.Context) error {
	uid, err := a.requireUser()
	if err != nil {
		return err
	}

	title, err := a.ask("Task title")
	if err != nil {
		return err
	}
	category, err := a.ask("Category (optional)")
	if err != nil {
		return err
	}
	freq, err := a.ask("Frequency: daily or weekly (default daily)")
	if err != nil {
		return err
	}
	pointsText, err := a.ask("Points per completion (default 10)")
	if err != nil {
		return err
	}

	task := models.Task{
		ID:        uuid.NewString(),
		Title:     title,
		Category:  category,
		Frequency: models.FrequencyDaily,
		Points:    10,
		CreatedAt: a.now().UTC(),
	}
	switch models.Frequency(freq) {
	case "", models.FrequencyDaily:
	case models.FrequencyWeekly:
		task.Frequency = models.FrequencyWeekly
	default:
		return fmt.Errorf("unknown frequency %q", freq)
	}
	if pointsText != "" {
		if task.Points, err = strconv.Atoi(pointsText); err != nil || task.Points < 0 {
			return fmt.Errorf("invalid points %q", pointsText)
		}
	}

	if err := a.session.AddItem(ctx, uid, models.CollectionTasks, task); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Task added: %s\n", task.ID)
	return nil
}

func (a *App) AddTodo(ctx context.Context) error {
	uid, err := a.requireUser()
	if err != nil {
		return err
	}

	text, err := a.ask("To-do")
	if err != nil {
		return err
	}
	due, err := a.ask("Due date YYYY-MM-DD (optional)")
	if err != nil {
		return err
	}
	if err := validDate(due, true); err != nil {
		return err
	}

	todo := models.Todo{ID: uuid.NewString(), Text: text, DueDate: due, CreatedAt: a.now().UTC()}
	if err := a.session.AddItem(ctx, uid, models.CollectionTodos, todo); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "To-do added: %s\n", todo.ID)
	return nil
}

func (a *App) AddExpense(ctx context.Context) error {
	uid, err := a.requireUser()
	if err != nil {
		return err
	}

	amountText, err := a.ask("Amount")
	if err != nil {
		return err
	}
	amount, err := strconv.ParseFloat(amountText, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q", amountText)
	}
	category, err := a.ask("Category")
	if err != nil {
		return err
	}
	description, err := a.ask("Description (optional)")
	if err != nil {
		return err
	}

	expense := models.Expense{
		ID:          uuid.NewString(),
		Amount:      amount,
		Category:    category,
		Description: description,
		Date:        a.today(),
	}
	if err := a.session.AddItem(ctx, uid, models.CollectionExpenses, expense); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Expense added: %s\n", expense.ID)
	return nil
}

func (a *App) AddJournal(ctx context.Context) error {
	uid, err := a.requireUser()
	if err != nil {
		return err
	}

	content, err := GetMultiline(a.reader, "Write your entry", a.out)
	if err != nil {
		return err
	}
	mood, err := a.ask("Mood (optional)")
	if err != nil {
		return err
	}

	entry := models.JournalEntry{ID: uuid.NewString(), Date: a.today(), Content: content, Mood: mood}
	if err := a.session.AddItem(ctx, uid, models.CollectionJournal, entry); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Journal entry added: %s\n", entry.ID)
	return nil
}

// Done marks a task completed for a day (today by default).
func (a *App) Done(ctx context.Context, args []string) error {
	uid, err := a.requireUser()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: done <taskId> [YYYY-MM-DD]")
	}

	date := a.today()
	if len(args) > 1 {
		date = args[1]
		if err := validDate(date, false); err != nil {
			return err
		}
	}

	entry, err := a.session.CompleteTask(ctx, uid, args[0], date)
	if err != nil {
		return err
	}

	p, err := a.session.GetProfile(ctx, uid)
	if err != nil {
		return err
	}
	if p != nil {
		a.setProfile(p)
		fmt.Fprintf(a.out, "Completed on %s. You now have %d points.\n", entry.Date, p.Points)
	}
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	uid, err := a.requireUser()
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return fmt.Errorf("usage: delete <collection> <id>")
	}

	c, err := models.ParseCollection(args[0])
	if err != nil {
		return err
	}
	if err := a.session.DeleteItem(ctx, uid, c, args[1]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Deleted.")
	return nil
}

// Todo toggles the completed flag of a to-do.
func (a *App) Todo(ctx context.Context, args []string) error {
	uid, err := a.requireUser()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: todo <id>")
	}

	doc, err := a.record(ctx, uid, models.CollectionTodos, args[0])
	if err != nil {
		return err
	}
	done := !doc.Bool("completed")
	if err := doc.Set("completed", done); err != nil {
		return err
	}
	if err := a.session.UpdateItem(ctx, uid, models.CollectionTodos, doc); err != nil {
		return err
	}

	if done {
		fmt.Fprintf(a.out, "To-do %s done.\n", args[0])
	} else {
		fmt.Fprintf(a.out, "To-do %s reopened.\n", args[0])
	}
	return nil
}

// Edit sets one field of a stored record. A value that parses as JSON
// (5, true, "quoted") is stored as that JSON; anything else as a string.
func (a *App) Edit(ctx context.Context, args []string) error {
	uid, err := a.requireUser()
	if err != nil {
		return err
	}
	if len(args) < 4 {
		return fmt.Errorf("usage: edit <collection> <id> <field> <value>")
	}

	c, err := models.ParseCollection(args[0])
	if err != nil {
		return err
	}
	field, value := args[2], strings.Join(args[3:], " ")
	if field == "id" {
		return fmt.Errorf("the id of a record cannot be changed")
	}

	doc, err := a.record(ctx, uid, c, args[1])
	if err != nil {
		return err
	}
	if json.Valid([]byte(value)) {
		doc[field] = json.RawMessage(value)
	} else if err := doc.Set(field, value); err != nil {
		return err
	}

	if err := a.session.UpdateItem(ctx, uid, c, doc); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Updated.")
	return nil
}

// record loads the first record of c with the given id.
func (a *App) record(ctx context.Context, uid string, c models.Collection, id string) (models.Document, error) {
	data, err := a.session.GetData(ctx, uid)
	if err != nil {
		return nil, err
	}
	doc, found, err := data.Document(c, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%s %s: %w", c, id, common.ErrorNotFound)
	}
	return doc, nil
}

func validDate(s string, optional bool) error {
	if s == "" && optional {
		return nil
	}
	if _, err := time.Parse(models.DateLayout, s); err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return nil
}
