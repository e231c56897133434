package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	calls    []string
	failOn   string
}

func (f *fakeExec) record(name string, args ...string) error {
	f.calls = append(f.calls, strings.TrimSpace(name+" "+strings.Join(args, " ")))
	if name == f.failOn {
		return errors.New(name + " failed")
	}
	return nil
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Register(context.Context) error {
	return f.record("register")
}
func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.record("login")
}
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}
func (f *fakeExec) Recover(context.Context) error       { return f.record("recover") }
func (f *fakeExec) ResetPassword(context.Context) error { return f.record("resetpassword") }
func (f *fakeExec) NewPassword(_ context.Context, args []string) error {
	return f.record("newpassword", args...)
}
func (f *fakeExec) Verify(_ context.Context, args []string) error { return f.record("verify", args...) }
func (f *fakeExec) Profile(_ context.Context, args []string) error {
	return f.record("profile", args...)
}
func (f *fakeExec) Theme(_ context.Context, args []string) error { return f.record("theme", args...) }
func (f *fakeExec) List(_ context.Context, args []string) error  { return f.record("list", args...) }
func (f *fakeExec) AddTask(context.Context) error                { return f.record("addtask") }
func (f *fakeExec) AddTodo(context.Context) error                { return f.record("addtodo") }
func (f *fakeExec) AddExpense(context.Context) error             { return f.record("addexpense") }
func (f *fakeExec) AddJournal(context.Context) error             { return f.record("addjournal") }
func (f *fakeExec) Done(_ context.Context, args []string) error  { return f.record("done", args...) }
func (f *fakeExec) Todo(_ context.Context, args []string) error { return f.record("todo", args...) }
func (f *fakeExec) Edit(_ context.Context, args []string) error { return f.record("edit", args...) }
func (f *fakeExec) Delete(_ context.Context, args []string) error {
	return f.record("delete", args...)
}
func (f *fakeExec) Export(_ context.Context, args []string) error {
	return f.record("export", args...)
}
func (f *fakeExec) Import(_ context.Context, args []string) error {
	return f.record("import", args...)
}
func (f *fakeExec) ResetData(context.Context) error { return f.record("resetdata") }

func TestRunREPL_DispatchesCommands(t *testing.T) {
	var out bytes.Buffer

	input := strings.Join([]string{
		"help",
		"login",
		"",
		"profile",
		"theme light",
		"l tasks",
		"addtask",
		"addtodo",
		"addexpense",
		"addjournal",
		"done t1 2024-05-01",
		"delete todos a1",
		"todo a2",
		"edit todos a2 text buy oat milk",
		"export snap.json",
		"import snap.json",
		"resetdata",
		"recover",
		"resetpassword",
		"newpassword abc",
		"verify xyz",
		"register",
		"logout",
		"exit",
		"list",
	}, "\n")

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, rdr(input), &out)

	assert.Equal(t, []string{
		"login", "profile", "theme light", "list tasks", "addtask", "addtodo",
		"addexpense", "addjournal", "done t1 2024-05-01", "delete todos a1",
		"todo a2", "edit todos a2 text buy oat milk",
		"export snap.json", "import snap.json", "resetdata", "recover",
		"resetpassword", "newpassword abc", "verify xyz", "register", "logout",
	}, exec.calls)
}

func TestRunREPL_HelpDependsOnLogin(t *testing.T) {
	var out bytes.Buffer
	runREPL(context.Background(), &fakeExec{}, func() string { return "" }, rdr("help\n"), &out)
	assert.Contains(t, out.String(), helpLoggedOut)

	out.Reset()
	runREPL(context.Background(), &fakeExec{loggedIn: true}, func() string { return "" }, rdr("help\n"), &out)
	assert.Contains(t, out.String(), helpLoggedIn)
}

func TestRunREPL_ReportsErrorsAndUnknown(t *testing.T) {
	var buf bytes.Buffer
	exec := &fakeExec{failOn: "addtask"}
	runREPL(context.Background(), exec, func() string { return "(bob)" }, rdr("addtask\nfoobar\nquit\n"), &buf)

	out := buf.String()
	assert.Contains(t, out, "gh (bob)> ")
	assert.Contains(t, out, "Error: addtask failed")
	assert.Contains(t, out, "Unknown command: foobar")
	assert.Contains(t, out, "Bye!")
}

func TestRunREPL_LastLineWithoutNewline(t *testing.T) {
	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, rdr("login"), io.Discard)
	assert.Equal(t, []string{"login"}, exec.calls)
}
