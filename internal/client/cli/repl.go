package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL dispatches to. App satisfies
// it; tests provide a recording stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Recover(ctx context.Context) error
	ResetPassword(ctx context.Context) error
	NewPassword(ctx context.Context, args []string) error
	Verify(ctx context.Context, args []string) error
	Profile(ctx context.Context, args []string) error
	Theme(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	AddTask(ctx context.Context) error
	AddTodo(ctx context.Context) error
	AddExpense(ctx context.Context) error
	AddJournal(ctx context.Context) error
	Done(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Todo(ctx context.Context, args []string) error
	Edit(ctx context.Context, args []string) error
	Export(ctx context.Context, args []string) error
	Import(ctx context.Context, args []string) error
	ResetData(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: register, login, recover, resetpassword, newpassword <code>, verify <code>, exit"
	helpLoggedIn  = "Available commands: profile, theme, (l)ist <collection>, addtask, addtodo, addexpense, addjournal, " +
		"done <taskId> [date], todo <id>, edit <collection> <id> <field> <value>, delete <collection> <id>, export [name], import <name>, resetdata, verify <code>, logout, exit"
)

// runREPL reads commands line by line from reader, dispatches them to a and
// writes prompts and messages to w. Command errors are printed and the loop
// continues. It returns on EOF or
// when the user types "exit" or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "gh %s> \n", statusFn())

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, helpLoggedIn)
			} else {
				fmt.Fprintln(w, helpLoggedOut)
			}

		case "register":
			cmdErr = a.Register(ctx)
		case "login":
			cmdErr = a.Login(ctx)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "recover":
			cmdErr = a.Recover(ctx)
		case "resetpassword":
			cmdErr = a.ResetPassword(ctx)
		case "newpassword":
			cmdErr = a.NewPassword(ctx, args)
		case "verify":
			cmdErr = a.Verify(ctx, args)

		case "profile":
			cmdErr = a.Profile(ctx, args)
		case "theme":
			cmdErr = a.Theme(ctx, args)
		case "l", "list":
			cmdErr = a.List(ctx, args)
		case "addtask":
			cmdErr = a.AddTask(ctx)
		case "addtodo":
			cmdErr = a.AddTodo(ctx)
		case "addexpense":
			cmdErr = a.AddExpense(ctx)
		case "addjournal":
			cmdErr = a.AddJournal(ctx)
		case "done":
			cmdErr = a.Done(ctx, args)
		case "delete":
			cmdErr = a.Delete(ctx, args)
		case "todo":
			cmdErr = a.Todo(ctx, args)
		case "edit":
			cmdErr = a.Edit(ctx, args)
		case "export":
			cmdErr = a.Export(ctx, args)
		case "import":
			cmdErr = a.Import(ctx, args)
		case "resetdata":
			cmdErr = a.ResetData(ctx)

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}

		if cmdErr != nil {
			fmt.Fprintln(w, "Error:", cmdErr)
		}
		if err != nil {
			return
		}
	}
}
