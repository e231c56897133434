package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/glasshabit/internal/client/backup"
	"github.com/dmitrijs2005/glasshabit/internal/client/identity"
	"github.com/dmitrijs2005/glasshabit/internal/client/models"
	"github.com/dmitrijs2005/glasshabit/internal/client/repositories/kv"
	"github.com/dmitrijs2005/glasshabit/internal/client/services"
	"github.com/dmitrijs2005/glasshabit/internal/common"
	"github.com/dmitrijs2005/glasshabit/internal/cryptox"
	"github.com/dmitrijs2005/glasshabit/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

type testEnv struct {
	app     *App
	session *services.Session
	out     *bytes.Buffer
	mail    *inbox
}

// inbox keeps sent messages so tests can read the codes in them.
type inbox struct {
	msgs []identity.Message
}

func (i *inbox) Send(_ context.Context, m identity.Message) error {
	i.msgs = append(i.msgs, m)
	return nil
}

func (i *inbox) lastCode(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, i.msgs)
	body := i.msgs[len(i.msgs)-1].Body
	return body[strings.LastIndex(body, ": ")+2:]
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	orig := getPassword
	getPassword = func(io.Writer) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { getPassword = orig })
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	store := kv.NewMemoryRepository()
	log := logging.Discard()
	mail := &inbox{}

	provider, err := identity.NewLocalProvider(ctx, store, mail, log, identity.LocalProviderConfig{
		Namespace: "t_",
		Params:    cryptox.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16},
	})
	require.NoError(t, err)

	session := services.NewSession(services.Deps{Store: store, Namespace: "t_", Gateway: provider, Log: log})
	t.Cleanup(func() { _ = session.Close(ctx) })

	sink, err := backup.NewFileSink(t.TempDir())
	require.NoError(t, err)

	out := &bytes.Buffer{}
	app := NewApp(session, sink, strings.NewReader(""), out, log)
	app.now = func() time.Time { return fixedNow }
	return &testEnv{app: app, session: session, out: out, mail: mail}
}

func stored[T models.Record](t *testing.T, env *testEnv, uid string, c models.Collection) []T {
	t.Helper()
	data, err := env.session.GetData(context.Background(), uid)
	require.NoError(t, err)
	items, err := models.Decode[T](data, c)
	require.NoError(t, err)
	return items
}

func (e *testEnv) feed(lines ...string) {
	e.app.reader = rdr(strings.Join(lines, "\n") + "\n")
}

func (e *testEnv) register(t *testing.T) *models.Profile {
	t.Helper()
	stubPassword(t, "secret1")
	e.feed("alice", "alice@x.io", "rex")
	require.NoError(t, e.app.Register(context.Background()))
	p := e.app.currentProfile()
	require.NotNil(t, p)
	return p
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := env.register(t)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, "rex", p.SecretKeyAnswer)
	assert.Contains(t, env.out.String(), "Welcome, alice!")

	require.NoError(t, env.app.Logout(ctx))
	assert.False(t, env.app.isLoggedIn())

	env.feed("alice")
	require.NoError(t, env.app.Login(ctx))
	assert.Equal(t, p.ID, env.app.currentProfile().ID)

	require.NoError(t, env.app.Logout(ctx))
	stubPassword(t, "wrong-password")
	env.feed("alice@x.io")
	assert.ErrorIs(t, env.app.Login(ctx), common.ErrInvalidCredentials)
}

func TestCommandsRequireLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	assert.ErrorIs(t, env.app.List(ctx, nil), errNotLoggedIn)
	assert.ErrorIs(t, env.app.AddTask(ctx), errNotLoggedIn)
	assert.ErrorIs(t, env.app.Done(ctx, []string{"x"}), errNotLoggedIn)
	assert.ErrorIs(t, env.app.Profile(ctx, nil), errNotLoggedIn)
	assert.ErrorIs(t, env.app.Export(ctx, nil), errNotLoggedIn)
	assert.ErrorIs(t, env.app.ResetData(ctx), errNotLoggedIn)
	assert.ErrorIs(t, env.app.Todo(ctx, []string{"x"}), errNotLoggedIn)
	assert.ErrorIs(t, env.app.Edit(ctx, []string{"todos", "x", "text", "y"}), errNotLoggedIn)
}

func TestAddTaskAndComplete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.register(t)

	env.feed("Stretch", "health", "", "5")
	require.NoError(t, env.app.AddTask(ctx))

	tasks := stored[models.Task](t, env, p.ID, models.CollectionTasks)
	require.Len(t, tasks, 1)
	task := tasks[0]
	assert.Equal(t, "Stretch", task.Title)
	assert.Equal(t, models.FrequencyDaily, task.Frequency)
	assert.Equal(t, 5, task.Points)

	require.NoError(t, env.app.Done(ctx, []string{task.ID}))
	assert.Equal(t, 5, env.app.currentProfile().Points)
	assert.Equal(t, "(alice, 5 pts)", env.app.getStatus())

	assert.ErrorIs(t, env.app.Done(ctx, []string{task.ID}), common.ErrAlreadyCompleted)
	assert.Error(t, env.app.Done(ctx, []string{task.ID, "01/05/2024"}))

	env.out.Reset()
	require.NoError(t, env.app.List(ctx, []string{"tasks"}))
	assert.Contains(t, env.out.String(), "[x] "+task.ID)
}

func TestAddTask_InvalidInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t)

	env.feed("Read", "", "monthly", "")
	assert.Error(t, env.app.AddTask(ctx))

	env.feed("Read", "", "weekly", "lots")
	assert.Error(t, env.app.AddTask(ctx))
}

func TestAddOtherRecordsAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.register(t)

	env.feed("Buy milk", "2024-05-03")
	require.NoError(t, env.app.AddTodo(ctx))

	env.feed("Buy milk", "tomorrow")
	assert.Error(t, env.app.AddTodo(ctx))

	env.feed("12.50", "food", "lunch")
	require.NoError(t, env.app.AddExpense(ctx))

	env.feed("abc")
	assert.Error(t, env.app.AddExpense(ctx))

	env.feed("Good day.", "Second line.", "", "happy")
	require.NoError(t, env.app.AddJournal(ctx))

	todos := stored[models.Todo](t, env, p.ID, models.CollectionTodos)
	require.Len(t, todos, 1)
	assert.Equal(t, "2024-05-03", todos[0].DueDate)
	expenses := stored[models.Expense](t, env, p.ID, models.CollectionExpenses)
	require.Len(t, expenses, 1)
	assert.Equal(t, 12.5, expenses[0].Amount)
	assert.Equal(t, "2024-05-01", expenses[0].Date)
	journal := stored[models.JournalEntry](t, env, p.ID, models.CollectionJournal)
	require.Len(t, journal, 1)
	assert.Equal(t, "Good day.\nSecond line.", journal[0].Content)
	assert.Equal(t, "happy", journal[0].Mood)

	env.out.Reset()
	require.NoError(t, env.app.List(ctx, nil))
	assert.Contains(t, env.out.String(), "todos     1")

	require.NoError(t, env.app.Delete(ctx, []string{"todos", todos[0].ID}))
	assert.ErrorIs(t, env.app.Delete(ctx, []string{"habits", "x"}), common.ErrUnknownCollection)
	assert.Error(t, env.app.Delete(ctx, []string{"todos"}))

	assert.Empty(t, stored[models.Todo](t, env, p.ID, models.CollectionTodos))
}

func TestProfileAndTheme(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t)

	env.out.Reset()
	require.NoError(t, env.app.Profile(ctx, nil))
	assert.Contains(t, env.out.String(), "Email:    alice@x.io")

	require.NoError(t, env.app.Theme(ctx, nil))
	assert.Equal(t, models.ThemeLight, env.app.currentProfile().Theme)
	require.NoError(t, env.app.Theme(ctx, []string{"dark"}))
	assert.Equal(t, models.ThemeDark, env.app.currentProfile().Theme)
	assert.Error(t, env.app.Theme(ctx, []string{"blue"}))

	require.NoError(t, env.app.Profile(ctx, []string{"username", "Al", "Smith"}))
	assert.Equal(t, "Al Smith", env.app.currentProfile().Username)

	require.NoError(t, env.app.Profile(ctx, []string{"email", "al@x.io"}))
	assert.Equal(t, "al@x.io", env.app.currentProfile().Email)

	assert.Error(t, env.app.Profile(ctx, []string{"points", "99"}))
	assert.Error(t, env.app.Profile(ctx, []string{"email"}))
}

func TestExportImportAndResetData(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.register(t)

	env.feed("Buy milk", "")
	require.NoError(t, env.app.AddTodo(ctx))

	env.out.Reset()
	require.NoError(t, env.app.Export(ctx, nil))
	assert.Contains(t, env.out.String(), "Buy milk")

	require.NoError(t, env.app.Export(ctx, []string{"snap.json"}))

	env.feed("wrong")
	assert.ErrorIs(t, env.app.ResetData(ctx), common.ErrInvalidSecretAnswer)

	env.feed("rex")
	require.NoError(t, env.app.ResetData(ctx))
	assert.Empty(t, stored[models.Todo](t, env, p.ID, models.CollectionTodos))

	require.NoError(t, env.app.Import(ctx, []string{"snap.json"}))
	assert.Len(t, stored[models.Todo](t, env, p.ID, models.CollectionTodos), 1)

	assert.ErrorIs(t, env.app.Import(ctx, []string{"missing.json"}), backup.ErrBackupNotFound)
	assert.Error(t, env.app.Import(ctx, nil))
}

func TestRecoverAndResetPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t)
	require.NoError(t, env.app.Logout(ctx))

	env.out.Reset()
	env.feed("ALICE")
	require.NoError(t, env.app.Recover(ctx))
	assert.Contains(t, env.out.String(), "Found account alice.")
	assert.Contains(t, env.out.String(), "Password reset email sent to alice@x.io.")

	env.feed("stranger")
	assert.ErrorIs(t, env.app.Recover(ctx), common.ErrNotFoundOnDevice)

	env.feed("nobody@x.io")
	assert.ErrorIs(t, env.app.ResetPassword(ctx), common.ErrNoAccountForEmail)
}

func TestVerifyAndNewPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t)

	assert.Error(t, env.app.Verify(ctx, []string{"nonsense"}))
	require.NoError(t, env.app.Verify(ctx, []string{env.mail.lastCode(t)}))
	assert.Contains(t, env.out.String(), "Email verified.")

	require.NoError(t, env.app.Logout(ctx))
	env.feed("alice@x.io")
	require.NoError(t, env.app.ResetPassword(ctx))
	code := env.mail.lastCode(t)

	stubPassword(t, "brand-new")
	require.NoError(t, env.app.NewPassword(ctx, []string{code}))
	assert.Error(t, env.app.NewPassword(ctx, []string{code}))
	assert.Error(t, env.app.NewPassword(ctx, nil))

	env.feed("alice")
	require.NoError(t, env.app.Login(ctx))
	assert.Equal(t, "alice", env.app.currentProfile().Username)
}

func TestTodoToggleAndEdit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.register(t)

	require.NoError(t, env.session.ImportData(ctx, p.ID, []byte(
		`{"tasks":[],"logs":[],"todos":[{"id":"a","text":"milk","completed":false,"color":"red"}]}`)))

	require.NoError(t, env.app.Todo(ctx, []string{"a"}))
	assert.Contains(t, env.out.String(), "To-do a done.")
	todos := stored[models.Todo](t, env, p.ID, models.CollectionTodos)
	assert.True(t, todos[0].Completed)

	require.NoError(t, env.app.Todo(ctx, []string{"a"}))
	assert.Contains(t, env.out.String(), "To-do a reopened.")

	require.NoError(t, env.app.Edit(ctx, []string{"todos", "a", "text", "oat", "milk"}))
	require.NoError(t, env.app.Edit(ctx, []string{"todos", "a", "priority", "2"}))

	data, err := env.session.GetData(ctx, p.ID)
	require.NoError(t, err)
	raws, err := data.Raw(models.CollectionTodos)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"a","text":"oat milk","completed":false,"color":"red","priority":2}`, string(raws[0]))

	assert.ErrorIs(t, env.app.Todo(ctx, []string{"zzz"}), common.ErrorNotFound)
	assert.Error(t, env.app.Todo(ctx, nil))
	assert.Error(t, env.app.Edit(ctx, []string{"todos", "a", "id", "b"}))
	assert.Error(t, env.app.Edit(ctx, []string{"todos", "a", "text"}))
	assert.ErrorIs(t, env.app.Edit(ctx, []string{"habits", "a", "text", "x"}), common.ErrUnknownCollection)
}

func TestList_ShowsRecordsOfOtherShapes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.register(t)

	require.NoError(t, env.session.ImportData(ctx, p.ID, []byte(
		`{"tasks":[{"id":"t1","title":"Run","createdAt":1700000000000}],"logs":[]}`)))

	env.out.Reset()
	require.NoError(t, env.app.List(ctx, []string{"tasks"}))
	assert.Contains(t, env.out.String(), `"createdAt":1700000000000`)
}

func TestRun_PicksUpRestoredSession(t *testing.T) {
	env := newTestEnv(t)
	env.register(t)
	env.app.setProfile(nil)

	env.feed("profile", "help", "exit")
	env.app.Run(context.Background())

	out := env.out.String()
	assert.Contains(t, out, "Username: alice")
	assert.Contains(t, out, "gh (alice, 0 pts)> ")
	assert.Contains(t, out, helpLoggedIn)
	assert.Contains(t, out, "Bye!")
}
