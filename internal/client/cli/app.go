package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/glasshabit/internal/client/backup"
	"github.com/dmitrijs2005/glasshabit/internal/client/models"
	"github.com/dmitrijs2005/glasshabit/internal/client/services"
	"github.com/dmitrijs2005/glasshabit/internal/logging"
)

var errNotLoggedIn = errors.New("not logged in, use 'login' or 'register'")

// sessionService is the part of services.Session the CLI drives.
type sessionService interface {
	SubscribeToAuthState(ctx context.Context, cb services.ProfileCallback) func()
	Register(ctx context.Context, in services.RegisterInput, password string) (*models.Profile, error)
	Login(ctx context.Context, usernameOrEmail, password string) (*models.Profile, error)
	Logout(ctx context.Context) error
	RecoverAccount(ctx context.Context, identifier string) (string, string, error)
	ResetPassword(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, code, newPassword string) error
	VerifyEmail(ctx context.Context, code string) error
	UpdateProfile(ctx context.Context, p *models.Profile) (*models.Profile, error)
	ResetAllData(ctx context.Context, userID, secretKeyAnswer string) error

	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	GetData(ctx context.Context, userID string) (*models.AppData, error)
	AddItem(ctx context.Context, userID string, c models.Collection, item models.Record) error
	UpdateItem(ctx context.Context, userID string, c models.Collection, item models.Record) error
	DeleteItem(ctx context.Context, userID string, c models.Collection, id string) error
	CompleteTask(ctx context.Context, userID, taskID, date string) (*models.TaskLog, error)
	ExportData(ctx context.Context, userID string) ([]byte, error)
	Backup(ctx context.Context, userID string, sink backup.Sink, name string) error
	Restore(ctx context.Context, userID string, sink backup.Sink, name string) error
}

var _ sessionService = (*services.Session)(nil)

type App struct {
	session sessionService
	sink    backup.Sink
	reader  *bufio.Reader
	out     io.Writer
	log     logging.Logger
	now     func() time.Time

	mu      sync.Mutex
	profile *models.Profile
}

func NewApp(session sessionService, sink backup.Sink, in io.Reader, out io.Writer, log logging.Logger) *App {
	return &App{
		session: session,
		sink:    sink,
		reader:  bufio.NewReader(in),
		out:     out,
		log:     log.With("component", "cli"),
		now:     time.Now,
	}
}

// Run follows auth-state changes and serves the REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	unsubscribe := a.session.SubscribeToAuthState(ctx, func(_ context.Context, p *models.Profile) {
		a.setProfile(p)
	})
	defer unsubscribe()

	fmt.Fprintln(a.out, "Welcome to GlassHabit (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}

func (a *App) setProfile(p *models.Profile) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.profile = p
}

func (a *App) currentProfile() *models.Profile {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.profile
}

func (a *App) isLoggedIn() bool {
	return a.currentProfile() != nil
}

// requireUser returns the signed-in user's id.
func (a *App) requireUser() (string, error) {
	p := a.currentProfile()
	if p == nil {
		return "", errNotLoggedIn
	}
	return p.ID, nil
}

func (a *App) getStatus() string {
	p := a.currentProfile()
	if p == nil {
		return ""
	}
	return fmt.Sprintf("(%s, %d pts)", p.Username, p.Points)
}

func (a *App) today() string {
	return a.now().Format(models.DateLayout)
}

func (a *App) ask(prompt string) (string, error) {
	return getSimpleText(a.reader, prompt, a.out)
}
