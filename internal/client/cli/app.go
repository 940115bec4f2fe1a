package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/YousefAdel777/chatter-backend-sub000/internal/client/client"
	"github.com/YousefAdel777/chatter-backend-sub000/internal/client/config"
)

// authClient is the part of client.GRPCClient the App drives.
type authClient interface {
	Register(ctx context.Context, identifier, secret string) error
	Login(ctx context.Context, identifier, secret string) error
	LoginHandoff(ctx context.Context, identifier, secret string) (string, error)
	Redeem(ctx context.Context, code string) error
	Refresh(ctx context.Context) error
	Logout(ctx context.Context) error
	LoggedIn() bool
	Close() error
}

// getPassword is a test seam for GetPassword.
var getPassword = GetPassword

type App struct {
	config   *config.Config
	client   authClient
	userName string
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	apiClient, err := client.NewAuthClient(c.ServerEndpointAddr)
	if err != nil {
		return nil, err
	}

	return &App{config: c, client: apiClient, reader: bufio.NewReader(os.Stdin), out: os.Stdout}, nil
}

// Run blocks in the REPL until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.client.Close()

	fmt.Fprintln(a.out, "Welcome to chatter auth CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}

func (a *App) isLoggedIn() bool {
	return a.client.LoggedIn()
}

func (a *App) getStatus() string {
	switch {
	case !a.isLoggedIn():
		return ""
	case a.userName != "":
		return fmt.Sprintf("(%s)", a.userName)
	default:
		return "(logged in)"
	}
}

func (a *App) Register(ctx context.Context) error {
	userName, password, err := a.credentials()
	if err != nil {
		return a.report(err)
	}
	defer wipe(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.client.Register(ctx, userName, string(password)); err != nil {
		if errors.Is(err, client.ErrRejected) {
			fmt.Fprintln(a.out, "Enter a valid email and a non-empty password.")
			return err
		}
		return a.report(err)
	}

	fmt.Fprintln(a.out, "Registered, you can log in now.")
	return nil
}

func (a *App) Login(ctx context.Context) error {
	userName, password, err := a.credentials()
	if err != nil {
		return a.report(err)
	}
	defer wipe(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.client.Login(ctx, userName, string(password)); err != nil {
		return a.report(err)
	}

	a.userName = userName
	fmt.Fprintln(a.out, "Logged in.")
	return nil
}

func (a *App) Handoff(ctx context.Context) error {
	userName, password, err := a.credentials()
	if err != nil {
		return a.report(err)
	}
	defer wipe(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	code, err := a.client.LoginHandoff(ctx, userName, string(password))
	if err != nil {
		return a.report(err)
	}

	fmt.Fprintf(a.out, "Exchange code (single use): %s\n", code)
	return nil
}

func (a *App) Redeem(ctx context.Context, code string) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.client.Redeem(ctx, code); err != nil {
		return a.report(err)
	}

	a.userName = ""
	fmt.Fprintln(a.out, "Logged in.")
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.client.Refresh(ctx); err != nil {
		return a.report(err)
	}

	fmt.Fprintln(a.out, "Tokens rotated.")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.client.Logout(ctx); err != nil {
		return a.report(err)
	}

	a.userName = ""
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *App) credentials() (string, []byte, error) {
	userName, err := GetSimpleText(a.reader, "-Enter email", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return userName, password, nil
}

func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config == nil || a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

// report prints a user-facing message for err and returns it.
func (a *App) report(err error) error {
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		fmt.Fprintln(a.out, "Invalid credentials or session.")
	case errors.Is(err, client.ErrUnavailable):
		fmt.Fprintln(a.out, "Server unavailable, try again later.")
	case errors.Is(err, client.ErrRejected):
		fmt.Fprintln(a.out, "Session is no longer valid, please log in again.")
	case errors.Is(err, client.ErrUnknownCode):
		fmt.Fprintln(a.out, "Unknown or expired code.")
	case errors.Is(err, client.ErrNotLoggedIn):
		fmt.Fprintln(a.out, "Not logged in.")
	case errors.Is(err, client.ErrAlreadyRegistered):
		fmt.Fprintln(a.out, "This email is already registered.")
	default:
		fmt.Fprintf(a.out, "error: %v\n", err)
	}
	return err
}
