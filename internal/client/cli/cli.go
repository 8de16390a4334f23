// Package cli implements the commands of the ContactKeeper client.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/iudanet/contactkeeper/internal/client/iocli"
	"github.com/iudanet/contactkeeper/internal/client/storage"
	"github.com/iudanet/contactkeeper/pkg/api"
)

// SessionService управляет локальной сессией, реализуется *auth.Service
type SessionService interface {
	Register(ctx context.Context, username, email, password string) (*storage.AuthData, error)
	Login(ctx context.Context, usernameOrEmail, password string) (*storage.AuthData, error)
	Refresh(ctx context.Context) (*storage.AuthData, error)
	Logout(ctx context.Context) error
	Status(ctx context.Context) (*storage.AuthData, error)
	AccessToken(ctx context.Context) (string, error)
}

// ContactsAPI эндпоинты контактов, реализуется *api.Client
type ContactsAPI interface {
	CreateContact(ctx context.Context, accessToken string, req api.CreateContactRequest) (*api.Contact, error)
	ListContacts(ctx context.Context, accessToken string) ([]api.Contact, error)
	GetContact(ctx context.Context, accessToken, id string) (*api.Contact, error)
	UpdateContact(ctx context.Context, accessToken, id string, req api.UpdateContactRequest) (*api.Contact, error)
	DeleteContact(ctx context.Context, accessToken, id string) error
}

type Cli struct {
	io       iocli.IO
	sessions SessionService
	contacts ContactsAPI
	now      func() time.Time
}

func New(io iocli.IO, sessions SessionService, contacts ContactsAPI) *Cli {
	return &Cli{
		io:       io,
		sessions: sessions,
		contacts: contacts,
		now:      time.Now,
	}
}

// Run выполняет команду args[0] с аргументами args[1:]
func (c *Cli) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		c.PrintUsage()
		return fmt.Errorf("missing command")
	}

	command, rest := args[0], args[1:]

	switch command {
	case "register":
		return c.runRegister(ctx)
	case "login":
		return c.runLogin(ctx)
	case "refresh":
		return c.runRefresh(ctx)
	case "logout":
		return c.runLogout(ctx)
	case "status":
		return c.runStatus(ctx)
	case "contacts":
		return c.runContacts(ctx, rest)
	case "help":
		c.PrintUsage()
		return nil
	default:
		c.PrintUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func (c *Cli) PrintUsage() {
	c.io.Println("ContactKeeper Client")
	c.io.Println()
	c.io.Println("Usage:")
	c.io.Println("  contactkeeper [OPTIONS] COMMAND")
	c.io.Println()
	c.io.Println("Options:")
	c.io.Println("  --version                    Show version information")
	c.io.Println("  --server URL                 Server URL (default: http://localhost:8080)")
	c.io.Println("  --db PATH                    Path to local session database (default: contactkeeper-client.db)")
	c.io.Println("  --verbose                    Log debug messages to stderr")
	c.io.Println()
	c.io.Println("Commands:")
	c.io.Println("  register                     Register new user")
	c.io.Println("  login                        Login with username or email")
	c.io.Println("  refresh                      Rotate the session tokens")
	c.io.Println("  logout                       Logout and delete the local session")
	c.io.Println("  status                       Show session status")
	c.io.Println("  contacts list                List your contacts")
	c.io.Println("  contacts add                 Add a contact")
	c.io.Println("  contacts get <id>            Show contact details")
	c.io.Println("  contacts update <id>         Update a contact")
	c.io.Println("  contacts delete <id>         Delete a contact")
	c.io.Println()
	c.io.Println("Examples:")
	c.io.Println("  contactkeeper register")
	c.io.Println("  contactkeeper login")
	c.io.Println("  contactkeeper contacts list")
	c.io.Println("  contactkeeper --server https://example.com login")
}
