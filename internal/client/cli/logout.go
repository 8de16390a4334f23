package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/contactkeeper/internal/client/auth"
)

func (c *Cli) runLogout(ctx context.Context) error {
	err := c.sessions.Logout(ctx)
	switch {
	case errors.Is(err, auth.ErrNotAuthenticated):
		c.io.Println("Already logged out.")
		return nil
	case err != nil:
		return fmt.Errorf("logout failed: %w", err)
	}

	c.io.Println("✓ Logged out. Local session removed.")
	return nil
}
