package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/contactkeeper/pkg/api"
)

func (c *Cli) printContact(contact *api.Contact) {
	c.io.Println()
	c.io.Printf("Name:     %s\n", contact.FullName)
	c.io.Printf("ID:       %s\n", contact.ID)
	c.io.Printf("Phone:    %s\n", contact.PhoneNumber)
	if contact.Email != "" {
		c.io.Printf("Email:    %s\n", contact.Email)
	}
	if !contact.UpdatedAt.IsZero() {
		c.io.Printf("Updated:  %s\n", contact.UpdatedAt.Local().Format(time.DateTime))
	}
	c.io.Println()
}

// confirm принимает только явное "y" или "yes"
func (c *Cli) confirm(prompt string) (bool, error) {
	answer, err := c.io.ReadInput(prompt)
	if err != nil {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}
