package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/iudanet/contactkeeper/pkg/api"
)

func (c *Cli) runContacts(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing subcommand. Usage: contactkeeper contacts <list|add|get|update|delete>")
	}

	sub, rest := args[0], args[1:]

	switch sub {
	case "list", "ls":
		return c.runContactsList(ctx)
	case "add":
		return c.runContactsAdd(ctx)
	case "get":
		return c.runContactsGet(ctx, rest)
	case "update":
		return c.runContactsUpdate(ctx, rest)
	case "delete", "rm":
		return c.runContactsDelete(ctx, rest)
	default:
		return fmt.Errorf("unknown contacts subcommand: %s. Use: list, add, get, update or delete", sub)
	}
}

func (c *Cli) runContactsList(ctx context.Context) error {
	token, err := c.sessions.AccessToken(ctx)
	if err != nil {
		return err
	}

	contacts, err := c.contacts.ListContacts(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to list contacts: %w", err)
	}

	c.io.Println("=== Contacts ===")
	c.io.Println()

	if len(contacts) == 0 {
		c.io.Println("No contacts found.")
		c.io.Println("Use 'contactkeeper contacts add' to create one.")
		return nil
	}

	tw := tabwriter.NewWriter(c.io, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPHONE\tEMAIL")
	for _, contact := range contacts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", contact.ID, contact.FullName, contact.PhoneNumber, contact.Email)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to print contacts: %w", err)
	}

	c.io.Println()
	c.io.Printf("Total: %d contact(s)\n", len(contacts))

	return nil
}

func (c *Cli) runContactsAdd(ctx context.Context) error {
	c.io.Println("=== Add Contact ===")
	c.io.Println()

	var req api.CreateContactRequest
	var err error

	if req.FirstName, err = c.io.ReadInput("First name: "); err != nil {
		return fmt.Errorf("failed to read first name: %w", err)
	}
	if req.LastName, err = c.io.ReadInput("Last name: "); err != nil {
		return fmt.Errorf("failed to read last name: %w", err)
	}
	if req.PhoneNumber, err = c.io.ReadInput("Phone number: "); err != nil {
		return fmt.Errorf("failed to read phone number: %w", err)
	}
	if req.Email, err = c.io.ReadInput("Email (optional): "); err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}

	token, err := c.sessions.AccessToken(ctx)
	if err != nil {
		return err
	}

	contact, err := c.contacts.CreateContact(ctx, token, req)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}

	c.io.Println()
	c.io.Println("✓ Contact saved!")
	c.io.Printf("ID: %s\n", contact.ID)

	return nil
}

func (c *Cli) runContactsGet(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing contact ID. Usage: contactkeeper contacts get <id>")
	}

	token, err := c.sessions.AccessToken(ctx)
	if err != nil {
		return err
	}

	contact, err := c.contacts.GetContact(ctx, token, args[0])
	if err != nil {
		return fmt.Errorf("failed to get contact: %w", err)
	}

	c.io.Println("=== Contact Details ===")
	c.printContact(contact)

	return nil
}

// runContactsUpdate спрашивает каждое поле; пустой ввод оставляет значение без изменений
func (c *Cli) runContactsUpdate(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing contact ID. Usage: contactkeeper contacts update <id>")
	}
	id := args[0]

	token, err := c.sessions.AccessToken(ctx)
	if err != nil {
		return err
	}

	current, err := c.contacts.GetContact(ctx, token, id)
	if err != nil {
		return fmt.Errorf("failed to get contact: %w", err)
	}

	c.io.Println("=== Update Contact ===")
	c.io.Println("Press Enter to keep the current value.")
	c.io.Println()

	var req api.UpdateContactRequest
	fields := []struct {
		dst     **string
		label   string
		current string
	}{
		{dst: &req.FirstName, label: "First name", current: current.FirstName},
		{dst: &req.LastName, label: "Last name", current: current.LastName},
		{dst: &req.PhoneNumber, label: "Phone number", current: current.PhoneNumber},
		{dst: &req.Email, label: "Email", current: current.Email},
	}

	changed := false
	for _, f := range fields {
		value, err := c.io.ReadInput(fmt.Sprintf("%s [%s]: ", f.label, f.current))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", strings.ToLower(f.label), err)
		}
		if value == "" || value == f.current {
			continue
		}
		*f.dst = &value
		changed = true
	}

	if !changed {
		c.io.Println("Nothing to update.")
		return nil
	}

	updated, err := c.contacts.UpdateContact(ctx, token, id, req)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}

	c.io.Println()
	c.io.Println("✓ Contact updated!")
	c.printContact(updated)

	return nil
}

func (c *Cli) runContactsDelete(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing contact ID. Usage: contactkeeper contacts delete <id>")
	}
	id := args[0]

	token, err := c.sessions.AccessToken(ctx)
	if err != nil {
		return err
	}

	contact, err := c.contacts.GetContact(ctx, token, id)
	if err != nil {
		return fmt.Errorf("failed to get contact: %w", err)
	}

	c.io.Println("=== Delete Contact ===")
	c.printContact(contact)

	ok, err := c.confirm("Delete this contact? (y/N): ")
	if err != nil {
		return err
	}
	if !ok {
		c.io.Println("Deletion cancelled.")
		return nil
	}

	if err := c.contacts.DeleteContact(ctx, token, id); err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	c.io.Println("✓ Contact deleted")

	return nil
}
