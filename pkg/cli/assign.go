package cli

import (
	"flag"
	"fmt"

	"github.com/rolevault/rolevault/pkg/rbac"
)

func newAssignCommand() *Command {
	cmd := &Command{
		Name:        "assign",
		Description: "Grant an item to a user",
		Flags:       flag.NewFlagSet("assign", flag.ExitOnError),
	}

	user := cmd.Flags.String("user", "", "User ID")
	item := cmd.Flags.String("item", "", "Item name")
	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		if *user == "" || *item == "" {
			return fmt.Errorf("usage: assign -user <id> -item <name>")
		}
		return runAssign(*user, *item)
	}
	return cmd
}

func runAssign(userID, itemName string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	exists, err := e.items.Exists(itemName)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("unknown item: %s", itemName)
	}

	if err := e.assignments.Add(rbac.NewAssignment(userID, itemName, 0)); err != nil {
		return err
	}
	fmt.Printf("assigned %s to %s\n", itemName, userID)
	return nil
}

func newRevokeCommand() *Command {
	cmd := &Command{
		Name:        "revoke",
		Description: "Revoke an item from a user, or all grants with -all",
		Flags:       flag.NewFlagSet("revoke", flag.ExitOnError),
	}

	user := cmd.Flags.String("user", "", "User ID")
	item := cmd.Flags.String("item", "", "Item name")
	all := cmd.Flags.Bool("all", false, "Revoke every grant the user holds")
	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		if *user == "" {
			return fmt.Errorf("usage: revoke -user <id> [-item <name> | -all]")
		}
		return runRevoke(*user, *item, *all)
	}
	return cmd
}

func runRevoke(userID, itemName string, all bool) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if all {
		if err := e.assignments.RemoveByUserID(userID); err != nil {
			return err
		}
		fmt.Printf("revoked all grants from %s\n", userID)
		return nil
	}
	if itemName == "" {
		return fmt.Errorf("usage: revoke -user <id> [-item <name> | -all]")
	}
	if err := e.assignments.Remove(itemName, userID); err != nil {
		return err
	}
	fmt.Printf("revoked %s from %s\n", itemName, userID)
	return nil
}
