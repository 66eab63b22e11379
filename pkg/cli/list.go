package cli

import (
	"flag"
	"fmt"
	"sort"

	"github.com/rolevault/rolevault/pkg/rbac"
)

func newListCommand() *Command {
	cmd := &Command{
		Name:        "list",
		Description: "List stored items, assignments or rules",
		Flags:       flag.NewFlagSet("list", flag.ExitOnError),
	}

	kind := cmd.Flags.String("kind", "items", "What to list: items, roles, permissions, assignments or rules")
	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		return runList(*kind)
	}
	return cmd
}

func runList(kind string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	switch kind {
	case "items":
		all, err := e.items.GetAll()
		if err != nil {
			return err
		}
		printItems(all)
	case "roles":
		roles, err := e.items.GetRoles()
		if err != nil {
			return err
		}
		printItems(roles)
	case "permissions":
		perms, err := e.items.GetPermissions()
		if err != nil {
			return err
		}
		printItems(perms)
	case "assignments":
		all, err := e.assignments.GetAll()
		if err != nil {
			return err
		}
		userIDs := make([]string, 0, len(all))
		for userID := range all {
			userIDs = append(userIDs, userID)
		}
		sort.Strings(userIDs)
		for _, userID := range userIDs {
			names := make([]string, 0, len(all[userID]))
			for name := range all[userID] {
				names = append(names, name)
			}
			sort.Strings(names)
			fmt.Printf("%s: %v\n", userID, names)
		}
	case "rules":
		for _, name := range e.rules.Names() {
			fmt.Println(name)
		}
	default:
		return fmt.Errorf("unknown kind: %s", kind)
	}
	return nil
}

func printItems(itemsByName map[string]*rbac.Item) {
	names := make([]string, 0, len(itemsByName))
	for name := range itemsByName {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		item := itemsByName[name]
		line := fmt.Sprintf("%-12s %s", item.Type, item.Name)
		if item.RuleName != "" {
			line += fmt.Sprintf(" (rule: %s)", item.RuleName)
		}
		fmt.Println(line)
	}
}
