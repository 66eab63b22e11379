package cli

import (
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/rolevault/rolevault/pkg/items"
)

func newTreeCommand() *Command {
	cmd := &Command{
		Name:        "tree",
		Description: "Print an item's descendant tree, or its ancestors with -up",
		Flags:       flag.NewFlagSet("tree", flag.ExitOnError),
	}

	up := cmd.Flags.Bool("up", false, "Print ancestors instead of descendants")
	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		if cmd.Flags.NArg() != 1 {
			return fmt.Errorf("usage: tree [-up] <item>")
		}
		return runTree(cmd.Flags.Arg(0), *up)
	}
	return cmd
}

func runTree(name string, up bool) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	exists, err := e.items.Exists(name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("unknown item: %s", name)
	}

	if up {
		parents, err := e.items.GetParents(name)
		if err != nil {
			return err
		}
		names := make([]string, 0, len(parents))
		for parentName := range parents {
			names = append(names, parentName)
		}
		sort.Strings(names)
		fmt.Println(name)
		for _, parentName := range names {
			fmt.Printf("  <- %s\n", parentName)
		}
		return nil
	}

	fmt.Println(name)
	return printDescendants(e.items, name, 1, map[string]bool{name: true})
}

func printDescendants(store items.Storage, name string, depth int, visited map[string]bool) error {
	children, err := store.GetDirectChildren(name)
	if err != nil {
		return err
	}
	childNames := make([]string, 0, len(children))
	for childName := range children {
		childNames = append(childNames, childName)
	}
	sort.Strings(childNames)

	indent := strings.Repeat("  ", depth)
	for _, childName := range childNames {
		if visited[childName] {
			fmt.Printf("%s%s (cycle)\n", indent, childName)
			continue
		}
		visited[childName] = true
		fmt.Printf("%s%s\n", indent, childName)
		if err := printDescendants(store, childName, depth+1, visited); err != nil {
			return err
		}
	}
	return nil
}
