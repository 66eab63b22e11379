package cli

import (
	"flag"
	"fmt"
	"os"
	"sort"
)

// Command represents a CLI command
type Command struct {
	Name        string
	Description string
	Run         func(args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet
}

// NewRootCommand creates the root command
func NewRootCommand() *Command {
	root := &Command{
		Name:        "rolevault",
		Description: "Rolevault - file-backed RBAC storage CLI",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("rolevault", flag.ExitOnError),
	}

	root.Subcommands["list"] = newListCommand()
	root.Subcommands["tree"] = newTreeCommand()
	root.Subcommands["assign"] = newAssignCommand()
	root.Subcommands["revoke"] = newRevokeCommand()
	root.Subcommands["watch"] = newWatchCommand()
	root.Subcommands["audit"] = newAuditCommand()

	return root
}

// Execute runs the command
func (c *Command) Execute() error {
	args := os.Args[1:]
	if len(args) == 0 {
		return c.usage()
	}

	if args[0] == "-h" || args[0] == "--help" {
		return c.usage()
	}

	if subcmd, ok := c.Subcommands[args[0]]; ok {
		return subcmd.Run(args[1:])
	}

	return fmt.Errorf("unknown command: %s", args[0])
}

// subcommandNames returns the registered subcommand names in sorted order
func (c *Command) subcommandNames() []string {
	names := make([]string, 0, len(c.Subcommands))
	for name := range c.Subcommands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// usage prints the command usage
func (c *Command) usage() error {
	fmt.Printf("Usage: %s <command> [args]\n\n", c.Name)
	fmt.Printf("Commands:\n")
	for _, name := range c.subcommandNames() {
		fmt.Printf("  %-15s %s\n", name, c.Subcommands[name].Description)
	}
	return nil
}
