package cli

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rolevault/rolevault/pkg/filestore"
)

func newWatchCommand() *Command {
	cmd := &Command{
		Name:        "watch",
		Description: "Watch the storage directory and log external writes",
		Flags:       flag.NewFlagSet("watch", flag.ExitOnError),
	}

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		return runWatch()
	}
	return cmd
}

func runWatch() error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	files := []string{
		e.cfg.Storage.ItemsFile,
		e.cfg.Storage.AssignmentsFile,
		e.cfg.Storage.RulesFile,
	}
	watcher, err := filestore.NewWatcher(e.cfg.Storage.Dir, files, func(path string) {
		fmt.Printf("changed: %s\n", path)
	}, e.logger)
	if err != nil {
		return err
	}
	defer watcher.Close()

	fmt.Printf("watching %s (ctrl-c to stop)\n", e.cfg.Storage.Dir)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	return nil
}
