package cli

import (
	"flag"
	"fmt"

	"github.com/rolevault/rolevault/pkg/audit"
	"github.com/rolevault/rolevault/pkg/config"
)

func newAuditCommand() *Command {
	cmd := &Command{
		Name:        "audit",
		Description: "Print recorded mutation events",
		Flags:       flag.NewFlagSet("audit", flag.ExitOnError),
	}

	count := cmd.Flags.Int("n", 0, "Maximum events to print, zero for all")
	asJSON := cmd.Flags.Bool("json", false, "Print events as JSON lines")
	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		return runAudit(*count, *asJSON)
	}
	return cmd
}

func runAudit(count int, asJSON bool) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	recorder, err := audit.NewFileRecorder(audit.FileRecorderConfig{
		Dir:      cfg.Audit.Dir,
		Rotate:   false,
		MaxSize:  cfg.Audit.MaxSize,
		MaxFiles: cfg.Audit.MaxFiles,
	})
	if err != nil {
		return err
	}
	defer recorder.Close()

	events, err := recorder.ReadEvents(count)
	if err != nil {
		return err
	}
	for _, event := range events {
		if asJSON {
			encoded, err := event.ToJSON()
			if err != nil {
				return err
			}
			fmt.Println(string(encoded))
			continue
		}
		line := fmt.Sprintf("%s %s/%s", event.Time.Format("2006-01-02 15:04:05"), event.Store, event.Op)
		if event.Name != "" {
			line += " " + event.Name
		}
		if event.UserID != "" {
			line += " user=" + event.UserID
		}
		fmt.Println(line)
	}
	return nil
}
