package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/kylerbrown/bark/config"
	"github.com/kylerbrown/bark/dataset"
)

var timestampLayouts = []string{
	"2006-01-02_15-04-05.999999999",
	"2006-01-02_15-04-05",
	"2006-01-02",
	time.RFC3339Nano,
}

// parseTimestamp parses YYYY-MM-DD, YYYY-MM-DD_HH-MM-SS.S or RFC 3339 in
// local time. Empty value means now.
func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Now(), nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("-t %s: unknown timestamp format", value)
}

type entryCommand struct {
	timestamp string
	parents   bool
	attrs     attrsFlag
}

func (cmd *entryCommand) Name() string {
	return "entry"
}

func (cmd *entryCommand) Help() string {
	return "Create a bark entry"
}

func (cmd *entryCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.timestamp, "t", "", "format: YYYY-MM-DD or YYYY-MM-DD_HH-MM-SS.S (default now)")
	fs.BoolVar(&cmd.parents, "p", false, "no error if already exists, new metadata written")
	fs.Var(&cmd.attrs, "a", "extra metadata in the form of KEY=VALUE")
}

func (cmd *entryCommand) Run(c config.Config, args []string) error {
	name, err := singleInput(args)
	if err != nil {
		return err
	}
	timestamp, err := parseTimestamp(cmd.timestamp)
	if err != nil {
		return err
	}
	_, err = dataset.CreateEntry(name, timestamp, cmd.parents, cmd.attrs.attrs())
	return err
}
