// Package flags defines svault node specific command line flags.
package flags

import (
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"
)

var (
	// APIHost defines the address the staking JSON API listens on.
	APIHost = altsrc.NewStringFlag(&cli.StringFlag{
		Name:  "api-host",
		Usage: "Host on which the staking API server runs",
		Value: "127.0.0.1",
	})
	// APIPort defines the port the staking JSON API listens on.
	APIPort = altsrc.NewIntFlag(&cli.IntFlag{
		Name:  "api-port",
		Usage: "Port on which the staking API server runs",
		Value: 4500,
	})
	// APICorsDomain defines the allowed cross origins for the staking API.
	APICorsDomain = altsrc.NewStringFlag(&cli.StringFlag{
		Name:  "api-cors-domain",
		Usage: "Comma separated list of domains from which to accept cross origin requests",
		Value: "*",
	})
	// MonitoringPortFlag defines the port used to serve prometheus metrics.
	MonitoringPortFlag = altsrc.NewIntFlag(&cli.IntFlag{
		Name:  "monitoring-port",
		Usage: "Port used to listening and respond metrics for prometheus",
		Value: 8080,
	})
	// EnableJournal turns on the SQL action journal.
	EnableJournal = altsrc.NewBoolFlag(&cli.BoolFlag{
		Name:  "enable-journal",
		Usage: "Persist every staking action into the SQL journal",
	})
	// JournalDBType selects the SQL journal backend.
	JournalDBType = altsrc.NewStringFlag(&cli.StringFlag{
		Name:  "journal-db-type",
		Usage: "SQL journal backend: sqlite or mysql",
		Value: "sqlite",
	})
)
