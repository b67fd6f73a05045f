package main

import (
	"os"
	"runtime"
	runtimeDebug "runtime/debug"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/stakevault/svault/cmd/svault/flags"
	"github.com/stakevault/svault/node"
	"github.com/stakevault/svault/shared/cmd"
	"github.com/stakevault/svault/shared/logutil"
	"github.com/stakevault/svault/shared/version"
)

var appFlags = []cli.Flag{
	// API flags
	flags.APIHost,
	flags.APIPort,
	flags.APICorsDomain,

	flags.MonitoringPortFlag,

	// journal flags
	flags.EnableJournal,
	flags.JournalDBType,
	cmd.SQLConfigPath,

	cmd.DataDirFlag,
	cmd.LogFileName,
	cmd.ConfigFileFlag,
	cmd.StakingConfigFileFlag,
	cmd.VerbosityFlag,

	// db flags
	cmd.BoltMMapInitialSizeFlag,
	cmd.ClearDB,
	cmd.ForceClearDB,

	// tracing flags
	cmd.EnableTracingFlag,
	cmd.TracingProcessNameFlag,
	cmd.TraceSampleFractionFlag,
}

var log = logrus.WithField("prefix", "main")

func main() {
	app := cli.App{}
	app.Name = "svault"
	app.Usage = "Token staking vault with tiered boost rewards"
	app.Action = startNode
	app.Version = version.Version()
	app.Commands = []*cli.Command{}

	app.Flags = appFlags

	app.Before = func(ctx *cli.Context) error {
		// Load cmd from config file, if specified.
		if err := cmd.LoadFlagsFromConfig(ctx, app.Flags); err != nil {
			return err
		}

		logrus.SetFormatter(&nested.Formatter{
			HideKeys:        true,
			FieldsOrder:     []string{"component", "category"},
			TimestampFormat: "2006-01-02 15:04:05.000",
		})

		logFileName := ctx.String(cmd.LogFileName.Name)
		if logFileName != "" {
			if err := logutil.ConfigurePersistentLogging(logFileName); err != nil {
				log.WithError(err).Error("Failed to configuring logging to disk.")
			}
		}

		level, err := logrus.ParseLevel(ctx.String(cmd.VerbosityFlag.Name))
		if err != nil {
			return err
		}
		logrus.SetLevel(level)

		runtime.GOMAXPROCS(runtime.NumCPU())

		return cmd.ValidateNoArgs(ctx)
	}

	defer func() {
		if x := recover(); x != nil {
			log.Errorf("Runtime panic: %v\n%v", x, string(runtimeDebug.Stack()))
			panic(x)
		}
	}()

	if err := app.Run(os.Args); err != nil {
		log.Error(err.Error())
	}
}

func startNode(ctx *cli.Context) error {
	vault, err := node.New(ctx)
	if err != nil {
		return err
	}

	vault.Start()
	return nil
}
