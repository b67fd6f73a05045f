// Package cmd defines the command line flags for the shared utlities.
package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"
)

var (
	// ForceClearDB removes any previously stored data at the data directory.
	ForceClearDB = &cli.BoolFlag{
		Name:  "force-clear-db",
		Usage: "Clear any previously stored data at the data directory",
	}
	// ClearDB prompts user to see if they want to remove any previously stored data at the data directory.
	ClearDB = &cli.BoolFlag{
		Name:  "clear-db",
		Usage: "Prompt for clearing any previously stored data at the data directory",
	}

	// SQLConfigPath setups path to the journal database config file.
	SQLConfigPath = altsrc.NewStringFlag(&cli.StringFlag{
		Name:  "sql-cfg",
		Usage: "Config file path with SQL journal user and password",
	})

	// DataDirFlag defines a path on disk.
	DataDirFlag = altsrc.NewStringFlag(&cli.StringFlag{
		Name:  "datadir",
		Usage: "Data directory for the ledger database and journal",
		Value: DefaultDataDir(),
	})
	// LogFileName specifies the log output file name.
	LogFileName = altsrc.NewStringFlag(&cli.StringFlag{
		Name:  "log-file",
		Usage: "Specify log file name, relative or absolute",
	})
	// ConfigFileFlag specifies the filepath to load flag values.
	ConfigFileFlag = &cli.StringFlag{
		Name:  "config-file",
		Usage: "The filepath to a yaml file with flag values",
	}
	// StakingConfigFileFlag specifies the filepath to load staking config values.
	StakingConfigFileFlag = &cli.StringFlag{
		Name:  "staking-config-file",
		Usage: "The path to a YAML file with staking config values",
	}
	// VerbosityFlag specifies the logging level
	VerbosityFlag = altsrc.NewStringFlag(&cli.StringFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity (trace, debug, info=default, warn, error, fatal, panic)",
		Value: "info",
	})
	// BoltMMapInitialSizeFlag specifies the initial size in bytes of boltdb's mmap syscall.
	BoltMMapInitialSizeFlag = altsrc.NewIntFlag(&cli.IntFlag{
		Name:  "bolt-mmap-initial-size",
		Usage: "Specifies the size in bytes of bolt db's mmap syscall allocation",
		Value: 536870912, // 512Mb
	})

	// EnableTracingFlag defines a flag to enable opencensus tracing.
	EnableTracingFlag = altsrc.NewBoolFlag(&cli.BoolFlag{
		Name:  "enable-tracing",
		Usage: "Enable request tracing",
	})
	// TracingProcessNameFlag defines a flag to specify a process name.
	TracingProcessNameFlag = altsrc.NewStringFlag(&cli.StringFlag{
		Name:  "tracing-process-name",
		Usage: "The name to apply to tracing tag process_name",
	})
	// TraceSampleFractionFlag defines a flag to indicate what fraction of requests are sampled for tracing.
	TraceSampleFractionFlag = altsrc.NewFloat64Flag(&cli.Float64Flag{
		Name:  "trace-sample-fraction",
		Usage: "Indicate what fraction of requests are sampled for tracing",
		Value: 0.20,
	})
)

// LoadFlagsFromConfig sets flags values from config file if ConfigFileFlag is set.
func LoadFlagsFromConfig(cliCtx *cli.Context, flags []cli.Flag) error {
	if cliCtx.IsSet(ConfigFileFlag.Name) {
		if err := altsrc.InitInputSourceWithContext(flags, altsrc.NewYamlSourceFromFlagFunc(ConfigFileFlag.Name))(cliCtx); err != nil {
			return err
		}
	}

	return nil
}

// ConfirmAction uses the passed in actionText as the confirmation text displayed in the terminal.
// The user must enter Y or N to indicate whether they approve the action. An error is returned
// if the user does not respond with an expected answer.
func ConfirmAction(actionText, deniedText string) (bool, error) {
	reader := bufio.NewReader(os.Stdin)
	fmt.Println(actionText)

	line, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}

	trimmed := strings.TrimSpace(line)
	if strings.EqualFold(trimmed, "y") || strings.EqualFold(trimmed, "yes") {
		return true, nil
	}

	fmt.Println(deniedText)
	return false, nil
}

// ValidateNoArgs insures that the application is not run with erroneous arguments or flags.
// This function should be used in the app.Before, whenever the application supports a default command.
func ValidateNoArgs(ctx *cli.Context) error {
	commandList := ctx.App.Commands
	parentCommand := ctx.Command
	isParamForFlag := false
	for _, a := range ctx.Args().Slice() {
		// We don't validate further if
		// the following value is actually
		// a parameter for a flag.
		if isParamForFlag {
			isParamForFlag = false
			continue
		}
		if strings.HasPrefix(a, "-") || strings.HasPrefix(a, "--") {
			// In the event our flag doesn't specify
			// the relevant argument with an equal
			// sign, we can assume the next argument
			// is the relevant value for the flag.
			flagName := strings.TrimPrefix(a, "--")
			flagName = strings.TrimPrefix(flagName, "-")
			if !strings.Contains(a, "=") && !isBoolFlag(parentCommand, flagName) {
				isParamForFlag = true
			}
			continue
		}
		c := checkCommandList(commandList, a)
		if c == nil {
			return fmt.Errorf("unrecognized argument: %s", a)
		}
		// Set the command list as the subcommand's
		// from the current selected parent command.
		commandList = c.Subcommands
		parentCommand = c
	}
	return nil
}

// verifies that the provided command is in the command list.
func checkCommandList(commands []*cli.Command, name string) *cli.Command {
	for _, c := range commands {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func isBoolFlag(com *cli.Command, name string) bool {
	for _, f := range com.Flags {
		switch bFlag := f.(type) {
		case *cli.BoolFlag:
			if bFlag.Name == name {
				return true
			}
		case *altsrc.BoolFlag:
			if bFlag.Name == name {
				return true
			}
		}
	}
	return false
}
