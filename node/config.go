package node

import (
	"github.com/urfave/cli/v2"

	"github.com/stakevault/svault/shared/cmd"
	"github.com/stakevault/svault/shared/params"
	"github.com/stakevault/svault/shared/tracing"
)

// configureTracing setups opencensus tracing settings
func configureTracing(cliCtx *cli.Context) error {
	return tracing.Setup(
		"svault", // service name
		cliCtx.String(cmd.TracingProcessNameFlag.Name),
		cliCtx.Float64(cmd.TraceSampleFractionFlag.Name),
		cliCtx.Bool(cmd.EnableTracingFlag.Name),
	)
}

// configureStakingConfig gets config from yaml file
func configureStakingConfig(cliCtx *cli.Context) error {
	if cliCtx.IsSet(cmd.StakingConfigFileFlag.Name) {
		configFileName := cliCtx.String(cmd.StakingConfigFileFlag.Name)
		return params.LoadConfigFile(configFileName)
	}

	return nil
}
