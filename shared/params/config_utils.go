package params

import (
	"io/ioutil"

	"github.com/mohae/deepcopy"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

var stakingConfig = DefaultConfig()

// VaultConfig retrieves the staking vault config.
func VaultConfig() *StakingConfig {
	return stakingConfig
}

// OverrideVaultConfig by replacing the config. The preferred pattern is to
// call VaultConfig(), change the specific parameters, and then call
// OverrideVaultConfig(c). Any subsequent calls to params.VaultConfig() will
// return this new configuration.
func OverrideVaultConfig(c *StakingConfig) {
	stakingConfig = c
}

// Copy returns a copy of the config object.
func (c *StakingConfig) Copy() *StakingConfig {
	config, ok := deepcopy.Copy(*c).(StakingConfig)
	if !ok {
		config = *stakingConfig
	}
	return &config
}

// LoadConfigFile loads staking config from the given yaml file
// and overrides the process config with it.
func LoadConfigFile(path string) error {
	data, err := ioutil.ReadFile(path) // #nosec G304
	if err != nil {
		return errors.Wrap(err, "can't read staking config file")
	}

	config := DefaultConfig().Copy()
	if err := yaml.Unmarshal(data, config); err != nil {
		return errors.Wrap(err, "can't unmarshal staking config file")
	}

	OverrideVaultConfig(config)
	return nil
}
