package params

import "os"

// IoConfig defines the shared io parameters.
type IoConfig struct {
	ReadWritePermissions        os.FileMode
	ReadWriteExecutePermissions os.FileMode
}

var vaultIoConfig = &IoConfig{
	ReadWritePermissions:        0600, //-rw------- Read and Write permissions for user
	ReadWriteExecutePermissions: 0700, //-rwx------ Read Write and Execute (traverse) permissions for user
}

// VaultIoConfig returns the shared io config.
func VaultIoConfig() *IoConfig {
	return vaultIoConfig
}
