package configcmd

// Message constants
const (
	MsgShort = "Manage the global configuration"
	MsgLong  = `The global configuration holds the registry list, install defaults,
aliases, and warning suppressions. A missing file means defaults.`

	MsgShowShort   = "Print the effective configuration"
	MsgVerifyShort = "Check the configuration for structural problems"
	MsgInitShort   = "Write a default configuration file"

	MsgValid       = "Configuration is valid"
	MsgInitialized = "Wrote default configuration to %s"
)
