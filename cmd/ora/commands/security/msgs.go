package security

// Message constants
const (
	MsgShort = "Manage the security policy"
	MsgLong  = `The security policy bounds ora's hardened code paths: network access,
archive extraction, script execution, and registry Git operations. When
no policy file exists, conservative built-in defaults apply.`

	MsgInitShort = "Write the default policy file"
	MsgShowShort = "Print the effective policy"
	MsgResetShort = "Overwrite the policy file with the defaults"

	MsgInitialized = "Wrote default security policy to %s"
	MsgReset       = "Reset security policy at %s"
)
