package ora

// Message constants
const (
	MsgRootShort = "A decentralized package manager for prebuilt binaries"
	MsgRootLong  = `ora installs prebuilt binary releases straight from upstream projects.
Given a declarative recipe, it discovers the latest release, downloads the
platform-appropriate archive, verifies its integrity, extracts it safely,
and links the binaries into your PATH. Recipes live in Git-backed
registries or standalone HTTP endpoints.`

	// Flag descriptions
	MsgFlagVerbose = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagDebug   = "Enable debug logging (same as -vv)"
)
