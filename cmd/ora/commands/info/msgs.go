package info

// Message constants
const (
	MsgShort = "Show details about a package"
	MsgLong  = `Info combines the recipe's metadata from the registries with the local
install state, when the package is installed.`
)
