package list

// Message constants
const (
	MsgShort      = "List installed packages"
	MsgLong       = "List shows every package recorded in the installed database."
	MsgNoPackages = "No packages installed."
)
