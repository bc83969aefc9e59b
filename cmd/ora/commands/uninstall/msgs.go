package uninstall

// Message constants
const (
	MsgShort = "Uninstall a package"
	MsgLong  = `Uninstall removes a package's bin symlinks, its install directory, and
its entry in the installed database. Missing symlinks are tolerated so a
partially cleaned install can still be removed.`
)
