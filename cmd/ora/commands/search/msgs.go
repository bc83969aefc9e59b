package search

// Message constants
const (
	MsgShort     = "Search synced registries for packages"
	MsgLong      = "Search matches the query against recipe names and descriptions in every synced registry."
	MsgNoMatches = "No packages match %q."
)
