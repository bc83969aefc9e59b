package registry

// Message constants
const (
	MsgShort = "Manage recipe registries"
	MsgLong  = `Registries hold the recipes ora installs from. A registry is either a
Git repository (synced as a shallow clone) or a single recipe served over
HTTPS. Lookups consult enabled registries in configured order; the first
match wins.`

	MsgAddShort       = "Add a registry"
	MsgListShort      = "List configured registries"
	MsgRemoveShort    = "Remove a registry and its synced clone"
	MsgSyncShort      = "Sync registries from their remotes"
	MsgVerifyShort    = "Report per-registry sync status"
	MsgUpdatePinShort = "Record a TLS fingerprint pin for a registry"

	MsgAdded        = "Added registry %q"
	MsgRemoved      = "Removed registry %q"
	MsgSynced       = "Synced registry %q"
	MsgSyncedAll    = "Synced all registries"
	MsgPinUpdated   = "Updated pin for registry %q"
	MsgNoRegistries = "No registries configured."
)
