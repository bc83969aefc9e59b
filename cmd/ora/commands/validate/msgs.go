package validate

// Message constants
const (
	MsgShort = "Validate a recipe file"
	MsgLong  = `Validate parses a recipe file and reports every structural problem
instead of stopping at the first one.`
	MsgValid = "Recipe %q is valid"
)
