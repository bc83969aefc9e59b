package update

// Message constants
const (
	MsgShort = "Update packages to their latest stable release"
	MsgLong  = `Update reinstalls a package at the latest stable version its recipe
discovers. An update is an uninstall followed by an install; nothing is
patched in place. With --all every installed package is tried, continuing
past individual failures.

A package originally installed with --allow-insecure keeps that consent
across updates.`
)
