package install

// Message constants
const (
	MsgShort = "Install a package"
	MsgLong  = `Install discovers the requested package's latest stable release (or an
exact --version), downloads the platform-appropriate archive, verifies it
against its published checksum, extracts it, and links its binaries into
your PATH.

Packages are looked up in the configured registries in order. A name can
pin a registry with name@registry, or come from a local recipe file with
--repo. A local archive can be installed without any download using
--local plus --metadata.`

	MsgExample = `  # Install the latest stable release
  ora install ripgrep

  # Pin a version and a registry
  ora install ripgrep@main --version 14.1.0

  # Install from a recipe file
  ora install --repo ./ripgrep.repo ripgrep

  # Install a local archive
  ora install --local ./tool.tar.gz --metadata ./tool.toml`
)
