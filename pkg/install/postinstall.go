package install

import (
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/oradev/ora/pkg/recipe"
	"github.com/oradev/ora/pkg/template"
	"github.com/oradev/ora/pkg/ui"
)

// runPostInstall executes the recipe's post_install script under the
// configured shell and timeout. The script is shown first and requires an
// interactive yes unless --allow-insecure already consented. Failures are
// warned, never fatal: the package is deployed either way.
func (i *Installer) runPostInstall(ctx context.Context, rec *recipe.RepoConfig, installDir, version, mappedOS, mappedArch string, opts Options) {
	script := rec.Install.PostInstall
	if script == "" {
		return
	}

	ui.Info("Package %s declares a post-install script:", rec.Name)
	ui.Plain("%s", script)

	if !opts.AllowInsecure {
		ok, err := ui.Confirm("Run this script?", i.stdin)
		if err != nil {
			ui.Warning("Could not read confirmation, skipping post-install script")
			return
		}
		if !ok {
			ui.Warning("Post-install script skipped")
			return
		}
	}

	timeout := time.Duration(i.sec.Scripts.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	shell := i.sec.Scripts.Shell
	if shell == "" {
		shell = "sh"
	}

	cmd := exec.CommandContext(runCtx, shell, "-c", script)
	cmd.Dir = installDir
	cmd.Env = append(os.Environ(),
		"INSTALL_DIR="+installDir,
		"VERSION="+version,
	)
	vars := map[string]string{"version": version, "os": mappedOS, "arch": mappedArch}
	for key, raw := range rec.Install.Env {
		value, err := template.Resolve(raw, vars)
		if err != nil {
			ui.Warning("Skipping post-install env %s: %v", key, err)
			continue
		}
		cmd.Env = append(cmd.Env, key+"="+value)
	}

	output, err := cmd.CombinedOutput()
	if len(output) > 0 {
		log.Info().Str("package", rec.Name).Str("output", string(output)).Msg("Post-install script output")
	}
	if err != nil {
		ui.Warning("Post-install script failed: %v", err)
		return
	}
	log.Info().Str("package", rec.Name).Msg("Post-install script completed")
}
