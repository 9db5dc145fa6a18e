package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"
)

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

// Validate checks the configuration for values that would make an install
// step impossible to run.
func (c Config) Validate() []ValidationResult {
	var results []ValidationResult
	results = append(results, c.validateMesh()...)
	results = append(results, c.validateBundle()...)
	results = append(results, c.validateTools()...)
	results = append(results, c.validateMisc()...)
	return results
}

// Errors returns only the error-level findings joined into one error, or nil.
func Errors(results []ValidationResult) error {
	var msgs []string
	for _, r := range results {
		if r.Level == "error" {
			msgs = append(msgs, r.Message)
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func (c Config) validateMesh() []ValidationResult {
	var results []ValidationResult
	switch c.Mesh.InstallMethod {
	case MeshInstallPackage, MeshInstallScript:
	default:
		results = append(results, ValidationResult{
			Level:   "error",
			Message: fmt.Sprintf("mesh.install_method %q must be %q or %q", c.Mesh.InstallMethod, MeshInstallPackage, MeshInstallScript),
		})
	}
	for field, raw := range map[string]string{
		"mesh.package_url":         c.Mesh.PackageURL,
		"mesh.script_url":          c.Mesh.ScriptURL,
		"mesh.authkey_url":         c.Mesh.AuthKeyURL,
		"media.manager_script_url": c.Media.ManagerScriptURL,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("%s %q is not an http(s) URL", field, raw),
			})
		}
	}
	if len(c.Mesh.QuitGUICommand) == 0 {
		results = append(results, ValidationResult{
			Level:   "warning",
			Message: "mesh.quit_gui_command is empty; quit-gui is unavailable",
		})
	}
	sortResults(results)
	return results
}

func (c Config) validateBundle() []ValidationResult {
	var results []ValidationResult
	if !strings.HasPrefix(c.Bundle.PackageExt, ".") {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: fmt.Sprintf("bundle.package_ext %q must start with a dot", c.Bundle.PackageExt),
		})
	}
	hasPlaceholder := false
	for _, arg := range c.Bundle.InstallerCommand {
		if strings.Contains(arg, ArtifactPlaceholder) {
			hasPlaceholder = true
			break
		}
	}
	if !hasPlaceholder {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: fmt.Sprintf("bundle.installer_command must reference %s", ArtifactPlaceholder),
		})
	}
	return results
}

func (c Config) validateTools() []ValidationResult {
	var results []ValidationResult
	names := make([]string, 0, len(c.Tools))
	for name := range c.Tools {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if len(c.Tools[name].Candidates) == 0 && len(c.Tools[name].ProbeArgs) == 0 {
			results = append(results, ValidationResult{
				Level:   "warning",
				Message: fmt.Sprintf("tools.%s overrides nothing", name),
			})
		}
	}
	return results
}

func (c Config) validateMisc() []ValidationResult {
	var results []ValidationResult
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: fmt.Sprintf("log_level %q is not a valid level", c.LogLevel),
		})
	}
	if c.RawProbeTimeout != "" {
		if d, err := time.ParseDuration(c.RawProbeTimeout); err != nil || d <= 0 {
			results = append(results, ValidationResult{
				Level:   "warning",
				Message: fmt.Sprintf("probe_timeout %q is invalid; using %s", c.RawProbeTimeout, DefaultProbeTimeout),
			})
		}
	}
	switch c.Secrets.Backend {
	case SecretsKeyring, SecretsFile:
	default:
		results = append(results, ValidationResult{
			Level:   "error",
			Message: fmt.Sprintf("secrets.backend %q must be %q or %q", c.Secrets.Backend, SecretsKeyring, SecretsFile),
		})
	}
	return results
}

func sortResults(results []ValidationResult) {
	sort.SliceStable(results, func(i, j int) bool { return results[i].Message < results[j].Message })
}
