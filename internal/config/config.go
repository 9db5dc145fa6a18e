package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultProbeTimeout bounds a single liveness probe.
const DefaultProbeTimeout = 5 * time.Second

// Install methods for the mesh client on a networked bootstrap.
const (
	MeshInstallPackage = "package"
	MeshInstallScript  = "script"
)

// Secret store backends.
const (
	SecretsKeyring = "keyring"
	SecretsFile    = "file"
)

// ArtifactPlaceholder is substituted with the artifact path in installer
// command templates.
const ArtifactPlaceholder = "{artifact}"

// Config captures host provisioning settings.
type Config struct {
	Version         int                   `yaml:"version"`
	AppName         string                `yaml:"app_name"`
	LogLevel        string                `yaml:"log_level"`
	RawProbeTimeout string                `yaml:"probe_timeout"`
	Dirs            DirsConfig            `yaml:"dirs"`
	Tools           map[string]ToolConfig `yaml:"tools,omitempty"`
	ToolFiles       []string              `yaml:"tool_files,omitempty"`
	Mesh            MeshConfig            `yaml:"mesh"`
	Media           MediaConfig           `yaml:"media"`
	Messaging       MessagingConfig       `yaml:"messaging"`
	Bundle          BundleConfig          `yaml:"bundle"`
	Secrets         SecretsConfig         `yaml:"secrets"`
	Metrics         MetricsConfig         `yaml:"metrics"`
}

// DirsConfig overrides the per-user locations. Empty values use the platform
// defaults.
type DirsConfig struct {
	Support   string `yaml:"support,omitempty"`
	Logs      string `yaml:"logs,omitempty"`
	Resources string `yaml:"resources,omitempty"`
	Export    string `yaml:"export,omitempty"`
}

// ToolConfig replaces the built-in candidate list or probe for one tool.
type ToolConfig struct {
	Candidates []string `yaml:"candidates,omitempty"`
	ProbeArgs  []string `yaml:"probe_args,omitempty"`
}

// MeshConfig configures the mesh client.
type MeshConfig struct {
	InstallMethod    string   `yaml:"install_method"`
	PackageURL       string   `yaml:"package_url"`
	PackagePath      string   `yaml:"package_path"`
	ScriptURL        string   `yaml:"script_url"`
	QuitGUICommand   []string `yaml:"quit_gui_command,omitempty"`
	AuthKeyURL       string   `yaml:"authkey_url,omitempty"`
	OperatorTokenKey string   `yaml:"operator_token_key"`
}

// MediaConfig configures the media toolkit install.
type MediaConfig struct {
	Packages         []string `yaml:"packages"`
	ManagerScriptURL string   `yaml:"manager_script_url"`
}

// MessagingConfig configures the messaging binding install.
type MessagingConfig struct {
	Packages    []string `yaml:"packages"`
	WheelPrefix string   `yaml:"wheel_prefix"`
	ImportCheck string   `yaml:"import_check"`
}

// BundleConfig describes the layout of the bundled resources directory.
type BundleConfig struct {
	PackageExt       string   `yaml:"package_ext"`
	InstallerCommand []string `yaml:"installer_command"`
	MeshDir          string   `yaml:"mesh_dir"`
	MeshPrefix       string   `yaml:"mesh_prefix"`
	MediaDir         string   `yaml:"media_dir"`
	MediaPrefix      string   `yaml:"media_prefix"`
	WheelsDir        string   `yaml:"wheels_dir"`
}

// SecretsConfig selects the secret store.
type SecretsConfig struct {
	Backend string `yaml:"backend"`
	Service string `yaml:"service"`
}

// MetricsConfig controls the optional prometheus textfile.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// ProbeTimeout returns the configured probe timeout or the default.
func (c Config) ProbeTimeout() time.Duration {
	if c.RawProbeTimeout != "" {
		d, err := time.ParseDuration(c.RawProbeTimeout)
		if err == nil && d > 0 {
			return d
		}
	}
	return DefaultProbeTimeout
}

// Default returns the baseline configuration for the running host.
func Default() Config {
	return DefaultFor(runtime.GOOS)
}

// DefaultFor returns the baseline configuration for goos.
func DefaultFor(goos string) Config {
	cfg := Config{
		Version:         1,
		AppName:         "teleop",
		LogLevel:        "info",
		RawProbeTimeout: DefaultProbeTimeout.String(),
		Mesh: MeshConfig{
			InstallMethod:    MeshInstallScript,
			PackageURL:       "https://pkgs.tailscale.com/stable/Tailscale.pkg",
			PackagePath:      "/tmp/Tailscale.pkg",
			ScriptURL:        "https://tailscale.com/install.sh",
			OperatorTokenKey: "operator_token",
		},
		Media: MediaConfig{
			Packages:         []string{"gstreamer", "gst-plugins-base", "gst-plugins-good", "gst-plugins-bad", "gst-libav"},
			ManagerScriptURL: "https://raw.githubusercontent.com/Homebrew/install/HEAD/install.sh",
		},
		Messaging: MessagingConfig{
			Packages:    []string{"pyzmq"},
			WheelPrefix: "pyzmq",
			ImportCheck: "import zmq,sys;print(zmq.__version__)",
		},
		Bundle: BundleConfig{
			PackageExt:       ".deb",
			InstallerCommand: []string{"sudo", "-n", "dpkg", "-i", ArtifactPlaceholder},
			MeshDir:          "resources/tailscale",
			MeshPrefix:       "tailscale",
			MediaDir:         "resources/gstreamer",
			MediaPrefix:      "gstreamer",
			WheelsDir:        "resources/python-wheels",
		},
		Secrets: SecretsConfig{
			Backend: SecretsKeyring,
			Service: "teleop-ui",
		},
	}

	switch goos {
	case "darwin":
		cfg.Mesh.InstallMethod = MeshInstallPackage
		cfg.Mesh.QuitGUICommand = []string{"osascript", "-e", `tell application "Tailscale" to quit`}
		cfg.Bundle.PackageExt = ".pkg"
		cfg.Bundle.InstallerCommand = []string{"/usr/sbin/installer", "-pkg", ArtifactPlaceholder, "-target", "/"}
	case "windows":
		cfg.Mesh.InstallMethod = MeshInstallPackage
		cfg.Mesh.PackageURL = "https://pkgs.tailscale.com/stable/tailscale-setup-latest.msi"
		cfg.Mesh.PackagePath = `C:\Windows\Temp\tailscale-setup.msi`
		cfg.Mesh.QuitGUICommand = []string{"taskkill", "/IM", "tailscale-ipn.exe", "/F"}
		cfg.Bundle.PackageExt = ".msi"
		cfg.Bundle.InstallerCommand = []string{"msiexec", "/i", ArtifactPlaceholder, "/qn"}
	}
	return cfg
}

// Load reads the YAML configuration from disk if it exists, otherwise returns
// the default configuration.
func Load(path string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.loadToolFiles(filepath.Dir(path)); err != nil {
		return Config{}, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults ensures fields fall back to sensible defaults when the YAML
// blanks them out.
func (c *Config) ApplyDefaults() {
	defaults := Default()

	if c.Version == 0 {
		c.Version = defaults.Version
	}
	if c.AppName == "" {
		c.AppName = defaults.AppName
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.Mesh.InstallMethod == "" {
		c.Mesh.InstallMethod = defaults.Mesh.InstallMethod
	}
	if c.Mesh.PackageURL == "" {
		c.Mesh.PackageURL = defaults.Mesh.PackageURL
	}
	if c.Mesh.PackagePath == "" {
		c.Mesh.PackagePath = defaults.Mesh.PackagePath
	}
	if c.Mesh.ScriptURL == "" {
		c.Mesh.ScriptURL = defaults.Mesh.ScriptURL
	}
	if c.Mesh.OperatorTokenKey == "" {
		c.Mesh.OperatorTokenKey = defaults.Mesh.OperatorTokenKey
	}
	if len(c.Media.Packages) == 0 {
		c.Media.Packages = defaults.Media.Packages
	}
	if c.Media.ManagerScriptURL == "" {
		c.Media.ManagerScriptURL = defaults.Media.ManagerScriptURL
	}
	if len(c.Messaging.Packages) == 0 {
		c.Messaging.Packages = defaults.Messaging.Packages
	}
	if c.Messaging.WheelPrefix == "" {
		c.Messaging.WheelPrefix = defaults.Messaging.WheelPrefix
	}
	if c.Messaging.ImportCheck == "" {
		c.Messaging.ImportCheck = defaults.Messaging.ImportCheck
	}
	if c.Bundle.PackageExt == "" {
		c.Bundle.PackageExt = defaults.Bundle.PackageExt
	}
	if len(c.Bundle.InstallerCommand) == 0 {
		c.Bundle.InstallerCommand = defaults.Bundle.InstallerCommand
	}
	if c.Bundle.MeshDir == "" {
		c.Bundle.MeshDir = defaults.Bundle.MeshDir
	}
	if c.Bundle.MeshPrefix == "" {
		c.Bundle.MeshPrefix = defaults.Bundle.MeshPrefix
	}
	if c.Bundle.MediaDir == "" {
		c.Bundle.MediaDir = defaults.Bundle.MediaDir
	}
	if c.Bundle.MediaPrefix == "" {
		c.Bundle.MediaPrefix = defaults.Bundle.MediaPrefix
	}
	if c.Bundle.WheelsDir == "" {
		c.Bundle.WheelsDir = defaults.Bundle.WheelsDir
	}
	if c.Secrets.Backend == "" {
		c.Secrets.Backend = defaults.Secrets.Backend
	}
	if c.Secrets.Service == "" {
		c.Secrets.Service = defaults.Secrets.Service
	}
}

// Marshal returns the YAML encoding of the configuration.
func (c Config) Marshal() ([]byte, error) {
	buf, err := yaml.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}
