package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"teleop/internal/config"
)

// SupportDirEnv overrides the per-user support directory.
const SupportDirEnv = "TELEOP_SUPPORT_DIR"

// Fixed file names inside the support and logs directories.
const (
	MarkerName     = "bootstrap_done"
	VenvName       = "venv"
	StateDBName    = "state.db"
	ConfigName     = "config.yaml"
	SecretsName    = "secrets.age"
	SecretsKeyName = "secrets.key"
	LogFileName    = "new_user_debug.log"
)

// HostPaths captures the canonical per-user locations used by teleop.
type HostPaths struct {
	SupportDir   string
	ConfigFile   string
	MarkerFile   string
	VenvDir      string
	StateDB      string
	SecretsFile  string
	SecretsKey   string
	LogsDir      string
	LogFile      string
	ResourcesDir string
	ExportDir    string
	GOOS         string
}

// env abstracts the process environment so tests can resolve paths for any
// platform.
type env struct {
	goos   string
	home   string
	exe    string
	getenv func(string) string
}

// Resolve determines the host paths for the running process. A non-empty
// supportFlag wins over TELEOP_SUPPORT_DIR, which wins over the platform
// default.
func Resolve(supportFlag string) (HostPaths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return HostPaths{}, fmt.Errorf("detect user home: %w", err)
	}
	exe, err := os.Executable()
	if err != nil {
		return HostPaths{}, fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	hp := newHostPaths(env{goos: runtime.GOOS, home: home, exe: exe, getenv: os.Getenv})
	if supportFlag != "" {
		abs, err := filepath.Abs(supportFlag)
		if err != nil {
			return HostPaths{}, fmt.Errorf("resolve support dir: %w", err)
		}
		hp = hp.withSupportDir(abs)
	}
	return hp, nil
}

func newHostPaths(e env) HostPaths {
	var support, logs string
	switch e.goos {
	case "darwin":
		support = filepath.Join(e.home, "Library", "Application Support", "Teleop")
		logs = filepath.Join(e.home, "Library", "Logs", "teleop-ui")
	case "windows":
		base := e.getenv("LOCALAPPDATA")
		if base == "" {
			base = filepath.Join(e.home, "AppData", "Local")
		}
		support = filepath.Join(base, "Teleop")
		logs = filepath.Join(support, "logs")
	default:
		data := e.getenv("XDG_DATA_HOME")
		if data == "" {
			data = filepath.Join(e.home, ".local", "share")
		}
		state := e.getenv("XDG_STATE_HOME")
		if state == "" {
			state = filepath.Join(e.home, ".local", "state")
		}
		support = filepath.Join(data, "teleop")
		logs = filepath.Join(state, "teleop", "logs")
	}

	hp := HostPaths{
		LogsDir:      logs,
		LogFile:      filepath.Join(logs, LogFileName),
		ResourcesDir: resourcesDir(e.goos, e.exe),
		ExportDir:    filepath.Join(e.home, "Desktop"),
		GOOS:         e.goos,
	}
	if override := strings.TrimSpace(e.getenv(SupportDirEnv)); override != "" {
		support = override
	}
	return hp.withSupportDir(support)
}

// resourcesDir returns the bundled resources root relative to the executable:
// Contents/Resources inside a macOS app bundle, the executable's directory
// elsewhere.
func resourcesDir(goos, exe string) string {
	if exe == "" {
		return ""
	}
	dir := filepath.Dir(exe)
	if goos == "darwin" {
		return filepath.Join(dir, "..", "Resources")
	}
	return dir
}

func (p HostPaths) withSupportDir(dir string) HostPaths {
	p.SupportDir = dir
	p.ConfigFile = filepath.Join(dir, ConfigName)
	p.MarkerFile = filepath.Join(dir, MarkerName)
	p.VenvDir = filepath.Join(dir, VenvName)
	p.StateDB = filepath.Join(dir, StateDBName)
	p.SecretsFile = filepath.Join(dir, SecretsName)
	p.SecretsKey = filepath.Join(dir, SecretsKeyName)
	return p
}

// ApplyConfig applies directory overrides from cfg. The config file location
// itself is never moved.
func ApplyConfig(p HostPaths, cfg config.Config) HostPaths {
	configFile := p.ConfigFile
	if dir := strings.TrimSpace(cfg.Dirs.Support); dir != "" {
		p = p.withSupportDir(resolvePath(p.SupportDir, dir))
		p.ConfigFile = configFile
	}
	if dir := strings.TrimSpace(cfg.Dirs.Logs); dir != "" {
		p.LogsDir = resolvePath(p.SupportDir, dir)
		p.LogFile = filepath.Join(p.LogsDir, LogFileName)
	}
	if dir := strings.TrimSpace(cfg.Dirs.Resources); dir != "" {
		p.ResourcesDir = resolvePath(p.SupportDir, dir)
	}
	if dir := strings.TrimSpace(cfg.Dirs.Export); dir != "" {
		p.ExportDir = resolvePath(p.SupportDir, dir)
	}
	return p
}

func resolvePath(root, value string) string {
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Join(root, value)
}

// EnsureSupport creates the support directory.
func (p HostPaths) EnsureSupport() error {
	if err := os.MkdirAll(p.SupportDir, 0o755); err != nil {
		return fmt.Errorf("create support dir: %w", err)
	}
	return nil
}

// EnsureLogs creates the logs directory.
func (p HostPaths) EnsureLogs() error {
	if err := os.MkdirAll(p.LogsDir, 0o755); err != nil {
		return fmt.Errorf("create logs dir: %w", err)
	}
	return nil
}

// VenvPip returns the package-install entry point inside the venv.
func (p HostPaths) VenvPip() string {
	if p.GOOS == "windows" {
		return filepath.Join(p.VenvDir, "Scripts", "pip.exe")
	}
	return filepath.Join(p.VenvDir, "bin", "pip")
}

// VenvPython returns the interpreter inside the venv.
func (p HostPaths) VenvPython() string {
	if p.GOOS == "windows" {
		return filepath.Join(p.VenvDir, "Scripts", "python.exe")
	}
	return filepath.Join(p.VenvDir, "bin", "python")
}

// Resource joins a bundle-relative directory onto the resources root.
func (p HostPaths) Resource(rel string) string {
	return resolvePath(p.ResourcesDir, rel)
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

// ForDir returns paths rooted entirely under dir. Tests and --support runs use
// it to keep every side effect inside one directory.
func ForDir(dir string) HostPaths {
	p := HostPaths{
		LogsDir:      filepath.Join(dir, "logs"),
		ResourcesDir: filepath.Join(dir, "bundle"),
		ExportDir:    filepath.Join(dir, "export"),
		GOOS:         runtime.GOOS,
	}
	p.LogFile = filepath.Join(p.LogsDir, LogFileName)
	return p.withSupportDir(dir)
}
