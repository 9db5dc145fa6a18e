package tools

import (
	"runtime"
	"sort"

	"teleop/internal/config"
)

var darwinTable = map[string]ToolSpec{
	Mesh: {
		Name: Mesh,
		Candidates: []string{
			"tailscale",
			"/Applications/Tailscale.app/Contents/MacOS/Tailscale",
			"/usr/local/bin/tailscale",
			"/opt/homebrew/bin/tailscale",
		},
		ProbeArgs: []string{"version"},
	},
	Media: {
		Name: Media,
		Candidates: []string{
			"gst-launch-1.0",
			"/opt/homebrew/bin/gst-launch-1.0",
			"/usr/local/bin/gst-launch-1.0",
			"/Library/Frameworks/GStreamer.framework/Commands/gst-launch-1.0",
		},
		ProbeArgs: []string{"--version"},
	},
	Interpreter: {
		Name:       Interpreter,
		Candidates: []string{"python3", "/opt/homebrew/bin/python3", "/usr/local/bin/python3", "/usr/bin/python3"},
		ProbeArgs:  []string{"--version"},
		Minimum:    "3.8",
	},
	PackageManager: {
		Name:       PackageManager,
		Candidates: []string{"/opt/homebrew/bin/brew", "/usr/local/bin/brew", "brew"},
		ProbeArgs:  []string{"--version"},
	},
}

var linuxTable = map[string]ToolSpec{
	Mesh: {
		Name:       Mesh,
		Candidates: []string{"tailscale", "/usr/bin/tailscale", "/usr/local/bin/tailscale", "/usr/sbin/tailscale"},
		ProbeArgs:  []string{"version"},
	},
	Media: {
		Name:       Media,
		Candidates: []string{"gst-launch-1.0", "/usr/bin/gst-launch-1.0", "/usr/local/bin/gst-launch-1.0"},
		ProbeArgs:  []string{"--version"},
	},
	Interpreter: {
		Name:       Interpreter,
		Candidates: []string{"python3", "/usr/bin/python3", "/usr/local/bin/python3"},
		ProbeArgs:  []string{"--version"},
		Minimum:    "3.8",
	},
	PackageManager: {
		Name:       PackageManager,
		Candidates: []string{"brew", "/home/linuxbrew/.linuxbrew/bin/brew"},
		ProbeArgs:  []string{"--version"},
	},
}

var windowsTable = map[string]ToolSpec{
	Mesh: {
		Name:       Mesh,
		Candidates: []string{"tailscale.exe", `C:\Program Files\Tailscale\tailscale.exe`},
		ProbeArgs:  []string{"version"},
	},
	Media: {
		Name:       Media,
		Candidates: []string{"gst-launch-1.0.exe", `C:\Program Files\gstreamer\1.0\msvc_x86_64\bin\gst-launch-1.0.exe`},
		ProbeArgs:  []string{"--version"},
	},
	Interpreter: {
		Name:       Interpreter,
		Candidates: []string{"python.exe", "py.exe"},
		ProbeArgs:  []string{"--version"},
		Minimum:    "3.8",
	},
	PackageManager: {
		Name:       PackageManager,
		Candidates: []string{"winget.exe"},
		ProbeArgs:  []string{"--version"},
	},
}

// Table returns the built-in tool specs for goos. Unknown platforms get the
// linux table.
func Table(goos string) map[string]ToolSpec {
	var src map[string]ToolSpec
	switch goos {
	case "darwin":
		src = darwinTable
	case "windows":
		src = windowsTable
	default:
		src = linuxTable
	}
	out := make(map[string]ToolSpec, len(src))
	for name, spec := range src {
		out[name] = spec.clone()
	}
	return out
}

// Specs returns the tool table for the running host with config overrides
// applied. An override replaces the candidates or probe args it sets; tools
// unknown to the built-in table are added as-is.
func Specs(cfg config.Config) map[string]ToolSpec {
	return applyOverrides(Table(runtime.GOOS), cfg.Tools)
}

func applyOverrides(table map[string]ToolSpec, overrides map[string]config.ToolConfig) map[string]ToolSpec {
	for name, o := range overrides {
		spec, ok := table[name]
		if !ok {
			spec = ToolSpec{Name: name, ProbeArgs: []string{"--version"}}
		}
		if len(o.Candidates) > 0 {
			spec.Candidates = append([]string(nil), o.Candidates...)
		}
		if len(o.ProbeArgs) > 0 {
			spec.ProbeArgs = append([]string(nil), o.ProbeArgs...)
		}
		table[name] = spec
	}
	return table
}

// Names returns the sorted tool names of a table.
func Names(table map[string]ToolSpec) []string {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s ToolSpec) clone() ToolSpec {
	s.Candidates = append([]string(nil), s.Candidates...)
	s.ProbeArgs = append([]string(nil), s.ProbeArgs...)
	return s
}
