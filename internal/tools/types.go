package tools

// Logical tool names.
const (
	Mesh           = "mesh"
	Media          = "media"
	Interpreter    = "interpreter"
	PackageManager = "package-manager"
)

// ToolSpec describes how to find one external tool: the candidate locations
// in preference order and the arguments of its liveness probe.
type ToolSpec struct {
	Name       string
	Candidates []string
	ProbeArgs  []string
	// Minimum is an optional lowest acceptable version.
	Minimum string
}

// Resolved is a candidate whose liveness probe succeeded.
type Resolved struct {
	Tool    string `json:"tool"`
	Path    string `json:"path"`
	Version string `json:"version,omitempty"`
}

// Status captures the outcome of locating a tool for reporting.
type Status struct {
	Tool      string   `json:"tool"`
	Path      string   `json:"path,omitempty"`
	Version   string   `json:"version,omitempty"`
	Minimum   string   `json:"minimum,omitempty"`
	Available bool     `json:"available"`
	Satisfied bool     `json:"satisfied"`
	Error     string   `json:"error,omitempty"`
	Tried     []string `json:"tried,omitempty"`
	Notes     []string `json:"notes,omitempty"`
}
