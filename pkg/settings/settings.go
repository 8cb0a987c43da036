// Package settings holds build metadata and the per-run options shared by
// the stixoutline commands.
package settings

// CliBinaryName is the canonical binary name.
const CliBinaryName = "stixoutline"

// VersionInformation is set at build time via ldflags.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo describes the running binary.
type VersionInfo struct {
	Commit       string `json:"commit" yaml:"commit"`
	BuildVersion string `json:"version" yaml:"version"`
	BuildTime    string `json:"buildTime" yaml:"buildTime"`
}

// Run holds the options of a single invocation.
type Run struct {
	// MinLogLevel is a zap level; -1 enables debug output.
	MinLogLevel int8
	ConfigFile  string
	EnvFiles    []string
	NoColor     bool
	// Transport names where an editor host reaches the outline: "stdio",
	// "mcp" or a listen address.
	Transport string
}

// NewCliParams returns the defaults used by the command line.
func NewCliParams() *Run {
	return &Run{
		MinLogLevel: 0,
		EnvFiles:    []string{".env"},
		Transport:   "stdio",
	}
}

// DebugEnabled reports whether debug logging was requested.
func (r *Run) DebugEnabled() bool { return r != nil && r.MinLogLevel < 0 }
