package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyEntry      = "entry"
	KeyTool       = "tool"
	KeyPass       = "pass"
	KeyChain      = "tool_chain"
	KeyDurationMS = "duration_ms"
	KeyDir        = "dir"
	KeyPath       = "path"
	KeyTemplate   = "template"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr { return slog.String(KeyBuildID, id) }

func Entry(file string) slog.Attr { return slog.String(KeyEntry, file) }

func Tool(name string) slog.Attr { return slog.String(KeyTool, name) }

func Pass(n int) slog.Attr { return slog.Int(KeyPass, n) }

func Chain(c string) slog.Attr { return slog.String(KeyChain, c) }

func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

func Dir(dir string) slog.Attr { return slog.String(KeyDir, dir) }

func Path(path string) slog.Attr { return slog.String(KeyPath, path) }

func Template(name string) slog.Attr { return slog.String(KeyTemplate, name) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
