package mapping

import "strings"

// Backend kinds the compiler can lower to
const (
	Relational = "relational"
	Document   = "document"
)

// SupportedBackends lists all backends the compiler supports
var SupportedBackends = []string{
	Relational,
	Document,
}

// BackendAliases maps user-facing names to a backend kind
// Usage: BackendAliases["nosql"] returns "document"
var BackendAliases = map[string]string{
	"relational": Relational,
	"sql":        Relational,
	"mysql":      Relational,
	"postgresql": Relational,
	"postgres":   Relational,
	"sqlite":     Relational,
	"sqlite3":    Relational,
	"document":   Document,
	"nosql":      Document,
	"mongodb":    Document,
	"mongo":      Document,
}

// ResolveBackend returns the backend kind for a name or alias
func ResolveBackend(name string) (string, bool) {
	backend, ok := BackendAliases[strings.ToLower(strings.TrimSpace(name))]
	return backend, ok
}

// IsSupportedBackend checks if a backend name or alias is supported
func IsSupportedBackend(name string) bool {
	_, ok := ResolveBackend(name)
	return ok
}
