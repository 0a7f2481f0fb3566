// spec_registry.go provides a registry for tool specifications and the
// immutable Catalog built from it.
//
// Each tool registers a SpecEntry via init(). The registry is keyed by
// catalog name ("web_search", "code_interpreter", "update_plan").
package tools

import "sync"

// SpecEntry is the registry unit for a single tool.
type SpecEntry struct {
	Name        string          // Catalog name
	Constructor func() ToolSpec // Returns the spec
}

var (
	mu           sync.RWMutex
	specRegistry = map[string]SpecEntry{}
)

// RegisterSpec adds a SpecEntry to the global registry.
func RegisterSpec(entry SpecEntry) {
	mu.Lock()
	defer mu.Unlock()
	specRegistry[entry.Name] = entry
}

// GetEntry returns the SpecEntry for the given catalog name.
func GetEntry(name string) (SpecEntry, bool) {
	mu.RLock()
	defer mu.RUnlock()
	e, ok := specRegistry[name]
	return e, ok
}

// BuildSpecs constructs ToolSpec values for the given names, in order.
// Unknown names are skipped.
func BuildSpecs(names []string) []ToolSpec {
	mu.RLock()
	defer mu.RUnlock()

	specs := make([]ToolSpec, 0, len(names))
	for _, name := range names {
		entry, ok := specRegistry[name]
		if !ok {
			continue // unknown tool, skip
		}
		specs = append(specs, entry.Constructor())
	}
	return specs
}

// DefaultEnabledTools returns the catalog names offered to the model.
func DefaultEnabledTools() []string {
	return []string{
		"web_search",
		"code_interpreter",
		ToolUpdatePlan,
	}
}

// Catalog is the fixed set of tool declarations for one request. It is
// built once and never changes mid-conversation.
type Catalog struct {
	specs []ToolSpec
}

// NewCatalog builds a catalog from the given specs.
func NewCatalog(specs []ToolSpec) *Catalog {
	c := &Catalog{specs: make([]ToolSpec, len(specs))}
	copy(c.specs, specs)
	return c
}

// DefaultCatalog returns web search, code execution and update_plan.
func DefaultCatalog() *Catalog {
	return NewCatalog(BuildSpecs(DefaultEnabledTools()))
}

// Specs returns the declarations in catalog order. The returned slice is a
// copy; callers may not mutate the catalog through it.
func (c *Catalog) Specs() []ToolSpec {
	out := make([]ToolSpec, len(c.specs))
	copy(out, c.specs)
	return out
}

// Lookup returns the spec with the given event-facing name.
func (c *Catalog) Lookup(name string) (ToolSpec, bool) {
	for _, s := range c.specs {
		if s.Name == name {
			return s, true
		}
	}
	return ToolSpec{}, false
}
