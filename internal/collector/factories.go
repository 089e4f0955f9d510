package collector

import (
	"fmt"
	"strings"
)

// Factory builds a source from shared options.
type Factory func(opts Options) Source

// DefaultPriority is the auto-mode order when the config names none.
var DefaultPriority = []string{"ecb", "mnb", "otp", "cib", "yahoo"}

// factories is the static registration table of every known source.
var factories = map[string]Factory{
	"ecb":   func(o Options) Source { return NewECBSource(o) },
	"mnb":   func(o Options) Source { return NewMNBSource(o) },
	"otp":   func(o Options) Source { return NewOTPSource(o) },
	"cib":   func(o Options) Source { return NewCIBSource(o) },
	"yahoo": func(o Options) Source { return NewYahooSource(o) },
	"mock":  func(o Options) Source { return NewMockSource(o, 0) },
}

// Info describes one registered source.
type Info struct {
	Name        string
	Description string
}

// Available lists registered sources in default priority order, offline sources last.
func Available() []Info {
	out := make([]Info, 0, len(factories))
	for _, name := range registeredNames() {
		out = append(out, Info{Name: name, Description: factories[name](Options{}).Description()})
	}
	return out
}

func registeredNames() []string {
	return append(append([]string(nil), DefaultPriority...), "mock")
}

// Build instantiates the sources named in priority, in that order. The registry
// keeps opts so an explicit fetch can still reach a registered source that is
// not part of the priority list.
func Build(opts Options, priority []string, regOpts ...RegistryOption) (*Registry, error) {
	if len(priority) == 0 {
		priority = DefaultPriority
	}
	sources := make([]Source, 0, len(priority))
	seen := map[string]bool{}
	for _, raw := range priority {
		name := strings.ToLower(strings.TrimSpace(raw))
		factory, ok := factories[name]
		if !ok {
			return nil, fmt.Errorf("unknown source %q in priority list", raw)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		sources = append(sources, factory(opts))
	}
	regOpts = append([]RegistryOption{withCatalog(opts)}, regOpts...)
	return NewRegistry(sources, regOpts...), nil
}
