package buildconfig

import (
	"fmt"
	"sort"
	"strings"
)

// ExternalType is the module system an external is loaded through at runtime.
type ExternalType string

const (
	// ExternalDefault follows the output library target
	ExternalDefault      ExternalType = ""
	ExternalCommonJS     ExternalType = "commonjs"
	ExternalCommonJS2    ExternalType = "commonjs2"
	ExternalNodeCommonJS ExternalType = "node-commonjs"
	ExternalModule       ExternalType = "module"
	ExternalImport       ExternalType = "import"
)

var externalTypes = map[string]ExternalType{
	"commonjs":      ExternalCommonJS,
	"commonjs2":     ExternalCommonJS2,
	"node-commonjs": ExternalNodeCommonJS,
	"module":        ExternalModule,
	"import":        ExternalImport,
}

// strategies webpack knows that resolve against globals rather than the host
// module system
var globalStrategies = map[string]bool{
	"var": true, "global": true, "root": true, "this": true, "window": true, "self": true, "assign": true, "umd": true, "amd": true, "system": true, "jsonp": true, "script": true, "promise": true,
}

// External is a module excluded from the bundle and resolved by the host
// runtime when the bundle loads.
type External struct {
	// Name is the import specifier used in source
	Name string
	// Type is the runtime module system
	Type ExternalType
	// Request is the specifier emitted into the bundle
	Request string
}

// ParseExternal parses an externals strategy such as "commonjs vscode".
// An empty value keeps the name as request.
func ParseExternal(name, value string) (External, error) {
	if strings.TrimSpace(name) == "" {
		return External{}, fmt.Errorf("%w: empty module name", ErrUnsupportedExternal)
	}

	fields := strings.Fields(value)
	switch len(fields) {
	case 0:
		return External{Name: name, Request: name}, nil
	case 1:
		if _, ok := externalTypes[fields[0]]; ok {
			return External{}, fmt.Errorf("%w: %s: strategy %q has no request", ErrUnsupportedExternal, name, value)
		}
		if globalStrategies[fields[0]] {
			return External{}, fmt.Errorf("%w: %s: %q", ErrUnsupportedExternal, name, value)
		}
		return External{Name: name, Request: fields[0]}, nil
	case 2:
		typ, ok := externalTypes[fields[0]]
		if !ok {
			return External{}, fmt.Errorf("%w: %s: strategy %q is not resolvable by the host module system", ErrUnsupportedExternal, name, fields[0])
		}
		return External{Name: name, Type: typ, Request: fields[1]}, nil
	}
	return External{}, fmt.Errorf("%w: %s: malformed strategy %q", ErrUnsupportedExternal, name, value)
}

// String renders the external back into strategy form.
func (e External) String() string {
	if e.Type == ExternalDefault {
		return e.Request
	}
	return string(e.Type) + " " + e.Request
}

// Renamed reports whether the bundle imports a different specifier than the
// source does.
func (e External) Renamed() bool {
	return e.Request != e.Name
}

// ExternalModules parses every externals entry, sorted by name.
func (c *Config) ExternalModules() ([]External, error) {
	names := make([]string, 0, len(c.Externals))
	for name := range c.Externals {
		names = append(names, name)
	}
	sort.Strings(names)

	externals := make([]External, 0, len(names))
	for _, name := range names {
		ext, err := ParseExternal(name, c.Externals[name])
		if err != nil {
			return nil, err
		}
		if (ext.Type == ExternalModule || ext.Type == ExternalImport) && !c.Output.LibraryTarget.IsESM() {
			return nil, fmt.Errorf("%w: %s: %s externals need a module library target", ErrUnsupportedExternal, name, ext.Type)
		}
		externals = append(externals, ext)
	}
	return externals, nil
}
