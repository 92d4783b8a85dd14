package buildconfig

// Effective is the record with mode defaults applied.
type Effective struct {
	Mode          Mode
	Devtool       SourceMapPolicy
	Minimize      bool
	Target        Target
	LibraryTarget LibraryTarget
}

// Effective resolves the optional fields against the mode defaults. Values set
// explicitly in the record always win. The record itself is not modified.
//
// production: minimize on, no source map. development: minimize off, eval
// source maps.
func (c *Config) Effective() Effective {
	eff := Effective{
		Mode:          c.Mode,
		Devtool:       c.Devtool,
		Target:        c.Target,
		LibraryTarget: c.Output.LibraryTarget,
	}

	if eff.Mode == "" {
		eff.Mode = ModeProduction
	}
	if eff.Target == "" {
		eff.Target = "node"
	}
	if eff.LibraryTarget == "" {
		eff.LibraryTarget = LibraryCommonJS2
	}

	switch eff.Mode {
	case ModeDevelopment:
		eff.Minimize = false
		if eff.Devtool == "" {
			eff.Devtool = DevtoolEval
		}
	default:
		eff.Minimize = true
		if eff.Devtool == "" {
			eff.Devtool = DevtoolNone
		}
	}

	if c.Optimization.Minimize != nil {
		eff.Minimize = *c.Optimization.Minimize
	}

	return eff
}
