package buildconfig

import "errors"

var (
	// ErrEmptyConfig indicates the configuration document contained no record
	ErrEmptyConfig = errors.New("empty build configuration")
	// ErrUnknownFormat indicates the configuration file extension is not a supported encoding
	ErrUnknownFormat = errors.New("unknown configuration format")
	// ErrConfigNotFound indicates no configuration file was found in a directory
	ErrConfigNotFound = errors.New("build configuration not found")
	// ErrInvalidMode indicates the mode is neither development nor production
	ErrInvalidMode = errors.New("invalid mode")
	// ErrInvalidDevtool indicates an unrecognized source map policy
	ErrInvalidDevtool = errors.New("invalid devtool")
	// ErrInvalidTarget indicates an unrecognized target runtime
	ErrInvalidTarget = errors.New("invalid target")
	// ErrInvalidLibraryTarget indicates an unrecognized output module format
	ErrInvalidLibraryTarget = errors.New("invalid output library target")
	// ErrInvalidExtension indicates a resolvable extension that does not start with a dot
	ErrInvalidExtension = errors.New("invalid resolve extension")
	// ErrInvalidRule indicates a transform rule with a bad pattern or missing loader
	ErrInvalidRule = errors.New("invalid transform rule")
	// ErrUnknownLoader indicates a transform rule names a compiler that cannot be mapped
	ErrUnknownLoader = errors.New("unknown loader")
	// ErrUnsupportedExternal indicates an externals strategy that cannot be resolved at runtime
	ErrUnsupportedExternal = errors.New("unsupported external module")
	// ErrMissingField indicates a required field is empty
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidOutput indicates an output filename that is not a plain file name
	ErrInvalidOutput = errors.New("invalid output")
	// ErrEntryNotFound indicates the entry path does not resolve to an existing file
	ErrEntryNotFound = errors.New("entry not found")
	// ErrEntryNotReadable indicates the entry file exists but cannot be opened
	ErrEntryNotReadable = errors.New("entry not readable")
	// ErrOutputOverwritesEntry indicates the bundle path would replace the entry source
	ErrOutputOverwritesEntry = errors.New("output path overwrites entry")
	// ErrOutputNotWritable indicates the output directory cannot be created or written
	ErrOutputNotWritable = errors.New("output directory not writable")
)
