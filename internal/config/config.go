// Package config loads varfuck.toml, the ambient configuration format both
// cmd/varfuckc and cmd/varfuck read before compiling/running a source file,
// grounded on internal/tqw/marshaling.go's own small "read the whole file,
// unmarshal it" TOML convention.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config is the top-level shape of varfuck.toml.
type Config struct {
	// TapeSize is the default tape length passed to tape.NewMachine when a
	// run doesn't override it with -t/--tape-size. Zero means "compute the
	// program's minimum via tape.MinTapeSize".
	TapeSize int `toml:"tape_size"`

	// BuiltinTable names a built-in macro table; Default sets it to
	// "standard". No compile reads it: varfuck.Compile always seeds the
	// Processor with varfuck.Builtins.
	BuiltinTable string `toml:"builtin_table"`

	// Debug turns on cmd/varfuckc's diagnostic log lines on stderr (cache
	// events, program text length and minimum tape size), as its -d/--debug
	// flag also does. cmd/varfuck does not read it.
	Debug bool `toml:"debug"`

	// CacheDir is where cmd/varfuckc looks for and writes
	// internal/bundle-encoded CompiledProgram cache files; cmd/varfuck does
	// not use it. Empty disables caching.
	CacheDir string `toml:"cache_dir"`
}

// Default returns the configuration used when no varfuck.toml is found.
func Default() Config {
	return Config{
		TapeSize:     0,
		BuiltinTable: "standard",
		Debug:        false,
		CacheDir:     "",
	}
}

// Load reads and parses the TOML config file at path. A missing file is not
// an error: Load returns Default() unchanged, the same "config files are
// optional" convention the teacher's world-manifest loader follows for a
// missing top-level key rather than a missing file, generalized here to the
// file itself since this tool has no required manifest.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, errors.Wrapf(err, "reading config file %q", path)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parsing config file %q", path)
	}
	return cfg, nil
}
