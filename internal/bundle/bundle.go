// Package bundle caches a compiled program to disk so a CLI driver can skip
// recompiling an unchanged source file, grounded on
// server/dao/sqlite/sessions.go's use of rezi to binary-encode saved game
// state before persisting it.
package bundle

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/dekarrin/rezi"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// CompiledProgram is the cached result of a compile: the rendered
// target-ISA text, the tape size a run needs at minimum, and an entry
// invocation signature string (encoded and decoded as is; nothing compares
// it against the source), matching spec.md's "Persisted state: None" by caching only
// a convenience artifact the compiler could always regenerate, never
// runtime execution state.
type CompiledProgram struct {
	Code           string
	MinTapeSize    int
	EntrySignature string
	SourceHash     string
}

// MarshalBinary encodes p field by field with rezi's primitive encoders, the
// same per-field layout the teacher's saved-state types use. It always
// returns a nil error.
func (p CompiledProgram) MarshalBinary() ([]byte, error) {
	var data []byte
	data = append(data, rezi.EncString(p.Code)...)
	data = append(data, rezi.EncInt(p.MinTapeSize)...)
	data = append(data, rezi.EncString(p.EntrySignature)...)
	data = append(data, rezi.EncString(p.SourceHash)...)
	return data, nil
}

// UnmarshalBinary decodes data produced by MarshalBinary into p.
func (p *CompiledProgram) UnmarshalBinary(data []byte) error {
	var n int
	var err error

	p.Code, n, err = rezi.DecString(data)
	if err != nil {
		return err
	}
	data = data[n:]

	p.MinTapeSize, n, err = rezi.DecInt(data)
	if err != nil {
		return err
	}
	data = data[n:]

	p.EntrySignature, n, err = rezi.DecString(data)
	if err != nil {
		return err
	}
	data = data[n:]

	p.SourceHash, _, err = rezi.DecString(data)
	return err
}

// Encode returns the rezi binary encoding of p.
func Encode(p CompiledProgram) []byte {
	return rezi.EncBinary(p)
}

// Decode populates p from previously-Encoded data.
func Decode(data []byte, p *CompiledProgram) error {
	_, err := rezi.DecBinary(data, p)
	return err
}

// HashSource returns the cache key component derived from source text, so a
// cached bundle can be rejected the moment the source it was built from
// changes.
func HashSource(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// CachePath returns the path a bundle for sourcePath should be read from or
// written to within dir. Each source path gets a stable uuid.v5 name keyed
// on its absolute path, the way server/token.go mints a stable per-session
// identifier rather than a per-request random one, so repeated compiles of
// the same file always land on the same cache entry while different files
// never collide.
func CachePath(dir, sourcePath string) (string, error) {
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return "", errors.Wrapf(err, "resolving absolute path for %q", sourcePath)
	}
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("varfuck://"+abs))
	return filepath.Join(dir, id.String()+".bundle"), nil
}

// Load reads and decodes a CompiledProgram cache entry from path.
func Load(path string) (CompiledProgram, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CompiledProgram{}, err
	}
	var p CompiledProgram
	if err := Decode(data, &p); err != nil {
		return CompiledProgram{}, errors.Wrapf(err, "decoding cache bundle %q", path)
	}
	return p, nil
}

// Save encodes p and writes it to path, creating its parent directory if
// needed.
func Save(path string, p CompiledProgram) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "creating cache directory for %q", path)
	}
	if err := os.WriteFile(path, Encode(p), 0o644); err != nil {
		return errors.Wrapf(err, "writing cache bundle %q", path)
	}
	return nil
}
