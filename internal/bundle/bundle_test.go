package bundle_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/varfuck/internal/bundle"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	want := bundle.CompiledProgram{
		Code:           "65+.",
		MinTapeSize:    8,
		EntrySignature: "main()",
		SourceHash:     bundle.HashSource("call main();"),
	}

	var got bundle.CompiledProgram
	require.NoError(t, bundle.Decode(bundle.Encode(want), &got))
	assert.Equal(t, want, got)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "entry.bundle")
	want := bundle.CompiledProgram{
		Code:        "3+.",
		MinTapeSize: 4,
		SourceHash:  bundle.HashSource("repeat (3) { call endl(); }"),
	}

	require.NoError(t, bundle.Save(path, want))

	got, err := bundle.Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoad_MissingFileIsError(t *testing.T) {
	dir := t.TempDir()
	_, err := bundle.Load(filepath.Join(dir, "nonexistent.bundle"))
	require.Error(t, err)
}

func TestCachePath_StableForSameSourcePath(t *testing.T) {
	dir := t.TempDir()
	a, err := bundle.CachePath(dir, "prog.vf")
	require.NoError(t, err)
	b, err := bundle.CachePath(dir, "prog.vf")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCachePath_DiffersAcrossSourcePaths(t *testing.T) {
	dir := t.TempDir()
	a, err := bundle.CachePath(dir, "one.vf")
	require.NoError(t, err)
	b, err := bundle.CachePath(dir, "two.vf")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHashSource_DiffersWhenSourceChanges(t *testing.T) {
	assert.NotEqual(t, bundle.HashSource("a"), bundle.HashSource("b"))
}
