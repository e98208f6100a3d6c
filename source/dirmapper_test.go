package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeOntology(t *testing.T, path, iri string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	body := []byte("@prefix owl: <http://www.w3.org/2002/07/owl#> .\n<" + iri + "> a owl:Ontology ; owl:versionIRI <" + iri + "/1.0> .\n")
	require.NoError(t, os.WriteFile(path, body, 0o644))
}

func TestDirectoryMapperScan(t *testing.T) {
	dir := t.TempDir()
	writeOntology(t, filepath.Join(dir, "a.ttl"), "http://ex/a")
	writeOntology(t, filepath.Join(dir, "nested", "b.ttl"), "http://ex/b")
	writeOntology(t, filepath.Join(dir, "vendor", "c.ttl"), "http://ex/c")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("<http://ex/d> a owl:Ontology ."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.ttl"), []byte("this is not turtle"), 0o644))

	m, err := NewDirectoryMapper(dir, DirectoryOptions{})
	require.NoError(t, err)

	loc, ok := m.DocumentIRI("http://ex/a")
	require.True(t, ok)
	assert.Equal(t, FileIRI(filepath.Join(dir, "a.ttl")), loc)

	loc, ok = m.DocumentIRI("http://ex/b/1.0")
	require.True(t, ok)
	assert.Equal(t, FileIRI(filepath.Join(dir, "nested", "b.ttl")), loc)

	_, ok = m.DocumentIRI("http://ex/c")
	assert.False(t, ok, "excluded directory")
	_, ok = m.DocumentIRI("http://ex/d")
	assert.False(t, ok, "pattern mismatch")

	assert.Len(t, m.Mappings(), 4)
}

func TestDirectoryMapperFirstDeclarationWins(t *testing.T) {
	dir := t.TempDir()
	writeOntology(t, filepath.Join(dir, "a.ttl"), "http://ex/same")
	writeOntology(t, filepath.Join(dir, "b.ttl"), "http://ex/same")

	m, err := NewDirectoryMapper(dir, DirectoryOptions{})
	require.NoError(t, err)
	loc, ok := m.DocumentIRI("http://ex/same")
	require.True(t, ok)
	assert.Equal(t, FileIRI(filepath.Join(dir, "a.ttl")), loc)
}

func TestDirectoryMapperOptions(t *testing.T) {
	_, err := NewDirectoryMapper(filepath.Join(t.TempDir(), "missing"), DirectoryOptions{})
	assert.Error(t, err)

	_, err = NewDirectoryMapper(t.TempDir(), DirectoryOptions{Pattern: "[unclosed"})
	assert.ErrorContains(t, err, "invalid document pattern")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.owl"), nil, 0o644))
	m, err := NewDirectoryMapper(dir, DirectoryOptions{
		Pattern: "*.owl",
		Identify: func(path string) ([]string, error) {
			return []string{"urn:custom:" + filepath.Base(path)}, nil
		},
	})
	require.NoError(t, err)
	_, ok := m.DocumentIRI("urn:custom:x.owl")
	assert.True(t, ok)
	assert.NoError(t, m.Close())
}

func TestDirectoryMapperWatch(t *testing.T) {
	dir := t.TempDir()
	m, err := NewDirectoryMapper(dir, DirectoryOptions{DebounceDelay: 20 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, m.Watch(ctx))
	defer m.Close()

	path := filepath.Join(dir, "late.ttl")
	writeOntology(t, path, "http://ex/late")
	require.Eventually(t, func() bool {
		_, ok := m.DocumentIRI("http://ex/late")
		return ok
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool {
		_, ok := m.DocumentIRI("http://ex/late")
		return !ok
	}, 5*time.Second, 20*time.Millisecond)
}
