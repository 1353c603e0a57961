package cmd

import (
	"embed"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msalah0e/ontoview/internal/config"
	"github.com/msalah0e/ontoview/internal/store"
)

const tinyOntology = `<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:owl="http://www.w3.org/2002/07/owl#" xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#">
  <owl:Class rdf:about="http://zoo#Animal"><rdfs:label>Animal</rdfs:label></owl:Class>
  <owl:Class rdf:about="http://zoo#Dog"><rdfs:subClassOf rdf:resource="http://zoo#Animal"/></owl:Class>
</rdf:RDF>`

func withFileFlag(t *testing.T, path string) {
	t.Helper()
	prev := fileFlag
	fileFlag = path
	t.Cleanup(func() { fileFlag = prev })
}

func writeOntology(t *testing.T, name, markup string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(markup), 0o644))
	return path
}

func TestReadOntologyPrecedence(t *testing.T) {
	flagPath := writeOntology(t, "flag.owl", tinyOntology)
	samplePath := writeOntology(t, "configured.owl", "<rdf:RDF/>")
	cfg := config.Default()
	cfg.Sample = samplePath

	withFileFlag(t, flagPath)
	markup, name, err := readOntology(cfg)
	require.NoError(t, err)
	assert.Equal(t, "flag.owl", name)
	assert.Equal(t, tinyOntology, markup)

	fileFlag = ""
	markup, name, err = readOntology(cfg)
	require.NoError(t, err)
	assert.Equal(t, "configured.owl", name)
	assert.Equal(t, "<rdf:RDF/>", markup)
}

func TestReadOntologyMissingBundledSample(t *testing.T) {
	withFileFlag(t, "")
	prev := sampleFS
	sampleFS = embed.FS{}
	t.Cleanup(func() { sampleFS = prev })

	_, _, err := readOntology(config.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bundled sample")
}

func TestLoadModel(t *testing.T) {
	withFileFlag(t, writeOntology(t, "zoo.owl", tinyOntology))

	m, name, err := loadModel(config.Default())
	require.NoError(t, err)
	assert.Equal(t, "zoo.owl", name)
	assert.Equal(t, 2, m.GetStats().Classes)
	assert.Equal(t, 1, m.GetStats().Links)
}

func TestLoadModelMalformed(t *testing.T) {
	withFileFlag(t, writeOntology(t, "bad.owl", "<rdf:RDF><owl:Class>"))

	_, name, err := loadModel(config.Default())
	require.Error(t, err)
	assert.Equal(t, "bad.owl", name)
	assert.Contains(t, err.Error(), "bad.owl")
}

func TestSessionOptionsDisablesTimers(t *testing.T) {
	cfg := config.Default()
	cfg.Viewport.Width, cfg.Viewport.Height = 1024, 768

	opts := sessionOptions(cfg, "zoo.owl")
	assert.Equal(t, "zoo.owl", opts.Name)
	assert.Zero(t, opts.TickInterval)
	assert.Zero(t, opts.FrameInterval)
	assert.Equal(t, 1024.0, opts.Viewport.Width)
	assert.Equal(t, 768.0, opts.Viewport.Height)
}

func TestResolveDigest(t *testing.T) {
	st := store.NewMemStore()
	now := time.Now()
	for _, d := range []string{"abc123", "abd456", "fff000"} {
		require.NoError(t, st.SaveLayout(&store.Snapshot{Digest: d, Name: d, SavedAt: now}))
	}

	tests := []struct {
		prefix  string
		want    string
		wantErr error
	}{
		{"abc", "abc123", nil},
		{"fff000", "fff000", nil},
		{"ab", "", nil},
		{"zzz", "", store.ErrNotFound},
	}
	for _, tt := range tests {
		got, err := resolveDigest(st, tt.prefix)
		switch {
		case tt.wantErr != nil:
			assert.True(t, errors.Is(err, tt.wantErr), "prefix %q: got %v", tt.prefix, err)
		case tt.want == "":
			assert.Error(t, err, "prefix %q should be ambiguous", tt.prefix)
		default:
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		}
	}
}

func TestOpenStoreDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Enabled = false

	st, err := openStore(cfg)
	require.NoError(t, err)
	defer st.Close()
	_, ok := st.(*store.MemStore)
	assert.True(t, ok)
}

func TestOpenStoreSQLite(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg := config.Default()
	cfg.Store.Path = filepath.Join(t.TempDir(), "layouts.db")

	st, err := openStore(cfg)
	require.NoError(t, err)
	defer st.Close()
	_, ok := st.(*store.SQLiteStore)
	assert.True(t, ok)
}
