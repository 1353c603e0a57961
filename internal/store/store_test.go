package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFactory func(t *testing.T) (Storer, error)

func runTestsForAllStores(t *testing.T, testName string, testFn func(t *testing.T, store Storer)) {
	factories := map[string]storeFactory{
		"MemStore": func(*testing.T) (Storer, error) { return NewMemStore(), nil },
		"SQLiteStore": func(*testing.T) (Storer, error) {
			return NewSQLiteStore()
		},
		"SQLiteFile": func(t *testing.T) (Storer, error) {
			return OpenSQLiteStore(filepath.Join(t.TempDir(), "nested", "layouts.db"))
		},
	}

	for name, factory := range factories {
		t.Run(name+"/"+testName, func(t *testing.T) {
			store, err := factory(t)
			require.NoError(t, err, "Failed to create store")
			defer store.Close()
			testFn(t, store)
		})
	}
}

func sample(digest string, at time.Time) *Snapshot {
	return &Snapshot{
		Digest:  digest,
		Name:    "research.owl",
		SavedAt: at,
		Positions: map[string]Position{
			"urn:x#A": {X: 10, Y: 20},
			"urn:x#B": {X: -5.5, Y: 300.25},
		},
	}
}

func TestSaveAndGet(t *testing.T) {
	runTestsForAllStores(t, "SaveAndGet", func(t *testing.T, store Storer) {
		at := time.UnixMilli(1700000000000)
		require.NoError(t, store.SaveLayout(sample("d1", at)))

		got, err := store.GetLayout("d1")
		require.NoError(t, err)
		assert.Equal(t, "research.owl", got.Name)
		assert.Equal(t, 2, got.NodeCount)
		assert.True(t, at.Equal(got.SavedAt))
		assert.Equal(t, Position{X: -5.5, Y: 300.25}, got.Positions["urn:x#B"])
	})
}

func TestGetMissing(t *testing.T) {
	runTestsForAllStores(t, "GetMissing", func(t *testing.T, store Storer) {
		_, err := store.GetLayout("nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestOverwrite(t *testing.T) {
	runTestsForAllStores(t, "Overwrite", func(t *testing.T, store Storer) {
		require.NoError(t, store.SaveLayout(sample("d1", time.UnixMilli(1))))

		next := &Snapshot{Digest: "d1", Name: "renamed", SavedAt: time.UnixMilli(2),
			Positions: map[string]Position{"urn:x#C": {X: 1, Y: 1}}}
		require.NoError(t, store.SaveLayout(next))

		got, err := store.GetLayout("d1")
		require.NoError(t, err)
		assert.Equal(t, "renamed", got.Name)
		assert.Len(t, got.Positions, 1)
		assert.Contains(t, got.Positions, "urn:x#C")
	})
}

func TestListAndDelete(t *testing.T) {
	runTestsForAllStores(t, "ListAndDelete", func(t *testing.T, store Storer) {
		require.NoError(t, store.SaveLayout(sample("old", time.UnixMilli(1000))))
		require.NoError(t, store.SaveLayout(sample("new", time.UnixMilli(2000))))

		list, err := store.ListLayouts()
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "new", list[0].Digest)
		assert.Nil(t, list[0].Positions)
		assert.Equal(t, 2, list[1].NodeCount)

		require.NoError(t, store.DeleteLayout("old"))
		_, err = store.GetLayout("old")
		assert.ErrorIs(t, err, ErrNotFound)

		list, _ = store.ListLayouts()
		assert.Len(t, list, 1)
	})
}

func TestSaveCopiesInput(t *testing.T) {
	runTestsForAllStores(t, "SaveCopiesInput", func(t *testing.T, store Storer) {
		snap := sample("d1", time.UnixMilli(1))
		require.NoError(t, store.SaveLayout(snap))
		snap.Positions["urn:x#A"] = Position{X: 999, Y: 999}

		got, err := store.GetLayout("d1")
		require.NoError(t, err)
		assert.Equal(t, Position{X: 10, Y: 20}, got.Positions["urn:x#A"])
	})
}

func TestDigest(t *testing.T) {
	a := Digest("<rdf:RDF/>")
	assert.Len(t, a, 64)
	assert.Equal(t, a, Digest("<rdf:RDF/>"))
	assert.NotEqual(t, a, Digest("<rdf:RDF />"))
}
