package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/respostas/core"
	"github.com/poiesic/respostas/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecord(id, text string) *core.Record {
	return &core.Record{
		Fields: core.Fields{
			ProcessID:    id,
			DocumentType: core.DocumentTypeOficio,
			ReceivedText: text,
			ReplyText:    "resposta " + id,
		},
		Embedding:   []float32{1, 0, 0.5},
		Fingerprint: core.FingerprintOf(text),
	}
}

func TestStore_LoadMissingFile(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "respostas.csv"))
	require.NoError(t, err)
	defer store.Close()

	corpus, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, corpus.Len())
	assert.Equal(t, uint64(0), corpus.Revision)
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "respostas.csv")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	corpus, err := store.Load(ctx)
	require.NoError(t, err)
	corpus.Records = append(corpus.Records, newRecord("1", "primeira"), newRecord("2", "segunda"))
	require.NoError(t, store.Save(ctx, corpus))
	assert.NotZero(t, corpus.Revision)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, corpus.Revision, loaded.Revision)
	assert.Equal(t, corpus.Records, loaded.Records)

	// No temp files are left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStore_SequentialSaves(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "respostas.csv"))
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	corpus := &core.Corpus{}
	for i := range 5 {
		corpus.Records = append(corpus.Records, newRecord("p", "texto"))
		prev := corpus.Revision
		require.NoError(t, store.Save(ctx, corpus), "save %d", i)
		assert.NotEqual(t, prev, corpus.Revision)
	}

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, loaded.Len())
}

func TestStore_RevisionConflict(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "respostas.csv"))
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	first, err := store.Load(ctx)
	require.NoError(t, err)
	second, err := store.Load(ctx)
	require.NoError(t, err)

	first.Records = append(first.Records, newRecord("1", "a"))
	require.NoError(t, store.Save(ctx, first))

	second.Records = append(second.Records, newRecord("2", "b"))
	err = store.Save(ctx, second)
	assert.ErrorIs(t, err, core.ErrConflict)
	assert.ErrorIs(t, err, core.ErrPersistence)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, loaded.Len())
	assert.Equal(t, "1", loaded.Records[0].ProcessID)
}

func TestStore_Closed(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "respostas.csv"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("")
	assert.ErrorIs(t, err, core.ErrPersistence)
}
