package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStorages(t *testing.T) map[string]Storage {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "state", "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return map[string]Storage{
		"memory": NewMemory(),
		"sqlite": db,
	}
}

func TestStorageContract(t *testing.T) {
	ctx := context.Background()
	for name, s := range setupStorages(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Load(ctx, PrintElementList)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Save(ctx, PrintElementList, []byte(`[1]`)))
			require.NoError(t, s.Save(ctx, PrintElementList, []byte(`[1,2]`)))
			require.NoError(t, s.Save(ctx, RecordData, []byte(`{}`)))

			data, err := s.Load(ctx, PrintElementList)
			require.NoError(t, err)
			assert.Equal(t, `[1,2]`, string(data))

			names, err := s.Names(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{PrintElementList, RecordData}, names)

			require.NoError(t, s.Delete(ctx, PrintElementList))
			_, err = s.Load(ctx, PrintElementList)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	type payload struct {
		IDs []string `json:"recordIds"`
	}
	require.NoError(t, SaveJSON(ctx, s, RecordData, payload{IDs: []string{"r1"}}))

	var got payload
	require.NoError(t, LoadJSON(ctx, s, RecordData, &got))
	assert.Equal(t, []string{"r1"}, got.IDs)

	require.NoError(t, s.Save(ctx, FieldData, []byte("not json")))
	assert.Error(t, LoadJSON(ctx, s, FieldData, &got))
	assert.ErrorIs(t, LoadJSON(ctx, s, PrintRecordList, &got), ErrNotFound)
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	db, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, db.Save(ctx, FieldData, []byte(`{"fieldIds":["a"]}`)))
	require.NoError(t, db.Close())

	db, err = OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()
	data, err := db.Load(ctx, FieldData)
	require.NoError(t, err)
	assert.JSONEq(t, `{"fieldIds":["a"]}`, string(data))
}

func TestOpenSQLiteRejectsEmptyPath(t *testing.T) {
	_, err := OpenSQLite("")
	assert.Error(t, err)
}
