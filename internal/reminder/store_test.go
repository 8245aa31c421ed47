package reminder

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type brokenKV struct {
	getErr error
	setErr error
}

func (b *brokenKV) Get(string) ([]byte, error) { return nil, b.getErr }
func (b *brokenKV) Set(string, []byte) error   { return b.setErr }
func (b *brokenKV) Close() error               { return nil }

func sample() []Reminder {
	return []Reminder{
		{ID: "b", Title: "Stretch", Time: "10:15"},
		{ID: "a", Title: "Study", Time: "14:30", Completed: true},
	}
}

func TestStoreLoadMissingKey(t *testing.T) {
	store := NewStore(NewMemoryKV(), "", nil)

	got := store.Load()
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStoreLoadCorruptPayload(t *testing.T) {
	for _, payload := range []string{"{not json", `{"id":"x"}`, `"todos"`} {
		t.Run(payload, func(t *testing.T) {
			kv := NewMemoryKV()
			require.NoError(t, kv.Set(DefaultKey, []byte(payload)))

			core, logs := observer.New(zap.WarnLevel)
			store := NewStore(kv, DefaultKey, zap.New(core))

			got := store.Load()
			assert.Empty(t, got)
			assert.Equal(t, 1, logs.Len())
		})
	}
}

func TestStoreLoadNullIsEmpty(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(DefaultKey, []byte("null")))

	got := NewStore(kv, DefaultKey, nil).Load()
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStoreSaveLoadFixedPoint(t *testing.T) {
	kv := NewMemoryKV()
	store := NewStore(kv, DefaultKey, nil)
	store.Save(sample())

	before, err := kv.Get(DefaultKey)
	require.NoError(t, err)

	store.Save(store.Load())

	after, err := kv.Get(DefaultKey)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
	assert.Equal(t, sample(), store.Load())
}

func TestStorePersistenceFormat(t *testing.T) {
	kv := NewMemoryKV()
	NewStore(kv, DefaultKey, nil).Save([]Reminder{{ID: "1", Title: "Study", Time: "14:30"}})

	data, err := kv.Get(DefaultKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1","title":"Study","time":"14:30","completed":false}]`, string(data))
}

func TestStoreKeysAreScoped(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set("notes", []byte(`[{"id":"n1"}]`)))

	store := NewStore(kv, DefaultKey, nil)
	store.Save(sample())

	notes, err := kv.Get("notes")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"n1"}]`, string(notes))
}

func TestStoreAbsorbsFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	store := NewStore(&brokenKV{
		getErr: errors.New("disk gone"),
		setErr: errors.New("quota exceeded"),
	}, DefaultKey, zap.New(core))

	assert.Empty(t, store.Load())
	assert.NotPanics(t, func() { store.Save(sample()) })
	assert.Equal(t, 2, logs.Len())
}

func TestFileKV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	kv, err := NewFileKV(dir)
	require.NoError(t, err)

	_, err = kv.Get(DefaultKey)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, kv.Set(DefaultKey, []byte(`[]`)))
	require.NoError(t, kv.Set(DefaultKey, []byte(`[{"id":"1"}]`)))

	got, err := kv.Get(DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, string(got))

	onDisk, err := os.ReadFile(filepath.Join(dir, "todos.json"))
	require.NoError(t, err)
	assert.Equal(t, got, onDisk)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestSQLiteKV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo-alarm.db")
	kv, err := NewSQLiteKV(path)
	require.NoError(t, err)

	_, err = kv.Get(DefaultKey)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	store := NewStore(kv, DefaultKey, nil)
	store.Save(sample())
	store.Save(sample()[:1])
	require.NoError(t, kv.Close())

	reopened, err := NewSQLiteKV(path)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, sample()[:1], NewStore(reopened, DefaultKey, nil).Load())
}

func TestOpenKV(t *testing.T) {
	dir := t.TempDir()

	kv, err := OpenKV("json", dir, "")
	require.NoError(t, err)
	assert.IsType(t, &FileKV{}, kv)

	kv, err = OpenKV("sqlite", dir, filepath.Join(dir, "db", "x.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteKV{}, kv)
	require.NoError(t, kv.Close())

	kv, err = OpenKV("memory", "", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryKV{}, kv)

	_, err = OpenKV("redis", dir, "")
	assert.Error(t, err)
}
