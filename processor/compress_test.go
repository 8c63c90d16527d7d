package processor

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveAndRestoreSources(t *testing.T) {
	src := t.TempDir()
	orders := filepath.Join(src, "Orders.csv")
	details := filepath.Join(src, "Order Details.csv")
	require.NoError(t, os.WriteFile(orders, []byte("Order ID,Customer\n1,Alfreds\n"), 0o644))
	require.NoError(t, os.WriteFile(details, bytes.Repeat([]byte("1,Chai,3,18.00\n"), 500), 0o644))

	digests, err := FileDigests([]string{orders, details})
	require.NoError(t, err)

	archive := t.TempDir()
	runID := uuid.NewString()
	archived, err := ArchiveSources(archive, runID, []string{orders, details}, digests)
	require.NoError(t, err)
	require.Len(t, archived, 2)
	assert.Equal(t, filepath.Join(archive, runID, "Orders.csv.sz"), archived[0])

	info, err := os.Stat(archived[1])
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(500*15))

	var buf bytes.Buffer
	require.NoError(t, DecompressFile(archived[0], &buf))
	assert.Equal(t, "Order ID,Customer\n1,Alfreds\n", buf.String())

	dest := t.TempDir()
	restored, err := RestoreSources(archive, runID, dest)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dest, "Orders.csv"),
		filepath.Join(dest, "Order Details.csv"),
	}, restored)

	got, err := os.ReadFile(filepath.Join(dest, "Order Details.csv"))
	require.NoError(t, err)
	want, err := os.ReadFile(details)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestArchiveDoesNotOverwriteSnapshot(t *testing.T) {
	src := filepath.Join(t.TempDir(), "Customers.csv")
	require.NoError(t, os.WriteFile(src, []byte("ID,Company\n"), 0o644))

	archive := t.TempDir()
	runID := uuid.NewString()
	_, err := ArchiveSources(archive, runID, []string{src}, nil)
	require.NoError(t, err)

	_, err = ArchiveSources(archive, runID, []string{src}, nil)
	assert.Error(t, err)
}

func TestArchiveRejectsChangedSource(t *testing.T) {
	src := filepath.Join(t.TempDir(), "Orders.csv")
	require.NoError(t, os.WriteFile(src, []byte("Order ID,Customer\n1,Alfreds\n"), 0o644))

	digests, err := FileDigests([]string{src})
	require.NoError(t, err)

	// Файл переписан после чтения источников
	require.NoError(t, os.WriteFile(src, []byte("Order ID,Customer\n1,Bólido\n"), 0o644))

	archive := t.TempDir()
	runID := uuid.NewString()
	archived, err := ArchiveSources(archive, runID, []string{src}, digests)
	require.ErrorIs(t, err, ErrSourceChanged)
	assert.Empty(t, archived)

	_, err = os.Stat(filepath.Join(archive, runID))
	assert.True(t, os.IsNotExist(err), "несовпадающий снимок удаляется")
}

func TestRestoreUnknownRun(t *testing.T) {
	_, err := RestoreSources(t.TempDir(), uuid.NewString(), t.TempDir())
	assert.Error(t, err)
}

func TestRunIDMustBeUUID(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "archive")
	outside := filepath.Join(filepath.Dir(archive), "outside")
	require.NoError(t, os.MkdirAll(outside, 0o755))
	require.NoError(t, CompressFile(writeTemp(t, "secret"), filepath.Join(outside, "secret.csv.sz")))

	for _, runID := range []string{"../outside", "run-1", "", "/etc"} {
		_, err := RestoreSources(archive, runID, t.TempDir())
		assert.Error(t, err, runID)

		_, err = ArchiveSources(archive, runID, nil, nil)
		assert.Error(t, err, runID)
	}
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "src.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDecompressCorruptArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.sz")
	require.NoError(t, os.WriteFile(path, []byte("not snappy"), 0o644))

	var buf bytes.Buffer
	assert.Error(t, DecompressFile(path, &buf))
}
