package zipkit

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestOpenCreateAndReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.zip")

	a, err := Open(path, ModeCreate)
	require.NoError(t, err)
	assert.Equal(t, path, a.Path())
	assert.Equal(t, ModeCreate, a.Mode())
	assert.Empty(t, a.Entries())
	require.NoError(t, a.Close())

	// ModeCreate refuses to clobber an existing archive.
	_, err = Open(path, ModeCreate)
	require.Error(t, err)

	a, err = Open(path, ModeRead)
	require.NoError(t, err)
	assert.Empty(t, a.Entries())
	require.NoError(t, a.Close())
}

func TestOpenUpdateMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "absent.zip"), ModeUpdate)
	require.Error(t, err)
}

func TestOpenMemoryCreateEmpty(t *testing.T) {
	t.Parallel()

	a, err := OpenMemory(nil, ModeCreate)
	require.NoError(t, err)
	assert.Empty(t, a.Entries())

	// An empty archive is a bare end of central directory record.
	assert.Len(t, a.Data(), 22)

	reopened, err := OpenMemory(a.Data(), ModeRead)
	require.NoError(t, err)
	assert.Empty(t, reopened.Entries())
}

func TestOpenMemoryRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := OpenMemory([]byte("not a zip archive at all"), ModeRead)
	require.Error(t, err)
}

func TestReadOnlyArchiveRejectsMutation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	base, err := OpenMemory(nil, ModeCreate)
	require.NoError(t, err)
	require.NoError(t, base.AddEntry(ctx, "a.txt", EntryTypeFile, 2, BytesProvider([]byte("hi"))))

	a, err := OpenMemory(base.Data(), ModeRead)
	require.NoError(t, err)

	err = a.AddEntry(ctx, "b.txt", EntryTypeFile, 2, BytesProvider([]byte("no")))
	require.ErrorIs(t, err, ErrReadOnlyArchive)

	err = a.Remove(ctx, a.Entry("a.txt"))
	require.ErrorIs(t, err, ErrReadOnlyArchive)

	err = a.RemoveAll(ctx, a.Entry("a.txt"))
	require.ErrorIs(t, err, ErrReadOnlyArchive)
}

func TestEntryLookup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a, err := OpenMemory(nil, ModeCreate)
	require.NoError(t, err)
	require.NoError(t, a.AddEntry(ctx, "a.txt", EntryTypeFile, 2, BytesProvider([]byte("hi"))))
	require.NoError(t, a.AddEntry(ctx, "dir", EntryTypeDirectory, 0, nil))

	require.NotNil(t, a.Entry("a.txt"))
	assert.Equal(t, EntryTypeFile, a.Entry("a.txt").Type())

	// Directory entries match with or without the trailing separator.
	require.NotNil(t, a.Entry("dir/"))
	require.NotNil(t, a.Entry("dir"))
	assert.Equal(t, "dir/", a.Entry("dir").Path())

	assert.Nil(t, a.Entry("missing"))
}

func TestConcurrentMutationRejected(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	a, err := OpenMemory(nil, ModeCreate)
	require.NoError(t, err)

	started := make(chan struct{})
	unblock := make(chan struct{})
	provider := func(position int64, size int) ([]byte, error) {
		close(started)
		<-unblock
		return []byte("slow"), nil
	}

	var g errgroup.Group
	g.Go(func() error {
		return a.AddEntry(ctx, "slow.bin", EntryTypeFile, 4, provider)
	})

	// While the first mutation is parked inside its provider, a second one
	// must be refused outright.
	<-started
	err = a.AddEntry(ctx, "fast.bin", EntryTypeFile, 1, BytesProvider([]byte("x")))
	require.ErrorIs(t, err, ErrConcurrentMutation)

	close(unblock)
	require.NoError(t, g.Wait())

	// The guard releases once the in-flight mutation completes.
	require.NoError(t, a.AddEntry(ctx, "fast.bin", EntryTypeFile, 1, BytesProvider([]byte("x"))))
	assert.Len(t, a.Entries(), 2)
}
