package mmapfile_test

import (
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ardanlabs/blockstore/foundation/blockchain/codec"
	"github.com/ardanlabs/blockstore/foundation/blockchain/mmapfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func openBytes(t *testing.T, cfg mmapfile.Config, name string) (*mmapfile.Writer[[]byte], mmapfile.Reader[[]byte], string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	w, r, err := mmapfile.Open[[]byte](cfg, path, codec.Bytes{})
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	return w, r, path
}

func fileSize(t *testing.T, path string) int {
	t.Helper()

	fi, err := os.Stat(path)
	require.NoError(t, err)

	return int(fi.Size())
}

func TestWriteRead(t *testing.T) {
	w, reader, path := openBytes(t, testConfig(), "write_read")
	data := []byte{1, 2, 3}
	offset := 0

	n, err := w.Insert(offset, data)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	require.NoError(t, w.Flush())

	loc := mmapfile.LocationInFile{Offset: offset, Len: n}

	got, err := w.Get(loc)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	got, err = reader.Get(loc)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	another := reader
	got, err = another.Get(loc)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	raw, err := another.GetBytes(loc)
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 1, 2, 3}, raw)

	// The record survives closing and reopening the file.
	require.NoError(t, w.Close())

	w2, reopened, err := mmapfile.Open[[]byte](testConfig(), path, codec.Bytes{})
	require.NoError(t, err)
	defer w2.Close()

	got, err = reopened.Get(loc)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestConcurrentReads(t *testing.T) {
	cfg := mmapfile.Config{
		MaxSize:       1 << 20,
		GrowthStep:    1 << 12,
		MaxObjectSize: 1 << 8,
	}
	w, reader, _ := openBytes(t, cfg, "concurrent_reads")
	data := []byte{1, 2, 3}

	n, err := w.Insert(0, data)
	require.NoError(t, err)
	require.NoError(t, w.Flush())
	loc := mmapfile.LocationInFile{Offset: 0, Len: n}

	// The writer keeps appending and growing the file while the readers run.
	growth := make(chan int, 1)
	go func() {
		offset := n
		record := make([]byte, 200)
		for i := 0; i < 100; i++ {
			m, err := w.Insert(offset, record)
			if err != nil {
				break
			}
			offset += m
		}
		growth <- w.Capacity()
	}()

	const numReaders = 50
	results := make([][]byte, numReaders)

	var g errgroup.Group
	for i := 0; i < numReaders; i++ {
		g.Go(func() error {
			v, err := reader.Get(loc)
			results[i] = v
			return err
		})
	}
	require.NoError(t, g.Wait())

	for i, res := range results {
		assert.Equal(t, data, res, "reader %d", i)
	}

	assert.Greater(t, <-growth, cfg.GrowthStep)
}

func TestConcurrentReadsSingleWrite(t *testing.T) {
	w, reader, _ := openBytes(t, testConfig(), "concurrent_reads_single_write")
	firstData := []byte{1, 2, 3}
	secondData := []byte{3, 2, 1}
	offset := 0

	n, err := w.Insert(offset, firstData)
	require.NoError(t, err)
	require.NoError(t, w.Flush())

	firstLoc := mmapfile.LocationInFile{Offset: offset, Len: n}
	secondLoc := mmapfile.LocationInFile{Offset: offset + n, Len: n}

	const numReaders = 10
	var firstRead sync.WaitGroup
	firstRead.Add(numReaders)
	written := make(chan struct{})

	var g errgroup.Group
	results := make([][]byte, numReaders)
	for i := 0; i < numReaders; i++ {
		g.Go(func() error {
			v, err := reader.Get(firstLoc)
			firstRead.Done()
			if err != nil {
				return err
			}
			if string(v) != string(firstData) {
				return errors.New("first value mismatch")
			}

			// Readers wait for the writer to publish the second value.
			<-written

			results[i], err = reader.Get(secondLoc)
			return err
		})
	}

	// The writer waits for all readers to read the first value.
	firstRead.Wait()
	_, err = w.Insert(offset+n, secondData)
	require.NoError(t, err)
	require.NoError(t, w.Flush())
	close(written)

	require.NoError(t, g.Wait())
	for i, res := range results {
		assert.Equal(t, secondData, res, "reader %d", i)
	}
}

func TestGrowFile(t *testing.T) {
	data := []byte{1, 2}
	serialized, err := codec.Bytes{}.Serialize(data)
	require.NoError(t, err)
	size := len(serialized) // 3: length prefix + data

	cfg := mmapfile.Config{
		MaxSize:       10 * size,
		MaxObjectSize: size,     // 3
		GrowthStep:    size + 1, // 4
	}

	path := filepath.Join(t.TempDir(), "grow_file")

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, 0, fileSize(t, path))

	w, _, err := mmapfile.Open[[]byte](cfg, path, codec.Bytes{})
	require.NoError(t, err)
	assert.Equal(t, cfg.GrowthStep, fileSize(t, path))
	assert.Equal(t, cfg.GrowthStep, w.Capacity())

	expected := []int{2, 3, 3, 4}
	offset := 0
	for i, steps := range expected {
		n, err := w.Insert(offset, data)
		require.NoError(t, err)
		require.Equal(t, size, n)
		offset += n

		assert.Equal(t, steps*cfg.GrowthStep, fileSize(t, path), "insert %d", i+1)
		assert.Equal(t, steps*cfg.GrowthStep, w.Capacity(), "insert %d", i+1)
	}
	require.NoError(t, w.Flush())
	require.NoError(t, w.Close())

	// Reopening keeps the size the file was grown to.
	assert.Equal(t, 4*cfg.GrowthStep, fileSize(t, path))

	w, r, err := mmapfile.Open[[]byte](cfg, path, codec.Bytes{})
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, 4*cfg.GrowthStep, fileSize(t, path))
	assert.Equal(t, 4*cfg.GrowthStep, r.Capacity())

	for i := 0; i < len(expected); i++ {
		got, err := r.Get(mmapfile.LocationInFile{Offset: i * size, Len: size})
		require.NoError(t, err)
		assert.Equal(t, data, got)
	}
}

func TestWriteReadDifferentLocations(t *testing.T) {
	w, reader, _ := openBytes(t, testConfig(), "write_read_different_locations")

	const (
		rounds          = 10
		recordLen       = 3
		readersPerRound = 10
	)

	data := []byte{0, 1}
	offset := 0

	var g errgroup.Group
	for round := 0; round < rounds; round++ {
		n, err := w.Insert(offset, data)
		require.NoError(t, err)
		require.Equal(t, recordLen, n)
		offset += n
		require.NoError(t, w.Flush())

		published := round
		for i := 0; i < readersPerRound; i++ {
			g.Go(func() error {
				idx := rand.IntN(published + 1)
				got, err := reader.Get(mmapfile.LocationInFile{Offset: idx * recordLen, Len: recordLen})
				if err != nil {
					return err
				}

				first := byte(idx * 2)
				if got[0] != first || got[1] != first+1 {
					return errors.New("unexpected value at location")
				}
				return nil
			})
		}

		data = []byte{data[0] + 2, data[1] + 2}
	}

	require.NoError(t, g.Wait())
}

func TestCapacityCeiling(t *testing.T) {
	cfg := mmapfile.Config{
		MaxSize:       16,
		GrowthStep:    4,
		MaxObjectSize: 3,
	}
	w, reader, path := openBytes(t, cfg, "capacity_ceiling")
	data := []byte{7, 8}

	var locs []mmapfile.LocationInFile
	offset := 0
	for i := 0; i < 4; i++ {
		n, err := w.Insert(offset, data)
		require.NoError(t, err)
		locs = append(locs, mmapfile.LocationInFile{Offset: offset, Len: n})
		offset += n
	}
	require.NoError(t, w.Flush())
	require.Equal(t, 16, w.Capacity())

	_, err := w.Insert(offset, data)
	require.ErrorIs(t, err, mmapfile.ErrCapacityExceeded)

	// Nothing changed and the committed records are intact.
	assert.Equal(t, 16, w.Capacity())
	assert.Equal(t, 16, fileSize(t, path))
	for _, loc := range locs {
		got, err := reader.Get(loc)
		require.NoError(t, err)
		assert.Equal(t, data, got)
	}

	// An offset far past the limit fails the same way.
	_, err = w.Insert(1<<40, data)
	assert.ErrorIs(t, err, mmapfile.ErrCapacityExceeded)
}

func TestInsert_ObjectTooLarge(t *testing.T) {
	w, _, _ := openBytes(t, testConfig(), "too_large")

	_, err := w.Insert(0, make([]byte, 1<<8))
	require.ErrorIs(t, err, mmapfile.ErrObjectTooLarge)
	assert.Equal(t, testConfig().GrowthStep, w.Capacity())
}

func TestGet_OutOfBounds(t *testing.T) {
	w, reader, _ := openBytes(t, testConfig(), "out_of_bounds")
	capacity := w.Capacity()

	tests := map[string]mmapfile.LocationInFile{
		"past capacity":    {Offset: capacity - 2, Len: 3},
		"starts past end":  {Offset: capacity + 1, Len: 0},
		"negative offset":  {Offset: -1, Len: 3},
		"negative length":  {Offset: 0, Len: -3},
		"overflowing sums": {Offset: capacity, Len: int(^uint(0) >> 1)},
	}

	for name, loc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := reader.Get(loc)
			assert.ErrorIs(t, err, mmapfile.ErrOutOfBounds)
		})
	}

	_, err := w.Insert(-1, []byte{1})
	assert.ErrorIs(t, err, mmapfile.ErrOutOfBounds)
}

func TestGet_DeserializeError(t *testing.T) {
	_, reader, _ := openBytes(t, testConfig(), "deserialize")

	// Unwritten bytes are zero and do not form a valid frame.
	_, err := reader.Get(mmapfile.LocationInFile{Offset: 0, Len: 3})
	require.ErrorIs(t, err, mmapfile.ErrDeserialize)
	assert.ErrorIs(t, err, codec.ErrMalformed)
}

func TestClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "close")
	w, reader, err := mmapfile.Open[[]byte](testConfig(), path, codec.Bytes{})
	require.NoError(t, err)

	n, err := w.Insert(0, []byte{1})
	require.NoError(t, err)
	require.NoError(t, w.Flush())

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = reader.Get(mmapfile.LocationInFile{Offset: 0, Len: n})
	assert.ErrorIs(t, err, mmapfile.ErrClosed)

	_, err = w.Insert(n, []byte{2})
	assert.ErrorIs(t, err, mmapfile.ErrClosed)

	assert.ErrorIs(t, w.Flush(), mmapfile.ErrClosed)

	var zero mmapfile.Reader[[]byte]
	_, err = zero.Get(mmapfile.LocationInFile{})
	assert.ErrorIs(t, err, mmapfile.ErrClosed)
}

func TestOpen_FileLargerThanMaxSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "too_big")
	require.NoError(t, os.WriteFile(path, make([]byte, 64), 0600))

	cfg := mmapfile.Config{MaxSize: 32, GrowthStep: 8, MaxObjectSize: 4}
	_, _, err := mmapfile.Open[[]byte](cfg, path, codec.Bytes{})
	require.ErrorIs(t, err, mmapfile.ErrCapacityExceeded)

	// The file was left as it was.
	assert.Equal(t, 64, fileSize(t, path))
}

func TestOpen_IOError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "file")

	_, _, err := mmapfile.Open[[]byte](testConfig(), path, codec.Bytes{})
	require.Error(t, err)

	var ioErr *mmapfile.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "open", ioErr.Op)
	assert.True(t, os.IsNotExist(ioErr.Err))
}

func TestReopen_DoesNotShrink(t *testing.T) {
	w, _, path := openBytes(t, testConfig(), "no_shrink")

	// Force the file past its first growth step.
	record := make([]byte, 200)
	offset := 0
	for w.Capacity() == testConfig().GrowthStep {
		n, err := w.Insert(offset, record)
		require.NoError(t, err)
		offset += n
	}
	grown := w.Capacity()
	require.NoError(t, w.Flush())
	require.NoError(t, w.Close())

	w2, r2, err := mmapfile.Open[[]byte](testConfig(), path, codec.Bytes{})
	require.NoError(t, err)
	defer w2.Close()

	assert.Equal(t, grown, r2.Capacity())
	assert.Equal(t, grown, fileSize(t, path))
}
