package mmapfile

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
)

// LocationInFile identifies one record written to a file.
type LocationInFile struct {
	Offset int `json:"offset"`
	Len    int `json:"len"`
}

// End returns the offset just past the record.
func (l LocationInFile) End() int {
	return l.Offset + l.Len
}

// String implements the fmt.Stringer interface for logging.
func (l LocationInFile) String() string {
	return fmt.Sprintf("%d+%d", l.Offset, l.Len)
}

// =============================================================================

// region owns the mapping of a file and the capacity readers may access.
type region struct {
	path       string
	file       *os.File
	data       []byte // Reserved for maxSize bytes; only [0, capacity) is backed by the file.
	growthStep int
	maxSize    int

	capacity atomic.Int64  // Published size of the file.
	epoch    atomic.Uint64 // Advanced by every sync.
	pins     atomic.Int64  // Reads in flight.
	closed   atomic.Bool

	closeOnce sync.Once
	closeErr  error
}

// openRegion opens or creates the file at path, extends it to at least one
// growth step and maps it.
func openRegion(path string, cfg Config) (*region, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &IOError{Op: "stat", Path: path, Err: err}
	}

	size := fi.Size()
	if size > int64(cfg.MaxSize) {
		f.Close()
		return nil, fmt.Errorf("%w: %s holds %d bytes, max size %d", ErrCapacityExceeded, path, size, cfg.MaxSize)
	}

	// A new file, or one that was never grown, starts at one growth step.
	// An existing file is never shrunk.
	if size < int64(cfg.GrowthStep) {
		if err := f.Truncate(int64(cfg.GrowthStep)); err != nil {
			f.Close()
			return nil, &IOError{Op: "extend", Path: path, Err: err}
		}
		size = int64(cfg.GrowthStep)
	}

	data, err := osReserve(f, cfg.MaxSize)
	if err != nil {
		f.Close()
		return nil, &IOError{Op: "map", Path: path, Err: err}
	}
	osAdviseRandom(data)

	r := region{
		path:       path,
		file:       f,
		data:       data,
		growthStep: cfg.GrowthStep,
		maxSize:    cfg.MaxSize,
	}
	r.capacity.Store(size)

	return &r, nil
}

// size returns the published capacity.
func (r *region) size() int {
	return int(r.capacity.Load())
}

// ensureCapacity grows the file to the smallest multiple of the growth step
// holding required bytes. Only the writer calls this.
func (r *region) ensureCapacity(required int) error {
	current := r.size()
	if required <= current {
		return nil
	}

	if required > r.maxSize {
		return fmt.Errorf("%w: need %d bytes, max size %d", ErrCapacityExceeded, required, r.maxSize)
	}

	steps := (required + r.growthStep - 1) / r.growthStep
	newCapacity := steps * r.growthStep
	if newCapacity > r.maxSize {
		return fmt.Errorf("%w: need %d bytes, max size %d", ErrCapacityExceeded, newCapacity, r.maxSize)
	}

	// The file must back the new range before readers are told about it.
	if err := r.file.Truncate(int64(newCapacity)); err != nil {
		return &IOError{Op: "extend", Path: r.path, Err: err}
	}
	r.capacity.Store(int64(newCapacity))

	return nil
}

// write copies p into the mapping at offset. The range must be inside the
// published capacity.
func (r *region) write(offset int, p []byte) {
	copy(r.data[offset:offset+len(p)], p)
}

// sync writes the published range to disk and advances the epoch so that
// reads starting afterwards are ordered after every preceding write.
func (r *region) sync() error {
	if err := osSync(r.data[:r.size()]); err != nil {
		return &IOError{Op: "sync", Path: r.path, Err: err}
	}
	r.epoch.Add(1)

	return nil
}

// view calls fn with the bytes at [offset, offset+n) of the mapping. The slice
// is only valid for the duration of fn.
func (r *region) view(offset int, n int, fn func(data []byte) error) error {
	if !r.pin() {
		return ErrClosed
	}
	defer r.unpin()

	// Loading the epoch orders this read after the most recent sync.
	r.epoch.Load()
	capacity := r.size()

	if offset < 0 || n < 0 || offset > capacity-n {
		return fmt.Errorf("%w: location %d+%d, capacity %d", ErrOutOfBounds, offset, n, capacity)
	}

	return fn(r.data[offset : offset+n])
}

// pin registers a read in flight. It fails once the region is closed.
func (r *region) pin() bool {
	r.pins.Add(1)
	if r.closed.Load() {
		r.pins.Add(-1)
		return false
	}
	return true
}

func (r *region) unpin() {
	r.pins.Add(-1)
}

// close waits for reads in flight to finish, then releases the mapping and
// the file. It is idempotent.
func (r *region) close() error {
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		for r.pins.Load() > 0 {
			runtime.Gosched()
		}

		if err := osUnmap(r.data); err != nil {
			r.closeErr = &IOError{Op: "unmap", Path: r.path, Err: err}
		}
		r.data = nil

		if err := r.file.Close(); err != nil && r.closeErr == nil {
			r.closeErr = &IOError{Op: "close", Path: r.path, Err: err}
		}
	})

	return r.closeErr
}
