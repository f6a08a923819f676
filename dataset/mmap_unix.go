//go:build unix

package dataset

import (
	"bytes"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// openMapping maps the file into memory. The mapping outlives the
// descriptor, which is closed right away.
func openMapping(path string) (io.ReaderAt, int64, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, nil, err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, 0, nil, err
	}
	size := fi.Size()
	if size == 0 {
		return bytes.NewReader(nil), 0, func() error { return nil }, nil
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, 0, nil, err
	}
	return bytes.NewReader(data), size, func() error { return unix.Munmap(data) }, nil
}
