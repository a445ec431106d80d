package fast

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/ethereum-optimism/fluxvm/fvgo/arch"
)

var (
	ErrUnknownFD   = errors.New("unknown fd")
	ErrFDExhausted = errors.New("file descriptor space exhausted")
	ErrNotWritable = errors.New("descriptor is not writable")
	ErrTableClosed = errors.New("file table closed")
)

var OpenFilePerm = os.FileMode(0o644)

const openFileFlags = os.O_WRONLY | os.O_CREATE

type fileEntry struct {
	w io.Writer
	c io.Closer // nil for the standard streams, which the table does not own
}

// FileTable maps guest descriptors to host writers. Descriptors 0-2 are the standard streams;
// files opened by the guest get monotonically increasing descriptors starting at 3, never reused.
type FileTable struct {
	entries map[uint32]fileEntry
	next    uint32
	closed  bool
}

// NewFileTable binds the standard streams. A nil writer discards output.
// Standard input is only writable if the reader also implements io.Writer.
func NewFileTable(stdIn io.Reader, stdOut, stdErr io.Writer) *FileTable {
	if stdOut == nil {
		stdOut = io.Discard
	}
	if stdErr == nil {
		stdErr = io.Discard
	}
	in, ok := stdIn.(io.Writer)
	if !ok {
		in = readOnlyStream{}
	}
	return &FileTable{
		entries: map[uint32]fileEntry{
			arch.FdStdin:  {w: in},
			arch.FdStdout: {w: stdOut},
			arch.FdStderr: {w: stdErr},
		},
		next: arch.FdFirstFree,
	}
}

type readOnlyStream struct{}

func (readOnlyStream) Write([]byte) (int, error) {
	return 0, ErrNotWritable
}

// Open opens or creates path for writing and returns the descriptor bound to it.
// Existing files are not truncated.
func (ft *FileTable) Open(path string) (uint32, error) {
	if ft.closed {
		return 0, ErrTableClosed
	}
	if ft.next < arch.FdFirstFree {
		return 0, ErrFDExhausted
	}
	f, err := os.OpenFile(path, openFileFlags, OpenFilePerm)
	if err != nil {
		return 0, err
	}
	fd := ft.next
	ft.entries[fd] = fileEntry{w: f, c: f}
	ft.next++
	return fd, nil
}

// Write writes all of p to fd.
func (ft *FileTable) Write(fd uint32, p []byte) error {
	e, ok := ft.entries[fd]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownFD, fd)
	}
	n, err := e.w.Write(p)
	if err != nil {
		return fmt.Errorf("write to fd %d: %w", fd, err)
	}
	if n != len(p) {
		return fmt.Errorf("write to fd %d: %w", fd, io.ErrShortWrite)
	}
	return nil
}

// Lookup returns the writer bound to fd.
func (ft *FileTable) Lookup(fd uint32) (io.Writer, bool) {
	e, ok := ft.entries[fd]
	return e.w, ok
}

// Next returns the descriptor the next Open will return.
func (ft *FileTable) Next() uint32 {
	return ft.next
}

// Close closes every file the guest opened. The standard streams stay open.
func (ft *FileTable) Close() error {
	if ft.closed {
		return nil
	}
	ft.closed = true
	fds := make([]uint32, 0, len(ft.entries))
	for fd, e := range ft.entries {
		if e.c != nil {
			fds = append(fds, fd)
		}
	}
	sort.Slice(fds, func(i, j int) bool { return fds[i] < fds[j] })
	var errs []error
	for _, fd := range fds {
		if err := ft.entries[fd].c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close fd %d: %w", fd, err))
		}
		delete(ft.entries, fd)
	}
	return errors.Join(errs...)
}
