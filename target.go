package compressio

import (
	"io"
	"io/fs"
	"path/filepath"
	"sync/atomic"

	"github.com/absfs/absfs"
	"github.com/cockroachdb/errors"
)

// Target is the sink or source of a call: either a path opened through a
// filesystem, or a stream supplied by the caller.
type Target struct {
	path   string
	stream any
	fsys   absfs.Filer
	perm   fs.FileMode

	// stored counts bytes crossing the raw handle.
	stored *atomic.Int64
}

// PathTarget returns a Target for a filesystem path. The path is opened
// through the Codec's filesystem unless WithFileSystem is used.
func PathTarget(path string) Target {
	return Target{path: path}
}

// StreamTarget returns a Target for a caller-owned stream. s must implement
// io.Writer to be written and io.Reader to be read. The stream is never closed.
func StreamTarget(s any) Target {
	return Target{stream: s}
}

// WithFileSystem returns a copy of t that opens its path through fsys.
func (t Target) WithFileSystem(fsys absfs.Filer) Target {
	t.fsys = fsys
	return t
}

// IsPath reports whether t names a path.
func (t Target) IsPath() bool { return t.stream == nil }

// Path returns the path of t, or "" for stream targets.
func (t Target) Path() string { return t.path }

// Name returns the base name of the target: the path's base name, the base
// of the stream's Name() when it has one, or "".
func (t Target) Name() string {
	if t.IsPath() {
		return filepath.Base(t.path)
	}
	if n, ok := t.stream.(interface{ Name() string }); ok && n.Name() != "" {
		return filepath.Base(n.Name())
	}
	return ""
}

func (t Target) String() string {
	if t.IsPath() {
		return t.path
	}
	return "<stream>"
}

func (t Target) withPath(path string) Target {
	t.path = path
	return t
}

// Open opens the raw handle of t in mode. Paths are opened through the
// filesystem and the handle owns the file; streams are borrowed.
func (t Target) Open(mode Mode) (*Handle, error) {
	if mode == ModeUnsupported {
		return nil, opError(ErrUnsupportedMode, "open", "", nil)
	}
	h := &Handle{name: t.Name(), stored: t.stored}
	if !t.IsPath() {
		if mode.Writing() {
			w, ok := t.stream.(io.Writer)
			if !ok {
				return nil, opError(ErrResource, "open", "", errors.Newf("stream %T is not writable", t.stream))
			}
			h.w = w
		} else {
			r, ok := t.stream.(io.Reader)
			if !ok {
				return nil, opError(ErrResource, "open", "", errors.Newf("stream %T is not readable", t.stream))
			}
			h.r = r
		}
		h.raw = t.stream
		return h, nil
	}

	fsys := t.fsys
	if fsys == nil {
		fsys = OSFileSystem()
	}
	perm := t.perm
	if perm == 0 {
		perm = 0o644
	}
	f, err := fsys.OpenFile(t.path, mode.Flag(), perm)
	if err != nil {
		e := opError(ErrResource, "open", "", err)
		e.Mode = mode
		return nil, e
	}
	h.raw = f
	h.closer = f
	if mode.Writing() {
		h.w = f
	} else {
		h.r = f
	}
	return h, nil
}

// Handle is the raw byte stream underneath a compresser.
type Handle struct {
	name   string
	raw    any
	r      io.Reader
	w      io.Writer
	closer io.Closer // nil when borrowed
	closed bool
	stored *atomic.Int64
}

// Read reads raw bytes from the underlying stream.
func (h *Handle) Read(p []byte) (int, error) {
	if h.r == nil {
		return 0, opError(ErrUnsupportedMode, "read", "", errors.New("handle opened for writing"))
	}
	n, err := h.r.Read(p)
	h.count(n)
	return n, err
}

// Write writes raw bytes to the underlying stream.
func (h *Handle) Write(p []byte) (int, error) {
	if h.w == nil {
		return 0, opError(ErrUnsupportedMode, "write", "", errors.New("handle opened for reading"))
	}
	n, err := h.w.Write(p)
	h.count(n)
	return n, err
}

func (h *Handle) count(n int) {
	if h.stored != nil && n > 0 {
		h.stored.Add(int64(n))
	}
}

// Name returns the base name of the target the handle was opened from.
func (h *Handle) Name() string { return h.name }

// Raw returns the opened file or the caller's stream.
func (h *Handle) Raw() any { return h.raw }

// Owned reports whether the handle opened the stream itself.
func (h *Handle) Owned() bool { return h.closer != nil }

// Close closes the stream if the handle owns it. Borrowed streams are left
// open. Closing twice is a no-op.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	if h.closer == nil {
		return nil
	}
	if err := h.closer.Close(); err != nil {
		return opError(ErrResource, "close", "", err)
	}
	return nil
}
