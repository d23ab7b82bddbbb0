package compressio

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/absfs/absfs"
)

// cleanName normalizes a path for storage and lookup in a MemFS.
func cleanName(name string) string {
	name = filepath.Clean(name)
	name = strings.TrimPrefix(name, string(filepath.Separator))
	if name == "" {
		name = "."
	}
	return name
}

// MemFS is an in-memory absfs.Filer. Directories are implicit.
type MemFS struct {
	mu    sync.RWMutex
	nodes map[string]*memNode
}

var _ absfs.Filer = (*MemFS)(nil)

type memNode struct {
	data    []byte
	mode    fs.FileMode
	modTime time.Time
}

// NewMemFS creates an empty in-memory filesystem.
func NewMemFS() *MemFS {
	return &MemFS{nodes: make(map[string]*memNode)}
}

// ReadFile returns a copy of the contents of name.
func (m *MemFS) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[cleanName(name)]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), n.data...), nil
}

// WriteFile replaces the contents of name.
func (m *MemFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[cleanName(name)] = &memNode{data: append([]byte(nil), data...), mode: perm, modTime: time.Now()}
	return nil
}

func (m *MemFS) Open(name string) (absfs.File, error) {
	return m.OpenFile(name, os.O_RDONLY, 0)
}

func (m *MemFS) Create(name string) (absfs.File, error) {
	return m.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o666)
}

func (m *MemFS) OpenFile(name string, flag int, perm fs.FileMode) (absfs.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := cleanName(name)
	n, exists := m.nodes[key]
	switch {
	case exists && flag&os.O_CREATE != 0 && flag&os.O_EXCL != 0:
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrExist}
	case !exists && flag&os.O_CREATE == 0:
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	case !exists:
		n = &memNode{mode: perm, modTime: time.Now()}
		m.nodes[key] = n
	}
	if flag&os.O_TRUNC != 0 {
		n.data = n.data[:0]
		n.modTime = time.Now()
	}

	f := &memFile{fs: m, node: n, name: key, flag: flag}
	if flag&os.O_APPEND != 0 {
		f.pos = int64(len(n.data))
	}
	return f, nil
}

// Mkdir is a no-op: directories are implicit.
func (m *MemFS) Mkdir(name string, perm fs.FileMode) error { return nil }

func (m *MemFS) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := cleanName(name)
	if _, ok := m.nodes[key]; !ok {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
	}
	delete(m.nodes, key)
	return nil
}

func (m *MemFS) Rename(oldpath, newpath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	oldKey, newKey := cleanName(oldpath), cleanName(newpath)
	n, ok := m.nodes[oldKey]
	if !ok {
		return &fs.PathError{Op: "rename", Path: oldpath, Err: fs.ErrNotExist}
	}
	m.nodes[newKey] = n
	delete(m.nodes, oldKey)
	return nil
}

func (m *MemFS) Stat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	key := cleanName(name)
	n, ok := m.nodes[key]
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	return n.info(key), nil
}

// ReadDir lists the files directly under name, sorted by name.
func (m *MemFS) ReadDir(name string) ([]fs.DirEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	dir := cleanName(name)
	var entries []fs.DirEntry
	for key, n := range m.nodes {
		if filepath.Dir(key) == dir {
			entries = append(entries, fs.FileInfoToDirEntry(n.info(key)))
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

func (m *MemFS) Chmod(name string, mode os.FileMode) error {
	return m.update(name, "chmod", func(n *memNode) { n.mode = mode })
}

func (m *MemFS) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return m.update(name, "chtimes", func(n *memNode) { n.modTime = mtime })
}

func (m *MemFS) Chown(name string, uid, gid int) error {
	return m.update(name, "chown", func(*memNode) {})
}

func (m *MemFS) update(name, op string, fn func(*memNode)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[cleanName(name)]
	if !ok {
		return &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
	}
	fn(n)
	return nil
}

func (n *memNode) info(key string) *memFileInfo {
	return &memFileInfo{name: filepath.Base(key), size: int64(len(n.data)), mode: n.mode, modTime: n.modTime}
}

// memFile is an open handle on a memNode.
type memFile struct {
	fs     *MemFS
	node   *memNode
	name   string
	flag   int
	pos    int64
	closed bool
}

func (f *memFile) readable() bool {
	return f.flag&(os.O_WRONLY|os.O_RDWR) != os.O_WRONLY
}

func (f *memFile) writable() bool {
	return f.flag&(os.O_WRONLY|os.O_RDWR) != 0
}

func (f *memFile) Name() string { return f.name }

func (f *memFile) Read(p []byte) (int, error) {
	n, err := f.ReadAt(p, f.pos)
	f.pos += int64(n)
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

func (f *memFile) ReadAt(p []byte, off int64) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	if !f.readable() {
		return 0, &fs.PathError{Op: "read", Path: f.name, Err: fs.ErrPermission}
	}
	if off < 0 {
		return 0, errors.New("memfs: negative offset")
	}
	f.fs.mu.RLock()
	defer f.fs.mu.RUnlock()
	if off >= int64(len(f.node.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.node.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *memFile) Write(p []byte) (int, error) {
	if f.flag&os.O_APPEND != 0 {
		f.fs.mu.RLock()
		f.pos = int64(len(f.node.data))
		f.fs.mu.RUnlock()
	}
	n, err := f.WriteAt(p, f.pos)
	f.pos += int64(n)
	return n, err
}

func (f *memFile) WriteAt(p []byte, off int64) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	if !f.writable() {
		return 0, &fs.PathError{Op: "write", Path: f.name, Err: fs.ErrPermission}
	}
	if off < 0 {
		return 0, errors.New("memfs: negative offset")
	}
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	end := off + int64(len(p))
	if end > int64(len(f.node.data)) {
		grown := make([]byte, end)
		copy(grown, f.node.data)
		f.node.data = grown
	}
	copy(f.node.data[off:], p)
	f.node.modTime = time.Now()
	return len(p), nil
}

func (f *memFile) WriteString(s string) (int, error) { return f.Write([]byte(s)) }

func (f *memFile) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	f.fs.mu.RLock()
	size := int64(len(f.node.data))
	f.fs.mu.RUnlock()
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = f.pos + offset
	case io.SeekEnd:
		pos = size + offset
	default:
		return 0, errors.New("memfs: invalid whence")
	}
	if pos < 0 {
		return 0, errors.New("memfs: negative position")
	}
	f.pos = pos
	return pos, nil
}

func (f *memFile) Truncate(size int64) error {
	if f.closed {
		return fs.ErrClosed
	}
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	if size < int64(len(f.node.data)) {
		f.node.data = f.node.data[:size]
	} else {
		grown := make([]byte, size)
		copy(grown, f.node.data)
		f.node.data = grown
	}
	return nil
}

func (f *memFile) Stat() (fs.FileInfo, error) {
	f.fs.mu.RLock()
	defer f.fs.mu.RUnlock()
	return f.node.info(f.name), nil
}

func (f *memFile) Sync() error { return nil }

func (f *memFile) Close() error {
	if f.closed {
		return fs.ErrClosed
	}
	f.closed = true
	return nil
}

func (f *memFile) Readdir(int) ([]os.FileInfo, error) { return nil, os.ErrInvalid }

func (f *memFile) Readdirnames(int) ([]string, error) { return nil, os.ErrInvalid }

func (f *memFile) ReadDir(int) ([]fs.DirEntry, error) { return nil, os.ErrInvalid }

type memFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
}

func (fi *memFileInfo) Name() string       { return fi.name }
func (fi *memFileInfo) Size() int64        { return fi.size }
func (fi *memFileInfo) Mode() fs.FileMode  { return fi.mode }
func (fi *memFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *memFileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi *memFileInfo) Sys() any           { return nil }
