package compressio

import (
	"io/fs"
	"os"
	"time"

	"github.com/absfs/absfs"
)

// osFS is an absfs.Filer backed by the host filesystem.
type osFS struct{}

var _ absfs.Filer = osFS{}

// OSFileSystem returns the host filesystem. It is the default for path targets.
func OSFileSystem() absfs.Filer { return osFS{} }

func (osFS) Open(name string) (absfs.File, error) {
	return osFS{}.OpenFile(name, os.O_RDONLY, 0)
}

func (osFS) OpenFile(name string, flag int, perm fs.FileMode) (absfs.File, error) {
	f, err := os.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (osFS) Create(name string) (absfs.File, error) {
	return osFS{}.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o666)
}

func (osFS) Mkdir(name string, perm fs.FileMode) error { return os.Mkdir(name, perm) }

func (osFS) Remove(name string) error { return os.Remove(name) }

func (osFS) Rename(oldpath, newpath string) error { return os.Rename(oldpath, newpath) }

func (osFS) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) }

func (osFS) ReadDir(name string) ([]fs.DirEntry, error) { return os.ReadDir(name) }

func (osFS) Chmod(name string, mode os.FileMode) error { return os.Chmod(name, mode) }

func (osFS) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return os.Chtimes(name, atime, mtime)
}

func (osFS) Chown(name string, uid, gid int) error { return os.Chown(name, uid, gid) }
