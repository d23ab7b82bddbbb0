package compressio

import (
	"bytes"
	"io"
	"io/fs"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// DefaultMember is the archive member name used when neither the options
// nor the target provide one.
const DefaultMember = "default"

// zipCompresser keeps one member open inside a zip archive.
type zipCompresser struct {
	mode   Mode
	handle *Handle

	zw     *zip.Writer
	member io.Writer

	rc io.ReadCloser

	closed bool
}

func memberName(t Target, opts CompresserOptions) string {
	if opts.Member != "" {
		return opts.Member
	}
	if name := t.Name(); name != "" {
		return name
	}
	return DefaultMember
}

func newZipCompresser(t Target, mode Mode, opts CompresserOptions) (Compresser, error) {
	name := memberName(t, opts)
	h, err := t.Open(mode)
	if err != nil {
		return nil, err
	}
	c := &zipCompresser{mode: mode, handle: h}
	if mode.Writing() {
		err = c.openWriter(name, opts.Level)
	} else {
		err = c.openReader(name)
	}
	if err != nil {
		return nil, errors.CombineErrors(err, h.Close())
	}
	return c, nil
}

func (c *zipCompresser) openWriter(name string, level int) error {
	c.zw = zip.NewWriter(c.handle)
	if level != 0 {
		c.zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
			return flate.NewWriter(w, level)
		})
	}
	member, err := c.zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return opError(ErrResource, "open", "zipfile", err)
	}
	c.member = member
	return nil
}

func (c *zipCompresser) openReader(name string) error {
	ra, size, err := readerAt(c.handle)
	if err != nil {
		return opError(ErrResource, "open", "zipfile", err)
	}
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return opError(ErrDeserialization, "open", "zipfile", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return opError(ErrDeserialization, "open", "zipfile", errors.Wrapf(err, "archive member %q", name))
		}
		c.rc = rc
		return nil
	}
	return opError(ErrDeserialization, "open", "zipfile", errors.Newf("archive member %q not found", name))
}

// readerAt gives random access to the handle, buffering streams that do not
// support it.
func readerAt(h *Handle) (io.ReaderAt, int64, error) {
	switch raw := h.Raw().(type) {
	case interface {
		io.ReaderAt
		Stat() (fs.FileInfo, error)
	}:
		info, err := raw.Stat()
		if err != nil {
			return nil, 0, err
		}
		return countingReaderAt{raw, h}, info.Size(), nil
	case interface {
		io.ReaderAt
		Size() int64
	}:
		return countingReaderAt{raw, h}, raw.Size(), nil
	}
	data, err := io.ReadAll(h)
	if err != nil {
		return nil, 0, err
	}
	return bytes.NewReader(data), int64(len(data)), nil
}

type countingReaderAt struct {
	io.ReaderAt
	h *Handle
}

func (r countingReaderAt) ReadAt(p []byte, off int64) (int, error) {
	n, err := r.ReaderAt.ReadAt(p, off)
	r.h.count(n)
	return n, err
}

func (c *zipCompresser) Mode() Mode { return c.mode }

func (c *zipCompresser) Stream() io.ReadWriter {
	if c.mode.Writing() {
		return directional{w: c.member}
	}
	return directional{r: c.rc}
}

// Close closes the member, writes the central directory and closes the
// handle when owned.
func (c *zipCompresser) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	var err error
	if c.rc != nil {
		if cerr := c.rc.Close(); cerr != nil {
			err = opError(ErrDeserialization, "close", "zipfile", cerr)
		}
	}
	if c.zw != nil {
		if cerr := c.zw.Close(); cerr != nil {
			err = opError(ErrResource, "close", "zipfile", cerr)
		}
	}
	return errors.CombineErrors(err, c.handle.Close())
}
