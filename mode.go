package compressio

import "os"

// Mode is the byte-level mode a compresser is opened in. All modes are binary.
type Mode int

const (
	ModeUnsupported Mode = iota
	ModeRead
	ModeWrite
	ModeAppend
	ModeWriteExclusive
)

// ModeKind groups modes by the default a compression method declares for them.
type ModeKind int

const (
	KindRead ModeKind = iota + 1
	KindWrite
	KindAppend
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "binary-read"
	case ModeWrite:
		return "binary-write"
	case ModeAppend:
		return "binary-append"
	case ModeWriteExclusive:
		return "binary-write-exclusive"
	default:
		return "unsupported"
	}
}

// Kind returns the kind m belongs to. ModeWriteExclusive is a write mode.
func (m Mode) Kind() ModeKind {
	switch m {
	case ModeRead:
		return KindRead
	case ModeWrite, ModeWriteExclusive:
		return KindWrite
	case ModeAppend:
		return KindAppend
	default:
		return 0
	}
}

// Writing reports whether m produces output.
func (m Mode) Writing() bool {
	return m == ModeWrite || m == ModeAppend || m == ModeWriteExclusive
}

// Flag returns the os.OpenFile flags used to open a path in mode m.
func (m Mode) Flag() int {
	switch m {
	case ModeRead:
		return os.O_RDONLY
	case ModeWrite:
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	case ModeAppend:
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND
	case ModeWriteExclusive:
		return os.O_WRONLY | os.O_CREATE | os.O_EXCL
	default:
		return 0
	}
}

func (k ModeKind) String() string {
	switch k {
	case KindRead:
		return "read"
	case KindWrite:
		return "write"
	case KindAppend:
		return "append"
	default:
		return "unknown"
	}
}
