package compressio

import (
	"sync"
	"sync/atomic"
)

// Stats is a snapshot of codec activity.
type Stats struct {
	Dumps    int64
	Loads    int64
	Failures int64

	// BytesSerialized counts bytes between serializer and compresser.
	BytesSerialized int64
	// BytesStored counts bytes crossing the raw handle.
	BytesStored int64

	// MethodCounts counts successful calls per compression method.
	MethodCounts map[string]int64
}

// CompressionRatio returns stored over serialized bytes, or 0 when nothing
// was serialized. Lower is better.
func (s Stats) CompressionRatio() float64 {
	return GetCompressionRatio(s.BytesSerialized, s.BytesStored)
}

type stats struct {
	dumps           atomic.Int64
	loads           atomic.Int64
	failures        atomic.Int64
	bytesSerialized atomic.Int64
	bytesStored     atomic.Int64
	methods         sync.Map // map[string]*atomic.Int64
}

func (s *stats) record(method string, writing bool, serialized, stored int64) {
	if writing {
		s.dumps.Add(1)
	} else {
		s.loads.Add(1)
	}
	s.bytesSerialized.Add(serialized)
	s.bytesStored.Add(stored)
	v, _ := s.methods.LoadOrStore(method, new(atomic.Int64))
	v.(*atomic.Int64).Add(1)
}

func (s *stats) snapshot() Stats {
	out := Stats{
		Dumps:           s.dumps.Load(),
		Loads:           s.loads.Load(),
		Failures:        s.failures.Load(),
		BytesSerialized: s.bytesSerialized.Load(),
		BytesStored:     s.bytesStored.Load(),
		MethodCounts:    make(map[string]int64),
	}
	s.methods.Range(func(k, v any) bool {
		out.MethodCounts[k.(string)] = v.(*atomic.Int64).Load()
		return true
	})
	return out
}

func (s *stats) reset() {
	s.dumps.Store(0)
	s.loads.Store(0)
	s.failures.Store(0)
	s.bytesSerialized.Store(0)
	s.bytesStored.Store(0)
	s.methods.Clear()
}
