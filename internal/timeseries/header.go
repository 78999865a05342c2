// Package timeseries implements ReportTimeseries and its header metadata
// (spec.md §4.9), plus the Placeholder/Realized accessor pattern used by
// StatInstRowIterator and StatInstValueLookup. There is no teacher or pack
// example for a chunked statistic time-series store, so this package is a
// fresh build grounded directly on the original Sparta C++ sources
// (original_source/sparta/sparta/report/db/ReportTimeseries.hpp,
// StatInstRowIterator.hpp, StatInstValueLookup.hpp — see SPEC_FULL.md §4),
// written in the teacher's idiom: accept-interfaces/return-structs, typed
// errors instead of panics, google/uuid for generated identifiers.
package timeseries

import (
	"github.com/spartasim/simdb/pkg/utils"
)

// hiddenPrefix marks a header metadata key as internal bookkeeping rather
// than a user-visible statistic name, mirroring the original's "__"
// convention for reserved SimInfo keys.
const hiddenPrefix = "__"

// Header describes one ReportTimeseries: the ordered statistic names it
// captures a value for on every Capture call, plus free-form string
// metadata (simulation name, start time, hidden bookkeeping entries).
type Header struct {
	ID        string
	StatNames []string
	Metadata  map[string]string
	ChunkSize int
}

// NewHeader mints a fresh header with a random id and the given ordered
// statistic names. ChunkSize defaults to 1024 rows per on-disk chunk.
func NewHeader(statNames []string) *Header {
	return &Header{
		ID:        utils.GenerateID(),
		StatNames: append([]string(nil), statNames...),
		Metadata:  make(map[string]string),
		ChunkSize: 1024,
	}
}

// SetMetadata records a visible (non-hidden) metadata entry.
func (h *Header) SetMetadata(key, value string) {
	h.Metadata[key] = value
}

// SetHiddenMetadata records a "__"-prefixed bookkeeping entry that
// downstream readers should not surface as a user statistic.
func (h *Header) SetHiddenMetadata(key, value string) {
	h.Metadata[hiddenPrefix+key] = value
}

// IsHidden reports whether a metadata key is a hidden bookkeeping entry.
func IsHidden(key string) bool {
	return len(key) >= len(hiddenPrefix) && key[:len(hiddenPrefix)] == hiddenPrefix
}

// VisibleMetadata returns only the non-hidden metadata entries.
func (h *Header) VisibleMetadata() map[string]string {
	out := make(map[string]string)
	for k, v := range h.Metadata {
		if !IsHidden(k) {
			out[k] = v
		}
	}
	return out
}

// ColumnIndex returns the position of statName within StatNames, or -1.
func (h *Header) ColumnIndex(statName string) int {
	for i, n := range h.StatNames {
		if n == statName {
			return i
		}
	}
	return -1
}
