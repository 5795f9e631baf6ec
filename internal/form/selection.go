// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package form

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/jeranaias/txexport/internal/catalog"
)

// Selection is the mapping of field to inclusion. Only included fields are
// stored; iteration follows catalog order.
type Selection struct {
	included map[catalog.FieldID]bool
}

// NewSelection returns a selection containing ids.
func NewSelection(ids ...catalog.FieldID) Selection {
	s := Selection{included: make(map[catalog.FieldID]bool, len(ids))}
	for _, id := range ids {
		s.included[id] = true
	}
	return s
}

// DefaultSelection returns the catalog's default subset.
func DefaultSelection() Selection {
	return NewSelection(catalog.Default()...)
}

// Set includes id when checked and removes it otherwise.
func (s *Selection) Set(id catalog.FieldID, checked bool) {
	if s.included == nil {
		s.included = make(map[catalog.FieldID]bool)
	}
	if checked {
		s.included[id] = true
		return
	}
	delete(s.included, id)
}

// Has reports whether id is included.
func (s Selection) Has(id catalog.FieldID) bool {
	return s.included[id]
}

// Len returns the number of included fields.
func (s Selection) Len() int {
	return len(s.included)
}

// IsEmpty reports whether nothing is selected.
func (s Selection) IsEmpty() bool {
	return len(s.included) == 0
}

// IDs returns the included fields in catalog order. Identifiers outside the
// catalog sort last, alphabetically.
func (s Selection) IDs() []catalog.FieldID {
	ids := lo.Keys(s.included)
	sort.Slice(ids, func(a, b int) bool {
		pa, pb := catalog.Position(ids[a]), catalog.Position(ids[b])
		switch {
		case pa < 0 && pb < 0:
			return ids[a] < ids[b]
		case pa < 0:
			return false
		case pb < 0:
			return true
		}
		return pa < pb
	})
	return ids
}

// Join renders the selection as the comma separated `fields` parameter.
func (s Selection) Join() string {
	return strings.Join(lo.Map(s.IDs(), func(id catalog.FieldID, _ int) string { return string(id) }), ",")
}

// Clone returns an independent copy.
func (s Selection) Clone() Selection {
	return NewSelection(lo.Keys(s.included)...)
}
