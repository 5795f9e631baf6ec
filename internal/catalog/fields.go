// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package catalog defines the fixed set of transaction fields the export
// endpoint can emit, in the order the backend documents them.
package catalog

import (
	"strings"

	"github.com/samber/lo"
)

// FieldID identifies one exportable transaction column.
type FieldID string

// Field pairs an identifier with its human-readable label.
type Field struct {
	ID    FieldID
	Label string
}

// =============================================================================
// FIELD CATALOG
// =============================================================================

// all is the full catalog in display and serialization order.
var all = []Field{
	{"date", "Date"},
	{"datetime", "Date & Time"},
	{"id", "Transaction ID"},
	{"legacyId", "Legacy Transaction ID"},
	{"shortId", "Short Transaction ID"},
	{"shortGroup", "Short Group ID"},
	{"group", "Group ID"},
	{"description", "Description"},
	{"type", "Type"},
	{"kind", "Kind"},
	{"isRefund", "Is Refund"},
	{"isRefunded", "Is Refunded"},
	{"refundId", "Refund ID"},
	{"shortRefundId", "Short Refund ID"},
	{"displayAmount", "Display Amount"},
	{"amount", "Amount"},
	{"paymentProcessorFee", "Payment Processor Fee"},
	{"platformFee", "Platform Fee"},
	{"hostFee", "Host Fee"},
	{"netAmount", "Net Amount"},
	{"balance", "Balance"},
	{"currency", "Currency"},
	{"accountSlug", "Account Slug"},
	{"accountName", "Account Name"},
	{"accountType", "Account Type"},
	{"accountEmail", "Account Email"},
	{"oppositeAccountSlug", "Opposite Account Slug"},
	{"oppositeAccountName", "Opposite Account Name"},
	{"oppositeAccountType", "Opposite Account Type"},
	{"oppositeAccountEmail", "Opposite Account Email"},
	{"hostSlug", "Host Slug"},
	{"hostName", "Host Name"},
	{"hostType", "Host Type"},
	{"orderId", "Order ID"},
	{"orderLegacyId", "Legacy Order ID"},
	{"orderFrequency", "Order Frequency"},
	{"paymentMethodService", "Payment Method Service"},
	{"paymentMethodType", "Payment Method Type"},
	{"expenseId", "Expense ID"},
	{"expenseLegacyId", "Legacy Expense ID"},
	{"expenseType", "Expense Type"},
	{"expenseTags", "Expense Tags"},
	{"payoutMethodType", "Payout Method Type"},
	{"merchantId", "Merchant ID"},
	{"orderMemo", "Order Memo"},
}

// defaults is the pre-selected subset, kept in catalog order.
var defaults = []FieldID{
	"datetime",
	"shortId",
	"shortGroup",
	"description",
	"type",
	"kind",
	"isRefund",
	"isRefunded",
	"shortRefundId",
	"displayAmount",
	"amount",
	"paymentProcessorFee",
	"hostFee",
	"netAmount",
	"balance",
	"currency",
	"accountSlug",
	"accountName",
	"oppositeAccountSlug",
	"oppositeAccountName",
	// Payment method (orders)
	"paymentMethodService",
	"paymentMethodType",
	// Type and payout method (expenses)
	"expenseType",
	"expenseTags",
	"payoutMethodType",
	"merchantId",
	"orderMemo",
}

var (
	labels   = lo.SliceToMap(all, func(f Field) (FieldID, string) { return f.ID, f.Label })
	position = lo.SliceToMap(lo.Range(len(all)), func(i int) (FieldID, int) { return all[i].ID, i })
)

// All returns every exportable field in catalog order.
func All() []Field {
	out := make([]Field, len(all))
	copy(out, all)
	return out
}

// AllIDs returns every field identifier in catalog order.
func AllIDs() []FieldID {
	return lo.Map(all, func(f Field, _ int) FieldID { return f.ID })
}

// Default returns the identifiers pre-selected when the dialog opens.
func Default() []FieldID {
	out := make([]FieldID, len(defaults))
	copy(out, defaults)
	return out
}

// Len returns the number of fields in the catalog.
func Len() int {
	return len(all)
}

// Known reports whether id is part of the catalog.
func Known(id FieldID) bool {
	_, ok := labels[id]
	return ok
}

// Label returns the display label for id, falling back to the raw identifier.
func Label(id FieldID) string {
	if label, ok := labels[id]; ok {
		return label
	}
	return string(id)
}

// Position returns the catalog index of id, or -1 when unknown.
func Position(id FieldID) int {
	if pos, ok := position[id]; ok {
		return pos
	}
	return -1
}

// DefaultHint renders the default subset as a sentence of labels, the way the
// dialog shows it under the field mode selector.
func DefaultHint() string {
	names := lo.Map(defaults, func(id FieldID, _ int) string { return Label(id) })
	return strings.Join(names, ", ") + "."
}

// Parse splits a comma separated list of identifiers, trimming blanks and
// rejecting anything outside the catalog. The returned slice is in input
// order with duplicates removed.
func Parse(list string) ([]FieldID, []string) {
	var ids []FieldID
	var unknown []string
	for _, raw := range strings.Split(list, ",") {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		id := FieldID(name)
		if !Known(id) {
			unknown = append(unknown, name)
			continue
		}
		ids = append(ids, id)
	}
	return lo.Uniq(ids), unknown
}
