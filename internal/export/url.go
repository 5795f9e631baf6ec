// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Formats the endpoint can serve. Both return CSV rows; txt avoids clients
// that try to open .csv responses inline.
const (
	FormatTXT = "txt"
	FormatCSV = "csv"
)

// URLBuilder derives the endpoint URL from a request. It holds no state
// beyond its configuration, so identical requests yield identical URLs.
type URLBuilder struct {
	// BaseURL is the REST root, e.g. "https://rest.example.org".
	BaseURL string
	// Format is the endpoint extension, FormatTXT or FormatCSV.
	Format string
	// Now anchors open-ended ranges for the fetchAll heuristic.
	Now func() time.Time
}

// NewURLBuilder returns a builder with the default format and wall clock.
func NewURLBuilder(baseURL string) *URLBuilder {
	return &URLBuilder{BaseURL: baseURL, Format: FormatTXT, Now: time.Now}
}

// Build returns the fully qualified export URL for req.
func (b *URLBuilder) Build(req Request) (string, error) {
	if err := req.Target.Validate(); err != nil {
		return "", err
	}

	base, err := url.Parse(strings.TrimSuffix(b.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("invalid REST base URL %q", b.BaseURL)
	}

	format := b.Format
	if format == "" {
		format = FormatTXT
	}

	resource := "transactions"
	if req.Target.IsHostReport() {
		resource = "hostTransactions"
	}
	base.Path = base.Path + "/v2/" + req.Target.PathSlug() + "/" + resource + "." + format

	q := url.Values{}
	interval := req.Interval.Normalize()

	if req.Target.IsHostReport() {
		q.Set("fetchAll", "1")
		if len(req.Target.Accounts) > 0 {
			q.Set("account", strings.Join(req.Target.Accounts, ","))
		}
	} else {
		q.Set("includeChildrenTransactions", "1")
		q.Set("includeIncognitoTransactions", "1")
		q.Set("includeGiftCardTransactions", "1")
		// Without an account filter the backend paginates large windows; only
		// short windows ask for everything at once.
		if span, ok := interval.Span(b.now()); ok && span < FetchAllWindow {
			q.Set("fetchAll", "1")
		}
	}

	if interval.From != "" {
		q.Set("dateFrom", interval.From)
	}
	if interval.To != "" {
		q.Set("dateTo", interval.To)
	}
	if !req.Fields.IsEmpty() {
		q.Set("fields", req.Fields.Join())
	}

	base.RawQuery = q.Encode()
	return base.String(), nil
}

func (b *URLBuilder) now() time.Time {
	if b.Now == nil {
		return time.Now()
	}
	return b.Now()
}
