// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/jeranaias/txexport/internal/export"
)

// downloadProgress draws a byte counter for the headless download. The bar
// is created lazily once the response size is known.
type downloadProgress struct {
	enabled bool
	out     io.Writer
	name    string

	container *mpb.Progress
	bar       *mpb.Bar
}

func newDownloadProgress(out io.Writer, name string, enabled bool) *downloadProgress {
	return &downloadProgress{enabled: enabled, out: out, name: name}
}

// Func returns the hook handed to the exporter, or nil when disabled.
func (d *downloadProgress) Func() export.ProgressFunc {
	if !d.enabled {
		return nil
	}
	return func(body io.Reader, size int64) io.Reader {
		d.container = mpb.New(
			mpb.WithOutput(d.out),
			mpb.WithRefreshRate(120*time.Millisecond),
		)
		d.bar = d.container.AddBar(size,
			mpb.PrependDecorators(
				decor.Name(d.name+" ", decor.WC{C: decor.DindentRight}),
				decor.Counters(decor.SizeB1024(0), "% .1f / % .1f"),
			),
			mpb.AppendDecorators(
				decor.OnComplete(decor.Percentage(decor.WCSyncSpace), " done"),
			),
		)
		return d.bar.ProxyReader(body)
	}
}

// Finish completes or aborts the bar and waits for the last render.
func (d *downloadProgress) Finish(ok bool) {
	if d.container == nil {
		return
	}
	if ok {
		// Unknown sizes are fixed up to what was actually read.
		d.bar.SetTotal(-1, true)
	} else {
		d.bar.Abort(false)
	}
	d.container.Wait()
	d.container = nil
}
