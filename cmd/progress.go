package main

import (
	"io"

	"github.com/desertthunder/crates/internal/tasks"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// progressBar renders album fetch progress. The bar is created on the first album update.
type progressBar struct {
	p       *mpb.Progress
	bar     *mpb.Bar
	current int
}

func newProgressBar(w io.Writer) *progressBar {
	return &progressBar{p: mpb.New(mpb.WithOutput(w), mpb.WithWidth(40))}
}

func (b *progressBar) update(u tasks.ProgressUpdate) {
	if u.Phase != tasks.FetchAlbums || u.Total <= 0 {
		return
	}

	if b.bar == nil {
		b.bar = b.p.AddBar(int64(u.Total),
			mpb.PrependDecorators(
				decor.Name("albums", decor.WCSyncSpaceR),
				decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
			),
			mpb.AppendDecorators(decor.Percentage(decor.WC{W: 5})),
		)
	}

	// Updates race each other; the bar only moves forward.
	if u.Step > b.current {
		b.current = u.Step
		b.bar.SetCurrent(int64(u.Step))
	}
}

// wait drops an unfinished bar and blocks until rendering stops.
func (b *progressBar) wait() {
	if b.bar != nil && !b.bar.Completed() {
		b.bar.Abort(false)
	}
	b.p.Wait()
}
