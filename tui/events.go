package tui

import "codeberg.org/tslocum/cview"

// trySendUIUpdate drops f if the queue is full. Only use it for updates that
// a later one supersedes.
func (a *App) trySendUIUpdate(f func()) {
	select {
	case a.uiUpdates <- f:
	default:
	}
}

// sendUIUpdate queues f, waiting for room if needed.
func (a *App) sendUIUpdate(f func()) {
	a.uiUpdates <- f
}

// setRoot queues a SetRoot operation to avoid data races
func (a *App) setRoot(primitive cview.Primitive, focus bool) {
	a.app.QueueUpdateDraw(func() {
		a.app.SetRoot(primitive, focus)
	})
}

func (a *App) processUIUpdates() {
	for updateFn := range a.uiUpdates {
		a.app.QueueUpdateDraw(updateFn)
	}
}
