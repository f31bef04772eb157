package tui

import (
	"fmt"
	"strings"
	"time"

	"codeberg.org/tslocum/cview"
	"github.com/dustin/go-humanize"
	"github.com/riadafridishibly/atimewalk/scanner"
)

func (a *App) IsScanning() bool {
	return a.scanning.Load()
}

// startScanning runs one scan off the UI goroutine. Only one scan runs at a
// time; requests while scanning are ignored.
func (a *App) startScanning() {
	if !a.scanning.CompareAndSwap(false, true) {
		return
	}
	strategy := a.strategy
	a.trySendUIUpdate(a.updateStatus)

	go func() {
		start := time.Now()
		result, err := scanner.NewScanner(strategy, scanner.WithLogger(a.log)).Scan(a.rootPath)
		elapsed := time.Since(start)
		a.sendUIUpdate(func() { a.handleScan(strategy, result, err, elapsed) })
	}()
}

func (a *App) switchStrategy(s scanner.Strategy) {
	if a.IsScanning() || s == a.strategy {
		return
	}
	a.strategy = s
	a.startScanning()
}

// handleScan runs on the UI goroutine.
func (a *App) handleScan(strategy scanner.Strategy, result scanner.ScanResult, err error, elapsed time.Duration) {
	a.scanning.Store(false)

	a.lastErr = err
	if err != nil {
		a.log.WithError(err).WithField("strategy", strategy.String()).Error("scan failed")
		a.updateStatus()
		return
	}

	a.changed = make(map[string]scanner.Change)
	if a.scanCount > 0 {
		for _, ch := range scanner.Compare(a.items, result) {
			if ch.Kind == scanner.ChangeAtime {
				a.changed[ch.Path] = ch
			}
		}
	}
	a.items = result
	a.scanCount++
	a.elapsed = elapsed

	a.buildTable()
	a.updateStatus()
	a.footer.SetText(footerStatusScanned(&a.currentTheme, a.displayPath(a.rootPath)))
	time.AfterFunc(2*time.Second, func() { a.trySendUIUpdate(a.updateStatus) })
}

func (a *App) displayPath(p string) string {
	if !a.replaceHome || a.userHomeDir == "" {
		return p
	}
	if after, ok := strings.CutPrefix(p, a.userHomeDir); ok {
		p = "~" + after
	}
	return p
}

func (a *App) buildTable() *cview.Table {
	theme := a.currentTheme
	table := a.table
	table.Clear()

	for row, item := range a.items {
		color, atimeColor := theme.fg, theme.dim
		marker := " "
		if _, ok := a.changed[item.Path]; ok {
			color, atimeColor = theme.changed, theme.accent
			marker = "*"
		}

		// The entry is bound to column 0 for showItemDetail.
		accessCell := cview.NewTableCell(marker + humanize.Time(item.Atime))
		accessCell.SetTextColor(color)
		accessCell.SetAlign(cview.AlignLeft)
		accessCell.SetReference(item)
		table.SetCell(row, 0, accessCell)

		atimeCell := cview.NewTableCell(fmt.Sprintf(" %s ", item.FormatAtime()))
		atimeCell.SetTextColor(atimeColor)
		atimeCell.SetAlign(cview.AlignRight)
		table.SetCell(row, 1, atimeCell)

		pathCell := cview.NewTableCell(a.displayPath(item.Path))
		pathCell.SetTextColor(color)
		pathCell.SetAlign(cview.AlignLeft)
		pathCell.SetExpansion(1)
		table.SetCell(row, 2, pathCell)
	}

	table.SetBorder(false)
	table.SetBorders(false)
	table.SetSelectable(true, false)
	table.SetSeparator(' ')

	return table
}

func (a *App) showItemDetail() {
	row, _ := a.table.GetSelection()
	cell := a.table.GetCell(row, 0)
	if cell == nil {
		return
	}

	item, ok := cell.GetReference().(scanner.Entry)
	if !ok {
		a.log.Debugf("expected scanner.Entry, found %T", cell.GetReference())
		return
	}

	var detail strings.Builder
	fmt.Fprintf(&detail, "Path: %s\n", item.Path)
	fmt.Fprintf(&detail, "Access Time: %s (%s)\n", item.FormatAtime(), humanize.Time(item.Atime))
	if ch, ok := a.changed[item.Path]; ok {
		fmt.Fprintf(&detail, "Previous Scan: %s (%+v)\n", scanner.Entry{Atime: ch.Before}.FormatAtime(), ch.Delta())
	}
	// A direct read shows whether the entry moved since the last scan.
	if now, err := scanner.ReadAtime(item.Path); err != nil {
		fmt.Fprintf(&detail, "Current: %v\n", err)
	} else {
		fmt.Fprintf(&detail, "Current: %s\n", scanner.Entry{Atime: now}.FormatAtime())
	}

	a.detailModal.SetText(detail.String())
	a.showDetail = true
	a.setRoot(a.detailModal, false)
}
