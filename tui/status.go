package tui

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

func (a *App) headerText() string {
	if a.scanning.Load() {
		return fmt.Sprintf(" Scanning %s with %s (%s)... ", a.displayPath(a.rootPath), a.strategy, a.strategy.Letter())
	}
	if a.lastErr != nil {
		return fmt.Sprintf("[%s] Error: %v", a.currentTheme.changed.String(), a.lastErr)
	}
	return fmt.Sprintf(" Strategy: %s (%s) | Entries: %s | Changed: %d | Scans: %d | Elapsed: %s ",
		a.strategy,
		a.strategy.Letter(),
		humanize.Comma(int64(len(a.items))),
		len(a.changed),
		a.scanCount,
		a.elapsed.Round(time.Microsecond),
	)
}

func (a *App) updateStatus() {
	a.header.SetText(a.headerText())
	a.footer.SetText(footerStatusMenu(&a.currentTheme))
}

func footerStatusMenu(theme *Theme) string {
	return fmt.Sprintf("[%s] s: Rescan  1/2/3: Strategy A/B/C  ↑/↓: Navigate  i: Details  t: Theme  q: Quit", theme.footerFg.String())
}

func footerStatusScanned(theme *Theme, path string) string {
	return fmt.Sprintf("[%s] Scanned: [-]%s", theme.accent.String(), path)
}
