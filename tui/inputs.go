package tui

import (
	"github.com/gdamore/tcell/v3"
	"github.com/riadafridishibly/atimewalk/scanner"
)

func (a *App) handleInput(event *tcell.EventKey) *tcell.EventKey {
	if a.showDetail || a.showTheme {
		// vi key binding for modal button selection
		switch event.Str() {
		case "l":
			return tcell.NewEventKey(tcell.KeyRight, tcell.KeyNames[tcell.KeyRight], tcell.ModNone)
		case "h":
			return tcell.NewEventKey(tcell.KeyLeft, tcell.KeyNames[tcell.KeyLeft], tcell.ModNone)
		}
		return event
	}

	switch event.Str() {
	case "s", "S":
		a.startScanning()
		return nil
	case "1":
		a.switchStrategy(scanner.StrategyScandir)
		return nil
	case "2":
		a.switchStrategy(scanner.StrategyListdirFd)
		return nil
	case "3":
		a.switchStrategy(scanner.StrategyScandirFd)
		return nil
	case "q", "Q":
		a.app.Stop()
		return nil
	case "i", "I":
		a.showItemDetail()
	case "t", "T":
		a.showThemeSelector()
	}

	return event
}
