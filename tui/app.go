package tui

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"codeberg.org/tslocum/cview"
	"github.com/riadafridishibly/atimewalk/scanner"
	"github.com/sirupsen/logrus"
)

type Options struct {
	Strategy             scanner.Strategy
	Theme                string
	ReplaceHomeWithTilde bool
	Logger               logrus.FieldLogger
}

type App struct {
	app *cview.Application

	header      *cview.TextView
	footer      *cview.TextView
	table       *cview.Table
	panels      *cview.Panels
	layout      *cview.Flex
	detailModal *cview.Modal
	themeModal  *cview.Modal

	rootPath string
	log      logrus.FieldLogger

	// Owned by the UI goroutine.
	strategy   scanner.Strategy
	items      scanner.ScanResult
	changed    map[string]scanner.Change
	scanCount  int
	elapsed    time.Duration
	lastErr    error
	showDetail bool
	showTheme  bool

	scanning  atomic.Bool
	uiUpdates chan func()

	userHomeDir string
	replaceHome bool

	currentTheme Theme
}

func (a *App) switchTheme(themeName string) {
	if th, ok := themes[themeName]; ok {
		a.currentTheme = th
	}
}

func (a *App) applyTheme() {
	theme := a.currentTheme

	a.header.SetBackgroundColor(theme.headerBg)
	a.header.SetTextColor(theme.headerFg)

	a.footer.SetBackgroundColor(theme.footerBg)
	a.footer.SetTextColor(theme.footerFg)

	for _, m := range []*cview.Modal{a.detailModal, a.themeModal} {
		m.SetBackgroundColor(theme.modalBg)
		m.SetTextColor(theme.modalFg)
		m.SetButtonBackgroundColor(theme.buttonBg)
		m.SetButtonTextColor(theme.buttonFg)
	}

	a.table.SetBackgroundColor(theme.bg)
	a.panels.SetBackgroundColor(theme.bg)

	a.trySendUIUpdate(func() {
		a.updateStatus()
		a.buildTable()
	})
}

// NewApp builds the viewer for rootPath. Scanning starts when Run is called.
func NewApp(rootPath string, opts Options) *App {
	app := cview.NewApplication()

	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	strategy := opts.Strategy
	if !strategy.Valid() {
		strategy = scanner.StrategyScandirFd
	}

	header := cview.NewTextView()
	header.SetDynamicColors(true)
	header.SetTextAlign(cview.AlignCenter)

	footer := cview.NewTextView()
	footer.SetDynamicColors(true)
	footer.SetTextAlign(cview.AlignCenter)

	detailModal := cview.NewModal()
	detailModal.SetText("")
	detailModal.AddButtons([]string{"Okay"})

	themeModal := cview.NewModal()
	themeModal.SetText("")
	themeNames := getThemeNames()
	themeModal.AddButtons(themeNames)

	panels := cview.NewPanels()
	table := cview.NewTable()
	panels.AddPanel("table", table, true, true)

	flex := cview.NewFlex()
	flex.SetDirection(cview.FlexRow)
	flex.AddItem(header, 1, 0, false)
	flex.AddItem(panels, 0, 1, true)
	flex.AddItem(footer, 1, 0, false)

	a := &App{
		app:          app,
		header:       header,
		footer:       footer,
		table:        table,
		panels:       panels,
		layout:       flex,
		detailModal:  detailModal,
		themeModal:   themeModal,
		rootPath:     rootPath,
		log:          log,
		strategy:     strategy,
		changed:      make(map[string]scanner.Change),
		uiUpdates:    make(chan func(), 128),
		replaceHome:  opts.ReplaceHomeWithTilde,
		currentTheme: lookupTheme(opts.Theme),
	}

	app.SetInputCapture(a.handleInput)

	detailModal.SetDoneFunc(func(_ int, _ string) {
		a.showDetail = false
		a.setRoot(a.layout, true)
	})

	themeModal.SetDoneFunc(func(buttonIndex int, buttonLabel string) {
		a.showTheme = false
		a.setRoot(a.layout, true)

		if buttonIndex >= 0 && buttonIndex < len(themeNames) {
			a.switchTheme(buttonLabel)
			a.applyTheme()
		}
	})

	if home, err := os.UserHomeDir(); err == nil {
		a.userHomeDir = home
	} else {
		log.WithError(err).Warn("resolving home directory")
	}

	header.SetText(a.headerText())
	footer.SetText(footerStatusMenu(&a.currentTheme))

	a.setRoot(flex, true)
	a.applyTheme()

	return a
}

func (a *App) showThemeSelector() {
	theme := a.currentTheme
	text := fmt.Sprintf("Select Theme (Current: [%s]%s[-])", theme.accent.String(), theme.Name)
	a.themeModal.SetText(text)
	a.showTheme = true
	a.setRoot(a.themeModal, false)
}

func (a *App) Run() error {
	a.log.WithField("theme", a.currentTheme.Name).Info("starting viewer")
	go a.processUIUpdates()
	a.startScanning()
	return a.app.Run()
}
