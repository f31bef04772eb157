package tui

import (
	"sort"

	"github.com/gdamore/tcell/v3"
)

type Theme struct {
	Name     string
	bg       tcell.Color
	fg       tcell.Color
	changed  tcell.Color
	accent   tcell.Color
	dim      tcell.Color
	headerBg tcell.Color
	headerFg tcell.Color
	footerBg tcell.Color
	footerFg tcell.Color
	buttonBg tcell.Color
	buttonFg tcell.Color
	modalBg  tcell.Color
	modalFg  tcell.Color
}

var themes = map[string]Theme{
	"gruvbox-dark": {
		Name:     "Gruvbox Dark",
		bg:       tcell.NewRGBColor(40, 40, 40),
		fg:       tcell.NewRGBColor(235, 219, 178),
		changed:  tcell.NewRGBColor(204, 36, 29),
		accent:   tcell.NewRGBColor(215, 153, 33),
		dim:      tcell.NewRGBColor(146, 131, 116),
		headerBg: tcell.NewRGBColor(214, 93, 14),
		headerFg: tcell.NewRGBColor(60, 56, 54),
		footerBg: tcell.NewRGBColor(60, 56, 54),
		footerFg: tcell.NewRGBColor(235, 219, 178),
		buttonBg: tcell.NewRGBColor(214, 93, 14),
		buttonFg: tcell.NewRGBColor(60, 56, 54),
		modalBg:  tcell.NewRGBColor(40, 40, 40),
		modalFg:  tcell.NewRGBColor(235, 219, 178),
	},
	"nord": {
		Name:     "Nord",
		bg:       tcell.NewRGBColor(46, 52, 64),
		fg:       tcell.NewRGBColor(216, 222, 233),
		changed:  tcell.NewRGBColor(191, 97, 106),
		accent:   tcell.NewRGBColor(235, 203, 139),
		dim:      tcell.NewRGBColor(129, 161, 193),
		headerBg: tcell.NewRGBColor(129, 161, 193),
		headerFg: tcell.NewRGBColor(46, 52, 64),
		footerBg: tcell.NewRGBColor(67, 76, 94),
		footerFg: tcell.NewRGBColor(216, 222, 233),
		buttonBg: tcell.NewRGBColor(129, 161, 193),
		buttonFg: tcell.NewRGBColor(46, 52, 64),
		modalBg:  tcell.NewRGBColor(46, 52, 64),
		modalFg:  tcell.NewRGBColor(216, 222, 233),
	},
	"dracula": {
		Name:     "Dracula",
		bg:       tcell.NewRGBColor(40, 42, 54),
		fg:       tcell.NewRGBColor(248, 248, 242),
		changed:  tcell.NewRGBColor(255, 85, 85),
		accent:   tcell.NewRGBColor(255, 184, 108),
		dim:      tcell.NewRGBColor(98, 114, 164),
		headerBg: tcell.NewRGBColor(189, 147, 249),
		headerFg: tcell.NewRGBColor(40, 42, 54),
		footerBg: tcell.NewRGBColor(68, 71, 90),
		footerFg: tcell.NewRGBColor(248, 248, 242),
		buttonBg: tcell.NewRGBColor(189, 147, 249),
		buttonFg: tcell.NewRGBColor(40, 42, 54),
		modalBg:  tcell.NewRGBColor(40, 42, 54),
		modalFg:  tcell.NewRGBColor(248, 248, 242),
	},
}

// lookupTheme falls back to nord for unknown names.
func lookupTheme(name string) Theme {
	if th, ok := themes[name]; ok {
		return th
	}
	return themes["nord"]
}

func getThemeNames() []string {
	var names []string
	for n := range themes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
