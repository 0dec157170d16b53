package universe

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatCount renders n with thousands separators.
func FormatCount(n int64) string {
	return printer.Sprintf("%d", n)
}

// Label is the headline shown for the focused planet.
func Label(e Entity) string {
	return e.Name + " : " + FormatCount(e.MetricCount) + " total Last.fm scrobbles"
}
