package chartui

import (
	"github.com/jedib0t/go-pretty/v6/table"

	"chartdeck/internal/session"
)

// QuoteStrip renders a one-row table with the latest bar's quote, shown
// under the chart when a payload is loaded.
func QuoteStrip(last session.CandlePoint, volume float64) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Date", "Open", "High", "Low", "Close", "Volume"})
	t.AppendRow(table.Row{
		last.Time,
		FormatPrice(last.Open),
		FormatPrice(last.High),
		FormatPrice(last.Low),
		FormatPrice(last.Close),
		FormatVolume(volume),
	})
	return t.Render()
}
