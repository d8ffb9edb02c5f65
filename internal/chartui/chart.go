// Package chartui renders the candle and volume series as a terminal chart.
// It is the only place that touches the charting widget: callers hand it
// derived series and a size and get strings back.
package chartui

import (
	"math"

	"github.com/NimbleMarkets/ntcharts/canvas"
	"github.com/NimbleMarkets/ntcharts/linechart"
	"github.com/charmbracelet/lipgloss"

	"chartdeck/internal/session"
)

var (
	upStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	downStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

const (
	minChartWidth  = 24
	minChartHeight = 6
	// Columns consumed by the Y axis and its labels; the rest draw bars.
	axisReserve = 10
)

// Chart holds two independently settable series and a viewing window over
// them. Each series keeps a cached rendered view invalidated only by its own
// setter, so toggling the volume strip never re-renders the candles; size
// and pan changes invalidate both.
type Chart struct {
	width, height int

	candles []session.CandlePoint
	volume  []session.VolumePoint

	// offset is how many bars the window is panned back from the latest.
	offset int

	candleView  string
	volumeView  string
	candleDirty bool
	volumeDirty bool
}

// New returns an empty chart; call SetSize before View.
func New() *Chart {
	return &Chart{candleDirty: true, volumeDirty: true}
}

// SetCandles replaces the price series.
func (c *Chart) SetCandles(pts []session.CandlePoint) {
	c.candles = pts
	c.candleDirty = true
}

// SetVolume replaces the volume series. The candle view is untouched.
func (c *Chart) SetVolume(pts []session.VolumePoint) {
	c.volume = pts
	c.volumeDirty = true
}

// SetSize sets the total drawing area, volume strip included.
func (c *Chart) SetSize(w, h int) {
	if w == c.width && h == c.height {
		return
	}
	c.width = w
	c.height = h
	c.candleDirty = true
	c.volumeDirty = true
}

// Pan moves the viewing window by delta bars: negative pans back in time,
// positive toward the latest.
func (c *Chart) Pan(delta int) {
	next := clampOffset(c.offset-delta, len(c.candles), c.graphCols())
	if next == c.offset {
		return
	}
	c.offset = next
	c.candleDirty = true
	c.volumeDirty = true
}

// ScrollToLatest snaps the window to the most recent bars.
func (c *Chart) ScrollToLatest() {
	if c.offset == 0 {
		return
	}
	c.offset = 0
	c.candleDirty = true
	c.volumeDirty = true
}

// graphCols estimates how many bars fit one-per-column next to the Y axis.
func (c *Chart) graphCols() int {
	cols := c.width - axisReserve
	if cols < 1 {
		cols = 1
	}
	return cols
}

// volumeHeight is the rows given to the volume strip, 0 when it is empty.
func (c *Chart) volumeHeight() int {
	if len(c.volume) == 0 {
		return 0
	}
	h := c.height / 4
	if h < 4 {
		h = 4
	}
	return h
}

// View renders the chart, reusing each series' cached view when its data,
// the size and the window are unchanged since the last render.
func (c *Chart) View() string {
	if c.width < minChartWidth || c.height < minChartHeight {
		return dimStyle.Render("terminal too small for chart")
	}
	if len(c.candles) == 0 {
		return dimStyle.Render("no chart data")
	}

	volH := c.volumeHeight()
	candleH := c.height - volH
	if candleH < minChartHeight {
		candleH = minChartHeight
		volH = c.height - candleH
	}

	if c.candleDirty {
		c.candleView = c.renderCandles(candleH)
		c.candleDirty = false
	}
	if c.volumeDirty {
		if volH > 0 {
			c.volumeView = c.renderVolume(volH)
		} else {
			c.volumeView = ""
		}
		c.volumeDirty = false
	}

	if c.volumeView == "" {
		return c.candleView
	}
	return c.candleView + "\n" + c.volumeView
}

func (c *Chart) renderCandles(height int) string {
	start, end := visibleWindow(len(c.candles), c.graphCols(), c.offset)
	win := c.candles[start:end]

	lo, hi := win[0].Low, win[0].High
	for _, p := range win {
		if p.Low < lo {
			lo = p.Low
		}
		if p.High > hi {
			hi = p.High
		}
	}
	margin := adaptiveMargin(lo, hi)

	maxX := float64(len(win) - 1)
	if maxX < 1 {
		maxX = 1
	}

	lc := linechart.New(c.width, height,
		0, maxX,
		lo-margin, hi+margin,
		linechart.WithXYSteps(4, 5),
		linechart.WithXLabelFormatter(dateLabeler(win)),
		linechart.WithYLabelFormatter(func(_ int, v float64) string {
			return FormatPrice(v)
		}),
	)

	for i, p := range win {
		style := upStyle
		if p.Close < p.Open {
			style = downStyle
		}
		x := float64(i)
		lc.DrawRuneLineWithStyle(
			canvas.Float64Point{X: x, Y: p.Low},
			canvas.Float64Point{X: x, Y: p.High},
			'│', style)
		bodyLo, bodyHi := p.Open, p.Close
		if bodyLo > bodyHi {
			bodyLo, bodyHi = bodyHi, bodyLo
		}
		if bodyHi > bodyLo {
			lc.DrawRuneLineWithStyle(
				canvas.Float64Point{X: x, Y: bodyLo},
				canvas.Float64Point{X: x, Y: bodyHi},
				'█', style)
		} else {
			lc.DrawRuneLineWithStyle(
				canvas.Float64Point{X: x, Y: bodyLo},
				canvas.Float64Point{X: x, Y: bodyLo},
				'─', style)
		}
	}

	lc.DrawXYAxisAndLabel()
	return lc.View()
}

func (c *Chart) renderVolume(height int) string {
	// The volume strip slices the same window as the candles so the two
	// strips line up column for column.
	start, end := visibleWindow(len(c.volume), c.graphCols(), c.offset)
	win := c.volume[start:end]

	var hi float64
	for _, p := range win {
		if p.Value > hi {
			hi = p.Value
		}
	}
	if hi == 0 {
		hi = 1
	}

	maxX := float64(len(win) - 1)
	if maxX < 1 {
		maxX = 1
	}

	lc := linechart.New(c.width, height,
		0, maxX,
		0, hi*1.05,
		linechart.WithXYSteps(4, 2),
		// Dates already label the candle pane above.
		linechart.WithXLabelFormatter(func(int, float64) string { return "" }),
		linechart.WithYLabelFormatter(func(_ int, v float64) string {
			return FormatVolume(v)
		}),
	)

	for i, p := range win {
		style := upStyle
		if p.Color == session.VolumeDown {
			style = downStyle
		}
		x := float64(i)
		lc.DrawRuneLineWithStyle(
			canvas.Float64Point{X: x, Y: 0},
			canvas.Float64Point{X: x, Y: p.Value},
			'█', style)
	}

	lc.DrawXYAxisAndLabel()
	return lc.View()
}

// dateLabeler maps tick positions back to the dates of the visible window.
func dateLabeler(win []session.CandlePoint) linechart.LabelFormatter {
	return func(_ int, v float64) string {
		idx := int(math.Round(v))
		if idx < 0 || idx >= len(win) {
			return ""
		}
		return shortDate(win[idx].Time)
	}
}
