package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"chartdeck/internal/catalog"
	"chartdeck/internal/chartui"
	"chartdeck/internal/config"
	"chartdeck/internal/scanapi"
	"chartdeck/internal/session"
)

// Styles.
var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	paneTitle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	universeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	symbolStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	activeTFStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	highlightBG   = lipgloss.Color("236")
)

// hlStyle returns a copy of s with the highlight background applied when hl is true.
func hlStyle(s lipgloss.Style, hl bool) lipgloss.Style {
	if hl {
		return s.Background(highlightBG)
	}
	return s
}

const leftPaneWidth = 26

var timeframes = []string{"1D", "1W", "1M"}

// Messages.
type universesLoadedMsg struct {
	universes []scanapi.Universe
	err       error
}

type stocksLoadedMsg struct {
	universe string
	symbols  []string
	token    uint64
	err      error
}

type chartLoadedMsg struct {
	symbol  string
	tf      string
	token   uint64
	payload *scanapi.ChartPayload
	err     error
}

// Focus targets for keyboard input.
const (
	focusUniverses = iota
	focusStocks
	focusFilter
)

type model struct {
	client *scanapi.Client
	cache  *catalog.Cache
	sess   *session.Session
	chart  *chartui.Chart
	logger *slog.Logger

	universes []scanapi.Universe
	uniIdx    int

	filtered []string
	stockIdx int
	filter   textinput.Model
	stockVP  viewport.Model

	focus         int
	width, height int
	ready         bool
	loading       string
	status        string
}

func initialModel(client *scanapi.Client, cache *catalog.Cache, sess *session.Session, logger *slog.Logger) model {
	ti := textinput.New()
	ti.Placeholder = "filter"
	ti.Prompt = "/ "
	ti.CharLimit = 24

	return model{
		client: client,
		cache:  cache,
		sess:   sess,
		chart:  chartui.New(),
		logger: logger,
		filter: ti,
		focus:  focusUniverses,
	}
}

func (m model) Init() tea.Cmd {
	return m.loadUniverses()
}

func (m model) loadUniverses() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		universes, err := client.Universes(context.Background())
		return universesLoadedMsg{universes: universes, err: err}
	}
}

func (m model) loadStocks(universe string, token uint64) tea.Cmd {
	cache := m.cache
	return func() tea.Msg {
		symbols, err := cache.StocksFor(context.Background(), universe)
		return stocksLoadedMsg{universe: universe, symbols: symbols, token: token, err: err}
	}
}

func (m model) loadChart(symbol, tf string, token uint64) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		payload, err := client.Chart(context.Background(), symbol, tf)
		return chartLoadedMsg{symbol: symbol, tf: tf, token: token, payload: payload, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.focus == focusFilter {
			return m.updateFilter(msg)
		}
		return m.updateKeys(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case universesLoadedMsg:
		if msg.err != nil {
			m.logger.Error("loading universes", "error", msg.err)
			m.status = "universes: " + msg.err.Error()
			return m, nil
		}
		m.universes = msg.universes
		m.status = ""
		if m.width > 0 {
			m.layout()
		}
		m.logger.Info("universes loaded", "count", len(msg.universes))
		return m, nil

	case stocksLoadedMsg:
		m.loading = ""
		if msg.err != nil {
			m.logger.Error("loading stocks", "universe", msg.universe, "error", msg.err)
			m.status = "stocks: " + msg.err.Error()
			return m, nil
		}
		if !m.sess.SetStocks(msg.universe, msg.symbols, msg.token) {
			m.logger.Info("dropped stale stock list", "universe", msg.universe)
			return m, nil
		}
		m.status = ""
		m.filtered = m.sess.FilterStocks(m.filter.Value())
		m.stockIdx = 0
		m.refreshStockPane()
		m.logger.Info("stocks loaded", "universe", msg.universe, "count", len(msg.symbols))
		return m, nil

	case chartLoadedMsg:
		m.loading = ""
		if msg.err != nil {
			m.logger.Error("loading chart", "symbol", msg.symbol, "tf", msg.tf, "error", msg.err)
			m.status = "chart: " + msg.err.Error()
			return m, nil
		}
		if !m.sess.ApplyChart(msg.token, msg.payload) {
			m.logger.Info("dropped stale chart", "symbol", msg.symbol, "tf", msg.tf)
			return m, nil
		}
		m.status = ""
		m.chart.SetCandles(m.sess.CandleSeries())
		m.chart.SetVolume(m.sess.VolumeSeries())
		m.chart.ScrollToLatest()
		m.logger.Info("chart loaded", "symbol", msg.symbol, "tf", msg.tf, "bars", m.sess.BarCount())
		return m, nil
	}

	if m.ready {
		m.stockVP, cmd = m.stockVP.Update(msg)
	}
	return m, cmd
}

func (m model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "tab":
		if m.focus == focusUniverses {
			m.focus = focusStocks
		} else {
			m.focus = focusUniverses
		}
		return m, nil

	case "/":
		m.focus = focusFilter
		m.filter.Focus()
		return m, nil

	case "up", "down":
		delta := 1
		if msg.String() == "up" {
			delta = -1
		}
		if m.focus == focusUniverses {
			m.uniIdx = clamp(m.uniIdx+delta, 0, len(m.universes)-1)
		} else {
			m.stockIdx = clamp(m.stockIdx+delta, 0, len(m.filtered)-1)
			m.refreshStockPane()
		}
		return m, nil

	case "enter":
		if m.focus == focusUniverses {
			return m, m.selectUniverse()
		}
		return m, m.selectStock()

	case "d", "w", "m":
		tf := map[string]string{"d": "1D", "w": "1W", "m": "1M"}[msg.String()]
		refetch, symbol, token := m.sess.SetTimeframe(tf)
		if !refetch {
			return m, nil
		}
		m.loading = symbol
		return m, m.loadChart(symbol, tf, token)

	case "v":
		m.sess.ToggleVolume()
		// Re-derivation only: the held payload supplies the series and no
		// fetch happens.
		m.chart.SetVolume(m.sess.VolumeSeries())
		return m, nil

	case "left":
		m.chart.Pan(-5)
		return m, nil
	case "right":
		m.chart.Pan(5)
		return m, nil
	case "end":
		m.chart.ScrollToLatest()
		return m, nil
	}

	var cmd tea.Cmd
	if m.ready {
		m.stockVP, cmd = m.stockVP.Update(msg)
	}
	return m, cmd
}

func (m model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.focus = focusStocks
		m.filter.Blur()
		return m, nil
	case "enter":
		m.focus = focusStocks
		m.filter.Blur()
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.filtered = m.sess.FilterStocks(m.filter.Value())
	m.stockIdx = clamp(m.stockIdx, 0, len(m.filtered)-1)
	m.refreshStockPane()
	return m, cmd
}

func (m *model) selectUniverse() tea.Cmd {
	if len(m.universes) == 0 {
		return nil
	}
	key := m.universes[m.uniIdx].Key
	token := m.sess.SelectUniverse(key)
	m.chart.SetCandles(nil)
	m.chart.SetVolume(nil)
	m.filtered = nil
	m.stockIdx = 0
	m.filter.SetValue("")
	m.refreshStockPane()
	m.focus = focusStocks
	m.loading = key
	m.logger.Info("universe selected", "key", key)
	return m.loadStocks(key, token)
}

func (m *model) selectStock() tea.Cmd {
	if len(m.filtered) == 0 {
		return nil
	}
	symbol := m.filtered[m.stockIdx]
	tf, token := m.sess.SelectSymbol(symbol)
	m.loading = symbol
	m.logger.Info("symbol selected", "symbol", symbol, "tf", tf)
	return m.loadChart(symbol, tf, token)
}

func (m *model) layout() {
	headerH, footerH := 1, 1
	bodyH := m.height - headerH - footerH
	if bodyH < 1 {
		bodyH = 1
	}

	vpH := bodyH - m.universeRows() - 2 // pane title + filter line
	if vpH < 1 {
		vpH = 1
	}
	if !m.ready {
		m.stockVP = viewport.New(leftPaneWidth, vpH)
		m.stockVP.MouseWheelEnabled = true
		m.ready = true
	} else {
		m.stockVP.Width = leftPaneWidth
		m.stockVP.Height = vpH
	}
	m.refreshStockPane()

	chartW := m.width - leftPaneWidth - 1
	m.chart.SetSize(chartW, bodyH-5) // quote strip below the chart
}

func (m *model) universeRows() int {
	n := len(m.universes)
	if n == 0 {
		n = 1
	}
	return n + 1 // title line
}

// refreshStockPane re-renders the stock list and keeps the selection visible.
func (m *model) refreshStockPane() {
	if !m.ready {
		return
	}
	var b strings.Builder
	for i, sym := range m.filtered {
		hl := i == m.stockIdx && m.focus != focusUniverses
		line := fmt.Sprintf(" %-*s", leftPaneWidth-1, sym)
		b.WriteString(hlStyle(symbolStyle, hl).Render(line))
		b.WriteString("\n")
	}
	if len(m.filtered) == 0 {
		if m.sess.Universe() == "" {
			b.WriteString(dimStyle.Render(" (select a universe)"))
		} else {
			b.WriteString(dimStyle.Render(" (no matching stocks)"))
		}
	}
	m.stockVP.SetContent(b.String())

	// Scroll so the selected line is visible.
	yOff := m.stockVP.YOffset
	vpH := m.stockVP.Height
	if m.stockIdx < yOff {
		m.stockVP.SetYOffset(m.stockIdx)
	} else if m.stockIdx >= yOff+vpH {
		m.stockVP.SetYOffset(m.stockIdx - vpH + 1)
	}
}

func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.renderHeader()
	footer := m.renderFooter()
	left := m.renderLeftPane()
	right := m.renderChartPane()

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
	return header + "\n" + body + "\n" + footer
}

func (m model) renderHeader() string {
	uni := m.sess.Universe()
	if uni == "" {
		uni = "-"
	}
	sym := m.sess.Symbol()
	if sym == "" {
		sym = "-"
	}
	vol := "off"
	if m.sess.VolumeVisible() {
		vol = "on"
	}
	text := fmt.Sprintf(" chartdeck  %s · %s · %s · bars: %s · vol %s ",
		uni, sym, m.sess.Timeframe(), chartui.FormatInt(m.sess.BarCount()), vol)
	if m.loading != "" {
		text += fmt.Sprintf(" loading %s...", m.loading)
	}
	return headerStyle.Render(padOrTrunc(text, m.width))
}

func (m model) renderFooter() string {
	if m.status != "" {
		return errStyle.Render(padOrTrunc(" "+m.status, m.width))
	}
	left := " q quit  tab panes  enter select  / filter  d/w/m timeframe  v volume  left/right pan  end latest"
	right := fmt.Sprintf("%.0f%% ", m.stockVP.ScrollPercent()*100)
	gap := m.width - len(left) - len(right)
	if gap < 0 {
		gap = 0
	}
	return footerStyle.Render(padOrTrunc(left+strings.Repeat(" ", gap)+right, m.width))
}

func (m model) renderLeftPane() string {
	var b strings.Builder

	b.WriteString(paneTitle.Render(" UNIVERSES"))
	b.WriteString("\n")
	if len(m.universes) == 0 {
		b.WriteString(dimStyle.Render(" (loading...)"))
		b.WriteString("\n")
	}
	for i, u := range m.universes {
		hl := i == m.uniIdx && m.focus == focusUniverses
		active := u.Key == m.sess.Universe()
		marker := " "
		if active {
			marker = "*"
		}
		line := " " + marker + padOrTrunc(fmt.Sprintf("%s (%s)", u.Label, u.Key), leftPaneWidth-2)
		style := universeStyle
		if active {
			style = symbolStyle
		}
		b.WriteString(hlStyle(style, hl).Render(line))
		b.WriteString("\n")
	}

	b.WriteString(m.filter.View())
	b.WriteString("\n")
	b.WriteString(m.stockVP.View())

	return lipgloss.NewStyle().Width(leftPaneWidth).Render(b.String())
}

func (m model) renderChartPane() string {
	var b strings.Builder

	// Timeframe tab strip.
	var tfs []string
	for _, tf := range timeframes {
		if tf == m.sess.Timeframe() {
			tfs = append(tfs, activeTFStyle.Render("["+tf+"]"))
		} else {
			tfs = append(tfs, dimStyle.Render(" "+tf+" "))
		}
	}
	b.WriteString(strings.Join(tfs, " "))
	b.WriteString("\n")

	b.WriteString(m.chart.View())

	if candles := m.sess.CandleSeries(); len(candles) > 0 {
		last := candles[len(candles)-1]
		b.WriteString("\n")
		b.WriteString(chartui.QuoteStrip(last, m.sess.LastVolume()))
	}

	return b.String()
}

// padOrTrunc pads s with spaces to width, or truncates if longer.
func padOrTrunc(s string, width int) string {
	n := len(s)
	if n >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-n)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func main() {
	_ = godotenv.Load(".env")

	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	path := *configPath
	if path == "" {
		path = os.Getenv("CHARTDECK_CONFIG")
	}
	if path == "" {
		path = "chartdeck.yaml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	// The TUI owns the terminal, so logs go to a rotating file.
	logWriter := &lumberjack.Logger{
		Filename:   cfg.Logging.File,
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     7,
		Compress:   true,
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{Level: level}))

	client := scanapi.NewClient(cfg.Backend.BaseURL, cfg.Backend.APIPrefix,
		time.Duration(cfg.Backend.TimeoutSeconds)*time.Second)
	cache := catalog.New(client)
	sess := session.New(cfg.Chart.DefaultTimeframe, cfg.Chart.VolumeVisible)

	logger.Info("starting", "backend", cfg.Backend.BaseURL, "timeframe", cfg.Chart.DefaultTimeframe)

	p := tea.NewProgram(
		initialModel(client, cache, sess, logger),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
