package chartui

// clampOffset limits a pan offset to [0, n-cols]: offset 0 shows the latest
// bars, the maximum shows the oldest full window.
func clampOffset(offset, n, cols int) int {
	maxOffset := n - cols
	if maxOffset < 0 {
		maxOffset = 0
	}
	if offset > maxOffset {
		offset = maxOffset
	}
	if offset < 0 {
		offset = 0
	}
	return offset
}

// visibleWindow returns the [start, end) bar range to draw for n bars in a
// window of cols columns, panned back by offset bars from the latest.
func visibleWindow(n, cols, offset int) (start, end int) {
	if n == 0 || cols <= 0 {
		return 0, 0
	}
	offset = clampOffset(offset, n, cols)
	end = n - offset
	start = end - cols
	if start < 0 {
		start = 0
	}
	return start, end
}

// adaptiveMargin widens the Y range around [lo, hi] so bars do not touch the
// chart edges. Low-volatility windows get proportionally more headroom,
// otherwise a one-tick move fills the whole chart height.
func adaptiveMargin(lo, hi float64) float64 {
	span := hi - lo
	if span < 1e-9 {
		if lo == 0 {
			return 1
		}
		return lo * 0.005
	}
	volatility := span / lo * 100
	ratio := 0.1
	if lo <= 0 {
		return span * ratio
	}
	switch {
	case volatility < 1.0:
		ratio = 0.5
	case volatility < 3.0:
		ratio = 0.2
	}
	margin := span * ratio
	if min := lo * 0.003; margin < min {
		margin = min
	}
	return margin
}
