package report

// Display labels for the closed action/signal vocabularies. Values outside
// the enumeration pass through verbatim.

var actionLabels = map[string]string{
	"buy":   "买入",
	"sell":  "卖出",
	"hold":  "持有",
	"long":  "做多",
	"short": "做空",
}

var signalLabels = map[string]string{
	"bullish": "看涨",
	"bearish": "看跌",
	"neutral": "中立",
}

// ActionLabel returns the display label for a decision action.
func ActionLabel(action string) string {
	if l, ok := actionLabels[action]; ok {
		return l
	}
	return action
}

// SignalLabel returns the display label for an agent signal.
func SignalLabel(signal string) string {
	if l, ok := signalLabels[signal]; ok {
		return l
	}
	return signal
}
