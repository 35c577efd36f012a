package ui

import "github.com/jesspatton/lazyspec/engine"

func statusIcon(status engine.SpecStatus) string {
	switch status {
	case engine.StatusRunning:
		return "⏳"
	case engine.StatusPass:
		return "✅"
	case engine.StatusFail:
		return "❌"
	default:
		return "📄"
	}
}

// visibleRange keeps the cursor centred in a window of height rows.
func visibleRange(cursor, total, height int) (int, int) {
	start, end := 0, total
	if height <= 0 {
		return 0, 0
	}
	if total > height {
		switch {
		case cursor < height/2:
			start, end = 0, height
		case cursor > total-height/2:
			start, end = total-height, total
		default:
			start = cursor - height/2
			end = start + height
		}
	}
	return start, end
}
