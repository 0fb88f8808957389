package notification

import (
	"time"

	"github.com/dustin/go-humanize"
)

const dueDateLayout = "Jan 2, 2006"

func money(amount float64) string {
	if amount < 0 {
		return "-$" + humanize.FormatFloat("#,###.##", -amount)
	}
	return "$" + humanize.FormatFloat("#,###.##", amount)
}

func dueDate(t time.Time) string { return t.Format(dueDateLayout) }
