package styles

import "github.com/colonyops/tally/internal/core/task"

var (
	IconTimer    = "🍅"
	IconStopped  = "⏰"
	IconDone     = "✅"
	IconDelete   = "🗑️"
	IconExport   = "📊"
	IconOverdue  = "⚠️"
	IconDueToday = "📅"
	IconDueLater = "✅"
)

// Area icons
var (
	IconHome = "🏠"
	IconWork = "💼"
	IconSelf = "🧘"
)

// AreaIcon returns the icon shown next to an area heading.
func AreaIcon(a task.Area) string {
	switch a {
	case task.AreaHome:
		return IconHome
	case task.AreaWork:
		return IconWork
	case task.AreaSelf:
		return IconSelf
	default:
		return ""
	}
}
