package achievements

import "github.com/shopspring/decimal"

func def(key, name, desc, icon string, cat Category, points int, metric MetricKind, target int64) Definition {
	return Definition{
		Key:         key,
		Name:        name,
		Description: desc,
		Icon:        icon,
		Category:    cat,
		Points:      points,
		Metric:      metric,
		Target:      decimal.NewFromInt(target),
	}
}

// DefaultCatalog is seeded on first start. Keys are stable; names are unique.
var DefaultCatalog = []Definition{
	// Time tracking
	def("first_shift", "First Shift", "Complete your first shift", "play.circle.fill", CategoryTimeTracking, 10, MetricShiftCount, 1),
	def("getting_started", "Getting Started", "Add your first job", "briefcase.fill", CategoryTimeTracking, 5, MetricJobCount, 1),
	def("time_tracker", "Time Tracker", "Track 10 hours total", "clock.fill", CategoryTimeTracking, 15, MetricCumulativeHours, 10),
	def("marathon_worker", "Marathon Worker", "Track 100 hours total", "clock.badge.checkmark", CategoryTimeTracking, 50, MetricCumulativeHours, 100),
	def("time_master", "Time Master", "Track 1000 hours total", "clock.badge.exclamationmark", CategoryTimeTracking, 100, MetricCumulativeHours, 1000),

	// Earnings
	def("first_dollar", "First Dollar", "Earn your first dollar", "dollarsign.circle.fill", CategoryEarnings, 10, MetricCumulativeEarnings, 1),
	def("hundredaire", "Hundredaire", "Earn $100 total", "dollarsign.square.fill", CategoryEarnings, 25, MetricCumulativeEarnings, 100),
	def("thousandaire", "Thousandaire", "Earn $1,000 total", "dollarsign.circle", CategoryEarnings, 75, MetricCumulativeEarnings, 1000),
	def("money_maker", "Money Maker", "Earn $10,000 total", "banknote.fill", CategoryEarnings, 150, MetricCumulativeEarnings, 10000),

	// Consistency
	def("daily_grind", "Daily Grind", "Work 7 days in a row", "calendar.badge.clock", CategoryConsistency, 30, MetricConsecutiveDays, 7),
	def("week_warrior", "Week Warrior", "Work 4 weeks in a row", "calendar.badge.checkmark", CategoryConsistency, 75, MetricConsecutiveWeeks, 4),
	def("monthly_master", "Monthly Master", "Work 3 months in a row", "calendar.badge.exclamationmark", CategoryConsistency, 150, MetricConsecutiveMonths, 3),

	// Special
	def("overtime_hero", "Overtime Hero", "Work 10 overtime shifts", "clock.badge.plus", CategorySpecial, 40, MetricOvertimeCount, 10),
	def("bonus_hunter", "Bonus Hunter", "Earn $500 in bonuses", "gift.fill", CategorySpecial, 60, MetricBonusTotal, 500),
	def("multi_tasker", "Multi-Tasker", "Work 5 different jobs", "person.3.fill", CategorySpecial, 50, MetricJobCount, 5),

	// Milestones
	def("century_club", "Century Club", "Complete 100 shifts", "100.circle.fill", CategoryMilestones, 100, MetricShiftCount, 100),
	def("half_thousand", "Half Thousand", "Complete 500 shifts", "500.circle.fill", CategoryMilestones, 250, MetricShiftCount, 500),
	def("thousand_club", "Thousand Club", "Complete 1000 shifts", "1000.circle.fill", CategoryMilestones, 500, MetricShiftCount, 1000),
}
