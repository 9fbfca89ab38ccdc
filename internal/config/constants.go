package config

const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./library.db"

	// DefaultReportDir receives archived reconciliation reports.
	DefaultReportDir = "./reports"
)
