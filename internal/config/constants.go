package config

const (
	// DefaultDatabasePath is the default path for the library database.
	DefaultDatabasePath = "./elibrary.db"

	// DefaultTasksDatabasePath holds the background task queue.
	DefaultTasksDatabasePath = "./elibrary-tasks.db"

	// DefaultDemoDatabasePath is the snapshot demo mode restores from.
	DefaultDemoDatabasePath = "./demo/demo.db"
)
