package database

import (
	"database/sql"
	"regexp"
	"strconv"
)

// Dialect defines the interface for database-specific operations
type Dialect interface {
	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(config DialectConfig) string

	// RewriteQuery converts placeholder syntax if needed (e.g., ? to $1 for postgres)
	RewriteQuery(query string) string

	// ConfigureConnection applies any database-specific connection settings
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir returns the subdirectory name for migrations (e.g., "sqlite", "postgres")
	MigrationsSubdir() string

	// CreateMigrationsTableQuery returns the SQL to create the migrations tracking table
	CreateMigrationsTableQuery() string

	// InsertCategoryProgressIfAbsent inserts a category_progress row and ignores key conflicts.
	// Args: account_id, category_id, name, created_at, updated_at
	InsertCategoryProgressIfAbsent() string

	// UpsertWordProgress creates a learned word row or bumps its review count.
	// Args: account_id, category_id, word_id, last_review_date, created_at
	UpsertWordProgress() string

	// InsertAccountProgressIfAbsent inserts an empty account_progress row and ignores key conflicts.
	// Args: account_id, created_at, updated_at
	InsertAccountProgressIfAbsent() string
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

// placeholderRegexp matches ? placeholders
var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(match string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}

// onConflictUpsertWordProgress is shared by the dialects that speak ON CONFLICT
const onConflictUpsertWordProgress = `
	INSERT INTO word_progress (account_id, category_id, word_id, learned, review_count, last_review_date, created_at)
	VALUES (?, ?, ?, TRUE, 1, ?, ?)
	ON CONFLICT (account_id, category_id, word_id) DO UPDATE SET
		learned = TRUE,
		review_count = word_progress.review_count + 1,
		last_review_date = excluded.last_review_date
`

const onConflictInsertCategoryProgress = `
	INSERT INTO category_progress (account_id, category_id, name, progress, created_at, updated_at)
	VALUES (?, ?, ?, 0, ?, ?)
	ON CONFLICT (account_id, category_id) DO NOTHING
`

const onConflictInsertAccountProgress = `
	INSERT INTO account_progress (account_id, studied_days, last_study_date, total_words, created_at, updated_at)
	VALUES (?, 0, NULL, 0, ?, ?)
	ON CONFLICT (account_id) DO NOTHING
`
