package database

import (
	"database/sql"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLDialect implements Dialect for MySQL
type MySQLDialect struct{}

// NewMySQLDialect creates a new MySQL dialect
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

// DSN forces parseTime so DATETIME columns scan into time.Time
func (d *MySQLDialect) DSN(config DialectConfig) string {
	dsn := config.URL
	if strings.Contains(dsn, "parseTime=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&parseTime=true"
	}
	return dsn + "?parseTime=true"
}

func (d *MySQLDialect) RewriteQuery(query string) string {
	// MySQL uses ? placeholders like SQLite, no rewrite needed
	return query
}

func (d *MySQLDialect) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	if _, err := db.Exec("SET FOREIGN_KEY_CHECKS = 1;"); err != nil {
		return err
	}

	return nil
}

func (d *MySQLDialect) MigrationsSubdir() string {
	return "mysql"
}

func (d *MySQLDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			filename VARCHAR(255) UNIQUE NOT NULL,
			executed_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
		);
	`
}

func (d *MySQLDialect) InsertCategoryProgressIfAbsent() string {
	return `
		INSERT INTO category_progress (account_id, category_id, name, progress, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?)
		ON DUPLICATE KEY UPDATE category_id = category_id
	`
}

func (d *MySQLDialect) UpsertWordProgress() string {
	return `
		INSERT INTO word_progress (account_id, category_id, word_id, learned, review_count, last_review_date, created_at)
		VALUES (?, ?, ?, TRUE, 1, ?, ?) AS new
		ON DUPLICATE KEY UPDATE
			learned = TRUE,
			review_count = word_progress.review_count + 1,
			last_review_date = new.last_review_date
	`
}

func (d *MySQLDialect) InsertAccountProgressIfAbsent() string {
	return `
		INSERT INTO account_progress (account_id, studied_days, last_study_date, total_words, created_at, updated_at)
		VALUES (?, 0, NULL, 0, ?, ?)
		ON DUPLICATE KEY UPDATE account_id = account_id
	`
}
