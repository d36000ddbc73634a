package repository

import (
	"fmt"

	"civic-pulse/internal/domain/poll"
	"civic-pulse/internal/domain/user"

	"gorm.io/gorm"
)

// Models lists every table the service owns, in creation order.
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&poll.Poll{},
		&poll.Option{},
		&poll.UserVote{},
		&poll.AnonymousVote{},
	}
}

// InitSchema creates or updates tables and indexes, including the unique
// indexes the vote ledger relies on for duplicate detection.
func InitSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}
	return nil
}

// TableStatus is one row of the migrate status report.
type TableStatus struct {
	Table  string
	Exists bool
}

func SchemaStatus(db *gorm.DB) ([]TableStatus, error) {
	m := db.Migrator()
	var out []TableStatus
	for _, model := range Models() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parse model: %w", err)
		}
		out = append(out, TableStatus{Table: stmt.Schema.Table, Exists: m.HasTable(model)})
	}
	return out, nil
}
