// Package migration is a small registry of named schema migrations. Files
// under migrations/ register themselves in init(); RunAll applies the ones
// not yet recorded, in name order, each inside its own transaction.
package migration

import (
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
)

// Func applies one migration.
type Func func(*gorm.DB) error

type entry struct {
	name string
	fn   Func
}

var registered []entry

// Register adds a migration under a unique name.
func Register(name string, fn Func) error {
	for _, e := range registered {
		if e.name == name {
			return fmt.Errorf("migration %q already registered", name)
		}
	}
	registered = append(registered, entry{name: name, fn: fn})
	return nil
}

// Applied records an executed migration.
type Applied struct {
	Name      string `gorm:"primaryKey;size:100"`
	AppliedAt time.Time
}

func (Applied) TableName() string { return "applied_migrations" }

// RunAll applies every registered migration that has not run yet.
func RunAll(db *gorm.DB) error {
	if err := db.AutoMigrate(&Applied{}); err != nil {
		return err
	}

	pending := make([]entry, len(registered))
	copy(pending, registered)
	sort.Slice(pending, func(i, j int) bool { return pending[i].name < pending[j].name })

	for _, e := range pending {
		var count int64
		if err := db.Model(&Applied{}).Where("name = ?", e.name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := e.fn(tx); err != nil {
				return err
			}
			return tx.Create(&Applied{Name: e.name, AppliedAt: time.Now()}).Error
		})
		if err != nil {
			return fmt.Errorf("migration %q: %w", e.name, err)
		}
	}
	return nil
}
