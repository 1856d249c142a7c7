package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/shirtforge-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/shirtforge-backend/pkg/errors"
)

// Base is embedded by the catalog, inventory and design order repositories.
// A repository rebinds to a transaction by building a new Base around tx.
type Base struct {
	db *gorm.DB
}

func NewBase(conn *gorm.DB) Base {
	return Base{db: conn}
}

// DB returns the connection bound to ctx. A nil ctx yields the raw handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Upsert inserts rows (a pointer to a struct or slice) and on a conflict over
// keyCols overwrites only updateCols. Associations are never cascaded.
func (b Base) Upsert(ctx context.Context, rows any, keyCols []string, updateCols []string) error {
	columns := make([]clause.Column, 0, len(keyCols))
	for _, name := range keyCols {
		columns = append(columns, clause.Column{Name: name})
	}
	return b.DB(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   columns,
			DoUpdates: clause.AssignmentColumns(updateCols),
		}).
		Create(rows).Error
}

// ReplaceChildren deletes every row of each model owned by the product.
// SaveConfig calls it before reinserting the child collections.
func (b Base) ReplaceChildren(ctx context.Context, ownerCol string, ownerID any, models ...any) error {
	conn := b.DB(ctx)
	for _, model := range models {
		if err := conn.Where(ownerCol+" = ?", ownerID).Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

// NotFound converts gorm.ErrRecordNotFound into a typed error with the given
// code and message. Other errors are returned unchanged.
func NotFound(err error, code pkgerrors.Code, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(code, err, message)
	}
	return err
}

// Conflict converts a unique constraint failure into CodeConflict. Other
// errors are returned unchanged.
func Conflict(err error, message string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, message)
	}
	return err
}
