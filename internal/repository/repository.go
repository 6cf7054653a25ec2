package repository

import (
	"errors"
	"fmt"

	"brimasouk/internal/apperror"

	"gorm.io/gorm"
)

const (
	defaultLimit = 12
	maxLimit     = 100
)

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

func (p Page) normalized() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

func (p Page) Offset() int {
	n := p.normalized()
	return (n.Page - 1) * n.Limit
}

func (p Page) Size() int {
	return p.normalized().Limit
}

func paginate(p Page) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Offset()).Limit(p.Size())
	}
}

// notFound turns gorm.ErrRecordNotFound into an apperror.NotFound.
func notFound(err error, entity, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("%s not found", entity).With("id", id)
	}
	return fmt.Errorf("find %s: %w", entity, err)
}
