package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category classifies log and planned events. Events reference categories by
// id; a category cannot be deleted while events still point at it.
type Category struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	ColorARGB uint32    `json:"color_argb" db:"color_argb"`
	SortOrder int       `json:"sort_order" db:"sort_order"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Validate checks the category's invariants.
func (c *Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: category name must not be blank", ErrValidation)
	}
	return nil
}
