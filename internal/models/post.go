// Package models contains the data shapes shared across the application layers.
package models

import "time"

// Post is the read-only projection of a row in the posts table.
type Post struct {
	ID        int32     `gorm:"primaryKey;column:id" json:"id"`
	Title     string    `gorm:"column:title;not null" json:"title"`
	Content   string    `gorm:"column:content;not null" json:"content"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
}

// TableName pins the table name so it does not depend on GORM's naming strategy.
func (Post) TableName() string {
	return "posts"
}

// PaginatedResponse is one page of items plus the size of the whole filtered population.
type PaginatedResponse[T any] struct {
	Data  []T   `json:"data"`
	Total int64 `json:"total"`
}

// NewPaginatedResponse builds a response, normalizing a nil page to an empty one so it
// serializes as [] rather than null.
func NewPaginatedResponse[T any](data []T, total int64) PaginatedResponse[T] {
	if data == nil {
		data = []T{}
	}
	return PaginatedResponse[T]{Data: data, Total: total}
}
