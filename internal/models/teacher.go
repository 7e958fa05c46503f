package models

import "time"

// Teacher is a member of the teaching staff. Email is the natural dedup key:
// imports and proposal approvals upsert by email rather than creating duplicates.
type Teacher struct {
	ID        int64     `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// FullName returns the display name.
func (t Teacher) FullName() string {
	if t.FirstName == "" {
		return t.LastName
	}
	return t.FirstName + " " + t.LastName
}

// TeacherStatus is a configurable role label (professor, assistant, ...).
type TeacherStatus struct {
	ID        int64     `db:"id" json:"id"`
	Label     string    `db:"label" json:"label"`
	SortOrder int       `db:"sort_order" json:"sort_order"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TeacherFilter constrains teacher listing queries.
type TeacherFilter struct {
	Search   string
	Status   string
	Page     int
	PageSize int
}
