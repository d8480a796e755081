package model

import "time"

// Project mirrors the `projects` table. Slug is unique (database key) and is
// the public identifier used in URLs. Tags is stored as a comma separated
// list and split at the boundary.
type Project struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Tags        string    `json:"tags"`
	ImageURL    string    `json:"image_url"`
	RepoURL     string    `json:"repo_url"`
	DemoURL     string    `json:"demo_url"`
	Featured    bool      `json:"featured"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
