package models

import "time"

// Resource is a top-level navigable area of the console.
type Resource struct {
	ID        string    `json:"id" db:"id"`
	Alias     string    `json:"alias" db:"alias"`
	Name      string    `json:"name" db:"name"`
	Path      *string   `json:"path" db:"path"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ResourceDetail references its parent by alias, not by id.
type ResourceDetail struct {
	ID            string    `json:"id" db:"id"`
	Alias         string    `json:"alias" db:"alias"`
	ResourceAlias string    `json:"resource_alias" db:"resource_alias"`
	Name          string    `json:"name" db:"name"`
	Path          string    `json:"path" db:"path"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

type Action struct {
	ID                  string    `json:"id" db:"id"`
	Name                string    `json:"name" db:"name"`
	ResourceDetailAlias string    `json:"resource_detail_alias" db:"resource_detail_alias"`
	IsActive            bool      `json:"is_active" db:"is_active"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

type Role struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type UserRole struct {
	UserID     string    `json:"user_id" db:"user_id"`
	RoleID     string    `json:"role_id" db:"role_id"`
	AssignedBy *string   `json:"assigned_by" db:"assigned_by"`
	AssignedAt time.Time `json:"assigned_at" db:"assigned_at"`
}

// ActionGrant is a row of role_actions or user_actions. The row is toggled
// through IsActive on grant/revoke instead of being deleted.
type ActionGrant struct {
	SubjectID string    `json:"subject_id" db:"subject_id"`
	ActionID  string    `json:"action_id" db:"action_id"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// GrantRow is one (path, action) pair reachable by a user.
type GrantRow struct {
	Path   string `db:"path"`
	Action string `db:"action"`
}

// ResourceTree is the console navigation view of the authorization model.
type ResourceTree struct {
	Resource
	Details []ResourceDetailTree `json:"details"`
}

type ResourceDetailTree struct {
	ResourceDetail
	Actions []Action `json:"actions"`
}

// GrantedActions maps a normalized detail path to the sorted action names a
// user may perform there.
type GrantedActions map[string][]string
