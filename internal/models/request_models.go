package models

// Authentication DTOs
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	User             UserProfile `json:"user"`
	AccessExpiresAt  int64       `json:"access_expires_at"`
	RefreshExpiresAt int64       `json:"refresh_expires_at"`
}

type MeResponse struct {
	User           UserProfile    `json:"user"`
	GrantedActions GrantedActions `json:"granted_actions"`
}

// User management DTOs
type CreateUserRequest struct {
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	FullName    string `json:"full_name"`
}

type ChangePasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

type PaginatedUsersResponse struct {
	Users  []UserProfile `json:"users"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// Authorization model DTOs
type CreateResourceRequest struct {
	Alias string  `json:"alias" binding:"required"`
	Name  string  `json:"name" binding:"required"`
	Path  *string `json:"path"`
}

type RenameResourceRequest struct {
	Alias string `json:"alias" binding:"required"`
	Name  string `json:"name"`
}

type CreateResourceDetailRequest struct {
	Alias string `json:"alias" binding:"required"`
	Name  string `json:"name" binding:"required"`
	Path  string `json:"path" binding:"required"`
}

type CreateActionRequest struct {
	Name string `json:"name" binding:"required"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

type CreateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type AssignRoleRequest struct {
	UserID string `json:"user_id" binding:"required"`
}
