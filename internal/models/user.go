package models

import "time"

// Role is the authorization level of an account.
type Role string

// Status is the activation state of an account.
type Status string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"

	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// BootstrapAdminUsername is the reserved username of the protected admin
// account. It can never be deleted, demoted, or deactivated.
const BootstrapAdminUsername = "admin"

// UserAccount represents a registered user. The username is the immutable
// unique key; the email is unique across all accounts (case-sensitive, as
// stored).
type UserAccount struct {
	Username        string     `json:"username"`
	PasswordDigest  string     `json:"password_digest"`
	Email           string     `json:"email"`
	FullName        string     `json:"full_name"`
	Role            Role       `json:"role"`
	Status          Status     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	LoginCount      int        `json:"login_count"`
	PredictionCount int        `json:"prediction_count"`
}

// IsAdmin reports whether the account holds the admin role.
func (u *UserAccount) IsAdmin() bool { return u.Role == RoleAdmin }

// IsActive reports whether the account may log in.
func (u *UserAccount) IsActive() bool { return u.Status == StatusActive }

// View returns the externally visible projection of the account.
// The password digest never leaves the identity store.
func (u *UserAccount) View() UserView {
	return UserView{
		Username:        u.Username,
		Email:           u.Email,
		FullName:        u.FullName,
		Role:            u.Role,
		Status:          u.Status,
		CreatedAt:       u.CreatedAt,
		LastLoginAt:     u.LastLoginAt,
		LoginCount:      u.LoginCount,
		PredictionCount: u.PredictionCount,
	}
}

// UserView is the presentation-safe projection of a UserAccount.
type UserView struct {
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	FullName        string     `json:"full_name"`
	Role            Role       `json:"role"`
	Status          Status     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	LoginCount      int        `json:"login_count"`
	PredictionCount int        `json:"prediction_count"`
}

// Session is an issued login session. The username is a reference, not
// ownership: the account may outlive the session and vice versa.
type Session struct {
	Token          string    `json:"token"`
	Username       string    `json:"username"`
	IssuedAt       time.Time `json:"issued_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// SystemStats summarizes accounts and activity for the admin dashboard.
type SystemStats struct {
	TotalUsers       int        `json:"total_users"`
	ActiveUsers      int        `json:"active_users"`
	InactiveUsers    int        `json:"inactive_users"`
	AdminUsers       int        `json:"admin_users"`
	TotalLogins      int        `json:"total_logins"`
	TotalPredictions int        `json:"total_predictions"`
	TopPredictors    []UserView `json:"top_predictors"`
}
