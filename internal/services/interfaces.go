package services

import (
	"loanrisk/internal/models"
)

// UserFilter holds optional filter parameters for listing accounts.
type UserFilter struct {
	Status *models.Status
	Role   *models.Role
}

// IdentityServicer defines the contract for the session & authorization store.
type IdentityServicer interface {
	Register(username, email, password, confirmPassword, fullName string) (*models.UserView, error)
	Login(username, password string) (*models.Session, *models.UserView, error)
	Logout(token string) error
	ValidateSession(token string) (*models.Session, *models.UserView, error)
	IsAuthenticated(token string) bool
	IsAdmin(token string) bool

	GetUser(username string) (*models.UserView, error)
	ListUsers(filter UserFilter) []models.UserView
	UpdateProfile(username, fullName, email string, status models.Status) (*models.UserView, error)
	CreateUser(username, email, password, fullName string, role models.Role) (*models.UserView, error)

	PromoteToAdmin(username string) error
	DemoteFromAdmin(username string) error
	ActivateAccount(username string) error
	DeactivateAccount(username string) error
	DeleteAccount(username string) error

	IncrementPredictionCount(username string) error
	SystemStats() models.SystemStats
}

// HistoryServicer defines the contract for the bounded prediction ledger.
type HistoryServicer interface {
	Append(record models.PredictionRecord) error
	All() []models.PredictionRecord
	Find(id string) (*models.PredictionRecord, error)
	Aggregates() models.Aggregates
	Clear() error
}

// Finding is a single explanation bullet derived from an application and
// its scoring outcome.
type Finding struct {
	Severity string `json:"severity"`
	Factor   string `json:"factor"`
	Detail   string `json:"detail"`
}

// Finding severities.
const (
	SeverityPositive = "positive"
	SeverityCaution  = "caution"
	SeverityNegative = "negative"
)

// InsightServicer derives human-readable explanations and recommendations
// from a prediction record.
type InsightServicer interface {
	Explain(record models.PredictionRecord) []Finding
	Recommend(record models.PredictionRecord) []string
}
