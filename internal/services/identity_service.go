package services

import (
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	apperrors "loanrisk/internal/errors"
	"loanrisk/internal/logger"
	"loanrisk/internal/models"
	"loanrisk/internal/store"
	"loanrisk/internal/uuid"
)

// Store keys owned by the identity service.
const (
	usersKey    = "identity:users"
	sessionsKey = "identity:sessions"
)

const minPasswordLength = 6

// identityService owns user records, password verification, session
// issuance/validation, and role/status transitions. State lives in memory
// and every mutation persists to the key-value store before returning.
//
// The admin set of the original dashboard is collapsed into the Role field
// as the single source of truth; admins is a derived index rebuilt from
// roles, so the role/admin-set consistency invariant holds by construction.
type identityService struct {
	mu       sync.Mutex
	store    *store.KV
	users    map[string]*models.UserAccount
	admins   map[string]struct{}
	sessions map[string]*models.Session
	now      func() time.Time
}

// NewIdentityService loads identity state from the store. Missing or
// corrupted state resets to the default: a single bootstrap admin account
// and no sessions.
func NewIdentityService(kv *store.KV, bootstrapPassword string) IdentityServicer {
	s := &identityService{
		store:    kv,
		users:    make(map[string]*models.UserAccount),
		admins:   make(map[string]struct{}),
		sessions: make(map[string]*models.Session),
		now:      time.Now,
	}
	s.load(bootstrapPassword)
	return s
}

func (s *identityService) load(bootstrapPassword string) {
	if err := s.store.Get(usersKey, &s.users); err != nil {
		if err != store.ErrKeyNotFound {
			logger.Get().Warnw("resetting identity store to defaults", "error", err)
		}
		s.users = map[string]*models.UserAccount{}
	}

	// The bootstrap admin always exists, whatever was (or wasn't) loaded.
	if _, ok := s.users[models.BootstrapAdminUsername]; !ok {
		digest, err := bcrypt.GenerateFromPassword([]byte(bootstrapPassword), bcrypt.DefaultCost)
		if err != nil {
			logger.Get().Errorw("failed to hash bootstrap admin password", "error", err)
			return
		}
		s.users[models.BootstrapAdminUsername] = &models.UserAccount{
			Username:       models.BootstrapAdminUsername,
			PasswordDigest: string(digest),
			Email:          "admin@loanrisk.ai",
			FullName:       "Administrator",
			Role:           models.RoleAdmin,
			Status:         models.StatusActive,
			CreatedAt:      s.now().UTC(),
		}
		if err := s.store.Put(usersKey, s.users); err != nil {
			logger.Get().Errorw("failed to persist bootstrap admin", "error", err)
		}
	}

	for name, u := range s.users {
		if u.Role == models.RoleAdmin {
			s.admins[name] = struct{}{}
		}
	}

	if err := s.store.Get(sessionsKey, &s.sessions); err != nil {
		if err != store.ErrKeyNotFound {
			logger.Get().Warnw("resetting sessions to defaults", "error", err)
		}
		s.sessions = map[string]*models.Session{}
	}

	// Sessions restore only while their account still exists.
	pruned := false
	for token, sess := range s.sessions {
		if _, ok := s.users[sess.Username]; !ok {
			delete(s.sessions, token)
			pruned = true
		}
	}
	if pruned {
		if err := s.store.Put(sessionsKey, s.sessions); err != nil {
			logger.Get().Errorw("failed to persist pruned sessions", "error", err)
		}
	}
}

func (s *identityService) persistUsers() error {
	if err := s.store.Put(usersKey, s.users); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return nil
}

func (s *identityService) persistSessions() error {
	if err := s.store.Put(sessionsKey, s.sessions); err != nil {
		return apperrors.Wrap(apperrors.ErrStorage, err)
	}
	return nil
}

// Register creates a new active user-role account.
func (s *identityService) Register(username, email, password, confirmPassword, fullName string) (*models.UserView, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	fullName = strings.TrimSpace(fullName)

	if username == "" || email == "" || password == "" || fullName == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "All fields are required")
	}
	if password != confirmPassword {
		return nil, apperrors.ErrPasswordMismatch
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.ErrPasswordTooShort
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createUser(username, email, password, fullName, models.RoleUser)
}

// CreateUser creates an account with an explicit role; used by the admin
// user-management view. Uniqueness and password rules match Register.
func (s *identityService) CreateUser(username, email, password, fullName string, role models.Role) (*models.UserView, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	fullName = strings.TrimSpace(fullName)

	if username == "" || email == "" || password == "" || fullName == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "All fields are required")
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.ErrPasswordTooShort
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unknown role")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createUser(username, email, password, fullName, role)
}

// createUser requires the caller to hold the lock.
func (s *identityService) createUser(username, email, password, fullName string, role models.Role) (*models.UserView, error) {
	if _, exists := s.users[username]; exists {
		return nil, apperrors.ErrUsernameTaken
	}
	for _, u := range s.users {
		if u.Email == email {
			return nil, apperrors.ErrEmailTaken
		}
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	account := &models.UserAccount{
		Username:       username,
		PasswordDigest: string(digest),
		Email:          email,
		FullName:       fullName,
		Role:           role,
		Status:         models.StatusActive,
		CreatedAt:      s.now().UTC(),
	}
	s.users[username] = account
	if role == models.RoleAdmin {
		s.admins[username] = struct{}{}
	}

	if err := s.persistUsers(); err != nil {
		delete(s.users, username)
		delete(s.admins, username)
		return nil, err
	}

	view := account.View()
	return &view, nil
}

// Login verifies credentials and mints a fresh session. Unknown usernames
// and wrong passwords are indistinguishable to the caller.
func (s *identityService) Login(username, password string) (*models.Session, *models.UserView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return nil, nil, apperrors.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordDigest), []byte(password)) != nil {
		return nil, nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, nil, apperrors.ErrAccountInactive
	}

	now := s.now().UTC()
	session := &models.Session{
		Token:          uuid.NewToken(),
		Username:       user.Username,
		IssuedAt:       now,
		LastActivityAt: now,
	}
	s.sessions[session.Token] = session

	user.LoginCount++
	user.LastLoginAt = &now

	if err := s.persistUsers(); err != nil {
		delete(s.sessions, session.Token)
		return nil, nil, err
	}
	if err := s.persistSessions(); err != nil {
		return nil, nil, err
	}

	view := user.View()
	return session, &view, nil
}

// Logout destroys the session for the token. Idempotent: logging out an
// unknown token succeeds.
func (s *identityService) Logout(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[token]; !ok {
		return nil
	}
	delete(s.sessions, token)
	return s.persistSessions()
}

// ValidateSession resolves a token to its session and account, touching
// the session's last-activity time. Sessions whose account has been
// deleted are dropped; deactivated accounts lose access immediately.
func (s *identityService) ValidateSession(token string) (*models.Session, *models.UserView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return nil, nil, apperrors.ErrSessionExpired
	}
	user, ok := s.users[session.Username]
	if !ok {
		delete(s.sessions, token)
		if err := s.persistSessions(); err != nil {
			return nil, nil, err
		}
		return nil, nil, apperrors.ErrSessionExpired
	}
	if !user.IsActive() {
		return nil, nil, apperrors.ErrAccountInactive
	}

	session.LastActivityAt = s.now().UTC()
	if err := s.persistSessions(); err != nil {
		return nil, nil, err
	}

	view := user.View()
	return session, &view, nil
}

// IsAuthenticated reports whether the token maps to a live session with
// an active account.
func (s *identityService) IsAuthenticated(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return false
	}
	user, ok := s.users[session.Username]
	return ok && user.IsActive()
}

// IsAdmin reports whether the token belongs to an admin account.
func (s *identityService) IsAdmin(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return false
	}
	_, isAdmin := s.admins[session.Username]
	return isAdmin
}

// GetUser returns the view of a single account.
func (s *identityService) GetUser(username string) (*models.UserView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	view := user.View()
	return &view, nil
}

// ListUsers returns all accounts matching the filter, ordered by username.
func (s *identityService) ListUsers(filter UserFilter) []models.UserView {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := make([]models.UserView, 0, len(s.users))
	for _, u := range s.users {
		if filter.Status != nil && u.Status != *filter.Status {
			continue
		}
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		views = append(views, u.View())
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Username < views[j].Username })
	return views
}

// UpdateProfile edits an account's full name, email, and status from the
// admin view. The username itself is immutable.
func (s *identityService) UpdateProfile(username, fullName, email string, status models.Status) (*models.UserView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	if username == models.BootstrapAdminUsername && status == models.StatusInactive {
		return nil, apperrors.ErrProtectedAccount
	}
	if status != models.StatusActive && status != models.StatusInactive {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unknown status")
	}
	email = strings.TrimSpace(email)
	fullName = strings.TrimSpace(fullName)
	if email == "" || fullName == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Full name and email are required")
	}
	for name, other := range s.users {
		if name != username && other.Email == email {
			return nil, apperrors.ErrEmailTaken
		}
	}

	prevName, prevEmail, prevStatus := user.FullName, user.Email, user.Status
	user.FullName = fullName
	user.Email = email
	user.Status = status

	if err := s.persistUsers(); err != nil {
		user.FullName, user.Email, user.Status = prevName, prevEmail, prevStatus
		return nil, err
	}

	view := user.View()
	return &view, nil
}

// PromoteToAdmin grants the admin role. Fails on the bootstrap admin,
// which is already and permanently an admin.
func (s *identityService) PromoteToAdmin(username string) error {
	return s.setRole(username, models.RoleAdmin)
}

// DemoteFromAdmin revokes the admin role. Fails on the bootstrap admin.
func (s *identityService) DemoteFromAdmin(username string) error {
	return s.setRole(username, models.RoleUser)
}

// setRole updates the role and the derived admin index together, so
// neither is ever observable without the other.
func (s *identityService) setRole(username string, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if username == models.BootstrapAdminUsername {
		return apperrors.ErrProtectedAccount
	}
	user, ok := s.users[username]
	if !ok {
		return apperrors.ErrUserNotFound
	}

	prev := user.Role
	user.Role = role
	if role == models.RoleAdmin {
		s.admins[username] = struct{}{}
	} else {
		delete(s.admins, username)
	}

	if err := s.persistUsers(); err != nil {
		user.Role = prev
		if prev == models.RoleAdmin {
			s.admins[username] = struct{}{}
		} else {
			delete(s.admins, username)
		}
		return err
	}
	return nil
}

// ActivateAccount marks an account active.
func (s *identityService) ActivateAccount(username string) error {
	return s.setStatus(username, models.StatusActive)
}

// DeactivateAccount marks an account inactive. Fails on the bootstrap admin.
func (s *identityService) DeactivateAccount(username string) error {
	return s.setStatus(username, models.StatusInactive)
}

func (s *identityService) setStatus(username string, status models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if username == models.BootstrapAdminUsername && status == models.StatusInactive {
		return apperrors.ErrProtectedAccount
	}
	user, ok := s.users[username]
	if !ok {
		return apperrors.ErrUserNotFound
	}

	prev := user.Status
	user.Status = status
	if err := s.persistUsers(); err != nil {
		user.Status = prev
		return err
	}
	return nil
}

// DeleteAccount removes an account and its sessions. Fails on the
// bootstrap admin.
func (s *identityService) DeleteAccount(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if username == models.BootstrapAdminUsername {
		return apperrors.ErrProtectedAccount
	}
	user, ok := s.users[username]
	if !ok {
		return apperrors.ErrUserNotFound
	}

	delete(s.users, username)
	delete(s.admins, username)
	removed := make(map[string]*models.Session)
	for token, sess := range s.sessions {
		if sess.Username == username {
			removed[token] = sess
			delete(s.sessions, token)
		}
	}

	if err := s.persistUsers(); err != nil {
		s.users[username] = user
		if user.Role == models.RoleAdmin {
			s.admins[username] = struct{}{}
		}
		for token, sess := range removed {
			s.sessions[token] = sess
		}
		return err
	}
	return s.persistSessions()
}

// IncrementPredictionCount bumps the per-user prediction counter.
// Unknown usernames are ignored, matching the original dashboard.
func (s *identityService) IncrementPredictionCount(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return nil
	}
	user.PredictionCount++
	if err := s.persistUsers(); err != nil {
		user.PredictionCount--
		return err
	}
	return nil
}

// topPredictorsLimit bounds the leaderboard in SystemStats.
const topPredictorsLimit = 5

// SystemStats summarizes accounts for the admin dashboard.
func (s *identityService) SystemStats() models.SystemStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := models.SystemStats{TotalUsers: len(s.users)}
	views := make([]models.UserView, 0, len(s.users))
	for _, u := range s.users {
		if u.IsActive() {
			stats.ActiveUsers++
		} else {
			stats.InactiveUsers++
		}
		if u.IsAdmin() {
			stats.AdminUsers++
		}
		stats.TotalLogins += u.LoginCount
		stats.TotalPredictions += u.PredictionCount
		views = append(views, u.View())
	}

	sort.Slice(views, func(i, j int) bool {
		if views[i].PredictionCount != views[j].PredictionCount {
			return views[i].PredictionCount > views[j].PredictionCount
		}
		return views[i].Username < views[j].Username
	})
	if len(views) > topPredictorsLimit {
		views = views[:topPredictorsLimit]
	}
	stats.TopPredictors = views
	return stats
}
