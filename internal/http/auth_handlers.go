package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"kitabghar-backend-go/internal/models"
	"kitabghar-backend-go/internal/store"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token     string      `json:"token"`
	ExpiresAt int64       `json:"expiresAt"`
	User      models.User `json:"user"`
}

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" || strings.TrimSpace(req.Password) == "" {
		WriteError(w, http.StatusBadRequest, "Name, email and password are required")
		return
	}
	hash, err := s.Tokens.HashPassword(req.Password)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	user := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         models.RoleUser,
		IsBlocked:    false,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.Store.CreateUser(user); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			WriteError(w, http.StatusConflict, "Email already registered")
			return
		}
		WriteServiceError(w, err)
		return
	}
	s.writeTokenResponse(w, user)
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	if s.isBootstrapLogin(email, req.Password) {
		user, err := s.ensureBootstrapAdmin(email, req.Password)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		s.writeTokenResponse(w, user)
		return
	}

	user, found, err := s.Store.GetUserByEmail(email)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if !found {
		WriteError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	// Blocked accounts fail with 403, distinct from bad credentials.
	if user.IsBlocked {
		WriteError(w, http.StatusForbidden, "Your account has been blocked")
		return
	}
	if !s.Tokens.VerifyPassword(req.Password, user.PasswordHash) {
		WriteError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	s.writeTokenResponse(w, user)
}

// isBootstrapLogin requires an exact match on both the configured email and
// secret; a matching email alone never grants the bootstrap path.
func (s *Server) isBootstrapLogin(email, password string) bool {
	if s.Config.AdminEmail == "" || s.Config.AdminPassword == "" {
		return false
	}
	emailMatch := email == s.Config.AdminEmail
	passwordMatch := subtle.ConstantTimeCompare([]byte(password), []byte(s.Config.AdminPassword)) == 1
	return emailMatch && passwordMatch
}

// ensureBootstrapAdmin creates the admin account on first bootstrap login,
// or promotes an existing account under that email. Repeat logins reuse the
// same account.
func (s *Server) ensureBootstrapAdmin(email, password string) (models.User, error) {
	user, found, err := s.Store.GetUserByEmail(email)
	if err != nil {
		return models.User{}, err
	}
	if !found {
		hash, err := s.Tokens.HashPassword(password)
		if err != nil {
			return models.User{}, err
		}
		user = models.User{
			ID:           uuid.NewString(),
			Email:        email,
			PasswordHash: hash,
			Name:         "Admin",
			Role:         models.RoleAdmin,
			IsBlocked:    false,
			CreatedAt:    time.Now().UTC(),
		}
		if err := s.Store.CreateUser(user); err != nil {
			return models.User{}, err
		}
		return user, nil
	}
	if user.Role != models.RoleAdmin {
		promoted, _, err := s.Store.UpdateUserRole(user.ID, models.RoleAdmin)
		if err != nil {
			return models.User{}, err
		}
		return promoted, nil
	}
	return user, nil
}

func (s *Server) writeTokenResponse(w http.ResponseWriter, user models.User) {
	token, exp, err := s.Tokens.CreateToken(user.ID, user.Email, user.Role)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, TokenResponse{
		Token:     token,
		ExpiresAt: exp,
		User:      user,
	})
}
