package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/refurbhq/refurbd/internal/auth"
	"github.com/refurbhq/refurbd/internal/model"
	"github.com/refurbhq/refurbd/internal/store"
)

// AuthHandler handles signup and login.
type AuthHandler struct {
	DB        *sql.DB
	JWTSecret string
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	JoinCode string `json:"join_code"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Signup handles POST /api/auth/signup.
//
// A join code attaches the new user to its company, unapproved. Admins may
// sign up without one, which auto-approves them but leaves them company-less
// until they create a company. Everyone else needs a join code.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "username, email, and password required")
		return
	}
	if !model.ValidRole(req.Role) {
		jsonError(w, http.StatusBadRequest, "invalid role")
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	var companyID *string
	approved := false

	joinCode := strings.TrimSpace(req.JoinCode)
	if joinCode != "" {
		company, err := store.GetCompanyByJoinCode(r.Context(), h.DB, joinCode)
		if err != nil {
			slog.Error("failed to look up join code", "error", err)
			jsonError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if company == nil {
			jsonError(w, http.StatusBadRequest, "invalid join code")
			return
		}
		companyID = &company.ID
	} else if req.Role != model.RoleAdmin {
		jsonError(w, http.StatusBadRequest, "join code is required for non-admin accounts")
		return
	} else {
		// Admins without a company self-approve; they must create a company
		// before touching items.
		approved = true
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.Username, req.Email, string(hash), req.Role, companyID, approved)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			jsonError(w, http.StatusConflict, "email already registered")
			return
		}
		slog.Error("failed to create user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	slog.Info("user signed up", "user", user.Username, "role", user.Role, "approved", user.Approved)
	jsonResponse(w, http.StatusCreated, user)
}

// Login handles POST /api/auth/login. Only approved accounts may log in.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "email and password required")
		return
	}

	user, err := store.GetUserByEmail(r.Context(), h.DB, req.Email)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		jsonError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		slog.Warn("login failed", "email", req.Email, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if !user.Approved {
		jsonError(w, http.StatusForbidden, "account is pending admin approval")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, user.ID, user.Username)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("user logged in", "user", user.Username, "role", user.Role)
	jsonResponse(w, http.StatusOK, loginResponse{Token: token})
}
