package handler

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stockroom/stockroom/internal/auth"
	"github.com/stockroom/stockroom/internal/core/domain"
	"github.com/stockroom/stockroom/internal/core/service"
)

var phonePattern = regexp.MustCompile(`^\d{10,14}$`)

type UsersHandler struct {
	users *service.Users
}

func NewUsersHandler(users *service.Users) *UsersHandler {
	return &UsersHandler{users: users}
}

type userResponse struct {
	ID                     string    `json:"id"`
	Email                  string    `json:"email"`
	FirstName              string    `json:"first_name,omitempty"`
	LastName               string    `json:"last_name,omitempty"`
	PhoneNumber            string    `json:"phone_number,omitempty"`
	EmergencyContactNumber string    `json:"emergency_contact_number,omitempty"`
	Role                   string    `json:"role"`
	Status                 string    `json:"status"`
	CreatedAt              time.Time `json:"created_at"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:                     u.ID,
		Email:                  u.Email,
		FirstName:              u.FirstName,
		LastName:               u.LastName,
		PhoneNumber:            u.PhoneNumber,
		EmergencyContactNumber: u.EmergencyContactNumber,
		Role:                   string(u.Role),
		Status:                 string(u.Status),
		CreatedAt:              u.CreatedAt,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        userResponse `json:"user"`
}

// Login handles POST /auth/login.
func (h *UsersHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_credentials", "email and password are required")
		return
	}

	token, user, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        toUserResponse(user),
	})
}

type registerRequest struct {
	Email                  string `json:"email"`
	FirstName              string `json:"first_name"`
	LastName               string `json:"last_name"`
	PhoneNumber            string `json:"phone_number"`
	EmergencyContactNumber string `json:"emergency_contact_number"`
	Password               string `json:"password"`
}

// Register handles POST /auth/register, completing an invited account.
func (h *UsersHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_email", "a valid email is required")
		return
	}
	if req.FirstName == "" || len(req.FirstName) > 100 || req.LastName == "" || len(req.LastName) > 100 {
		writeError(w, http.StatusBadRequest, "invalid_name", "first_name and last_name must be 1-100 characters")
		return
	}
	if !phonePattern.MatchString(req.PhoneNumber) || !phonePattern.MatchString(req.EmergencyContactNumber) {
		writeError(w, http.StatusBadRequest, "invalid_phone", "phone numbers must be 10-14 digits")
		return
	}

	user, err := h.users.Register(r.Context(), service.RegisterInput{
		Email:                  req.Email,
		FirstName:              req.FirstName,
		LastName:               req.LastName,
		PhoneNumber:            req.PhoneNumber,
		EmergencyContactNumber: req.EmergencyContactNumber,
		Password:               req.Password,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

type inviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Invite handles POST /users (admin only).
func (h *UsersHandler) Invite(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_email", "a valid email is required")
		return
	}
	role := domain.Role(req.Role)
	if !role.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_role", `role must be one of "admin", "salesperson", "warehouse_manager"`)
		return
	}

	user, err := h.users.Invite(r.Context(), req.Email, role)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// Delete handles DELETE /users/{userID} (admin only).
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFrom(r.Context())
	if err := h.users.Delete(r.Context(), actor, chi.URLParam(r, "userID")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /users (admin only).
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]userResponse, len(users))
	for i := range users {
		out[i] = toUserResponse(&users[i])
	}
	writeJSON(w, http.StatusOK, out)
}
