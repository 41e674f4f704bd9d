package api

import (
	"net/http"
	"time"

	"trackify/api/internal/domain"
	"trackify/api/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService  service.AuthService
	adminService service.AdminService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService, adminService service.AdminService) *AuthHandler {
	return &AuthHandler{authService: authService, adminService: adminService}
}

// --- Request/Response Structs ---

type SignupRequest struct {
	FirstName    string   `json:"firstName" binding:"required"`
	LastName     string   `json:"lastName" binding:"required"`
	Email        string   `json:"email" binding:"required,email"`
	Password     string   `json:"password" binding:"required,min=8,max=72"`
	Phone        string   `json:"phone"`
	Bio          string   `json:"bio"`
	FitnessGoals []string `json:"fitnessGoals"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest has no role or password fields: neither can be changed here.
type UpdateProfileRequest struct {
	FirstName    *string  `json:"firstName"`
	LastName     *string  `json:"lastName"`
	Email        *string  `json:"email" binding:"omitempty,email"`
	Phone        *string  `json:"phone"`
	Bio          *string  `json:"bio"`
	FitnessGoals []string `json:"fitnessGoals"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8,max=72"`
}

type CreateAdminRequest struct {
	FirstName    string              `json:"firstName" binding:"required"`
	LastName     string              `json:"lastName" binding:"required"`
	Email        string              `json:"email" binding:"required,email"`
	Password     string              `json:"password" binding:"required,min=8,max=72"`
	Phone        string              `json:"phone"`
	Permissions  *domain.Permissions `json:"permissions"`
	IsSuperAdmin bool                `json:"isSuperAdmin"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// AuthResponse is returned by signup, login and change-password.
// User holds a user or an admin document depending on Kind.
type AuthResponse struct {
	Token     string               `json:"token"`
	ExpiresAt time.Time            `json:"expiresAt"`
	Kind      domain.PrincipalKind `json:"kind"`
	Role      domain.Role          `json:"role"`
	User      any                  `json:"user"`
}

// PrincipalResponse describes the authenticated account without credentials.
type PrincipalResponse struct {
	Kind domain.PrincipalKind `json:"kind"`
	Role domain.Role          `json:"role"`
	User any                  `json:"user"`
}

func principalDocument(p *domain.Principal) any {
	if p.Kind == domain.KindAdmin {
		return p.Admin
	}
	return p.User
}

func mapPrincipal(p *domain.Principal) PrincipalResponse {
	return PrincipalResponse{Kind: p.Kind, Role: p.Role(), User: principalDocument(p)}
}

func mapAuthResult(res *service.AuthResult) AuthResponse {
	return AuthResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		Kind:      res.Principal.Kind,
		Role:      res.Principal.Role(),
		User:      principalDocument(res.Principal),
	}
}

// --- Handler Methods ---

// Signup godoc
// @Summary Register a new user
// @Description Creates a user account with role user and logs it in.
// @Tags Auth
// @Accept json
// @Produce json
// @Param user body SignupRequest true "Registration details"
// @Success 201 {object} AuthResponse "User created successfully"
// @Failure 400 {object} gin.H "Invalid input or email already in use"
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.authService.Signup(c.Request.Context(), service.SignupInput{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Password:     req.Password,
		Phone:        req.Phone,
		Bio:          req.Bio,
		FitnessGoals: req.FitnessGoals,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapAuthResult(res))
}

// Login godoc
// @Summary Log in
// @Description Authenticates an admin or a user and returns a JWT token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse "Login successful"
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 401 {object} gin.H "Invalid credentials or disabled account"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAuthResult(res))
}

// Me godoc
// @Summary Current account
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} PrincipalResponse
// @Failure 401 {object} gin.H "Unauthorized"
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, mapPrincipal(principalFrom(c)))
}

// UpdateProfile godoc
// @Summary Update the current account's profile
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} PrincipalResponse
// @Failure 400 {object} gin.H "Invalid input or email already in use"
// @Failure 401 {object} gin.H "Unauthorized"
// @Router /auth/update-profile [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.authService.UpdateProfile(c.Request.Context(), principalFrom(c), service.ProfileUpdate{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		Bio:          req.Bio,
		FitnessGoals: req.FitnessGoals,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mapPrincipal(p))
}

// ChangePassword godoc
// @Summary Change the current account's password
// @Description Revokes the presented token and returns a new one.
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param passwords body ChangePasswordRequest true "Current and new password"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} gin.H "Current password is incorrect"
// @Router /auth/change-password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.authService.ChangePassword(c.Request.Context(), principalFrom(c), claimsFrom(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mapAuthResult(res))
}

// Logout godoc
// @Summary Log out
// @Description Revokes the presented token until it expires.
// @Tags Auth
// @Security BearerAuth
// @Success 200 {object} gin.H
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), claimsFrom(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// CreateAdmin godoc
// @Summary Create an admin account
// @Description Requires the manageAdmins permission.
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param admin body CreateAdminRequest true "Admin details"
// @Success 201 {object} domain.Admin
// @Failure 403 {object} gin.H "Forbidden"
// @Router /auth/create-admin [post]
func (h *AuthHandler) CreateAdmin(c *gin.Context) {
	var req CreateAdminRequest
	if !bindJSON(c, &req) {
		return
	}

	admin, err := h.adminService.CreateAdmin(c.Request.Context(), principalFrom(c), service.CreateAdminInput{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Password:     req.Password,
		Phone:        req.Phone,
		Permissions:  req.Permissions,
		IsSuperAdmin: req.IsSuperAdmin,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"admin": admin})
}

// ForgotPassword godoc
// @Summary Request a password reset email
// @Description Always answers the same way whether or not the email exists.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body ForgotPasswordRequest true "Account email"
// @Success 200 {object} gin.H
// @Failure 400 {object} gin.H "Malformed body"
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.authService.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If that email is registered, a reset link has been sent"})
}

// ResetPassword godoc
// @Summary Reset a password with an emailed token
// @Tags Auth
// @Accept json
// @Produce json
// @Param token path string true "Reset token"
// @Param request body ResetPasswordRequest true "New password"
// @Success 200 {object} gin.H
// @Failure 400 {object} gin.H "Token is invalid or has expired"
// @Router /auth/reset-password/{token} [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.authService.ResetPassword(c.Request.Context(), c.Param("token"), req.Password); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
}

// VerifyResetToken godoc
// @Summary Check a reset token
// @Tags Auth
// @Produce json
// @Param token path string true "Reset token"
// @Success 200 {object} gin.H "valid: true"
// @Failure 400 {object} gin.H "valid: false"
// @Router /auth/verify-reset-token/{token} [get]
func (h *AuthHandler) VerifyResetToken(c *gin.Context) {
	valid, err := h.authService.VerifyResetToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		fail(c, err)
		return
	}
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"valid": false, "error": service.ErrInvalidOrExpiredToken.PublicMessage()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}
