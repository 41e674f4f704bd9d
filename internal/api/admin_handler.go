package api

import (
	"net/http"

	"trackify/api/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	adminService   service.AdminService
	contactService service.ContactService
}

func NewAdminHandler(adminService service.AdminService, contactService service.ContactService) *AdminHandler {
	return &AdminHandler{adminService: adminService, contactService: contactService}
}

type SetUserStatusRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

type ContactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject"`
	Message string `json:"message" binding:"required,max=5000"`
}

// SetUserStatus godoc
// @Summary Enable or disable a user account
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param status body SetUserStatusRequest true "New status"
// @Success 200 {object} gin.H
// @Failure 403 {object} gin.H "Forbidden"
// @Failure 404 {object} gin.H "User not found"
// @Router /admin/users/{id}/status [put]
func (h *AdminHandler) SetUserStatus(c *gin.Context) {
	var req SetUserStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.adminService.SetUserActive(c.Request.Context(), principalFrom(c), c.Param("id"), *req.IsActive)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Stats godoc
// @Summary Dashboard counts
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Stats
// @Failure 403 {object} gin.H "Forbidden"
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminService.Stats(c.Request.Context(), principalFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// SubmitContact godoc
// @Summary Send a message to the Trackify team
// @Tags Contact
// @Accept json
// @Produce json
// @Param message body ContactRequest true "Message"
// @Success 201 {object} domain.ContactMessage
// @Failure 400 {object} gin.H "Invalid input"
// @Router /contact [post]
func (h *AdminHandler) SubmitContact(c *gin.Context) {
	var req ContactRequest
	if !bindJSON(c, &req) {
		return
	}
	msg, err := h.contactService.Submit(c.Request.Context(), service.ContactInput{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// ListContacts godoc
// @Summary List contact messages
// @Tags Contact
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.ContactMessage
// @Failure 403 {object} gin.H "Forbidden"
// @Router /contact [get]
func (h *AdminHandler) ListContacts(c *gin.Context) {
	msgs, err := h.contactService.List(c.Request.Context(), principalFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}
