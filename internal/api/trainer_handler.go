// internal/api/trainer_handler.go
package api

import (
	"net/http"

	"trackify/api/internal/domain"
	"trackify/api/internal/service"

	"github.com/gin-gonic/gin"
)

type TrainerHandler struct {
	trainerService service.TrainerService
}

func NewTrainerHandler(trainerService service.TrainerService) *TrainerHandler {
	return &TrainerHandler{trainerService: trainerService}
}

// --- DTOs for Trainer Management ---

type CreateTrainerRequest struct {
	Name            string   `json:"name" binding:"required"`
	Email           string   `json:"email" binding:"omitempty,email"`
	Specialization  string   `json:"specialization" binding:"required"`
	Bio             string   `json:"bio"`
	ExperienceYears int      `json:"experienceYears" binding:"gte=0"`
	Location        string   `json:"location"`
	HourlyRate      float64  `json:"hourlyRate" binding:"gte=0"`
	Certifications  []string `json:"certifications"`
	IsActive        *bool    `json:"isActive"`
}

// UpdateTrainerRequest has no rating fields; values sent for them are ignored.
type UpdateTrainerRequest struct {
	Name            *string  `json:"name"`
	Email           *string  `json:"email" binding:"omitempty,email"`
	Specialization  *string  `json:"specialization"`
	Bio             *string  `json:"bio"`
	ExperienceYears *int     `json:"experienceYears" binding:"omitempty,gte=0"`
	Location        *string  `json:"location"`
	HourlyRate      *float64 `json:"hourlyRate" binding:"omitempty,gte=0"`
	Certifications  []string `json:"certifications"`
	IsActive        *bool    `json:"isActive"`
}

type ImageUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type ConfirmImageRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
}

type ImageUploadResponse struct {
	UploadURL        string `json:"uploadUrl"`
	ObjectKey        string `json:"objectKey"`
	ExpiresInSeconds int64  `json:"expiresInSeconds"`
}

// --- Handler Methods ---

// GetTrainer godoc
// @Summary Get a trainer profile
// @Tags Trainers
// @Produce json
// @Param id path string true "Trainer ID"
// @Success 200 {object} service.TrainerProfile
// @Failure 400 {object} gin.H "Invalid trainer ID"
// @Failure 404 {object} gin.H "Trainer not found"
// @Router /trainers/{id} [get]
func (h *TrainerHandler) GetTrainer(c *gin.Context) {
	trainer, err := h.trainerService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, trainer)
}

// CreateTrainer godoc
// @Summary Create a trainer profile
// @Description Requires the manageTrainers permission.
// @Tags Trainers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param trainer body CreateTrainerRequest true "Trainer details"
// @Success 201 {object} service.TrainerProfile
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 403 {object} gin.H "Forbidden"
// @Router /trainers [post]
func (h *TrainerHandler) CreateTrainer(c *gin.Context) {
	var req CreateTrainerRequest
	if !bindJSON(c, &req) {
		return
	}
	trainer, err := h.trainerService.Create(c.Request.Context(), service.TrainerInput{
		Name:            req.Name,
		Email:           req.Email,
		Specialization:  req.Specialization,
		Bio:             req.Bio,
		ExperienceYears: req.ExperienceYears,
		Location:        req.Location,
		HourlyRate:      req.HourlyRate,
		Certifications:  req.Certifications,
		IsActive:        req.IsActive,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, trainer)
}

// UpdateTrainer godoc
// @Summary Update a trainer profile
// @Description Requires the manageTrainers permission. Rating fields cannot be set.
// @Tags Trainers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Trainer ID"
// @Param trainer body UpdateTrainerRequest true "Fields to change"
// @Success 200 {object} service.TrainerProfile
// @Failure 403 {object} gin.H "Forbidden"
// @Failure 404 {object} gin.H "Trainer not found"
// @Router /trainers/{id} [put]
func (h *TrainerHandler) UpdateTrainer(c *gin.Context) {
	var req UpdateTrainerRequest
	if !bindJSON(c, &req) {
		return
	}
	trainer, err := h.trainerService.Update(c.Request.Context(), c.Param("id"), domain.TrainerUpdate{
		Name:            req.Name,
		Email:           req.Email,
		Specialization:  req.Specialization,
		Bio:             req.Bio,
		ExperienceYears: req.ExperienceYears,
		Location:        req.Location,
		HourlyRate:      req.HourlyRate,
		Certifications:  req.Certifications,
		IsActive:        req.IsActive,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, trainer)
}

// CreateImageUploadURL godoc
// @Summary Get a presigned URL to upload a trainer image
// @Tags Trainers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Trainer ID"
// @Param request body ImageUploadRequest true "Image content type"
// @Success 200 {object} ImageUploadResponse
// @Failure 400 {object} gin.H "Unsupported content type"
// @Failure 503 {object} gin.H "Image storage is not configured"
// @Router /trainers/{id}/image-upload-url [post]
func (h *TrainerHandler) CreateImageUploadURL(c *gin.Context) {
	var req ImageUploadRequest
	if !bindJSON(c, &req) {
		return
	}
	upload, err := h.trainerService.CreateImageUpload(c.Request.Context(), c.Param("id"), req.ContentType)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ImageUploadResponse{
		UploadURL:        upload.UploadURL,
		ObjectKey:        upload.ObjectKey,
		ExpiresInSeconds: int64(upload.ExpiresIn.Seconds()),
	})
}

// ConfirmImage godoc
// @Summary Confirm an uploaded trainer image
// @Tags Trainers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Trainer ID"
// @Param request body ConfirmImageRequest true "Uploaded object key"
// @Success 200 {object} service.TrainerProfile
// @Router /trainers/{id}/image [put]
func (h *TrainerHandler) ConfirmImage(c *gin.Context) {
	var req ConfirmImageRequest
	if !bindJSON(c, &req) {
		return
	}
	trainer, err := h.trainerService.ConfirmImage(c.Request.Context(), c.Param("id"), req.ObjectKey)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, trainer)
}
