package api

import (
	"net/http"

	"trackify/api/internal/domain"
	"trackify/api/internal/service"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	reviewService service.ReviewService
}

func NewReviewHandler(reviewService service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

type CreateReviewRequest struct {
	Trainer  string `json:"trainer" binding:"required"`
	Rating   int    `json:"rating" binding:"required,gte=1,lte=5"`
	Comment  string `json:"comment" binding:"required,max=1000"`
	UserName string `json:"userName"`
}

// UpdateReviewRequest has no trainer field; a review keeps its trainer.
type UpdateReviewRequest struct {
	Rating  *int    `json:"rating" binding:"omitempty,gte=1,lte=5"`
	Comment *string `json:"comment" binding:"omitempty,max=1000"`
}

// ReviewResponse carries the review and, when it could be refreshed, the trainer aggregate.
type ReviewResponse struct {
	Review  *domain.Review        `json:"review"`
	Trainer *domain.RatingSummary `json:"trainer,omitempty"`
}

func mapReviewResult(res *service.ReviewResult) ReviewResponse {
	return ReviewResponse{Review: res.Review, Trainer: res.Trainer}
}

// CreateReview godoc
// @Summary Review a trainer
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param review body CreateReviewRequest true "Review"
// @Success 201 {object} ReviewResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 {object} gin.H "Trainer not found"
// @Router /reviews [post]
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	var req CreateReviewRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.reviewService.Create(c.Request.Context(), principalFrom(c), service.ReviewInput{
		TrainerID: req.Trainer,
		Rating:    req.Rating,
		Comment:   req.Comment,
		UserName:  req.UserName,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapReviewResult(res))
}

// UpdateReview godoc
// @Summary Update a review
// @Description Allowed for the author and for admins.
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID"
// @Param review body UpdateReviewRequest true "Fields to change"
// @Success 200 {object} ReviewResponse
// @Failure 403 {object} gin.H "Not the author"
// @Failure 404 {object} gin.H "Review not found"
// @Router /reviews/{id} [put]
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	var req UpdateReviewRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.reviewService.Update(c.Request.Context(), principalFrom(c), c.Param("id"), service.ReviewUpdate{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mapReviewResult(res))
}

// DeleteReview godoc
// @Summary Delete a review
// @Tags Reviews
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID"
// @Success 200 {object} ReviewResponse
// @Failure 403 {object} gin.H "Not the author"
// @Failure 404 {object} gin.H "Review not found"
// @Router /reviews/{id} [delete]
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	res, err := h.reviewService.Delete(c.Request.Context(), principalFrom(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mapReviewResult(res))
}

// ListTrainerReviews godoc
// @Summary List a trainer's reviews, newest first
// @Description With a valid token each review carries isMine.
// @Tags Reviews
// @Produce json
// @Param trainerId path string true "Trainer ID"
// @Success 200 {array} service.ReviewView
// @Failure 404 {object} gin.H "Trainer not found"
// @Router /reviews/trainer/{trainerId} [get]
func (h *ReviewHandler) ListTrainerReviews(c *gin.Context) {
	reviews, err := h.reviewService.ListForTrainer(c.Request.Context(), c.Param("trainerId"), principalFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": len(reviews), "reviews": reviews})
}
