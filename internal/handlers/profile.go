package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/eirikhm/tripfellows/internal/services"
	"github.com/eirikhm/tripfellows/pkg/errors"
	"github.com/eirikhm/tripfellows/pkg/response"
)

// ProfileHandler serves user profiles and profile edits.
type ProfileHandler struct {
	users *services.UserService
}

func NewProfileHandler(db *gorm.DB) (*ProfileHandler, error) {
	users, err := services.NewUserService(db)
	if err != nil {
		return nil, err
	}
	return &ProfileHandler{users: users}, nil
}

type updateProfileRequest struct {
	Alias       *string `json:"alias" validate:"omitempty,max=128"`
	Description *string `json:"description" validate:"omitempty,max=2048"`
	NewPassword *string `json:"new_password" validate:"omitempty,min=6,max=128"`
}

// GET /api/users/:id
func (h *ProfileHandler) Get(c *gin.Context) {
	view, err := h.users.Profile(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// PATCH /api/profile
func (h *ProfileHandler) Update(c *gin.Context) {
	var req updateProfileRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if req.Alias == nil && req.Description == nil && req.NewPassword == nil {
		response.Error(c, errors.NewBadRequest("no fields provided for update"))
		return
	}

	user, err := h.users.UpdateProfile(requestContext(c), currentUserID(c), services.UpdateProfileInput{
		Alias:       req.Alias,
		Description: req.Description,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}
