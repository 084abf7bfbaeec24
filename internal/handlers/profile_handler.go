package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/justsurfingit/cover-letter-agent/internal/common"
	"github.com/justsurfingit/cover-letter-agent/internal/dtos"
	"github.com/justsurfingit/cover-letter-agent/internal/models"
	"github.com/justsurfingit/cover-letter-agent/internal/services"
)

type ProfileHandler struct {
	Store services.Repository
}

func NewProfileHandler(store services.Repository) *ProfileHandler {
	return &ProfileHandler{Store: store}
}

// Get returns the stored profile, or one seeded from the identity when the
// user has not saved a profile yet.
func (h *ProfileHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	profile, err := h.Store.GetProfile(c.Request.Context(), user.ID)
	switch {
	case errors.Is(err, common.ErrNotFound):
		profile = &models.UserProfile{UserID: user.ID, Name: user.Name, Email: user.Email}
	case err != nil:
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req dtos.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	saved, err := h.Store.SaveProfile(c.Request.Context(), &models.UserProfile{
		UserID:     user.ID,
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.TrimSpace(req.Email),
		Phone:      strings.TrimSpace(req.Phone),
		Address:    strings.TrimSpace(req.Address),
		Experience: strings.TrimSpace(req.Experience),
		Education:  strings.TrimSpace(req.Education),
		Skills:     strings.TrimSpace(req.Skills),
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}
