package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"salesbackend/models"
	"salesbackend/services"
)

type ProfileController struct {
	profiles *services.ProfileService
}

func NewProfileController(profiles *services.ProfileService) *ProfileController {
	return &ProfileController{profiles: profiles}
}

func (p *ProfileController) GetProfile(c *gin.Context) {
	profile, err := p.profiles.GetProfile(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (p *ProfileController) UpdateProfile(c *gin.Context) {
	var update models.UpdateProfile
	if !bindJSON(c, &update) {
		return
	}

	profile, err := p.profiles.UpdateProfile(c.Request.Context(), currentUser(c), update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Profile updated successfully", "profile": profile})
}
