package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"salesbackend/services"
	"salesbackend/utils"
)

// UploadProductPhoto accepts a multipart "photo" field (JPEG or PNG, at most
// 5MB) and stores a downscaled JPEG copy.
func (p *ProductController) UploadProductPhoto(c *gin.Context) {
	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return
	}
	if file.Size > utils.MaxPhotoSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file size exceeds the 5MB limit"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open uploaded file"})
		return
	}
	defer src.Close()

	contentType := strings.ToLower(file.Header.Get("Content-Type"))
	url, err := p.inventory.SetPhoto(c.Request.Context(), currentUser(c), c.Param("id"), src, contentType)
	if err != nil {
		if errors.Is(err, services.ErrPhotoStorageDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Photo storage is not configured"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photo_url": url})
}
