package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/harborpoint/homewatch-api/middleware"
	"github.com/harborpoint/homewatch-api/services"
	"github.com/harborpoint/homewatch-api/utils"
)

// UploadFile handles POST /api/v1/uploads - multipart upload into one of the
// allow-listed buckets. The form carries a "file" part and a "bucket" field.
func UploadFile(c *gin.Context) {
	if _, ok := middleware.RequireConfirmedUser(c); !ok {
		return
	}

	bucket := c.PostForm("bucket")
	if bucket == "" {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "bucket form field is required")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "file form field is required")
		return
	}

	key, err := services.GetUploadService().Upload(fileHeader, bucket)
	if err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			respondError(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
			return
		}
		respondError(c, http.StatusInternalServerError, "UPLOAD_FAILED", "Failed to store file")
		return
	}

	url, err := services.GetUploadService().GetURL(key)
	if err != nil {
		// the object is stored; the client can fetch a URL later
		url = ""
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"key": key,
			"url": url,
		},
	})
}

// GetFileURL handles GET /api/v1/uploads/url?key=... - returns a short-lived
// signed URL for an object in one of the allow-listed buckets.
func GetFileURL(c *gin.Context) {
	if _, ok := middleware.RequireConfirmedUser(c); !ok {
		return
	}

	key := c.Query("key")
	if key == "" {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "key query parameter is required")
		return
	}

	bucket, _, found := strings.Cut(key, "/")
	if !found || utils.ValidateUploadBucket(bucket) != nil {
		respondError(c, http.StatusBadRequest, "INVALID_BUCKET", "Object key does not belong to a known bucket")
		return
	}

	url, err := services.GetUploadService().GetURL(key)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "URL_GENERATION_FAILED", "Failed to generate file URL")
		return
	}

	respondData(c, http.StatusOK, gin.H{"key": key, "url": url})
}
