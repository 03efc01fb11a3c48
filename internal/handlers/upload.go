package handlers

import (
	"errors"
	"net/http"

	"github.com/AnshRaj112/travelstory-backend/internal/middleware"
)

type ImageResponse struct {
	Error    bool   `json:"error"`
	Message  string `json:"message"`
	ImageURL string `json:"imageUrl"`
}

// ImageUpload godoc
// @Summary Upload a story image
// @Tags Images
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Image file"
// @Success 201 {object} ImageResponse
// @Failure 400 {object} MessageResponse
// @Router /image-upload [post]
func (h *Handler) ImageUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeMessage(w, http.StatusBadRequest, true, "Image is too large")
			return
		}
		writeMessage(w, http.StatusBadRequest, true, "No image uploaded")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, true, "No image uploaded")
		return
	}
	defer file.Close()

	if header.Size > h.maxUploadBytes {
		writeMessage(w, http.StatusBadRequest, true, "Image is too large")
		return
	}

	userID, _ := middleware.UserIDFromContext(r.Context())
	url, err := h.media.Upload(r.Context(), userID, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, ImageResponse{
		Message:  "Image uploaded successfully",
		ImageURL: url,
	})
}

// DeleteImage godoc
// @Summary Delete an uploaded image by URL
// @Description Only images uploaded by the caller are removed; anything else reports "Image not found".
// @Tags Images
// @Produce json
// @Security BearerAuth
// @Param imageUrl query string true "URL returned by image-upload"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} MessageResponse
// @Router /delete-image [delete]
func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	removed, err := h.media.Delete(r.Context(), userID, r.URL.Query().Get("imageUrl"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !removed {
		writeMessage(w, http.StatusOK, true, "Image not found")
		return
	}

	writeMessage(w, http.StatusOK, false, "Image deleted successfully")
}
