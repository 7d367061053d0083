package server

import (
	"io"
	"mime/multipart"

	"showcase/internal/models"
	"showcase/internal/service"

	"github.com/gofiber/fiber/v2"
)

func uploadFile(fh *multipart.FileHeader) service.UploadFile {
	return service.UploadFile{
		Name: fh.Filename,
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

// UploadSingle handles POST /api/upload/single
// @Summary Upload one image
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "jpg, jpeg or png image"
// @Success 200 {object} blobstore.Object
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /upload/single [post]
func (s *Server) UploadSingle(c *fiber.Ctx) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No image uploaded"))
	}

	obj, err := s.uploadService.UploadSingle(c.UserContext(), uploadFile(fh))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(obj)
}

// UploadMultiple handles POST /api/upload/multiple
// @Summary Upload up to eight images
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param images formData file true "jpg, jpeg or png images"
// @Success 200 {object} object{items=[]blobstore.Object}
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /upload/multiple [post]
func (s *Server) UploadMultiple(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid multipart form"))
	}

	headers := form.File["images"]
	files := make([]service.UploadFile, len(headers))
	for i, fh := range headers {
		files[i] = uploadFile(fh)
	}

	objs, err := s.uploadService.UploadMultiple(c.UserContext(), files)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"items": objs})
}
