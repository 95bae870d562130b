package controllers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/flowbaker/sortinghat/internal/middlewares"
	"github.com/flowbaker/sortinghat/internal/version"
	"github.com/flowbaker/sortinghat/pkg/domain"
	"github.com/flowbaker/sortinghat/pkg/sorting"

	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

const urlNote = "The page content is not fetched; sorting is based on the URL alone."

var allowedImageTypes = regexp.MustCompile(`jpeg|jpg|png|gif|webp|heic`)

// SortingService is the part of the orchestrator the HTTP surface needs
type SortingService interface {
	Run(ctx context.Context, input domain.ClassificationInput) (sorting.Outcome, error)
	Classify(ctx context.Context, input domain.ClassificationInput) (domain.ClassificationResult, error)
	Transform(ctx context.Context, req domain.TransformationRequest) domain.TransformationResult
}

// SortingController turns HTTP requests into sorting inputs and results into JSON
type SortingController struct {
	service        SortingService
	maxUploadBytes int64
}

type SortingControllerDependencies struct {
	Service        SortingService
	MaxUploadBytes int
}

func NewSortingController(deps SortingControllerDependencies) *SortingController {
	return &SortingController{
		service:        deps.Service,
		maxUploadBytes: int64(deps.MaxUploadBytes),
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type SortTextRequest struct {
	Description string `json:"description"`
}

type SortURLRequest struct {
	URL string `json:"url"`
}

type TransformRequest struct {
	Description string `json:"description"`
	Category    string `json:"category"`
}

type SortImageResponse struct {
	Success          bool                        `json:"success"`
	RequestID        string                      `json:"requestId"`
	Sorting          domain.ClassificationResult `json:"sorting"`
	TransformedImage domain.TransformationResult `json:"transformedImage"`
}

type SortResponse struct {
	Success bool                        `json:"success"`
	Sorting domain.ClassificationResult `json:"sorting"`
	Note    string                      `json:"note,omitempty"`
}

type TransformResponse struct {
	Success          bool                        `json:"success"`
	TransformedImage domain.TransformationResult `json:"transformedImage"`
}

// Health reports that the service is up
func (c *SortingController) Health(ctx fiber.Ctx) error {
	return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":    "ok",
		"message":   "The Sorting Hat is ready!",
		"version":   version.GetVersion(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// SortImage classifies an uploaded image and restyles it for the chosen house
func (c *SortingController) SortImage(ctx fiber.Ctx) error {
	fileHeader, err := ctx.FormFile("image")
	if err != nil {
		return badRequest(ctx, "No image provided", "Please upload an image to sort!")
	}

	if c.maxUploadBytes > 0 && fileHeader.Size > c.maxUploadBytes {
		return badRequest(ctx, "File too large", "Image must be smaller than "+humanize.IBytes(uint64(c.maxUploadBytes)))
	}

	mimeType := fileHeader.Header.Get(fiber.HeaderContentType)
	if !isAllowedImage(fileHeader.Filename, mimeType) {
		return badRequest(ctx, "Invalid file type", "Only image files are allowed!")
	}

	data, err := readUpload(fileHeader)
	if err != nil {
		log.Error().Err(err).Str("filename", fileHeader.Filename).Msg("Failed to read uploaded image")
		return badRequest(ctx, "No image provided", "Please upload an image to sort!")
	}

	log.Info().
		Str("request_id", middlewares.RequestID(ctx)).
		Str("filename", fileHeader.Filename).
		Str("mime_type", mimeType).
		Int("size", len(data)).
		Msg("Received image")

	input := domain.NewImageInput(data, mimeType, ctx.FormValue("description"))

	outcome, err := c.service.Run(requestContext(ctx), input)
	if err != nil {
		return sortingError(ctx, err, "Please upload an image to sort!")
	}

	return ctx.JSON(SortImageResponse{
		Success:          true,
		RequestID:        outcome.RequestID,
		Sorting:          outcome.Classification,
		TransformedImage: outcome.Transformation,
	})
}

// SortText classifies a free-text description
func (c *SortingController) SortText(ctx fiber.Ctx) error {
	var req SortTextRequest

	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	result, err := c.service.Classify(requestContext(ctx), domain.NewTextInput(req.Description))
	if err != nil {
		return sortingError(ctx, err, "Please provide a description to sort!")
	}

	return ctx.JSON(SortResponse{Success: true, Sorting: result})
}

// SortURL classifies a URL from its text alone
func (c *SortingController) SortURL(ctx fiber.Ctx) error {
	var req SortURLRequest

	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	result, err := c.service.Classify(requestContext(ctx), domain.NewURLInput(req.URL))
	if err != nil {
		return sortingError(ctx, err, "Please provide a URL to sort!")
	}

	return ctx.JSON(SortResponse{Success: true, Sorting: result, Note: urlNote})
}

// Transform restyles a described subject for a given house
func (c *SortingController) Transform(ctx fiber.Ctx) error {
	var req TransformRequest

	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		return badRequest(ctx, "No description provided", "Please describe what should be transformed!")
	}

	category, err := domain.ParseCategory(req.Category)
	if err != nil {
		return badRequest(ctx, "Invalid house", "The Sorting Hat knows only four houses!")
	}

	result := c.service.Transform(requestContext(ctx), domain.TransformationRequest{
		SubjectDescription: description,
		Category:           category,
	})

	return ctx.JSON(TransformResponse{Success: result.Success, TransformedImage: result})
}

// ErrorHandler renders every unhandled error in the same JSON shape as the handlers
func ErrorHandler(ctx fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		if fiberErr.Code == fiber.StatusRequestEntityTooLarge {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse{
				Error:   "File too large",
				Message: "The upload is too large for the Sorting Hat to examine.",
			})
		}

		return ctx.Status(fiberErr.Code).JSON(ErrorResponse{
			Error:   fiberErr.Message,
			Message: "Something went wrong with the magic!",
		})
	}

	return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "Internal server error",
		Message: "Something went wrong with the magic!",
	})
}

func sortingError(ctx fiber.Ctx, err error, emptyMessage string) error {
	if errors.Is(err, domain.ErrEmptyInput) {
		return badRequest(ctx, "Nothing to sort", emptyMessage)
	}

	log.Error().Err(err).Str("request_id", middlewares.RequestID(ctx)).Msg("Sorting failed")

	return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "Sorting failed",
		Message: "The Sorting Hat encountered some magical interference. Please try again!",
	})
}

func badRequest(ctx fiber.Ctx, errMsg, message string) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: errMsg, Message: message})
}

func requestContext(ctx fiber.Ctx) context.Context {
	return sorting.WithRequestID(ctx.RequestCtx(), middlewares.RequestID(ctx))
}

func isAllowedImage(filename, mimeType string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return allowedImageTypes.MatchString(ext) && allowedImageTypes.MatchString(strings.ToLower(mimeType))
}

func readUpload(fileHeader *multipart.FileHeader) ([]byte, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}
