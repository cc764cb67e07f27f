package analysis

import (
	"errors"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sahilchouksey/pyq-analyzer/model"
	"github.com/sahilchouksey/pyq-analyzer/services"
	"github.com/sahilchouksey/pyq-analyzer/utils"
	"github.com/sahilchouksey/pyq-analyzer/utils/pdfvalidation"
	"github.com/sahilchouksey/pyq-analyzer/utils/response"
	"github.com/sahilchouksey/pyq-analyzer/utils/validation"
)

const (
	// upload field names; "files" is accepted for older clients
	uploadField      = "pdfs"
	altUploadField   = "files"
	recentBatchLimit = 50
)

// AnalysisHandler handles question paper analysis requests
type AnalysisHandler struct {
	service   *services.AnalysisService
	validator *validation.Validator
	logger    *utils.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service *services.AnalysisService, logger *utils.Logger) *AnalysisHandler {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &AnalysisHandler{
		service:   service,
		validator: validation.NewValidator(),
		logger:    logger,
	}
}

// ListQuestionsQuery holds the optional filters of GET /api/questions
type ListQuestionsQuery struct {
	Importance string `query:"importance" validate:"omitempty,oneof=low moderate high"`
	Q          string `query:"q" validate:"omitempty,max=200"`
	Limit      int    `query:"limit" validate:"omitempty,gte=1,lte=500"`
}

// AnalyzePDFs handles POST /api/analyze
func (h *AnalysisHandler) AnalyzePDFs(c *fiber.Ctx) error {
	files := uploadedFiles(c)
	if len(files) == 0 {
		return response.BadRequest(c, "No PDF files uploaded")
	}

	docs := make([]services.Document, 0, len(files))
	for _, file := range files {
		result, err := pdfvalidation.ValidateUpload(file, pdfvalidation.QuestionPaperLimits)
		if err != nil {
			h.logger.Error("failed to read upload", "file", file.Filename, "error", err)
			return response.InternalServerError(c, "Internal server error")
		}
		if !result.Valid {
			return response.BadRequest(c, result.Error)
		}
		docs = append(docs, services.Document{
			Name:     file.Filename,
			MIMEType: pdfvalidation.PDFMimeType,
			Content:  result.Content,
		})
	}

	result, err := h.service.Analyze(c.UserContext(), docs)
	if err != nil {
		if errors.Is(err, services.ErrNoFiles) {
			return response.BadRequest(c, "No PDF files uploaded")
		}
		h.logger.Error("analysis failed", "files", len(docs), "error", err)
		return response.InternalServerError(c, "Internal server error")
	}

	batchID := ""
	if result.BatchID != uuid.Nil {
		batchID = result.BatchID.String()
	}
	return response.Results(c, result.Questions, len(result.Questions), batchID)
}

// ListQuestions handles GET /api/questions
func (h *AnalysisHandler) ListQuestions(c *fiber.Ctx) error {
	var query ListQuestionsQuery
	if err := c.QueryParser(&query); err != nil {
		return response.BadRequest(c, "Invalid query parameters")
	}
	query.Q = validation.SanitizeString(query.Q)

	if err := h.validator.ValidateStruct(query); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	questions, err := h.service.Questions().List(c.UserContext(), services.QuestionFilter{
		Importance: model.Importance(query.Importance),
		Search:     query.Q,
		Limit:      query.Limit,
	})
	if err != nil {
		h.logger.Error("failed to list questions", "error", err)
		return response.InternalServerError(c, "Internal server error")
	}

	return response.Results(c, questions, len(questions), "")
}

// GetQuestion handles GET /api/questions/:id
func (h *AnalysisHandler) GetQuestion(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid question ID")
	}

	question, err := h.service.Questions().Get(c.UserContext(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrQuestionNotFound) {
			return response.NotFound(c, "Question not found")
		}
		h.logger.Error("failed to fetch question", "id", id, "error", err)
		return response.InternalServerError(c, "Internal server error")
	}

	return response.Success(c, question)
}

// ListBatches handles GET /api/batches
func (h *AnalysisHandler) ListBatches(c *fiber.Ctx) error {
	batches, err := h.service.Batches().Recent(c.UserContext(), recentBatchLimit)
	if err != nil {
		h.logger.Error("failed to list batches", "error", err)
		return response.InternalServerError(c, "Internal server error")
	}

	return response.Results(c, batches, len(batches), "")
}

// uploadedFiles returns the files of both upload fields; a request that is
// not multipart has none
func uploadedFiles(c *fiber.Ctx) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil {
		return nil
	}

	files := append([]*multipart.FileHeader{}, form.File[uploadField]...)
	return append(files, form.File[altUploadField]...)
}
