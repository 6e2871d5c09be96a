package handler

import (
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"doculens/internal/export"
	"doculens/internal/service"
)

// ExtractionHandler handles document extraction endpoints.
type ExtractionHandler struct {
	svc service.ExtractionService
}

// NewExtractionHandler creates a new ExtractionHandler.
func NewExtractionHandler(svc service.ExtractionService) *ExtractionHandler {
	return &ExtractionHandler{svc: svc}
}

// readSubmitInput builds a SubmitInput from the multipart form. Pages come
// from the repeated "pages" file field, in form order; the optional
// "source_pdf" field carries the original document for the page-count
// cross-check. Content types are sniffed from the bytes, not trusted from
// the upload headers.
func readSubmitInput(c *gin.Context) (service.SubmitInput, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_FORM", "multipart form is required")
		return service.SubmitInput{}, false
	}

	files := form.File["pages"]
	if len(files) == 0 {
		RespondError(c, http.StatusBadRequest, "NO_PAGES", "at least one page image is required in the pages field")
		return service.SubmitInput{}, false
	}

	input := service.SubmitInput{SourceName: c.PostForm("source_name")}
	if input.SourceName == "" && len(files) > 0 {
		input.SourceName = files[0].Filename
	}

	for i, header := range files {
		data, err := readUpload(header)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "UNREADABLE_PAGE", "could not read page "+strconv.Itoa(i+1))
			return service.SubmitInput{}, false
		}
		input.Pages = append(input.Pages, data)
		input.ContentTypes = append(input.ContentTypes, http.DetectContentType(data))
	}

	if pdfs := form.File["source_pdf"]; len(pdfs) > 0 {
		data, err := readUpload(pdfs[0])
		if err != nil {
			RespondError(c, http.StatusBadRequest, "UNREADABLE_PDF", "could not read source pdf")
			return service.SubmitInput{}, false
		}
		input.SourcePDF = data
	}

	return input, true
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}

// Submit handles POST /api/v1/extractions: store pages and enqueue a job.
func (h *ExtractionHandler) Submit(c *gin.Context) {
	input, ok := readSubmitInput(c)
	if !ok {
		return
	}

	job, err := h.svc.Submit(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondAccepted(c, job)
}

// ProcessSync handles POST /api/v1/extractions/sync: run the pipeline inline
// and return the envelope.
func (h *ExtractionHandler) ProcessSync(c *gin.Context) {
	input, ok := readSubmitInput(c)
	if !ok {
		return
	}

	env, err := h.svc.ProcessSync(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, env)
}

// GetByID handles GET /api/v1/extractions/:id
func (h *ExtractionHandler) GetByID(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid job ID")
		return
	}

	job, err := h.svc.GetJob(c.Request.Context(), jobID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, job)
}

// List handles GET /api/v1/extractions
func (h *ExtractionHandler) List(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	jobs, total, err := h.svc.ListJobs(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, jobs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Export handles GET /api/v1/extractions/:id/export?format=csv|xlsx
func (h *ExtractionHandler) Export(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid job ID")
		return
	}

	format, err := export.ParseFormat(c.DefaultQuery("format", "csv"))
	if err != nil {
		HandleError(c, err)
		return
	}

	env, sourceName, err := h.svc.GetEnvelope(c.Request.Context(), jobID)
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := export.BuildFilename(sourceName, format)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", format.ContentType())
	c.Status(http.StatusOK)

	switch format {
	case export.FormatXLSX:
		err = export.WriteXLSX(c.Writer, sourceName, env)
	default:
		err = export.WriteCSV(c.Writer, env)
	}
	if err != nil {
		// Headers already sent; nothing left but to log.
		requestID, _ := c.Get("request_id")
		log.Printf("[%s] export write failed for job %s: %v", requestID, jobID, err)
	}
}
