package server

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nilesh-r/jobsense/internal/analysis"
	"github.com/nilesh-r/jobsense/internal/extract"
	"github.com/nilesh-r/jobsense/internal/store"
)

type handler struct {
	svc    Service
	logger *zap.Logger
}

type createRequest struct {
	ResumeID       string `json:"resumeId"`
	ResumeText     string `json:"resumeText"`
	JobID          string `json:"jobId"`
	JobTitle       string `json:"jobTitle"`
	JobDescription string `json:"jobDescription"`
}

// errResponse carries the status for a request that cannot be analysed.
type errResponse struct {
	status  int
	message string
}

func (e *errResponse) Error() string { return e.message }

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) create(c *gin.Context) {
	in, err := h.bindInput(c)
	if err != nil {
		var resp *errResponse
		if errors.As(err, &resp) {
			c.JSON(resp.status, gin.H{"error": resp.message})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if strings.TrimSpace(in.ResumeText) == "" || strings.TrimSpace(in.JobDescription) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Resume and job description are required"})
		return
	}

	result, err := h.svc.Analyze(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, analysis.ErrEmptyResume) || errors.Is(err, analysis.ErrEmptyJobDescription) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("create analysis failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create analysis"})
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *handler) list(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list analyses failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch analyses"})
		return
	}
	if items == nil {
		items = []*analysis.Analysis{}
	}

	c.JSON(http.StatusOK, items)
}

func (h *handler) get(c *gin.Context) {
	result, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Analysis not found"})
			return
		}
		h.logger.Error("get analysis failed", zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch analysis"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *handler) bindInput(c *gin.Context) (analysis.Input, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		return h.bindMultipart(c)
	}

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if isTooLarge(err) {
			return analysis.Input{}, &errResponse{status: http.StatusRequestEntityTooLarge, message: "Request is too large"}
		}
		return analysis.Input{}, &errResponse{status: http.StatusBadRequest, message: "Invalid request body"}
	}

	return analysis.Input{
		ResumeID:       req.ResumeID,
		JobID:          req.JobID,
		JobTitle:       req.JobTitle,
		ResumeText:     req.ResumeText,
		JobDescription: req.JobDescription,
	}, nil
}

func (h *handler) bindMultipart(c *gin.Context) (analysis.Input, error) {
	file, err := c.FormFile("resume")
	if err != nil {
		if isTooLarge(err) {
			return analysis.Input{}, &errResponse{status: http.StatusRequestEntityTooLarge, message: "Resume file is too large"}
		}
		return analysis.Input{}, &errResponse{status: http.StatusBadRequest, message: "Resume file is required"}
	}

	text, err := resumeText(file)
	if err != nil {
		switch {
		case errors.Is(err, extract.ErrUnsupportedType):
			return analysis.Input{}, &errResponse{status: http.StatusUnsupportedMediaType, message: "Unsupported resume file type"}
		case errors.Is(err, extract.ErrParse):
			h.logger.Warn("resume parsing failed", zap.String("filename", file.Filename), zap.Error(err))
			return analysis.Input{}, &errResponse{status: http.StatusUnprocessableEntity, message: "Failed to parse resume"}
		default:
			return analysis.Input{}, err
		}
	}
	if strings.TrimSpace(text) == "" {
		return analysis.Input{}, &errResponse{status: http.StatusUnprocessableEntity, message: "Could not extract text from resume"}
	}

	return analysis.Input{
		ResumeID:       c.PostForm("resumeId"),
		JobID:          c.PostForm("jobId"),
		JobTitle:       c.PostForm("jobTitle"),
		ResumeText:     text,
		JobDescription: c.PostForm("jobDescription"),
	}, nil
}

// resumeText picks the MIME type from the part header and falls back to the file
// extension for generic types.
func resumeText(file *multipart.FileHeader) (string, error) {
	mime := file.Header.Get("Content-Type")
	if !extract.Supported(mime) {
		if byExt := extract.MIMEFromPath(file.Filename); byExt != "" {
			mime = byExt
		}
	}

	if !extract.Supported(mime) {
		return "", extract.ErrUnsupportedType
	}

	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}

	return extract.Text(mime, data)
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	// multipart wraps the reader error as text
	return strings.Contains(err.Error(), "request body too large")
}
