package handlers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/turtacn/esign/internal/interfaces/http/middleware"
	"github.com/turtacn/esign/pkg/logger"
)

type createByTemplateRequest struct {
	Name             string                   `json:"name" binding:"required"`
	TemplateID       string                   `json:"templateId" binding:"required"`
	SimpleFormFields []map[string]interface{} `json:"simpleFormFields"`
}

// SandboxFile is a file created from a template.
type SandboxFile struct {
	FileID      string                   `json:"fileId"`
	FileName    string                   `json:"fileName"`
	TemplateID  string                   `json:"templateId"`
	AppID       string                   `json:"-"`
	FormFields  []map[string]interface{} `json:"-"`
	DownloadURL string                   `json:"downloadUrl"`
	CreatedAt   time.Time                `json:"-"`
}

// FileHandler emulates the file endpoints.
type FileHandler struct {
	files *cache.Cache
	log   logger.Logger
}

// NewFileHandler creates a FileHandler keeping created files in files.
func NewFileHandler(files *cache.Cache, log logger.Logger) *FileHandler {
	return &FileHandler{files: files, log: log}
}

// CreateByTemplate handles POST /v1/files/createByTemplate.
func (h *FileHandler) CreateByTemplate(c *gin.Context) {
	var req createByTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, CodeInvalidParam, fmt.Sprintf("invalid parameters: %v", err))
		return
	}

	fileID := uuid.NewString()
	file := &SandboxFile{
		FileID:      fileID,
		FileName:    req.Name,
		TemplateID:  req.TemplateID,
		AppID:       c.GetString(middleware.ContextKeyAppID),
		FormFields:  req.SimpleFormFields,
		DownloadURL: "https://sandbox.esign.local/files/" + fileID,
		CreatedAt:   time.Now().UTC(),
	}
	h.files.SetDefault(fileID, file)

	h.log.Info(c.Request.Context(), "File created from template", logger.Fields{
		"file_id":     fileID,
		"template_id": req.TemplateID,
		"fields":      len(req.SimpleFormFields),
	})
	respondOK(c, file)
}

// File returns a previously created file.
func (h *FileHandler) File(fileID string) (*SandboxFile, bool) {
	v, ok := h.files.Get(fileID)
	if !ok {
		return nil, false
	}
	return v.(*SandboxFile), true
}
