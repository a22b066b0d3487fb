package service

import (
	"context"

	"github.com/turtacn/esign/internal/application/dto"
	"github.com/turtacn/esign/internal/domain/models"
)

// FileService wraps the file endpoints.
type FileService struct {
	client *APIClient
}

// NewFileService creates a FileService.
func NewFileService(client *APIClient) *FileService {
	return &FileService{client: client}
}

// CreateByTemplateID creates a file from templateID, filling simpleFormFields. It
// returns nil when the service answers with an empty body.
func (s *FileService) CreateByTemplateID(ctx context.Context, templateID, name string, simpleFormFields interface{}) (*models.Collection, error) {
	result, err := s.client.Do(ctx, &dto.CreateByTemplateRequest{
		Name:             name,
		TemplateID:       templateID,
		SimpleFormFields: simpleFormFields,
	})
	return dataOf(result, err)
}

func dataOf(result *models.Result, err error) (*models.Collection, error) {
	if err != nil {
		return nil, err
	}
	if result.IsNoContent() {
		return nil, nil
	}
	return result.Data(), nil
}
