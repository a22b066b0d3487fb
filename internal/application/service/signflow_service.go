package service

import (
	"context"

	"github.com/turtacn/esign/internal/application/dto"
	"github.com/turtacn/esign/internal/domain/models"
)

// SignFlowService wraps the sign flow endpoints.
type SignFlowService struct {
	client *APIClient
}

// NewSignFlowService creates a SignFlowService.
func NewSignFlowService(client *APIClient) *SignFlowService {
	return &SignFlowService{client: client}
}

// QuerySigners lists the signers of flowID.
func (s *SignFlowService) QuerySigners(ctx context.Context, flowID string) (*models.Collection, error) {
	return dataOf(s.client.Do(ctx, &dto.QuerySignersRequest{FlowID: flowID}))
}

// GetVoucher fetches the evidence voucher of flowID.
func (s *SignFlowService) GetVoucher(ctx context.Context, flowID string) (*models.Collection, error) {
	return dataOf(s.client.Do(ctx, &dto.GetVoucherRequest{FlowID: flowID}))
}
