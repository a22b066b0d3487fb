// Package dto defines the open API endpoints the client knows how to build.
package dto

import (
	"fmt"
	"net/url"

	"github.com/turtacn/esign/internal/domain/models"
	"github.com/turtacn/esign/pkg/constants"
)

// Endpoint is a validated description of one open API call.
type Endpoint interface {
	// Operation labels the call in logs, spans and metrics.
	Operation() string

	// Build returns the request to sign. Callers validate the endpoint first.
	Build() *models.SignableRequest
}

// CreateByTemplateRequest 通过模板创建文件请求 DTO
type CreateByTemplateRequest struct {
	Name             string      `json:"name" validate:"notblank"`
	TemplateID       string      `json:"templateId" validate:"notblank"`
	SimpleFormFields interface{} `json:"simpleFormFields"`
}

// QuerySignersRequest 查询签署流程签署人请求 DTO
type QuerySignersRequest struct {
	FlowID string `json:"-" validate:"notblank"`
}

// GetVoucherRequest 获取签署流程存证凭证请求 DTO
type GetVoucherRequest struct {
	FlowID string `json:"-" validate:"notblank"`
}

func (r *CreateByTemplateRequest) Operation() string { return "files.create_by_template" }

// Build targets POST /v1/files/createByTemplate with {name, templateId, simpleFormFields}.
func (r *CreateByTemplateRequest) Build() *models.SignableRequest {
	return models.NewSignableRequest(models.MethodPost, constants.PathCreateByTemplate, r)
}

func (r *QuerySignersRequest) Operation() string { return "signflows.signers" }

// Build targets GET /v1/signflows/{flowId}/signers.
func (r *QuerySignersRequest) Build() *models.SignableRequest {
	return models.NewSignableRequest(models.MethodGet, fmt.Sprintf(constants.PathSignFlowSigners, url.PathEscape(r.FlowID)), nil)
}

func (r *GetVoucherRequest) Operation() string { return "signflows.voucher" }

// Build targets GET /api/v2/signflows/{flowId}/getVoucher.
func (r *GetVoucherRequest) Build() *models.SignableRequest {
	return models.NewSignableRequest(models.MethodGet, fmt.Sprintf(constants.PathSignFlowVoucher, url.PathEscape(r.FlowID)), nil)
}

var (
	_ Endpoint = (*CreateByTemplateRequest)(nil)
	_ Endpoint = (*QuerySignersRequest)(nil)
	_ Endpoint = (*GetVoucherRequest)(nil)
)
