package handlers

import (
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/esign/pkg/logger"
)

// Sign statuses reported for sandbox signers.
const (
	SignStatusPending  = 1
	SignStatusComplete = 2
)

// SignFlowHandler emulates the sign flow queries. Every flow id is known to the sandbox
// and reports one completed and one pending signer.
type SignFlowHandler struct {
	log logger.Logger
}

// NewSignFlowHandler creates a SignFlowHandler.
func NewSignFlowHandler(log logger.Logger) *SignFlowHandler {
	return &SignFlowHandler{log: log}
}

// Signers handles GET /v1/signflows/:flowId/signers.
func (h *SignFlowHandler) Signers(c *gin.Context) {
	flowID, ok := flowParam(c)
	if !ok {
		return
	}

	h.log.Debug(c.Request.Context(), "Querying signers", logger.Fields{"flow_id": flowID})
	respondOK(c, gin.H{
		"flowId": flowID,
		"signers": []gin.H{
			{"signerAccountId": flowID + "-signer-1", "signOrder": 1, "signStatus": SignStatusComplete},
			{"signerAccountId": flowID + "-signer-2", "signOrder": 2, "signStatus": SignStatusPending},
		},
	})
}

// Voucher handles GET /api/v2/signflows/:flowId/getVoucher.
func (h *SignFlowHandler) Voucher(c *gin.Context) {
	flowID, ok := flowParam(c)
	if !ok {
		return
	}

	h.log.Debug(c.Request.Context(), "Fetching voucher", logger.Fields{"flow_id": flowID})
	respondOK(c, gin.H{
		"flowId":     flowID,
		"voucherUrl": "https://sandbox.esign.local/vouchers/" + url.PathEscape(flowID) + ".pdf",
	})
}

func flowParam(c *gin.Context) (string, bool) {
	flowID := strings.TrimSpace(c.Param("flowId"))
	if flowID == "" {
		respondError(c, CodeInvalidParam, "flowId is required")
		return "", false
	}
	return flowID, true
}
