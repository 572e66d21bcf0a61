package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campus-shuttle/service-shuttle/internal/application"
	"github.com/campus-shuttle/service-shuttle/internal/platform/auth"
	"github.com/campus-shuttle/service-shuttle/internal/platform/middleware"
	"github.com/campus-shuttle/service-shuttle/internal/platform/response"
)

// WalletHandler handles point recharges.
type WalletHandler struct {
	service *application.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(service *application.WalletService) *WalletHandler {
	return &WalletHandler{service: service}
}

// RegisterRoutes registers the wallet routes.
func (h *WalletHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	wallet := r.Group("/api/v1/wallet")
	wallet.Use(middleware.AuthMiddleware(jwtManager))
	{
		wallet.POST("/recharge", h.Recharge)
		wallet.GET("/transactions", h.ListTransactions)
	}
}

// Recharge handles POST /api/v1/wallet/recharge. The transaction stays
// pending until the payment result arrives.
func (h *WalletHandler) Recharge(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.RechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.RequestRecharge(c.Request.Context(), sess, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// ListTransactions handles GET /api/v1/wallet/transactions.
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.ListTransactions(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}
