package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"PariMarket/internal/ledger"
	"PariMarket/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// MarketHandler 预测市场接口：建赛事、加选项、下注、结算、询价
type MarketHandler struct {
	marketService *service.MarketService
	logger        *logrus.Logger
}

// NewMarketHandler 创建 MarketHandler
func NewMarketHandler(svc *service.MarketService, logger *logrus.Logger) *MarketHandler {
	return &MarketHandler{
		marketService: svc,
		logger:        logger,
	}
}

// HealthCheck 健康检查 GET /health
func (h *MarketHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "parimarket",
	})
}

// CreateEvent 创建赛事 POST /createEvent {eventName}
func (h *MarketHandler) CreateEvent(c *gin.Context) {
	var req service.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := h.marketService.CreateEvent(c.Request.Context(), &req); err != nil {
		h.fail(c, "CreateEvent", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Event %s has been created successfully!", req.EventName)})
}

// AddOutcomes 添加选项 POST /addOutcomes {eventName, outcomes}
func (h *MarketHandler) AddOutcomes(c *gin.Context) {
	var req service.AddOutcomesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := h.marketService.AddOutcomes(c.Request.Context(), &req); err != nil {
		h.fail(c, "AddOutcomes", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Outcomes %s added successfully", strings.Join(req.Outcomes, ","))})
}

// PlaceBet 下注 POST /placeBet {eventName, outcomeName, participant, amount}
func (h *MarketHandler) PlaceBet(c *gin.Context) {
	var req service.PlaceBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	result, err := h.marketService.PlaceBet(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, "PlaceBet", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Bet placed successfully",
		"betId":   result.BetID,
		"bet":     result,
	})
}

// ResolveMarket 结算 POST /resolveMarket {eventName, outcomeName}
func (h *MarketHandler) ResolveMarket(c *gin.Context) {
	var req service.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	result, err := h.marketService.ResolveMarket(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, "ResolveMarket", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Market resolved successfully",
		"result":  result,
	})
}

// GetMarketPrice 询价 GET /getMarketPrice?eventName=...&outcomeName=...
func (h *MarketHandler) GetMarketPrice(c *gin.Context) {
	eventName := c.Query("eventName")
	outcomeName := c.Query("outcomeName")
	if eventName == "" || outcomeName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "eventName and outcomeName are required"})
		return
	}
	quote, err := h.marketService.GetPrice(c.Request.Context(), eventName, outcomeName)
	if err != nil {
		h.fail(c, "GetMarketPrice", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Current market price for %s is %g", outcomeName, quote.Price),
		"price":   quote.Price,
	})
}

// ListMarkets 全市场快照 GET /api/markets
func (h *MarketHandler) ListMarkets(c *gin.Context) {
	events := h.marketService.ListEvents(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"total": len(events),
		"items": events,
	})
}

// GetMarket 单个赛事快照 GET /api/markets/:event_name
func (h *MarketHandler) GetMarket(c *gin.Context) {
	ev, err := h.marketService.GetEvent(c.Request.Context(), c.Param("event_name"))
	if err != nil {
		h.fail(c, "GetMarket", err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

// GetMarketPrices 赛事全部选项价格 GET /api/markets/:event_name/prices
func (h *MarketHandler) GetMarketPrices(c *gin.Context) {
	prices, err := h.marketService.OutcomePrices(c.Request.Context(), c.Param("event_name"))
	if err != nil {
		h.fail(c, "GetMarketPrices", err)
		return
	}
	c.JSON(http.StatusOK, prices)
}

func (h *MarketHandler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
}

// fail 按错误类别映射 HTTP 状态码
func (h *MarketHandler) fail(c *gin.Context, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).Error(op + " failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrDegenerateState):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
