package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PariMarket/internal/interfaces"
	"PariMarket/internal/ledger"
	"PariMarket/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CreateEventRequest 创建赛事请求
type CreateEventRequest struct {
	EventName string `json:"eventName" binding:"required"`
}

// AddOutcomesRequest 添加选项请求
type AddOutcomesRequest struct {
	EventName string   `json:"eventName" binding:"required"`
	Outcomes  []string `json:"outcomes" binding:"required"`
}

// PlaceBetRequest 下注请求。amount 的合法性由账本校验
type PlaceBetRequest struct {
	EventName   string  `json:"eventName" binding:"required"`
	OutcomeName string  `json:"outcomeName" binding:"required"`
	Participant string  `json:"participant" binding:"required"`
	Amount      float64 `json:"amount"`
}

// ResolveRequest 结算请求
type ResolveRequest struct {
	EventName   string `json:"eventName" binding:"required"`
	OutcomeName string `json:"outcomeName" binding:"required"`
}

// PlaceBetResult 下注结果
type PlaceBetResult struct {
	BetID       string    `json:"betId"`
	EventName   string    `json:"eventName"`
	OutcomeName string    `json:"outcomeName"`
	Participant string    `json:"participant"`
	Amount      float64   `json:"amount"`
	PlacedAt    time.Time `json:"placedAt"`
}

// BetLimits 单笔下注额上下限，0 表示不限制
type BetLimits struct {
	Min float64
	Max float64
}

// MarketService 面向接口层的市场服务：生成注单 ID、校验下注额度、记录日志，账务全部交给账本
type MarketService struct {
	ledger interfaces.MarketLedger
	limits BetLimits
	logger *logrus.Logger
	newID  func() string
	now    func() time.Time
}

// NewMarketService 创建 MarketService
func NewMarketService(l interfaces.MarketLedger, limits BetLimits, logger *logrus.Logger) *MarketService {
	return &MarketService{
		ledger: l,
		limits: limits,
		logger: logger,
		newID:  uuid.NewString,
		now:    time.Now,
	}
}

// CreateEvent 创建赛事
func (s *MarketService) CreateEvent(ctx context.Context, req *CreateEventRequest) error {
	log := s.logger.WithContext(ctx).WithField("event_name", req.EventName)
	if err := s.ledger.CreateEvent(req.EventName); err != nil {
		log.WithError(err).Warn("创建赛事失败")
		return err
	}
	log.Info("赛事已创建")
	return nil
}

// AddOutcomes 为赛事添加选项
func (s *MarketService) AddOutcomes(ctx context.Context, req *AddOutcomesRequest) error {
	log := s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"event_name": req.EventName,
		"outcomes":   req.Outcomes,
	})
	if err := s.ledger.AddOutcomes(req.EventName, req.Outcomes); err != nil {
		log.WithError(err).Warn("添加选项失败")
		return err
	}
	log.Info("选项已添加")
	return nil
}

// PlaceBet 校验额度后下注，返回带注单 ID 的结果
func (s *MarketService) PlaceBet(ctx context.Context, req *PlaceBetRequest) (*PlaceBetResult, error) {
	log := s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"event_name":   req.EventName,
		"outcome_name": req.OutcomeName,
		"participant":  req.Participant,
		"amount":       req.Amount,
	})

	if err := s.checkLimits(req.Amount); err != nil {
		log.WithError(err).Warn("下注额度超出限制")
		return nil, err
	}

	bet := model.Bet{
		ID:          s.newID(),
		Participant: req.Participant,
		Amount:      req.Amount,
		PlacedAt:    s.now(),
	}
	if err := s.ledger.PlaceBet(req.EventName, req.OutcomeName, bet); err != nil {
		log.WithError(err).Warn("下注失败")
		return nil, err
	}

	log.WithField("bet_id", bet.ID).Info("下注成功")
	return &PlaceBetResult{
		BetID:       bet.ID,
		EventName:   req.EventName,
		OutcomeName: req.OutcomeName,
		Participant: bet.Participant,
		Amount:      bet.Amount,
		PlacedAt:    bet.PlacedAt,
	}, nil
}

func (s *MarketService) checkLimits(amount float64) error {
	if s.limits.Min > 0 && amount > 0 && amount < s.limits.Min {
		return &ledger.ValidationError{Field: "amount", Reason: fmt.Sprintf("must be at least %g", s.limits.Min)}
	}
	if s.limits.Max > 0 && amount > s.limits.Max {
		return &ledger.ValidationError{Field: "amount", Reason: fmt.Sprintf("must not exceed %g", s.limits.Max)}
	}
	return nil
}

// ResolveMarket 结算赛事
func (s *MarketService) ResolveMarket(ctx context.Context, req *ResolveRequest) (*model.Resolution, error) {
	log := s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"event_name":      req.EventName,
		"winning_outcome": req.OutcomeName,
	})
	res, err := s.ledger.ResolveMarket(req.EventName, req.OutcomeName)
	if err != nil {
		if errors.Is(err, ledger.ErrDegenerateState) {
			log.WithError(err).Error("结算失败：获胜选项无人下注")
		} else {
			log.WithError(err).Warn("结算失败")
		}
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"total_amount": res.TotalAmount,
		"participants": len(res.Rewards),
	}).Info("赛事已结算")
	return res, nil
}

// GetPrice 查询单个选项的当前价格
func (s *MarketService) GetPrice(ctx context.Context, eventName, outcomeName string) (*model.PriceQuote, error) {
	p, err := s.ledger.GetCurrentOutcomePrice(eventName, outcomeName)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(logrus.Fields{
			"event_name":   eventName,
			"outcome_name": outcomeName,
		}).Debug("查询价格失败")
		return nil, err
	}
	return &model.PriceQuote{EventName: eventName, OutcomeName: outcomeName, Price: p}, nil
}

// OutcomePrices 查询赛事全部选项价格
func (s *MarketService) OutcomePrices(ctx context.Context, eventName string) (*model.MarketPrices, error) {
	mp, err := s.ledger.OutcomePrices(eventName)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("event_name", eventName).Debug("查询选项价格失败")
		return nil, err
	}
	return mp, nil
}

// GetEvent 查询单个赛事快照
func (s *MarketService) GetEvent(ctx context.Context, eventName string) (*model.Event, error) {
	ev, err := s.ledger.Event(eventName)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("event_name", eventName).Debug("查询赛事失败")
		return nil, err
	}
	return ev, nil
}

// ListEvents 返回全市场快照
func (s *MarketService) ListEvents(_ context.Context) []model.Event {
	return s.ledger.Snapshot()
}
