package interfaces

import "PariMarket/internal/model"

// MarketLedger 同注分彩账本需实现的核心接口（ledger.Ledger 为默认实现）
type MarketLedger interface {
	// CreateEvent 创建赛事
	CreateEvent(eventName string) error
	// AddOutcomes 添加选项（集合语义）
	AddOutcomes(eventName string, outcomeNames []string) error
	// PlaceBet 下注
	PlaceBet(eventName, outcomeName string, bet model.Bet) error
	// ResolveMarket 结算并返回派彩
	ResolveMarket(eventName, winningOutcome string) (*model.Resolution, error)
	// GetCurrentOutcomePrice 选项当前价格
	GetCurrentOutcomePrice(eventName, outcomeName string) (float64, error)
	// OutcomePrices 赛事全部选项价格
	OutcomePrices(eventName string) (*model.MarketPrices, error)
	// Event 单个赛事快照
	Event(eventName string) (*model.Event, error)
	// Snapshot 全市场快照
	Snapshot() []model.Event
}
