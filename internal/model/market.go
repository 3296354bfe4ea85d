package model

import (
	"time"
)

// Bet 一笔下注：参与者 + 金额。ID 与 PlacedAt 仅作标识，不参与派彩计算
type Bet struct {
	ID          string    `json:"betId,omitempty"`
	Participant string    `json:"participant"`
	Amount      float64   `json:"amount"`
	PlacedAt    time.Time `json:"placedAt"`
}

// Event 单个赛事的只读快照（深拷贝，调用方可随意修改）
type Event struct {
	Name           string             `json:"eventName"`
	Outcomes       []string           `json:"outcomes"`     // 按添加顺序
	Participants   []string           `json:"participants"` // 按首次下注顺序
	Pools          map[string][]Bet   `json:"pools"`        // outcome -> 按下注顺序的注单
	PoolsTotal     map[string]float64 `json:"poolsTotal"`   // outcome -> 该选项累计下注额
	Total          float64            `json:"total"`        // 全部选项累计下注额
	Resolved       bool               `json:"resolved"`
	WinningOutcome string             `json:"winningOutcome,omitempty"` // 首次结算的获胜选项
	CreatedAt      time.Time          `json:"createdAt"`
	ResolvedAt     *time.Time         `json:"resolvedAt,omitempty"`
}

// Resolution 结算结果
type Resolution struct {
	EventName      string             `json:"-"`
	WinningOutcome string             `json:"-"`
	Rewards        map[string]float64 `json:"rewards"`     // 参与者 -> 派彩（未押中者为 0）
	TotalAmount    float64            `json:"totalAmount"` // 赛事总下注额
}

// PriceQuote 单个选项的当前价格（隐含概率）
type PriceQuote struct {
	EventName   string  `json:"eventName"`
	OutcomeName string  `json:"outcomeName"`
	Price       float64 `json:"price"`
}

// MarketPrices 赛事全部选项的价格，按选项添加顺序
type MarketPrices struct {
	EventName string       `json:"eventName"`
	Total     float64      `json:"total"`
	Prices    []PriceQuote `json:"prices"`
}
