// Package ledger 实现同注分彩（pari-mutuel）预测市场账本：赛事、选项、注单的记账与结算。
//
// Ledger 是进程内唯一的状态持有者，所有写操作在写锁内完成“校验 -> 修改”，
// 读操作持读锁，保证不会观察到只更新了一半的下注。
package ledger

import (
	"math"
	"sync"
	"time"

	"PariMarket/internal/model"
)

// event 赛事内部记录，不对外暴露指针
type event struct {
	name           string
	outcomes       []string
	outcomeSet     map[string]struct{}
	participants   []string
	participantSet map[string]struct{}
	pools          map[string][]model.Bet
	poolsTotal     map[string]float64
	total          float64
	createdAt      time.Time

	// 首次结算后置位，之后拒绝新的下注与选项
	resolved       bool
	winningOutcome string
	resolvedAt     time.Time
}

func newEvent(name string, now time.Time) *event {
	return &event{
		name:           name,
		outcomeSet:     make(map[string]struct{}),
		participantSet: make(map[string]struct{}),
		pools:          make(map[string][]model.Bet),
		poolsTotal:     make(map[string]float64),
		createdAt:      now,
	}
}

func (e *event) hasOutcome(name string) bool {
	_, ok := e.outcomeSet[name]
	return ok
}

// Ledger 市场账本：赛事名 -> 赛事记录
type Ledger struct {
	mu     sync.RWMutex
	events map[string]*event
	order  []string // 赛事创建顺序
	now    func() time.Time
}

// Option 账本构造选项
type Option func(*Ledger)

// WithClock 替换时间源（测试用）
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// New 创建空账本
func New(opts ...Option) *Ledger {
	l := &Ledger{
		events: make(map[string]*event),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CreateEvent 创建一个空赛事。同名赛事已存在时返回 ConflictError，不覆盖也不合并
func (l *Ledger) CreateEvent(eventName string) error {
	if eventName == "" {
		return invalid("eventName", "must be a non-empty string")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.events[eventName]; ok {
		return &ConflictError{Event: eventName}
	}
	l.events[eventName] = newEvent(eventName, l.now())
	l.order = append(l.order, eventName)
	return nil
}

// AddOutcomes 为赛事添加选项，已存在的选项（含本次调用内重复项）直接忽略
func (l *Ledger) AddOutcomes(eventName string, outcomeNames []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ev, ok := l.events[eventName]
	if !ok {
		return eventNotFound(eventName)
	}
	if outcomeNames == nil {
		return invalid("outcomes", "must be an array")
	}
	for _, name := range outcomeNames {
		if name == "" {
			return invalid("outcomes", "must contain non-empty strings")
		}
	}
	if ev.resolved {
		return invalid("eventName", "refers to a resolved event")
	}

	for _, name := range outcomeNames {
		if ev.hasOutcome(name) {
			continue
		}
		ev.outcomeSet[name] = struct{}{}
		ev.outcomes = append(ev.outcomes, name)
	}
	return nil
}

// PlaceBet 在赛事的某个选项上记一笔下注。同一参与者的多次下注各自独立记录
func (l *Ledger) PlaceBet(eventName, outcomeName string, bet model.Bet) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ev, ok := l.events[eventName]
	if !ok {
		return eventNotFound(eventName)
	}
	if !ev.hasOutcome(outcomeName) {
		return outcomeNotFound(eventName, outcomeName)
	}
	if bet.Participant == "" {
		return invalid("participant", "must be a non-empty string")
	}
	if err := validateAmount(bet.Amount); err != nil {
		return err
	}
	if ev.resolved {
		return invalid("eventName", "refers to a resolved event")
	}
	// poolsTotal 不超过 total，只需检查 total 是否溢出
	if math.IsInf(ev.total+bet.Amount, 0) {
		return invalid("amount", "overflows the event total")
	}

	if bet.PlacedAt.IsZero() {
		bet.PlacedAt = l.now()
	}
	if _, seen := ev.participantSet[bet.Participant]; !seen {
		ev.participantSet[bet.Participant] = struct{}{}
		ev.participants = append(ev.participants, bet.Participant)
	}
	ev.pools[outcomeName] = append(ev.pools[outcomeName], bet)
	ev.poolsTotal[outcomeName] += bet.Amount
	ev.total += bet.Amount
	return nil
}

func validateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return invalid("amount", "must be a finite number")
	}
	if amount <= 0 {
		return invalid("amount", "must be greater than zero")
	}
	return nil
}

// ResolveMarket 以 winningOutcome 结算赛事并返回派彩。
//
// 押中者先取回本金，其余选项的资金按押中金额占比分给押中者；未押中的参与者派彩为 0。
// 首次成功结算会锁定赛事（记录获胜选项），重复调用仍基于当前资金池重新计算。
func (l *Ledger) ResolveMarket(eventName, winningOutcome string) (*model.Resolution, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ev, ok := l.events[eventName]
	if !ok {
		return nil, eventNotFound(eventName)
	}
	if !ev.hasOutcome(winningOutcome) {
		return nil, outcomeNotFound(eventName, winningOutcome)
	}

	res, err := settle(ev, winningOutcome)
	if err != nil {
		return nil, err
	}
	if !ev.resolved {
		ev.resolved = true
		ev.winningOutcome = winningOutcome
		ev.resolvedAt = l.now()
	}
	return res, nil
}

func settle(ev *event, winner string) (*model.Resolution, error) {
	winPool := ev.poolsTotal[winner]
	if winPool <= 0 {
		return nil, &DegenerateStateError{
			Event:  ev.name,
			Reason: "no bets on winning outcome '" + winner + "'",
		}
	}
	rest := ev.total - winPool

	// 先按参与者汇总押中金额，独占获胜池者恰好拿回 total
	stakes := make(map[string]float64)
	var winners []string
	for _, b := range ev.pools[winner] {
		if _, ok := stakes[b.Participant]; !ok {
			winners = append(winners, b.Participant)
		}
		stakes[b.Participant] += b.Amount
	}

	rewards := make(map[string]float64, len(ev.participants))
	for _, p := range ev.participants {
		rewards[p] = 0
	}
	for _, p := range winners {
		stake := stakes[p]
		rewards[p] = stake + stake/winPool*rest
	}

	return &model.Resolution{
		EventName:      ev.name,
		WinningOutcome: winner,
		Rewards:        rewards,
		TotalAmount:    ev.total,
	}, nil
}

// GetCurrentOutcomePrice 返回选项当前价格 poolsTotal[outcome] / total。赛事尚无下注时返回 DegenerateStateError
func (l *Ledger) GetCurrentOutcomePrice(eventName, outcomeName string) (float64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ev, ok := l.events[eventName]
	if !ok {
		return 0, eventNotFound(eventName)
	}
	if !ev.hasOutcome(outcomeName) {
		return 0, outcomeNotFound(eventName, outcomeName)
	}
	return price(ev, outcomeName)
}

func price(ev *event, outcome string) (float64, error) {
	if ev.total <= 0 {
		return 0, &DegenerateStateError{Event: ev.name, Reason: "no bets placed yet"}
	}
	return ev.poolsTotal[outcome] / ev.total, nil
}

// OutcomePrices 在同一读锁下计算赛事全部选项的价格
func (l *Ledger) OutcomePrices(eventName string) (*model.MarketPrices, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ev, ok := l.events[eventName]
	if !ok {
		return nil, eventNotFound(eventName)
	}
	if ev.total <= 0 {
		return nil, &DegenerateStateError{Event: ev.name, Reason: "no bets placed yet"}
	}
	mp := &model.MarketPrices{
		EventName: eventName,
		Total:     ev.total,
		Prices:    make([]model.PriceQuote, 0, len(ev.outcomes)),
	}
	for _, o := range ev.outcomes {
		p, err := price(ev, o)
		if err != nil {
			return nil, err
		}
		mp.Prices = append(mp.Prices, model.PriceQuote{EventName: eventName, OutcomeName: o, Price: p})
	}
	return mp, nil
}

// Event 返回单个赛事的深拷贝
func (l *Ledger) Event(eventName string) (*model.Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ev, ok := l.events[eventName]
	if !ok {
		return nil, eventNotFound(eventName)
	}
	snap := ev.snapshot()
	return &snap, nil
}

// Snapshot 按创建顺序返回全部赛事的深拷贝
func (l *Ledger) Snapshot() []model.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]model.Event, 0, len(l.order))
	for _, name := range l.order {
		out = append(out, l.events[name].snapshot())
	}
	return out
}

func (e *event) snapshot() model.Event {
	snap := model.Event{
		Name:           e.name,
		Outcomes:       append([]string{}, e.outcomes...),
		Participants:   append([]string{}, e.participants...),
		Pools:          make(map[string][]model.Bet, len(e.pools)),
		PoolsTotal:     make(map[string]float64, len(e.poolsTotal)),
		Total:          e.total,
		Resolved:       e.resolved,
		WinningOutcome: e.winningOutcome,
		CreatedAt:      e.createdAt,
	}
	for o, bets := range e.pools {
		snap.Pools[o] = append([]model.Bet(nil), bets...)
	}
	for o, t := range e.poolsTotal {
		snap.PoolsTotal[o] = t
	}
	if e.resolved {
		at := e.resolvedAt
		snap.ResolvedAt = &at
	}
	return snap
}
