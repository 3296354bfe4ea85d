package ledger

import (
	"errors"
	"fmt"
)

// 错误类别哨兵，配合 errors.Is 使用
var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrDegenerateState = errors.New("degenerate market state")
	ErrConflict        = errors.New("conflict")
)

// NotFoundError 引用的赛事或选项不存在
type NotFoundError struct {
	Kind  string // "event" / "outcome"
	Name  string
	Event string // Kind 为 outcome 时所属赛事
}

func (e *NotFoundError) Error() string {
	if e.Kind == "outcome" {
		return fmt.Sprintf("Outcome '%s' does not exist for event '%s'.", e.Name, e.Event)
	}
	return fmt.Sprintf("Event '%s' does not exist.", e.Name)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ValidationError 入参不合法
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// DegenerateStateError 分母为零：结算时获胜选项无人下注，或询价时赛事无任何下注
type DegenerateStateError struct {
	Event  string
	Reason string
}

func (e *DegenerateStateError) Error() string {
	return fmt.Sprintf("event '%s': %s", e.Event, e.Reason)
}

func (e *DegenerateStateError) Is(target error) bool { return target == ErrDegenerateState }

// ConflictError 重复创建同名赛事
type ConflictError struct {
	Event string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("Event '%s' already exists.", e.Event)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

func eventNotFound(name string) error {
	return &NotFoundError{Kind: "event", Name: name}
}

func outcomeNotFound(event, outcome string) error {
	return &NotFoundError{Kind: "outcome", Name: outcome, Event: event}
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
