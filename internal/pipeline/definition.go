package pipeline

import (
	"fmt"
)

// Definition is the on-disk form of one instance: everything a create
// call needs.
type Definition struct {
	Owner        string        `json:"owner" yaml:"owner"`
	Class        string        `json:"class" yaml:"class"`
	Mutable      bool          `json:"mutable,omitempty" yaml:"mutable,omitempty"`
	Schedule     ScheduleDef   `json:"schedule" yaml:"schedule"`
	Policy       string        `json:"policy,omitempty" yaml:"policy,omitempty"`
	RefundAssets []string      `json:"refund_assets,omitempty" yaml:"refund_assets,omitempty"`
	RefundTo     string        `json:"refund_to,omitempty" yaml:"refund_to,omitempty"`
	Steps        []StepDef     `json:"steps" yaml:"steps"`
}

// ScheduleDef is the on-disk schedule.
type ScheduleDef struct {
	Trigger  string `json:"trigger" yaml:"trigger"`
	Cooldown uint64 `json:"cooldown,omitempty" yaml:"cooldown,omitempty"`
}

// StepDef is one on-disk pipeline step.
type StepDef struct {
	Conditions []ConditionDef `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Task       TaskDef        `json:"task" yaml:"task"`
	OnError    string         `json:"on_error,omitempty" yaml:"on_error,omitempty"`
}

// TaskDef is the flattened on-disk task: a kind plus the parameter
// fields that kind uses. Fields belonging to other kinds must stay
// unset; the compiler checks presence per kind.
type TaskDef struct {
	Kind string `json:"kind" yaml:"kind"`

	Asset  string `json:"asset,omitempty" yaml:"asset,omitempty"`
	To     string `json:"to,omitempty" yaml:"to,omitempty"`
	Amount uint64 `json:"amount,omitempty" yaml:"amount,omitempty"`
	All    bool   `json:"all,omitempty" yaml:"all,omitempty"`

	Parts []SplitPartDef `json:"parts,omitempty" yaml:"parts,omitempty"`

	AssetIn      string `json:"asset_in,omitempty" yaml:"asset_in,omitempty"`
	AssetOut     string `json:"asset_out,omitempty" yaml:"asset_out,omitempty"`
	AmountIn     uint64 `json:"amount_in,omitempty" yaml:"amount_in,omitempty"`
	AmountOut    uint64 `json:"amount_out,omitempty" yaml:"amount_out,omitempty"`
	MinAmountOut uint64 `json:"min_amount_out,omitempty" yaml:"min_amount_out,omitempty"`
	MaxAmountIn  uint64 `json:"max_amount_in,omitempty" yaml:"max_amount_in,omitempty"`

	AssetA  string `json:"asset_a,omitempty" yaml:"asset_a,omitempty"`
	AssetB  string `json:"asset_b,omitempty" yaml:"asset_b,omitempty"`
	AmountA uint64 `json:"amount_a,omitempty" yaml:"amount_a,omitempty"`
	AmountB uint64 `json:"amount_b,omitempty" yaml:"amount_b,omitempty"`
	Shares  uint64 `json:"shares,omitempty" yaml:"shares,omitempty"`
}

// SplitPartDef is one weighted split recipient.
type SplitPartDef struct {
	To     string `json:"to" yaml:"to"`
	Weight uint32 `json:"weight" yaml:"weight"`
}

// ConditionDef is the flattened on-disk condition.
type ConditionDef struct {
	Kind string `json:"kind" yaml:"kind"`

	Asset  string `json:"asset,omitempty" yaml:"asset,omitempty"`
	Amount uint64 `json:"amount,omitempty" yaml:"amount,omitempty"`

	AssetIn  string `json:"asset_in,omitempty" yaml:"asset_in,omitempty"`
	AssetOut string `json:"asset_out,omitempty" yaml:"asset_out,omitempty"`
	AmountIn uint64 `json:"amount_in,omitempty" yaml:"amount_in,omitempty"`
	Limit    uint64 `json:"limit,omitempty" yaml:"limit,omitempty"`

	At uint64 `json:"at,omitempty" yaml:"at,omitempty"`
}

// DefinitionError is a compile failure with field context.
type DefinitionError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *DefinitionError) Error() string {
	return fmt.Sprintf("definition: %s: %s", e.Field, e.Message)
}

func defErr(field, format string, args ...any) *DefinitionError {
	return &DefinitionError{Field: field, Message: fmt.Sprintf(format, args...)}
}
