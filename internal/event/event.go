// Package event defines the budgeting domain events and their wire codec.
//
// Events are facts appended to the log. They are never mutated; every view
// of the budget is derived by folding them in append order.
package event

import (
	"fmt"

	"budgie/internal/core"
)

// Type identifies the type of an event in the persisted record.
type Type string

const (
	TypeCreateAccount Type = "CREATE_ACCOUNT"
	TypeTransact      Type = "TRANSACT"
	TypeTransfer      Type = "TRANSFER"
	TypeCreateTarget  Type = "CREATE_TARGET"
)

// Current schema versions. Older records are upgraded by the migration registry.
const (
	VersionCreateAccount = 1
	VersionTransact      = 2
	VersionTransfer      = 2
	VersionCreateTarget  = 2
)

// Event is the closed set of domain events. Only types in this package
// implement it.
type Event interface {
	Type() Type
	Version() int
	Validate() error
	event()
}

type (
	// CreateAccount opens an account with a zero balance.
	CreateAccount struct {
		AccountName string `json:"accountName"`
	}

	// Transact records an itemized credit (positive) or debit (negative).
	Transact struct {
		AccountName     string           `json:"accountName"`
		Date            core.Date        `json:"date"`
		ItemizedAmounts core.Itemization `json:"itemizedAmounts"`
		Memo            string           `json:"memo"`
	}

	// Transfer moves unallocated money between two accounts.
	Transfer struct {
		SourceAccount      string     `json:"sourceAccount"`
		DestinationAccount string     `json:"destinationAccount"`
		Value              core.Money `json:"value"`
		Date               core.Date  `json:"date"`
	}

	// CreateTarget defines a saving target or amends its value history.
	// A nil TargetValue ends the schedule from StartDate on.
	CreateTarget struct {
		StartDate   core.Date    `json:"startDate"`
		TargetName  string       `json:"targetName"`
		TargetValue *core.Money  `json:"targetValue"`
		Cadence     core.Cadence `json:"cadence"`
		Priority    int          `json:"priority"`
	}
)

func (CreateAccount) Type() Type { return TypeCreateAccount }
func (Transact) Type() Type      { return TypeTransact }
func (Transfer) Type() Type      { return TypeTransfer }
func (CreateTarget) Type() Type  { return TypeCreateTarget }

func (CreateAccount) Version() int { return VersionCreateAccount }
func (Transact) Version() int      { return VersionTransact }
func (Transfer) Version() int      { return VersionTransfer }
func (CreateTarget) Version() int  { return VersionCreateTarget }

func (CreateAccount) event() {}
func (Transact) event()      {}
func (Transfer) event()      {}
func (CreateTarget) event()  {}

func (e CreateAccount) Validate() error {
	return core.ValidateName("account", e.AccountName)
}

func (e Transact) Validate() error {
	if err := core.ValidateName("account", e.AccountName); err != nil {
		return err
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	return e.ItemizedAmounts.Validate()
}

func (e Transfer) Validate() error {
	if err := core.ValidateName("source account", e.SourceAccount); err != nil {
		return err
	}
	if err := core.ValidateName("destination account", e.DestinationAccount); err != nil {
		return err
	}
	if e.SourceAccount == e.DestinationAccount {
		return fmt.Errorf("transfer source and destination are both %q", e.SourceAccount)
	}
	if e.Value.Cents <= 0 {
		return fmt.Errorf("%w: transfer value must be positive", core.ErrInvalidAmount)
	}
	return e.Date.Validate()
}

func (e CreateTarget) Validate() error {
	if err := core.ValidateName("target", e.TargetName); err != nil {
		return err
	}
	if e.TargetName == core.Unallocated {
		return fmt.Errorf("target name %q is reserved", core.Unallocated)
	}
	if err := e.StartDate.Validate(); err != nil {
		return err
	}
	if err := e.Cadence.Validate(); err != nil {
		return fmt.Errorf("%w: %q", err, e.Cadence)
	}
	if e.TargetValue != nil && e.TargetValue.IsNegative() {
		return fmt.Errorf("%w: target value must not be negative", core.ErrInvalidAmount)
	}
	return core.ValidatePriority(e.Priority)
}

// EarliestTransactionDate returns the earliest Transact date in the log.
func EarliestTransactionDate(events []Event) (core.Date, bool) {
	var earliest core.Date
	found := false
	for _, e := range events {
		if t, ok := e.(Transact); ok {
			if !found || t.Date.Before(earliest) {
				earliest = t.Date
				found = true
			}
		}
	}
	return earliest, found
}
