package http

import (
	"fmt"
	"net/http"
	"strings"

	"budgie/internal/core"
	"budgie/internal/event"
	applog "budgie/internal/log"
)

// parseCommand reads the body of a command and resolves today for dates.
func (s *Server) parseCommand(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, core.Date, bool) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.badRequest(w, r, err)
		return nil, core.Date{}, false
	}
	today, err := s.today()
	if err != nil {
		s.fail(w, r, err)
		return nil, core.Date{}, false
	}
	return p, today, true
}

func (s *Server) appended(w http.ResponseWriter, r *http.Request, t event.Type, fields applog.LogFields) {
	applog.FromContext(r.Context()).DebugContext(r.Context(), "Command accepted",
		append(fields.ToSlice(), applog.FieldEventType, string(t), applog.FieldPath, r.URL.Path)...)
	NewJSONResponse().Status(http.StatusCreated).JSON(map[string]string{
		"status": "appended",
		"type":   string(t),
	}).Write(w)
}

// handleCreateAccount expects {"name": "..."}.
func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	p, _, ok := s.parseCommand(w, r)
	if !ok {
		return
	}
	name, err := p.Required("name")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	if err := s.service.CreateAccount(r.Context(), name); err != nil {
		s.fail(w, r, err)
		return
	}
	s.appended(w, r, event.TypeCreateAccount, applog.NewFields().WithAccount(name))
}

// handleTransact expects {"account", "kind": "credit"|"debit", "amounts",
// "date"?, "memo"?}. Debit amounts are given positive.
func (s *Server) handleTransact(w http.ResponseWriter, r *http.Request) {
	p, today, ok := s.parseCommand(w, r)
	if !ok {
		return
	}
	account, err := p.Required("account")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	amounts, err := p.Itemization("amounts")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	date, err := p.Date("date", today)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	memo := p.Get("memo")

	switch kind := strings.ToLower(p.Get("kind")); kind {
	case "credit":
		err = s.service.Credit(r.Context(), account, date, amounts, memo)
	case "debit", "":
		err = s.service.Debit(r.Context(), account, date, amounts, memo)
	default:
		s.badRequest(w, r, fmt.Errorf("kind must be credit or debit, got %q", kind))
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.appended(w, r, event.TypeTransact, applog.NewFields().WithAccount(account).WithAmount(amounts.Total().Cents))
}

// handleTransfer expects {"from", "to", "amount", "date"?}.
func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	p, today, ok := s.parseCommand(w, r)
	if !ok {
		return
	}
	from, err := p.Required("from")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	to, err := p.Required("to")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	amount, err := p.Amount("amount")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	date, err := p.Date("date", today)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	if err := s.service.Transfer(r.Context(), from, to, amount, date); err != nil {
		s.fail(w, r, err)
		return
	}
	s.appended(w, r, event.TypeTransfer, applog.NewFields().WithAccount(from).WithAmount(amount.Cents))
}

// handleCreateTarget expects {"name", "amount" (null ends the schedule),
// "cadence", "priority"?, "start"?}.
func (s *Server) handleCreateTarget(w http.ResponseWriter, r *http.Request) {
	p, today, ok := s.parseCommand(w, r)
	if !ok {
		return
	}
	name, err := p.Required("name")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	if !p.Has("amount") {
		s.badRequest(w, r, fmt.Errorf("%w: amount is required, use null to end a schedule", core.ErrInvalidAmount))
		return
	}
	amount, err := p.OptionalAmount("amount")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	cadence, err := core.ParseCadence(p.Get("cadence"))
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	priority, err := p.Int("priority", core.DefaultPriority)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	start, err := p.Date("start", today)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	if err := s.service.CreateTarget(r.Context(), name, amount, cadence, priority, start); err != nil {
		s.fail(w, r, err)
		return
	}
	fields := applog.NewFields().WithTarget(name)
	if amount != nil {
		fields = fields.WithAmount(amount.Cents)
	}
	s.appended(w, r, event.TypeCreateTarget, fields)
}
