package http

import (
	"net/http"
	"sort"

	"budgie/internal/core"
	"budgie/internal/event"
	"budgie/internal/ledger"
	"budgie/internal/planning"
	"budgie/internal/schedule"
	"budgie/internal/services"
)

// asOf resolves the "date" query parameter, defaulting to today.
func (s *Server) asOf(r *http.Request) (core.Date, error) {
	today, err := s.today()
	if err != nil {
		return core.Date{}, err
	}
	return ParseDateQuery(r.URL.Query(), "date", today)
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	s.serveProjection(w, r, "accounts", func(events []event.Event) (any, error) {
		return map[string]any{"accounts": nonNil(ledger.Accounts(events))}, nil
	})
}

type balancesResponse struct {
	AsOf     core.Date             `json:"asOf"`
	Balances map[string]AmountJSON `json:"balances"`
	Total    AmountJSON            `json:"total"`
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.asOf(r)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	s.serveProjection(w, r, "balances|"+asOf.String(), func(events []event.Event) (any, error) {
		balances, err := ledger.Balances(events, asOf)
		if err != nil {
			return nil, err
		}
		return balancesResponse{
			AsOf:     asOf,
			Balances: amountsJSON(balances),
			Total:    amountJSON(ledger.TotalBalance(balances)),
		}, nil
	})
}

type transactionJSON struct {
	Date    core.Date             `json:"date"`
	Amount  AmountJSON            `json:"amount"`
	Items   map[string]AmountJSON `json:"items"`
	Memo    string                `json:"memo"`
	Balance AmountJSON            `json:"balance"`
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	// Matched exactly against the log; names written by other clients are
	// not normalized.
	account := r.PathValue("name")
	s.serveProjection(w, r, "transactions|"+account, func(events []event.Event) (any, error) {
		entries, err := ledger.Transactions(events, account)
		if err != nil {
			return nil, err
		}
		out := make([]transactionJSON, len(entries))
		for i, e := range entries {
			out[i] = transactionJSON{
				Date:    e.Date,
				Amount:  amountJSON(e.Amount()),
				Items:   amountsJSON(e.ItemizedAmounts),
				Memo:    e.Memo,
				Balance: amountJSON(e.Balance),
			}
		}
		return map[string]any{"account": account, "transactions": out}, nil
	})
}

type targetJSON struct {
	Name     string       `json:"name"`
	Cadence  core.Cadence `json:"cadence"`
	Priority int          `json:"priority"`
	Current  *AmountJSON  `json:"current"`
	Values   []valueJSON  `json:"values"`
}

type valueJSON struct {
	Effective core.Date   `json:"effective"`
	Amount    *AmountJSON `json:"amount"`
}

func optionalAmount(m *core.Money) *AmountJSON {
	if m == nil {
		return nil
	}
	a := amountJSON(*m)
	return &a
}

func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.asOf(r)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	s.serveProjection(w, r, "targets|"+asOf.String(), func(events []event.Event) (any, error) {
		targets := schedule.Registry(events).All()
		out := make([]targetJSON, len(targets))
		for i, t := range targets {
			values := make([]valueJSON, len(t.Values))
			for j, v := range t.Values {
				values[j] = valueJSON{Effective: v.Effective, Amount: optionalAmount(v.Amount)}
			}
			out[i] = targetJSON{
				Name:     t.Name,
				Cadence:  t.Cadence,
				Priority: t.Priority,
				Current:  optionalAmount(t.Current(asOf)),
				Values:   values,
			}
		}
		return map[string]any{"asOf": asOf, "targets": out}, nil
	})
}

type budgetJSON struct {
	Target   string       `json:"target"`
	Cadence  core.Cadence `json:"cadence"`
	Priority int          `json:"priority"`
	Current  *AmountJSON  `json:"current"`
	Accrued  AmountJSON   `json:"accrued"`
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.asOf(r)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	s.serveProjection(w, r, "budgets|"+asOf.String(), func(events []event.Event) (any, error) {
		budgets, err := planning.Budgets(events, asOf)
		if err != nil {
			return nil, err
		}
		out := make([]budgetJSON, 0, len(budgets))
		for name, b := range budgets {
			out = append(out, budgetJSON{
				Target:   name,
				Cadence:  b.Cadence,
				Priority: b.Priority,
				Current:  optionalAmount(b.Current(asOf)),
				Accrued:  amountJSON(b.Accrued),
			})
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Priority != out[j].Priority {
				return out[i].Priority < out[j].Priority
			}
			return out[i].Target < out[j].Target
		})
		return map[string]any{"asOf": asOf, "budgets": out}, nil
	})
}

type runwayResponse struct {
	AsOf     core.Date             `json:"asOf"`
	Targets  map[string]*core.Date `json:"targets"`
	Earliest *core.Date            `json:"earliest"`
	Weeks    *int                  `json:"weeks"`
}

func (s *Server) handleRunway(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.asOf(r)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	s.serveProjection(w, r, "runway|"+asOf.String(), func(events []event.Event) (any, error) {
		runway, err := planning.Runway(events, asOf)
		if err != nil {
			return nil, err
		}
		resp := runwayResponse{AsOf: asOf, Targets: runway}
		if earliest, ok := planning.EarliestRunway(runway); ok {
			weeks := planning.WeeksBetween(asOf, earliest)
			resp.Earliest, resp.Weeks = &earliest, &weeks
		}
		return resp, nil
	})
}

// handleRunwayTrend samples from "from" (default: earliest transaction) to
// "to" (default: today).
func (s *Server) handleRunwayTrend(w http.ResponseWriter, r *http.Request) {
	today, err := s.today()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	query := r.URL.Query()
	from, err := ParseOptionalDateQuery(query, "from")
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	to, err := ParseDateQuery(query, "to", today)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}

	key := "trend|-|" + to.String()
	if from != nil {
		key = "trend|" + from.String() + "|" + to.String()
	}
	s.serveProjection(w, r, key, func(events []event.Event) (any, error) {
		start := from
		if start == nil {
			if earliest, ok := event.EarliestTransactionDate(events); ok {
				start = &earliest
			}
		}
		points := []planning.TrendPoint{}
		if start != nil {
			p, err := planning.RunwayTrend(events, *start, to)
			if err != nil {
				return nil, err
			}
			points = append(points, p...)
		}
		return map[string]any{"from": start, "to": to, "points": points}, nil
	})
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.asOf(r)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	s.serveProjection(w, r, "rate|"+asOf.String(), func(events []event.Event) (any, error) {
		rate, err := planning.ProjectedSpendingRate(events, asOf)
		if err != nil {
			return nil, err
		}
		return map[string]any{"asOf": asOf, "monthly": amountJSON(rate)}, nil
	})
}

// handleExpenses totals debits per itemization key over [from, to]. The
// window defaults to the year ending today.
func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	today, err := s.today()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	query := r.URL.Query()
	to, err := ParseDateQuery(query, "to", today)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	from, err := ParseDateQuery(query, "from", to.AddYears(-1))
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	if from.After(to) {
		s.badRequest(w, r, core.ErrInvalidDate)
		return
	}
	s.serveProjection(w, r, "expenses|"+from.String()+"|"+to.String(), func(events []event.Event) (any, error) {
		return map[string]any{
			"from":        from,
			"to":          to,
			"expenses":    amountsJSON(ledger.HistoricalExpenses(events, from, to)),
			"monthlyRate": amountJSON(planning.HistoricalExpenseRate(events, from, to)),
		}, nil
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.asOf(r)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}
	s.serveProjection(w, r, "snapshot|"+asOf.String(), func(events []event.Event) (any, error) {
		return services.BuildSnapshot(events, asOf)
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
