package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/kingpin"

	"budgie/internal/core"
	"budgie/internal/export"
	"budgie/internal/planning"
	"budgie/internal/presenter"
	"budgie/internal/schedule"
	"budgie/internal/services"
)

type commandEnv struct {
	service *services.BudgetService
	out     *presenter.Presenter
	today   core.Date
}

type command func(ctx context.Context, env *commandEnv) error

// registerCommands declares the command tree and returns the action for
// each full command name.
func registerCommands(app *kingpin.Application) map[string]command {
	cmds := make(map[string]command)
	add := func(c *kingpin.CmdClause, fn command) { cmds[c.FullCommand()] = fn }

	account := app.Command("account", "Manage accounts.")

	accountCreate := account.Command("create", "Open a new account.")
	accountName := accountCreate.Arg("name", "Account name.").Required().String()
	add(accountCreate, func(ctx context.Context, env *commandEnv) error {
		return env.done(env.service.CreateAccount(ctx, *accountName))
	})

	add(account.Command("balances", "Show every account balance."), showBalances)

	accountTx := account.Command("transactions", "Show an account's history, newest first.")
	txAccount := accountTx.Arg("account", "Account name.").Required().String()
	add(accountTx, func(ctx context.Context, env *commandEnv) error {
		return showTransactions(ctx, env, *txAccount)
	})

	target := app.Command("target", "Manage savings targets.")

	targetCreate := target.Command("create", "Create a target or change its amount.")
	targetName := targetCreate.Arg("name", "Target name.").Required().String()
	targetCadence := targetCreate.Arg("cadence", "weekly, monthly or yearly.").Required().String()
	targetAmount := targetCreate.Arg("amount", "Amount per period, or 'none' to end the schedule.").Required().String()
	targetStart := targetCreate.Flag("start", "First tick (YYYY-MM-DD), defaults to today.").String()
	targetPriority := targetCreate.Flag("priority", "Funding priority, lower first.").Default(fmt.Sprint(core.DefaultPriority)).Int()
	add(targetCreate, func(ctx context.Context, env *commandEnv) error {
		cadence, err := core.ParseCadence(*targetCadence)
		if err != nil {
			return err
		}
		var amount *core.Money
		if !strings.EqualFold(*targetAmount, "none") {
			m, err := core.ParseAmount(*targetAmount)
			if err != nil {
				return err
			}
			amount = &m
		}
		start, err := env.date(*targetStart)
		if err != nil {
			return err
		}
		return env.done(env.service.CreateTarget(ctx, *targetName, amount, cadence, *targetPriority, start))
	})

	add(target.Command("list", "List targets with their rate and balance."), listTargets)

	for _, kind := range []string{"credit", "debit"} {
		c := app.Command(kind, fmt.Sprintf("Record a %s. Amounts are 'N' or 'target=N,...'.", kind))
		acct := c.Arg("account", "Account name.").Required().String()
		amounts := c.Arg("amount", "Amount or itemization.").Required().String()
		memo := c.Arg("memo", "Memo.").String()
		date := c.Arg("date", "Date (YYYY-MM-DD), defaults to today.").String()
		isCredit := kind == "credit"
		add(c, func(ctx context.Context, env *commandEnv) error {
			items, err := core.ParseItemization(*amounts)
			if err != nil {
				return err
			}
			d, err := env.date(*date)
			if err != nil {
				return err
			}
			if isCredit {
				return env.done(env.service.Credit(ctx, *acct, d, items, *memo))
			}
			return env.done(env.service.Debit(ctx, *acct, d, items, *memo))
		})
	}

	transfer := app.Command("transfer", "Move money between accounts.")
	from := transfer.Arg("from", "Source account.").Required().String()
	to := transfer.Arg("to", "Destination account.").Required().String()
	transferAmount := transfer.Arg("amount", "Amount.").Required().String()
	transferDate := transfer.Arg("date", "Date (YYYY-MM-DD), defaults to today.").String()
	add(transfer, func(ctx context.Context, env *commandEnv) error {
		amount, err := core.ParseAmount(*transferAmount)
		if err != nil {
			return err
		}
		d, err := env.date(*transferDate)
		if err != nil {
			return err
		}
		return env.done(env.service.Transfer(ctx, *from, *to, amount, d))
	})

	add(app.Command("budgets", "Show the accrued budget of every target."), showBudgets)

	runway := app.Command("runway", "Show how long the balance lasts.")
	add(runway.Command("current", "Last funded date per target."), showRunway)
	add(runway.Command("trend", "Runway in weeks on the first of every month."), showRunwayTrend)

	add(app.Command("rate", "Projected monthly spending."), func(ctx context.Context, env *commandEnv) error {
		rate, err := env.service.SpendingRate(ctx, env.today)
		if err != nil {
			return err
		}
		return env.out.Println(env.out.Money(rate))
	})

	expenses := app.Command("expenses", "Total debits per target over a period.")
	expFrom := expenses.Flag("from", "First day, defaults to a year before --to.").String()
	expTo := expenses.Flag("to", "Last day, defaults to today.").String()
	add(expenses, func(ctx context.Context, env *commandEnv) error {
		end, err := env.date(*expTo)
		if err != nil {
			return err
		}
		start := end.AddYears(-1)
		if *expFrom != "" {
			if start, err = core.ParseDate(*expFrom); err != nil {
				return err
			}
		}
		return showExpenses(ctx, env, start, end)
	})

	exp := app.Command("export", "Write a budget snapshot as an xlsx workbook.")
	exportPath := exp.Arg("file", "Output file.").Default("budgie.xlsx").String()
	add(exp, func(ctx context.Context, env *commandEnv) error {
		snap, err := env.service.Snapshot(ctx, env.today)
		if err != nil {
			return err
		}
		return env.done(export.FileWriter{Path: *exportPath}.WriteSnapshot(ctx, snap))
	})

	return cmds
}

func (env *commandEnv) done(err error) error {
	if err != nil {
		return err
	}
	return env.out.Println("done!")
}

// date parses s, defaulting to today when empty.
func (env *commandEnv) date(s string) (core.Date, error) {
	if strings.TrimSpace(s) == "" {
		return env.today, nil
	}
	return core.ParseDate(s)
}

func showBalances(ctx context.Context, env *commandEnv) error {
	balances, err := env.service.Balances(ctx, env.today)
	if err != nil {
		return err
	}
	accounts, err := env.service.Accounts(ctx)
	if err != nil {
		return err
	}
	rows := make([]presenter.Row, 0, len(accounts))
	for _, name := range accounts {
		rows = append(rows, presenter.Row{Key: name, Value: env.out.Money(balances[name])})
	}
	return env.out.Ledger("Current balances", rows)
}

func showTransactions(ctx context.Context, env *commandEnv, account string) error {
	entries, err := env.service.Transactions(ctx, account)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		rows = append(rows, []string{
			e.Date.String(),
			env.out.Money(e.Balance),
			env.out.Money(e.Amount()),
			e.Memo,
		})
	}
	return env.out.Table("Transactions for "+account, []presenter.Column{
		{Title: "date"},
		{Title: "balance", Align: presenter.Right},
		{Title: "change", Align: presenter.Right},
		{Title: "memo"},
	}, rows)
}

func latestValue(t schedule.Target) *core.Money {
	if len(t.Values) == 0 {
		return nil
	}
	return t.Values[len(t.Values)-1].Amount
}

func listTargets(ctx context.Context, env *commandEnv) error {
	budgets, err := env.service.Budgets(ctx, env.today)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(budgets))
	for name := range budgets {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		b := budgets[name]
		rows = append(rows, []string{
			name,
			env.out.OptionalMoney(latestValue(b.Target)) + "/" + b.Cadence.Short(),
			env.out.Money(b.Accrued),
		})
	}
	return env.out.Table("Savings targets", []presenter.Column{
		{Title: "target"},
		{Title: "rate", Align: presenter.Right},
		{Title: "balance", Align: presenter.Right},
	}, rows)
}

var cadenceRank = map[core.Cadence]int{
	core.Weekly:  0,
	core.Monthly: 1,
	core.Yearly:  2,
}

// showBudgets lists weekly targets first, then larger amounts first.
func showBudgets(ctx context.Context, env *commandEnv) error {
	budgets, err := env.service.Budgets(ctx, env.today)
	if err != nil {
		return err
	}
	list := make([]planning.TargetBudget, 0, len(budgets))
	for _, b := range budgets {
		list = append(list, b)
	}
	value := func(b planning.TargetBudget) int64 {
		if v := latestValue(b.Target); v != nil {
			return v.Cents
		}
		return 0
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if cadenceRank[a.Cadence] != cadenceRank[b.Cadence] {
			return cadenceRank[a.Cadence] < cadenceRank[b.Cadence]
		}
		if value(a) != value(b) {
			return value(a) > value(b)
		}
		return a.Name < b.Name
	})

	rows := make([]presenter.Row, len(list))
	for i, b := range list {
		rows[i] = presenter.Row{Key: b.Name, Value: env.out.Money(b.Accrued)}
	}
	return env.out.Ledger("Current budgets", rows)
}

func showRunway(ctx context.Context, env *commandEnv) error {
	runway, err := env.service.Runway(ctx, env.today)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(runway))
	for name := range runway {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]presenter.Row, len(names))
	for i, name := range names {
		value := "unfunded"
		if d := runway[name]; d != nil {
			value = d.String()
		}
		rows[i] = presenter.Row{Key: name, Value: value}
	}

	title := "Current runway (unfunded)"
	if earliest, ok := planning.EarliestRunway(runway); ok {
		title = fmt.Sprintf("Current runway (%d weeks)", planning.WeeksBetween(env.today, earliest))
	}
	return env.out.Ledger(title, rows)
}

func showRunwayTrend(ctx context.Context, env *commandEnv) error {
	points, err := env.service.RunwayTrend(ctx, nil, env.today)
	if err != nil {
		return err
	}
	rows := make([]presenter.Row, len(points))
	for i, p := range points {
		rows[i] = presenter.Row{Key: p.Date.String(), Value: fmt.Sprint(p.Weeks)}
	}
	return env.out.Ledger("Runway over time (in weeks)", rows)
}

func showExpenses(ctx context.Context, env *commandEnv, from, to core.Date) error {
	if from.After(to) {
		return fmt.Errorf("%w: --from %s is after --to %s", core.ErrInvalidDate, from, to)
	}
	expenses, err := env.service.HistoricalExpenses(ctx, from, to)
	if err != nil {
		return err
	}
	rate, err := env.service.ExpenseRate(ctx, from, to)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(expenses))
	for k := range expenses {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]presenter.Row, 0, len(keys)+1)
	for _, k := range keys {
		rows = append(rows, presenter.Row{Key: k, Value: env.out.Money(expenses[k])})
	}
	rows = append(rows, presenter.Row{Key: "monthly rate", Value: env.out.Money(rate)})
	return env.out.Ledger(fmt.Sprintf("Expenses %s to %s", from, to), rows)
}
