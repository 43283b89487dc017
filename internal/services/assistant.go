// Package services holds the assistant that turns chat messages into ledger
// operations and replies.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"carteira/internal/cache"
	"carteira/internal/classify"
	"carteira/internal/core"
	"carteira/internal/ledger"
	"carteira/internal/llm"
	"carteira/internal/log"
	"carteira/internal/parser"
	"carteira/internal/reply"
)

// Mode selects the intent taxonomy used for messages that are not a
// directly parsed transaction.
type Mode string

const (
	ModeIntent  Mode = "intent"
	ModeContext Mode = "context"
)

const (
	userCacheSize = 100
	userCacheTTL  = 30 * time.Minute
)

const answerSystem = "Você é um assistente financeiro pessoal. Responda em português do Brasil, de forma objetiva, em no máximo três frases."

// ChartRenderer draws the weekly expense charts and returns their file paths.
type ChartRenderer interface {
	Weekly(owner string, expenses []core.Transaction) (weekdays, share string, err error)
}

// Deps are the collaborators of an Assistant. Backend, Categorizer and
// Intents are required.
type Deps struct {
	Backend      ledger.Backend
	Transactions *TransactionService
	Categorizer  *classify.Categorizer
	Intents      *classify.IntentClassifier
	Charts       ChartRenderer
	// Remote answers general questions; nil answers with a fixed text.
	Remote    llm.Completer
	UserCache *cache.LRUCache[core.User]
	Mode      Mode
	Now       func() time.Time
	Logger    *log.Logger
}

type Assistant struct {
	backend      ledger.Backend
	transactions *TransactionService
	categorizer  *classify.Categorizer
	intents      *classify.IntentClassifier
	charts       ChartRenderer
	remote       llm.Completer
	users        *cache.LRUCache[core.User]
	mode         Mode
	now          func() time.Time
	logger       *log.Logger

	locks sync.Map // owner -> *sync.Mutex
}

func NewAssistant(d Deps) *Assistant {
	if d.Logger == nil {
		d.Logger = log.Discard()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Transactions == nil {
		d.Transactions = NewTransactionService(d.Backend, nil, d.Logger)
	}
	if d.Remote == nil {
		d.Remote = llm.Disabled{}
	}
	if d.UserCache == nil {
		d.UserCache = cache.NewLRUCache[core.User](userCacheSize, userCacheTTL, d.Now)
	}
	if d.Mode == "" {
		d.Mode = ModeIntent
	}
	return &Assistant{
		backend:      d.Backend,
		transactions: d.Transactions,
		categorizer:  d.Categorizer,
		intents:      d.Intents,
		charts:       d.Charts,
		remote:       d.Remote,
		users:        d.UserCache,
		mode:         d.Mode,
		now:          d.Now,
		logger:       d.Logger.WithComponent(log.ComponentAssistant),
	}
}

func (a *Assistant) lock(owner string) func() {
	m, _ := a.locks.LoadOrStore(owner, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Reply answers one inbound message from sender and remembers the exchange
// in the sender's context. Messages from the same sender are handled one at
// a time.
func (a *Assistant) Reply(ctx context.Context, sender, text string) reply.Reply {
	defer a.lock(sender)()

	var r reply.Reply
	if a.mode == ModeContext {
		r = a.Assist(ctx, sender, text)
	} else {
		r = a.Handle(ctx, sender, text)
	}
	a.remember(ctx, sender, text, r)
	return r
}

// Handle is the chat path: a parsed transaction is recorded, anything else
// goes through the chat intent taxonomy.
func (a *Assistant) Handle(ctx context.Context, owner, text string) reply.Reply {
	if p, ok := parser.Parse(text); ok && p.Confident() {
		return a.record(ctx, owner, p)
	}

	in := a.intents.Classify(ctx, text)
	a.logger.InfoContext(ctx, "Intent classified", log.FieldSender, owner, log.FieldIntent, string(in))

	now := a.now()
	d := reply.Data{Week: core.WeekOf(now), Month: core.MonthOf(now)}
	switch in {
	case core.IntentWeeklySummary:
		d.WeekIncome = a.rangeSum(ctx, owner, core.Income, d.Week)
		d.WeekExpense = a.rangeSum(ctx, owner, core.Expense, d.Week)
	case core.IntentBiggestExpense, core.IntentFinancialTip:
		expenses := ledger.Filter(a.list(ctx, owner), core.Expense, d.Week)
		d.WeekExpenses = ledger.GroupBy(expenses, ledger.ByDescription)
	case core.IntentMonthlyIncome:
		income := ledger.Filter(a.list(ctx, owner), core.Income, d.Month)
		d.MonthIncome = ledger.Total(income)
		d.MonthIncomeCount = len(income)
	case core.IntentWeeklyChart:
		return a.weeklyCharts(ctx, owner, d.Week)
	}
	return reply.Compose(in, d)
}

// Assist is the context-aware path using the assistant taxonomy and the
// sender's recent interactions.
func (a *Assistant) Assist(ctx context.Context, owner, text string) reply.Reply {
	user := a.UserContext(ctx, owner)
	in := a.intents.ClassifyAssistant(ctx, text, user.RecentInteractions)
	a.logger.InfoContext(ctx, "Assistant intent classified", log.FieldSender, owner, log.FieldIntent, string(in))

	now := a.now()
	d := reply.Data{Week: core.WeekOf(now), Month: core.MonthOf(now)}
	switch in {
	case core.AssistTransactionRecord:
		if p, ok := parser.Parse(text); ok && p.Confident() {
			return a.record(ctx, owner, p)
		}
	case core.AssistBalanceQuery:
		a.balanceData(ctx, owner, &d)
	case core.AssistExpenseSummary:
		expenses := ledger.Filter(a.list(ctx, owner), core.Expense, d.Month)
		d.MonthExpense = ledger.Total(expenses)
		d.MonthCategories = ledger.GroupBy(expenses, ledger.ByCategory)
	case core.AssistGeneralQuestion:
		d.Answer = a.answer(ctx, text)
	}
	return reply.ComposeAssistant(in, d)
}

func (a *Assistant) record(ctx context.Context, owner string, p parser.Parsed) reply.Reply {
	tx := core.Transaction{
		Type:        p.Type,
		Amount:      p.Amount,
		Description: p.Description,
		Timestamp:   a.now(),
	}
	tx.Category = a.categorizer.Categorize(ctx, tx)

	saved, err := a.transactions.Record(ctx, owner, tx)
	if err != nil {
		a.logger.LogError(ctx, "Failed to record transaction", err, log.OpRecord, log.FieldSender, owner)
		return reply.Text{Body: reply.MsgSaveError}
	}
	return reply.Confirmation(saved)
}

func (a *Assistant) weeklyCharts(ctx context.Context, owner string, week core.Period) reply.Reply {
	expenses := ledger.Filter(a.list(ctx, owner), core.Expense, week)
	if len(expenses) == 0 {
		return reply.Text{Body: reply.MsgNoChartData}
	}
	if a.charts == nil {
		return reply.Text{Body: reply.MsgChartError}
	}
	weekdays, share, err := a.charts.Weekly(owner, expenses)
	if err != nil {
		a.logger.LogError(ctx, "Failed to render charts", err, log.OpRender, log.FieldSender, owner)
		return reply.Text{Body: reply.MsgChartError}
	}
	return reply.Compose(core.IntentWeeklyChart, reply.Data{ChartWeekdays: weekdays, ChartShare: share})
}

// balanceData fills the balance and the month totals concurrently. A failed
// read leaves its value at zero.
func (a *Assistant) balanceData(ctx context.Context, owner string, d *reply.Data) {
	var balance, income, expense decimal.Decimal
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		balance, err = ledger.Balance(gctx, a.backend, owner)
		return err
	})
	g.Go(func() (err error) {
		income, err = a.backend.RangeSum(gctx, owner, core.Income, d.Month.Start, d.Month.End)
		return err
	})
	g.Go(func() (err error) {
		expense, err = a.backend.RangeSum(gctx, owner, core.Expense, d.Month.Start, d.Month.End)
		return err
	})
	if err := g.Wait(); err != nil {
		a.logger.LogError(ctx, "Failed to read balance", err, log.OpRead, log.FieldSender, owner)
	}
	d.Balance, d.MonthIncome, d.MonthExpense = balance, income, expense
}

func (a *Assistant) answer(ctx context.Context, question string) string {
	text, err := a.remote.Complete(ctx, answerSystem, question)
	if err != nil {
		if !errors.Is(err, llm.ErrDisabled) {
			a.logger.WarnContext(ctx, "General question not answered", log.FieldError, err)
		}
		return ""
	}
	return text
}

// list degrades a read failure to an empty ledger.
func (a *Assistant) list(ctx context.Context, owner string) []core.Transaction {
	txs, err := a.backend.ListByOwner(ctx, owner)
	if err != nil {
		a.logger.LogError(ctx, "Failed to list transactions", err, log.OpList, log.FieldSender, owner)
		return nil
	}
	return txs
}

func (a *Assistant) rangeSum(ctx context.Context, owner string, typ core.TransactionType, p core.Period) decimal.Decimal {
	sum, err := a.backend.RangeSum(ctx, owner, typ, p.Start, p.End)
	if err != nil {
		a.logger.LogError(ctx, "Failed to sum transactions", err, log.OpRead, log.FieldSender, owner)
		return decimal.Zero
	}
	return sum
}

// UserContext returns the sender's user record, creating it on first
// contact. Read failures yield a fresh, unsaved user.
func (a *Assistant) UserContext(ctx context.Context, owner string) core.User {
	if u, ok := a.users.Get(owner); ok {
		return u
	}
	u, err := a.backend.GetUser(ctx, owner)
	switch {
	case err == nil:
	case errors.Is(err, core.ErrNotFound):
		u = core.NewUser(owner, a.now())
		if err := a.backend.SaveUser(ctx, u); err != nil {
			a.logger.LogError(ctx, "Failed to create user", err, log.OpRecord, log.FieldSender, owner)
			return u
		}
		a.logger.InfoContext(ctx, "New user", log.FieldSender, owner)
	default:
		a.logger.LogError(ctx, "Failed to load user", err, log.OpRead, log.FieldSender, owner)
		return core.NewUser(owner, a.now())
	}
	a.users.Set(owner, u)
	return u
}

func (a *Assistant) remember(ctx context.Context, owner, text string, r reply.Reply) {
	u := a.UserContext(ctx, owner)
	u.Remember(core.Interaction{Message: text, Reply: reply.Plain(r), At: a.now()})
	if err := a.backend.SaveUser(ctx, u); err != nil {
		a.logger.LogError(ctx, "Failed to save user context", err, log.OpRecord, log.FieldSender, owner)
		a.users.Delete(owner)
		return
	}
	a.users.Set(owner, u)
}

// AddCategory adds a category to the store and drops the cached set so the
// next classification sees it.
func (a *Assistant) AddCategory(ctx context.Context, typ core.TransactionType, name string) error {
	if err := a.backend.AddCategory(ctx, typ, name); err != nil {
		return fmt.Errorf("add category: %w", err)
	}
	a.categorizer.Invalidate()
	return nil
}
