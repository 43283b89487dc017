package reply

import (
	"github.com/shopspring/decimal"

	"carteira/internal/core"
	"carteira/internal/ledger"
)

// Data carries the aggregates a reply may interpolate. Only the fields the
// intent needs are read.
type Data struct {
	Week         core.Period
	WeekIncome   decimal.Decimal
	WeekExpense  decimal.Decimal
	WeekExpenses []ledger.Group // by description, largest first

	Month            core.Period
	MonthIncome      decimal.Decimal
	MonthIncomeCount int
	MonthExpense     decimal.Decimal
	MonthCategories  []ledger.Group

	Balance decimal.Decimal

	// ChartWeekdays and ChartShare are rendered file paths; both empty means
	// there was no data.
	ChartWeekdays string
	ChartShare    string

	// Answer is free text produced for a general question.
	Answer string
}

// Compose renders the reply for a chat intent.
func Compose(in core.Intent, d Data) Reply {
	switch in {
	case core.IntentBiggestExpense:
		return BiggestExpense(d.WeekExpenses)
	case core.IntentWeeklySummary:
		return WeeklySummary(d.Week, d.WeekIncome, d.WeekExpense)
	case core.IntentMonthlyIncome:
		return MonthlyIncome(d.MonthIncome, d.MonthIncomeCount)
	case core.IntentFinancialTip:
		return FinancialTip(d.WeekExpenses)
	case core.IntentWeeklyChart:
		return Charts(d.ChartWeekdays, d.ChartShare)
	case core.IntentRecord:
		return Text{Body: MsgIncomplete}
	case core.IntentDoubt:
		return Text{Body: MsgDoubt}
	default:
		return Text{Body: MsgInvalid}
	}
}

// ComposeAssistant renders the reply for an assistant intent other than a
// transaction record.
func ComposeAssistant(in core.AssistantIntent, d Data) Reply {
	switch in {
	case core.AssistBalanceQuery:
		return Balance(d.Balance, d.MonthIncome, d.MonthExpense)
	case core.AssistExpenseSummary:
		return ExpenseSummary(d.Month, d.MonthExpense, d.MonthCategories)
	case core.AssistHelpRequest:
		return Help()
	case core.AssistGeneralQuestion:
		if d.Answer != "" {
			return Text{Body: d.Answer}
		}
		return Text{Body: MsgDoubt}
	case core.AssistTransactionRecord:
		return Text{Body: MsgIncomplete}
	default:
		return Text{Body: MsgUnknown}
	}
}
