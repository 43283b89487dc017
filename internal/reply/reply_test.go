package reply

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"carteira/internal/core"
	"carteira/internal/ledger"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestConfirmation(t *testing.T) {
	tx := core.Transaction{
		Type:        core.Expense,
		Amount:      dec("45.9"),
		Description: "no mercado",
		Category:    "Alimentação",
		Timestamp:   time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC),
	}
	body := Confirmation(tx).Body
	for _, want := range []string{"Despesa registrada", "R$ 45.90", "Alimentação", "07/03/2025", "no mercado"} {
		if !strings.Contains(body, want) {
			t.Errorf("Confirmation() = %q, missing %q", body, want)
		}
	}
	if strings.Contains(body, "Dica") {
		t.Errorf("small expense should not get a tip: %q", body)
	}

	tx.Amount = dec("100.01")
	if body := Confirmation(tx).Body; !strings.Contains(body, "💡 *Dica:*") {
		t.Errorf("expense above 100 should get a tip: %q", body)
	}

	tx.Type = core.Income
	tx.Amount = dec("1000")
	tx.Category = "Salário"
	body = Confirmation(tx).Body
	if !strings.Contains(body, "Receita registrada") || strings.Contains(body, "Dica") {
		t.Errorf("income confirmation = %q", body)
	}
}

func TestWeeklySummary(t *testing.T) {
	week := core.WeekOf(time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC))
	body := WeeklySummary(week, dec("200"), dec("150")).Body
	for _, want := range []string{"Saldo: R$ 50.00", "Entradas: R$ 200.00", "Saídas: R$ 150.00", "De: 03/03/2025 até 09/03/2025"} {
		if !strings.Contains(body, want) {
			t.Errorf("WeeklySummary() = %q, missing %q", body, want)
		}
	}
	if body := WeeklySummary(week, dec("10"), dec("25.5")).Body; !strings.Contains(body, "Saldo: R$ -15.50") {
		t.Errorf("negative balance not shown: %q", body)
	}
}

func TestBiggestExpenseAndTip(t *testing.T) {
	groups := []ledger.Group{
		{Label: "mercado", Total: dec("60"), Count: 2},
		{Label: "uber", Total: dec("30"), Count: 3},
		{Label: "cinema", Total: dec("10"), Count: 1},
		{Label: "pão", Total: dec("5"), Count: 1},
	}

	body := BiggestExpense(groups).Body
	if !strings.Contains(body, `"mercado"`) || !strings.Contains(body, "R$ 60.00") || !strings.Contains(body, "2 lançamento(s)") {
		t.Errorf("BiggestExpense() = %q", body)
	}
	if got := BiggestExpense(nil).Body; got != MsgNoWeekExpense {
		t.Errorf("BiggestExpense(nil) = %q", got)
	}

	// top three sum to 100, so the share is 60%
	tip := FinancialTip(groups).Body
	for _, want := range []string{"60.0% das suas saídas", "R$ 30.00", `"mercado"`} {
		if !strings.Contains(tip, want) {
			t.Errorf("FinancialTip() = %q, missing %q", tip, want)
		}
	}
	if got := FinancialTip(nil).Body; got != MsgNoTipData {
		t.Errorf("FinancialTip(nil) = %q", got)
	}
}

func TestCompose(t *testing.T) {
	d := Data{
		MonthIncome:      dec("1500"),
		MonthIncomeCount: 2,
	}
	tests := []struct {
		intent core.Intent
		want   string
	}{
		{core.IntentMonthlyIncome, "Total: *R$ 1500.00*"},
		{core.IntentDoubt, MsgDoubt},
		{core.IntentInvalidCommand, MsgInvalid},
		{core.IntentRecord, MsgIncomplete},
		{core.IntentWeeklyChart, MsgNoChartData},
		{core.Intent("whatever"), MsgInvalid},
	}
	for _, tt := range tests {
		t.Run(string(tt.intent), func(t *testing.T) {
			r, ok := Compose(tt.intent, d).(Text)
			if !ok {
				t.Fatalf("Compose(%s) is not text", tt.intent)
			}
			if !strings.Contains(r.Body, tt.want) {
				t.Errorf("Compose(%s) = %q, want %q", tt.intent, r.Body, tt.want)
			}
		})
	}
}

func TestComposeCharts(t *testing.T) {
	r := Compose(core.IntentWeeklyChart, Data{ChartWeekdays: "/tmp/a.png", ChartShare: "/tmp/b.png"})
	imgs, ok := r.(Images)
	if !ok {
		t.Fatalf("expected images, got %#v", r)
	}
	if len(imgs.Items) != 2 || imgs.Items[0].Caption != CaptionWeekdays || imgs.Items[1].Path != "/tmp/b.png" {
		t.Fatalf("unexpected images %+v", imgs.Items)
	}
	if got := Plain(r); got != CaptionWeekdays+": /tmp/a.png\n"+CaptionShare+": /tmp/b.png" {
		t.Fatalf("Plain() = %q", got)
	}
}

func TestComposeAssistant(t *testing.T) {
	d := Data{
		Balance:      dec("850"),
		MonthIncome:  dec("1000"),
		MonthExpense: dec("150"),
		Month:        core.MonthOf(time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)),
		MonthCategories: []ledger.Group{
			{Label: "Alimentação", Total: dec("100"), Count: 2},
			{Label: "Transporte", Total: dec("50"), Count: 1},
		},
	}
	tests := []struct {
		intent core.AssistantIntent
		want   string
	}{
		{core.AssistBalanceQuery, "saldo atual é R$ 850.00"},
		{core.AssistExpenseSummary, "• Alimentação: R$ 100.00 (2)"},
		{core.AssistHelpRequest, "Comandos da Carteira"},
		{core.AssistGeneralQuestion, MsgDoubt},
		{core.AssistUnknown, MsgUnknown},
	}
	for _, tt := range tests {
		t.Run(string(tt.intent), func(t *testing.T) {
			body := Plain(ComposeAssistant(tt.intent, d))
			if !strings.Contains(body, tt.want) {
				t.Errorf("ComposeAssistant(%s) = %q, want %q", tt.intent, body, tt.want)
			}
		})
	}

	d.Answer = "Guarde 10% do salário."
	if body := Plain(ComposeAssistant(core.AssistGeneralQuestion, d)); body != d.Answer {
		t.Errorf("general question answer = %q", body)
	}
	if body := Plain(ComposeAssistant(core.AssistExpenseSummary, Data{})); body != MsgNoMonthExpense {
		t.Errorf("empty expense summary = %q", body)
	}
}
