package reply

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"carteira/internal/core"
	"carteira/internal/ledger"
)

// Fixed messages.
const (
	MsgDoubt          = "🤔 Ainda estou aprendendo! Você pode tentar perguntar de outro jeito?"
	MsgInvalid        = "❌ Não entendi o que você quis dizer. Pode tentar de outra forma?"
	MsgUnknown        = "Desculpe, não consegui entender. Pode reformular ou digitar 'ajuda' para ver os comandos disponíveis?"
	MsgSaveError      = "Houve um problema ao salvar sua transação. Por favor, tente novamente mais tarde."
	MsgInternalError  = "⚠️ Ocorreu um erro interno ao processar sua mensagem."
	MsgNoChartData    = "📭 Nenhum dado para gerar gráfico esta semana."
	MsgChartError     = "❌ Erro ao gerar os gráficos."
	MsgNoWeekExpense  = "📭 Nenhum gasto registrado essa semana."
	MsgNoTipData      = "📭 Nenhuma despesa registrada essa semana para análise."
	MsgNoMonthExpense = "📭 Nenhuma despesa registrada este mês."
	MsgIncomplete     = "Não consegui entender completamente os detalhes da sua transação. Pode fornecer mais informações? " +
		"Por exemplo: \"Gastei R$50 com almoço hoje\" ou \"Recebi R$1000 de salário ontem\"."

	CaptionWeekdays = "📊 Gastos por Dia da Semana"
	CaptionShare    = "🥧 Distribuição por Categoria"

	largeExpenseTip = "Considere comparar preços antes de fazer grandes compras nesta categoria."
)

// LargeExpense is the amount above which a confirmed expense gets a tip.
var LargeExpense = decimal.NewFromInt(100)

const helpMessage = `🤖 *Comandos da Carteira* 🤖

📝 *Registrar Transações*
● "Gastei R$50 com almoço hoje"
● "Recebi R$1200 de salário"

💰 *Consultas*
● "Qual meu saldo atual?"
● "Quanto gastei esse mês?"
● "Resumo da semana"
● "Qual foi meu maior gasto?"
● "Quanto entrou este mês?"

📊 *Relatórios*
● "Gráfico da semana"
● "Me dá uma dica para economizar"

❓ Digite "ajuda" a qualquer momento para ver esta mensagem novamente.`

func Help() Text { return Text{Body: helpMessage} }

// Confirmation acknowledges a recorded transaction.
func Confirmation(tx core.Transaction) Text {
	description := tx.Description
	if description == "" {
		description = tx.Category
	}
	var b strings.Builder
	fmt.Fprintf(&b, "✅ %s registrada com sucesso!\n\n", tx.Type.Label())
	fmt.Fprintf(&b, "📝 *%s*\n", description)
	fmt.Fprintf(&b, "💰 %s\n", core.FormatBRL(tx.Amount))
	fmt.Fprintf(&b, "📊 Categoria: %s\n", tx.Category)
	fmt.Fprintf(&b, "📅 Data: %s", tx.Timestamp.Format(core.DateLayout))
	if tx.Type == core.Expense && tx.Amount.GreaterThan(LargeExpense) {
		fmt.Fprintf(&b, "\n\n💡 *Dica:* %s", largeExpenseTip)
	}
	return Text{Body: b.String()}
}

func WeeklySummary(week core.Period, income, expense decimal.Decimal) Text {
	return Text{Body: fmt.Sprintf(
		"📊 *Resumo da Semana*\n\n📅 De: %s até %s\n\n💰 Entradas: %s\n💸 Saídas: %s\n🧮 Saldo: %s",
		week.Start.Format(core.DateLayout), week.End.Format(core.DateLayout),
		core.FormatBRL(income), core.FormatBRL(expense), core.FormatBRL(income.Sub(expense)),
	)}
}

// BiggestExpense reports the first group of expenses, which must be sorted
// largest first.
func BiggestExpense(groups []ledger.Group) Text {
	if len(groups) == 0 {
		return Text{Body: MsgNoWeekExpense}
	}
	g := groups[0]
	return Text{Body: fmt.Sprintf(
		"💸 Seu maior gasto da semana foi com *\"%s\"*, totalizando *%s* em *%d lançamento(s)*.",
		g.Label, core.FormatBRL(g.Total), g.Count,
	)}
}

func MonthlyIncome(total decimal.Decimal, count int) Text {
	return Text{Body: fmt.Sprintf("📈 *Entradas do Mês*\n\n💰 Total: *%s*\n📦 Lançamentos: %d", core.FormatBRL(total), count)}
}

// FinancialTip compares the biggest group with the top three and suggests
// halving it.
func FinancialTip(groups []ledger.Group) Text {
	if len(groups) == 0 {
		return Text{Body: MsgNoTipData}
	}
	top := groups
	if len(top) > 3 {
		top = top[:3]
	}
	total := decimal.Zero
	for _, g := range top {
		total = total.Add(g.Total)
	}
	biggest := top[0]
	share := decimal.Zero
	if total.IsPositive() {
		share = biggest.Total.Div(total).Mul(decimal.NewFromInt(100))
	}
	saving := biggest.Total.Div(decimal.NewFromInt(2))
	return Text{Body: fmt.Sprintf(
		"💡 *Dica Financeira da Semana*\n\n🔎 Seu maior gasto foi com *\"%s\"*, somando *%s* (%s%% das suas saídas).\n\n"+
			"📉 Se você reduzir isso pela metade, pode economizar cerca de *%s* só nesta semana.",
		biggest.Label, core.FormatBRL(biggest.Total), share.StringFixed(1), core.FormatBRL(saving),
	)}
}

func Balance(balance, monthIncome, monthExpense decimal.Decimal) Text {
	return Text{Body: fmt.Sprintf(
		"💰 Seu saldo atual é %s\n\n📅 Este mês\n📈 Receitas: %s\n📉 Despesas: %s",
		core.FormatBRL(balance), core.FormatBRL(monthIncome), core.FormatBRL(monthExpense),
	)}
}

// ExpenseSummary lists the month's expenses per category.
func ExpenseSummary(month core.Period, total decimal.Decimal, categories []ledger.Group) Text {
	if len(categories) == 0 {
		return Text{Body: MsgNoMonthExpense}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Resumo de despesas do mês* (%s)\n\n", month.Start.Format("01/2006"))
	fmt.Fprintf(&b, "💸 Total: %s\n", core.FormatBRL(total))
	for _, g := range categories {
		fmt.Fprintf(&b, "\n• %s: %s (%d)", g.Label, core.FormatBRL(g.Total), g.Count)
	}
	return Text{Body: b.String()}
}

// Charts bundles the weekly chart files, or says there is nothing to draw.
func Charts(weekdays, share string) Reply {
	if weekdays == "" && share == "" {
		return Text{Body: MsgNoChartData}
	}
	var items []Image
	if weekdays != "" {
		items = append(items, Image{Path: weekdays, Caption: CaptionWeekdays})
	}
	if share != "" {
		items = append(items, Image{Path: share, Caption: CaptionShare})
	}
	return Images{Items: items}
}
