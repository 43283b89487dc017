package core

// Intent is the query taxonomy used by the chat handler.
type Intent string

const (
	IntentBiggestExpense Intent = "maior_gasto"
	IntentWeeklySummary  Intent = "resumo_semana"
	IntentMonthlyIncome  Intent = "entrada_mes"
	IntentFinancialTip   Intent = "melhoria_financeira"
	IntentWeeklyChart    Intent = "grafico_semana"
	IntentRecord         Intent = "registro_financeiro"
	IntentDoubt          Intent = "duvida"
	IntentInvalidCommand Intent = "comando_invalido"
)

// IntentUnclassified is what a response that names no known label maps to.
const IntentUnclassified = IntentInvalidCommand

// Intents lists every label in the order used for raw-text scanning.
var Intents = []Intent{
	IntentBiggestExpense,
	IntentWeeklySummary,
	IntentMonthlyIncome,
	IntentFinancialTip,
	IntentWeeklyChart,
	IntentRecord,
	IntentDoubt,
	IntentInvalidCommand,
}

// ParseIntent returns the intent for an exact label, or IntentUnclassified.
func ParseIntent(s string) (Intent, bool) {
	for _, in := range Intents {
		if string(in) == s {
			return in, true
		}
	}
	return IntentUnclassified, false
}

// AssistantIntent is the taxonomy used by the context-aware assistant path.
type AssistantIntent string

const (
	AssistTransactionRecord AssistantIntent = "TRANSACTION_RECORD"
	AssistBalanceQuery      AssistantIntent = "BALANCE_QUERY"
	AssistExpenseSummary    AssistantIntent = "EXPENSE_SUMMARY"
	AssistHelpRequest       AssistantIntent = "HELP_REQUEST"
	AssistGeneralQuestion   AssistantIntent = "GENERAL_QUESTION"
	AssistUnknown           AssistantIntent = "UNKNOWN"
)

// AssistantIntents is in raw-text scan order; UNKNOWN is never scanned.
var AssistantIntents = []AssistantIntent{
	AssistTransactionRecord,
	AssistBalanceQuery,
	AssistExpenseSummary,
	AssistHelpRequest,
	AssistGeneralQuestion,
}

func ParseAssistantIntent(s string) (AssistantIntent, bool) {
	for _, in := range AssistantIntents {
		if string(in) == s {
			return in, true
		}
	}
	if s == string(AssistUnknown) {
		return AssistUnknown, true
	}
	return AssistUnknown, false
}
