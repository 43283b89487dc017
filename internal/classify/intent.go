package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"carteira/internal/core"
	"carteira/internal/llm"
	"carteira/internal/log"
)

const intentSystem = "Você é um classificador de intenção."

// IntentClassifier maps a message to one of the two intent taxonomies.
type IntentClassifier struct {
	remote llm.Completer
	logger *log.Logger
}

func NewIntentClassifier(remote llm.Completer, logger *log.Logger) *IntentClassifier {
	if remote == nil {
		remote = llm.Disabled{}
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &IntentClassifier{remote: remote, logger: logger.WithComponent(log.ComponentClassifier)}
}

// Classify returns the chat intent for message. A remote failure yields
// IntentInvalidCommand.
func (c *IntentClassifier) Classify(ctx context.Context, message string) core.Intent {
	raw, err := c.remote.Complete(ctx, intentSystem, intentPrompt(message))
	if err != nil {
		c.logger.WarnContext(ctx, "Intent classification failed", log.FieldError, err, log.FieldOperation, log.OpClassify)
		return core.IntentInvalidCommand
	}
	return ParseIntentResponse(raw)
}

// ParseIntentResponse reads {"acao": "<label>"}; when that fails it looks for
// a literal label anywhere in raw, in taxonomy order.
func ParseIntentResponse(raw string) core.Intent {
	var payload struct {
		Acao string `json:"acao"`
	}
	if body, ok := llm.ExtractJSON(raw); ok && json.Unmarshal([]byte(body), &payload) == nil {
		in, _ := core.ParseIntent(strings.TrimSpace(payload.Acao))
		return in
	}
	for _, in := range core.Intents {
		if strings.Contains(raw, string(in)) {
			return in
		}
	}
	return core.IntentUnclassified
}

// ClassifyAssistant returns the context-aware assistant intent. A remote
// failure falls back to keyword groups.
func (c *IntentClassifier) ClassifyAssistant(ctx context.Context, message string, recent []core.Interaction) core.AssistantIntent {
	raw, err := c.remote.Complete(ctx, "", assistantPrompt(message, recent))
	if err != nil {
		c.logger.WarnContext(ctx, "Assistant intent classification failed, using keywords", log.FieldError, err, log.FieldOperation, log.OpClassify)
		return KeywordAssistantIntent(message)
	}
	return ParseAssistantResponse(raw)
}

// ParseAssistantResponse reads {"type": "<LABEL>"}, falling back to a raw
// substring scan.
func ParseAssistantResponse(raw string) core.AssistantIntent {
	var payload struct {
		Type string `json:"type"`
	}
	if body, ok := llm.ExtractJSON(raw); ok && json.Unmarshal([]byte(body), &payload) == nil {
		in, _ := core.ParseAssistantIntent(strings.TrimSpace(payload.Type))
		return in
	}
	for _, in := range core.AssistantIntents {
		if strings.Contains(raw, string(in)) {
			return in
		}
	}
	return core.AssistUnknown
}

var assistantKeywordGroups = []struct {
	intent   core.AssistantIntent
	keywords []string
}{
	{core.AssistTransactionRecord, []string{"gastei", "gasto", "comprei", "paguei", "recebi", "recebimento"}},
	{core.AssistBalanceQuery, []string{"saldo", "quanto tenho", "situação"}},
	{core.AssistExpenseSummary, []string{"resumo", "relatório", "gastos com"}},
	{core.AssistHelpRequest, []string{"ajuda", "como usar", "comandos"}},
}

// KeywordAssistantIntent is the offline classifier: first matching group
// wins, GENERAL_QUESTION otherwise.
func KeywordAssistantIntent(message string) core.AssistantIntent {
	lower := strings.ToLower(message)
	for _, g := range assistantKeywordGroups {
		for _, kw := range g.keywords {
			if strings.Contains(lower, kw) {
				return g.intent
			}
		}
	}
	return core.AssistGeneralQuestion
}

func intentPrompt(message string) string {
	return fmt.Sprintf(`Você é um classificador de comandos de um assistente financeiro via WhatsApp.

Sua função é ler a frase e classificar apenas a intenção principal. Retorne exatamente um JSON no formato:

{
  "acao": "nome_da_acao"
}

Escolha UMA das seguintes ações:
- "maior_gasto": quando o usuário quer saber com o que mais gastou
- "resumo_semana": quando o usuário quer saber quanto gastou ou recebeu na semana
- "entrada_mes": quando o usuário quer saber quanto ganhou no mês
- "melhoria_financeira": quando ele quer dicas ou melhorias no controle financeiro
- "grafico_semana": quando ele pede um gráfico dos gastos da semana
- "registro_financeiro": quando ele quer registrar entrada ou saída
- "duvida": quando ele pergunta algo solto ou fora de contexto
- "comando_invalido": se a frase não fizer sentido algum

Frase do usuário: %q`, message)
}

func assistantPrompt(message string, recent []core.Interaction) string {
	history := make([]string, 0, len(recent))
	for _, in := range recent {
		history = append(history, in.Message)
	}
	ctxJSON, _ := json.Marshal(history)
	return fmt.Sprintf(`Analise a seguinte mensagem e identifique a intenção principal do usuário:

Mensagem: %q

Mensagens recentes do usuário: %s

Categorize em UMA das seguintes intenções:
- TRANSACTION_RECORD: Registrar uma despesa ou receita
- BALANCE_QUERY: Consultar saldo ou situação financeira
- EXPENSE_SUMMARY: Solicitar resumo de despesas (por período ou categoria)
- HELP_REQUEST: Pedido de ajuda ou instruções
- GENERAL_QUESTION: Pergunta geral sobre finanças
- UNKNOWN: Não foi possível identificar a intenção

Retorne apenas um JSON no formato {"type": "INTENCAO"}.`, message, ctxJSON)
}
