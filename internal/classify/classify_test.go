package classify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"carteira/internal/core"
)

type fakeSource struct {
	mu    sync.Mutex
	set   core.CategorySet
	err   error
	loads int
}

func (f *fakeSource) Categories(ctx context.Context) (core.CategorySet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	return f.set, f.err
}

type fakeCompleter struct {
	answer string
	err    error
	calls  int
}

func (f *fakeCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	f.calls++
	return f.answer, f.err
}

func expense(desc string) core.Transaction {
	return core.Transaction{Owner: "o", Type: core.Expense, Amount: decimal.NewFromInt(10), Description: desc}
}

func income(desc string) core.Transaction {
	return core.Transaction{Owner: "o", Type: core.Income, Amount: decimal.NewFromInt(10), Description: desc}
}

func TestCategorize(t *testing.T) {
	cases := []struct {
		name   string
		tx     core.Transaction
		remote *fakeCompleter
		want   string
		calls  int
	}{
		{"keyword mercado", expense("no mercado"), &fakeCompleter{err: errors.New("offline")}, "Alimentação", 0},
		{"keyword salary", income("de salário"), &fakeCompleter{err: errors.New("offline")}, "Salário", 0},
		{"keyword case insensitive", expense("UBER pro trabalho"), &fakeCompleter{}, "Transporte", 0},
		{"keyword outside type is skipped", income("aluguel do apto"), &fakeCompleter{answer: "Outras Receitas"}, "Outras Receitas", 1},
		{"remote literal member", expense("padaria"), &fakeCompleter{answer: "Lazer"}, "Lazer", 1},
		{"remote quoted member", expense("padaria"), &fakeCompleter{answer: "\"Saúde\"\n"}, "Saúde", 1},
		{"remote error falls back", expense("padaria"), &fakeCompleter{err: errors.New("timeout")}, "Outros Gastos", 1},
		{"remote error income falls back", income("presente"), &fakeCompleter{err: errors.New("timeout")}, "Outras Receitas", 1},
		{"remote non member scores the description", expense("padaria"), &fakeCompleter{answer: "gastos diversos"}, "Alimentação", 1},
		{"description words pick the candidate", expense("plano de saúde"), &fakeCompleter{answer: "Outros"}, "Saúde", 1},
		{"similarity with no overlap picks first", expense("padaria"), &fakeCompleter{answer: "???"}, "Alimentação", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCategorizer(&fakeSource{set: core.DefaultCategories()}, tc.remote)
			got := c.Categorize(context.Background(), tc.tx)
			if got != tc.want {
				t.Fatalf("Categorize(%q) = %q, want %q", tc.tx.Description, got, tc.want)
			}
			if tc.remote.calls != tc.calls {
				t.Fatalf("expected %d remote calls, got %d", tc.calls, tc.remote.calls)
			}
			set := core.DefaultCategories()
			if got != core.FallbackCategory(tc.tx.Type) && !set.Has(tc.tx.Type, got) {
				t.Fatalf("%q is not a category for %s", got, tc.tx.Type)
			}
		})
	}
}

func TestCategorizeEmptyCandidates(t *testing.T) {
	c := NewCategorizer(&fakeSource{set: core.DefaultCategories()}, &fakeCompleter{answer: "Lazer"})
	got := c.CategorizeWith(context.Background(), expense("cinema"), core.CategorySet{Income: []string{"Salário"}})
	if got != core.FallbackExpenseCategory {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestCategoriesCachedWithinTTL(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	src := &fakeSource{set: core.CategorySet{Expense: []string{"Mercado"}, Income: []string{"Bolsa"}}}
	c := NewCategorizer(src, nil, WithClock(clock))

	first := c.Categories(context.Background())
	second := c.Categories(context.Background())
	if src.loads != 1 {
		t.Fatalf("expected one load within the window, got %d", src.loads)
	}
	if first.Expense[0] != "Mercado" || second.Expense[0] != "Mercado" {
		t.Fatalf("unexpected sets %v %v", first, second)
	}

	now = now.Add(time.Hour)
	c.Categories(context.Background())
	if src.loads != 2 {
		t.Fatalf("expected a refresh after one hour, got %d loads", src.loads)
	}
}

func TestCategoriesFallbackToDefaults(t *testing.T) {
	for name, src := range map[string]*fakeSource{
		"load error": {err: errors.New("disk")},
		"empty set":  {set: core.CategorySet{Expense: []string{"X"}}},
	} {
		t.Run(name, func(t *testing.T) {
			c := NewCategorizer(src, nil)
			got := c.Categories(context.Background())
			if !got.Has(core.Expense, "Alimentação") || !got.Has(core.Income, "Salário") {
				t.Fatalf("expected default set, got %+v", got)
			}
			c.Categories(context.Background())
			if src.loads != 2 {
				t.Fatalf("a failed load must not be cached, got %d loads", src.loads)
			}
		})
	}
}

func TestMostSimilar(t *testing.T) {
	candidates := []string{"Alimentação", "Transporte Público", "Transporte"}
	cases := map[string]string{
		"transporte público":  "Transporte Público",
		"transporte":          "Transporte Público",
		"de ônibus":           "Alimentação",
		"ação":                "Alimentação",
		"a transporte em dia": "Transporte Público",
	}
	for in, want := range cases {
		if got := MostSimilar(in, candidates); got != want {
			t.Errorf("MostSimilar(%q) = %q, want %q", in, got, want)
		}
	}
	if MostSimilar("x", nil) != "" {
		t.Fatal("expected empty result without candidates")
	}
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := "rules:\n  - category: Lazer\n    keywords: [Padaria, ' bar ']\n  - category: Alimentação\n    keywords: [padaria]\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if len(rules) != 2 || rules[0].Keywords[0] != "padaria" || rules[0].Keywords[1] != "bar" {
		t.Fatalf("unexpected rules %+v", rules)
	}
	c := NewCategorizer(&fakeSource{set: core.DefaultCategories()}, nil, WithRules(rules))
	if got := c.Categorize(context.Background(), expense("padaria da esquina")); got != "Lazer" {
		t.Fatalf("table order must decide, got %q", got)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(bad, []byte("rules:\n  - keywords: [x]\n"), 0o644)
	if _, err := LoadRules(bad); err == nil {
		t.Fatal("expected error for rule without category")
	}
}

func TestParseIntentResponse(t *testing.T) {
	cases := []struct {
		raw  string
		want core.Intent
	}{
		{`{"acao":"maior_gasto"}`, core.IntentBiggestExpense},
		{"```json\n{ \"acao\": \"resumo_semana\" }\n```", core.IntentWeeklySummary},
		{`{"acao":"grafico_semana"}`, core.IntentWeeklyChart},
		{`{"acao":"pedir_pizza"}`, core.IntentUnclassified},
		{`a intenção é entrada_mes`, core.IntentMonthlyIncome},
		{`{"acao": melhoria_financeira}`, core.IntentFinancialTip},
		{`não sei`, core.IntentUnclassified},
	}
	for _, tc := range cases {
		if got := ParseIntentResponse(tc.raw); got != tc.want {
			t.Errorf("ParseIntentResponse(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestClassifyRemoteError(t *testing.T) {
	c := NewIntentClassifier(&fakeCompleter{err: errors.New("quota")}, nil)
	if got := c.Classify(context.Background(), "qual meu maior gasto?"); got != core.IntentInvalidCommand {
		t.Fatalf("expected comando_invalido, got %q", got)
	}
	if got := c.ClassifyAssistant(context.Background(), "qual meu saldo?", nil); got != core.AssistBalanceQuery {
		t.Fatalf("expected keyword fallback BALANCE_QUERY, got %q", got)
	}
}

func TestParseAssistantResponse(t *testing.T) {
	cases := []struct {
		raw  string
		want core.AssistantIntent
	}{
		{`{"type":"HELP_REQUEST"}`, core.AssistHelpRequest},
		{`{"type":"UNKNOWN"}`, core.AssistUnknown},
		{`{"type":"DANCE"}`, core.AssistUnknown},
		{`TRANSACTION_RECORD com valor 10`, core.AssistTransactionRecord},
		{`talvez BALANCE_QUERY ou EXPENSE_SUMMARY`, core.AssistBalanceQuery},
		{`nada`, core.AssistUnknown},
	}
	for _, tc := range cases {
		if got := ParseAssistantResponse(tc.raw); got != tc.want {
			t.Errorf("ParseAssistantResponse(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestKeywordAssistantIntent(t *testing.T) {
	cases := map[string]core.AssistantIntent{
		"gastei 10 no bar":          core.AssistTransactionRecord,
		"Qual a minha situação?":    core.AssistBalanceQuery,
		"me manda um relatório":     core.AssistExpenseSummary,
		"ajuda":                     core.AssistHelpRequest,
		"o que é CDI?":              core.AssistGeneralQuestion,
		"resumo do saldo":           core.AssistBalanceQuery,
	}
	for in, want := range cases {
		if got := KeywordAssistantIntent(in); got != want {
			t.Errorf("KeywordAssistantIntent(%q) = %q, want %q", in, got, want)
		}
	}
}
