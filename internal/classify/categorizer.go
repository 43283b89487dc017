// Package classify decides categories for transactions and intents for
// messages. Remote classification is optional: every remote failure degrades
// to a local answer and nothing here returns an error to the caller.
package classify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"carteira/internal/cache"
	"carteira/internal/core"
	"carteira/internal/llm"
	"carteira/internal/log"
)

// DefaultCategoryTTL is how long a loaded CategorySet is trusted.
const DefaultCategoryTTL = time.Hour

// CategorySource loads the current category set (a store or a spreadsheet).
type CategorySource interface {
	Categories(ctx context.Context) (core.CategorySet, error)
}

type Categorizer struct {
	rules      []Rule
	remote     llm.Completer
	categories *cache.Value[core.CategorySet]
	logger     *log.Logger
}

type CategorizerOption func(*categorizerOptions)

type categorizerOptions struct {
	rules  []Rule
	ttl    time.Duration
	clock  cache.Clock
	logger *log.Logger
}

func WithRules(rules []Rule) CategorizerOption {
	return func(o *categorizerOptions) { o.rules = rules }
}

func WithCategoryTTL(ttl time.Duration) CategorizerOption {
	return func(o *categorizerOptions) { o.ttl = ttl }
}

func WithClock(clock cache.Clock) CategorizerOption {
	return func(o *categorizerOptions) { o.clock = clock }
}

func WithLogger(logger *log.Logger) CategorizerOption {
	return func(o *categorizerOptions) { o.logger = logger }
}

// NewCategorizer wires a category source behind a TTL cache. A nil remote
// disables the remote step.
func NewCategorizer(source CategorySource, remote llm.Completer, opts ...CategorizerOption) *Categorizer {
	o := categorizerOptions{rules: DefaultRules(), ttl: DefaultCategoryTTL}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Discard()
	}
	if remote == nil {
		remote = llm.Disabled{}
	}
	c := &Categorizer{
		rules:  o.rules,
		remote: remote,
		logger: o.logger.WithComponent(log.ComponentClassifier),
	}
	c.categories = cache.NewValue("categories", o.ttl, o.clock, func(ctx context.Context) (core.CategorySet, error) {
		set, err := source.Categories(ctx)
		if err != nil {
			return core.CategorySet{}, err
		}
		if set.Empty() {
			return core.CategorySet{}, fmt.Errorf("load categories: empty category set")
		}
		return set, nil
	})
	return c
}

// Categories returns the cached set, refreshing it when stale. A failed
// refresh yields the default set without caching it.
func (c *Categorizer) Categories(ctx context.Context) core.CategorySet {
	set, err := c.categories.Get(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "Category refresh failed, using defaults", log.FieldError, err, log.FieldOperation, log.OpRefresh)
		return core.DefaultCategories()
	}
	return set
}

// Invalidate drops the cached set, e.g. after a category was added.
func (c *Categorizer) Invalidate() {
	c.categories.Invalidate()
}

// Categorize returns a member of the candidates for tx.Type, or the fallback
// category for that type.
func (c *Categorizer) Categorize(ctx context.Context, tx core.Transaction) string {
	return c.CategorizeWith(ctx, tx, c.Categories(ctx))
}

// CategorizeWith is Categorize against an explicit category set.
func (c *Categorizer) CategorizeWith(ctx context.Context, tx core.Transaction, set core.CategorySet) string {
	fallback := core.FallbackCategory(tx.Type)
	candidates := set.For(tx.Type)
	if len(candidates) == 0 {
		return fallback
	}

	if category, ok := MatchRules(c.rules, tx.Description, candidates); ok {
		return category
	}

	answer, err := c.remote.Complete(ctx, "", categoryPrompt(tx, candidates))
	if err != nil {
		c.logger.DebugContext(ctx, "Remote categorization unavailable", log.FieldError, err, log.FieldOperation, log.OpClassify)
		return fallback
	}
	answer = strings.Trim(strings.TrimSpace(answer), `"'.`)
	for _, cand := range candidates {
		if cand == answer {
			return cand
		}
	}
	return MostSimilar(tx.Description, candidates)
}

// MatchRules scans the rules in order and returns the first category whose
// keyword occurs in description and which is one of candidates.
func MatchRules(rules []Rule, description string, candidates []string) (string, bool) {
	lower := strings.ToLower(description)
	for _, r := range rules {
		if !contains(candidates, r.Category) {
			continue
		}
		for _, kw := range r.Keywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				return r.Category, true
			}
		}
	}
	return "", false
}

// MostSimilar scores each candidate by how many words of text (longer than two
// letters) it contains, case-insensitively. Ties go to the earlier candidate,
// so a text that matches nothing picks the first one.
func MostSimilar(text string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	words := strings.Fields(strings.ToLower(text))
	best, bestScore := candidates[0], 0
	for _, cand := range candidates {
		lc := strings.ToLower(cand)
		score := 0
		for _, w := range words {
			if len([]rune(w)) > 2 && strings.Contains(lc, w) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = cand, score
		}
	}
	return best
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func categoryPrompt(tx core.Transaction, candidates []string) string {
	return fmt.Sprintf(`Categorize a seguinte transação financeira:

Tipo: %s
Descrição: %q
Valor: %s

Escolha UMA categoria da lista abaixo que melhor se aplica:
%s

Retorne apenas o nome da categoria escolhida, sem explicações adicionais.`,
		tx.Type.Label(), tx.Description, core.FormatBRL(tx.Amount), strings.Join(candidates, ", "))
}
