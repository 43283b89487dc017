package classify

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// Rule maps description keywords to a category. Rules are checked in order
// and the first keyword hit wins.
type Rule struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// DefaultRules is the built-in keyword table.
func DefaultRules() []Rule {
	return []Rule{
		{Category: "Alimentação", Keywords: []string{"mercado", "supermercado", "restaurante", "lanche", "ifood"}},
		{Category: "Transporte", Keywords: []string{"uber", "gasolina", "combustível", "transporte", "passagem"}},
		{Category: "Moradia", Keywords: []string{"aluguel", "condomínio", "iptu", "água", "luz", "energia", "internet"}},
		{Category: "Saúde", Keywords: []string{"remédio", "farmácia", "consulta", "médico", "dentista"}},
		{Category: "Educação", Keywords: []string{"curso", "livro", "faculdade", "escola", "mensalidade"}},
		{Category: "Lazer", Keywords: []string{"cinema", "teatro", "netflix", "spotify", "viagem"}},
		{Category: "Vestuário", Keywords: []string{"roupa", "calçado", "sapato"}},
		{Category: "Salário", Keywords: []string{"salário", "pagamento"}},
		{Category: "Freelance", Keywords: []string{"freelance", "projeto"}},
		{Category: "Investimentos", Keywords: []string{"dividendo", "rendimento", "juros"}},
	}
}

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads a YAML keyword table:
//
//	rules:
//	  - category: Alimentação
//	    keywords: [mercado, padaria]
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	rules := make([]Rule, 0, len(f.Rules))
	for i, r := range f.Rules {
		r.Category = strings.TrimSpace(r.Category)
		if r.Category == "" {
			return nil, fmt.Errorf("rule %d: empty category", i)
		}
		kws := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				kws = append(kws, kw)
			}
		}
		r.Keywords = kws
		rules = append(rules, r)
	}
	return rules, nil
}
