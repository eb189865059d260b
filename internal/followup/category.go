package followup

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category identifies one area of the troubleshooting taxonomy.
type Category string

// The fixed taxonomy. CategoryDefault is the fallback when no keywords match
// and carries a category-picker question instead of a symptom question.
const (
	CategoryPrinter  Category = "printer"
	CategoryPayment  Category = "payment"
	CategoryEmployee Category = "employee"
	CategoryOrder    Category = "order"
	CategoryMenu     Category = "menu"
	CategoryCash     Category = "cash"
	CategoryDefault  Category = "default"
)

// Prompt is the clarification bound to a category: the question shown to the
// user, its options in display order, a hint, and the enrichment phrase each
// option adds to the query. An empty enrichment phrase ("Something else")
// means no useful narrowing and terminates the dialog. For the default
// category the enrichment value names the category to redirect to instead.
type Prompt struct {
	Question   string            `yaml:"question"`
	Options    []string          `yaml:"options"`
	Hint       string            `yaml:"hint"`
	Enrichment map[string]string `yaml:"enrichment"`
	Keywords   []string          `yaml:"keywords"`
}

// Taxonomy is the full category table with a deterministic detection order.
// It is static configuration data, immutable at runtime.
type Taxonomy struct {
	order   []Category
	prompts map[Category]Prompt
}

// taxonomyFile mirrors the YAML override schema.
type taxonomyFile struct {
	Categories []struct {
		Name   string `yaml:"name"`
		Prompt `yaml:",inline"`
	} `yaml:"categories"`
	Default Prompt `yaml:"default"`
}

// DefaultTaxonomy returns the built-in category table.
// Detection order is fixed: first-defined wins ties.
func DefaultTaxonomy() *Taxonomy {
	return &Taxonomy{
		order: []Category{
			CategoryPrinter,
			CategoryPayment,
			CategoryEmployee,
			CategoryOrder,
			CategoryMenu,
			CategoryCash,
		},
		prompts: map[Category]Prompt{
			CategoryPrinter: {
				Question: "Which printing problem best matches what you're seeing?",
				Options: []string{
					"Nothing prints at all",
					"Printing at the wrong station",
					"Receipts print twice",
					"Kitchen tickets missing items",
					"Something else",
				},
				Hint: "Pick the closest symptom to narrow the search.",
				Enrichment: map[string]string{
					"Nothing prints at all":         "printer offline not printing",
					"Printing at the wrong station": "printer routing station assignment",
					"Receipts print twice":          "duplicate receipt printing twice",
					"Kitchen tickets missing items": "kitchen ticket missing items routing",
					"Something else":                "",
				},
				Keywords: []string{"print", "printer", "receipt", "kitchen", "ticket", "station"},
			},
			CategoryPayment: {
				Question: "What kind of payment issue is it?",
				Options: []string{
					"Customer charged twice",
					"Card declined but still charged",
					"Payment missing from an order",
					"Batch won't settle",
					"Something else",
				},
				Hint: "Card, batch, and settlement issues each point at different tables.",
				Enrichment: map[string]string{
					"Customer charged twice":          "duplicate charge customer charged twice",
					"Card declined but still charged": "card declined but charged authorization",
					"Payment missing from an order":   "payment not recording on order",
					"Batch won't settle":              "batch settlement won't settle",
					"Something else":                  "",
				},
				Keywords: []string{"payment", "charge", "charged", "card", "credit", "batch", "settle", "refund", "declined"},
			},
			CategoryEmployee: {
				Question: "What's going wrong with the employee?",
				Options: []string{
					"Stuck clocked in or can't clock in",
					"PIN or login not working",
					"Can't void or missing permissions",
					"Employee missing from the POS",
					"Something else",
				},
				Hint: "Clock, PIN, and permission problems live on different records.",
				Enrichment: map[string]string{
					"Stuck clocked in or can't clock in": "employee time clock already clocked in",
					"PIN or login not working":           "employee PIN login not working",
					"Can't void or missing permissions":  "employee void permission security level",
					"Employee missing from the POS":      "employee missing from POS terminal",
					"Something else":                     "",
				},
				Keywords: []string{"employee", "cashier", "clock", "clocked", "pin", "permission", "manager", "server"},
			},
			CategoryOrder: {
				Question: "What is the order doing?",
				Options: []string{
					"Order won't close",
					"Can't void the order",
					"Wrong tax or total",
					"Order disappeared",
					"Something else",
				},
				Hint: "Stuck orders and bad totals are usually separate root causes.",
				Enrichment: map[string]string{
					"Order won't close":    "order won't close stuck open",
					"Can't void the order": "can't void order void failing",
					"Wrong tax or total":   "wrong tax calculation order total",
					"Order disappeared":    "order disappeared missing order",
					"Something else":       "",
				},
				Keywords: []string{"order", "close", "void", "tax", "total", "check"},
			},
			CategoryMenu: {
				Question: "Which menu problem matches?",
				Options: []string{
					"Item not showing on the POS",
					"Wrong price displaying",
					"Modifier options missing",
					"New item not syncing",
					"Something else",
				},
				Hint: "Visibility, pricing, and sync issues check different menu tables.",
				Enrichment: map[string]string{
					"Item not showing on the POS": "menu item not showing POS button",
					"Wrong price displaying":      "menu item wrong price displaying",
					"Modifier options missing":    "modifier options missing menu",
					"New item not syncing":        "new menu item not syncing",
					"Something else":              "",
				},
				Keywords: []string{"menu", "item", "price", "modifier", "button", "category", "product"},
			},
			CategoryCash: {
				Question: "What's off with the cash handling?",
				Options: []string{
					"Drawer over or short",
					"Can't reconcile the drawer",
					"Drop not recorded",
					"Multiple employees on one drawer",
					"Something else",
				},
				Hint: "Drawer counts and drops are tracked per employee session.",
				Enrichment: map[string]string{
					"Drawer over or short":             "cash drawer over short count",
					"Can't reconcile the drawer":       "can't reconcile cash drawer",
					"Drop not recorded":                "cash drop not recorded",
					"Multiple employees on one drawer": "multiple employees same cash drawer",
					"Something else":                   "",
				},
				Keywords: []string{"cash", "drawer", "short", "drop", "reconcile", "deposit"},
			},
			CategoryDefault: {
				Question: "I couldn't pin down the area. Which of these is closest to the issue?",
				Options: []string{
					"Printing or receipts",
					"Payments or cards",
					"Employees or clock-ins",
					"Orders or voids",
					"Menu or pricing",
					"Cash or drawers",
					"Something else",
				},
				Hint: "Picking an area re-asks with more specific choices.",
				Enrichment: map[string]string{
					"Printing or receipts":   "printer",
					"Payments or cards":      "payment",
					"Employees or clock-ins": "employee",
					"Orders or voids":        "order",
					"Menu or pricing":        "menu",
					"Cash or drawers":        "cash",
					"Something else":         "",
				},
			},
		},
	}
}

// LoadTaxonomy reads a category table from a YAML file. The file replaces the
// built-in table wholesale; detection order follows file order.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read categories file: %w", err)
	}

	var file taxonomyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse categories file: %w", err)
	}
	if len(file.Categories) == 0 {
		return nil, fmt.Errorf("categories file defines no categories")
	}
	if file.Default.Question == "" {
		return nil, fmt.Errorf("categories file defines no default prompt")
	}

	t := &Taxonomy{
		order:   make([]Category, 0, len(file.Categories)),
		prompts: make(map[Category]Prompt, len(file.Categories)+1),
	}
	for _, entry := range file.Categories {
		name := Category(entry.Name)
		if name == "" || name == CategoryDefault {
			return nil, fmt.Errorf("invalid category name %q", entry.Name)
		}
		if _, dup := t.prompts[name]; dup {
			return nil, fmt.Errorf("duplicate category %q", entry.Name)
		}
		t.order = append(t.order, name)
		t.prompts[name] = entry.Prompt
	}
	t.prompts[CategoryDefault] = file.Default
	return t, nil
}

// Detect keyword-scores the query against the taxonomy and returns the best
// category. Scoring counts how many of a category's keywords appear as
// substrings of the lower-cased query; the highest nonzero count wins, ties
// broken by definition order. No keyword hits returns CategoryDefault.
// Detect is a pure function of the query.
func (t *Taxonomy) Detect(query string) Category {
	lowered := strings.ToLower(query)

	best := CategoryDefault
	bestScore := 0
	for _, category := range t.order {
		score := 0
		for _, keyword := range t.prompts[category].Keywords {
			if strings.Contains(lowered, keyword) {
				score++
			}
		}
		if score > bestScore {
			best = category
			bestScore = score
		}
	}
	return best
}

// Prompt returns the clarification bound to a category. Unknown categories
// fall back to the default prompt.
func (t *Taxonomy) Prompt(c Category) Prompt {
	if p, ok := t.prompts[c]; ok {
		return p
	}
	return t.prompts[CategoryDefault]
}

// Has reports whether c is a defined non-default category.
func (t *Taxonomy) Has(c Category) bool {
	if c == CategoryDefault {
		return false
	}
	_, ok := t.prompts[c]
	return ok
}
