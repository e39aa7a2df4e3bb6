// backend/src/processors/classifier.go
package processors

import (
	"strings"

	"github.com/username/momovisor/backend/src/models"
)

// typeRule maps one body keyword to a transaction type.
type typeRule struct {
	Keyword string
	Type    string
}

// categoryRule maps a set of body keywords to a spending category.
type categoryRule struct {
	Category string
	Keywords []string
}

// defaultTypeRules is the canonical keyword-to-type table. Rules are checked
// in order and the first match wins, so order is part of the contract:
// "payment received" classifies as CASH_IN because "received" outranks
// "payment". This is deliberately heuristic keyword matching, not ML.
var defaultTypeRules = []typeRule{
	{"received", models.TypeCashIn},
	{"cash in", models.TypeCashIn},
	{"withdrew", models.TypeCashOut},
	{"cash out", models.TypeCashOut},
	{"transferred", models.TypeTransfer},
	{"sent to", models.TypeTransfer},
	{"deposit", models.TypeDeposit},
	{"payment", models.TypePayment},
	{"paid", models.TypePayment},
}

// defaultCategoryRules is the canonical keyword-to-category table, evaluated
// independently of the type rules. Same first-match-wins contract; an
// unmatched body always falls back to "other", never to an empty category.
var defaultCategoryRules = []categoryRule{
	{models.CategoryBills, []string{"bill", "dstv", "electricity", "water", "utility"}},
	{models.CategoryAirtime, []string{"airtime", "bundle", "recharge", "data pack"}},
	{models.CategoryTransport, []string{"transport", "taxi", "fare", "ride", "bus"}},
	{models.CategoryFood, []string{"restaurant", "food", "cafe", "meal", "grocery"}},
	{models.CategoryShopping, []string{"shop", "store", "market", "purchase"}},
	{models.CategoryTransfer, []string{"transferred", "sent to", "received from", "transfer"}},
}

// Classifier assigns a (type, category) pair to a message body using the
// immutable ordered rule tables above, loaded once at construction.
// Evaluation is a pure left-to-right scan with no shared mutable state.
type Classifier struct {
	typeRules     []typeRule
	categoryRules []categoryRule
}

func NewClassifier() *Classifier {
	return &Classifier{
		typeRules:     defaultTypeRules,
		categoryRules: defaultCategoryRules,
	}
}

// Classify returns the transaction type and category for a body text.
func (c *Classifier) Classify(body string) (txType, category string) {
	lowerBody := strings.ToLower(body)
	return c.classifyType(lowerBody), c.classifyCategory(lowerBody)
}

func (c *Classifier) classifyType(lowerBody string) string {
	for _, rule := range c.typeRules {
		if strings.Contains(lowerBody, rule.Keyword) {
			return rule.Type
		}
	}
	return models.TypeOther
}

func (c *Classifier) classifyCategory(lowerBody string) string {
	for _, rule := range c.categoryRules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(lowerBody, keyword) {
				return rule.Category
			}
		}
	}
	return models.CategoryOther
}
