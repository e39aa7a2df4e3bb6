package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/username/momovisor/backend/src/models"
)

func TestClassifyType(t *testing.T) {
	classifier := NewClassifier()

	tests := []struct {
		body string
		want string
	}{
		{"You have received 2000 RWF from Jane Smith", models.TypeCashIn},
		{"Cash in of 300 RWF completed", models.TypeCashIn},
		{"You withdrew 5000 RWF from agent", models.TypeCashOut},
		{"Cash out request confirmed", models.TypeCashOut},
		{"Transferred 2500 RWF to your savings", models.TypeTransfer},
		{"2500 RWF sent to John Doe", models.TypeTransfer},
		{"Deposit of 700 RWF confirmed", models.TypeDeposit},
		{"Your payment of 1,000 RWF completed", models.TypePayment},
		{"You paid 400 RWF at the kiosk", models.TypePayment},
		{"Your MoMo balance is 12000 RWF", models.TypeOther},
	}
	for _, tt := range tests {
		got, _ := classifier.Classify(tt.body)
		assert.Equal(t, tt.want, got, "body %q", tt.body)
	}
}

// Rule order is part of the contract: "received" outranks "payment", so a
// payment confirmation still classifies as cash in when it says "received".
func TestClassifyTypeRuleOrder(t *testing.T) {
	classifier := NewClassifier()

	got, _ := classifier.Classify("Payment received from Kigali Coffee Shop")
	assert.Equal(t, models.TypeCashIn, got)

	got, _ = classifier.Classify("You withdrew the transferred funds")
	assert.Equal(t, models.TypeCashOut, got)
}

func TestClassifyCategory(t *testing.T) {
	classifier := NewClassifier()

	tests := []struct {
		body string
		want string
	}{
		{"Your electricity bill payment completed", models.CategoryBills},
		{"Airtime bundle purchased", models.CategoryAirtime},
		{"Paid taxi fare 800 RWF", models.CategoryTransport},
		{"Payment at restaurant Chez Lando", models.CategoryFood},
		{"Purchase at Simba store", models.CategoryShopping},
		{"Transferred 2500 RWF", models.CategoryTransfer},
		{"You withdrew 5000 RWF", models.CategoryOther},
	}
	for _, tt := range tests {
		_, got := classifier.Classify(tt.body)
		assert.Equal(t, tt.want, got, "body %q", tt.body)
	}
}

// Category rules are also ordered: a bill keyword beats a shopping keyword in
// the same body.
func TestClassifyCategoryRuleOrder(t *testing.T) {
	classifier := NewClassifier()

	_, got := classifier.Classify("Utility bill paid at the corner shop")
	assert.Equal(t, models.CategoryBills, got)
}
