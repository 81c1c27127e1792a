package core

// Option is a selectable value with a display label.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

var ExpenseCategories = []Option{
	{"food", "Food & Dining"},
	{"transport", "Transportation"},
	{"shopping", "Shopping"},
	{"entertainment", "Entertainment"},
	{"bills", "Bills & Utilities"},
	{"health", "Health & Fitness"},
	{"education", "Education"},
	{"travel", "Travel"},
	{"housing", "Housing"},
	{"other", "Other"},
}

var PaymentMethods = []Option{
	{"cash", "Cash"},
	{"credit_card", "Credit Card"},
	{"debit_card", "Debit Card"},
	{"digital_wallet", "Digital Wallet"},
	{"bank_transfer", "Bank Transfer"},
	{"other", "Other"},
}

func IsExpenseCategory(v string) bool { return hasOption(ExpenseCategories, v) }

func IsPaymentMethod(v string) bool { return hasOption(PaymentMethods, v) }

// CategoryLabel returns the label for v, or v itself when unknown.
func CategoryLabel(v string) string {
	for _, o := range ExpenseCategories {
		if o.Value == v {
			return o.Label
		}
	}
	return v
}

func hasOption(opts []Option, v string) bool {
	for _, o := range opts {
		if o.Value == v {
			return true
		}
	}
	return false
}
