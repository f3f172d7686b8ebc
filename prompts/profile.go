package prompts

import (
	"github.com/shopspring/decimal"
)

// Profile is the static customer record and the product catalog the
// relationship manager may recommend from.
type Profile struct {
	Customer Customer      `toml:"customer"`
	Products []BankProduct `toml:"products"`
}

type Customer struct {
	Name                    string              `toml:"name" json:"name"`
	Age                     int                 `toml:"age" json:"age"`
	Occupation              string              `toml:"occupation" json:"occupation"`
	Location                string              `toml:"location" json:"location"`
	IncomeMonthly           decimal.Decimal     `toml:"income_monthly" json:"income_monthly"`
	MaritalStatus           string              `toml:"marital_status" json:"marital_status"`
	Dependents              int                 `toml:"dependents" json:"dependents"`
	CurrentProducts         []HeldProduct       `toml:"current_products" json:"current_products"`
	FinancialGoals          []FinancialGoal     `toml:"financial_goals" json:"financial_goals"`
	TransactionPatterns     TransactionPatterns `toml:"transaction_patterns" json:"transaction_patterns"`
	RiskProfile             string              `toml:"risk_profile" json:"risk_profile"`
	CommunicationPreference string              `toml:"communication_preference" json:"communication_preference"`
}

type HeldProduct struct {
	Product       string           `toml:"product" json:"product"`
	Balance       *decimal.Decimal `toml:"balance" json:"balance,omitempty"`
	Limit         *decimal.Decimal `toml:"limit" json:"limit,omitempty"`
	Utilization   int              `toml:"utilization" json:"utilization,omitempty"`
	Amount        *decimal.Decimal `toml:"amount" json:"amount,omitempty"`
	MaturityDate  string           `toml:"maturity_date" json:"maturity_date,omitempty"`
	AccountNumber string           `toml:"account_number" json:"account_number"`
}

type FinancialGoal struct {
	Goal         string          `toml:"goal" json:"goal"`
	TargetAmount decimal.Decimal `toml:"target_amount" json:"target_amount"`
	Timeline     string          `toml:"timeline" json:"timeline"`
	Progress     int             `toml:"progress" json:"progress"`
}

type TransactionPatterns struct {
	AvgMonthlySpending decimal.Decimal `toml:"avg_monthly_spending" json:"avg_monthly_spending"`
	Categories         []string        `toml:"categories" json:"categories"`
	RecentActivities   []string        `toml:"recent_activities" json:"recent_activities"`
}

type BankProduct struct {
	Name         string   `toml:"name" json:"name"`
	Type         string   `toml:"type" json:"type"`
	InterestRate string   `toml:"interest_rate" json:"interest_rate,omitempty"`
	Returns      string   `toml:"returns" json:"returns,omitempty"`
	Risk         string   `toml:"risk" json:"risk,omitempty"`
	Coverage     string   `toml:"coverage" json:"coverage,omitempty"`
	Premium      string   `toml:"premium" json:"premium,omitempty"`
	Features     []string `toml:"features" json:"features"`
	Eligibility  string   `toml:"eligibility" json:"eligibility,omitempty"`
	Minimum      string   `toml:"minimum" json:"minimum,omitempty"`
}

// Saved sums balances and deposits across held products.
func (c Customer) Saved() decimal.Decimal {
	total := decimal.Zero
	for _, p := range c.CurrentProducts {
		if p.Balance != nil {
			total = total.Add(*p.Balance)
		}
		if p.Amount != nil {
			total = total.Add(*p.Amount)
		}
	}
	return total
}
