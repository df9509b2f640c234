package models

import "time"

// Decision is the outcome returned by the scoring service.
type Decision string

const (
	DecisionApproved Decision = "Approved"
	DecisionRejected Decision = "Rejected"
)

// LoanApplication is the applicant snapshot sent to the scoring service.
// Field names and order follow the scoring API's wire format; the binding
// tags enforce the dashboard's input ranges at the boundary.
type LoanApplication struct {
	NoOfDependents         int     `json:"no_of_dependents" binding:"min=0,max=10"`
	Education              string  `json:"education" binding:"required,education"`
	SelfEmployed           string  `json:"self_employed" binding:"required,employment"`
	IncomeAnnum            float64 `json:"income_annum" binding:"required,min=100000,max=50000000"`
	LoanAmount             float64 `json:"loan_amount" binding:"required,min=50000,max=30000000"`
	LoanTerm               float64 `json:"loan_term" binding:"required,min=1,max=30"`
	CibilScore             float64 `json:"cibil_score" binding:"required,min=300,max=900"`
	ResidentialAssetsValue float64 `json:"residential_assets_value" binding:"min=0"`
	CommercialAssetsValue  float64 `json:"commercial_assets_value" binding:"min=0"`
	LuxuryAssetsValue      float64 `json:"luxury_assets_value" binding:"min=0"`
	BankAssetValue         float64 `json:"bank_asset_value" binding:"min=0"`
}

// TotalAssets sums the four asset fields.
func (a *LoanApplication) TotalAssets() float64 {
	return a.ResidentialAssetsValue + a.CommercialAssetsValue + a.LuxuryAssetsValue + a.BankAssetValue
}

// LoanToIncomeRatio returns the loan amount as a fraction of annual income.
func (a *LoanApplication) LoanToIncomeRatio() float64 {
	if a.IncomeAnnum == 0 {
		return 0
	}
	return a.LoanAmount / a.IncomeAnnum
}

// PredictionRecord is an immutable entry in the history ledger.
type PredictionRecord struct {
	ID                   string          `json:"id"`
	Timestamp            time.Time       `json:"timestamp"`
	Application          LoanApplication `json:"application"`
	Decision             Decision        `json:"decision"`
	ApprovalProbability  float64         `json:"approval_probability"`
	RejectionProbability float64         `json:"rejection_probability"`
	RiskScore            int             `json:"risk_score"`
	RiskLevel            RiskLevel       `json:"risk_level"`
}

// Approved reports whether the record's decision is an approval.
func (r *PredictionRecord) Approved() bool { return r.Decision == DecisionApproved }

// Aggregates are the metrics derived from the current ledger contents.
// All fields are zero for an empty ledger.
type Aggregates struct {
	Total            int     `json:"total"`
	Approved         int     `json:"approved"`
	Rejected         int     `json:"rejected"`
	ApprovalRatePct  float64 `json:"approval_rate_pct"`
	AverageRiskScore int     `json:"average_risk_score"`
}
