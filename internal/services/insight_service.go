package services

import (
	"fmt"
	"math"

	"loanrisk/internal/models"
)

// insightService derives the explanation bullets and improvement
// recommendations shown next to a prediction result. All methods are pure
// over the record; nothing here touches storage or the network.
type insightService struct{}

// NewInsightService creates a new InsightServicer.
func NewInsightService() InsightServicer {
	return &insightService{}
}

// CIBIL score bands used by the explanations.
const (
	cibilPoorCeiling = 500
	cibilFairCeiling = 750
	cibilTargetFloor = 650
)

// Explain returns the factor-by-factor reading of an application and its
// outcome: credit score band, loan-to-income burden, asset coverage,
// employment stability, and the closing verdict.
func (i *insightService) Explain(record models.PredictionRecord) []Finding {
	app := record.Application
	findings := make([]Finding, 0, 5)

	switch {
	case app.CibilScore < cibilPoorCeiling:
		findings = append(findings, Finding{
			Severity: SeverityNegative,
			Factor:   "Low CIBIL Score",
			Detail:   "Credit score below 500 significantly increases risk of default.",
		})
	case app.CibilScore < cibilFairCeiling:
		findings = append(findings, Finding{
			Severity: SeverityCaution,
			Factor:   "Fair CIBIL Score",
			Detail:   "Score between 500-750 indicates moderate credit risk.",
		})
	default:
		findings = append(findings, Finding{
			Severity: SeverityPositive,
			Factor:   "Strong CIBIL Score",
			Detail:   "Score above 750 demonstrates good creditworthiness.",
		})
	}

	ratioPct := app.LoanToIncomeRatio() * 100
	switch {
	case ratioPct > 50:
		findings = append(findings, Finding{
			Severity: SeverityNegative,
			Factor:   "High Loan-to-Income Ratio",
			Detail:   fmt.Sprintf("Loan is %.0f%% of annual income, indicating high repayment burden.", ratioPct),
		})
	case ratioPct > 30:
		findings = append(findings, Finding{
			Severity: SeverityCaution,
			Factor:   "Moderate Loan-to-Income Ratio",
			Detail:   fmt.Sprintf("Loan is %.0f%% of annual income.", ratioPct),
		})
	default:
		findings = append(findings, Finding{
			Severity: SeverityPositive,
			Factor:   "Healthy Loan-to-Income Ratio",
			Detail:   fmt.Sprintf("Loan is %.0f%% of annual income, showing strong repayment capacity.", ratioPct),
		})
	}

	totalAssets := app.TotalAssets()
	switch {
	case totalAssets > app.LoanAmount*2:
		findings = append(findings, Finding{
			Severity: SeverityPositive,
			Factor:   "Strong Asset Base",
			Detail:   "Total assets exceed 2x the loan amount, providing good collateral security.",
		})
	case totalAssets > app.LoanAmount:
		findings = append(findings, Finding{
			Severity: SeverityCaution,
			Factor:   "Moderate Asset Base",
			Detail:   "Assets cover loan amount but limited surplus available.",
		})
	default:
		findings = append(findings, Finding{
			Severity: SeverityNegative,
			Factor:   "Weak Asset Base",
			Detail:   "Assets insufficient to cover loan amount.",
		})
	}

	if app.SelfEmployed == "Yes" {
		findings = append(findings, Finding{
			Severity: SeverityCaution,
			Factor:   "Self-Employed",
			Detail:   "Income variability of self-employed individuals adds to risk.",
		})
	} else {
		findings = append(findings, Finding{
			Severity: SeverityPositive,
			Factor:   "Salaried",
			Detail:   "Stable employment with consistent income stream reduces risk.",
		})
	}

	approvalPct := record.ApprovalProbability * 100
	if record.Approved() {
		findings = append(findings, Finding{
			Severity: SeverityPositive,
			Factor:   "Approved",
			Detail:   fmt.Sprintf("Strong approval probability of %.1f%% based on positive indicators.", approvalPct),
		})
	} else {
		findings = append(findings, Finding{
			Severity: SeverityNegative,
			Factor:   "Rejected",
			Detail:   fmt.Sprintf("Approval probability is only %.1f%% due to risk factors above.", approvalPct),
		})
	}

	return findings
}

// Recommend suggests concrete improvements for a rejected application.
// When no targeted suggestion applies, it falls back to generic advice.
func (i *insightService) Recommend(record models.PredictionRecord) []string {
	app := record.Application
	var recs []string

	if app.CibilScore < cibilTargetFloor {
		recs = append(recs, "Improve CIBIL score - aim for 700+ by paying bills on time")
	}
	ratio := app.LoanToIncomeRatio()
	if ratio > 0.4 {
		reduced := math.Floor(app.IncomeAnnum * 0.4)
		recs = append(recs, fmt.Sprintf("Request lower loan amount (approx. %.0f)", reduced))
	}
	if app.TotalAssets() < app.LoanAmount {
		recs = append(recs, "Increase collateral/security assets")
	}
	if ratio > 0.5 {
		recs = append(recs, "Increase household income or add co-applicant with additional income")
	}

	if len(recs) == 0 {
		recs = append(recs,
			"Reapply after 6 months with improved financial profile",
			"Consult with financial advisor for debt management",
		)
	}
	return recs
}
