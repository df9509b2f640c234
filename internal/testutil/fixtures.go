package testutil

import (
	"fmt"
	"time"

	"loanrisk/internal/models"
)

// StrongApplication returns an application profile that would clearly be
// approved: excellent credit, low leverage, assets well above the loan.
func StrongApplication() models.LoanApplication {
	return models.LoanApplication{
		NoOfDependents:         1,
		Education:              "Graduate",
		SelfEmployed:           "No",
		IncomeAnnum:            9600000,
		LoanAmount:             2000000,
		LoanTerm:               12,
		CibilScore:             780,
		ResidentialAssetsValue: 5000000,
		CommercialAssetsValue:  1500000,
		LuxuryAssetsValue:      700000,
		BankAssetValue:         800000,
	}
}

// WeakApplication returns a profile with poor credit, heavy leverage, and
// thin collateral.
func WeakApplication() models.LoanApplication {
	return models.LoanApplication{
		NoOfDependents:         4,
		Education:              "Not Graduate",
		SelfEmployed:           "Yes",
		IncomeAnnum:            1200000,
		LoanAmount:             900000,
		LoanTerm:               20,
		CibilScore:             420,
		ResidentialAssetsValue: 200000,
		CommercialAssetsValue:  0,
		LuxuryAssetsValue:      0,
		BankAssetValue:         50000,
	}
}

// NewRecord builds a ledger record with a unique ID for the given
// application and outcome, deriving the risk fields from the rejection
// probability.
func NewRecord(app models.LoanApplication, decision models.Decision, approvalProb, rejectionProb float64) models.PredictionRecord {
	risk := models.AssessRisk(rejectionProb)
	return models.PredictionRecord{
		ID:                   fmt.Sprintf("record-%d", nextID()),
		Timestamp:            time.Now().UTC(),
		Application:          app,
		Decision:             decision,
		ApprovalProbability:  approvalProb,
		RejectionProbability: rejectionProb,
		RiskScore:            risk.Score,
		RiskLevel:            risk.Level,
	}
}

// ApprovedRecord builds a ledger record for an approved strong application.
func ApprovedRecord() models.PredictionRecord {
	return NewRecord(StrongApplication(), models.DecisionApproved, 0.91, 0.09)
}

// RejectedRecord builds a ledger record for a rejected weak application.
func RejectedRecord() models.PredictionRecord {
	return NewRecord(WeakApplication(), models.DecisionRejected, 0.22, 0.78)
}
