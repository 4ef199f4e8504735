package domain

import (
	"time"
)

// Category is the initial classification of a transfer.
type Category string

const (
	CategoryFlagged     Category = "FLAGGED"
	CategoryInvestigate Category = "INVESTIGATE"
	CategoryNonFraud    Category = "NON_FRAUD"
)

// Classification is the structured output of the classification stage.
// Created once per transfer; immutable thereafter.
type Classification struct {
	TransferID     string    `json:"transactionId"`
	Category       Category  `json:"classification"`
	Confidence     float64   `json:"confidence"`
	RiskFactors    []string  `json:"riskFactors"`
	Reasoning      string    `json:"reasoning"`
	Recommendation string    `json:"recommendation"`
	Timestamp      time.Time `json:"timestamp"`
}

// Action is the routing decision taken by the review stage.
type Action string

const (
	ActionAgreeClose      Action = "AGREE_CLOSE"
	ActionCreateCase      Action = "DISAGREE_CREATE_CASE"
	ActionRequestMoreInfo Action = "REQUEST_MORE_INFO"
)

// Priority ranks an opened case.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// ReviewDecision is the output of the review stage.
// CaseID and CasePriority are empty exactly when Action is AGREE_CLOSE.
type ReviewDecision struct {
	Action           Action   `json:"action"`
	CaseID           string   `json:"caseId,omitempty"`
	CasePriority     Priority `json:"casePriority,omitempty"`
	AdditionalChecks []string `json:"additionalChecks"`
	Reasoning        string   `json:"reasoning"`
}

// OpensCase reports whether the decision routes the transfer to the
// investigation stage.
func (d *ReviewDecision) OpensCase() bool {
	return d.Action == ActionCreateCase || d.Action == ActionRequestMoreInfo
}

// RiskLevel is a per-axis behavioral risk rating.
type RiskLevel string

const (
	RiskUnknown RiskLevel = "UNKNOWN"
	RiskHigh    RiskLevel = "HIGH"
)

// BehavioralAnalysis holds per-axis risk ratings derived from auxiliary
// customer data plus the anomalies observed while deriving them.
// Anomalies keep detection order and contain no duplicates.
type BehavioralAnalysis struct {
	ProfileRisk RiskLevel `json:"profileRisk"`
	LoginRisk   RiskLevel `json:"loginRisk"`
	DeviceRisk  RiskLevel `json:"deviceRisk"`
	Anomalies   []string  `json:"behavioralAnomalies"`
}

// CaseStatus is the terminal status of an investigated case.
type CaseStatus string

const (
	StatusConfirmedFraud CaseStatus = "CONFIRMED_FRAUD"
	StatusSuspectedFraud CaseStatus = "SUSPECTED_FRAUD"
	StatusNoFraud        CaseStatus = "NO_FRAUD_DETECTED"
)

// Verdict is the final classification issued by the investigator.
type Verdict string

const (
	VerdictFraud      Verdict = "FRAUD"
	VerdictSuspicious Verdict = "SUSPICIOUS"
	VerdictLegitimate Verdict = "LEGITIMATE"
)

// Investigation is the terminal record produced for routed cases.
// Created once by the investigator; never mutated afterward.
type Investigation struct {
	CaseStatus          CaseStatus         `json:"caseStatus"`
	FinalClassification Verdict            `json:"finalClassification"`
	Confidence          float64            `json:"confidence"`
	Summary             string             `json:"investigationSummary"`
	DataSourcesChecked  []string           `json:"dataSourcesChecked"`
	Behavioral          BehavioralAnalysis `json:"behavioralAnalysis"`
	ProfileSummary      string             `json:"customerProfileSummary"`
	LoginSummary        string             `json:"loginSummary"`
	DeviceSummary       string             `json:"deviceSummary"`
	RecommendedActions  []string           `json:"recommendedActions"`
	Notes               string             `json:"investigatorNotes"`
}

// Result bundles every stage output for one transfer. Investigation is
// nil when the review closed without opening a case; Err is set when
// processing failed before completing the pipeline.
type Result struct {
	Transfer       Transfer        `json:"transaction"`
	Classification *Classification `json:"classification,omitempty"`
	Review         *ReviewDecision `json:"monitoringReview,omitempty"`
	Investigation  *Investigation  `json:"investigation,omitempty"`
	Err            string          `json:"error,omitempty"`
}

// BatchStatistics aggregates a batch of results. Items that errored
// before producing a classification count toward Total only.
type BatchStatistics struct {
	Total          int     `json:"total"`
	Flagged        int     `json:"flagged"`
	Investigate    int     `json:"investigate"`
	NonFraud       int     `json:"nonFraud"`
	CasesCreated   int     `json:"casesCreated"`
	ConfirmedFraud int     `json:"confirmedFraud"`
	AvgMLScore     float64 `json:"avgMlScore"`
}
