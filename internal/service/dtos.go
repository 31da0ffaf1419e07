package service

import (
	"github.com/godilite/perception-server/internal/repository/models"
	"github.com/godilite/perception-server/internal/scoring"
)

// Subject identifies the contract house or client company a report is about.
type Subject struct {
	Kind models.SubjectType
	ID   string
}

func (s Subject) String() string {
	return string(s.Kind) + ":" + s.ID
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// AggregateReport is the anonymized view of a subject's eligible feedback.
type AggregateReport struct {
	IsAnonymized    bool                    `json:"isAnonymized"`
	SampleSize      int                     `json:"sampleSize"`
	FairnessIndex   int                     `json:"fairnessIndex"`
	Categories      map[string]float64      `json:"categories"`
	TopTags         []TagCount              `json:"topTags"`
	Confidence      float64                 `json:"confidence"`
	ConfidenceLabel scoring.ConfidenceLevel `json:"confidenceLabel"`
	RiskFlags       scoring.RiskFlags       `json:"riskFlags"`
}

type InsufficientData struct {
	RequiredThreshold int `json:"requiredThreshold"`
	CurrentCount      int `json:"currentCount"`
}

// ReportOutcome holds exactly one of Report or Insufficient.
type ReportOutcome struct {
	Report       *AggregateReport  `json:"report,omitempty"`
	Insufficient *InsufficientData `json:"insufficient,omitempty"`
}

func (o ReportOutcome) Sufficient() bool {
	return o.Report != nil
}

type EvidenceRequest struct {
	Type         string `json:"type" validate:"required,oneof=EMAIL CONTRACT TIMESHEET SCREENSHOT OTHER"`
	FileRef      string `json:"fileRef" validate:"required,max=512"`
	AccessPolicy string `json:"accessPolicy" validate:"omitempty,max=64"`
}

type SubmissionRequest struct {
	SubjectType     string             `json:"subjectType" validate:"required,oneof=CONTRACT_HOUSE CLIENT_COMPANY BOTH"`
	ContractHouseID string             `json:"contractHouseId" validate:"omitempty,max=128"`
	ClientCompanyID string             `json:"clientCompanyId" validate:"omitempty,max=128"`
	Country         string             `json:"country" validate:"omitempty,max=64"`
	RoleCategory    string             `json:"roleCategory" validate:"omitempty,max=64"`
	WorkMode        string             `json:"workMode" validate:"omitempty,oneof=REMOTE HYBRID ONSITE"`
	TimeWindow      string             `json:"timeWindow" validate:"omitempty,max=32"`
	Ratings         map[string]float64 `json:"ratings" validate:"required,min=1,dive,keys,rating_category,endkeys,min=1,max=5"`
	FreeText        string             `json:"freeText" validate:"max=2000"`
	Tags            []string           `json:"tags" validate:"max=20,dive,required,max=64"`
	Evidence        []EvidenceRequest  `json:"evidence" validate:"max=10,dive"`
}

type ModerationRequest struct {
	FeedbackID string `json:"feedbackId" validate:"required"`
	Method     string `json:"method" validate:"required,oneof=PLACEMENT_MATCH EVIDENCE HANDSHAKE"`
	Status     string `json:"status" validate:"omitempty,oneof=APPROVED REJECTED"`
	VerifiedBy string `json:"verifiedBy" validate:"required"`
}

type ModerationResult struct {
	FeedbackID string
	Status     models.ModerationStatus
	Subjects   []Subject
}
