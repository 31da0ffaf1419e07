package models

import "time"

type SubjectType string

const (
	SubjectContractHouse SubjectType = "CONTRACT_HOUSE"
	SubjectClientCompany SubjectType = "CLIENT_COMPANY"
	SubjectBoth          SubjectType = "BOTH"
)

type WorkMode string

const (
	WorkModeRemote WorkMode = "REMOTE"
	WorkModeHybrid WorkMode = "HYBRID"
	WorkModeOnsite WorkMode = "ONSITE"
)

type VerificationLevel string

const (
	Unverified VerificationLevel = "UNVERIFIED"
	Verified   VerificationLevel = "VERIFIED"
)

type VerificationMethod string

const (
	MethodPlacementMatch VerificationMethod = "PLACEMENT_MATCH"
	MethodEvidence       VerificationMethod = "EVIDENCE"
	MethodHandshake      VerificationMethod = "HANDSHAKE"
)

type ModerationStatus string

const (
	StatusPending  ModerationStatus = "PENDING"
	StatusApproved ModerationStatus = "APPROVED"
	StatusRejected ModerationStatus = "REJECTED"
)

type EvidenceType string

const (
	EvidenceEmail      EvidenceType = "EMAIL"
	EvidenceContract   EvidenceType = "CONTRACT"
	EvidenceTimesheet  EvidenceType = "TIMESHEET"
	EvidenceScreenshot EvidenceType = "SCREENSHOT"
	EvidenceOther      EvidenceType = "OTHER"
)

// FeedbackSubmission is one anonymous rating event. It never references the submitter.
type FeedbackSubmission struct {
	ID                 string
	SubjectType        SubjectType
	ContractHouseID    string
	ClientCompanyID    string
	Country            string
	RoleCategory       string
	WorkMode           WorkMode
	TimeWindow         string
	Ratings            map[string]float64
	FreeText           string
	Tags               []string
	VerificationLevel  VerificationLevel
	VerificationMethod VerificationMethod
	ModerationStatus   ModerationStatus
	VerifiedAt         *time.Time
	VerifiedBy         string
	CreatedAt          time.Time
}

// IdentityLink ties a submission to its submitter for anti-abuse checks only.
type IdentityLink struct {
	FeedbackID      string
	SubmitterUserID string
	CreatedAt       time.Time
}

type EvidenceItem struct {
	ID           string
	FeedbackID   string
	Type         EvidenceType
	FileRef      string
	AccessPolicy string
}

type ModerationUpdate struct {
	Status     ModerationStatus
	Method     VerificationMethod
	VerifiedBy string
	VerifiedAt time.Time
}
