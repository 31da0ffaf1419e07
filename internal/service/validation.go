package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/godilite/perception-server/internal/repository/models"
	"github.com/godilite/perception-server/internal/scoring"
)

// FieldError describes one rejected request field.
type FieldError struct {
	Field string
	Rule  string
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" is "+f.Rule)
	}
	return ErrInvalidRequest.Error() + ": " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("rating_category", func(fl validator.FieldLevel) bool {
		return scoring.IsKnownCategory(fl.Field().String())
	})
	v.RegisterStructValidation(validateSubjectIDs, SubmissionRequest{})
	return v
}

// validateSubjectIDs requires the ids matching the subject type.
func validateSubjectIDs(sl validator.StructLevel) {
	req := sl.Current().Interface().(SubmissionRequest)

	switch models.SubjectType(req.SubjectType) {
	case models.SubjectContractHouse:
		if req.ContractHouseID == "" {
			sl.ReportError(req.ContractHouseID, "contractHouseId", "ContractHouseID", "required_for_subject", "")
		}
	case models.SubjectClientCompany:
		if req.ClientCompanyID == "" {
			sl.ReportError(req.ClientCompanyID, "clientCompanyId", "ClientCompanyID", "required_for_subject", "")
		}
	case models.SubjectBoth:
		if req.ContractHouseID == "" && req.ClientCompanyID == "" {
			sl.ReportError(req.ContractHouseID, "contractHouseId", "ContractHouseID", "required_for_subject", "")
		}
	}
}

func (s *FeedbackService) validateRequest(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Fields: []FieldError{{Field: "request", Rule: "invalid"}}}
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fieldPath(fe), Rule: fe.Tag()})
	}
	return &ValidationError{Fields: fields}
}

// fieldPath drops the root struct name from the namespace, e.g. "ratings[safety]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func validateSubject(subject Subject) error {
	var fields []FieldError
	if subject.Kind != models.SubjectContractHouse && subject.Kind != models.SubjectClientCompany {
		fields = append(fields, FieldError{Field: "subjectType", Rule: "oneof"})
	}
	if strings.TrimSpace(subject.ID) == "" {
		fields = append(fields, FieldError{Field: "subjectId", Rule: "required"})
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
