// Package eventform validates and normalises event drafts before dispatch.
package eventform

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"qvent-console/internal/domain"
	"qvent-console/internal/formbuilder"
	"qvent-console/pkg/utils"
)

// Keys of ValidationResult.Errors
const (
	FieldName         = "name"
	FieldEventDate    = "eventDate"
	FieldLocation     = "location"
	FieldLocationType = "locationType"
	FieldContactName  = "contactName"
	FieldContactPhone = "contactPhone"
	FieldContactEmail = "contactEmail"
	FieldCategory     = "category"
	FieldAmount       = "amount"
	FieldFields       = "fields"
	FieldStatus       = "status"
)

// Error messages shown next to the offending input
const (
	MsgNameTooShort        = "Min 10 characters required"
	MsgFutureDate          = "Future date required"
	MsgRequired            = "Required"
	MsgContactNameTooShort = "Min 3 characters"
	MsgInvalidPhone        = "Enter a valid 10 digit number"
	MsgInvalidEmail        = "Invalid email"
	MsgMinAmount           = "Min ₹1 required"
	MsgNoFields            = "Add at least one field"
	MsgOnePrimary          = "Select one primary field"
	MsgInvalidStatus       = "Invalid status"
	MsgInvalidCategory     = "Invalid category"
	MsgInvalidLocationType = "Invalid location type"
	MsgInvalidFieldType    = "Invalid field type"
)

const (
	minNameLength        = 10
	minContactNameLength = 3
	minPaidAmount        = 1
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationResult reports every violated rule at once
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

// Details converts the field errors into AppError details
func (r ValidationResult) Details() map[string]interface{} {
	out := make(map[string]interface{}, len(r.Errors))
	for k, v := range r.Errors {
		out[k] = v
	}
	return out
}

// Validate checks d against now. All rules run so the caller can show every
// problem in one pass.
func Validate(d domain.EventDraft, now time.Time) ValidationResult {
	errs := make(map[string]string)

	if utf8.RuneCountInString(strings.TrimSpace(d.Name)) < minNameLength {
		errs[FieldName] = MsgNameTooShort
	}

	if !d.EventDate.After(now) {
		errs[FieldEventDate] = MsgFutureDate
	}

	if strings.TrimSpace(d.Location) == "" {
		errs[FieldLocation] = MsgRequired
	}

	if !d.LocationType.Valid() {
		errs[FieldLocationType] = MsgInvalidLocationType
	}

	if utf8.RuneCountInString(strings.TrimSpace(d.ContactName)) < minContactNameLength {
		errs[FieldContactName] = MsgContactNameTooShort
	}

	if phone := utils.NormalizeMobile(d.ContactPhone); phone != "" && !utils.IsValidMobile(phone) {
		errs[FieldContactPhone] = MsgInvalidPhone
	}

	if !emailRegex.MatchString(d.ContactEmail) {
		errs[FieldContactEmail] = MsgInvalidEmail
	}

	switch {
	case !d.Category.Valid():
		errs[FieldCategory] = MsgInvalidCategory
	case d.Category.OrDefault() == domain.CategoryPaid:
		if d.Amount == nil || *d.Amount < minPaidAmount {
			errs[FieldAmount] = MsgMinAmount
		}
	}

	switch {
	case len(d.Fields) == 0:
		errs[FieldFields] = MsgNoFields
	case !allTypesValid(d.Fields):
		errs[FieldFields] = MsgInvalidFieldType
	case formbuilder.PrimaryCount(d.Fields) != 1:
		errs[FieldFields] = MsgOnePrimary
	}

	switch d.Status {
	case "", domain.StatusActive, domain.StatusDisabled:
	default:
		errs[FieldStatus] = MsgInvalidStatus
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func allTypesValid(fields []domain.FieldSchema) bool {
	for _, f := range fields {
		if !f.Type.Valid() {
			return false
		}
	}
	return true
}

// Normalize returns the copy of d that is sent to the backend: category
// defaults to free, a free event always carries amount 0 whatever was typed
// before switching, and text inputs are trimmed.
func Normalize(d domain.EventDraft) domain.EventDraft {
	out := d.Clone()

	out.Name = strings.TrimSpace(out.Name)
	out.Location = strings.TrimSpace(out.Location)
	out.ContactName = strings.TrimSpace(out.ContactName)
	out.ContactEmail = strings.TrimSpace(out.ContactEmail)
	out.ContactPhone = utils.NormalizeMobile(out.ContactPhone)

	out.Category = out.Category.OrDefault()
	if out.Category == domain.CategoryFree {
		zero := 0.0
		out.Amount = &zero
	}

	if out.LocationType == "" {
		out.LocationType = domain.LocationManual
	}

	if out.Fields == nil {
		out.Fields = []domain.FieldSchema{}
	}
	for i := range out.Fields {
		if out.Fields[i].Options == nil {
			out.Fields[i].Options = []string{}
		}
	}

	return out
}
