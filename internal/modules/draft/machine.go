// README: Draft operations: merge/edit rules, confirmation gate, transitions.
package draft

import (
	"errors"
	"fmt"
	"strings"

	"bvetra/internal/phone"
)

var (
	ErrInvalidState    = errors.New("invalid draft state transition")
	ErrUnknownField    = errors.New("unknown draft field")
	ErrUnknownCarClass = errors.New("unknown car class")
)

// ValidationError reports why a draft cannot enter submission.
type ValidationError struct {
	Field  Field
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("draft validation failed: %s: %s", e.Field, e.Reason)
}

// MergeExtracted folds extraction candidates into the draft. Only empty or
// previously-extracted fields are touched; user-edited values always win.
// Reports whether anything changed. No-op outside Empty/Collecting: once the
// draft is under review, a late assistant turn must not change it.
func (d *Draft) MergeExtracted(f Fields) bool {
	switch d.State {
	case StateEmpty, StateCollecting:
	default:
		return false
	}

	changed := false
	merge := func(field Field, current, candidate string, set func(string)) {
		if candidate == "" {
			return
		}
		if current != "" && d.Provenance[field] == ProvenanceUserEdited {
			return
		}
		if current == candidate {
			return
		}
		set(candidate)
		d.Provenance[field] = ProvenanceExtracted
		changed = true
	}

	merge(FieldName, d.Name, f.Name, func(v string) { d.Name = v })
	merge(FieldPhone, d.Phone, f.Phone, func(v string) { d.Phone = v })
	merge(FieldPickup, d.Pickup, f.Pickup, func(v string) { d.Pickup = v })
	merge(FieldDropoff, d.Dropoff, f.Dropoff, func(v string) { d.Dropoff = v })
	merge(FieldDatetime, d.Datetime, f.Datetime, func(v string) { d.Datetime = v })
	merge(FieldCarClass, string(d.CarClass), string(f.CarClass), func(v string) { d.CarClass = CarClass(v) })
	merge(FieldNotes, d.Notes, f.Notes, func(v string) { d.Notes = v })

	if changed {
		d.State = StateCollecting
	}
	return changed
}

// ApplyEdit sets a field on the user's behalf and marks it user-edited.
// Phone values are normalised to the display form; car class accepts either
// the wire value or the Russian label shown in the UI.
func (d *Draft) ApplyEdit(field Field, value string) error {
	switch d.State {
	case StateSubmitting, StateCompleted:
		return ErrInvalidState
	}

	value = strings.TrimSpace(value)
	switch field {
	case FieldName:
		d.Name = value
	case FieldPhone:
		d.Phone = phone.Normalize(value)
	case FieldPickup:
		d.Pickup = value
	case FieldDropoff:
		d.Dropoff = value
	case FieldDatetime:
		d.Datetime = value
	case FieldCarClass:
		if value == "" {
			d.CarClass = CarClassNone
		} else {
			cc, ok := ParseCarClass(value)
			if !ok {
				return ErrUnknownCarClass
			}
			d.CarClass = cc
		}
	case FieldNotes:
		d.Notes = value
	default:
		return ErrUnknownField
	}

	d.Provenance[field] = ProvenanceUserEdited
	if d.State == StateEmpty || d.State == StateCollecting {
		d.State = StateCollecting
	}
	return nil
}

// RequestConfirmation moves the draft in front of the user for review.
// This is a caller-driven transition: some fields are optional, so field
// completeness alone never triggers it.
func (d *Draft) RequestConfirmation() error {
	if !CanTransition(d.State, StateAwaitingConfirmation) {
		return ErrInvalidState
	}
	d.State = StateAwaitingConfirmation
	return nil
}

// BeginSubmission gates the transition into dispatch. The draft must carry a
// non-empty name and a valid phone; otherwise a ValidationError is returned
// and no state change happens.
func (d *Draft) BeginSubmission() error {
	if !CanTransition(d.State, StateSubmitting) {
		return ErrInvalidState
	}
	if verr := d.Validate(); verr != nil {
		return verr
	}
	d.State = StateSubmitting
	return nil
}

// Complete records that dispatch returned, regardless of per-channel results.
func (d *Draft) Complete() error {
	if !CanTransition(d.State, StateCompleted) {
		return ErrInvalidState
	}
	d.State = StateCompleted
	return nil
}

// Fail records a total failure to even invoke dispatch. Per-channel errors
// alone never land here.
func (d *Draft) Fail() error {
	if !CanTransition(d.State, StateFailed) {
		return ErrInvalidState
	}
	d.State = StateFailed
	return nil
}

// Retry returns a failed draft to the confirmation step, fields intact.
func (d *Draft) Retry() error {
	if !CanTransition(d.State, StateAwaitingConfirmation) {
		return ErrInvalidState
	}
	d.State = StateAwaitingConfirmation
	return nil
}

// Reset clears the draft. Called after completion or an explicit user clear.
func (d *Draft) Reset() {
	*d = New()
}

// Validate checks the submission gate without touching state.
func (d *Draft) Validate() *ValidationError {
	if strings.TrimSpace(d.Name) == "" {
		return &ValidationError{Field: FieldName, Reason: "name is required"}
	}
	if strings.TrimSpace(d.Phone) == "" {
		return &ValidationError{Field: FieldPhone, Reason: "phone is required"}
	}
	if !phone.IsValid(d.Phone) {
		return &ValidationError{Field: FieldPhone, Reason: "phone is not a dialable number"}
	}
	return nil
}

// ParseCarClass maps wire values and UI labels onto the enum.
func ParseCarClass(v string) (CarClass, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "standard", "стандарт", "эконом":
		return CarClassStandard, true
	case "comfort", "комфорт":
		return CarClassComfort, true
	case "business", "бизнес":
		return CarClassBusiness, true
	case "premium", "премиум", "люкс":
		return CarClassPremium, true
	case "minivan", "минивэн", "минивен":
		return CarClassMinivan, true
	}
	return CarClassNone, false
}
