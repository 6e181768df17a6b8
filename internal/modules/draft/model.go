// README: Order draft aggregate, field provenance and state definitions.
package draft

type State string

const (
	StateEmpty                State = "empty"
	StateCollecting           State = "collecting"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateSubmitting           State = "submitting"
	StateCompleted            State = "completed"
	StateFailed               State = "failed"
)

type Field string

const (
	FieldName     Field = "name"
	FieldPhone    Field = "phone"
	FieldPickup   Field = "pickup"
	FieldDropoff  Field = "dropoff"
	FieldDatetime Field = "datetime"
	FieldCarClass Field = "carClass"
	FieldNotes    Field = "notes"
)

type CarClass string

const (
	CarClassNone     CarClass = ""
	CarClassStandard CarClass = "standard"
	CarClassComfort  CarClass = "comfort"
	CarClassBusiness CarClass = "business"
	CarClassPremium  CarClass = "premium"
	CarClassMinivan  CarClass = "minivan"
)

// Display returns the customer-facing (Russian) car class label.
func (c CarClass) Display() string {
	switch c {
	case CarClassStandard:
		return "Стандарт"
	case CarClassComfort:
		return "Комфорт"
	case CarClassBusiness:
		return "Бизнес"
	case CarClassPremium:
		return "Премиум"
	case CarClassMinivan:
		return "Минивэн"
	}
	return ""
}

// Provenance records where a field value came from. A user-edited field is
// never overwritten by extraction.
type Provenance string

const (
	ProvenanceExtracted  Provenance = "extracted"
	ProvenanceUserEdited Provenance = "user_edited"
)

// Fields holds the order attributes collected from the conversation.
// The zero value of a field means "not captured yet".
type Fields struct {
	Name     string   `json:"name,omitempty"`
	Phone    string   `json:"phone,omitempty"`
	Pickup   string   `json:"pickup,omitempty"`
	Dropoff  string   `json:"dropoff,omitempty"`
	Datetime string   `json:"datetime,omitempty"`
	CarClass CarClass `json:"carClass,omitempty"`
	Notes    string   `json:"notes,omitempty"`
}

// Empty reports whether no field is captured.
func (f Fields) Empty() bool {
	return f == Fields{}
}

// Draft is the in-progress booking record owned by a single session.
type Draft struct {
	Fields
	Provenance map[Field]Provenance `json:"provenance,omitempty"`
	State      State                `json:"state"`
}

func New() Draft {
	return Draft{State: StateEmpty, Provenance: map[Field]Provenance{}}
}

// Snapshot returns a deep copy safe to hand to dispatch.
func (d Draft) Snapshot() Draft {
	cp := d
	cp.Provenance = make(map[Field]Provenance, len(d.Provenance))
	for k, v := range d.Provenance {
		cp.Provenance[k] = v
	}
	return cp
}

// AllowedTransitions represents the draft state flow (diagram) as code.
var AllowedTransitions = map[State][]State{
	StateEmpty:                {StateCollecting, StateAwaitingConfirmation},
	StateCollecting:           {StateCollecting, StateAwaitingConfirmation},
	StateAwaitingConfirmation: {StateCollecting, StateSubmitting},
	StateSubmitting:           {StateCompleted, StateFailed},
	// a failed submission keeps the draft for another attempt
	StateFailed:    {StateAwaitingConfirmation},
	StateCompleted: {StateEmpty},
}

func CanTransition(from, to State) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
