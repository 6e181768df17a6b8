// README: Assistant usage quota definitions.
package quota

import "errors"

// ErrExhausted is returned when a session has no assistant replies remaining
// for the current month.
var ErrExhausted = errors.New("assistant quota exhausted")

// DefaultAllowance is the number of assistant replies granted per session
// per month.
const DefaultAllowance = 100
