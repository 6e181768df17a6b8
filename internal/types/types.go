// README: Common conversation types shared across modules.
package types

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	// RoleOrder marks the confirmation line appended after a submitted order.
	RoleOrder Role = "order"
)

// Turn is one immutable transcript entry. Seq is assigned by the session on
// append and is the only ordering guarantee the pipeline relies on.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Seq     int    `json:"seq"`
}
