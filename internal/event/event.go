package event

type Type string

const (
	TypeLoanCreated       Type = "loan.created"
	TypeLoanCompleted     Type = "loan.completed"
	TypeEquipmentCreated  Type = "equipment.created"
	TypeEquipmentUpdated  Type = "equipment.updated"
	TypeUserStatusToggled Type = "user.status_toggled"
	TypeEntryLogged       Type = "entry.logged"
)

type Event struct {
	ID        string      `json:"id"`
	Type      Type        `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp string      `json:"timestamp"`
	ActorID   string      `json:"actor_id,omitempty"` // Who triggered the event
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func()) // Returns channel and unsubscribe function
}
