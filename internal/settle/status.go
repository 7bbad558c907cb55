package settle

// Status is the settlement session state. Error is terminal but recoverable:
// an explicit retry returns to awaiting customer info with the basket intact.
type Status string

const (
	StatusIdle                 Status = "idle"
	StatusAwaitingCustomerInfo Status = "awaiting_customer_info"
	StatusIntentCreated        Status = "intent_created"
	StatusProcessing           Status = "processing"
	StatusSuccess              Status = "success"
	StatusError                Status = "error"
)

func (s Status) String() string {
	return string(s)
}

// CanTransition reports whether the session may move from one status to
// another. Every mutation goes through this table.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusIdle:
		return to == StatusAwaitingCustomerInfo
	case StatusAwaitingCustomerInfo:
		return to == StatusIntentCreated || to == StatusError
	case StatusIntentCreated:
		return to == StatusProcessing || to == StatusError || to == StatusIdle
	case StatusProcessing:
		return to == StatusSuccess
	case StatusSuccess:
		return to == StatusIdle
	case StatusError:
		return to == StatusAwaitingCustomerInfo || to == StatusIdle
	}
	return false
}

// View is which screen the kiosk currently shows.
type View string

const (
	ViewProducts View = "products"
	ViewPayment  View = "payment"
)
