package orders

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)
