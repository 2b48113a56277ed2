package models

type TaskStatus string

const (
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
)

// Valid reports whether s is one of the two task states.
func (s TaskStatus) Valid() bool {
	return s == StatusInProgress || s == StatusDone
}

type Task struct {
	ID          string     `json:"id" bson:"_id"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description" bson:"description"`
	AssignedTo  string     `json:"assignedTo" bson:"assignedTo"`
	Status      TaskStatus `json:"status" bson:"status"`
}

// TaskDraft is the payload of a create request.
type TaskDraft struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AssignedTo  string     `json:"assignedTo"`
	Status      TaskStatus `json:"status,omitempty"`
}

// TaskPatch carries the fields of an update request. A nil field was not sent.
type TaskPatch struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	AssignedTo  *string     `json:"assignedTo,omitempty"`
	Status      *TaskStatus `json:"status,omitempty"`
}
