package notification

import (
	"fmt"
	"time"
)

type TaskReminder struct {
	Recipient string    `json:"recipient"`
	TaskID    string    `json:"taskId"`
	TaskTitle string    `json:"taskTitle"`
	DueDate   time.Time `json:"dueDate"`
}

func (TaskReminder) Kind() Type { return TypeTaskReminder }

func (e TaskReminder) record() Record {
	msg := fmt.Sprintf("Don't forget: \"%s\" is due %s.", e.TaskTitle, dueDate(e.DueDate))
	if e.DueDate.IsZero() {
		msg = fmt.Sprintf("Don't forget: \"%s\" is still open.", e.TaskTitle)
	}
	r := newRecord(TypeTaskReminder, e.Recipient, "Task Reminder", msg, "/tasks/"+e.TaskID)
	r.Task = e.TaskID
	return r
}

// TaskCompleted tells a partner that the other side finished a shared task.
type TaskCompleted struct {
	Recipient     string `json:"recipient"`
	TaskID        string `json:"taskId"`
	TaskTitle     string `json:"taskTitle"`
	PartnershipID string `json:"partnershipId"`
	CompletedBy   string `json:"completedBy"`
}

func (TaskCompleted) Kind() Type { return TypeTaskCompleted }

func (e TaskCompleted) record() Record {
	r := newRecord(TypeTaskCompleted, e.Recipient,
		"Task Completed",
		fmt.Sprintf("%s completed \"%s\".", e.CompletedBy, e.TaskTitle),
		"/partnerships/"+e.PartnershipID+"/tasks",
	)
	r.Task = e.TaskID
	r.Partnership = e.PartnershipID
	return r
}
