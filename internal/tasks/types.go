package tasks

// TaskType describes a task that can be triggered by hand.
type TaskType struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TaskTypes lists the manually runnable tasks.
var TaskTypes = []TaskType{
	{Name: CleanupAuditEventsTask{}.Config().Name, Description: "Delete audit events older than the retention period"},
	{Name: ReconcileLoansTask{}.Config().Name, Description: "Check that book status matches the active borrow records"},
}
