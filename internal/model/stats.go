package model

// Stats is the aggregate snapshot shown on the admin overview
type Stats struct {
	Persons             int   `json:"persons"`
	Supervisors         int   `json:"supervisors"`
	Subordinates        int   `json:"subordinates"`
	ActiveConnections   int   `json:"active_connections"`
	PendingTasks        int64 `json:"pending_tasks"`
	CompletedTasks      int64 `json:"completed_tasks"`
	Messages            int64 `json:"messages"`
	BlockedSupervisors  int   `json:"blocked_supervisors"`
	ActiveSubscriptions int   `json:"active_subscriptions"`
	UnreadFeedback      int64 `json:"unread_feedback"`
}
