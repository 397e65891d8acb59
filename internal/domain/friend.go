package domain

// Friend is one entry in either the accepted-friends list or the
// pending-requests list.
type Friend struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// FriendList holds both relationship lists. Both are refreshed wholesale
// from the server; the only local mutation is the optimistic removal of a
// declined pending request.
type FriendList struct {
	Friends         []Friend `json:"friends"`
	PendingRequests []Friend `json:"pendingRequests"`
}

// ActionResult is the outcome of a relationship action. Server-side refusals
// land here rather than in an error, so the caller decides presentation.
type ActionResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
