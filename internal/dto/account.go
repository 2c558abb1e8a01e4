package dto

// UpdateStatusRequest carries the target status. AccountService.SetStatusAsync
// checks the value.
type UpdateStatusRequest struct {
	Status string `json:"status" enums:"active,banned"`
}

type UserListResponse struct {
	Users []UserResponse `json:"users"`
}

// WorkspaceResponse describes what the workspace should render for the caller.
type WorkspaceResponse struct {
	View     string                    `json:"view"`
	Title    string                    `json:"title,omitempty"`
	Message  string                    `json:"message,omitempty"`
	Result   *GeneratedJournalResponse `json:"result,omitempty"`
	Email    string                    `json:"email,omitempty"`
	Status   string                    `json:"status,omitempty"`
	CanWrite bool                      `json:"can_generate"`
}
