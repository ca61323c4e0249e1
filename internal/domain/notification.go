package domain

// Notification is the transient toast the frontend shows after an action.
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Variant     string `json:"variant"` // success, error
}

// Success builds a success toast.
func Success(title, description string) Notification {
	return Notification{Title: title, Description: description, Variant: "success"}
}

// Failure builds an error toast.
func Failure(title, description string) Notification {
	return Notification{Title: title, Description: description, Variant: "error"}
}
