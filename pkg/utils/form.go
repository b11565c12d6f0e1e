package utils

import "net/http"

// FormResult is the JSON body returned by form actions, successful or not.
type FormResult struct {
	Mode        string  `json:"mode"`
	Success     bool    `json:"success,omitempty"`
	Error       string  `json:"error,omitempty"`
	Next        string  `json:"next,omitempty"`
	Email       string  `json:"email,omitempty"`
	DisplayName *string `json:"displayName,omitempty"`
	AboutMe     *string `json:"aboutMe,omitempty"`
}

// RespondForm writes a form action result.
func RespondForm(w http.ResponseWriter, status int, result FormResult) {
	RespondJSON(w, status, result)
}
