package models

import "time"

// Clip is one entry of the clipboard history. Data holds the encrypted text;
// two clips are the same clip when their Data is equal.
type Clip struct {
	Data string    `json:"data"`
	Time time.Time `json:"time"`
}

// Device is a client bound to a profile. Two devices are the same device
// when their ID is equal.
type Device struct {
	ID    string `json:"id"`
	Model string `json:"model,omitempty"`
	SDK   int    `json:"sdk,omitempty"`
}
