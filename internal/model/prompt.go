package model

import "time"

// PromptRecord is the archived outcome of a completed session.
type PromptRecord struct {
	SessionID  string        `json:"sessionId" bson:"_id"`
	Request    PromptRequest `json:"request" bson:"request"`
	FinalText  string        `json:"finalText" bson:"finalText"`
	Diagnostic bool          `json:"diagnostic" bson:"diagnostic"` // true when the reply was a template echo
	CreatedAt  time.Time     `json:"createdAt" bson:"createdAt"`
}

// ExportLink is a deep link into an external chat service.
type ExportLink struct {
	Target    string `json:"target"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	Prefilled bool   `json:"prefilled"` // false means the user must paste the prompt
}
