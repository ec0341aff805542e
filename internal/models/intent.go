package models

// Intent is the user intent that sections are ranked against: who is asking
// (persona) and what they are trying to do (job).
type Intent struct {
	Persona string `json:"persona"`
	Job     string `json:"job"`
}

// QueryText resolves the intent to the single query string that gets embedded.
func (in Intent) QueryText() string {
	return in.Persona + " wants to " + in.Job
}
