package api

// CommandRequest carries one transcribed utterance for POST /command.
type CommandRequest struct {
	Text string `json:"text"`
}

// BookAppointmentRequest is the structured booking form for POST
// /appointments. Date and Time take the same expressions the voice path
// accepts ("tomorrow", "3pm", "2024-03-05 14:30").
type BookAppointmentRequest struct {
	Title           string `json:"title"`
	Participant     string `json:"participant,omitempty"`
	Date            string `json:"date"`
	Time            string `json:"time,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
}
