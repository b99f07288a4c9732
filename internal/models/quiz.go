package models

// Quiz is an ordered set of multiple-choice questions derived from a document.
type Quiz struct {
	Questions []Question `json:"questions"`
}

type Question struct {
	Text          string   `json:"text"`
	Options       []Option `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// Option is one answer choice. Labels are unique per question, A through D.
type Option struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}
