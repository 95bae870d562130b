package domain

// WorkedExample is a fixed input/category/reasoning triple used for few-shot prompting.
type WorkedExample struct {
	Input     string   `json:"input" yaml:"input"`
	Category  Category `json:"category" yaml:"category"`
	Reasoning string   `json:"reasoning" yaml:"reasoning"`
}

// ClassificationResult is the validated outcome of a sorting.
type ClassificationResult struct {
	NarrativeSteps     []string `json:"narrativeSteps"`
	Category           Category `json:"category"`
	Reasoning          string   `json:"reasoning"`
	Confidence         float64  `json:"confidence"`
	NeedsClarification bool     `json:"needsClarification"`

	// SubjectDescription is what the model reported observing, when it said anything.
	SubjectDescription string `json:"imageDescription,omitempty"`
}
