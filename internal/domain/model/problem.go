package model

type Problem struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	TestCases   []TestCase `json:"testCases,omitempty"` // Elevated view only
}

// Summary drops the test cases.
func (p Problem) Summary() Problem {
	p.TestCases = nil
	return p
}

type TestCase struct {
	ID             int64   `json:"id"`
	ProblemID      int64   `json:"-"`
	Input          string  `json:"input"`
	ExpectedOutput string  `json:"expectedOutput"`
	Comment        string  `json:"comment"`
	Score          int     `json:"score"`
	TimeOutSeconds float64 `json:"timeOutSeconds"`
}

// ProblemListItem carries the per-caller flags only when a Principal asked for the list.
type ProblemListItem struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	IsSubmitted *bool  `json:"isSubmitted,omitempty"`
	IsAccepted  *bool  `json:"isAccepted,omitempty"`
}
