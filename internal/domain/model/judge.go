package model

// JudgeJob is the payload pushed onto the per-language queue. Never stored.
type JudgeJob struct {
	ID        int64           `json:"id"`
	Language  string          `json:"language"`
	Code      string          `json:"code"`
	TestCases []JudgeTestCase `json:"testCases"`
}

type JudgeTestCase struct {
	Input          string  `json:"input"`
	ExpectedOutput string  `json:"expectedOutput"`
	Score          int     `json:"score"`
	TimeOutSeconds float64 `json:"timeOutSeconds"`
}

// JudgeResult is what a worker reports back for one submission.
type JudgeResult struct {
	SubmissionID int64   `json:"id"`
	Result       string  `json:"result"`
	ExecutedTime float64 `json:"executedTime"`
}

// NewJudgeJob projects a stored submission and the current test cases of its problem.
func NewJudgeJob(s *Submission, testCases []TestCase) JudgeJob {
	job := JudgeJob{
		ID:        s.ID,
		Language:  s.Language,
		Code:      s.Code,
		TestCases: make([]JudgeTestCase, 0, len(testCases)),
	}
	for _, tc := range testCases {
		job.TestCases = append(job.TestCases, JudgeTestCase{
			Input:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
			Score:          tc.Score,
			TimeOutSeconds: tc.TimeOutSeconds,
		})
	}
	return job
}
