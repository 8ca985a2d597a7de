package model

import "strings"

const (
	// ResultPending marks a submission no judge has written back yet.
	ResultPending = "-"
	// UnjudgedExecutedTime is stored until the judge reports a running time.
	UnjudgedExecutedTime = -1.0
	// AcceptedPrefix starts every successful verdict, e.g. "Accepted (100/100)".
	AcceptedPrefix = "Accepted"
)

type Submission struct {
	ID           int64   `json:"id"`
	Language     string  `json:"language"`
	Code         string  `json:"code"`
	ExecutedTime float64 `json:"executedTime"`
	Result       string  `json:"result"`
	ProblemID    int64   `json:"problemId"`
	UserID       int64   `json:"userId"`
}

func (s Submission) IsJudged() bool {
	return s.Result != ResultPending
}

// IsAcceptedResult uses prefix matching; verdicts may carry trailing detail.
func IsAcceptedResult(result string) bool {
	return strings.HasPrefix(result, AcceptedPrefix)
}

// SubmissionListItem is a submission joined with its owner and problem.
type SubmissionListItem struct {
	ID            int64   `json:"id"`
	UserID        int64   `json:"-"`
	OwnerName     string  `json:"name"`
	ProblemID     int64   `json:"problemId"`
	ProblemTitle  string  `json:"problemTitle"`
	Language      string  `json:"language"`
	Result        string  `json:"result"`
	ExecutedTime  float64 `json:"executedTime"`
	IsRefreshable bool    `json:"isRefreshable"`
}
