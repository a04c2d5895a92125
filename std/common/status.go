package common

// StatusCode is the final outcome of a protocol.
type StatusCode int

const (
	StatusUndefined StatusCode = iota
	StatusSuccess
	StatusFailed
	StatusRejected
)

func (c StatusCode) String() string {
	switch c {
	case StatusSuccess:
		return "Success"
	case StatusFailed:
		return "Failed"
	case StatusRejected:
		return "Rejected"
	}
	return "Undefined"
}

// Status is the status of a finished protocol. Failed and Rejected carry the
// problem report which ended the protocol.
type Status struct {
	Code          StatusCode     `json:"code"`
	ProblemReport *ProblemReport `json:"problem_report,omitempty"`
}

func Success() Status {
	return Status{Code: StatusSuccess}
}

func Failed(pr *ProblemReport) Status {
	return Status{Code: StatusFailed, ProblemReport: pr}
}

func Rejected(pr *ProblemReport) Status {
	return Status{Code: StatusRejected, ProblemReport: pr}
}
