package model

// PageStatus is the outcome of processing one page.
type PageStatus string

const (
	// PageStatusOK marks a page written in both languages.
	PageStatusOK PageStatus = "ok"

	// PageStatusFailed marks a page that could not be processed.
	// It only occurs when the run continues past page failures.
	PageStatusFailed PageStatus = "failed"
)

// String implements fmt.Stringer.
func (s PageStatus) String() string {
	if s == "" {
		return string(PageStatusOK)
	}
	return string(s)
}

// Failed reports whether s is PageStatusFailed.
func (s PageStatus) Failed() bool {
	return s == PageStatusFailed
}
