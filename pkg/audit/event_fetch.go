package audit

import "fmt"

// FetchEvent represents a secret fetch audit event
type FetchEvent struct {
	Subject
	Success      bool
	ErrorMessage string
}

func (e FetchEvent) MessageID() string {
	return "fetch"
}

func (e FetchEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s fetched %s", e.User, e.Path)
	}
	return withError(fmt.Sprintf("%s tried to fetch %s", e.User, e.Path), e.ErrorMessage)
}

func (e FetchEvent) Severity() Severity {
	return severity(e.Success)
}

func (e FetchEvent) Facility() int {
	return FacilityAuthPriv
}

func (e FetchEvent) Principal() string {
	return e.User
}

func (e FetchEvent) StructuredData() map[string]map[string]string {
	return e.structuredData("fetch", e.Success)
}
