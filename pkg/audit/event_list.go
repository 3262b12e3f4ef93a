package audit

import "fmt"

// ListEvent represents a container list audit event
type ListEvent struct {
	Subject
	Count        int
	Success      bool
	ErrorMessage string
}

func (e ListEvent) MessageID() string {
	return "list"
}

func (e ListEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s listed %d entries in %s", e.User, e.Count, e.Path)
	}
	return withError(fmt.Sprintf("%s failed to list %s", e.User, e.Path), e.ErrorMessage)
}

func (e ListEvent) Severity() Severity {
	return severity(e.Success)
}

func (e ListEvent) Facility() int {
	return FacilityAuthPriv
}

func (e ListEvent) Principal() string {
	return e.User
}

func (e ListEvent) StructuredData() map[string]map[string]string {
	return e.structuredData("list", e.Success)
}
