package audit

import "fmt"

// DeleteEvent represents the deletion of a secret or container
type DeleteEvent struct {
	Subject
	Success      bool
	ErrorMessage string
}

func (e DeleteEvent) MessageID() string {
	return "delete"
}

func (e DeleteEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s deleted %s", e.User, e.Path)
	}
	return withError(fmt.Sprintf("%s tried to delete %s", e.User, e.Path), e.ErrorMessage)
}

func (e DeleteEvent) Severity() Severity {
	return severity(e.Success)
}

func (e DeleteEvent) Facility() int {
	return FacilityAuthPriv
}

func (e DeleteEvent) Principal() string {
	return e.User
}

func (e DeleteEvent) StructuredData() map[string]map[string]string {
	return e.structuredData("delete", e.Success)
}
