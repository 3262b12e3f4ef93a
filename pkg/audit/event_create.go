package audit

import "fmt"

// CreateEvent represents the creation of a secret or container
type CreateEvent struct {
	Subject
	Success      bool
	ErrorMessage string
}

func (e CreateEvent) MessageID() string {
	return "create"
}

func (e CreateEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s created %s %s", e.User, e.kind(), e.Path)
	}
	return withError(fmt.Sprintf("%s tried to create %s %s", e.User, e.kind(), e.Path), e.ErrorMessage)
}

func (e CreateEvent) kind() string {
	if e.Kind == "" {
		return "secret"
	}
	return e.Kind
}

func (e CreateEvent) Severity() Severity {
	return severity(e.Success)
}

func (e CreateEvent) Facility() int {
	return FacilityAuthPriv
}

func (e CreateEvent) Principal() string {
	return e.User
}

func (e CreateEvent) StructuredData() map[string]map[string]string {
	return e.structuredData("create", e.Success)
}
