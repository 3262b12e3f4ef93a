// Package audit provides audit logging for secret operations.
//
// Every read, listing, creation and deletion is written as an RFC5424
// syslog line naming the principal (the UID owning the namespace), the
// calling process and the path. Secret values are never part of an event.
//
// # Event Types
//
//   - FetchEvent: a secret value was read
//   - ListEvent: a container was listed
//   - CreateEvent: a secret or container was created
//   - DeleteEvent: a secret or container was deleted
//
// # Usage
//
//	audit.Log(audit.FetchEvent{
//	    Subject: audit.Subject{User: id.Principal(), Client: id.Client(), Path: "db/password"},
//	    Success: true,
//	})
//
// When AUDIT_DATABASE_URL is set, events are also stored in the messages
// table of that PostgreSQL database. The schema is managed by package db.
package audit
