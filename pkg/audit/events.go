package audit

// Subject names the entry an event touched.
type Subject struct {
	User   string
	Client string
	Path   string
	Kind   string
}

func (s Subject) structuredData(operation string, success bool) map[string]map[string]string {
	result := "success"
	if !success {
		result = "failure"
	}
	subject := map[string]string{
		"path": s.Path,
	}
	if s.Kind != "" {
		subject["kind"] = s.Kind
	}
	return map[string]map[string]string{
		SDIDAuth: {
			"user": s.User,
		},
		SDIDSubject: subject,
		SDIDClient: {
			"pid": s.Client,
		},
		SDIDAction: {
			"operation": operation,
			"result":    result,
		},
	}
}

func severity(success bool) Severity {
	if success {
		return SeverityInfo
	}
	return SeverityWarning
}

func withError(msg, errMsg string) string {
	if errMsg != "" {
		msg += ": " + errMsg
	}
	return msg
}
