package audit

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/doodlesbykumbi/secrets-in-go/pkg/db"
)

// AppName is the RFC5424 APP-NAME of every record.
const AppName = "secrets-in-go"

// Structured data IDs. 32473 is the documentation Private Enterprise Number.
const (
	PEN         = 32473
	SDIDAuth    = "auth@32473"
	SDIDSubject = "subject@32473"
	SDIDAction  = "action@32473"
	SDIDClient  = "client@32473"
)

// FacilityAuthPriv is LOG_AUTHPRIV, used for every secret operation.
const FacilityAuthPriv = 10

const timestampLayout = "2006-01-02T15:04:05.000Z"

// Severity levels matching syslog (RFC5424)
type Severity int

const (
	SeverityEmergency Severity = iota // 0
	SeverityAlert                     // 1
	SeverityCritical                  // 2
	SeverityError                     // 3
	SeverityWarning                   // 4
	SeverityNotice                    // 5
	SeverityInfo                      // 6
	SeverityDebug                     // 7
)

// Event is one audited operation on a namespace.
type Event interface {
	MessageID() string
	Message() string
	Severity() Severity
	Facility() int
	StructuredData() map[string]map[string]string
	// Principal is the owner of the namespace the event touched.
	Principal() string
}

// Logger writes one RFC5424 line per event.
type Logger struct {
	mu     sync.Mutex
	writer io.Writer

	// header holds the HOSTNAME APP-NAME PROCID fields, which never change.
	header string
}

// NewLogger creates a logger writing to stdout.
func NewLogger() *Logger {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "-"
	}
	return &Logger{
		writer: os.Stdout,
		header: hostname + " " + AppName + " " + strconv.Itoa(os.Getpid()),
	}
}

// SetWriter sets the output writer for the logger
func (l *Logger) SetWriter(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
}

// Log writes event as
// <PRI>1 TIMESTAMP HOSTNAME APP-NAME PROCID MSGID SD MSG
func (l *Logger) Log(event Event) {
	line := l.format(event, time.Now())

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.writer, line)
}

func (l *Logger) format(event Event, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<%d>1 %s %s %s ",
		event.Facility()*8+int(event.Severity()),
		at.UTC().Format(timestampLayout),
		l.header,
		event.MessageID(),
	)
	if sd := formatStructuredData(event.StructuredData()); sd != "" {
		b.WriteString(sd)
	} else {
		b.WriteByte('-')
	}
	b.WriteByte(' ')
	b.WriteString(event.Message())
	b.WriteByte('\n')
	return b.String()
}

// formatStructuredData renders sd as [sdid k="v" ...][sdid2 ...]. Elements
// and params are sorted so identical events give identical lines.
func formatStructuredData(sd map[string]map[string]string) string {
	var b strings.Builder
	for _, sdid := range sortedKeys(sd) {
		params := sd[sdid]
		b.WriteByte('[')
		b.WriteString(sdid)
		for _, key := range sortedKeys(params) {
			b.WriteByte(' ')
			b.WriteString(key)
			b.WriteByte('=')
			b.WriteString(escapeSDValue(params[key]))
		}
		b.WriteByte(']')
	}
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// escapeSDValue quotes a PARAM-VALUE, escaping '"', '\' and ']'.
func escapeSDValue(value string) string {
	return `"` + sdEscaper.Replace(value) + `"`
}

var sdEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `]`, `\]`)

// DefaultLogger receives every event passed to Log.
var DefaultLogger = NewLogger()

// DefaultStore persists events when AUDIT_DATABASE_URL is set. It is opened
// by the first call to Log.
var DefaultStore *Store

var (
	enabled       atomic.Bool
	storeInitOnce sync.Once
)

func init() {
	enabled.Store(true)
}

// IsEnabled returns whether audit logging is enabled
func IsEnabled() bool {
	return enabled.Load()
}

// SetEnabled turns audit logging on or off
func SetEnabled(on bool) {
	enabled.Store(on)
}

// Log writes an event to the default logger and store, if audit is enabled.
func Log(event Event) {
	if !IsEnabled() {
		return
	}
	DefaultLogger.Log(event)

	storeInitOnce.Do(openDefaultStore)
	if DefaultStore != nil {
		if err := DefaultStore.Save(event); err != nil {
			fmt.Fprintf(os.Stderr, "audit: failed to save event: %v\n", err)
		}
	}
}

func openDefaultStore() {
	if db.URL() == "" {
		return
	}
	s, err := NewStore(db.URL())
	if err != nil {
		// The audit database is optional
		fmt.Fprintf(os.Stderr, "audit: failed to connect to audit database: %v\n", err)
		return
	}
	DefaultStore = s
}
