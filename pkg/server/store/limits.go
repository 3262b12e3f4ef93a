package store

// Default limits, matching the defaults of the configuration.
const (
	DefaultMaxPayloadSize = 16 * 1024
	DefaultMaxNestLevel   = 4
)

// Limits bound the content of a namespace.
type Limits struct {
	// MaxSecrets is the number of secrets a namespace may hold. Negative
	// means unbounded.
	MaxSecrets int `json:"max_secrets"`

	// MaxPayloadSize is the largest accepted value, in bytes.
	MaxPayloadSize int64 `json:"max_payload_size"`

	// MaxNestLevel is the deepest level a container may be created at. A
	// top-level container is at level 1.
	MaxNestLevel int `json:"max_nest_level"`
}

// DefaultLimits returns limits with an unbounded secret count.
func DefaultLimits() Limits {
	return Limits{
		MaxSecrets:     -1,
		MaxPayloadSize: DefaultMaxPayloadSize,
		MaxNestLevel:   DefaultMaxNestLevel,
	}
}
