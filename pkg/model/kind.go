package model

//go:generate go run github.com/dmarkham/enumer -type Kind -trimprefix Kind -transform lower -json -yaml -output kind.gen.go

// Kind distinguishes leaf secrets from containers.
type Kind int

const (
	KindSecret Kind = iota
	KindContainer
)

// Suffix returns the separator suffix used when rendering a path of this kind.
func (k Kind) Suffix() string {
	if k == KindContainer {
		return Separator
	}
	return ""
}
