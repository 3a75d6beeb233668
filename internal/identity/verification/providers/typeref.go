package providers

import "strings"

// TypeKind tags the variants of a requested provider type.
type TypeKind int

const (
	KindPlain TypeKind = iota
	// KindAllowList is "AllowList#<list>".
	KindAllowList
	// KindDeveloperList is "DeveloperList#<condition>#<hash>".
	KindDeveloperList
)

const (
	AllowListType     = "AllowList"
	DeveloperListType = "DeveloperList"
)

// TypeRef is a requested type parsed once at the orchestrator boundary.
type TypeRef struct {
	Raw       string
	Kind      TypeKind
	List      string
	Condition string
	Hash      string
}

func ParseTypeRef(raw string) TypeRef {
	switch {
	case strings.HasPrefix(raw, AllowListType+"#"):
		parts := strings.Split(raw, "#")
		return TypeRef{Raw: raw, Kind: KindAllowList, List: parts[1]}
	case strings.HasPrefix(raw, DeveloperListType+"#"):
		parts := strings.Split(raw, "#")
		ref := TypeRef{Raw: raw, Kind: KindDeveloperList, Condition: parts[1]}
		if len(parts) > 2 {
			ref.Hash = parts[2]
		}
		return ref
	default:
		return TypeRef{Raw: raw, Kind: KindPlain}
	}
}

// Provider is the registered implementation the ref dispatches to.
func (t TypeRef) Provider() string {
	switch t.Kind {
	case KindAllowList:
		return AllowListType
	case KindDeveloperList:
		return DeveloperListType
	default:
		return t.Raw
	}
}

// Apply stashes the composite parameters into proofs.
func (t TypeRef) Apply(proofs map[string]string) {
	switch t.Kind {
	case KindAllowList:
		proofs["allowList"] = t.List
	case KindDeveloperList:
		proofs["conditionName"] = t.Condition
		proofs["conditionHash"] = t.Hash
	}
}
