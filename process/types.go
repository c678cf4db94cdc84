package process

import "strings"

// TypeKind classifies a port type.
type TypeKind uint8

const (
	// KindConcrete is a named data type.
	KindConcrete TypeKind = iota
	// KindAny accepts any concrete type.
	KindAny
	// KindNone carries no data, only control datums.
	KindNone
	// KindDataDependent is resolved by the process from its configuration
	// or from the type requested by a connected peer.
	KindDataDependent
	// KindFlowDependent is resolved from a connected peer; ports sharing
	// a tag resolve together.
	KindFlowDependent
)

// Sentinel spellings used by textual graph descriptions.
const (
	typeAnyName           = "_any"
	typeNoneName          = "_none"
	typeDataDependentName = "_data_dependent"
	typeFlowDependentName = "_flow_dependent/"
)

// PortType is the closed set of port types: a concrete name or one of the
// sentinels.
type PortType struct {
	kind TypeKind
	name string
}

var (
	// AnyType matches any concrete type.
	AnyType = PortType{kind: KindAny}
	// NoneType is used by ports that only carry control datums.
	NoneType = PortType{kind: KindNone}
	// DataDependentType is resolved during configuration or negotiation.
	DataDependentType = PortType{kind: KindDataDependent}
)

// Concrete returns the concrete port type called name.
func Concrete(name string) PortType {
	return PortType{kind: KindConcrete, name: name}
}

// FlowDependent returns a flow-dependent type. Ports of one process sharing
// a non-empty tag are resolved to the same type.
func FlowDependent(tag string) PortType {
	return PortType{kind: KindFlowDependent, name: tag}
}

// ParseType reads the textual form of a port type: "_any", "_none",
// "_data_dependent", "_flow_dependent/<tag>" or a concrete name.
func ParseType(s string) PortType {
	switch {
	case s == typeAnyName:
		return AnyType
	case s == typeNoneName:
		return NoneType
	case s == typeDataDependentName:
		return DataDependentType
	case strings.HasPrefix(s, typeFlowDependentName):
		return FlowDependent(strings.TrimPrefix(s, typeFlowDependentName))
	default:
		return Concrete(s)
	}
}

// Kind returns the type's kind.
func (t PortType) Kind() TypeKind { return t.kind }

// Name returns the concrete type name, or "" for sentinels.
func (t PortType) Name() string {
	if t.kind == KindConcrete {
		return t.name
	}
	return ""
}

// Tag returns the flow tag of a flow-dependent type.
func (t PortType) Tag() string {
	if t.kind == KindFlowDependent {
		return t.name
	}
	return ""
}

// IsConcrete reports whether t names a data type.
func (t PortType) IsConcrete() bool { return t.kind == KindConcrete }

// IsDependent reports whether t still has to be resolved.
func (t PortType) IsDependent() bool {
	return t.kind == KindDataDependent || t.kind == KindFlowDependent
}

// IsZero reports whether t is the zero value, which is not a valid type.
func (t PortType) IsZero() bool { return t.kind == KindConcrete && t.name == "" }

func (t PortType) String() string {
	switch t.kind {
	case KindAny:
		return typeAnyName
	case KindNone:
		return typeNoneName
	case KindDataDependent:
		return typeDataDependentName
	case KindFlowDependent:
		return typeFlowDependentName + t.name
	default:
		return t.name
	}
}

// Compatible reports whether data can flow from an up-typed output into a
// down-typed input. Dependent types are not compatible with anything until
// they are resolved, and two any ports leave the connection untyped.
func Compatible(up, down PortType) bool {
	if up.IsDependent() || down.IsDependent() {
		return false
	}
	if up.kind == KindAny && down.kind == KindAny {
		return false
	}
	if up.kind != KindConcrete || down.kind != KindConcrete {
		return true
	}
	return up.name == down.name
}
