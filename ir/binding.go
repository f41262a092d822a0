package ir

import "fmt"

// Binding represents shader interface bindings of parameters, return
// values and struct members.
type Binding interface {
	fmt.Stringer
	binding()
}

// BuiltinBinding represents a built-in binding.
type BuiltinBinding struct {
	Builtin BuiltinValue
}

func (BuiltinBinding) binding() {}

func (b BuiltinBinding) String() string { return "@builtin(" + b.Builtin.String() + ")" }

// BuiltinValue represents built-in values.
type BuiltinValue uint8

const (
	BuiltinPosition BuiltinValue = iota
	BuiltinVertexIndex
	BuiltinInstanceIndex
	BuiltinFrontFacing
	BuiltinFragDepth
	BuiltinSampleIndex
	BuiltinSampleMask
	BuiltinLocalInvocationID
	BuiltinLocalInvocationIndex
	BuiltinGlobalInvocationID
	BuiltinWorkGroupID
	BuiltinNumWorkGroups
)

var builtinValueNames = [...]string{
	BuiltinPosition:             "position",
	BuiltinVertexIndex:          "vertex_index",
	BuiltinInstanceIndex:        "instance_index",
	BuiltinFrontFacing:          "front_facing",
	BuiltinFragDepth:            "frag_depth",
	BuiltinSampleIndex:          "sample_index",
	BuiltinSampleMask:           "sample_mask",
	BuiltinLocalInvocationID:    "local_invocation_id",
	BuiltinLocalInvocationIndex: "local_invocation_index",
	BuiltinGlobalInvocationID:   "global_invocation_id",
	BuiltinWorkGroupID:          "workgroup_id",
	BuiltinNumWorkGroups:        "num_workgroups",
}

func (b BuiltinValue) String() string {
	if int(b) < len(builtinValueNames) {
		return builtinValueNames[b]
	}
	return fmt.Sprintf("BuiltinValue(%d)", b)
}

// ParseBuiltinValue maps a WGSL builtin value name to a BuiltinValue.
func ParseBuiltinValue(name string) (BuiltinValue, bool) {
	for i, n := range builtinValueNames {
		if n == name {
			return BuiltinValue(i), true
		}
	}
	return 0, false
}

// LocationBinding represents a location binding.
type LocationBinding struct {
	Location      uint32
	Interpolation *Interpolation
}

func (LocationBinding) binding() {}

func (b LocationBinding) String() string {
	s := fmt.Sprintf("@location(%d)", b.Location)
	if b.Interpolation != nil {
		s += fmt.Sprintf(" @interpolate(%s, %s)", b.Interpolation.Kind, b.Interpolation.Sampling)
	}
	return s
}

// Interpolation represents interpolation settings.
type Interpolation struct {
	Kind     InterpolationKind
	Sampling InterpolationSampling
}

// InterpolationKind represents interpolation kinds.
type InterpolationKind uint8

const (
	InterpolationPerspective InterpolationKind = iota
	InterpolationLinear
	InterpolationFlat
)

func (k InterpolationKind) String() string {
	switch k {
	case InterpolationLinear:
		return "linear"
	case InterpolationFlat:
		return "flat"
	}
	return "perspective"
}

// InterpolationSampling represents interpolation sampling.
type InterpolationSampling uint8

const (
	SamplingCenter InterpolationSampling = iota
	SamplingCentroid
	SamplingSample
	SamplingFirst
	SamplingEither
)

func (s InterpolationSampling) String() string {
	switch s {
	case SamplingCentroid:
		return "centroid"
	case SamplingSample:
		return "sample"
	case SamplingFirst:
		return "first"
	case SamplingEither:
		return "either"
	}
	return "center"
}

// ResourceBinding is the @group/@binding pair of a module-scope resource.
type ResourceBinding struct {
	Group   uint32
	Binding uint32
}

func (b ResourceBinding) String() string {
	return fmt.Sprintf("@binding_point(%d, %d)", b.Group, b.Binding)
}
