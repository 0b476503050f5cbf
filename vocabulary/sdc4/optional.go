package sdc4

// Metadata elements every instance must carry. The builder fills these
// with defaults when the caller supplies nothing.
const (
	ElemCreationTimestamp = "creation_timestamp"
	ElemInstanceID        = "instance_id"
	ElemInstanceVersion   = "instance_version"
	ElemCurrentState      = "current-state"
)

// optionalLeaves are the per-field metadata elements removed during the
// prune phase when their placeholder was never substituted.
var optionalLeaves = map[string]bool{
	"act":               true,
	"vtb":               true,
	"vte":               true,
	"tr":                true,
	"modified":          true,
	"latitude":          true,
	"longitude":         true,
	"normal-status":     true,
	"magnitude-status":  true,
	"accuracy_margin":   true,
	"precision_digits":  true,
	"xdstring-language": true,
}

// optionalContainers are top-level containers removed wholesale when
// every text node under them still carries a placeholder.
var optionalContainers = map[string]bool{
	"subject":  true,
	"provider": true,
	"protocol": true,
	"workflow": true,
	"acs":      true,
}

// IsOptionalLeaf reports whether name is a prunable per-field metadata
// element.
func IsOptionalLeaf(name string) bool {
	return optionalLeaves[name]
}

// IsOptionalContainer reports whether name is a prunable top-level
// container element.
func IsOptionalContainer(name string) bool {
	return optionalContainers[name]
}

// OptionalLeaves returns the prunable per-field element names.
func OptionalLeaves() []string {
	out := make([]string, 0, len(optionalLeaves))
	for name := range optionalLeaves {
		out = append(out, name)
	}
	return out
}
