package spine2d

import "fmt"

// ErrorKind tags the category of a SkelError, matching spec §7.
type ErrorKind int

const (
	// ErrBinaryParse covers EOF, bad varint, invalid UTF-8, unknown type
	// tags, out-of-range table indices, and invalid geometry sizes found
	// while decoding a .skel byte stream.
	ErrBinaryParse ErrorKind = iota
	// ErrBinarySpineVersion is returned when the file's major version is
	// not 4.
	ErrBinarySpineVersion
	// ErrUnknownAnimation tags an animation-name lookup miss
	// (NewUnknownAnimation). Nothing in this module returns it: the Mixer
	// takes *Animation values and AnimationByName reports a miss as -1.
	ErrUnknownAnimation
	// ErrUnknownSkin is returned by SetSkin for an unrecognized name.
	ErrUnknownSkin
	// ErrUnknownBone tags a bone-name lookup miss (NewUnknownBone);
	// BoneByName reports a miss as -1 and does not return it.
	ErrUnknownBone
	// ErrUnknownSlot tags a slot-name lookup miss (NewUnknownSlot);
	// SlotByName reports a miss as -1 and does not return it.
	ErrUnknownSlot
)

func (k ErrorKind) String() string {
	switch k {
	case ErrBinaryParse:
		return "BinaryParse"
	case ErrBinarySpineVersion:
		return "BinarySpineVersion"
	case ErrUnknownAnimation:
		return "UnknownAnimation"
	case ErrUnknownSkin:
		return "UnknownSkin"
	case ErrUnknownBone:
		return "UnknownBone"
	case ErrUnknownSlot:
		return "UnknownSlot"
	default:
		return "Unknown"
	}
}

// SkelError is the single tagged error type used throughout the module.
// Loaders fail the whole load on the first SkelError (no partial rigs are
// ever published); runtime operations return it to the caller leaving pose
// state unchanged.
type SkelError struct {
	Kind    ErrorKind
	Name    string // animation/skin/bone/slot name, when applicable
	Offset  int64  // byte offset in the source stream, when applicable
	Message string
}

func (e *SkelError) Error() string {
	switch e.Kind {
	case ErrBinaryParse:
		if e.Offset >= 0 {
			return fmt.Sprintf("skel: parse error at offset %d: %s", e.Offset, e.Message)
		}
		return fmt.Sprintf("skel: parse error: %s", e.Message)
	case ErrBinarySpineVersion:
		return fmt.Sprintf("skel: unsupported Spine major version: %s", e.Message)
	case ErrUnknownAnimation:
		return fmt.Sprintf("skel: unknown animation %q", e.Name)
	case ErrUnknownSkin:
		return fmt.Sprintf("skel: unknown skin %q", e.Name)
	case ErrUnknownBone:
		return fmt.Sprintf("skel: unknown bone %q", e.Name)
	case ErrUnknownSlot:
		return fmt.Sprintf("skel: unknown slot %q", e.Name)
	default:
		return e.Message
	}
}

// NewParseError builds a BinaryParse error with source-offset context.
func NewParseError(offset int64, format string, args ...any) *SkelError {
	return &SkelError{Kind: ErrBinaryParse, Offset: offset, Message: fmt.Sprintf(format, args...)}
}

// NewVersionError builds a BinarySpineVersion error.
func NewVersionError(version string) *SkelError {
	return &SkelError{Kind: ErrBinarySpineVersion, Offset: -1, Message: version}
}

// NewUnknownAnimation builds an UnknownAnimation error.
func NewUnknownAnimation(name string) *SkelError {
	return &SkelError{Kind: ErrUnknownAnimation, Name: name, Offset: -1}
}

// NewUnknownSkin builds an UnknownSkin error.
func NewUnknownSkin(name string) *SkelError {
	return &SkelError{Kind: ErrUnknownSkin, Name: name, Offset: -1}
}

// NewUnknownBone builds an UnknownBone error.
func NewUnknownBone(name string) *SkelError {
	return &SkelError{Kind: ErrUnknownBone, Name: name, Offset: -1}
}

// NewUnknownSlot builds an UnknownSlot error.
func NewUnknownSlot(name string) *SkelError {
	return &SkelError{Kind: ErrUnknownSlot, Name: name, Offset: -1}
}
