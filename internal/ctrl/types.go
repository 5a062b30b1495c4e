package ctrl

import "github.com/ehrlich-b/tagbus/internal/constants"

// Command is the numeric opcode shared by Get (CREATE/OPEN) and Ctl
// (AWAKE_ALL/REMOVE), matching spec.md §6's fixed command codes.
type Command int32

const (
	CmdCreate   Command = 1
	CmdOpen     Command = 2
	CmdAwakeAll Command = 3
	CmdRemove   Command = 4
)

func (c Command) String() string {
	switch c {
	case CmdCreate:
		return "CREATE"
	case CmdOpen:
		return "OPEN"
	case CmdAwakeAll:
		return "AWAKE_ALL"
	case CmdRemove:
		return "REMOVE"
	default:
		return "UNKNOWN"
	}
}

// Config parameterizes a Controller's capacity constants, analogous to
// the teacher's DeviceParams/DefaultDeviceParams pattern.
type Config struct {
	MaxTags        int
	MaxLevels      int
	MaxMessageSize int
	MaxWaitersHint int
}

// DefaultConfig returns the capacity constants from internal/constants.
func DefaultConfig() Config {
	return Config{
		MaxTags:        constants.MaxTags,
		MaxLevels:      constants.MaxLevels,
		MaxMessageSize: constants.MaxMessageSize,
		MaxWaitersHint: constants.MaxWaitersHint,
	}
}
