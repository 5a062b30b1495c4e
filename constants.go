package tagbus

import "github.com/ehrlich-b/tagbus/internal/constants"

// Re-exported capacity constants; see internal/constants for rationale.
const (
	MaxTags         = constants.MaxTags
	MaxLevels       = constants.MaxLevels
	MaxMessageSize  = constants.MaxMessageSize
	MaxWaitersHint  = constants.MaxWaitersHint
	PrivateSentinel = constants.PrivateSentinel
)
