package sqlite

import "github.com/bmacd/skyscore/pkg/logger"

// Log field aliases so storage code reads cleanly
var (
	Error  = logger.Error
	String = logger.String
	Int    = logger.Int
)
