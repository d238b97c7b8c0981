package app

import (
	"os"
	"strconv"
)

const testModeEnv = "BACKOFFICE_TEST_MODE"

// InTestMode reports whether binaries should return before opening connections. The
// environment is read on every call so test binaries can flip it with t.Setenv.
func InTestMode() bool {
	on, err := strconv.ParseBool(os.Getenv(testModeEnv))
	return err == nil && on
}
