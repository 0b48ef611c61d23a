package utils

import (
	"github.com/davecgh/go-spew/spew"
)

var spewConfig *spew.ConfigState

func init() {
	spewConfig = spew.NewDefaultConfig()
	spewConfig.DisableCapacities = true
	spewConfig.DisablePointerAddresses = true
}

// SDump renders a value for the debug endpoint and log diagnostics.
func SDump(a ...interface{}) string {
	return spewConfig.Sdump(a...)
}
