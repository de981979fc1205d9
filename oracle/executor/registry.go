package executor

import "github.com/gateway-fm/epoch-oracle/oracle/types"

// Registry maps a preamble tag to its executor, in tag order; its length is
// the registered-tag boundary Lookup checks unknown tags against.
var Registry = [...]Func{
	types.KindSetBlockNumbersForEpoch: SetBlockNumbersForEpoch,
	types.KindCorrectEpochs:           CorrectEpochs,
	types.KindUpdateVersions:          UpdateVersions,
	types.KindRegisterNetworks:        RegisterNetworks,
	types.KindRegisterNetworksAndAliases: RegisterNetworksAndAliases,
	types.KindChangePermissions:       ChangePermissions,
	types.KindResetState:              ResetState,
}

// Lookup returns the executor registered for tag, and false if tag is
// outside the registered set.
func Lookup(tag uint8) (Func, bool) {
	if int(tag) >= len(Registry) {
		return nil, false
	}
	return Registry[tag], true
}
