package execution

import (
	"strings"

	"github.com/quantgale/premia/types"
)

// Order references encode {strategy id}_{leg id}_{role} with underscores.
// Strategy and leg ids never contain underscores themselves, so a 3-way
// split recovers the components. Bracket-level orders (the combo parent
// and its children) carry an empty leg component.

// BuildReference assembles the order reference string.
func BuildReference(strategyID, legID string, role types.OrderRole) string {
	return strategyID + "_" + legID + "_" + string(role)
}

// ParseReference splits an order reference back into its components.
func ParseReference(ref string) (strategyID, legID string, role types.OrderRole, ok bool) {
	parts := strings.SplitN(ref, "_", 3)
	if len(parts) != 3 {
		return "", "", "", false
	}
	role = types.OrderRole(parts[2])
	switch role {
	case types.RoleNewLeg, types.RoleTakeProfit, types.RoleStopLoss:
	default:
		return "", "", "", false
	}
	return parts[0], parts[1], role, true
}
