package workflow

import "math/rand"

// SelectSection picks the restriction tier for a member. Members holding
// the verified role always land in section 5, the only section with
// isolated channel handling. Everyone else gets a uniform pick from {1,2},
// or {3,4} when the tolerance flag is set.
//
// Selection is independent per invocation, so repeat offenses do not
// escalate deterministically. That matches the previous bot and is
// intentional.
func SelectSection(tolerance, verified bool) int {
	if verified {
		return 5
	}
	if tolerance {
		return 3 + rand.Intn(2)
	}
	return 1 + rand.Intn(2)
}

// sectionFromRoles infers the tier from the restriction roles a member
// currently holds, for restrictions applied by the previous bot where no
// record exists. The highest matching section wins; normally exactly one
// role is held.
func sectionFromRoles(held func(roleID string) bool, restrictedRoles []string) int {
	section := 1
	for i, roleID := range restrictedRoles {
		if held(roleID) {
			section = i + 1
		}
	}
	return section
}
