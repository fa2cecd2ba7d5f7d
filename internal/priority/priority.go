// Package priority computes the deterministic precedence score used to break
// booking conflicts. The score is a pure function of the requester role and
// the free-text purpose; it performs no I/O.
package priority

import "strings"

// Role classifies the requester for base-score lookup.
type Role string

const (
	RoleAcademic       Role = "academic"
	RoleStudent        Role = "student"
	RoleAdministrative Role = "administrative"
	RoleUnknown        Role = "unknown"
)

// MaxScore bounds every computed priority.
const MaxScore = 100 + 50

// ReviewThreshold is the score at or above which a conflicting request is
// escalated to manual review instead of being rejected.
const ReviewThreshold = 100

const (
	baseAcademic       = 100
	baseStudent        = 60
	baseAdministrative = 30
	baseUnknown        = 50
)

// ParseRole maps a caller-provided role string to a Role. Matching is
// case-insensitive; unrecognized values map to RoleUnknown rather than
// failing, since the base-score table defines a default for them.
func ParseRole(value string) Role {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "academic", "academic staff", "faculty", "lecturer":
		return RoleAcademic
	case "student":
		return RoleStudent
	case "administrative", "admin":
		return RoleAdministrative
	default:
		return RoleUnknown
	}
}

// BaseScore returns the role contribution to the priority score.
func BaseScore(role Role) int {
	switch role {
	case RoleAcademic:
		return baseAcademic
	case RoleStudent:
		return baseStudent
	case RoleAdministrative:
		return baseAdministrative
	default:
		return baseUnknown
	}
}

// purposeBonus pairs a purpose keyword with its score bonus. The table is
// ordered: only the first keyword found in the purpose text contributes,
// matching the source system's behavior.
type purposeBonus struct {
	keyword string
	bonus   int
}

var purposeBonuses = []purposeBonus{
	{"exam", 20},
	{"evaluation", 20},
	{"practical class", 15},
	{"academic meeting", 15},
	{"thesis defense", 25},
	{"seminar", 10},
	{"training", 10},
	{"institutional event", 15},
}

// PurposeBonus returns the bonus for the first keyword present in the
// purpose text, or zero when none match.
func PurposeBonus(purpose string) int {
	lowered := strings.ToLower(purpose)
	for _, entry := range purposeBonuses {
		if strings.Contains(lowered, entry.keyword) {
			return entry.bonus
		}
	}
	return 0
}

// Score combines the role base score and the purpose bonus, clamped to
// [0, MaxScore].
func Score(role Role, purpose string) int {
	score := BaseScore(role) + PurposeBonus(purpose)
	if score > MaxScore {
		score = MaxScore
	}
	if score < 0 {
		score = 0
	}
	return score
}
