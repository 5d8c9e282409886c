package core

// ColliderKind classifies the trigger volume a ball entered.
type ColliderKind uint8

const (
	ColliderOther ColliderKind = iota
	ColliderGoal
	ColliderDeathPlane
)

// Engine tag names for the terminal trigger volumes.
const (
	TagGoal       = "Goal"
	TagDeathPlane = "DeathPlane"
)

func (k ColliderKind) String() string {
	switch k {
	case ColliderGoal:
		return "Goal"
	case ColliderDeathPlane:
		return "DeathPlane"
	default:
		return "Other"
	}
}

// ClassifyTag maps an engine tag to a ColliderKind. Matching is exact, like
// the engine's own tag comparison.
func ClassifyTag(tag string) ColliderKind {
	switch tag {
	case TagGoal:
		return ColliderGoal
	case TagDeathPlane:
		return ColliderDeathPlane
	default:
		return ColliderOther
	}
}

// Collider is the other party of a trigger event.
type Collider struct {
	Name string
	Kind ColliderKind
}

// Outcome is the terminal result of one round.
type Outcome uint8

const (
	OutcomeWin Outcome = iota + 1
	OutcomeLoss
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "win"
	case OutcomeLoss:
		return "loss"
	default:
		return "none"
	}
}

// Score holds the persisted counters.
type Score struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}
