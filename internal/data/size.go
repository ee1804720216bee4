package data

import (
	"strings"

	"github.com/suderio/dreamland/internal/engine"
)

var sizeMap = map[string]engine.Size{
	"small":  engine.SizeSmall,
	"medium": engine.SizeMedium,
	"large":  engine.SizeLarge,
}

var behaviorMap = map[string]engine.Behavior{
	"aggressive":  engine.BehaviorAggressive,
	"passive":     engine.BehaviorPassive,
	"territorial": engine.BehaviorTerritorial,
}

// ParseSize converts a string into a Size, or "" when unknown.
func ParseSize(s string) engine.Size {
	return sizeMap[strings.ToLower(strings.TrimSpace(s))]
}

// ParseBehavior converts a string into a Behavior, or "" when unknown.
func ParseBehavior(s string) engine.Behavior {
	return behaviorMap[strings.ToLower(strings.TrimSpace(s))]
}
