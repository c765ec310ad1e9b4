package bot

import (
	"fmt"
	"strings"
)

// ParseLevel normalises a level name; empty input returns def.
func ParseLevel(s string, def Level) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return def, nil
	case LevelGood:
		return LevelGood, nil
	case LevelSmart:
		return LevelSmart, nil
	case LevelRandom:
		return LevelRandom, nil
	case LevelScript:
		return LevelScript, nil
	}
	return "", fmt.Errorf("unknown bot level: %s", s)
}

// NewBrain creates a new AI brain based on the specified level. seed makes the
// random strategy reproducible.
func NewBrain(level Level, seed int64) (Brain, error) {
	switch level {
	case LevelGood:
		return &GoodBot{}, nil
	case LevelSmart:
		return NewSmartBot(DefaultTuning), nil
	case LevelRandom:
		return NewRandomBot(seed), nil
	case LevelScript:
		return NewScriptBot(currentScript())
	default:
		return nil, fmt.Errorf("unknown bot level: %s", level)
	}
}
