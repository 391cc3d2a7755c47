package usecase

import (
	"strings"

	"github.com/epireve/hey-peter-scheduler/internal/entity"
)

// Operator compares a composition fact against a rule value.
type Operator string

const (
	OpEq  Operator = "eq"
	OpGt  Operator = "gt"
	OpLt  Operator = "lt"
	OpGte Operator = "gte"
	OpLte Operator = "lte"
	OpIn  Operator = "in"
)

// Condition is one predicate of a scheduling rule. Fields reference
// composition facts: urgency_rank, difficulty, student_count, class_type,
// duration, prerequisites_met.
type Condition struct {
	Field    string   `json:"field" mapstructure:"field"`
	Operator Operator `json:"operator" mapstructure:"operator"`
	Value    any      `json:"value" mapstructure:"value"`
}

// ActionType names what a matched rule does to the pending decision.
type ActionType string

const (
	// ActionBoostPriority raises the composition's scheduling priority rank.
	ActionBoostPriority ActionType = "boost_priority"
	// ActionRequireIndividual forces one-on-one delivery.
	ActionRequireIndividual ActionType = "require_individual"
	// ActionCapDuration truncates the class duration to the given minutes.
	ActionCapDuration ActionType = "cap_duration"
	// ActionRequireSpecialization adds a teacher specialization requirement.
	ActionRequireSpecialization ActionType = "require_specialization"
)

// Action is one effect of a matched rule.
type Action struct {
	Type  ActionType `json:"type" mapstructure:"type"`
	Value any        `json:"value,omitempty" mapstructure:"value"`
}

// Rule is a declarative scheduling rule: when every condition holds for a
// composition, its actions shape the decision. Rules run in descending
// Priority order.
type Rule struct {
	Name       string      `json:"name" mapstructure:"name"`
	Priority   int         `json:"priority" mapstructure:"priority"`
	Enabled    bool        `json:"enabled" mapstructure:"enabled"`
	Conditions []Condition `json:"conditions" mapstructure:"conditions"`
	Actions    []Action    `json:"actions" mapstructure:"actions"`
}

// DefaultSchedulingRules returns the stock rule set.
func DefaultSchedulingRules() []Rule {
	return []Rule{
		{
			Name:     "urgent gaps first",
			Priority: 100,
			Enabled:  true,
			Conditions: []Condition{
				{Field: "urgency_rank", Operator: OpGte, Value: entity.UrgencyUrgent.Rank()},
			},
			Actions: []Action{
				{Type: ActionBoostPriority, Value: 1},
			},
		},
		{
			Name:     "hard content one-on-one",
			Priority: 90,
			Enabled:  true,
			Conditions: []Condition{
				{Field: "difficulty", Operator: OpGt, Value: 8},
			},
			Actions: []Action{
				{Type: ActionRequireIndividual},
			},
		},
		{
			Name:     "cap marathon sessions",
			Priority: 50,
			Enabled:  true,
			Conditions: []Condition{
				{Field: "duration", Operator: OpGt, Value: maxClassDuration},
			},
			Actions: []Action{
				{Type: ActionCapDuration, Value: maxClassDuration},
			},
		},
		{
			Name:     "speaking needs a speaking coach",
			Priority: 40,
			Enabled:  true,
			Conditions: []Condition{
				{Field: "content_types", Operator: OpIn, Value: string(entity.ContentSpeaking)},
			},
			Actions: []Action{
				{Type: ActionRequireSpecialization, Value: string(entity.ContentSpeaking)},
			},
		},
	}
}

// ruleAdjustments accumulates the effects of every matched rule on one
// composition.
type ruleAdjustments struct {
	priorityBoost   int
	forceIndividual bool
	maxDuration     int
	extraTags       []string
	matched         []string
}

// compositionFacts flattens a composition into the fields conditions can
// reference.
func compositionFacts(comp entity.ClassComposition) map[string]any {
	types := make([]string, 0, len(comp.ContentFocus))
	for _, item := range comp.ContentFocus {
		types = append(types, string(item.ContentType))
	}
	return map[string]any{
		"urgency_rank":      comp.SchedulingPriority.Rank(),
		"difficulty":        comp.DifficultyLevel,
		"student_count":     len(comp.StudentIDs),
		"class_type":        string(comp.ClassType),
		"duration":          comp.RecommendedDuration,
		"prerequisites_met": comp.PrerequisiteCheck,
		"content_types":     types,
	}
}

// applyRules evaluates the rule set against one composition, highest priority
// first, and folds matched actions into a single adjustment.
func applyRules(rules []Rule, comp entity.ClassComposition) ruleAdjustments {
	facts := compositionFacts(comp)

	var adj ruleAdjustments
	for _, rule := range rules {
		if !rule.Enabled || !ruleMatches(rule, facts) {
			continue
		}
		adj.matched = append(adj.matched, rule.Name)
		for _, action := range rule.Actions {
			switch action.Type {
			case ActionBoostPriority:
				adj.priorityBoost += int(toFloat(action.Value))
			case ActionRequireIndividual:
				adj.forceIndividual = true
			case ActionCapDuration:
				if limit := int(toFloat(action.Value)); limit > 0 && (adj.maxDuration == 0 || limit < adj.maxDuration) {
					adj.maxDuration = limit
				}
			case ActionRequireSpecialization:
				if tag, ok := action.Value.(string); ok && tag != "" {
					adj.extraTags = append(adj.extraTags, tag)
				}
			}
		}
	}
	return adj
}

func ruleMatches(rule Rule, facts map[string]any) bool {
	for _, cond := range rule.Conditions {
		if !conditionHolds(cond, facts[cond.Field]) {
			return false
		}
	}
	return true
}

func conditionHolds(cond Condition, fact any) bool {
	switch cond.Operator {
	case OpIn:
		return factContains(fact, cond.Value)
	case OpEq:
		if fs, ok := fact.(string); ok {
			vs, _ := cond.Value.(string)
			return strings.EqualFold(fs, vs)
		}
		if fb, ok := fact.(bool); ok {
			vb, _ := cond.Value.(bool)
			return fb == vb
		}
		return toFloat(fact) == toFloat(cond.Value)
	case OpGt:
		return toFloat(fact) > toFloat(cond.Value)
	case OpLt:
		return toFloat(fact) < toFloat(cond.Value)
	case OpGte:
		return toFloat(fact) >= toFloat(cond.Value)
	case OpLte:
		return toFloat(fact) <= toFloat(cond.Value)
	default:
		return false
	}
}

// factContains handles OpIn both ways round: a scalar fact against a list
// value, or a list fact containing a scalar value.
func factContains(fact, value any) bool {
	if list, ok := fact.([]string); ok {
		needle, _ := value.(string)
		for _, candidate := range list {
			if strings.EqualFold(candidate, needle) {
				return true
			}
		}
		return false
	}
	needle, _ := fact.(string)
	switch haystack := value.(type) {
	case []string:
		for _, candidate := range haystack {
			if strings.EqualFold(candidate, needle) {
				return true
			}
		}
	case []any:
		for _, candidate := range haystack {
			if s, ok := candidate.(string); ok && strings.EqualFold(s, needle) {
				return true
			}
		}
	case string:
		return strings.EqualFold(haystack, needle)
	}
	return false
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}
