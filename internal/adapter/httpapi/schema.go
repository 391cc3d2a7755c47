package httpapi

import (
	"fmt"
	"reflect"

	"github.com/epireve/hey-peter-scheduler/internal/entity"
	"github.com/epireve/hey-peter-scheduler/pkg/filterexpr"
)

// listClassesSchema whitelists the filter fields and order keys of the class
// listing endpoint. Anything outside the schema is rejected before a query
// is built, so raw client input never reaches SQL.
var listClassesSchema = filterexpr.ResourceSchema{
	Filter: map[string]filterexpr.FilterField{
		"level": {
			Kind:   filterexpr.KindString,
			Ops:    map[filterexpr.Op]string{filterexpr.OpEQ: "Level"},
			Setter: setCourseLevel,
		},
		"course_id": {
			Kind: filterexpr.KindString,
			Ops:  map[filterexpr.Op]string{filterexpr.OpEQ: "CourseID"},
		},
		"teacher_id": {
			Kind: filterexpr.KindString,
			Ops:  map[filterexpr.Op]string{filterexpr.OpEQ: "TeacherID"},
		},
		"scheduled_time": {
			Kind: filterexpr.KindTimestamp,
			Ops: map[filterexpr.Op]string{
				filterexpr.OpGTE: "ScheduledFrom",
				filterexpr.OpLTE: "ScheduledTo",
			},
		},
	},
	Order: filterexpr.OrderSchema{
		DefaultPrimary: "scheduled_time",
		FallbackKey:    "id",
		Keys:           []string{"scheduled_time", "id", "duration", "level", "enrolled"},
	},
}

func setCourseLevel(field reflect.Value, value any) error {
	raw, ok := value.(string)
	if !ok {
		return fmt.Errorf("level must be a string, got %T", value)
	}
	level := entity.ParseCourseLevel(raw)
	if level == entity.LevelUnspecified {
		return fmt.Errorf("unknown level %q", raw)
	}
	field.Set(reflect.ValueOf(level))
	return nil
}
