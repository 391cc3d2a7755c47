package entity

// Teacher is the stored instructor record with capacity limits.
type Teacher struct {
	ID               string   `json:"id"`
	FullName         string   `json:"full_name"`
	Specializations  []string `json:"specializations"`
	MaxClassesPerDay int      `json:"max_classes_per_day"`
}

// Specializes reports whether the teacher covers every required tag.
func (t Teacher) Specializes(requirements []string) bool {
	if len(requirements) == 0 {
		return true
	}
	covered := make(map[string]struct{}, len(t.Specializations))
	for _, s := range t.Specializations {
		covered[s] = struct{}{}
	}
	for _, req := range requirements {
		if _, ok := covered[req]; !ok {
			return false
		}
	}
	return true
}
