package domain

// Closed set of activity categories a location can offer.
type ActivityType string

const (
	ActivityIndoorPlay    ActivityType = "indoor-play"
	ActivityOutdoorPlay   ActivityType = "outdoor-play"
	ActivitySports        ActivityType = "sports"
	ActivityArts          ActivityType = "arts"
	ActivityMusic         ActivityType = "music"
	ActivityEducation     ActivityType = "education"
	ActivityEntertainment ActivityType = "entertainment"
)

// DefaultActivityType is assigned to records stored without a primary type.
const DefaultActivityType = ActivityIndoorPlay

// Static description of one activity category: its label and the free-text
// synonyms that identify it inside a search query.
type ActivityCategory struct {
	Type        ActivityType
	DisplayName string
	Keywords    []string
}

// Ordered, read-only registry of activity categories.
// Iteration order is registration order, which keeps query extraction deterministic.
type ActivityRegistry struct {
	categories []ActivityCategory
	byType     map[ActivityType]int
}

func NewActivityRegistry(categories ...ActivityCategory) *ActivityRegistry {
	r := &ActivityRegistry{
		categories: make([]ActivityCategory, 0, len(categories)),
		byType:     make(map[ActivityType]int, len(categories)),
	}
	for _, c := range categories {
		if _, ok := r.byType[c.Type]; ok {
			continue
		}
		r.byType[c.Type] = len(r.categories)
		r.categories = append(r.categories, c)
	}
	return r
}

// Categories returns the registered categories in registration order.
func (r *ActivityRegistry) Categories() []ActivityCategory {
	out := make([]ActivityCategory, len(r.categories))
	copy(out, r.categories)
	return out
}

func (r *ActivityRegistry) Lookup(t ActivityType) (ActivityCategory, bool) {
	i, ok := r.byType[t]
	if !ok {
		return ActivityCategory{}, false
	}
	return r.categories[i], true
}

func (r *ActivityRegistry) Has(t ActivityType) bool {
	_, ok := r.byType[t]
	return ok
}

// DisplayName falls back to the raw type value for unknown categories.
func (r *ActivityRegistry) DisplayName(t ActivityType) string {
	if c, ok := r.Lookup(t); ok {
		return c.DisplayName
	}
	return string(t)
}

var defaultRegistry = NewActivityRegistry(
	ActivityCategory{
		Type:        ActivityIndoorPlay,
		DisplayName: "Indoor Play",
		Keywords:    []string{"indoor", "playroom", "play room", "playground indoor", "soft play", "trampoline", "παιδότοπος", "παιδοτοπος"},
	},
	ActivityCategory{
		Type:        ActivityOutdoorPlay,
		DisplayName: "Outdoor Play",
		Keywords:    []string{"outdoor", "park", "playground", "nature", "garden", "hiking", "πάρκο", "παρκο"},
	},
	ActivityCategory{
		Type:        ActivitySports,
		DisplayName: "Sports",
		Keywords:    []string{"sport", "football", "soccer", "basketball", "swimming", "tennis", "gym", "martial arts", "ποδόσφαιρο", "κολύμβηση"},
	},
	ActivityCategory{
		Type:        ActivityArts,
		DisplayName: "Arts",
		Keywords:    []string{"art", "crafts", "painting", "drawing", "pottery", "theatre", "theater", "ζωγραφική"},
	},
	ActivityCategory{
		Type:        ActivityMusic,
		DisplayName: "Music",
		Keywords:    []string{"piano", "guitar", "singing", "choir", "drums", "dance", "μουσική"},
	},
	ActivityCategory{
		Type:        ActivityEducation,
		DisplayName: "Education",
		Keywords:    []string{"learning", "school", "science", "coding", "robotics", "language", "museum", "library"},
	},
	ActivityCategory{
		Type:        ActivityEntertainment,
		DisplayName: "Entertainment",
		Keywords:    []string{"cinema", "movies", "party", "birthday", "zoo", "aquarium", "fun"},
	},
)

// DefaultActivityRegistry is the built-in category registry.
func DefaultActivityRegistry() *ActivityRegistry { return defaultRegistry }
