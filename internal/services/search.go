package services

import (
	"fmt"
	"pamekids-service/internal/domain"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

type MatchField string

const (
	FieldName         MatchField = "name"
	FieldActivityType MatchField = "activityType"
	FieldAgeRange     MatchField = "ageRange"
	FieldAddress      MatchField = "address"
	FieldDescription  MatchField = "description"
)

type MatchType string

const (
	MatchExact    MatchType = "exact"
	MatchPartial  MatchType = "partial"
	MatchSemantic MatchType = "semantic"
)

// SearchMatch is one location's best match for a query.
// Location points into the slice passed to Search.
type SearchMatch struct {
	Location      *domain.Location
	Field         MatchField
	Text          string
	Type          MatchType
	Priority      int
	AgeMatch      bool
	ActivityMatch bool

	sortName string
}

const (
	DefaultAgeWeight      = 1
	DefaultActivityWeight = 2
)

// SearchEngine ranks locations against free-text queries. It holds no
// per-query state and is safe for concurrent use.
type SearchEngine struct {
	Registry       *domain.ActivityRegistry
	AgeWeight      int
	ActivityWeight int

	categories []foldedCategory
}

type foldedCategory struct {
	category domain.ActivityCategory
	name     string
	keywords []string
}

func NewSearchEngine(registry *domain.ActivityRegistry) *SearchEngine {
	if registry == nil {
		registry = domain.DefaultActivityRegistry()
	}
	e := &SearchEngine{
		Registry:       registry,
		AgeWeight:      DefaultAgeWeight,
		ActivityWeight: DefaultActivityWeight,
	}
	for _, c := range registry.Categories() {
		fc := foldedCategory{category: c, name: foldText(c.DisplayName)}
		for _, kw := range c.Keywords {
			if k := strings.TrimSpace(foldText(kw)); k != "" {
				fc.keywords = append(fc.keywords, k)
			}
		}
		e.categories = append(e.categories, fc)
	}
	return e
}

// Search runs a one-off query with default weights.
func Search(locations []domain.Location, query string, registry *domain.ActivityRegistry) []SearchMatch {
	return NewSearchEngine(registry).Search(locations, query)
}

// Score is the corroboration weight used as the third ranking key.
func (e *SearchEngine) Score(m SearchMatch) int {
	s := 0
	if m.AgeMatch {
		s += e.AgeWeight
	}
	if m.ActivityMatch {
		s += e.ActivityWeight
	}
	return s
}

// query holds the signals extracted once per Search call.
type query struct {
	text       string
	ages       []int
	activities []domain.ActivityCategory
}

// matcher reports the match a single field produces, if any.
type matcher struct {
	field    MatchField
	priority int
	match    func(loc *domain.Location, q *query, flags matchFlags) (text string, typ MatchType, ok bool)
}

type matchFlags struct {
	age      bool
	activity bool
	// category is the first extracted category the location offers.
	category *domain.ActivityCategory
}

// Evaluated in order; the first hit wins.
var matchers = []matcher{
	{field: FieldName, priority: 1, match: func(loc *domain.Location, q *query, _ matchFlags) (string, MatchType, bool) {
		name := foldText(loc.Name)
		if !strings.Contains(name, q.text) {
			return "", "", false
		}
		if name == q.text {
			return loc.Name, MatchExact, true
		}
		return loc.Name, MatchPartial, true
	}},
	{field: FieldActivityType, priority: 2, match: func(_ *domain.Location, _ *query, f matchFlags) (string, MatchType, bool) {
		if f.category == nil {
			return "", "", false
		}
		return f.category.DisplayName, MatchSemantic, true
	}},
	{field: FieldAgeRange, priority: 3, match: func(loc *domain.Location, q *query, f matchFlags) (string, MatchType, bool) {
		// Ages alone do not list a location for an activity it does not offer.
		if !f.age || (len(q.activities) > 0 && !f.activity) {
			return "", "", false
		}
		return fmt.Sprintf("Ages %d-%d", loc.AgeRange.Min, loc.AgeRange.Max), MatchSemantic, true
	}},
	{field: FieldAddress, priority: 4, match: func(loc *domain.Location, q *query, _ matchFlags) (string, MatchType, bool) {
		if !strings.Contains(foldText(loc.Address), q.text) {
			return "", "", false
		}
		return loc.Address, MatchPartial, true
	}},
	{field: FieldDescription, priority: 5, match: func(loc *domain.Location, q *query, _ matchFlags) (string, MatchType, bool) {
		if !strings.Contains(foldText(loc.Description), q.text) {
			return "", "", false
		}
		return loc.Description, MatchPartial, true
	}},
}

// Search returns at most one match per location, ranked by exactness,
// field priority, corroboration score, then name.
func (e *SearchEngine) Search(locations []domain.Location, raw string) []SearchMatch {
	text := strings.TrimSpace(foldText(raw))
	if text == "" {
		return []SearchMatch{}
	}

	q := &query{
		text:       text,
		ages:       ExtractAges(text),
		activities: e.extractActivities(text),
	}

	out := make([]SearchMatch, 0)
	for i := range locations {
		loc := &locations[i]
		flags := q.flagsFor(loc)

		for _, m := range matchers {
			matchText, typ, ok := m.match(loc, q, flags)
			if !ok {
				continue
			}
			out = append(out, SearchMatch{
				Location:      loc,
				Field:         m.field,
				Text:          matchText,
				Type:          typ,
				Priority:      m.priority,
				AgeMatch:      flags.age,
				ActivityMatch: flags.activity,
				sortName:      foldText(loc.Name),
			})
			break
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ae, be := a.Type == MatchExact, b.Type == MatchExact; ae != be {
			return ae
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if sa, sb := e.Score(a), e.Score(b); sa != sb {
			return sa > sb
		}
		if a.sortName != b.sortName {
			return a.sortName < b.sortName
		}
		return a.Location.ID < b.Location.ID
	})

	return out
}

func (q *query) flagsFor(loc *domain.Location) matchFlags {
	var f matchFlags
	for _, age := range q.ages {
		if loc.AgeRange.Contains(age) {
			f.age = true
			break
		}
	}
	for i := range q.activities {
		if loc.HasType(q.activities[i].Type) {
			f.activity = true
			f.category = &q.activities[i]
			break
		}
	}
	return f
}

// ExtractActivities returns the categories a query names, in registry order.
func (e *SearchEngine) ExtractActivities(raw string) []domain.ActivityType {
	cats := e.extractActivities(strings.TrimSpace(foldText(raw)))
	out := make([]domain.ActivityType, 0, len(cats))
	for _, c := range cats {
		out = append(out, c.Type)
	}
	return out
}

func (e *SearchEngine) extractActivities(text string) []domain.ActivityCategory {
	var out []domain.ActivityCategory
	for _, fc := range e.categories {
		if fc.name != "" && strings.Contains(text, fc.name) {
			out = append(out, fc.category)
			continue
		}
		for _, kw := range fc.keywords {
			if containsWord(text, kw) {
				out = append(out, fc.category)
				break
			}
		}
	}
	return out
}

const maxChildAge = 18

var (
	yearsOldPattern = regexp.MustCompile(`\b(\d{1,2})\s*-?\s*(?:years?|yrs?)\s*-?\s*olds?\b`)
	agesListPattern = regexp.MustCompile(`\bages?\s*:?\s*(\d{1,2}\b(?:\s*(?:,|&|\band\b|\bor\b|\bto\b|-)\s*\d{1,2}\b)*)`)
	yoPattern       = regexp.MustCompile(`\b(\d{1,2})\s*y\.?\s*o\b`)
	greekAgePattern = regexp.MustCompile(`\b(\d{1,2})\s*(?:ετων|ετους|χρονων|χρονου)`)
	numberPattern   = regexp.MustCompile(`\d{1,2}`)
)

// ExtractAges finds child ages (0-18) mentioned in a query, in order of first
// occurrence and without duplicates. Recognized forms: "5 year old",
// "5-year-old", "age 5", "ages 3 and 7", "5yo" and the Greek "5 ετών".
func ExtractAges(raw string) []int {
	text := foldText(raw)

	type hit struct{ pos, age int }
	var hits []hit
	add := func(pos int, digits string) {
		n, err := strconv.Atoi(digits)
		if err != nil || n < 0 || n > maxChildAge {
			return
		}
		hits = append(hits, hit{pos: pos, age: n})
	}

	for _, re := range []*regexp.Regexp{yearsOldPattern, yoPattern, greekAgePattern} {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			add(m[2], text[m[2]:m[3]])
		}
	}
	for _, m := range agesListPattern.FindAllStringSubmatchIndex(text, -1) {
		list := text[m[2]:m[3]]
		for _, n := range numberPattern.FindAllStringIndex(list, -1) {
			add(m[2]+n[0], list[n[0]:n[1]])
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	seen := make(map[int]bool, len(hits))
	ages := make([]int, 0, len(hits))
	for _, h := range hits {
		if seen[h.age] {
			continue
		}
		seen[h.age] = true
		ages = append(ages, h.age)
	}
	return ages
}
