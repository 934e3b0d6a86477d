package news

import "fmt"

// SourceLink is the aggregator-specific companion link shown next to a
// headline, e.g. "[hn]" pointing at a discussion thread.
type SourceLink struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Headline is a single headline as collected from one source.
type Headline struct {
	Source     string      `json:"source"`
	Title      string      `json:"title"`
	URL        string      `json:"url"`
	Time       string      `json:"time,omitempty"`
	SourceLink *SourceLink `json:"source_link,omitempty"`
}

// Valid reports whether the headline carries the fields the clusterer needs.
func (h Headline) Valid() bool {
	return h.Title != "" && h.URL != ""
}

// Sources maps a source name to its headlines in page order.
type Sources map[string][]Headline

// Collection is what a headline producer hands to the pipeline. Order keeps
// the source encounter order, since Go maps do not.
type Collection struct {
	Date    string
	Topic   string
	Order   []string
	Sources Sources
}

// Add appends headlines for a source, remembering first-seen order.
func (c *Collection) Add(source string, headlines ...Headline) {
	if c.Sources == nil {
		c.Sources = make(Sources)
	}
	if _, ok := c.Sources[source]; !ok {
		c.Order = append(c.Order, source)
	}
	c.Sources[source] = append(c.Sources[source], headlines...)
}

// Flatten returns every headline in source encounter order, then page order.
func (c *Collection) Flatten() []Headline {
	var out []Headline
	for _, name := range c.Order {
		for _, h := range c.Sources[name] {
			if h.Source == "" {
				h.Source = name
			}
			out = append(out, h)
		}
	}
	return out
}

// Mode selects the clustering policy.
type Mode int

const (
	GeneralToday Mode = iota
	GeneralWeek
	TopicToday
	TopicWeek
)

// ModeFor derives the mode from the two input switches.
func ModeFor(topicFiltered, lastWeek bool) Mode {
	switch {
	case topicFiltered && lastWeek:
		return TopicWeek
	case topicFiltered:
		return TopicToday
	case lastWeek:
		return GeneralWeek
	default:
		return GeneralToday
	}
}

func (m Mode) String() string {
	switch m {
	case GeneralToday:
		return "general-today"
	case GeneralWeek:
		return "general-week"
	case TopicToday:
		return "topic-today"
	case TopicWeek:
		return "topic-week"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{GeneralToday, GeneralWeek, TopicToday, TopicWeek} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// Week reports whether the mode aggregates several days.
func (m Mode) Week() bool { return m == GeneralWeek || m == TopicWeek }

// ImageResult is a representative image found for a topic group.
type ImageResult struct {
	URL              string   `json:"url"`
	Alt              string   `json:"alt"`
	SourceURL        string   `json:"source_url"`
	AttemptedSources []string `json:"attempted_sources,omitempty"`
}

// ArticleError describes why a single article yielded no image.
type ArticleError struct {
	Source  string `json:"source"`
	URL     string `json:"url"`
	Kind    string `json:"error_type"`
	Message string `json:"error"`
}

func (e *ArticleError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.URL)
}

// ImageError is the group-level failure after every attempt failed.
type ImageError struct {
	Kind             string         `json:"error_type"`
	Message          string         `json:"error"`
	AttemptedSources []string       `json:"attempted_sources"`
	DetailedErrors   []ArticleError `json:"detailed_errors"`
	TotalAttempts    int            `json:"total_attempts"`
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Image holds exactly one of Result or Err once resolution ran.
type Image struct {
	Result *ImageResult
	Err    *ImageError
}

// TopicGroup is one ranked cluster of headlines about the same story.
type TopicGroup struct {
	ID          int        `json:"id"`
	Name        string     `json:"topic_name"`
	Headlines   []Headline `json:"headlines"`
	Count       int        `json:"count"`
	SourceCount int        `json:"sources_count"`
	Image       *Image     `json:"image,omitempty"`
}

// CountSources returns the number of distinct sources among headlines.
func CountSources(headlines []Headline) int {
	seen := make(map[string]struct{}, len(headlines))
	for _, h := range headlines {
		seen[h.Source] = struct{}{}
	}
	return len(seen)
}
