package news

import "encoding/json"

// Report is the document produced for one run.
type Report struct {
	Date           string       `json:"date"`
	Topic          string       `json:"topic"`
	IsLastWeek     bool         `json:"is_last_week"`
	TimePeriod     string       `json:"time_period"`
	CommonTopics   []TopicGroup `json:"common_topics"`
	TotalGroups    int          `json:"total_groups"`
	TotalHeadlines int          `json:"total_headlines"`
}

// MarshalJSON flattens the image into whichever form is present, so a
// consumer sees either {url, alt, source_url} or the error fields.
func (i Image) MarshalJSON() ([]byte, error) {
	if i.Result != nil {
		return json.Marshal(i.Result)
	}
	if i.Err != nil {
		return json.Marshal(i.Err)
	}
	return []byte("null"), nil
}
