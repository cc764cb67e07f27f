package services

import (
	"regexp"

	"github.com/sahilchouksey/pyq-analyzer/model"
)

var paperYearPattern = regexp.MustCompile(`(19|20)\d{2}`)

// PaperRef identifies a source paper
type PaperRef struct {
	Name string
	Year string
}

// AggregatedQuestion is one unique question with its occurrence data
type AggregatedQuestion struct {
	Text          string
	NormalizedKey string
	Frequency     int
	Papers        []PaperRef
}

// Aggregate merges extracted questions by normalized key. The first
// occurrence fixes the display text; output keeps first-occurrence order.
func Aggregate(questions []ExtractedQuestion) []AggregatedQuestion {
	index := make(map[string]int, len(questions))
	var out []AggregatedQuestion

	for _, q := range questions {
		key := model.NormalizeQuestion(q.Text)
		if key == "" {
			continue
		}
		paper := PaperRef{Name: q.SourceDocument, Year: PaperYear(q.SourceDocument)}

		if i, ok := index[key]; ok {
			out[i].Frequency++
			out[i].Papers = append(out[i].Papers, paper)
			continue
		}

		index[key] = len(out)
		out = append(out, AggregatedQuestion{
			Text:          q.Text,
			NormalizedKey: key,
			Frequency:     1,
			Papers:        []PaperRef{paper},
		})
	}
	return out
}

// PaperYear returns the first 19xx/20xx year in a file name, or ""
func PaperYear(fileName string) string {
	return paperYearPattern.FindString(fileName)
}
