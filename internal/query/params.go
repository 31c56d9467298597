package query

// Parameters enumerates the topic, phrasing, and verbosity pools the
// generator draws from. The sets are fixed for the lifetime of a run.
type Parameters struct {
	Categories   []string
	QueryTypes   []string
	Complexities []string
}

// DefaultParameters returns the standard search parameter pools.
func DefaultParameters() Parameters {
	return Parameters{
		Categories: []string{
			"technology", "current events", "pop culture", "science",
			"entertainment", "sports", "health", "travel", "food",
			"history", "nature", "space", "education", "business",
		},
		QueryTypes: []string{
			"question", "fact", "news search", "definition",
			"how to", "what is", "why does", "comparison",
		},
		Complexities: []string{"simple", "detailed", "comprehensive"},
	}
}
