package search

import "caregate/models"

// Merge policies for closing a search session.
const (
	MergeFirstWriterWins = "first_writer_wins"
	MergeKeepLatest      = "keep_latest"
)

// Merge folds the per-participant responses into one aggregate, walking
// participants in arrival order. Items are deduplicated by id: under
// first_writer_wins the earliest arrival keeps the item, under keep_latest
// later arrivals overwrite it in place. The quote follows the same rule.
func Merge(policy string, arrival []string, responses map[string]models.SearchResult) *models.SearchResult {
	agg := &models.SearchResult{}
	index := make(map[string]int)

	for _, participantID := range arrival {
		res, ok := responses[participantID]
		if !ok {
			continue
		}
		for _, item := range res.Items {
			if at, seen := index[item.ID]; seen {
				if policy == MergeKeepLatest {
					agg.Items[at] = item
				}
				continue
			}
			index[item.ID] = len(agg.Items)
			agg.Items = append(agg.Items, item)
		}
		if res.Quote != nil && (agg.Quote == nil || policy == MergeKeepLatest) {
			q := *res.Quote
			agg.Quote = &q
		}
	}
	return agg
}
