package correlation

import "github.com/forensix-labs/volcorrelate/internal/model"

// TechniqueIndex implements the Technique Mapper: for every indicator,
// each of its technique_ids gets the indicator's kind appended to a
// list keyed by that identifier. Insertion order is preserved and each
// per-key list is a stable ordered set (no duplicate kinds).
func TechniqueIndex(iocs []*model.Indicator) map[string][]string {
	index := make(map[string][]string)
	for _, ioc := range iocs {
		for _, id := range ioc.TechniqueIDs {
			if !containsString(index[id], ioc.Kind) {
				index[id] = append(index[id], ioc.Kind)
			}
		}
	}
	return index
}
