package classifier

// MicroF1 computes the micro-averaged F1 score over multi-label
// predictions: true/false positives and false negatives are pooled across
// every (row, tag) decision before the ratio is taken. Tags the model never
// saw in training simply show up here as false negatives.
func MicroF1(truth, predicted [][]string) float64 {
	var tp, fp, fn float64

	for i := range truth {
		truthSet := toSet(truth[i])
		var predSet map[string]struct{}
		if i < len(predicted) {
			predSet = toSet(predicted[i])
		}

		for tag := range predSet {
			if _, ok := truthSet[tag]; ok {
				tp++
			} else {
				fp++
			}
		}
		for tag := range truthSet {
			if _, ok := predSet[tag]; !ok {
				fn++
			}
		}
	}

	denom := 2*tp + fp + fn
	if denom == 0 {
		return 0
	}
	return 2 * tp / denom
}

func toSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		set[tag] = struct{}{}
	}
	return set
}
