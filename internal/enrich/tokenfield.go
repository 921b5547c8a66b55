package enrich

import (
	"jobsight/internal/dataset"
)

// tokenizeColumn parses every row of a delimited list column
func tokenizeColumn(t *dataset.Table, source, delimiter string) [][]string {
	rowsTokens := make([][]string, t.NumRows())
	for row := 0; row < t.NumRows(); row++ {
		rowsTokens[row] = ParseListField(t.Value(row, source), delimiter)
	}
	return rowsTokens
}

// addIndicatorColumns fixes the vocabulary to the top-N tokens of the
// frequency table and appends one 0/1 column per entry, named
// prefix + sanitized token. Vocabulary order is frequency order, so the
// column set is stable across runs on the same data. Returns the vocabulary.
func addIndicatorColumns(out *dataset.Table, res *Result, rowsTokens [][]string, freq []TokenCount, topN int, prefix string) ([]string, error) {
	vocabulary := make([]string, 0, topN)
	for _, entry := range freq {
		if len(vocabulary) == topN {
			break
		}
		vocabulary = append(vocabulary, entry.Token)
	}

	columns := make([][]string, len(vocabulary))
	for i := range columns {
		columns[i] = make([]string, len(rowsTokens))
	}
	for row, tokens := range rowsTokens {
		indicators := TokensToIndicators(tokens, vocabulary)
		for i, indicator := range indicators {
			columns[i][row] = dataset.FormatInt(indicator)
		}
	}

	added := make(map[string]struct{}, len(vocabulary))
	for i, entry := range vocabulary {
		name := prefix + SanitizeColumnName(entry)
		// two tokens can sanitize to the same column; first one wins
		if _, dup := added[name]; dup {
			continue
		}
		if err := out.SetColumn(name, columns[i]); err != nil {
			return nil, err
		}
		added[name] = struct{}{}
		res.addColumn(name)
	}
	return vocabulary, nil
}

// addCountColumn appends a per-row token count column
func addCountColumn(out *dataset.Table, res *Result, rowsTokens [][]string, name string) error {
	counts := make([]string, len(rowsTokens))
	for row, tokens := range rowsTokens {
		counts[row] = dataset.FormatInt(len(tokens))
	}
	if err := out.SetColumn(name, counts); err != nil {
		return err
	}
	res.addColumn(name)
	return nil
}

// addFlagColumn appends a 0/1 column flagging rows whose tokens hit a lookup set
func addFlagColumn(out *dataset.Table, res *Result, rowsTokens [][]string, name string, lookup []string) error {
	set := foldSet(lookup)
	flags := make([]string, len(rowsTokens))
	for row, tokens := range rowsTokens {
		if anyTokenIn(tokens, set) {
			flags[row] = "1"
		} else {
			flags[row] = "0"
		}
	}
	if err := out.SetColumn(name, flags); err != nil {
		return err
	}
	res.addColumn(name)
	return nil
}
