package coco

import (
	"slices"
	"strconv"
	"strings"

	"github.com/Iron-Ham/cocoprune/internal/errors"
)

// RemovalSet is the set of category identifiers to drop. Duplicates collapse.
type RemovalSet map[int64]struct{}

// NewRemovalSet builds a set from the given identifiers.
func NewRemovalSet(ids ...int64) RemovalSet {
	set := make(RemovalSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// ParseRemovalSet parses a comma-separated list of integers such as "0,39".
// Surrounding whitespace around each token is ignored.
func ParseRemovalSet(s string) (RemovalSet, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.NewArgumentError("at least one category ID must be specified").
			WithArgument("category_ids").WithValue(s)
	}

	tokens := strings.Split(s, ",")
	ids := make([]int64, 0, len(tokens))
	for _, tok := range tokens {
		id, err := strconv.ParseInt(strings.TrimSpace(tok), 10, 64)
		if err != nil {
			return nil, errors.NewArgumentError("category IDs must be integers separated by commas").
				WithArgument("category_ids").WithValue(s)
		}
		ids = append(ids, id)
	}
	return NewRemovalSet(ids...), nil
}

// Contains reports whether id has an integer value in the set.
func (s RemovalSet) Contains(id ID) bool {
	v, ok := id.Int64()
	if !ok {
		return false
	}
	_, found := s[v]
	return found
}

// IDs returns the identifiers in ascending order.
func (s RemovalSet) IDs() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// String renders the set in the same comma-separated form it is parsed from.
func (s RemovalSet) String() string {
	ids := s.IDs()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
