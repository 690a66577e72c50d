package provider

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/yourorg/agentdesk-api/internal/criteria"
)

// ID names a provider; the active one is chosen by configuration.
type ID string

const (
	HomeReview ID = "homereview"
	MLSGrid    ID = "mlsgrid"
	Repliers   ID = "repliers"
)

// IDs lists every supported provider.
var IDs = []ID{HomeReview, MLSGrid, Repliers}

func ParseID(s string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range IDs {
		if id == known {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
}

// Dialect is one provider's vocabulary: how canonical criteria become query
// parameters, how pagination is expressed and how responses are shaped.
type Dialect interface {
	ID() ID
	// Encode is pure and never adds pagination.
	Encode(c criteria.Criteria) url.Values
	Paginate(q url.Values, p Page)
	SearchPath() string
	HealthPath() string
	Decode(raw []byte) (Result, error)
}

func DialectFor(id ID) (Dialect, error) {
	switch id {
	case HomeReview:
		return homeReview{}, nil
	case MLSGrid:
		return mlsGrid{}, nil
	case Repliers:
		return repliers{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, id)
}

// Encode translates criteria for the named provider.
func Encode(id ID, c criteria.Criteria) (url.Values, error) {
	d, err := DialectFor(id)
	if err != nil {
		return nil, err
	}
	return d.Encode(c), nil
}

// vocabulary maps canonical fields onto a dialect's parameter names. Fields
// missing from the map are not supported by that provider and are skipped.
type vocabulary map[criteria.Field]string

func (v vocabulary) encode(q url.Values, c criteria.Criteria) {
	for _, s := range c.Scalars() {
		if name, ok := v[s.Field]; ok {
			q.Set(name, s.Value)
		}
	}
	for _, l := range c.Lists() {
		name, ok := v[l.Field]
		if !ok {
			continue
		}
		for _, val := range l.Values {
			q.Add(name, val)
		}
	}
	for _, f := range c.Flags() {
		if name, ok := v[f.Field]; ok {
			q.Set(name, strconv.FormatBool(f.Value))
		}
	}
}
