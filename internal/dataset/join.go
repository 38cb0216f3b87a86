package dataset

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Policy decides what happens to statistics rows without a centroid.
type Policy string

const (
	// PolicyFill keeps unmatched rows with Located=false.
	PolicyFill Policy = "fill"
	// PolicyFlag keeps unmatched rows and logs a warning for each.
	PolicyFlag Policy = "flag"
	// PolicyDrop removes unmatched rows.
	PolicyDrop Policy = "drop"
)

// ParsePolicy validates a configured policy name.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyFill, PolicyFlag, PolicyDrop:
		return p, nil
	case "":
		return PolicyFill, nil
	default:
		return "", eris.Errorf("dataset: unknown join policy %q", s)
	}
}

// JoinResult is the outcome of Join.
type JoinResult struct {
	Records   []Record
	Unmatched []string // canonical names of statistics rows without a centroid
}

// Join left-joins totals to the reference table on the normalized country
// name. The substitution list is applied to both sides first. When the
// reference table repeats a country the first row wins, so every statistics
// row yields at most one record.
func Join(totals []CountryTotal, ref []Centroid, subs []Substitution, policy Policy) (*JoinResult, error) {
	switch policy {
	case PolicyFill, PolicyFlag, PolicyDrop:
	default:
		return nil, eris.Errorf("dataset: unknown join policy %q", policy)
	}

	sub := NewSubstituter(subs)

	index := make(map[string]Centroid, len(ref))
	duplicates := 0
	for _, c := range ref {
		k := Key(sub.Apply(c.Country))
		if _, ok := index[k]; ok {
			duplicates++
			continue
		}
		index[k] = c
	}
	if duplicates > 0 {
		zap.L().Debug("dataset: ignored duplicate reference rows", zap.Int("duplicates", duplicates))
	}

	res := &JoinResult{Records: make([]Record, 0, len(totals))}
	for _, t := range totals {
		rec := Record{Country: sub.Apply(t.Country), Total: t.Total}

		if c, ok := index[Key(rec.Country)]; ok {
			rec.Latitude = c.Latitude
			rec.Longitude = c.Longitude
			rec.Located = true
			res.Records = append(res.Records, rec)
			continue
		}

		res.Unmatched = append(res.Unmatched, rec.Country)
		switch policy {
		case PolicyFlag:
			zap.L().Warn("dataset: no coordinates for country", zap.String("country", rec.Country))
			res.Records = append(res.Records, rec)
		case PolicyFill:
			res.Records = append(res.Records, rec)
		}
	}

	zap.L().Info("dataset: join complete",
		zap.Int("records", len(res.Records)),
		zap.Int("unmatched", len(res.Unmatched)),
		zap.String("policy", string(policy)),
	)
	return res, nil
}
