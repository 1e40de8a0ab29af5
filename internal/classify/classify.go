package classify

import (
	"rulesmith/internal/logging"
)

// Classify inspects the project at root and returns one Profile per detected
// technology, in SupportedTechnologies order. Detection of one technology
// never suppresses another. The root must exist and be a directory; failures
// there carry fileops.ErrInvalidPath. Unreadable subpaths are logged as
// evidence gaps and skipped.
func Classify(root string, logger *logging.AppLogger) ([]Profile, error) {
	if logger == nil {
		logger = logging.GetDefault()
	}

	ps, err := newProjectScan(root, logger)
	if err != nil {
		return nil, err
	}
	defer ps.Close()

	profiles := make([]Profile, 0, 2)
	for _, tech := range SupportedTechnologies() {
		table, ok := markerTables[tech]
		if !ok {
			continue
		}
		profile, detected := evaluate(ps, tech, table)
		if !detected {
			continue
		}
		logger.Debug("technology detected",
			"technology", tech,
			"version", profile.Version,
			"confidence", profile.Confidence,
			"features", len(profile.Features),
		)
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

// evaluate runs one technology's marker table against the scan: detection
// rules accumulate weight and version candidates, then feature rules run only
// when the threshold was reached. Evidence keeps marker-table order.
func evaluate(ps *projectScan, tech Technology, table technologyMarkers) (Profile, bool) {
	var (
		weight     int
		evidence   []Evidence
		candidates []versionCandidate
	)

	for _, rule := range table.detection {
		res := rule.probe(ps)
		if !res.found {
			continue
		}
		weight += rule.weight
		evidence = append(evidence, Evidence{Path: res.path, Detail: detailOf(rule.detail, res), Weight: rule.weight})
		candidates = append(candidates, res.versions...)
	}

	if weight < detectionThreshold {
		return Profile{}, false
	}

	features := FeatureSet{}
	for _, rule := range table.features {
		if features.Has(rule.flag) {
			continue
		}
		res := rule.probe(ps)
		if !res.found {
			continue
		}
		features.Add(rule.flag)
		evidence = append(evidence, Evidence{Path: res.path, Detail: featureDetail(rule, res), Weight: 0})
	}

	return Profile{
		Name:       tech,
		Version:    resolveVersion(candidates),
		Confidence: bandFor(weight),
		Features:   features,
		Evidence:   evidence,
	}, true
}

func detailOf(base string, res probeResult) string {
	if res.detail == "" {
		return base
	}
	return base + " (" + res.detail + ")"
}

func featureDetail(rule featureRule, res probeResult) string {
	d := rule.flag + ": " + rule.detail
	if res.detail != "" && res.detail != rule.detail {
		d += " (" + res.detail + ")"
	}
	return d
}
