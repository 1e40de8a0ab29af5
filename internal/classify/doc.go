// Package classify implements the technology classifier: it inspects a project
// directory and reports which supported stacks are present, with what version,
// confidence and feature flags.
//
// Detection is data-driven. Each technology has a static, ordered table of
// marker rules (markers.go); one generic evaluator walks the table, probes the
// project scan, and accumulates evidence weight. A technology is detected once
// its accumulated weight reaches the detection threshold, and the weight maps
// onto a confidence band. There are no per-technology detector types.
//
// Marker kinds:
//   - file or directory existence at a known relative path
//   - glob match over the scanned path index (doublestar patterns)
//   - content pattern inside a named or globbed file
//   - dependency declared in a parsed manifest (pom.xml, Gradle build files,
//     package.json, requirements.txt, pyproject.toml, Pipfile, .gitlab-ci.yml)
//
// Version candidates are collected alongside detection with authority ranks:
// build manifest (3) beats lockfile (2) beats nested config file (1). When two
// candidates at the same highest authority disagree the version is reported as
// "unknown" rather than guessed.
//
// The package is read-only with respect to the filesystem. The single walk is
// bounded by pkg/fileops scanner defaults (depth cap, dependency/build/VCS
// directories skipped, symlink-loop safe); unreadable subpaths are logged as
// evidence gaps and never abort classification.
//
// Usage:
//
//	profiles, err := classify.Classify("/path/to/project", logger)
//	if err != nil {
//	    // errors.Is(err, fileops.ErrInvalidPath) when the root is unusable
//	}
//	for _, p := range profiles {
//	    fmt.Println(p.Name, p.Version, p.Confidence)
//	}
package classify
