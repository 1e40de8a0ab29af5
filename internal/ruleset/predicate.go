package ruleset

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"rulesmith/internal/classify"
)

// Predicate grammar: terms joined by "&&". A term is a feature flag, a
// negated flag, or a version comparison:
//
//	has-security
//	!uses-composition-api && has-pinia
//	version >= 2 && version < 3
//
// There is no disjunction; authors express "or" by repeating a section with a
// different predicate.

var (
	reFlagTerm    = regexp.MustCompile(`^!?[a-z][a-z0-9-]*$`)
	reVersionTerm = regexp.MustCompile(`^version\s*(==|!=|>=|<=|>|<)\s*(\S+)$`)
)

// Predicate gates a template section on a profile's version and feature
// flags.
type Predicate struct {
	expr  string
	terms []predicateTerm
}

// predicateTerm is either a flag check or a version constraint, never both.
type predicateTerm struct {
	flag       string
	negate     bool
	constraint *semver.Constraints
}

// ParsePredicate compiles a when-expression. Invalid expressions are an
// error so that malformed templates fail at load time, not mid-synthesis.
func ParsePredicate(expr string) (*Predicate, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return nil, fmt.Errorf("empty predicate")
	}

	p := &Predicate{expr: trimmed}
	for _, raw := range strings.Split(trimmed, "&&") {
		term := strings.TrimSpace(raw)
		if term == "" {
			return nil, fmt.Errorf("empty term in predicate %q", trimmed)
		}

		if m := reVersionTerm.FindStringSubmatch(term); m != nil {
			op := m[1]
			if op == "==" {
				op = "="
			}
			c, err := semver.NewConstraint(op + " " + m[2])
			if err != nil {
				return nil, fmt.Errorf("invalid version term %q in predicate %q: %w", term, trimmed, err)
			}
			p.terms = append(p.terms, predicateTerm{constraint: c})
			continue
		}

		if term == "version" || strings.TrimPrefix(term, "!") == "version" {
			return nil, fmt.Errorf("incomplete version term in predicate %q", trimmed)
		}
		if !reFlagTerm.MatchString(term) {
			return nil, fmt.Errorf("invalid term %q in predicate %q", term, trimmed)
		}

		negate := strings.HasPrefix(term, "!")
		p.terms = append(p.terms, predicateTerm{flag: strings.TrimPrefix(term, "!"), negate: negate})
	}
	return p, nil
}

// String returns the source expression.
func (p *Predicate) String() string {
	return p.expr
}

// Eval reports whether every term holds for the profile. A profile version of
// "unknown", or one that does not parse as semver, fails every version term,
// negated or not.
func (p *Predicate) Eval(profile classify.Profile) bool {
	for _, term := range p.terms {
		if term.constraint != nil {
			v, err := semver.NewVersion(profile.Version)
			if err != nil {
				return false
			}
			if !term.constraint.Check(v) {
				return false
			}
			continue
		}
		if profile.Features.Has(term.flag) == term.negate {
			return false
		}
	}
	return true
}
