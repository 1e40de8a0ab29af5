package classify

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Technology identifies one supported stack.
type Technology string

const (
	TechSpringBoot Technology = "spring-boot"
	TechAngular    Technology = "angular"
	TechVue        Technology = "vue"
	TechPythonWeb  Technology = "python-web"
	TechJavaLegacy Technology = "java-legacy"
	TechGitLabCI   Technology = "gitlab-ci"
)

// VersionUnknown is reported when no version candidate survives authority
// resolution. It fails every version predicate during synthesis.
const VersionUnknown = "unknown"

func (t Technology) String() string {
	return string(t)
}

// SupportedTechnologies returns all detectable technologies in their canonical
// evaluation order.
func SupportedTechnologies() []Technology {
	return []Technology{
		TechSpringBoot,
		TechAngular,
		TechVue,
		TechPythonWeb,
		TechJavaLegacy,
		TechGitLabCI,
	}
}

// ParseTechnology resolves a user-supplied name (CLI flag, MCP argument) to a
// supported technology. Matching is case-insensitive.
func ParseTechnology(name string) (Technology, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, t := range SupportedTechnologies() {
		if string(t) == needle {
			return t, true
		}
	}
	return "", false
}

// Confidence is the qualitative strength of a detection, derived from
// accumulated marker weight.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

func (c Confidence) String() string {
	return string(c)
}

// FeatureSet holds the boolean feature flags detected for one technology,
// e.g. "has-security" or "uses-composition-api".
type FeatureSet map[string]bool

func (f FeatureSet) Has(flag string) bool {
	return f[flag]
}

func (f FeatureSet) Add(flag string) {
	f[flag] = true
}

// Sorted returns the set flags in lexicographic order for deterministic
// rendering.
func (f FeatureSet) Sorted() []string {
	flags := make([]string, 0, len(f))
	for flag, set := range f {
		if set {
			flags = append(flags, flag)
		}
	}
	sort.Strings(flags)
	return flags
}

// MarshalJSON renders the set as a sorted array so JSON output is stable.
func (f FeatureSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Sorted())
}

// UnmarshalJSON accepts the array form produced by MarshalJSON.
func (f *FeatureSet) UnmarshalJSON(data []byte) error {
	var flags []string
	if err := json.Unmarshal(data, &flags); err != nil {
		return err
	}
	set := make(FeatureSet, len(flags))
	for _, flag := range flags {
		set.Add(flag)
	}
	*f = set
	return nil
}

// Evidence is one marker hit that justified a detection. Weight is the
// contribution to the detection score; feature and version markers record
// weight 0.
type Evidence struct {
	Path   string `json:"path"`
	Detail string `json:"detail"`
	Weight int    `json:"weight"`
}

// Profile is the detection result for one technology in one project.
type Profile struct {
	Name       Technology `json:"name"`
	Version    string     `json:"version"`
	Confidence Confidence `json:"confidence"`
	Features   FeatureSet `json:"features"`
	Evidence   []Evidence `json:"evidence"`
}

func (p Profile) HasFeature(flag string) bool {
	return p.Features.Has(flag)
}

func (p Profile) String() string {
	return fmt.Sprintf("%s %s (%s)", p.Name, p.Version, p.Confidence)
}
