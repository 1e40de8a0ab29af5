package classify

import (
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
)

// pythonWebFrameworks are the frameworks that make a Python project a web
// project, in probe order.
var pythonWebFrameworks = []string{"django", "flask", "fastapi"}

// requirementSet maps normalized package names to their pinned version, or ""
// for unpinned entries.
type requirementSet map[string]string

func normalizePyName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "_", "-")
}

var reRequirementLine = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)\s*(?:\[[^\]]*\])?\s*(?:==\s*([^\s;#]+))?`)

func parseRequirements(data []byte) requirementSet {
	set := requirementSet{}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		m := reRequirementLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		set[normalizePyName(m[1])] = m[2]
	}
	return set
}

// requirementsAt returns the parsed requirements file at rel, or nil.
func (ps *projectScan) requirementsAt(rel string) requirementSet {
	if cached, ok := ps.reqs[rel]; ok {
		return cached
	}
	data, ok := ps.readFile(rel)
	if !ok {
		ps.reqs[rel] = nil
		return nil
	}
	set := parseRequirements(data)
	ps.reqs[rel] = set
	return set
}

func requirementsPaths(ps *projectScan) []string {
	var paths []string
	for _, p := range []string{"requirements.txt", "requirements-dev.txt", "dev-requirements.txt"} {
		if ps.fileExists(p) {
			paths = append(paths, p)
		}
	}
	return paths
}

// pyprojectFile covers PEP 621 metadata and the poetry tables.
type pyprojectFile struct {
	Project struct {
		Name                 string              `toml:"name"`
		RequiresPython       string              `toml:"requires-python"`
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Dependencies    map[string]interface{} `toml:"dependencies"`
			DevDependencies map[string]interface{} `toml:"dev-dependencies"`
			Group           map[string]struct {
				Dependencies map[string]interface{} `toml:"dependencies"`
			} `toml:"group"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

var rePyDependencyName = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)`)

// dependency reports whether name is declared anywhere in the pyproject, with
// its constraint when one is given.
func (p *pyprojectFile) dependency(name string) (string, bool) {
	match := func(entry string) (string, bool) {
		m := rePyDependencyName.FindStringSubmatch(strings.TrimSpace(entry))
		if m == nil || normalizePyName(m[1]) != name {
			return "", false
		}
		return strings.TrimSpace(entry[len(m[1]):]), true
	}

	for _, entry := range p.Project.Dependencies {
		if constraint, ok := match(entry); ok {
			return constraint, true
		}
	}
	for _, entries := range p.Project.OptionalDependencies {
		for _, entry := range entries {
			if constraint, ok := match(entry); ok {
				return constraint, true
			}
		}
	}

	tables := []map[string]interface{}{p.Tool.Poetry.Dependencies, p.Tool.Poetry.DevDependencies}
	for _, group := range p.Tool.Poetry.Group {
		tables = append(tables, group.Dependencies)
	}
	for _, table := range tables {
		for key, value := range table {
			if normalizePyName(key) == name {
				return poetryVersion(value), true
			}
		}
	}
	return "", false
}

// requiresPython returns the declared Python constraint, PEP 621 first, then
// the poetry python dependency.
func (p *pyprojectFile) requiresPython() string {
	if p.Project.RequiresPython != "" {
		return p.Project.RequiresPython
	}
	if v, ok := p.Tool.Poetry.Dependencies["python"]; ok {
		return poetryVersion(v)
	}
	return ""
}

// poetryVersion unwraps a poetry dependency value, which is either a bare
// constraint string or a table with a version key.
func poetryVersion(value interface{}) string {
	switch t := value.(type) {
	case string:
		return t
	case map[string]interface{}:
		if s, ok := t["version"].(string); ok {
			return s
		}
	}
	return ""
}

// pyprojectAt returns the parsed pyproject.toml at rel, or nil.
func (ps *projectScan) pyprojectAt(rel string) *pyprojectFile {
	if cached, ok := ps.pyprojs[rel]; ok {
		return cached
	}
	data, ok := ps.readFile(rel)
	if !ok {
		ps.pyprojs[rel] = nil
		return nil
	}
	var proj pyprojectFile
	if err := toml.Unmarshal(data, &proj); err != nil {
		ps.logger.Debug("pyproject.toml unparseable", "path", rel, "error", err)
		ps.pyprojs[rel] = nil
		return nil
	}
	ps.pyprojs[rel] = &proj
	return &proj
}

// pipfileFile covers the Pipfile package tables and the requires section.
type pipfileFile struct {
	Packages    map[string]interface{} `toml:"packages"`
	DevPackages map[string]interface{} `toml:"dev-packages"`
	Requires    struct {
		PythonVersion string `toml:"python_version"`
	} `toml:"requires"`
}

func (p *pipfileFile) dependency(name string) (string, bool) {
	for _, table := range []map[string]interface{}{p.Packages, p.DevPackages} {
		for key, value := range table {
			if normalizePyName(key) == name {
				return poetryVersion(value), true
			}
		}
	}
	return "", false
}

// pipfileAt returns the parsed Pipfile at rel, or nil.
func (ps *projectScan) pipfileAt(rel string) *pipfileFile {
	if cached, ok := ps.pipfiles[rel]; ok {
		return cached
	}
	data, ok := ps.readFile(rel)
	if !ok {
		ps.pipfiles[rel] = nil
		return nil
	}
	var pf pipfileFile
	if err := toml.Unmarshal(data, &pf); err != nil {
		ps.logger.Debug("Pipfile unparseable", "path", rel, "error", err)
		ps.pipfiles[rel] = nil
		return nil
	}
	ps.pipfiles[rel] = &pf
	return &pf
}

var (
	reSetupInstallRequires = regexp.MustCompile(`install_requires\s*=\s*\[([^\]]*)\]`)
	reSetupPythonRequires  = regexp.MustCompile(`python_requires\s*=\s*["']([^"']+)["']`)
	rePythonVersionPin     = regexp.MustCompile(`^(\d+\.\d+(?:\.\d+)?)`)
)

// requirementsFrameworkMarker matches a web framework declared in a
// requirements file.
func requirementsFrameworkMarker() probeFunc {
	return func(ps *projectScan) probeResult {
		for _, path := range requirementsPaths(ps) {
			set := ps.requirementsAt(path)
			if set == nil {
				continue
			}
			for _, fw := range pythonWebFrameworks {
				if pin, ok := set[fw]; ok {
					detail := fw
					if pin != "" {
						detail = fw + "==" + pin
					}
					return probeResult{found: true, path: path, detail: detail}
				}
			}
		}
		return probeResult{}
	}
}

// pyprojectFrameworkMarker matches a web framework declared in pyproject.toml.
func pyprojectFrameworkMarker() probeFunc {
	return func(ps *projectScan) probeResult {
		proj := ps.pyprojectAt("pyproject.toml")
		if proj == nil {
			return probeResult{}
		}
		for _, fw := range pythonWebFrameworks {
			if constraint, ok := proj.dependency(fw); ok {
				detail := strings.TrimSpace(fw + " " + constraint)
				return probeResult{found: true, path: "pyproject.toml", detail: detail}
			}
		}
		return probeResult{}
	}
}

// pipfileFrameworkMarker matches a web framework declared in a Pipfile.
func pipfileFrameworkMarker() probeFunc {
	return func(ps *projectScan) probeResult {
		pf := ps.pipfileAt("Pipfile")
		if pf == nil {
			return probeResult{}
		}
		for _, fw := range pythonWebFrameworks {
			if constraint, ok := pf.dependency(fw); ok {
				detail := strings.TrimSpace(fw + " " + constraint)
				return probeResult{found: true, path: "Pipfile", detail: detail}
			}
		}
		return probeResult{}
	}
}

// setupPyFrameworkMarker matches a web framework inside a setup.py
// install_requires block.
func setupPyFrameworkMarker() probeFunc {
	return func(ps *projectScan) probeResult {
		data, ok := ps.readFile("setup.py")
		if !ok {
			return probeResult{}
		}
		m := reSetupInstallRequires.FindSubmatch(data)
		if m == nil {
			return probeResult{}
		}
		block := strings.ToLower(string(m[1]))
		for _, fw := range pythonWebFrameworks {
			if strings.Contains(block, `"`+fw) || strings.Contains(block, `'`+fw) {
				return probeResult{found: true, path: "setup.py", detail: fw + " in install_requires"}
			}
		}
		return probeResult{}
	}
}

// entrypointImportMarker matches pattern inside the conventional application
// entry files.
func entrypointImportMarker(pattern *regexp.Regexp) probeFunc {
	return func(ps *projectScan) probeResult {
		for _, path := range []string{"app.py", "main.py"} {
			if data, ok := ps.readFile(path); ok && pattern.Match(data) {
				return probeResult{found: true, path: path}
			}
		}
		return probeResult{}
	}
}

// pythonDependencyMarker matches name declared in any Python manifest.
func pythonDependencyMarker(name string) probeFunc {
	return func(ps *projectScan) probeResult {
		for _, path := range requirementsPaths(ps) {
			if set := ps.requirementsAt(path); set != nil {
				if _, ok := set[name]; ok {
					return probeResult{found: true, path: path, detail: name}
				}
			}
		}
		if proj := ps.pyprojectAt("pyproject.toml"); proj != nil {
			if _, ok := proj.dependency(name); ok {
				return probeResult{found: true, path: "pyproject.toml", detail: name}
			}
		}
		if pf := ps.pipfileAt("Pipfile"); pf != nil {
			if _, ok := pf.dependency(name); ok {
				return probeResult{found: true, path: "Pipfile", detail: name}
			}
		}
		if data, ok := ps.readFile("setup.py"); ok {
			lower := strings.ToLower(string(data))
			if strings.Contains(lower, `"`+name) || strings.Contains(lower, `'`+name) {
				return probeResult{found: true, path: "setup.py", detail: name}
			}
		}
		return probeResult{}
	}
}

// pythonVersionFileMarker extracts the pyenv pin; nested-config authority.
func pythonVersionFileMarker() probeFunc {
	return func(ps *projectScan) probeResult {
		data, ok := ps.readFile(".python-version")
		if !ok {
			return probeResult{}
		}
		m := rePythonVersionPin.FindStringSubmatch(strings.TrimSpace(string(data)))
		if m == nil {
			return probeResult{}
		}
		return probeResult{
			found:    true,
			path:     ".python-version",
			detail:   "python " + m[1],
			versions: []versionCandidate{{value: m[1], authority: authorityConfig, path: ".python-version"}},
		}
	}
}

// pythonRequiresMarker extracts the Python constraint from pyproject.toml and
// setup.py; build-manifest authority.
func pythonRequiresMarker() probeFunc {
	return func(ps *projectScan) probeResult {
		var res probeResult
		if proj := ps.pyprojectAt("pyproject.toml"); proj != nil {
			if spec := proj.requiresPython(); spec != "" {
				res.found = true
				res.path = "pyproject.toml"
				res.detail = "requires-python " + spec
				res.versions = append(res.versions, versionCandidate{value: spec, authority: authorityManifest, path: "pyproject.toml"})
			}
		}
		if data, ok := ps.readFile("setup.py"); ok {
			if m := reSetupPythonRequires.FindSubmatch(data); m != nil {
				spec := string(m[1])
				if !res.found {
					res.found = true
					res.path = "setup.py"
					res.detail = "python_requires " + spec
				}
				res.versions = append(res.versions, versionCandidate{value: spec, authority: authorityManifest, path: "setup.py"})
			}
		}
		return res
	}
}

// pipfilePythonMarker extracts the Pipfile python_version; build-manifest
// authority.
func pipfilePythonMarker() probeFunc {
	return func(ps *projectScan) probeResult {
		pf := ps.pipfileAt("Pipfile")
		if pf == nil || pf.Requires.PythonVersion == "" {
			return probeResult{}
		}
		v := pf.Requires.PythonVersion
		return probeResult{
			found:    true,
			path:     "Pipfile",
			detail:   "python_version " + v,
			versions: []versionCandidate{{value: v, authority: authorityManifest, path: "Pipfile"}},
		}
	}
}
