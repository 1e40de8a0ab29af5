package classify

import (
	"encoding/json"
	"regexp"
)

// packageJSON is the subset of package.json the classifier reads.
type packageJSON struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// dependency looks a package up in dependencies, then devDependencies.
func (p *packageJSON) dependency(name string) (string, bool) {
	if v, ok := p.Dependencies[name]; ok {
		return v, true
	}
	if v, ok := p.DevDependencies[name]; ok {
		return v, true
	}
	return "", false
}

// packageLock covers the v2+ packages map and the v1 dependencies map.
type packageLock struct {
	Packages     map[string]lockEntry `json:"packages"`
	Dependencies map[string]lockEntry `json:"dependencies"`
}

type lockEntry struct {
	Version string `json:"version"`
}

func (l *packageLock) version(name string) (string, bool) {
	if e, ok := l.Packages["node_modules/"+name]; ok && e.Version != "" {
		return e.Version, true
	}
	if e, ok := l.Dependencies[name]; ok && e.Version != "" {
		return e.Version, true
	}
	return "", false
}

// packageJSONAt returns the parsed package.json at rel, or nil.
func (ps *projectScan) packageJSONAt(rel string) *packageJSON {
	if cached, ok := ps.packages[rel]; ok {
		return cached
	}
	data, ok := ps.readFile(rel)
	if !ok {
		ps.packages[rel] = nil
		return nil
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		ps.logger.Debug("package.json unparseable", "path", rel, "error", err)
		ps.packages[rel] = nil
		return nil
	}
	ps.packages[rel] = &pkg
	return &pkg
}

// packageLockAt returns the parsed package-lock.json at rel, or nil.
func (ps *projectScan) packageLockAt(rel string) *packageLock {
	if cached, ok := ps.locks[rel]; ok {
		return cached
	}
	data, ok := ps.readFile(rel)
	if !ok {
		ps.locks[rel] = nil
		return nil
	}
	var lock packageLock
	if err := json.Unmarshal(data, &lock); err != nil {
		ps.logger.Debug("package-lock.json unparseable", "path", rel, "error", err)
		ps.locks[rel] = nil
		return nil
	}
	ps.locks[rel] = &lock
	return &lock
}

// nodeDependencyMarker matches name in the root package.json. The declared
// range is a build-manifest authority candidate.
func nodeDependencyMarker(name string) probeFunc {
	return func(ps *projectScan) probeResult {
		pkg := ps.packageJSONAt("package.json")
		if pkg == nil {
			return probeResult{}
		}
		v, ok := pkg.dependency(name)
		if !ok {
			return probeResult{}
		}

		detail := name
		if v != "" {
			detail = name + " " + v
		}
		res := probeResult{found: true, path: "package.json", detail: detail}
		if v != "" {
			res.versions = append(res.versions, versionCandidate{value: v, authority: authorityManifest, path: "package.json"})
		}
		return res
	}
}

// nodeLockMarker matches the locked install of name. Locked versions rank
// below the manifest declaration.
func nodeLockMarker(name string) probeFunc {
	return func(ps *projectScan) probeResult {
		lock := ps.packageLockAt("package-lock.json")
		if lock == nil {
			return probeResult{}
		}
		v, ok := lock.version(name)
		if !ok {
			return probeResult{}
		}
		return probeResult{
			found:    true,
			path:     "package-lock.json",
			detail:   name + " " + v,
			versions: []versionCandidate{{value: v, authority: authorityLockfile, path: "package-lock.json"}},
		}
	}
}

var reVitePluginVue = regexp.MustCompile(`@vitejs/plugin-vue|\bvue\(\)`)

// vueBuildConfigMarker matches a Vue CLI config file or a Vite config that
// wires the vue plugin. A bare vite.config without the plugin is not Vue
// evidence.
func vueBuildConfigMarker() probeFunc {
	return func(ps *projectScan) probeResult {
		if ps.fileExists("vue.config.js") {
			return probeResult{found: true, path: "vue.config.js"}
		}
		for _, path := range []string{"vite.config.js", "vite.config.ts", "vite.config.mjs"} {
			if data, ok := ps.readFile(path); ok && reVitePluginVue.Match(data) {
				return probeResult{found: true, path: path, detail: "@vitejs/plugin-vue"}
			}
		}
		return probeResult{}
	}
}
