package classify

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"
)

// maxManifestProbes caps how many build files of one kind are consulted, so a
// pathological monorepo cannot stall classification.
const maxManifestProbes = 12

// pomFile is the subset of a Maven POM the classifier reads. Unqualified tag
// names match the Maven namespace and namespace-free legacy POMs alike.
type pomFile struct {
	XMLName      xml.Name        `xml:"project"`
	Version      string          `xml:"version"`
	Parent       pomParent       `xml:"parent"`
	Properties   pomProperties   `xml:"properties"`
	Dependencies []pomDependency `xml:"dependencies>dependency"`
	Managed      []pomDependency `xml:"dependencyManagement>dependencies>dependency"`
	Plugins      []pomDependency `xml:"build>plugins>plugin"`
}

type pomParent struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

type pomDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

// pomProperties flattens <properties> into a name→value map.
type pomProperties struct {
	values map[string]string
}

func (p *pomProperties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	p.values = map[string]string{}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			var value string
			if err := d.DecodeElement(&value, &el); err != nil {
				return err
			}
			p.values[el.Name.Local] = strings.TrimSpace(value)
		case xml.EndElement:
			if el.Name == start.Name {
				return nil
			}
		}
	}
}

func (p *pomProperties) get(name string) (string, bool) {
	if p.values == nil {
		return "", false
	}
	v, ok := p.values[name]
	return v, ok
}

var rePomProperty = regexp.MustCompile(`\$\{([^}]+)\}`)

// interpolate resolves ${property} references against the POM, including the
// project.version and parent.version builtins. Unresolvable references stay
// in place and the value is treated as unusable by callers.
func (p *pomFile) interpolate(value string) string {
	resolved := value
	for i := 0; i < 3 && strings.Contains(resolved, "${"); i++ {
		resolved = rePomProperty.ReplaceAllStringFunc(resolved, func(ref string) string {
			name := strings.TrimSpace(ref[2 : len(ref)-1])
			switch name {
			case "project.version":
				if p.Version != "" {
					return p.Version
				}
				return p.Parent.Version
			case "parent.version", "project.parent.version":
				return p.Parent.Version
			}
			if v, ok := p.Properties.get(name); ok {
				return v
			}
			return ref
		})
	}
	return resolved
}

// resolvedVersion interpolates a raw version and rejects values that still
// carry unresolved references.
func (p *pomFile) resolvedVersion(raw string) (string, bool) {
	v := strings.TrimSpace(p.interpolate(raw))
	if v == "" || strings.Contains(v, "${") {
		return "", false
	}
	return v, true
}

// findDependency locates a declared or managed dependency by group, and
// optionally by artifact. Empty artifact matches any artifact in the group.
func (p *pomFile) findDependency(group, artifact string) (pomDependency, bool) {
	for _, list := range [][]pomDependency{p.Dependencies, p.Managed} {
		for _, dep := range list {
			if dep.GroupID != group {
				continue
			}
			if artifact != "" && dep.ArtifactID != artifact {
				continue
			}
			return dep, true
		}
	}
	return pomDependency{}, false
}

// pom returns the parsed POM at rel, or nil when missing or unparseable.
func (ps *projectScan) pom(rel string) *pomFile {
	if cached, ok := ps.poms[rel]; ok {
		return cached
	}
	data, ok := ps.readFile(rel)
	if !ok {
		ps.poms[rel] = nil
		return nil
	}
	var pom pomFile
	if err := xml.Unmarshal(data, &pom); err != nil {
		ps.logger.Debug("pom.xml unparseable", "path", rel, "error", err)
		ps.poms[rel] = nil
		return nil
	}
	ps.poms[rel] = &pom
	return &pom
}

// pomPaths lists the POMs to consult, root first, bounded.
func pomPaths(ps *projectScan) []string {
	var paths []string
	seen := map[string]bool{}
	add := func(p string) {
		if p != "" && !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	if ps.fileExists("pom.xml") {
		add("pom.xml")
	}
	for _, p := range ps.glob("**/pom.xml") {
		add(p)
	}
	if len(paths) > maxManifestProbes {
		paths = paths[:maxManifestProbes]
	}
	return paths
}

// gradlePaths lists Gradle build files, root first, bounded.
func gradlePaths(ps *projectScan) []string {
	var paths []string
	seen := map[string]bool{}
	add := func(p string) {
		if p != "" && !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	for _, root := range []string{"build.gradle", "build.gradle.kts"} {
		if ps.fileExists(root) {
			add(root)
		}
	}
	for _, pattern := range []string{"**/build.gradle", "**/build.gradle.kts"} {
		for _, p := range ps.glob(pattern) {
			add(p)
		}
	}
	if len(paths) > maxManifestProbes {
		paths = paths[:maxManifestProbes]
	}
	return paths
}

var (
	reGradleBoot        = regexp.MustCompile(`org\.springframework\.boot|spring-boot-gradle-plugin`)
	reGradleBootVersion = regexp.MustCompile(`id\s*\(?\s*['"]org\.springframework\.boot['"]\s*\)?\s*version\s*\(?\s*['"]([^'"]+)['"]`)

	reSpringBootVersionProp = regexp.MustCompile(`(?m)^\s*spring[.-]boot\.version\s*[=:]\s*([^\s#]+)`)
	reWebAppVersion         = regexp.MustCompile(`<web-app[^>]*\sversion\s*=\s*"([^"]+)"`)
)

// springVersionProperties are the property names legacy POMs use for the
// Spring Framework version.
var springVersionProperties = []string{
	"spring.version",
	"spring-framework.version",
	"springframework.version",
	"spring.framework.version",
	"org.springframework.version",
}

// pomSpringBootMarker matches a POM whose parent or dependencies come from
// org.springframework.boot. Version candidates are collected from every POM
// that declares Boot, all at build-manifest authority.
func pomSpringBootMarker() probeFunc {
	return func(ps *projectScan) probeResult {
		var res probeResult
		for _, path := range pomPaths(ps) {
			pom := ps.pom(path)
			if pom == nil {
				continue
			}

			var raw, detail string
			switch {
			case pom.Parent.GroupID == "org.springframework.boot":
				raw = pom.Parent.Version
				detail = fmt.Sprintf("parent %s:%s", pom.Parent.GroupID, pom.Parent.ArtifactID)
			default:
				dep, ok := pom.findDependency("org.springframework.boot", "")
				if !ok {
					continue
				}
				raw = dep.Version
				detail = "dependency org.springframework.boot:" + dep.ArtifactID
			}

			if !res.found {
				res.found = true
				res.path = path
				res.detail = detail
			}
			if raw == "" {
				if prop, ok := pom.Properties.get("spring-boot.version"); ok {
					raw = prop
				}
			}
			if v, ok := pom.resolvedVersion(raw); ok {
				res.versions = append(res.versions, versionCandidate{value: v, authority: authorityManifest, path: path})
			}
		}
		return res
	}
}

// gradleSpringBootMarker matches Gradle builds applying the Boot plugin.
func gradleSpringBootMarker() probeFunc {
	return func(ps *projectScan) probeResult {
		for _, path := range gradlePaths(ps) {
			data, ok := ps.readFile(path)
			if !ok || !reGradleBoot.Match(data) {
				continue
			}
			res := probeResult{found: true, path: path, detail: "org.springframework.boot plugin"}
			if m := reGradleBootVersion.FindSubmatch(data); m != nil {
				res.versions = append(res.versions, versionCandidate{value: string(m[1]), authority: authorityManifest, path: path})
			}
			return res
		}
		return probeResult{}
	}
}

// springApplicationConfigs lists Spring application config files found in the
// tree, bounded.
func springApplicationConfigs(ps *projectScan) []string {
	var paths []string
	for _, pattern := range []string{"**/application.properties", "**/application.yml", "**/application.yaml"} {
		paths = append(paths, ps.glob(pattern)...)
	}
	if len(paths) > maxManifestProbes {
		paths = paths[:maxManifestProbes]
	}
	return paths
}

// springApplicationConfigMarker matches the presence of an application config
// file. A declared spring-boot.version property yields a nested-config
// authority candidate, which a build manifest always outranks.
func springApplicationConfigMarker() probeFunc {
	return func(ps *projectScan) probeResult {
		paths := springApplicationConfigs(ps)
		if len(paths) == 0 {
			return probeResult{}
		}
		res := probeResult{found: true, path: paths[0]}
		for _, path := range paths {
			data, ok := ps.readFile(path)
			if !ok {
				continue
			}
			if m := reSpringBootVersionProp.FindSubmatch(data); m != nil {
				res.versions = append(res.versions, versionCandidate{value: string(m[1]), authority: authorityConfig, path: path})
			}
		}
		return res
	}
}

// springPropertyMarker matches when any application config file content
// matches pattern.
func springPropertyMarker(pattern *regexp.Regexp) probeFunc {
	return func(ps *projectScan) probeResult {
		for _, path := range springApplicationConfigs(ps) {
			if data, ok := ps.readFile(path); ok && pattern.Match(data) {
				return probeResult{found: true, path: path}
			}
		}
		return probeResult{}
	}
}

// javaDependencyMarker matches a Maven dependency by group (and optional
// artifact), falling back to a group:artifact mention in Gradle build files.
func javaDependencyMarker(group, artifact string) probeFunc {
	return func(ps *projectScan) probeResult {
		for _, path := range pomPaths(ps) {
			pom := ps.pom(path)
			if pom == nil {
				continue
			}
			if dep, ok := pom.findDependency(group, artifact); ok {
				return probeResult{found: true, path: path, detail: group + ":" + dep.ArtifactID}
			}
		}

		needle := group
		if artifact != "" {
			needle = group + ":" + artifact
		}
		for _, path := range gradlePaths(ps) {
			if data, ok := ps.readFile(path); ok && strings.Contains(string(data), needle) {
				return probeResult{found: true, path: path, detail: needle}
			}
		}
		return probeResult{}
	}
}

// bootStarterMarker matches one Spring Boot starter dependency.
func bootStarterMarker(artifact string) probeFunc {
	return javaDependencyMarker("org.springframework.boot", artifact)
}

// pomGroupMarker matches any dependency in a Maven group.
func pomGroupMarker(group string) probeFunc {
	return javaDependencyMarker(group, "")
}

// pomSpringFrameworkMarker matches a non-Boot org.springframework dependency.
// Versions come from the dependency itself or from the conventional Spring
// version properties, at build-manifest authority.
func pomSpringFrameworkMarker() probeFunc {
	return func(ps *projectScan) probeResult {
		var res probeResult
		for _, path := range pomPaths(ps) {
			pom := ps.pom(path)
			if pom == nil {
				continue
			}
			dep, ok := pom.findDependency("org.springframework", "")
			if !ok {
				continue
			}
			if !res.found {
				res.found = true
				res.path = path
				res.detail = "dependency org.springframework:" + dep.ArtifactID
			}

			raw := dep.Version
			if raw == "" {
				for _, prop := range springVersionProperties {
					if v, ok := pom.Properties.get(prop); ok {
						raw = v
						break
					}
				}
			}
			if v, ok := pom.resolvedVersion(raw); ok {
				res.versions = append(res.versions, versionCandidate{value: v, authority: authorityManifest, path: path})
			}
		}
		return res
	}
}

// webXMLMarker matches a servlet deployment descriptor in the conventional
// webapp locations. The web-app version attribute is the servlet spec
// version, a nested-config authority candidate.
func webXMLMarker() probeFunc {
	return func(ps *projectScan) probeResult {
		var path string
		for _, candidate := range []string{"src/main/webapp/WEB-INF/web.xml", "WebContent/WEB-INF/web.xml"} {
			if ps.fileExists(candidate) {
				path = candidate
				break
			}
		}
		if path == "" {
			path = ps.globFirst("**/WEB-INF/web.xml")
		}
		if path == "" {
			return probeResult{}
		}

		res := probeResult{found: true, path: path}
		if data, ok := ps.readFile(path); ok {
			if m := reWebAppVersion.FindSubmatch(data); m != nil {
				res.detail = "servlet spec " + string(m[1])
				res.versions = append(res.versions, versionCandidate{value: string(m[1]), authority: authorityConfig, path: path})
			}
		}
		return res
	}
}
