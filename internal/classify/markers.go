package classify

import "regexp"

// Marker weights. A technology is detected once its accumulated detection
// weight reaches detectionThreshold; the same total then selects the
// confidence band. Weight 0 marks pure version or feature carriers.
const (
	weightDecisive = 20
	weightStrong   = 10
	weightWeak     = 5
	weightTrace    = 3

	detectionThreshold = 10
)

// Version candidate authority ranks. Build manifests outrank lockfiles,
// lockfiles outrank nested config files.
const (
	authorityManifest = 3
	authorityLockfile = 2
	authorityConfig   = 1
)

// bandFor maps accumulated detection weight onto a confidence band. Bands are
// monotonic: adding evidence can only hold or raise the band.
func bandFor(weight int) Confidence {
	switch {
	case weight >= 30:
		return ConfidenceHigh
	case weight >= 20:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// versionCandidate is one extracted version value with its source authority.
type versionCandidate struct {
	value     string
	authority int
	path      string
}

// probeResult is the outcome of evaluating one marker probe against a scan.
type probeResult struct {
	found    bool
	path     string
	detail   string
	versions []versionCandidate
}

type probeFunc func(ps *projectScan) probeResult

// markerRule is one entry of a technology's detection table.
type markerRule struct {
	weight int
	detail string
	probe  probeFunc
}

// featureRule sets a flag when its probe hits. Several rules may carry the
// same flag; they OR together and the first hit records the evidence.
type featureRule struct {
	flag   string
	detail string
	probe  probeFunc
}

type technologyMarkers struct {
	detection []markerRule
	features  []featureRule
}

// markerTables holds the full static detection tables, keyed by technology.
// The evaluator in classify.go walks them in SupportedTechnologies order.
var markerTables = map[Technology]technologyMarkers{
	TechSpringBoot: {
		detection: []markerRule{
			{weightDecisive, "Spring Boot declared in Maven build", pomSpringBootMarker()},
			{weightDecisive, "Spring Boot Gradle plugin", gradleSpringBootMarker()},
			{weightWeak, "Spring Boot application config file", springApplicationConfigMarker()},
			{weightTrace, "Maven wrapper", anyOf(fileMarker("mvnw", "mvnw.cmd"), dirMarker(".mvn"))},
		},
		features: []featureRule{
			{"has-security", "spring-boot-starter-security dependency", bootStarterMarker("spring-boot-starter-security")},
			{"has-data-jpa", "spring-boot-starter-data-jpa dependency", bootStarterMarker("spring-boot-starter-data-jpa")},
			{"has-actuator", "spring-boot-starter-actuator dependency", bootStarterMarker("spring-boot-starter-actuator")},
			{"has-webflux", "spring-boot-starter-webflux dependency", bootStarterMarker("spring-boot-starter-webflux")},
			{"has-h2-console", "H2 database wired in", anyOf(
				javaDependencyMarker("com.h2database", "h2"),
				springPropertyMarker(reH2ConsoleEnabled),
			)},
		},
	},

	TechJavaLegacy: {
		detection: []markerRule{
			{weightDecisive, "WEB-INF deployment descriptor", webXMLMarker()},
			{weightStrong, "Spring XML context configuration", globMarker(
				"**/applicationContext*.xml", "**/*-servlet.xml", "**/*-context.xml",
			)},
			{weightStrong, "Spring Framework Maven dependency", pomSpringFrameworkMarker()},
			{weightWeak, "JSP pages", globMarker("**/*.jsp", "**/*.jspf", "**/*.jspx")},
		},
		features: []featureRule{
			{"has-jsp", "JSP pages present", globMarker("**/*.jsp", "**/*.jspf", "**/*.jspx")},
			{"uses-struts", "Apache Struts wired in", anyOf(
				pomGroupMarker("org.apache.struts"),
				globMarker("**/struts-config.xml"),
			)},
			{"uses-hibernate", "Hibernate ORM wired in", anyOf(
				pomGroupMarker("org.hibernate"),
				globMarker("**/hibernate.cfg.xml"),
			)},
			{"uses-log4j1", "Log4j 1.x wired in", anyOf(
				javaDependencyMarker("log4j", "log4j"),
				fileMarker("log4j.properties", "log4j.xml"),
				globMarker("**/log4j.properties", "**/log4j.xml"),
			)},
		},
	},

	TechAngular: {
		detection: []markerRule{
			{weightDecisive, "Angular workspace configuration", fileMarker("angular.json")},
			{weightDecisive, "@angular/core dependency", nodeDependencyMarker("@angular/core")},
			{weightWeak, "@angular/core locked version", nodeLockMarker("@angular/core")},
			{weightWeak, "Angular component sources", globMarker("**/*.component.ts")},
		},
		features: []featureRule{
			{"uses-standalone-components", "standalone component bootstrap", globContentMarker("**/*.ts", reAngularStandalone, 100)},
			{"has-material", "@angular/material dependency", nodeDependencyMarker("@angular/material")},
			{"has-ngrx", "@ngrx/store dependency", nodeDependencyMarker("@ngrx/store")},
			{"has-pwa", "PWA support wired in", anyOf(
				nodeDependencyMarker("@angular/pwa"),
				fileMarker("ngsw-config.json"),
			)},
			{"has-ssr", "server-side rendering wired in", anyOf(
				nodeDependencyMarker("@angular/ssr"),
				nodeDependencyMarker("@nguniversal/express-engine"),
				globMarker("**/main.server.ts"),
			)},
		},
	},

	TechVue: {
		detection: []markerRule{
			{weightDecisive, "vue dependency", nodeDependencyMarker("vue")},
			{weightWeak, "vue locked version", nodeLockMarker("vue")},
			{weightStrong, "Vue build tool configuration", vueBuildConfigMarker()},
			{weightStrong, "Nuxt configuration", fileMarker("nuxt.config.js", "nuxt.config.ts")},
			{weightStrong, "Vue single-file components", globMarker("**/*.vue")},
		},
		features: []featureRule{
			{"uses-composition-api", "Composition API usage", anyOf(
				globContentMarker("**/*.vue", reVueScriptSetup, 100),
				nodeDependencyMarker("@vue/composition-api"),
			)},
			{"uses-nuxt", "Nuxt framework wired in", anyOf(
				nodeDependencyMarker("nuxt"),
				fileMarker("nuxt.config.js", "nuxt.config.ts"),
			)},
			{"has-pinia", "pinia dependency", nodeDependencyMarker("pinia")},
			{"has-vuex", "vuex dependency", nodeDependencyMarker("vuex")},
			{"has-router", "vue-router dependency", nodeDependencyMarker("vue-router")},
		},
	},

	TechPythonWeb: {
		detection: []markerRule{
			{weightDecisive, "web framework in requirements.txt", requirementsFrameworkMarker()},
			{weightDecisive, "web framework in pyproject.toml", pyprojectFrameworkMarker()},
			{weightStrong, "web framework in Pipfile", pipfileFrameworkMarker()},
			{weightStrong, "web framework in setup.py", setupPyFrameworkMarker()},
			{weightStrong, "Django management script", fileMarker("manage.py")},
			{weightWeak, "WSGI/ASGI entrypoint", globMarker("**/wsgi.py", "**/asgi.py")},
			{weightWeak, "framework import in entrypoint", entrypointImportMarker(reAnyPyFramework)},
			{0, "pinned Python version", pythonVersionFileMarker()},
			{0, "required Python version", pythonRequiresMarker()},
			{0, "Pipfile Python version", pipfilePythonMarker()},
		},
		features: []featureRule{
			{"uses-django", "Django framework", anyOf(
				pythonDependencyMarker("django"),
				fileMarker("manage.py"),
			)},
			{"uses-flask", "Flask framework", anyOf(
				pythonDependencyMarker("flask"),
				entrypointImportMarker(reFlaskImport),
			)},
			{"uses-fastapi", "FastAPI framework", anyOf(
				pythonDependencyMarker("fastapi"),
				entrypointImportMarker(reFastAPIImport),
			)},
			{"has-debug-enabled", "debug mode switched on", anyOf(
				globContentMarker("**/settings.py", reDjangoDebug, 20),
				entrypointImportMarker(reFlaskDebug),
			)},
			{"has-hardcoded-secret", "secret key committed to source", anyOf(
				globContentMarker("**/settings.py", reDjangoSecret, 20),
				entrypointImportMarker(reFlaskSecret),
			)},
			{"uses-pytest", "pytest test setup", anyOf(
				pythonDependencyMarker("pytest"),
				fileMarker("pytest.ini", "tox.ini"),
				globMarker("**/conftest.py"),
			)},
			{"has-dockerfile", "Dockerfile present", anyOf(
				fileMarker("Dockerfile"),
				globMarker("**/Dockerfile"),
			)},
		},
	},

	TechGitLabCI: {
		detection: []markerRule{
			{weightDecisive, "GitLab CI pipeline definition", fileMarker(".gitlab-ci.yml")},
			{weightWeak, "GitLab configuration directory", dirMarker(".gitlab")},
			{weightWeak, "GitLab git remote", gitlabRemoteMarker()},
		},
		features: []featureRule{
			{"uses-docker", "docker images in pipeline", ciDockerMarker()},
			{"has-deploy-stage", "deploy stage in pipeline", ciDeployMarker()},
			{"uses-include", "pipeline includes external definitions", ciKeyMarker("include")},
			{"uses-cache", "pipeline caching configured", ciCacheMarker()},
		},
	},
}

// Content patterns referenced by the tables.
var (
	reH2ConsoleEnabled  = regexp.MustCompile(`(?m)spring\.h2\.console\.enabled\s*[=:]\s*true`)
	reAngularStandalone = regexp.MustCompile(`standalone\s*:\s*true|bootstrapApplication\s*\(`)
	reVueScriptSetup    = regexp.MustCompile(`<script\s[^>]*\bsetup\b|defineComponent\s*\(`)
	reAnyPyFramework    = regexp.MustCompile(`(?m)^\s*(?:from\s+(?:flask|fastapi|django)[\s.]|import\s+(?:flask|fastapi|django)\b)`)
	reFlaskImport       = regexp.MustCompile(`(?m)^\s*(?:from\s+flask[\s.]|import\s+flask\b)`)
	reFastAPIImport     = regexp.MustCompile(`(?m)^\s*(?:from\s+fastapi[\s.]|import\s+fastapi\b)`)
	reDjangoDebug       = regexp.MustCompile(`(?m)^\s*DEBUG\s*=\s*True`)
	reFlaskDebug        = regexp.MustCompile(`debug\s*=\s*True|app\.debug\s*=\s*True`)
	reDjangoSecret      = regexp.MustCompile(`(?m)^\s*SECRET_KEY\s*=\s*['"][\w\-]+['"]`)
	reFlaskSecret       = regexp.MustCompile(`(?i)secret_key\s*\]?\s*=\s*['"][^'"]+['"]`)
)

// fileMarker matches when any of the given relative paths exists as a file.
func fileMarker(paths ...string) probeFunc {
	return func(ps *projectScan) probeResult {
		for _, p := range paths {
			if ps.fileExists(p) {
				return probeResult{found: true, path: p}
			}
		}
		return probeResult{}
	}
}

// dirMarker matches when any of the given relative paths exists as a directory.
func dirMarker(paths ...string) probeFunc {
	return func(ps *projectScan) probeResult {
		for _, p := range paths {
			if ps.dirExists(p) {
				return probeResult{found: true, path: p}
			}
		}
		return probeResult{}
	}
}

// globMarker matches when any pattern has at least one hit in the path index.
func globMarker(patterns ...string) probeFunc {
	return func(ps *projectScan) probeResult {
		for _, pattern := range patterns {
			if first := ps.globFirst(pattern); first != "" {
				return probeResult{found: true, path: first}
			}
		}
		return probeResult{}
	}
}

// contentMarker matches when the named file exists and its content matches
// pattern. A nil pattern degrades to file presence.
func contentMarker(path string, pattern *regexp.Regexp) probeFunc {
	return func(ps *projectScan) probeResult {
		data, ok := ps.readFile(path)
		if !ok {
			return probeResult{}
		}
		if pattern != nil && !pattern.Match(data) {
			return probeResult{}
		}
		return probeResult{found: true, path: path}
	}
}

// globContentMarker matches when any glob hit contains pattern, reading at
// most limit files.
func globContentMarker(glob string, pattern *regexp.Regexp, limit int) probeFunc {
	return func(ps *projectScan) probeResult {
		matches := ps.glob(glob)
		if limit > 0 && len(matches) > limit {
			matches = matches[:limit]
		}
		for _, path := range matches {
			if data, ok := ps.readFile(path); ok && pattern.Match(data) {
				return probeResult{found: true, path: path}
			}
		}
		return probeResult{}
	}
}

// anyOf returns the first matching probe's result.
func anyOf(probes ...probeFunc) probeFunc {
	return func(ps *projectScan) probeResult {
		for _, probe := range probes {
			if res := probe(ps); res.found {
				return res
			}
		}
		return probeResult{}
	}
}
