package classify

import (
	"sort"
	"strings"

	git "github.com/go-git/go-git/v6"
	"gopkg.in/yaml.v3"
)

const gitlabCIPath = ".gitlab-ci.yml"

// ciReservedKeys are top-level .gitlab-ci.yml keys that never name a job.
var ciReservedKeys = map[string]bool{
	"default":       true,
	"include":       true,
	"stages":        true,
	"variables":     true,
	"workflow":      true,
	"image":         true,
	"services":      true,
	"cache":         true,
	"before_script": true,
	"after_script":  true,
	"types":         true,
}

// gitlabCIFile is a tolerantly parsed pipeline definition.
type gitlabCIFile struct {
	root map[string]interface{}
}

func (c *gitlabCIFile) hasKey(key string) bool {
	_, ok := c.root[key]
	return ok
}

// ciJob is one named job definition.
type ciJob struct {
	name string
	body map[string]interface{}
}

// jobs returns the job definitions (non-reserved top-level mappings) sorted
// by name, so evidence details stay deterministic.
func (c *gitlabCIFile) jobs() []ciJob {
	var jobs []ciJob
	for key, value := range c.root {
		if ciReservedKeys[key] || strings.HasPrefix(key, ".") {
			continue
		}
		if m, ok := value.(map[string]interface{}); ok {
			jobs = append(jobs, ciJob{name: key, body: m})
		}
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].name < jobs[j].name })
	return jobs
}

func (c *gitlabCIFile) stages() []string {
	raw, ok := c.root["stages"].([]interface{})
	if !ok {
		return nil
	}
	var stages []string
	for _, s := range raw {
		if name, ok := s.(string); ok {
			stages = append(stages, name)
		}
	}
	return stages
}

// gitlabCI returns the parsed pipeline file, or nil.
func (ps *projectScan) gitlabCI() *gitlabCIFile {
	if cached, ok := ps.gitlabCIs[gitlabCIPath]; ok {
		return cached
	}
	data, ok := ps.readFile(gitlabCIPath)
	if !ok {
		ps.gitlabCIs[gitlabCIPath] = nil
		return nil
	}
	var root map[string]interface{}
	if err := yaml.Unmarshal(data, &root); err != nil {
		ps.logger.Debug(".gitlab-ci.yml unparseable", "path", gitlabCIPath, "error", err)
		ps.gitlabCIs[gitlabCIPath] = nil
		return nil
	}
	ci := &gitlabCIFile{root: root}
	ps.gitlabCIs[gitlabCIPath] = ci
	return ci
}

// gitlabRemoteMarker matches a git remote whose URL points at a GitLab host.
func gitlabRemoteMarker() probeFunc {
	return func(ps *projectScan) probeResult {
		repo, err := git.PlainOpen(ps.rootDir)
		if err != nil {
			return probeResult{}
		}
		remotes, err := repo.Remotes()
		if err != nil {
			return probeResult{}
		}
		for _, remote := range remotes {
			cfg := remote.Config()
			for _, url := range cfg.URLs {
				if strings.Contains(strings.ToLower(url), "gitlab") {
					return probeResult{found: true, path: ".git/config", detail: "remote " + cfg.Name + " " + url}
				}
			}
		}
		return probeResult{}
	}
}

// ciKeyMarker matches a top-level key in the pipeline definition.
func ciKeyMarker(key string) probeFunc {
	return func(ps *projectScan) probeResult {
		ci := ps.gitlabCI()
		if ci == nil || !ci.hasKey(key) {
			return probeResult{}
		}
		return probeResult{found: true, path: gitlabCIPath, detail: key + " configured"}
	}
}

// ciDockerMarker matches docker image or service usage anywhere in the
// pipeline.
func ciDockerMarker() probeFunc {
	return func(ps *projectScan) probeResult {
		ci := ps.gitlabCI()
		if ci == nil {
			return probeResult{}
		}
		if ci.hasKey("image") || ci.hasKey("services") {
			return probeResult{found: true, path: gitlabCIPath, detail: "pipeline image"}
		}
		for _, job := range ci.jobs() {
			if _, ok := job.body["image"]; ok {
				return probeResult{found: true, path: gitlabCIPath, detail: "job " + job.name + " image"}
			}
			if _, ok := job.body["services"]; ok {
				return probeResult{found: true, path: gitlabCIPath, detail: "job " + job.name + " services"}
			}
		}
		return probeResult{}
	}
}

// ciDeployMarker matches a deploy stage or an environment-bound job.
func ciDeployMarker() probeFunc {
	return func(ps *projectScan) probeResult {
		ci := ps.gitlabCI()
		if ci == nil {
			return probeResult{}
		}
		for _, stage := range ci.stages() {
			if stage == "deploy" {
				return probeResult{found: true, path: gitlabCIPath, detail: "deploy stage declared"}
			}
		}
		for _, job := range ci.jobs() {
			if stage, ok := job.body["stage"].(string); ok && stage == "deploy" {
				return probeResult{found: true, path: gitlabCIPath, detail: "job " + job.name + " in deploy stage"}
			}
			if _, ok := job.body["environment"]; ok {
				return probeResult{found: true, path: gitlabCIPath, detail: "job " + job.name + " deploys to an environment"}
			}
		}
		return probeResult{}
	}
}

// ciCacheMarker matches caching at the pipeline or job level.
func ciCacheMarker() probeFunc {
	return func(ps *projectScan) probeResult {
		ci := ps.gitlabCI()
		if ci == nil {
			return probeResult{}
		}
		if ci.hasKey("cache") {
			return probeResult{found: true, path: gitlabCIPath, detail: "pipeline cache"}
		}
		for _, job := range ci.jobs() {
			if _, ok := job.body["cache"]; ok {
				return probeResult{found: true, path: gitlabCIPath, detail: "job " + job.name + " cache"}
			}
		}
		return probeResult{}
	}
}
