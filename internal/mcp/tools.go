package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"rulesmith/internal/classify"
	"rulesmith/internal/core"
	"rulesmith/internal/editors"
	"rulesmith/internal/logging"
	"rulesmith/internal/ruleset"
	"rulesmith/pkg/fileops"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// toolset binds the tool handlers to a loaded engine.
type toolset struct {
	engine *core.Engine
	logger *logging.AppLogger
}

// tools returns every tool the server registers, in the order they are
// presented to clients.
func (t *toolset) tools() []server.ServerTool {
	return []server.ServerTool{
		t.analyzeProjectTool(),
		t.detectTechnologyTool(),
		t.generateRulesTool(),
		t.listTechnologiesTool(),
	}
}

func (t *toolset) analyzeProjectTool() server.ServerTool {
	return server.ServerTool{
		Tool: mcp.NewTool(
			"analyze_project",
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithOpenWorldHintAnnotation(false),
			mcp.WithDescription(
				`Scans a project directory for technology markers and returns the full detection profiles as JSON, including versions, feature flags, confidence levels and the evidence behind each detection.

Use this tool when you need the complete picture of what was detected. For a short human-readable summary use detect_technology instead.`,
			),
			mcp.WithString("project_path",
				mcp.Description("Path to the project root. Defaults to the server's working directory."),
			),
		),
		Handler: t.handleAnalyzeProject,
	}
}

func (t *toolset) handleAnalyzeProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := resolveProjectPath(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t.logger.Debug("MCP analyze_project", "root", root)

	profiles, err := t.engine.Analyze(root)
	if err != nil {
		return analysisErrorResult(root, err), nil
	}
	if len(profiles) == 0 {
		return mcp.NewToolResultText("No supported technologies detected. generate_rules falls back to the baseline document for this project."), nil
	}

	payload, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return mcp.NewToolResultErrorFromErr("failed to encode detection profiles", err), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (t *toolset) detectTechnologyTool() server.ServerTool {
	return server.ServerTool{
		Tool: mcp.NewTool(
			"detect_technology",
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithOpenWorldHintAnnotation(false),
			mcp.WithDescription(
				`Detects the technologies used by a project and returns one line per technology with its version and detection confidence.`,
			),
			mcp.WithString("project_path",
				mcp.Description("Path to the project root. Defaults to the server's working directory."),
			),
		),
		Handler: t.handleDetectTechnology,
	}
}

func (t *toolset) handleDetectTechnology(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := resolveProjectPath(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t.logger.Debug("MCP detect_technology", "root", root)

	profiles, err := t.engine.Analyze(root)
	if err != nil {
		return analysisErrorResult(root, err), nil
	}
	if len(profiles) == 0 {
		return mcp.NewToolResultText("No supported technologies detected."), nil
	}

	lines := make([]string, 0, len(profiles))
	for _, p := range profiles {
		lines = append(lines, profileLine(p))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (t *toolset) generateRulesTool() server.ServerTool {
	return server.ServerTool{
		Tool: mcp.NewTool(
			"generate_rules",
			mcp.WithReadOnlyHintAnnotation(false),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithOpenWorldHintAnnotation(false),
			mcp.WithDescription(
				`Generates an AI rules document for a project from its detected technologies. By default the document text is returned for inspection; pass save=true to write it into the project at the location the chosen editor expects.`,
			),
			mcp.WithString("project_path",
				mcp.Description("Path to the project root. Defaults to the server's working directory."),
			),
			mcp.WithString("technology",
				mcp.Description("Generate rules for this technology only (for example spring-boot or vue) instead of everything detected. Must be a known technology."),
			),
			mcp.WithString("editor",
				mcp.Description("Editor target deciding the output location and file name when saving: "+strings.Join(editors.Keys(), ", ")+". Defaults to cursor."),
			),
			mcp.WithString("filename",
				mcp.Description("File name stem, without extension, for editors that derive file names. Defaults to the primary detected technology."),
			),
			mcp.WithBoolean("verbose",
				mcp.Description("Include the detection evidence in the generated document."),
			),
			mcp.WithBoolean("save",
				mcp.Description("Write the document into the project instead of only returning it."),
			),
		),
		Handler: t.handleGenerateRules,
	}
}

func (t *toolset) handleGenerateRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := resolveProjectPath(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	technology := request.GetString("technology", "")
	editorKey := request.GetString("editor", "cursor")
	stem := request.GetString("filename", "")
	verbose := request.GetBool("verbose", false)
	save := request.GetBool("save", false)

	// Resolve the editor up front so a typo surfaces even on a dry run.
	target, err := editors.ByKey(editorKey)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t.logger.Debug("MCP generate_rules",
		"root", root,
		"technology", technology,
		"editor", target.Key,
		"save", save)

	result, err := t.engine.Generate(root, core.GenerateOptions{
		Technology: technology,
		Verbose:    verbose,
	})
	if err != nil {
		if errors.Is(err, ruleset.ErrUnknownTechnology) {
			return mcp.NewToolResultError(fmt.Sprintf("unknown technology %q, call list_supported_technologies for the valid names", technology)), nil
		}
		return analysisErrorResult(root, err), nil
	}

	if !save {
		return mcp.NewToolResultText(result.Rendered), nil
	}

	if stem == "" && len(result.Document.Technologies) > 0 {
		stem = result.Document.Technologies[0].Name
	}
	path := target.ResolvePath(root, stem)
	if _, err := editors.WriteDocument(path, result.Rendered, false); err != nil {
		return mcp.NewToolResultErrorFromErr("failed to write rules file", err), nil
	}
	t.logger.Info("Rules file written via MCP", "path", path, "editor", target.Key)

	return mcp.NewToolResultText(savedSummary(path, result)), nil
}

func (t *toolset) listTechnologiesTool() server.ServerTool {
	return server.ServerTool{
		Tool: mcp.NewTool(
			"list_supported_technologies",
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithOpenWorldHintAnnotation(false),
			mcp.WithDescription(
				`Lists every technology the loaded rule library can generate rules for, with a short description per entry. Custom templates installed by the user appear alongside the built-in ones.`,
			),
		),
		Handler: t.handleListTechnologies,
	}
}

func (t *toolset) handleListTechnologies(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	infos := t.engine.Technologies()
	lines := make([]string, 0, len(infos)+1)
	lines = append(lines, fmt.Sprintf("%d technologies available:", len(infos)))
	for _, info := range infos {
		line := "- " + info.Technology
		if info.Description != "" {
			line += ": " + info.Description
		}
		if !info.Detectable {
			line += " (template only, not auto-detected)"
		}
		lines = append(lines, line)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

// resolveProjectPath returns the project_path argument, falling back to
// the process working directory when the argument is absent. MCP
// clients typically launch the server inside the workspace they want
// analyzed, so the fallback covers the common case.
func resolveProjectPath(request mcp.CallToolRequest) (string, error) {
	if path := strings.TrimSpace(request.GetString("project_path", "")); path != "" {
		return path, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("project_path not provided and the working directory is unavailable: %v", err)
	}
	return wd, nil
}

// analysisErrorResult maps engine errors to tool errors. Path problems
// get a message pointing at the offending argument.
func analysisErrorResult(root string, err error) *mcp.CallToolResult {
	if errors.Is(err, fileops.ErrInvalidPath) {
		return mcp.NewToolResultError(fmt.Sprintf("invalid project_path %q: %v", root, err))
	}
	return mcp.NewToolResultErrorFromErr("project analysis failed", err)
}

// profileLine renders one detection as "name version (confidence: x)".
// The version is omitted when detection could not pin one down.
func profileLine(p classify.Profile) string {
	line := string(p.Name)
	if p.Version != "" && p.Version != classify.VersionUnknown {
		line += " " + p.Version
	}
	return line + " (confidence: " + string(p.Confidence) + ")"
}

// savedSummary reports where the document landed and what it covers.
func savedSummary(path string, result *core.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rules written to %s\n", path)
	if len(result.Document.Technologies) == 0 {
		b.WriteString("Technologies: none detected, baseline rules applied")
		return b.String()
	}
	entries := make([]string, 0, len(result.Document.Technologies))
	for _, tech := range result.Document.Technologies {
		entry := tech.Name
		if tech.Version != "" && tech.Version != classify.VersionUnknown {
			entry += " " + tech.Version
		}
		entries = append(entries, entry)
	}
	b.WriteString("Technologies: " + strings.Join(entries, ", "))
	return b.String()
}
