package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-md2site/internal/config"
	"github.com/alnah/go-md2site/internal/fileutil"
	"github.com/alnah/go-md2site/internal/hints"
)

// versionTimeout bounds `chrome --version`.
const versionTimeout = 5 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string      `json:"status"` // "ready", "warnings", "errors"
	Engine   engineInfo  `json:"engine"`
	Content  contentInfo `json:"content"`
	Env      envInfo     `json:"environment"`
	System   systemInfo  `json:"system"`
	Warnings []string    `json:"warnings,omitempty"`
	Errors   []string    `json:"errors,omitempty"`
}

// engineInfo holds Chromium detection results.
type engineInfo struct {
	engineResolution
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// contentInfo holds content and config checks.
type contentInfo struct {
	Config    string `json:"config,omitempty"`
	Dir       string `json:"dir"`
	DirExists bool   `json:"dir_exists"`
	OutputDir string `json:"output_dir"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found, 2 = bad flags.
func runDoctorCmd(args []string, env *Environment) int {
	f, err := parseDoctorFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return ExitUsage
	}

	result := runDoctor(f, env)

	if f.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(f *doctorFlags, env *Environment) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  env.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: env.Getenv("ROD_BROWSER_BIN"),
		},
	}

	cfg := checkConfig(result, f, env)
	checkEngine(result, cfg, env)
	checkContent(result, cfg)
	checkEnvironment(result, cfg, env)
	checkSystem(result)

	// Determine final status
	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkConfig loads the config the other commands would use.
// A broken config is an error; the remaining checks run on defaults.
func checkConfig(result *doctorResult, f *doctorFlags, env *Environment) *config.Config {
	cfg, err := loadConfig(f.common, env)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Config: %v", firstLine(err.Error())))
		cfg = config.DefaultConfig()
	}

	name := f.common.config
	if name == "" {
		name = env.Getenv("MD2SITE_CONFIG")
	}
	if name == "" {
		name = config.DefaultName
	}
	candidates := []string{name}
	if !fileutil.IsFilePath(name) {
		candidates = config.SearchPaths(name)
	}
	for _, p := range candidates {
		if fileutil.FileExists(p) {
			result.Content.Config = p
			break
		}
	}

	if f.engine.path != "" {
		cfg.Engine.Path = f.engine.path
	}
	if f.engine.searchRoot != "" {
		cfg.Engine.SearchRoot = f.engine.searchRoot
	}
	return cfg
}

// checkEngine detects the Chromium used for Mermaid diagrams.
// A missing engine only disables Mermaid rendering, so it is a warning.
func checkEngine(result *doctorResult, cfg *config.Config, env *Environment) {
	if cfg.Diagram.Disabled || cfg.Engine.Disabled {
		result.Warnings = append(result.Warnings, "Mermaid rendering disabled by config")
		return
	}

	eng := resolveEngine(cfg.Engine, env.Getenv)
	result.Engine.engineResolution = eng
	result.Engine.Sandbox = !cfg.Engine.NoSandbox && result.Env.NoSandbox != "1"

	if !eng.Found {
		msg := "Chromium not found; Mermaid blocks stay as code"
		if eng.Path != "" {
			msg = fmt.Sprintf("Chromium not found at %s", eng.Path)
		}
		result.Warnings = append(result.Warnings, msg+strings.ReplaceAll(hints.ForEngineNotFound(), "\n  hint:", ";"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), versionTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, eng.Path, "--version").Output()
	if err == nil {
		result.Engine.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chromium version: %v", err))
	}
}

// checkContent verifies the content directory.
func checkContent(result *doctorResult, cfg *config.Config) {
	result.Content.Dir = cfg.Content.Dir
	result.Content.OutputDir = cfg.Output.Dir
	result.Content.DirExists = fileutil.DirExists(cfg.Content.Dir)
	if !result.Content.DirExists {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Content directory %s not found; pass it as an argument", cfg.Content.Dir))
	}
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult, cfg *config.Config, env *Environment) {
	// Detect container (multi-signal approach)
	result.Env.Container, result.Env.ContainerHint = isContainer(env.Getenv)

	// Detect CI environments
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if env.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	// Warn if container/CI without sandbox disabled
	if (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" && !cfg.Engine.NoSandbox {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but sandbox enabled. Set ROD_NO_SANDBOX=1 or --no-sandbox")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(getenv func(string) string) (bool, string) {
	// Explicit override (highest priority)
	if getenv("MD2SITE_CONTAINER") == "1" {
		return true, "MD2SITE_CONTAINER=1"
	}
	// Docker
	if hints.IsInContainer() {
		return true, "/.dockerenv"
	}
	// Podman / systemd-nspawn / general container indicator
	if v := getenv("container"); v != "" {
		return true, "container=" + v
	}
	// Kubernetes
	if getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies system requirements.
func checkSystem(result *doctorResult) {
	f, err := os.CreateTemp("", "md2site-doctor-*")
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", os.TempDir()))
		return
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	result.System.TempWritable = true
}

// firstLine drops hint lines from an error message.
func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "md2site doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Content")
	if r.Content.Config != "" {
		fmt.Fprintf(w, "  [OK] Config: %s\n", r.Content.Config)
	} else {
		fmt.Fprintln(w, "  [OK] Config: defaults")
	}
	if r.Content.DirExists {
		fmt.Fprintf(w, "  [OK] Posts: %s\n", r.Content.Dir)
	} else {
		fmt.Fprintf(w, "  [WARN] Posts: %s (missing)\n", r.Content.Dir)
	}
	fmt.Fprintf(w, "  [OK] Output: %s\n", r.Content.OutputDir)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Mermaid engine")
	if r.Engine.Found {
		fmt.Fprintf(w, "  [OK] Found at %s (%s)\n", r.Engine.Path, r.Engine.Source)
		if r.Engine.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Engine.Version)
		}
		if r.Engine.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled")
		}
	} else {
		fmt.Fprintln(w, "  [WARN] Not found")
		if r.Engine.SearchRoot != "" {
			fmt.Fprintf(w, "  [OK] Searched: %s\n", r.Engine.SearchRoot)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to build")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
