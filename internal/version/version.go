// Package version reports the build metadata of the sauce binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/dustin/go-humanize"
)

// Set through -ldflags "-X" at build time
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// maxListedDeps bounds the dependency list printed by Full
const maxListedDeps = 8

// Info describes the running binary
type Info struct {
	Version   string   `json:"version"`
	BuildDate string   `json:"build_date"`
	GitCommit string   `json:"git_commit"`
	Module    string   `json:"module"`
	GoVersion string   `json:"go_version"`
	Platform  string   `json:"platform"`
	NumCPU    int      `json:"num_cpu"`
	HeapAlloc uint64   `json:"heap_alloc"`
	Deps      []Module `json:"deps"`
}

// Module is one dependency compiled into the binary
type Module struct {
	Path    string `json:"path"`
	Version string `json:"version"`
}

// Get collects the build metadata. When the binary was built from a module
// with VCS stamping, the commit recorded by the toolchain fills in a
// GitCommit that was not set through ldflags.
func Get() Info {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	info := Info{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		NumCPU:    runtime.NumCPU(),
		HeapAlloc: mem.HeapAlloc,
	}

	build, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	info.Module = build.Main.Path
	for _, setting := range build.Settings {
		if setting.Key == "vcs.revision" && info.GitCommit == "unknown" {
			info.GitCommit = setting.Value
		}
	}
	for _, dep := range build.Deps {
		info.Deps = append(info.Deps, Module{Path: dep.Path, Version: dep.Version})
	}

	return info
}

// Short returns the one-line version string
func Short() string {
	return fmt.Sprintf("sauce %s", Version)
}

// Full returns a multi-line report of the build metadata
func Full() string {
	info := Get()

	var b strings.Builder
	fmt.Fprintf(&b, "Sauce %s\n", info.Version)
	b.WriteString("========================================\n\n")

	b.WriteString("Build:\n")
	fmt.Fprintf(&b, "  Date:         %s\n", info.BuildDate)
	fmt.Fprintf(&b, "  Commit:       %s\n", info.GitCommit)
	if info.Module != "" {
		fmt.Fprintf(&b, "  Module:       %s\n", info.Module)
	}
	b.WriteString("\n")

	b.WriteString("Runtime:\n")
	fmt.Fprintf(&b, "  Go Version:   %s\n", info.GoVersion)
	fmt.Fprintf(&b, "  Platform:     %s\n", info.Platform)
	fmt.Fprintf(&b, "  CPUs:         %d\n", info.NumCPU)
	fmt.Fprintf(&b, "  Heap:         %s\n", humanize.Bytes(info.HeapAlloc))

	if len(info.Deps) > 0 {
		b.WriteString("\nDependencies:\n")
		shown := info.Deps
		if len(shown) > maxListedDeps {
			shown = shown[:maxListedDeps]
		}
		for _, dep := range shown {
			fmt.Fprintf(&b, "  - %s@%s\n", dep.Path, dep.Version)
		}
		if len(info.Deps) > maxListedDeps {
			fmt.Fprintf(&b, "  ... and %d more\n", len(info.Deps)-maxListedDeps)
		}
	}

	return b.String()
}
