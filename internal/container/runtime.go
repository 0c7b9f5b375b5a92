// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container runs external rendering tools either inside a container
// image (docker or podman) or directly on the host.
package container

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

const (
	binDocker = "docker"
	binPodman = "podman"

	// NameHost selects running tools straight from PATH.
	NameHost = "host"
	// NameAuto selects the first available runtime.
	NameAuto = "auto"
)

// Runtime provides tool execution: checking availability, verifying images,
// and running commands with piped stdin and stdout.
type Runtime interface {
	// Name returns the runtime name ("docker", "podman" or "host").
	Name() string

	// Available reports whether the runtime is usable on this machine.
	Available() bool

	// ImageExists checks whether the named image exists locally.
	// Returns nil when the image is found, or an error describing the failure.
	ImageExists(image string) error

	// Run executes command inside image, piping stdin and stdout.
	Run(image string, command []string, stdin io.Reader, stdout io.Writer) error
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(name string, args ...string) error
	RunPiped(name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

func (o *osExecutor) RunPiped(name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// runtime implements Runtime for a specific container binary. Both Docker
// and Podman share the same logic; they differ only in binary name and the
// subcommand used to check image existence.
type runtime struct {
	bin           string
	imageCheckCmd []string // e.g. ["image", "inspect"] for docker
	exec          executor
}

func (r *runtime) Name() string { return r.bin }

func (r *runtime) Available() bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	return r.exec.RunSilent(r.bin, "info") == nil
}

func (r *runtime) ImageExists(image string) error {
	args := make([]string, 0, len(r.imageCheckCmd)+1)
	args = append(args, r.imageCheckCmd...)
	args = append(args, image)

	if err := r.exec.RunSilent(r.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, r.bin, err)
	}
	return nil
}

func (r *runtime) Run(image string, command []string, stdin io.Reader, stdout io.Writer) error {
	args := append([]string{"run", "--rm", "-i", image}, command...)
	var stderr bytes.Buffer
	if err := r.exec.RunPiped(r.bin, args, stdin, stdout, &stderr); err != nil {
		return fmt.Errorf("running %s container %s: %w%s", r.bin, image, err, stderrSuffix(&stderr))
	}
	return nil
}

// hostRuntime runs commands directly. It is available when tool is on PATH.
type hostRuntime struct {
	tool string
	exec executor
}

func (h *hostRuntime) Name() string { return NameHost }

func (h *hostRuntime) Available() bool {
	_, err := h.exec.LookPath(h.tool)
	return err == nil
}

// ImageExists always succeeds: the host has no images.
func (h *hostRuntime) ImageExists(string) error { return nil }

func (h *hostRuntime) Run(_ string, command []string, stdin io.Reader, stdout io.Writer) error {
	if len(command) == 0 {
		return fmt.Errorf("host runtime: empty command")
	}
	var stderr bytes.Buffer
	if err := h.exec.RunPiped(command[0], command[1:], stdin, stdout, &stderr); err != nil {
		return fmt.Errorf("running %s: %w%s", command[0], err, stderrSuffix(&stderr))
	}
	return nil
}

func stderrSuffix(b *bytes.Buffer) string {
	msg := strings.TrimSpace(b.String())
	if msg == "" {
		return ""
	}
	return ": " + msg
}

func newDockerRuntime(exec executor) *runtime {
	return &runtime{
		bin:           binDocker,
		imageCheckCmd: []string{"image", "inspect"},
		exec:          exec,
	}
}

func newPodmanRuntime(exec executor) *runtime {
	return &runtime{
		bin:           binPodman,
		imageCheckCmd: []string{"image", "exists"},
		exec:          exec,
	}
}

func newHostRuntime(exec executor, tool string) *hostRuntime {
	return &hostRuntime{tool: tool, exec: exec}
}

var defaultExec = &osExecutor{}

// Select returns the runtime named name ("auto", "docker", "podman" or
// "host"). tool is the binary the caller intends to run; it decides whether
// the host runtime is usable. With "auto" the host is tried first, then
// docker, then podman.
func Select(name, tool string) (Runtime, error) {
	return selectRuntime(defaultExec, name, tool)
}

func selectRuntime(exec executor, name, tool string) (Runtime, error) {
	var candidates []Runtime
	switch name {
	case "", NameAuto:
		candidates = []Runtime{newHostRuntime(exec, tool), newDockerRuntime(exec), newPodmanRuntime(exec)}
	case NameHost:
		candidates = []Runtime{newHostRuntime(exec, tool)}
	case binDocker:
		candidates = []Runtime{newDockerRuntime(exec)}
	case binPodman:
		candidates = []Runtime{newPodmanRuntime(exec)}
	default:
		return nil, fmt.Errorf("unknown runtime %q: use auto, host, docker, or podman", name)
	}

	for _, rt := range candidates {
		if rt.Available() {
			return rt, nil
		}
	}

	names := make([]string, len(candidates))
	for i, rt := range candidates {
		names[i] = rt.Name()
	}
	return nil, fmt.Errorf("no runtime available for %s: tried %s", tool, strings.Join(names, ", "))
}
