// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os/exec"
	"runtime"
)

// revealCommand returns the file manager invocation for dir on goos.
func revealCommand(goos, dir string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{dir}
	case "windows":
		return "explorer", []string{dir}
	default:
		return "xdg-open", []string{dir}
	}
}

func revealFolder(dir string) error {
	name, args := revealCommand(runtime.GOOS, dir)
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}
