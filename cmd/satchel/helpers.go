// Shared helpers for satchel CLI commands.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mesh-intelligence/satchel/internal/engine"
	"github.com/mesh-intelligence/satchel/pkg/apperr"
	"github.com/mesh-intelligence/satchel/pkg/types"
)

// openEngine resolves the directories and opens the wired engine. The caller
// must defer eng.Close().
func openEngine() (*engine.Engine, error) {
	configDir, err := resolveConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	return engine.Open(engine.Options{
		ConfigDir: configDir,
		DataDir:   dataDir,
		Logger:    logger,
	})
}

// fail prints the error and exits with the user-error code for validation
// and not-found failures, the system-error code otherwise.
func fail(prefix string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, err)

	var appErr *apperr.Error
	if errors.As(err, &appErr) && (appErr.IsValidation() || appErr.Code == apperr.CodeNotFound) {
		os.Exit(exitUserError)
	}
	os.Exit(exitSysError)
}

// printJSON writes indented JSON to stdout.
func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "marshal JSON:", err)
		os.Exit(exitSysError)
	}
	fmt.Println(string(out))
}

// parseKind maps a --kind flag value to a content kind.
func parseKind(s string) (types.ContentKind, error) {
	switch s {
	case "task-list", string(types.KindTaskList):
		return types.KindTaskList, nil
	case "ref-list", string(types.KindRefList):
		return types.KindRefList, nil
	case string(types.KindNote):
		return types.KindNote, nil
	}
	return "", fmt.Errorf("unknown kind %q (valid: task-list, ref-list, note)", s)
}

// parseFilter maps a --filter flag value to a content filter.
func parseFilter(s string) (types.ContentFilter, error) {
	if s == "" || s == string(types.FilterAll) {
		return types.FilterAll, nil
	}
	kind, err := parseKind(s)
	if err != nil {
		return "", fmt.Errorf("unknown filter %q (valid: all, task-list, ref-list, note)", s)
	}
	return types.ContentFilter(kind), nil
}

// kindLabel is the human-readable name for a kind.
func kindLabel(k types.ContentKind) string {
	switch k {
	case types.KindTaskList:
		return "task list"
	case types.KindRefList:
		return "ref list"
	case types.KindNote:
		return "note"
	}
	return string(k)
}
