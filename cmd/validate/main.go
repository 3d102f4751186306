package main

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/jwebster45206/story-sim/internal/storage"
	"github.com/jwebster45206/story-sim/pkg/scenario"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <scenario file or directory>...\n", os.Args[0])
		os.Exit(1)
	}

	files, err := expandArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	failed := false
	for _, filename := range files {
		validator := &ScenarioValidator{}
		if err := validator.validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
			continue
		}
		for _, w := range validator.warnings {
			fmt.Printf("  warning: %s\n", w)
		}
		fmt.Printf("%s is valid!\n", filename)
	}
	if failed {
		os.Exit(1)
	}
}

// expandArgs replaces each directory argument with the scenario files in
// it, sorted.
func expandArgs(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			files = append(files, arg)
			continue
		}
		found, err := storage.ListScenarios(arg, nil)
		if err != nil {
			return nil, err
		}
		paths := slices.Collect(maps.Values(found))
		slices.Sort(paths)
		files = append(files, paths...)
	}
	return files, nil
}

type ScenarioValidator struct {
	errors   []string
	warnings []string
}

func (v *ScenarioValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	ext := filepath.Ext(baseName)
	switch strings.ToLower(ext) {
	case ".json", ".yaml", ".yml":
	default:
		return fmt.Errorf("scenario file must have a .json, .yaml or .yml extension: %s", baseName)
	}

	nameWithoutExt := strings.TrimSuffix(baseName, ext)
	if !isValidScenarioFilename(nameWithoutExt) {
		return fmt.Errorf("scenario filename '%s' must be lowercase snake_case (e.g., my_scenario.json, not my-scenario.json or MyScenario.json)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	v.errors = nil
	v.warnings = nil

	var s scenario.Scenario
	if err := storage.DecodeStrict(filename, data, &s); err != nil {
		return fmt.Errorf("file %s failed strict unmarshaling: %w", filename, err)
	}

	v.validateIDs(&s)
	v.warnings = s.Normalize(nil)
	if err := s.Validate(); err != nil {
		for _, e := range unjoin(err) {
			v.addError(e.Error())
		}
	}

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	return nil
}

// validateIDs checks that every authored key is snake_case.
func (v *ScenarioValidator) validateIDs(s *scenario.Scenario) {
	for id := range s.Locations {
		v.validateIDFormat("location ID", id)
	}
	for id := range s.Items {
		v.validateIDFormat("item ID", id)
	}
	for id, t := range s.Characters {
		v.validateIDFormat("character ID", id)
		if t == nil {
			continue
		}
		for _, obj := range t.Objectives {
			v.validateIDFormat("objective ID", obj.ID)
			for _, st := range obj.Stages {
				v.validateIDFormat("stage ID", st.ID)
			}
		}
	}
	for _, ev := range s.StoryEvents {
		v.validateIDFormat("story event ID", ev.ID)
	}
	if s.NarratorID != "" {
		v.validateIDFormat("narrator ID", s.NarratorID)
	}
}

func (v *ScenarioValidator) validateIDFormat(fieldName, id string) {
	if id == "" {
		return
	}

	if !isValidID(id) {
		v.addError(fmt.Sprintf("%s '%s' should be lowercase snake_case", fieldName, id))
	}
}

func (v *ScenarioValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

var (
	validIDRegex       = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)
	validFilenameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)
)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}

func isValidScenarioFilename(name string) bool {
	// Allow 'x.' prefix for experimental scenarios
	name = strings.TrimPrefix(name, "x.")
	return validFilenameRegex.MatchString(name)
}
