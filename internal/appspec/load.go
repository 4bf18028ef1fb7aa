package appspec

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/lispui/internal/ir"
)

// LoadMode controls how errors are handled during loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the apps loaded from a directory.
type LoadResult struct {
	Apps      []ir.AppSpec // sorted by name
	CUEValue  cue.Value
	FileCount int
}

// Find returns the app called name.
func (r *LoadResult) Find(name string) (ir.AppSpec, bool) {
	for _, app := range r.Apps {
		if app.Name == name {
			return app, true
		}
	}
	return ir.AppSpec{}, false
}

// LoadDir loads every app defined by the CUE files in dir.
func LoadDir(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("specs directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing specs directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{CUEValue: value, FileCount: len(files)}
	var errs []error

	appsVal := value.LookupPath(cue.ParsePath("app"))
	if !appsVal.Exists() {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: "no apps found in specs"}}
	}
	iter, err := appsVal.Fields()
	if err != nil {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating apps: %v", err)}}
	}
	for iter.Next() {
		app, err := CompileApp(iter.Value(), dir)
		if err != nil {
			errs = append(errs, convertSpecError(err, "app."+iter.Label()))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Apps = append(result.Apps, *app)
	}

	sort.Slice(result.Apps, func(i, j int) bool {
		return result.Apps[i].Name < result.Apps[j].Name
	})
	return result, errs
}

// Load loads dir, failing fast, and returns the apps.
func Load(dir string) ([]ir.AppSpec, error) {
	result, errs := LoadDir(dir, LoadModeFailFast)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return result.Apps, nil
}

// LoadApp loads dir and returns the app called name.
func LoadApp(dir, name string) (ir.AppSpec, error) {
	result, errs := LoadDir(dir, LoadModeFailFast)
	if len(errs) > 0 {
		return ir.AppSpec{}, errors.Join(errs...)
	}
	app, ok := result.Find(name)
	if !ok {
		return ir.AppSpec{}, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("app %q not found in %s", name, dir)}
	}
	return app, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertSpecError converts a SpecError to a LoadError with position info.
func convertSpecError(err error, context string) *LoadError {
	var specErr *SpecError
	if errors.As(err, &specErr) {
		return &LoadError{
			Code:    specErr.Code(),
			Message: fmt.Sprintf("%s: %s: %s", context, specErr.Field, specErr.Message),
			Pos:     specErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}
