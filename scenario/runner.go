package scenario

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/govm-net/harness/core"
	"github.com/govm-net/harness/host"
)

// Executor is the engine a scenario runs against
type Executor interface {
	DeployContract(ctx context.Context, code []byte) (core.Address, error)
	Execute(ctx context.Context, contract core.Address, function string, args ...[]byte) (*host.Output, error)
	Query(ctx context.Context, contract core.Address, function string, args ...[]byte) (*host.Output, error)
	Resolve(ref string) (core.Address, error)
	Close() error
}

// WorldFactory opens a fresh executor. Every scenario file gets its own.
type WorldFactory func(ctx context.Context) (Executor, error)

// Result is the outcome of one scenario file
type Result struct {
	Path  string
	Name  string
	Steps int
	Err   error
}

// Runner runs scenario files
type Runner struct {
	newWorld WorldFactory
}

func NewRunner(newWorld WorldFactory) *Runner {
	return &Runner{newWorld: newWorld}
}

// Run runs the scenario at path, or every scenario file under path when it
// is a directory. The error reports problems finding the files; scenario
// failures are in the results.
func (r *Runner) Run(ctx context.Context, path string) ([]Result, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return []Result{r.RunFile(ctx, path)}, nil
	}

	files, err := findScenarios(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s files in %s", FileSuffix, path)
	}
	results := make([]Result, 0, len(files))
	for _, file := range files {
		results = append(results, r.RunFile(ctx, file))
	}
	return results, nil
}

func findScenarios(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), FileSuffix) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// RunFile loads and runs one scenario file in a fresh world
func (r *Runner) RunFile(ctx context.Context, path string) Result {
	result := Result{Path: path}
	s, err := Load(path)
	if err != nil {
		result.Err = err
		return result
	}
	result.Name = s.Name

	world, err := r.newWorld(ctx)
	if err != nil {
		result.Err = fmt.Errorf("failed to open world: %w", err)
		return result
	}
	defer world.Close()

	result.Steps, result.Err = r.runScenario(ctx, world, s, filepath.Dir(path))
	slog.Debug("scenario finished", "path", path, "steps", result.Steps, "err", result.Err)
	return result
}

// runScenario stops at the first failing step and returns how many steps passed
func (r *Runner) runScenario(ctx context.Context, world Executor, s *Scenario, baseDir string) (int, error) {
	ids := make(map[string]core.Address)

	for i := range s.Steps {
		st := &s.Steps[i]
		if err := r.runStep(ctx, world, st, baseDir, ids); err != nil {
			return i, fmt.Errorf("step %d (%s %s): %w", i, st.kind(), st.label(), err)
		}
	}
	return len(s.Steps), nil
}

func (st *Step) label() string {
	if st.kind() == StepDeploy {
		return st.ID
	}
	return st.Contract + "." + st.Function
}

func (r *Runner) runStep(ctx context.Context, world Executor, st *Step, baseDir string, ids map[string]core.Address) error {
	if st.kind() == StepDeploy {
		codePath := st.Code
		if !filepath.IsAbs(codePath) {
			codePath = filepath.Join(baseDir, codePath)
		}
		code, err := os.ReadFile(codePath)
		if err != nil {
			return fmt.Errorf("failed to read code: %w", err)
		}
		addr, err := world.DeployContract(ctx, code)
		if err != nil {
			return err
		}
		ids[st.ID] = addr
		return nil
	}

	addr, ok := ids[st.Contract]
	if !ok {
		var err error
		if addr, err = world.Resolve(st.Contract); err != nil {
			return err
		}
	}
	args, _ := DecodeArguments(st.Arguments)

	execute := world.Execute
	if st.kind() == StepQuery {
		execute = world.Query
	}
	out, err := execute(ctx, addr, st.Function, args...)
	if err != nil {
		return err
	}
	if st.Expect == nil {
		return nil
	}
	return st.Expect.Check(out)
}
