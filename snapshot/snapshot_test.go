// Package snapshot_test compiles every shader in testdata/in/ and checks
// properties of the resulting IR.
//
// Each shader is compiled with and without return merging, sequentially and
// in parallel. The IR must validate, parallel lowering must match sequential
// lowering, merging must leave one return per function and must be
// idempotent. When a golden file testdata/golden/<name>.ir exists the merged
// disassembly is compared against it.
//
// To write golden files after intentional changes:
//
//	UPDATE_GOLDEN=1 go test ./snapshot/...
package snapshot_test

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/wgslfront"
	"github.com/gogpu/wgslfront/ir"
	"github.com/gogpu/wgslfront/ir/transform"
)

// shaderFile represents an input WGSL shader loaded from disk.
type shaderFile struct {
	name   string // base name without extension (e.g., "vertex_basic")
	source string // WGSL source code
}

func TestSnapshots(t *testing.T) {
	shaders := loadInputShaders(t, "testdata/in")
	if len(shaders) == 0 {
		t.Fatal("no input shaders found in testdata/in/")
	}

	for i := range shaders {
		shader := &shaders[i]
		t.Run(shader.name, func(t *testing.T) {
			plain := compile(t, shader, false, false)
			merged := compile(t, shader, true, false)

			t.Run("parallel", func(t *testing.T) {
				for _, mergeReturn := range []bool{false, true} {
					want := plain
					if mergeReturn {
						want = merged
					}
					got := compile(t, shader, mergeReturn, true)
					if diff := cmp.Diff(ir.Disassemble(want), ir.Disassemble(got)); diff != "" {
						t.Errorf("parallel lowering differs (merge return %v) (-want +got):\n%s", mergeReturn, diff)
					}
				}
			})

			t.Run("single_return", func(t *testing.T) {
				for _, f := range merged.Functions {
					if n := len(f.Returns()); n != 1 {
						t.Errorf("function %s has %d returns after merging", f.Name, n)
					}
				}
			})

			t.Run("idempotent", func(t *testing.T) {
				before := ir.Disassemble(merged)
				if err := transform.MergeReturn(merged); err != nil {
					t.Fatalf("second merge return failed: %v", err)
				}
				if diff := cmp.Diff(before, ir.Disassemble(merged)); diff != "" {
					t.Errorf("merge return is not idempotent (-first +second):\n%s", diff)
				}
			})

			t.Run("golden", func(t *testing.T) {
				compareGolden(t, filepath.Join("testdata", "golden", shader.name+".ir"), ir.Disassemble(merged))
			})
		})
	}
}

// loadInputShaders reads every .wgsl file in dir, sorted by name.
func loadInputShaders(t *testing.T, dir string) []shaderFile {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read input directory %q: %v", dir, err)
	}

	var shaders []shaderFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".wgsl") {
			continue
		}
		data, readErr := os.ReadFile(filepath.Join(dir, entry.Name()))
		if readErr != nil {
			t.Fatalf("read shader %q: %v", entry.Name(), readErr)
		}
		name := strings.TrimSuffix(entry.Name(), ".wgsl")
		shaders = append(shaders, shaderFile{name: name, source: string(data)})
	}

	sort.Slice(shaders, func(i, j int) bool {
		return shaders[i].name < shaders[j].name
	})

	return shaders
}

// compile runs the full pipeline with validation enabled.
func compile(t *testing.T, shader *shaderFile, mergeReturn, parallel bool) *ir.Module {
	t.Helper()

	opts := wgslfront.DefaultOptions()
	opts.MergeReturn = mergeReturn
	opts.Lower.Parallel = parallel
	module, err := wgslfront.CompileFile(shader.name+".wgsl", shader.source, opts)
	if err != nil {
		t.Fatalf("[%s] compile failed (merge return %v, parallel %v): %v", shader.name, mergeReturn, parallel, err)
	}
	return module
}

// compareGolden compares actual with the golden file at path. A missing
// golden file is not an error unless UPDATE_GOLDEN is set, in which case it
// is written.
func compareGolden(t *testing.T, path, actual string) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDEN") != "" {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			t.Fatalf("create golden dir: %v", mkErr)
		}
		if wErr := os.WriteFile(path, []byte(actual), 0o644); wErr != nil {
			t.Fatalf("write golden file: %v", wErr)
		}
		t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		t.Skipf("no golden file %s; run with UPDATE_GOLDEN=1 to create", path)
	}
	if err != nil {
		t.Fatalf("read golden file %s: %v", path, err)
	}

	// Git may convert \n to \r\n on Windows checkout.
	expectedStr := strings.ReplaceAll(string(expected), "\r\n", "\n")
	if diff := cmp.Diff(expectedStr, actual); diff != "" {
		t.Errorf("output differs from golden %s (-want +got):\n%s", path, diff)
	}
}
