package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dave/jennifer/jen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skellig/stencil/compiler/gen"
)

func readTree(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, rel))
	require.NoError(t, err, "missing %s", rel)
	return string(data)
}

func TestProjectGoMod(t *testing.T) {
	p := NewProject("demo")
	assert.Equal(t, "stencil.test/demo", p.ModulePath())
	assert.Equal(t, "stencil.test/demo/model", p.PackagePath(ModuleModel))

	mod := p.goMod()
	assert.Contains(t, mod, "module stencil.test/demo")
	assert.Contains(t, mod, "require github.com/skellig/stencil")
	assert.NotContains(t, mod, "replace")

	local := NewProject("demo", WithRuntime(RuntimeConfig{
		ModulePath: "github.com/skellig/stencil",
		Version:    "v0.0.0",
		LocalPath:  "/src/stencil",
	}))
	assert.Contains(t, local.goMod(), "replace github.com/skellig/stencil => /src/stencil")
}

func TestProjectRejectsUnknownModule(t *testing.T) {
	p := NewProject("demo")
	err := p.WithModule("plugins", "x.go", func(f *jen.File) error { return nil })
	require.Error(t, err)
}

func TestProjectFlushWritesTree(t *testing.T) {
	root := t.TempDir()
	p := NewProject("tree", WithRoot(root))
	require.NoError(t, p.WithModule(ModuleModel, "model.go", func(f *jen.File) error {
		f.Type().Id("Empty").Struct()
		return nil
	}))
	p.AddRawFile("README.md", "generated workspace\n")
	require.NoError(t, p.Flush(context.Background()))

	assert.Contains(t, readTree(t, root, "go.mod"), "module stencil.test/tree")
	model := readTree(t, root, filepath.Join("model", "model.go"))
	assert.Contains(t, model, "Code generated by stencil. DO NOT EDIT.")
	assert.Contains(t, model, "package model")
	assert.Contains(t, model, "type Empty struct")
	assert.Equal(t, "generated workspace\n", readTree(t, root, "README.md"))
}

func TestGeneratedProjectTree(t *testing.T) {
	root := t.TempDir()
	p, err := NewTestProject(restJSONCase(t), clientBackend(t), gen.ModeClient, gen.Marshall, WithRoot(root))
	require.NoError(t, err)
	require.NoError(t, p.Project.Flush(context.Background()))

	assert.Contains(t, readTree(t, root, "go.mod"), "require github.com/skellig/stencil")

	errors := readTree(t, root, filepath.Join("errors", "errors.go"))
	assert.Contains(t, errors, "type SomeError struct")

	model := readTree(t, root, filepath.Join("model", "model.go"))
	assert.Contains(t, model, "type TestStream interface")
	assert.Contains(t, model, "type TestStreamMessageWithString struct")
	assert.Contains(t, model, "type TestStruct struct")
	assert.Contains(t, model, "type TestStreamOpInput struct")
	assert.NotContains(t, model, "type TestStreamOpOutput struct")

	output := readTree(t, root, filepath.Join("output", "output.go"))
	assert.Contains(t, output, "type TestStreamOpOutput struct")
	assert.Contains(t, output, "func MarshalTestStream(ev model.TestStream)")

	test := readTree(t, root, filepath.Join("output", "marshall_test.go"))
	assert.Contains(t, test, "func TestMarshallTestStream(t *testing.T)")
	assert.Contains(t, test, `"hello"`)
	assert.Contains(t, test, "wire.DecodeFrame")

	// The union and scalar-header variants render as literals too.
	assert.Contains(t, test, "&model.TestUnionFoo{")
	assert.Contains(t, test, "&model.TestUnionBar{")
	assert.Contains(t, test, `[]byte("bin")`)
	assert.Contains(t, test, "time.Unix(int64(1700000000), int64(0)).UTC()")
	assert.Contains(t, test, "int64(420)")
}

func TestGeneratedUnmarshallTestSkipsMarshallOnlyEvents(t *testing.T) {
	root := t.TempDir()
	p, err := NewTestProject(restJSONCase(t), clientBackend(t), gen.ModeClient, gen.Unmarshall, WithRoot(root))
	require.NoError(t, err)
	require.NoError(t, p.Project.Flush(context.Background()))

	test := readTree(t, root, filepath.Join("output", "unmarshall_test.go"))
	assert.Contains(t, test, "func TestUnmarshallTestStream(t *testing.T)")
	// The codecs cannot decode into the union interface, so the
	// union-payload events stay out of the unmarshall direction.
	assert.NotContains(t, test, "messageWithUnion")
	assert.Contains(t, test, "messageWithHeaders")
	assert.Contains(t, test, `[]byte("bin")`)
}
