package vm

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/lone-wolf-akela/foxlox/internal/bytecode"
	"github.com/lone-wolf-akela/foxlox/internal/compiler"
	"github.com/lone-wolf-akela/foxlox/internal/config"
	"github.com/lone-wolf-akela/foxlox/internal/serialize"
	"github.com/lone-wolf-akela/foxlox/internal/value"
)

// loadChunk attaches a newly decoded or compiled chunk to this VM's
// pools (§4.9): its cross-module base indices are set to the pools'
// current sizes, the pools are extended by the chunk's own counts, and
// its string table is interned into the VM's intern pool.
func (v *VM) loadChunk(blob []byte) (*bytecode.Chunk, error) {
	chunk, err := serialize.Read(blob)
	if err != nil {
		return nil, err
	}
	v.attachChunk(chunk)
	return chunk, nil
}

func (v *VM) attachChunk(chunk *bytecode.Chunk) {
	chunk.StaticValueIdxBase = uint32(len(v.staticPool))
	chunk.ClassIdxBase = uint32(len(v.classPool))
	chunk.ConstStringIdxBase = uint32(len(v.constPool))

	for i := uint16(0); i < chunk.StaticValueNum; i++ {
		v.staticPool = append(v.staticPool, value.Nil())
	}
	for range chunk.Classes {
		v.classPool = append(v.classPool, nil)
	}
	for _, s := range chunk.ConstStrings {
		v.constPool = append(v.constPool, v.strings.Intern(s))
	}

	v.chunks = append(v.chunks, chunk)
}

// doImport implements OP_IMPORT: join path with "." and probe the
// built-in library table first; otherwise join with "/" + ".fox" and
// search for a source file, compile it, run its top-level body, and
// build a Dict from its export list.
func (v *VM) doImport(path []string) value.Value {
	libName := strings.Join(path, ".")
	if table, ok := v.libs[libName]; ok {
		return value.FromObj(v.dictFromLib(table))
	}

	relPath := strings.Join(path, string(filepath.Separator)) + config.SourceFileExt
	fullPath, err := v.resolveModulePath(relPath)
	if err != nil {
		v.raise("import: module not found: %s", strings.Join(path, "."))
	}

	if cached, ok := v.moduleCache[fullPath]; ok {
		return value.FromObj(cached)
	}

	chunk, err := compiler.CompileFileToChunk(fullPath)
	if err != nil {
		v.raise("import: %v", err)
	}
	v.attachChunk(chunk)

	sub := &value.Subroutine{Chunk: chunk, Idx: 0}
	v.callSubroutine(sub, nil, -1)

	dict := v.exportsOf(chunk)
	v.moduleCache[fullPath] = dict
	return value.FromObj(dict)
}

// exportsOf builds the Dict a module's `export` statements describe,
// once its top-level body has already run.
func (v *VM) exportsOf(chunk *bytecode.Chunk) *value.Dict {
	dict := value.NewDict()
	for _, exp := range chunk.Exports {
		name := chunk.ConstStrings[exp.NameIdx]
		key := value.FromObj(v.strings.Intern(name))
		dict.Entries[key] = v.staticPool[uint32(exp.ValueIdx)+chunk.StaticValueIdxBase]
	}
	return v.registerDict(dict)
}

// resolveModulePath searches, in order: the directory of the current
// chunk's source path, the process's working directory, and the
// directory of the executing program.
func (v *VM) resolveModulePath(relPath string) (string, error) {
	var candidates []string
	if v.hasCur && v.cur.sub != nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(v.cur.sub.Chunk.SourcePath), relPath))
	}
	if wd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(wd, relPath))
	}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), relPath))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", os.ErrNotExist
}

func (v *VM) dictFromLib(table map[string]value.Value) *value.Dict {
	d := value.NewDict()
	for name, val := range table {
		d.Entries[value.FromObj(v.strings.Intern(name))] = val
	}
	v.registerDict(d)
	return d
}
