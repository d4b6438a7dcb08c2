package vm

import (
	"fmt"
	"os"

	"github.com/lone-wolf-akela/foxlox/internal/config"
	"github.com/lone-wolf-akela/foxlox/internal/value"
)

// Rough per-kind byte estimates for heap accounting; exact sizes don't
// matter, only that the counter trends with real allocation so the
// grow-by-factor policy (§3.9, §4.8) has something to compare against.
const (
	sizeofTuple    = 64
	sizeofInstance = 96
	sizeofDict     = 96
	sizeofString   = 32
)

func (v *VM) registerTuple(t *value.Tuple) *value.Tuple {
	v.tuples = append(v.tuples, t)
	v.trackAlloc(sizeofTuple + int64(len(t.Elems))*16)
	return t
}

func (v *VM) registerInstance(i *value.Instance) *value.Instance {
	v.instances = append(v.instances, i)
	v.trackAlloc(sizeofInstance)
	return i
}

func (v *VM) registerDict(d *value.Dict) *value.Dict {
	v.dicts = append(v.dicts, d)
	v.trackAlloc(sizeofDict)
	return d
}

func (v *VM) internTracked(s string) *value.String {
	str := v.strings.Intern(s)
	v.trackAlloc(sizeofString + int64(len(s)))
	return str
}

func (v *VM) trackAlloc(n int64) {
	v.currentHeapSize += n
	if v.stressGC || v.currentHeapSize > v.nextGCHeapSize {
		v.collectGarbage()
	}
}

// maybeCollect is called after every RETURN/RETURN_V and every
// backward branch (§4.8), the two points the spec names explicitly.
func (v *VM) maybeCollect() {
	if v.stressGC || v.currentHeapSize > v.nextGCHeapSize {
		v.collectGarbage()
	}
}

// collectGarbage runs one mark-and-sweep cycle (§4.8).
func (v *VM) collectGarbage() {
	if v.traceGC {
		fmt.Fprintf(os.Stderr, "-- gc begin (heap=%d)\n", v.currentHeapSize)
	}

	var gray []value.Obj

	mark := func(val value.Value) {
		if val.Kind != value.KindObj || val.Obj == nil {
			return
		}
		v.markObj(val.Obj, &gray)
	}

	for i := 0; i < v.top; i++ {
		mark(v.stack[i])
	}
	if v.hasCur && v.cur.sub != nil {
		v.markSubroutine(v.cur.sub, &gray)
	}
	for _, f := range v.frames {
		if f.sub != nil {
			v.markSubroutine(f.sub, &gray)
		}
	}
	// Const strings are held alive for as long as any loaded chunk
	// references them; every loaded chunk is retained for the VM's
	// lifetime (§5), so the whole pool is simply always live.
	for _, s := range v.constPool {
		s.Mark()
	}

	for len(gray) > 0 {
		obj := gray[len(gray)-1]
		gray = gray[:len(gray)-1]
		v.traceObj(obj, &gray)
	}

	v.sweep()

	v.nextGCHeapSize = max(v.currentHeapSize*config.GCHeapGrowFactor, config.FirstGCHeapSize)
	if v.traceGC {
		fmt.Fprintf(os.Stderr, "-- gc end (heap=%d, next=%d)\n", v.currentHeapSize, v.nextGCHeapSize)
	}
}

// markObj marks obj and, for kinds with children, pushes it onto the
// gray worklist for later tracing. Strings, subroutines, classes, and
// bound methods are marked (and for the latter three, their immediate
// children) right here rather than deferred to tracing, matching the
// spec's own split between "marking" and "tracing" phases.
func (v *VM) markObj(obj value.Obj, gray *[]value.Obj) {
	switch o := obj.(type) {
	case *value.String:
		o.Mark()
	case *value.Tuple:
		if o.Marked {
			return
		}
		o.Mark()
		*gray = append(*gray, o)
	case *value.Instance:
		if o.Marked {
			return
		}
		o.Mark()
		*gray = append(*gray, o)
	case *value.Dict:
		if o.Marked {
			return
		}
		o.Mark()
		*gray = append(*gray, o)
	case *value.Class:
		if o.Marked {
			return
		}
		v.markClass(o, gray)
	case *value.Subroutine:
		v.markSubroutine(o, gray)
	case *value.BoundMethod:
		if o.Receiver != nil {
			v.markObj(o.Receiver, gray)
		}
		v.markSubroutine(o.Sub, gray)
	case *value.HostFunc:
		// stateless; nothing to mark
	}
}

func (v *VM) markClass(c *value.Class, gray *[]value.Obj) {
	c.Mark()
	if c.Name != nil {
		c.Name.Mark()
	}
	if c.Super != nil {
		v.markClass(c.Super, gray)
	}
	for _, m := range c.Methods {
		v.markSubroutine(m.Sub, gray)
	}
}

func (v *VM) markSubroutine(s *value.Subroutine, gray *[]value.Obj) {
	raw := s.Raw()
	for _, slot := range raw.StaticRefs {
		global := uint32(slot) + s.Chunk.StaticValueIdxBase
		if int(global) < len(v.staticPool) {
			val := v.staticPool[global]
			if val.Kind == value.KindObj && val.Obj != nil {
				v.markObj(val.Obj, gray)
			}
		}
	}
}

// traceObj marks a gray object's children and leaves it black.
func (v *VM) traceObj(obj value.Obj, gray *[]value.Obj) {
	switch o := obj.(type) {
	case *value.Tuple:
		for _, e := range o.Elems {
			if e.Kind == value.KindObj && e.Obj != nil {
				v.markObj(e.Obj, gray)
			}
		}
	case *value.Instance:
		v.markObj(o.Class, gray)
		for _, f := range o.Fields {
			if f.Kind == value.KindObj && f.Obj != nil {
				v.markObj(f.Obj, gray)
			}
		}
	case *value.Dict:
		for k, val := range o.Entries {
			if k.Kind == value.KindObj && k.Obj != nil {
				v.markObj(k.Obj, gray)
			}
			if val.Kind == value.KindObj && val.Obj != nil {
				v.markObj(val.Obj, gray)
			}
		}
	}
}

func (v *VM) sweep() {
	tuples := v.tuples[:0]
	for _, t := range v.tuples {
		if t.Marked {
			t.Unmark()
			tuples = append(tuples, t)
		} else {
			v.currentHeapSize -= sizeofTuple + int64(len(t.Elems))*16
		}
	}
	v.tuples = tuples

	instances := v.instances[:0]
	for _, i := range v.instances {
		if i.Marked {
			i.Unmark()
			instances = append(instances, i)
		} else {
			v.currentHeapSize -= sizeofInstance
		}
	}
	v.instances = instances

	dicts := v.dicts[:0]
	for _, d := range v.dicts {
		if d.Marked {
			d.Unmark()
			dicts = append(dicts, d)
		} else {
			v.currentHeapSize -= sizeofDict
		}
	}
	v.dicts = dicts

	v.strings.Sweep(func(s *value.String) bool {
		if s.Marked {
			s.Unmark()
			return true
		}
		v.currentHeapSize -= sizeofString + int64(len(s.Bytes))
		return false
	})

	for _, c := range v.classPool {
		if c != nil {
			c.Unmark()
		}
	}
}
