// Package codegen walks a resolved AST once per module and emits the
// corresponding bytecode chunk. It tracks, for every subroutine being
// written, a simulated operand-stack depth so that LOAD_STACK/
// STORE_STACK offsets (measured from the current stack top, not a
// fixed frame pointer) can be computed at each use site.
package codegen

import (
	"math"

	"github.com/lone-wolf-akela/foxlox/internal/ast"
	"github.com/lone-wolf-akela/foxlox/internal/bytecode"
	"github.com/lone-wolf-akela/foxlox/internal/diagnostics"
	"github.com/lone-wolf-akela/foxlox/internal/token"
)

type compiler struct {
	chunk *bytecode.Chunk
	diags *diagnostics.Bag
}

// liveLocal is one Stack-storage declaration currently resident on the
// operand stack of the subroutine being compiled.
type liveLocal struct {
	key   interface{}
	depth int
}

// paramKey identifies a function parameter's declaration site; params
// have no dedicated AST node of their own to use as a map key.
type paramKey struct {
	fn  *ast.FunctionStmt
	idx int
}

type scopeMark struct {
	depth     int
	localsLen int
}

// subGen emits bytecode for exactly one subroutine body.
type subGen struct {
	c      *compiler
	sub    *bytecode.Subroutine
	depth  int
	locals []liveLocal
	marks  []scopeMark
	loops  []*loopCtx
	line   int

	isInit    bool
	thisDepth int // 0 if this subroutine has no receiver
}

type loopCtx struct {
	startDepth    int
	breakJumps    []int
	continueJumps []int
	continueTo    int // known backward target for while loops; -1 for for-loops
}

// Generate compiles a fully resolved program into a chunk. Callers
// must not invoke this on a program with outstanding diagnostics.
func Generate(prog *ast.Program, sourcePath string, diags *diagnostics.Bag) *bytecode.Chunk {
	chunk := bytecode.NewChunk(sourcePath)
	c := &compiler{chunk: chunk, diags: diags}
	g := &subGen{c: c, sub: chunk.Subroutines[0]}
	for _, s := range prog.Stmts {
		g.compileStmt(s)
	}
	g.emitOp(bytecode.OP_RETURN)
	return chunk
}

func (g *subGen) errf(line int, msg string) {
	g.c.diags.Add(line, "", msg)
}

// ---- low-level emission ----

func (g *subGen) emitOp(op bytecode.Opcode) { g.sub.WriteOp(op, g.line) }
func (g *subGen) emitU16(v uint16)          { g.sub.WriteU16(v, g.line) }

func (g *subGen) emitLoadStack(localDepth int) {
	k := g.depth - localDepth + 1
	g.emitOp(bytecode.OP_LOAD_STACK)
	g.emitU16(uint16(k))
	g.depth++
}

func (g *subGen) emitStoreStack(localDepth int) {
	k := g.depth - localDepth + 1
	g.emitOp(bytecode.OP_STORE_STACK)
	g.emitU16(uint16(k))
}

func (g *subGen) emitLoadStatic(slot uint16) {
	g.emitOp(bytecode.OP_LOAD_STATIC)
	g.emitU16(slot)
	g.sub.AddStaticRef(slot)
	g.depth++
}

func (g *subGen) emitStoreStatic(slot uint16) {
	g.emitOp(bytecode.OP_STORE_STATIC)
	g.emitU16(slot)
	g.sub.AddStaticRef(slot)
}

func (g *subGen) emitPop() {
	g.emitOp(bytecode.OP_POP)
	g.depth--
}

func (g *subGen) emitPopN(n int) {
	if n <= 0 {
		return
	}
	g.emitOp(bytecode.OP_POP_N)
	g.emitU16(uint16(n))
	g.depth -= n
}

// emitJumpPlaceholder writes op with a zero i16 operand, returning the
// operand's byte offset so it can be patched once the target is known.
func (g *subGen) emitJumpPlaceholder(op bytecode.Opcode) int {
	g.emitOp(op)
	pos := g.sub.Len()
	g.sub.WriteI16(0, g.line)
	return pos
}

func (g *subGen) patchJump(operandPos int) {
	target := g.sub.Len()
	g.patchJumpTo(operandPos, target)
}

func (g *subGen) patchJumpTo(operandPos, target int) {
	delta := target - (operandPos + 2)
	if delta < math.MinInt16 || delta > math.MaxInt16 {
		g.errf(g.line, "jump distance exceeds the maximum a single instruction can encode")
		delta = 0
	}
	g.sub.PatchU16(operandPos, uint16(int16(delta)))
}

// emitJumpBack emits an unconditional jump to a byte offset already
// known (a backward edge), such as a loop's condition recheck point.
func (g *subGen) emitJumpBack(target int) {
	g.emitOp(bytecode.OP_JUMP)
	pos := g.sub.Len()
	g.sub.WriteI16(0, g.line)
	g.patchJumpTo(pos, target)
}

// ---- scopes and locals ----

func (g *subGen) openScope() {
	g.marks = append(g.marks, scopeMark{depth: g.depth, localsLen: len(g.locals)})
}

func (g *subGen) closeScope() {
	m := g.marks[len(g.marks)-1]
	g.marks = g.marks[:len(g.marks)-1]
	g.emitPopN(g.depth - m.depth)
	g.locals = g.locals[:m.localsLen]
}

func (g *subGen) declareLocal(key interface{}) {
	g.locals = append(g.locals, liveLocal{key: key, depth: g.depth})
}

func (g *subGen) findLocal(key interface{}) int {
	for i := len(g.locals) - 1; i >= 0; i-- {
		if g.locals[i].key == key {
			return g.locals[i].depth
		}
	}
	return g.depth // unreachable on a resolved, diagnostic-free program
}

// declareStorage finishes a Var/Func/Class declaration: the value is
// already on top of the operand stack (pushed by the caller). For
// Stack storage it simply stays and becomes a named local; for Static
// storage it is relocated into the chunk's static pool.
func (g *subGen) declareStorage(key interface{}, storage ast.Storage, slotOut *uint16) {
	if storage == ast.Stack {
		g.declareLocal(key)
		return
	}
	slot := g.c.chunk.AddStaticSlot()
	*slotOut = slot
	g.emitStoreStatic(slot)
	g.emitPop()
}

// ---- statements ----

func (g *subGen) compileStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		g.compileStmt(s)
	}
}

func (g *subGen) compileBlock(stmts []ast.Stmt) {
	g.openScope()
	g.compileStmts(stmts)
	g.closeScope()
}

func (g *subGen) compileStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.ExpressionStmt:
		g.compileExpressionStmt(s)
	case *ast.VarStmt:
		g.compileVarStmt(s)
	case *ast.VarGroupStmt:
		g.compileStmts(s.Stmts)
	case *ast.BlockStmt:
		g.compileBlock(s.Stmts)
	case *ast.IfStmt:
		g.compileIfStmt(s)
	case *ast.WhileStmt:
		g.compileWhileStmt(s)
	case *ast.ForStmt:
		g.compileForStmt(s)
	case *ast.FunctionStmt:
		g.compileFunctionDecl(s)
	case *ast.ReturnStmt:
		g.compileReturnStmt(s)
	case *ast.BreakStmt:
		g.compileBreakStmt(s)
	case *ast.ContinueStmt:
		g.compileContinueStmt(s)
	case *ast.ClassStmt:
		g.compileClassStmt(s)
	case *ast.ImportStmt:
		g.compileImportStmt(s)
	case *ast.FromImportStmt:
		g.compileFromImportStmt(s)
	case *ast.ExportStmt:
		g.compileExportStmt(s)
	}
}

// compileExpressionStmt discards the one value every expression
// leaves on the stack, except a tuple-pattern assignment, which
// balances its own stack and is only ever meaningful as a statement.
func (g *subGen) compileExpressionStmt(s *ast.ExpressionStmt) {
	if a, ok := s.Expr.(*ast.AssignExpr); ok {
		if tup, ok := a.Target.(*ast.TupleExpr); ok {
			g.line = a.Line
			g.compileTupleAssign(tup, a.Value)
			return
		}
	}
	g.compileExpr(s.Expr)
	g.emitPop()
}

func (g *subGen) compileVarStmt(s *ast.VarStmt) {
	g.line = s.Line
	if s.Init != nil {
		g.compileExpr(s.Init)
	} else {
		g.emitOp(bytecode.OP_NIL)
		g.depth++
	}
	g.declareStorage(s, s.Storage, &s.StaticSlot)
}

func (g *subGen) compileIfStmt(s *ast.IfStmt) {
	g.line = s.Line
	g.compileExpr(s.Cond)
	elseJump := g.emitJumpPlaceholder(bytecode.OP_JUMP_IF_FALSE)
	g.depth--
	g.compileStmt(s.Then)
	if s.Else != nil {
		endJump := g.emitJumpPlaceholder(bytecode.OP_JUMP)
		g.patchJump(elseJump)
		g.compileStmt(s.Else)
		g.patchJump(endJump)
	} else {
		g.patchJump(elseJump)
	}
}

func (g *subGen) compileWhileStmt(s *ast.WhileStmt) {
	g.line = s.Line
	loopStart := g.sub.Len()
	startDepth := g.depth
	g.compileExpr(s.Cond)
	exitJump := g.emitJumpPlaceholder(bytecode.OP_JUMP_IF_FALSE)
	g.depth--

	lc := &loopCtx{startDepth: startDepth, continueTo: loopStart}
	g.loops = append(g.loops, lc)
	g.compileStmt(s.Body)
	g.loops = g.loops[:len(g.loops)-1]

	g.emitJumpBack(loopStart)
	g.patchJump(exitJump)
	for _, pos := range lc.breakJumps {
		g.patchJump(pos)
	}
}

// compileForStmt lowers `for (init; cond; incr) body` to the
// equivalent of `{ init; while(cond) { body; incr } }`, with the one
// deliberate departure that `continue` jumps to incr, not to cond.
func (g *subGen) compileForStmt(s *ast.ForStmt) {
	g.line = s.Line
	g.openScope()
	if s.Init != nil {
		g.compileStmt(s.Init)
	}

	startDepth := g.depth
	condStart := g.sub.Len()
	exitJump := -1
	if s.Cond != nil {
		g.compileExpr(s.Cond)
		exitJump = g.emitJumpPlaceholder(bytecode.OP_JUMP_IF_FALSE)
		g.depth--
	}

	lc := &loopCtx{startDepth: startDepth, continueTo: -1}
	g.loops = append(g.loops, lc)
	g.compileStmt(s.Body)

	incrStart := g.sub.Len()
	for _, pos := range lc.continueJumps {
		g.patchJumpTo(pos, incrStart)
	}
	g.loops = g.loops[:len(g.loops)-1]

	if s.Incr != nil {
		g.compileExpr(s.Incr)
		g.emitPop()
	}
	g.emitJumpBack(condStart)

	if exitJump != -1 {
		g.patchJump(exitJump)
	}
	for _, pos := range lc.breakJumps {
		g.patchJump(pos)
	}
	g.closeScope()
}

func (g *subGen) compileBreakStmt(s *ast.BreakStmt) {
	g.line = s.Line
	lc := g.loops[len(g.loops)-1]
	g.emitPopN(g.depth - lc.startDepth)
	pos := g.emitJumpPlaceholder(bytecode.OP_JUMP)
	lc.breakJumps = append(lc.breakJumps, pos)
}

func (g *subGen) compileContinueStmt(s *ast.ContinueStmt) {
	g.line = s.Line
	lc := g.loops[len(g.loops)-1]
	g.emitPopN(g.depth - lc.startDepth)
	if lc.continueTo >= 0 {
		g.emitJumpBack(lc.continueTo)
		return
	}
	pos := g.emitJumpPlaceholder(bytecode.OP_JUMP)
	lc.continueJumps = append(lc.continueJumps, pos)
}

func (g *subGen) compileFunctionDecl(s *ast.FunctionStmt) {
	g.line = s.Line
	idx := g.c.compileSubroutine(s, false, nil)
	g.emitOp(bytecode.OP_FUNC)
	g.emitU16(idx)
	g.depth++
	g.declareStorage(s, s.NameStorage, &s.StaticSlot)
}

func (g *subGen) compileReturnStmt(s *ast.ReturnStmt) {
	g.line = s.Line
	if s.Value != nil {
		g.compileExpr(s.Value)
		g.emitOp(bytecode.OP_RETURN_V)
		g.depth--
		return
	}
	if g.isInit {
		g.emitLoadStack(g.thisDepth)
		g.emitOp(bytecode.OP_RETURN_V)
		g.depth--
		return
	}
	g.emitOp(bytecode.OP_RETURN)
}

func (g *subGen) compileClassStmt(s *ast.ClassStmt) {
	g.line = s.Line
	desc := bytecode.ClassDesc{Name: s.Name}
	for _, m := range s.Methods {
		idx := g.c.compileSubroutine(m, true, s)
		desc.Methods = append(desc.Methods, bytecode.MethodEntry{
			NameIdx: g.c.chunk.AddConstString(m.Name),
			FuncIdx: idx,
		})
	}
	classIdx := g.c.chunk.AddClass(desc)
	g.emitOp(bytecode.OP_CLASS)
	g.emitU16(classIdx)
	g.depth++

	if s.Superclass != nil {
		g.compileVariableUse(s.Superclass)
		g.emitOp(bytecode.OP_INHERIT)
		g.depth--
	}

	g.declareStorage(s, s.NameStorage, &s.StaticSlot)
}

func (g *subGen) compileImportStmt(s *ast.ImportStmt) {
	g.line = s.Line
	g.compileImportPush(s.Path)
	g.declareStorage(s, s.Storage, &s.StaticSlot)
}

func (g *subGen) compileFromImportStmt(s *ast.FromImportStmt) {
	g.line = s.Line
	g.compileImportPush(s.Path)
	dictDepth := g.depth

	for i, name := range s.Names {
		g.emitLoadStack(dictDepth)
		g.emitOp(bytecode.OP_GET_PROPERTY)
		g.emitU16(g.c.chunk.AddConstString(name))
		g.declareStorage(fromImportKey{s, i}, s.Storage[i], &s.StaticSlot[i])
	}

	g.emitOp(bytecode.OP_NIL)
	g.depth++
	g.emitStoreStack(dictDepth)
	g.emitPop()
}

type fromImportKey struct {
	s   *ast.FromImportStmt
	idx int
}

func (g *subGen) compileImportPush(path []string) {
	for _, part := range path {
		g.emitOp(bytecode.OP_STRING)
		g.emitU16(g.c.chunk.AddConstString(part))
		g.depth++
	}
	g.emitOp(bytecode.OP_IMPORT)
	g.emitU16(uint16(len(path)))
	g.depth -= len(path)
	g.depth++
}

func (g *subGen) compileExportStmt(s *ast.ExportStmt) {
	g.line = s.Line
	g.compileStmt(s.Decl)
	var name string
	var slot uint16
	switch d := s.Decl.(type) {
	case *ast.VarStmt:
		name, slot = d.Name, d.StaticSlot
	case *ast.FunctionStmt:
		name, slot = d.Name, d.StaticSlot
	case *ast.ClassStmt:
		name, slot = d.Name, d.StaticSlot
	}
	g.c.chunk.Exports = append(g.c.chunk.Exports, bytecode.Export{
		NameIdx:  g.c.chunk.AddConstString(name),
		ValueIdx: slot,
	})
}

// ---- subroutine bodies (top-level functions and methods) ----

// compileSubroutine compiles a function or method body into a fresh
// subroutine and returns its chunk index. For a method, an implicit
// receiver occupies stack slot 1 ahead of the declared parameters.
func (c *compiler) compileSubroutine(fn *ast.FunctionStmt, isMethod bool, owner *ast.ClassStmt) uint16 {
	arity := len(fn.Params)
	if isMethod {
		arity++
	}
	idx := c.chunk.AddSubroutine(fn.Name, arity)
	sub := c.chunk.Subroutines[idx]
	g := &subGen{c: c, sub: sub, isInit: fn.IsInit}

	paramBase := 0
	if isMethod {
		paramBase = 1
		g.thisDepth = 1
		g.declareLocal(thisKey{owner})
	}
	g.depth = arity

	for i := range fn.Params {
		slotDepth := paramBase + i + 1
		if fn.ParamStorage[i] == ast.Stack {
			g.locals = append(g.locals, liveLocal{key: paramKey{fn, i}, depth: slotDepth})
		} else {
			slot := c.chunk.AddStaticSlot()
			fn.ParamSlot[i] = slot
			g.emitLoadStack(slotDepth)
			g.emitStoreStatic(slot)
			g.emitPop()
		}
	}

	g.compileStmts(fn.Body)

	if fn.IsInit {
		g.emitLoadStack(g.thisDepth)
		g.emitOp(bytecode.OP_RETURN_V)
	} else {
		g.emitOp(bytecode.OP_RETURN)
	}
	return idx
}

type thisKey struct {
	cls *ast.ClassStmt
}

// ---- expressions ----

// compileExpr compiles expr so that exactly one value is left on top
// of the operand stack.
func (g *subGen) compileExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		g.compileLiteral(e)
	case *ast.VariableExpr:
		g.compileVariableUse(e)
	case *ast.UnderscoreExpr:
		g.emitOp(bytecode.OP_NIL)
		g.depth++
	case *ast.AssignExpr:
		g.compileAssignExpr(e)
	case *ast.BinaryExpr:
		g.compileBinary(e)
	case *ast.LogicalExpr:
		g.compileLogical(e)
	case *ast.UnaryExpr:
		g.compileUnary(e)
	case *ast.GroupingExpr:
		g.compileExpr(e.Inner)
	case *ast.TupleExpr:
		g.compileTupleLiteral(e)
	case *ast.CallExpr:
		g.compileCall(e)
	case *ast.GetExpr:
		g.compileGet(e)
	case *ast.SetExpr:
		g.compileExpr(e.Value)
		g.compileExpr(e.Object)
		g.emitOp(bytecode.OP_SET_PROPERTY)
		g.emitU16(g.c.chunk.AddConstString(e.Name))
		g.depth--
	case *ast.ThisExpr:
		g.emitLoadStack(g.thisDepth)
	case *ast.SuperExpr:
		g.compileSuper(e)
	}
}

func (g *subGen) compileLiteral(e *ast.LiteralExpr) {
	g.line = e.Line
	switch e.Value.Kind {
	case ast.LitNil:
		g.emitOp(bytecode.OP_NIL)
		g.depth++
	case ast.LitBool:
		g.emitOp(bytecode.OP_BOOL)
		b := byte(0)
		if e.Value.Bool {
			b = 1
		}
		g.sub.WriteByte(b, g.line)
		g.depth++
	case ast.LitInt:
		idx := g.c.chunk.AddConstant(bytecode.Constant{Kind: bytecode.ConstInt, Int: e.Value.Int})
		g.emitOp(bytecode.OP_CONSTANT)
		g.emitU16(idx)
		g.depth++
	case ast.LitFloat:
		idx := g.c.chunk.AddConstant(bytecode.Constant{Kind: bytecode.ConstFloat, Float: e.Value.Float})
		g.emitOp(bytecode.OP_CONSTANT)
		g.emitU16(idx)
		g.depth++
	case ast.LitString:
		idx := g.c.chunk.AddConstString(e.Value.String)
		g.emitOp(bytecode.OP_STRING)
		g.emitU16(idx)
		g.depth++
	}
}

func (g *subGen) compileVariableUse(e *ast.VariableExpr) {
	g.line = e.Line
	if e.Ref == nil {
		g.emitOp(bytecode.OP_NIL) // unresolved; only reachable with outstanding diagnostics
		g.depth++
		return
	}
	g.loadRef(e.Ref)
}

func (g *subGen) loadRef(ref *ast.DeclRef) {
	switch ref.Kind {
	case ast.DeclVar:
		if ref.Var.Storage == ast.Stack {
			g.emitLoadStack(g.findLocal(ref.Var))
		} else {
			g.emitLoadStatic(ref.Var.StaticSlot)
		}
	case ast.DeclFunc:
		if ref.Func.NameStorage == ast.Stack {
			g.emitLoadStack(g.findLocal(ref.Func))
		} else {
			g.emitLoadStatic(ref.Func.StaticSlot)
		}
	case ast.DeclParam:
		if ref.Func.ParamStorage[ref.ParamIdx] == ast.Stack {
			g.emitLoadStack(g.findLocal(paramKey{ref.Func, ref.ParamIdx}))
		} else {
			g.emitLoadStatic(ref.Func.ParamSlot[ref.ParamIdx])
		}
	case ast.DeclClass:
		if ref.Class.NameStorage == ast.Stack {
			g.emitLoadStack(g.findLocal(ref.Class))
		} else {
			g.emitLoadStatic(ref.Class.StaticSlot)
		}
	case ast.DeclThis:
		g.emitLoadStack(g.thisDepth)
	}
}

func (g *subGen) storeRef(ref *ast.DeclRef) {
	switch ref.Kind {
	case ast.DeclVar:
		if ref.Var.Storage == ast.Stack {
			g.emitStoreStack(g.findLocal(ref.Var))
		} else {
			g.emitStoreStatic(ref.Var.StaticSlot)
		}
	case ast.DeclFunc:
		if ref.Func.NameStorage == ast.Stack {
			g.emitStoreStack(g.findLocal(ref.Func))
		} else {
			g.emitStoreStatic(ref.Func.StaticSlot)
		}
	case ast.DeclParam:
		if ref.Func.ParamStorage[ref.ParamIdx] == ast.Stack {
			g.emitStoreStack(g.findLocal(paramKey{ref.Func, ref.ParamIdx}))
		} else {
			g.emitStoreStatic(ref.Func.ParamSlot[ref.ParamIdx])
		}
	case ast.DeclClass:
		if ref.Class.NameStorage == ast.Stack {
			g.emitStoreStack(g.findLocal(ref.Class))
		} else {
			g.emitStoreStatic(ref.Class.StaticSlot)
		}
	case ast.DeclThis:
		g.emitStoreStack(g.thisDepth)
	}
}

func (g *subGen) compileAssignExpr(e *ast.AssignExpr) {
	g.line = e.Line
	if tup, ok := e.Target.(*ast.TupleExpr); ok {
		g.compileTupleAssign(tup, e.Value)
		g.emitOp(bytecode.OP_NIL) // tuple-assign balances to zero; as a sub-expression it yields nil
		g.depth++
		return
	}
	g.compileExpr(e.Value)
	g.compileAssignTo(e.Target)
}

func (g *subGen) compileAssignTo(target ast.Expr) {
	switch t := target.(type) {
	case *ast.UnderscoreExpr:
		// no-op: the value already on top of stack is the expression's result
	case *ast.VariableExpr:
		g.storeRef(t.Ref)
	case *ast.GetExpr:
		g.compileExpr(t.Object)
		g.emitOp(bytecode.OP_SET_PROPERTY)
		g.emitU16(g.c.chunk.AddConstString(t.Name))
		g.depth--
	}
}

func (g *subGen) compileTupleAssign(tup *ast.TupleExpr, value ast.Expr) {
	g.compileExpr(value)
	g.emitOp(bytecode.OP_UNPACK)
	g.emitU16(uint16(len(tup.Elements)))
	g.depth += len(tup.Elements) - 1
	for i := len(tup.Elements) - 1; i >= 0; i-- {
		g.compileUnpackStore(tup.Elements[i])
	}
}

// compileUnpackStore consumes the single value currently on top of the
// stack by distributing it into target (net stack effect: -1).
func (g *subGen) compileUnpackStore(target ast.Expr) {
	switch t := target.(type) {
	case *ast.TupleExpr:
		g.emitOp(bytecode.OP_UNPACK)
		g.emitU16(uint16(len(t.Elements)))
		g.depth += len(t.Elements) - 1
		for i := len(t.Elements) - 1; i >= 0; i-- {
			g.compileUnpackStore(t.Elements[i])
		}
	case *ast.UnderscoreExpr:
		g.emitPop()
	default:
		g.compileAssignTo(target)
		g.emitPop()
	}
}

func (g *subGen) compileBinary(e *ast.BinaryExpr) {
	g.compileExpr(e.Left)
	g.compileExpr(e.Right)
	g.line = e.Line
	op, ok := binaryOps[e.Op]
	if !ok {
		g.errf(e.Line, "unsupported binary operator")
		op = bytecode.OP_NOP
	}
	g.emitOp(op)
	g.depth--
}

var binaryOps = map[token.Kind]bytecode.Opcode{
	token.PLUS:          bytecode.OP_ADD,
	token.MINUS:         bytecode.OP_SUB,
	token.STAR:          bytecode.OP_MUL,
	token.SLASH:         bytecode.OP_DIV,
	token.SLASH_SLASH:   bytecode.OP_INTDIV,
	token.EQUAL_EQUAL:   bytecode.OP_EQ,
	token.BANG_EQUAL:    bytecode.OP_NE,
	token.GREATER:       bytecode.OP_GT,
	token.GREATER_EQUAL: bytecode.OP_GE,
	token.LESS:          bytecode.OP_LT,
	token.LESS_EQUAL:    bytecode.OP_LE,
}

func (g *subGen) compileLogical(e *ast.LogicalExpr) {
	g.compileExpr(e.Left)
	g.line = e.Line
	shortCircuitOp := bytecode.OP_JUMP_IF_TRUE_NO_POP
	if e.Op == token.AND {
		shortCircuitOp = bytecode.OP_JUMP_IF_FALSE_NO_POP
	}
	endJump := g.emitJumpPlaceholder(shortCircuitOp)
	g.emitPop()
	g.compileExpr(e.Right)
	g.patchJump(endJump)
}

func (g *subGen) compileUnary(e *ast.UnaryExpr) {
	g.compileExpr(e.Operand)
	g.line = e.Line
	switch e.Op {
	case token.MINUS:
		g.emitOp(bytecode.OP_NEGATE)
	case token.BANG:
		g.emitOp(bytecode.OP_NOT)
	}
}

func (g *subGen) compileTupleLiteral(e *ast.TupleExpr) {
	g.line = e.Line
	for _, el := range e.Elements {
		g.compileExpr(el)
	}
	g.emitOp(bytecode.OP_TUPLE)
	g.emitU16(uint16(len(e.Elements)))
	g.depth -= len(e.Elements)
	g.depth++
}

func (g *subGen) compileCall(e *ast.CallExpr) {
	for _, a := range e.Args {
		g.compileExpr(a)
	}
	g.compileExpr(e.Callee)
	g.line = e.ParenTok.Line
	g.emitOp(bytecode.OP_CALL)
	g.emitU16(uint16(len(e.Args)))
	g.depth -= len(e.Args) + 1
	g.depth++
}

func (g *subGen) compileGet(e *ast.GetExpr) {
	g.compileExpr(e.Object)
	g.line = e.Line
	g.emitOp(bytecode.OP_GET_PROPERTY)
	g.emitU16(g.c.chunk.AddConstString(e.Name))
}

func (g *subGen) compileSuper(e *ast.SuperExpr) {
	g.line = e.Line
	g.emitLoadStack(g.thisDepth)
	g.emitOp(bytecode.OP_GET_SUPER_METHOD)
	g.emitU16(g.c.chunk.AddConstString(e.Method))
}
