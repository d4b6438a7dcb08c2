// Package resolver walks a parsed AST once, binding every name-use to
// its declaration site and deciding each declaration's storage class
// (§4.3): Stack by default, escalated to Static the first time a
// nested function body is found to reference it (closure capture
// without heap-allocated boxed locals).
package resolver

import (
	"fmt"

	"github.com/lone-wolf-akela/foxlox/internal/ast"
	"github.com/lone-wolf-akela/foxlox/internal/diagnostics"
)

type bindingKind int

const (
	bindVar bindingKind = iota
	bindFunc
	bindParam
	bindClass
	bindThis
)

type binding struct {
	kind      bindingKind
	ready     bool
	funcDepth int

	varStmt   *ast.VarStmt
	funcStmt  *ast.FunctionStmt
	classStmt *ast.ClassStmt
	paramIdx  int

	storage *ast.Storage // points at the field on the declaration node
}

func (b *binding) escalate(useFuncDepth int) {
	if useFuncDepth > b.funcDepth {
		*b.storage = ast.Static
	}
}

type scope struct {
	funcDepth int
	names     map[string]*binding
}

// Resolver implements the single AST walk described in §4.3.
type Resolver struct {
	scopes []*scope
	diags  *diagnostics.Bag

	funcDepth int
	loopDepth int

	currentClass        *ast.ClassStmt
	currentMethod        *ast.FunctionStmt
	methodFuncDepth      int // func depth at which the enclosing method body runs, -1 if none
}

// Resolve runs the resolver over prog, recording diagnostics into diags.
func Resolve(prog *ast.Program, diags *diagnostics.Bag) {
	r := &Resolver{diags: diags, methodFuncDepth: -1}
	r.pushScope()
	r.resolveStmts(prog.Stmts)
	r.popScope()
}

func (r *Resolver) errf(line int, format string, args ...interface{}) {
	r.diags.Add(line, "", fmt.Sprintf(format, args...))
}

func (r *Resolver) pushScope() {
	r.scopes = append(r.scopes, &scope{funcDepth: r.funcDepth, names: map[string]*binding{}})
}

func (r *Resolver) popScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *Resolver) top() *scope { return r.scopes[len(r.scopes)-1] }

// declare introduces name into the current scope, flagging redeclaration.
func (r *Resolver) declare(name string, line int, b *binding) {
	s := r.top()
	if _, exists := s.names[name]; exists {
		r.errf(line, "redeclaration of '%s' in the same scope", name)
	}
	b.funcDepth = r.funcDepth
	s.names[name] = b
}

// lookup walks scopes innermost-out, returning the innermost binding
// for name, or nil if no scope declares it.
func (r *Resolver) lookup(name string) *binding {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if b, ok := r.scopes[i].names[name]; ok {
			return b
		}
	}
	return nil
}

func (r *Resolver) resolveStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		r.resolveStmt(s)
	}
}

func (r *Resolver) resolveStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.ExpressionStmt:
		r.resolveExpr(s.Expr)
	case *ast.VarStmt:
		r.resolveVarStmt(s)
	case *ast.BlockStmt:
		r.pushScope()
		r.resolveStmts(s.Stmts)
		r.popScope()
	case *ast.VarGroupStmt:
		r.resolveStmts(s.Stmts)
	case *ast.IfStmt:
		r.resolveExpr(s.Cond)
		r.resolveStmt(s.Then)
		if s.Else != nil {
			r.resolveStmt(s.Else)
		}
	case *ast.WhileStmt:
		r.resolveExpr(s.Cond)
		r.loopDepth++
		r.resolveStmt(s.Body)
		r.loopDepth--
	case *ast.ForStmt:
		r.resolveForStmt(s)
	case *ast.FunctionStmt:
		r.declareFunction(s)
		r.resolveFunctionBody(s)
	case *ast.ReturnStmt:
		r.resolveReturnStmt(s)
	case *ast.BreakStmt:
		if r.loopDepth == 0 {
			r.errf(s.Line, "'break' outside of a loop")
		}
	case *ast.ContinueStmt:
		if r.loopDepth == 0 {
			r.errf(s.Line, "'continue' outside of a loop")
		}
	case *ast.ClassStmt:
		r.resolveClassStmt(s)
	case *ast.ImportStmt:
		r.declare(s.Alias, s.Line, &binding{kind: bindVar, ready: true, storage: &s.Storage})
	case *ast.FromImportStmt:
		for i, name := range s.Names {
			r.declare(name, s.Line, &binding{kind: bindVar, ready: true, storage: &s.Storage[i]})
		}
	case *ast.ExportStmt:
		r.resolveStmt(s.Decl)
		if !exportsStatic(s.Decl) {
			r.errf(s.Line, "exported declaration must resolve to static storage")
		}
	}
}

// exportsStatic forces the exported declaration's storage, since an
// export must be readable from another module's IMPORT after this
// module's top-level body has returned (§4.4): a Stack slot would not
// survive. The code generator still escalates on demand; we pre-force
// it here so the export list can always be built from a static slot.
func exportsStatic(decl ast.Stmt) bool {
	switch d := decl.(type) {
	case *ast.VarStmt:
		d.Storage = ast.Static
	case *ast.FunctionStmt:
		d.NameStorage = ast.Static
	case *ast.ClassStmt:
		d.NameStorage = ast.Static
	default:
		return false
	}
	return true
}

func (r *Resolver) resolveVarStmt(s *ast.VarStmt) {
	b := &binding{kind: bindVar, storage: &s.Storage, varStmt: s}
	r.declare(s.Name, s.Line, b)
	if s.Init != nil {
		r.resolveExpr(s.Init)
	}
	b.ready = true
}

func (r *Resolver) resolveForStmt(s *ast.ForStmt) {
	r.pushScope()
	if s.Init != nil {
		r.resolveStmt(s.Init)
	}
	if s.Cond != nil {
		r.resolveExpr(s.Cond)
	}
	r.loopDepth++
	r.resolveStmt(s.Body)
	if s.Incr != nil {
		r.resolveExpr(s.Incr)
	}
	r.loopDepth--
	r.popScope()
}

func (r *Resolver) declareFunction(s *ast.FunctionStmt) {
	if s.Name != "" {
		r.declare(s.Name, s.Line, &binding{kind: bindFunc, ready: true, storage: &s.NameStorage, funcStmt: s})
	}
}

func (r *Resolver) resolveFunctionBody(s *ast.FunctionStmt) {
	r.funcDepth++
	savedLoopDepth := r.loopDepth
	r.loopDepth = 0
	r.pushScope()
	for i, p := range s.Params {
		r.declare(p, s.Line, &binding{kind: bindParam, ready: true, storage: &s.ParamStorage[i], funcStmt: s, paramIdx: i})
	}
	r.resolveStmts(s.Body)
	r.popScope()
	r.loopDepth = savedLoopDepth
	r.funcDepth--
}

func (r *Resolver) resolveReturnStmt(s *ast.ReturnStmt) {
	if r.currentMethod != nil && r.currentMethod.IsInit {
		if s.Value != nil {
			r.errf(s.Line, "can't return a value from '__init__'")
		}
	}
	if s.Value != nil {
		r.resolveExpr(s.Value)
	}
}

func (r *Resolver) resolveClassStmt(s *ast.ClassStmt) {
	r.declare(s.Name, s.Line, &binding{kind: bindClass, ready: true, storage: &s.NameStorage, classStmt: s})

	if s.Superclass != nil {
		if s.Superclass.Name == s.Name {
			r.errf(s.Line, "a class can't inherit from itself")
		} else {
			r.resolveExpr(s.Superclass)
		}
	}

	savedClass, savedMethod, savedMethodDepth := r.currentClass, r.currentMethod, r.methodFuncDepth
	r.currentClass = s

	r.pushScope() // holds `this` (and `super`, if subclassing)
	r.declare("this", s.Line, &binding{kind: bindThis, ready: true, storage: &s.ThisStorage, classStmt: s})
	if s.Superclass != nil {
		r.declare("super", s.Line, &binding{kind: bindThis, ready: true, storage: &s.SuperStorage, classStmt: s})
	}

	for _, m := range s.Methods {
		r.currentMethod = m
		r.funcDepth++
		r.methodFuncDepth = r.funcDepth
		savedLoopDepth := r.loopDepth
		r.loopDepth = 0
		r.pushScope()
		for i, p := range m.Params {
			r.declare(p, m.Line, &binding{kind: bindParam, ready: true, storage: &m.ParamStorage[i], funcStmt: m, paramIdx: i})
		}
		r.resolveStmts(m.Body)
		r.popScope()
		r.loopDepth = savedLoopDepth
		r.funcDepth--
	}

	r.popScope()
	r.currentClass, r.currentMethod, r.methodFuncDepth = savedClass, savedMethod, savedMethodDepth
}

// ---- expressions ----

func (r *Resolver) resolveExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
	case *ast.VariableExpr:
		r.resolveVariable(e)
	case *ast.UnderscoreExpr:
		r.errf(e.Line, "'_' cannot be read, only assigned")
	case *ast.AssignExpr:
		r.resolveAssign(e)
	case *ast.BinaryExpr:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)
	case *ast.LogicalExpr:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)
	case *ast.UnaryExpr:
		r.resolveExpr(e.Operand)
	case *ast.GroupingExpr:
		r.resolveExpr(e.Inner)
	case *ast.TupleExpr:
		for _, el := range e.Elements {
			r.resolveExpr(el)
		}
	case *ast.CallExpr:
		r.resolveCall(e)
	case *ast.GetExpr:
		r.resolveGet(e)
	case *ast.SetExpr:
		r.resolveExpr(e.Value)
		r.resolveGetReceiver(e.Object, e.Name, e.Line)
	case *ast.ThisExpr:
		r.resolveThis(e)
	case *ast.SuperExpr:
		r.resolveSuper(e)
	}
}

func (r *Resolver) resolveVariable(e *ast.VariableExpr) {
	b := r.lookup(e.Name)
	if b == nil {
		r.errf(e.Line, "undefined name '%s'", e.Name)
		return
	}
	if !b.ready {
		r.errf(e.Line, "can't read local variable '%s' in its own initializer", e.Name)
	}
	b.escalate(r.funcDepth)
	e.Ref = refFromBinding(b)
}

func refFromBinding(b *binding) *ast.DeclRef {
	switch b.kind {
	case bindVar:
		return &ast.DeclRef{Kind: ast.DeclVar, Var: b.varStmt}
	case bindFunc:
		return &ast.DeclRef{Kind: ast.DeclFunc, Func: b.funcStmt}
	case bindParam:
		return &ast.DeclRef{Kind: ast.DeclParam, Func: b.funcStmt, ParamIdx: b.paramIdx}
	case bindClass:
		return &ast.DeclRef{Kind: ast.DeclClass, Class: b.classStmt}
	case bindThis:
		return &ast.DeclRef{Kind: ast.DeclThis, Class: b.classStmt}
	}
	return nil
}

func (r *Resolver) resolveAssign(e *ast.AssignExpr) {
	r.resolveExpr(e.Value)
	switch t := e.Target.(type) {
	case *ast.VariableExpr:
		r.resolveVariableAssignTarget(t)
	case *ast.UnderscoreExpr:
		// assigning to `_` is a no-op at codegen time; nothing to resolve
	case *ast.GetExpr:
		r.resolveGetReceiver(t.Object, t.Name, t.Line)
	case *ast.TupleExpr:
		for _, el := range t.Elements {
			r.resolveAssignSubTarget(el)
		}
	}
}

func (r *Resolver) resolveAssignSubTarget(target ast.Expr) {
	switch t := target.(type) {
	case *ast.VariableExpr:
		r.resolveVariableAssignTarget(t)
	case *ast.UnderscoreExpr:
	case *ast.GetExpr:
		r.resolveGetReceiver(t.Object, t.Name, t.Line)
	case *ast.TupleExpr:
		for _, el := range t.Elements {
			r.resolveAssignSubTarget(el)
		}
	}
}

func (r *Resolver) resolveVariableAssignTarget(t *ast.VariableExpr) {
	b := r.lookup(t.Name)
	if b == nil {
		r.errf(t.Line, "undefined name '%s'", t.Name)
		return
	}
	b.escalate(r.funcDepth)
	t.Ref = refFromBinding(b)
}

func (r *Resolver) resolveCall(e *ast.CallExpr) {
	r.resolveExpr(e.Callee)
	for _, a := range e.Args {
		r.resolveExpr(a)
	}
}

func (r *Resolver) resolveGet(e *ast.GetExpr) {
	r.resolveGetReceiver(e.Object, e.Name, e.Line)
}

// resolveGetReceiver implements the "private-by-convention" rule:
// accessing a `_`-prefixed member is only legal through `this`/`super`.
func (r *Resolver) resolveGetReceiver(object ast.Expr, name string, line int) {
	r.resolveExpr(object)
	if len(name) > 0 && name[0] == '_' {
		_, onThis := object.(*ast.ThisExpr)
		_, onSuper := object.(*ast.SuperExpr)
		if !onThis && !onSuper {
			r.errf(line, "member '%s' is private and can only be accessed through 'this' or 'super'", name)
		}
	}
	if name == "__init__" {
		r.errf(line, "'__init__' cannot be called explicitly")
	}
}

func (r *Resolver) resolveThis(e *ast.ThisExpr) {
	if r.currentClass == nil {
		r.errf(e.Line, "'this' used outside of a class method")
		return
	}
	if r.funcDepth != r.methodFuncDepth {
		r.errf(e.Line, "'this' cannot be captured by a nested function")
		return
	}
	e.Ref = &ast.DeclRef{Kind: ast.DeclThis, Class: r.currentClass}
}

func (r *Resolver) resolveSuper(e *ast.SuperExpr) {
	if r.currentClass == nil || r.currentClass.Superclass == nil {
		r.errf(e.Line, "'super' used outside of a subclass method")
		return
	}
	if r.funcDepth != r.methodFuncDepth {
		r.errf(e.Line, "'super' cannot be captured by a nested function")
		return
	}
	e.Ref = &ast.DeclRef{Kind: ast.DeclThis, Class: r.currentClass}
}
