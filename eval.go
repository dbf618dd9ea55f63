package sketchvm

import (
	"fmt"
	"strings"
)

// Eval implements C7, the expression evaluator. It is written as a
// direct type switch rather than through the Visitor interface:
// Visitor's Accept(Visitor) error signature has no room for a typed
// return value, and threading one through a side channel on every
// visitor implementation would obscure the evaluator's control flow
// for no benefit — Visitor stays available for consumers that only
// need to walk, not compute (see ast_visitor.go's Walk). This mirrors
// how clarete-langlang's own oracle.go computes values by switching on
// concrete node types rather than going through AstNodeVisitor.
func (e *Engine) Eval(n Node) (Value, error) {
	switch t := n.(type) {
	case *NumericLiteralNode:
		if t.IsFloat {
			return F64Value(t.FloatVal), nil
		}
		return I32Value(int32(t.IntVal)), nil
	case *StringLiteralNode:
		return StringValue(t.Value), nil
	case *CharLiteralNode:
		return I32Value(t.Value), nil
	case *BoolLiteralNode:
		return BoolValue(t.Value), nil
	case *NullLiteralNode:
		return Unit, nil

	case *IdentifierNode:
		return e.evalIdentifier(t)

	case *BinaryOpNode:
		return e.evalBinaryOp(t)

	case *UnaryOpNode:
		return e.evalUnaryOp(t)

	case *PostfixNode:
		return e.evalPostfix(t)

	case *TernaryNode:
		cond, err := e.Eval(t.Condition)
		if err != nil {
			return Unit, err
		}
		if Truthy(cond) {
			return e.Eval(t.Consequent)
		}
		return e.Eval(t.Alternate)

	case *CommaNode:
		var result Value = Unit
		for _, item := range t.Items {
			v, err := e.Eval(item)
			if err != nil {
				return Unit, err
			}
			result = v
		}
		return result, nil

	case *MemberAccessNode:
		return e.evalMemberAccess(t)

	case *ArrayAccessNode:
		return e.evalArrayAccess(t)

	case *AssignmentNode:
		return e.evalAssignment(t)

	case *FuncCallNode:
		return e.evalFuncCall(t)

	case *ConstructorCallNode:
		return e.evalConstructorCall(t)

	case *SizeofNode:
		return e.evalSizeof(t)

	case *CastNode:
		return e.evalCast(t)

	case *ArrayInitializerNode:
		return Unit, &InternalInvariantError{Message: "array-initializer must be evaluated via its owning declarator"}

	default:
		return Unit, &InternalInvariantError{Message: fmt.Sprintf("eval: unhandled node %s", n.Type())}
	}
}

func (e *Engine) evalIdentifier(n *IdentifierNode) (Value, error) {
	if v, _, ok := e.Scopes.Lookup(n.Name); ok {
		return v.Value, nil
	}
	if fd, ok := e.Functions[n.Name]; ok {
		_ = fd
		return PointerValue(NewPointerVal(nil, n.Name, "function", 1)), nil
	}
	return Unit, &UndefinedReferenceError{Message: fmt.Sprintf("undefined variable %q", n.Name)}
}

func (e *Engine) evalBinaryOp(n *BinaryOpNode) (Value, error) {
	switch n.Op {
	case "&&":
		l, err := e.Eval(n.Left)
		if err != nil {
			return Unit, err
		}
		if !Truthy(l) {
			return BoolValue(false), nil
		}
		r, err := e.Eval(n.Right)
		if err != nil {
			return Unit, err
		}
		return BoolValue(Truthy(r)), nil
	case "||":
		l, err := e.Eval(n.Left)
		if err != nil {
			return Unit, err
		}
		if Truthy(l) {
			return BoolValue(true), nil
		}
		r, err := e.Eval(n.Right)
		if err != nil {
			return Unit, err
		}
		return BoolValue(Truthy(r)), nil
	}

	l, err := e.Eval(n.Left)
	if err != nil {
		return Unit, err
	}
	r, err := e.Eval(n.Right)
	if err != nil {
		return Unit, err
	}

	switch n.Op {
	case "==", "!=", "<", "<=", ">", ">=":
		return Compare(n.Op, l, r)
	default:
		return BinaryArith(n.Op, l, r)
	}
}

func (e *Engine) evalUnaryOp(n *UnaryOpNode) (Value, error) {
	switch n.Op {
	case "!":
		v, err := e.Eval(n.Operand)
		if err != nil {
			return Unit, err
		}
		return LogicalNot(v), nil
	case "-":
		v, err := e.Eval(n.Operand)
		if err != nil {
			return Unit, err
		}
		return BinaryArith("-", I32Value(0), v)
	case "+":
		return e.Eval(n.Operand)
	case "&":
		return e.evalAddressOf(n.Operand)
	case "*":
		v, err := e.Eval(n.Operand)
		if err != nil {
			return Unit, err
		}
		if v.Kind() != KindPointer {
			return Unit, &TypeError{Message: "dereference requires pointer type"}
		}
		return v.AsPointer().Dereference()
	case "++", "--":
		return e.evalIncDec(n.Operand, n.Op == "++", true)
	default:
		return Unit, &TypeError{Message: fmt.Sprintf("unsupported unary operator %q", n.Op)}
	}
}

func (e *Engine) evalPostfix(n *PostfixNode) (Value, error) {
	return e.evalIncDec(n.Operand, n.Op == "++", false)
}

// evalIncDec implements both prefix and postfix ++/-- (spec §4.4):
// prefix updates and yields the new value, postfix yields the old one.
func (e *Engine) evalIncDec(operand Node, isInc, prefix bool) (Value, error) {
	old, err := e.Eval(operand)
	if err != nil {
		return Unit, err
	}

	var next Value
	if old.Kind() == KindPointer {
		p := old.AsPointer()
		if isInc {
			next = PointerValue(p.Add(1))
		} else {
			next = PointerValue(p.Sub(1))
		}
	} else {
		delta := I32Value(1)
		op := "+"
		if !isInc {
			op = "-"
		}
		next, err = BinaryArith(op, old, delta)
		if err != nil {
			return Unit, err
		}
	}

	if err := e.assignLValue(operand, next); err != nil {
		return Unit, err
	}
	if prefix {
		return next, nil
	}
	return old, nil
}

// evalAddressOf implements `&x`: a Pointer into the variable's frame,
// or a function-reference Pointer for a user-function name (spec
// §4.4). Function pointers are represented with Target.Frame == nil,
// since the closed Value-kind set (spec §3) has no distinct
// function-pointer variant; evalFuncCall recognizes this shape.
func (e *Engine) evalAddressOf(operand Node) (Value, error) {
	switch t := operand.(type) {
	case *IdentifierNode:
		if _, frame, ok := e.Scopes.Lookup(t.Name); ok {
			return PointerValue(NewPointerVal(frame, t.Name, "", 1)), nil
		}
		if _, ok := e.Functions[t.Name]; ok {
			return PointerValue(NewPointerVal(nil, t.Name, "function", 1)), nil
		}
		return Unit, &UndefinedReferenceError{Message: fmt.Sprintf("undefined variable %q", t.Name)}
	case *ArrayAccessNode:
		id, ok := t.Array.(*IdentifierNode)
		if !ok {
			return Unit, &TypeError{Message: "& requires an addressable operand"}
		}
		idx, err := e.Eval(t.Index)
		if err != nil {
			return Unit, err
		}
		if idx.IsUnit() {
			return Unit, nil
		}
		_, frame, ok := e.Scopes.Lookup(id.Name)
		if !ok {
			return Unit, &UndefinedReferenceError{Message: fmt.Sprintf("undefined variable %q", id.Name)}
		}
		p := NewPointerVal(frame, id.Name, "", 1)
		p.Target.Offset = int(idx.AsI32())
		return PointerValue(p), nil
	default:
		return Unit, &TypeError{Message: "& requires an addressable operand"}
	}
}

func (e *Engine) evalMemberAccess(n *MemberAccessNode) (Value, error) {
	obj, err := e.Eval(n.Object)
	if err != nil {
		return Unit, err
	}
	if n.Arrow {
		if obj.Kind() != KindPointer {
			return Unit, &TypeError{Message: "-> operator requires pointer type"}
		}
		obj, err = obj.AsPointer().Dereference()
		if err != nil {
			return Unit, err
		}
	}
	if obj.Kind() != KindStruct {
		return Unit, &TypeError{Message: "member access on non-struct value"}
	}
	v, ok := obj.AsStruct().Get(n.Field)
	if !ok {
		return Unit, &UndefinedReferenceError{Message: fmt.Sprintf("undefined field %q", n.Field)}
	}
	if e.Emitter != nil {
		e.Emitter.Emit(KindStructFieldAccess, StructFieldAccessFields{
			Struct: obj.AsStruct().TypeName, Field: n.Field, Value: fieldValue(v),
		})
	}
	return v, nil
}

// fieldValue is the wire representation of a struct field's value for
// STRUCT_FIELD_ACCESS/STRUCT_FIELD_SET records: a pointer carries its
// structured PointerDescriptor (spec §9, testable property 6), every
// other kind carries its usual string rendering.
func fieldValue(v Value) any {
	if v.Kind() == KindPointer {
		p := v.AsPointer()
		return PointerDescriptor{
			Variable: p.Target.Variable,
			Offset:   p.Target.Offset,
			Pointee:  p.PointeeTy,
			Level:    p.Level,
		}
	}
	return v.String()
}

func (e *Engine) evalArrayAccess(n *ArrayAccessNode) (Value, error) {
	arr, err := e.Eval(n.Array)
	if err != nil {
		return Unit, err
	}
	idx, err := e.Eval(n.Index)
	if err != nil {
		return Unit, err
	}
	if idx.IsUnit() {
		return Unit, nil
	}
	if arr.Kind() != KindArray {
		return Unit, &TypeError{Message: "array access on non-array value"}
	}
	v, err := arr.AsArray().Get([]int{int(idx.AsI32())})
	if err != nil {
		return Unit, err
	}
	return v, nil
}

// assignLValue writes value through an identifier, array-access,
// member-access, or dereference target, emitting the record the
// target kind calls for (spec §4.4).
func (e *Engine) assignLValue(target Node, value Value) error {
	switch t := target.(type) {
	case *IdentifierNode:
		res := e.Scopes.Assign(t.Name, value)
		switch res {
		case AssignNotFound:
			return &UndefinedReferenceError{Message: fmt.Sprintf("undefined variable %q", t.Name)}
		case AssignConst:
			return &TypeError{Message: fmt.Sprintf("cannot assign to const variable %q", t.Name)}
		}
		if e.Emitter != nil {
			v, _, _ := e.Scopes.Lookup(t.Name)
			e.Emitter.Emit(KindVarSet, VarSetFields{Name: t.Name, Type: v.DeclaredType, Value: value.String()})
		}
		return nil

	case *ArrayAccessNode:
		arr, err := e.Eval(t.Array)
		if err != nil {
			return err
		}
		idx, err := e.Eval(t.Index)
		if err != nil {
			return err
		}
		if idx.IsUnit() || arr.Kind() != KindArray {
			return &TypeError{Message: "array assignment requires array value and numeric index"}
		}
		if err := arr.AsArray().Set([]int{int(idx.AsI32())}, value); err != nil {
			return err
		}
		if e.Emitter != nil {
			e.Emitter.Emit(KindVarSet, VarSetFields{Name: displayNode(target), Type: arr.AsArray().ElemType, Value: value.String()})
		}
		return nil

	case *MemberAccessNode:
		obj, err := e.Eval(t.Object)
		if err != nil {
			return err
		}
		if t.Arrow {
			if obj.Kind() != KindPointer {
				return &TypeError{Message: "-> operator requires pointer type"}
			}
			obj, err = obj.AsPointer().Dereference()
			if err != nil {
				return err
			}
		}
		if obj.Kind() != KindStruct {
			return &TypeError{Message: "member assignment on non-struct value"}
		}
		obj.AsStruct().Set(t.Field, value)
		if e.Emitter != nil {
			e.Emitter.Emit(KindStructFieldSet, StructFieldSetFields{
				Struct: obj.AsStruct().TypeName, Field: t.Field, Value: fieldValue(value),
			})
		}
		return nil

	case *UnaryOpNode:
		if t.Op != "*" {
			return &TypeError{Message: "invalid assignment target"}
		}
		ptr, err := e.resolvePointerChain(t.Operand)
		if err != nil {
			return err
		}
		if err := ptr.AssignThrough(value); err != nil {
			return err
		}
		if e.Emitter != nil {
			e.Emitter.Emit(KindPointerAssignment, PointerAssignmentFields{Target: displayNode(target), Value: value.String()})
		}
		return nil

	default:
		return &TypeError{Message: "invalid assignment target"}
	}
}

// resolvePointerChain evaluates n to a Pointer, recursing through
// nested dereferences so `**p = v` writes through both levels (spec
// §4.4: "evaluates the operand to a Pointer recursively").
func (e *Engine) resolvePointerChain(n Node) (*PointerVal, error) {
	v, err := e.Eval(n)
	if err != nil {
		return nil, err
	}
	if v.Kind() != KindPointer {
		return nil, &TypeError{Message: "dereference assignment requires pointer type"}
	}
	return v.AsPointer(), nil
}

func (e *Engine) evalAssignment(n *AssignmentNode) (Value, error) {
	if n.Op == "=" {
		v, err := e.Eval(n.Value)
		if err != nil {
			return Unit, err
		}
		if err := e.assignLValue(n.Target, v); err != nil {
			return Unit, err
		}
		return v, nil
	}

	baseOp := strings.TrimSuffix(n.Op, "=")
	current, err := e.Eval(n.Target)
	if err != nil {
		return Unit, err
	}
	rhs, err := e.Eval(n.Value)
	if err != nil {
		return Unit, err
	}
	next, err := BinaryArith(baseOp, current, rhs)
	if err != nil {
		return Unit, err
	}
	if err := e.assignLValue(n.Target, next); err != nil {
		return Unit, err
	}
	return next, nil
}

func (e *Engine) evalSizeof(n *SizeofNode) (Value, error) {
	if n.IsType {
		return I32Value(int32(typeSize(n.TypeArg))), nil
	}
	v, err := e.Eval(n.ExprArg)
	if err != nil {
		return Unit, err
	}
	return I32Value(int32(valueSize(v))), nil
}

// typeSize returns the Arduino-compatible byte size for a type node
// (spec §4.4): char/byte/bool=1, short=2, int/long/float/double=4 on
// the engine's targeted 32-bit defaults; pointers are always 4 bytes
// regardless of pointee (DESIGN.md Open Question decision).
func typeSize(t *TypeNode) int {
	if t == nil {
		return 0
	}
	if t.PointerLevel > 0 {
		return 4
	}
	switch t.Name {
	case "char", "byte", "bool", "boolean":
		return 1
	case "short":
		return 2
	case "int", "long", "float", "double", "unsigned int", "unsigned long":
		return 4
	default:
		return 4
	}
}

func valueSize(v Value) int {
	switch v.Kind() {
	case KindBool:
		return 1
	case KindPointer:
		return 4
	default:
		return 4
	}
}

func (e *Engine) evalCast(n *CastNode) (Value, error) {
	v, err := e.Eval(n.Operand)
	if err != nil {
		return Unit, err
	}
	f, _ := v.numeric()
	switch n.TargetType.Name {
	case "float", "double":
		return F64Value(f), nil
	case "bool", "boolean":
		return BoolValue(f != 0), nil
	case "unsigned int", "unsigned long", "byte":
		return U32Value(uint32(int64(f))), nil
	default:
		return I32Value(int32(f)), nil
	}
}

func (e *Engine) evalConstructorCall(n *ConstructorCallNode) (Value, error) {
	if len(n.Args) == 0 {
		return Unit, nil
	}
	return e.Eval(n.Args[0])
}

func displayNode(n Node) string {
	switch t := n.(type) {
	case *IdentifierNode:
		return t.Name
	case *ArrayAccessNode:
		return displayNode(t.Array) + "[...]"
	case *MemberAccessNode:
		if t.Arrow {
			return displayNode(t.Object) + "->" + t.Field
		}
		return displayNode(t.Object) + "." + t.Field
	case *UnaryOpNode:
		return t.Op + displayNode(t.Operand)
	default:
		return "<expr>"
	}
}

func errorFields(err error) ErrorFields {
	ee := AsEngineError(err)
	return ErrorFields{ErrorKind: string(ee.Kind()), Message: ee.Error(), Fatal: ee.Fatal()}
}
