package sketchvm

import "math"

const noRef uint32 = 0xFFFFFFFF

// encoder walks the tree post-order (children before parents) so that
// every child reference inside a node's payload is a plain index into
// the already-emitted node records — no forward references, no
// separate relocation pass, following the teacher's single-pass
// label-resolution style in vm_encoder.go.
type encoder struct {
	strs    *stringTable
	records [][]byte // one encoded record per node, in emission order
	index   map[Node]uint32
}

// Encode serializes an AST into the Compact AST binary container.
func Encode(root Node) []byte {
	e := &encoder{strs: newStringTable(), index: make(map[Node]uint32)}
	e.emit(root)

	var out []byte
	out = append(out, codecMagic[:]...)
	out = encodeU16(out, codecVersion)
	out = encodeU16(out, 0) // flags, reserved
	out = encodeU32(out, uint32(len(e.records)))
	strBytes := e.strs.encode()
	out = encodeU32(out, uint32(len(strBytes)))
	out = append(out, strBytes...)
	for _, rec := range e.records {
		out = append(out, rec...)
	}
	return out
}

// emit recursively encodes n's children, then n itself, returning n's
// assigned node index.
func (e *encoder) emit(n Node) uint32 {
	if n == nil {
		return noRef
	}
	if idx, ok := e.index[n]; ok {
		return idx
	}
	var payload []byte
	var flags byte

	switch t := n.(type) {
	case *ProgramNode:
		refs := e.emitAll(t.Declarations)
		payload = encodeRefs(refs)
	case *FuncDefNode:
		rt := e.emit(t.ReturnType)
		decl := e.emit(t.Declarator)
		params := e.emitAll(nodesOf(t.Params))
		body := e.emit(t.Body)
		payload = encodeU32(payload, rt)
		payload = encodeU32(payload, decl)
		payload = encodeRefs(params)
		payload = encodeU32(payload, body)
	case *VarDeclNode:
		if t.IsConst {
			flags |= flagIsConst
		}
		ty := e.emit(t.TypeNode)
		decls := e.emitAll(nodesOf(t.Declarators))
		payload = encodeU32(payload, ty)
		payload = encodeRefs(decls)
	case *DeclaratorNode:
		name := e.strs.intern(t.Name)
		dims := e.emitAll(t.ArrayDims)
		init := e.emit(t.Initializer)
		payload = encodeU32(payload, name)
		payload = encodeU32(payload, uint32(t.PointerLevel))
		payload = encodeRefs(dims)
		payload = encodeU32(payload, init)
	case *FuncPointerDeclaratorNode:
		name := e.strs.intern(t.Name)
		params := e.emitAll(nodesOf(t.Params))
		payload = encodeU32(payload, name)
		payload = encodeRefs(params)
	case *ParamNode:
		ty := e.emit(t.TypeNode)
		payload = encodeU32(payload, ty)
		if t.IsFuncPtr {
			payload = append(payload, 1)
			payload = encodeU32(payload, e.emit(t.FuncPtr))
		} else {
			payload = append(payload, 0)
			payload = encodeU32(payload, e.strs.intern(t.Name))
		}
	case *BlockNode:
		stmts := e.emitAll(t.Statements)
		payload = encodeRefs(stmts)
	case *IfNode:
		cond := e.emit(t.Condition)
		cons := e.emit(t.Consequent)
		alt := e.emit(t.Alternate)
		payload = encodeU32(payload, cond)
		payload = encodeU32(payload, cons)
		payload = encodeU32(payload, alt)
	case *WhileNode:
		payload = encodeU32(payload, e.emit(t.Condition))
		payload = encodeU32(payload, e.emit(t.Body))
	case *DoWhileNode:
		payload = encodeU32(payload, e.emit(t.Body))
		payload = encodeU32(payload, e.emit(t.Condition))
	case *ForNode:
		payload = encodeU32(payload, e.emit(t.Init))
		payload = encodeU32(payload, e.emit(t.Condition))
		payload = encodeU32(payload, e.emit(t.Update))
		payload = encodeU32(payload, e.emit(t.Body))
	case *RangeForNode:
		ty := e.emit(t.VarType)
		name := e.strs.intern(t.VarName)
		iter := e.emit(t.Iterable)
		body := e.emit(t.Body)
		payload = encodeU32(payload, ty)
		payload = encodeU32(payload, name)
		payload = encodeU32(payload, iter)
		payload = encodeU32(payload, body)
	case *SwitchNode:
		disc := e.emit(t.Discriminant)
		cases := e.emitAll(nodesOf(t.Cases))
		payload = encodeU32(payload, disc)
		payload = encodeRefs(cases)
	case *CaseNode:
		test := e.emit(t.Test)
		body := e.emit(t.Consequent)
		payload = encodeU32(payload, test)
		payload = encodeU32(payload, body)
	case *BreakNode:
	case *ContinueNode:
	case *ReturnNode:
		payload = encodeU32(payload, e.emit(t.Value))
	case *ExpressionStatementNode:
		payload = encodeU32(payload, e.emit(t.Expr))
	case *AssignmentNode:
		op := e.strs.intern(t.Op)
		target := e.emit(t.Target)
		value := e.emit(t.Value)
		payload = encodeU32(payload, op)
		payload = encodeU32(payload, target)
		payload = encodeU32(payload, value)
	case *BinaryOpNode:
		op := e.strs.intern(t.Op)
		left := e.emit(t.Left)
		right := e.emit(t.Right)
		payload = encodeU32(payload, op)
		payload = encodeU32(payload, left)
		payload = encodeU32(payload, right)
	case *UnaryOpNode:
		op := e.strs.intern(t.Op)
		operand := e.emit(t.Operand)
		payload = encodeU32(payload, op)
		payload = encodeU32(payload, operand)
	case *PostfixNode:
		op := e.strs.intern(t.Op)
		operand := e.emit(t.Operand)
		payload = encodeU32(payload, op)
		payload = encodeU32(payload, operand)
	case *TernaryNode:
		payload = encodeU32(payload, e.emit(t.Condition))
		payload = encodeU32(payload, e.emit(t.Consequent))
		payload = encodeU32(payload, e.emit(t.Alternate))
	case *CommaNode:
		items := e.emitAll(t.Items)
		payload = encodeRefs(items)
	case *MemberAccessNode:
		obj := e.emit(t.Object)
		field := e.strs.intern(t.Field)
		payload = encodeU32(payload, obj)
		payload = encodeU32(payload, field)
		if t.Arrow {
			payload = append(payload, 1)
		} else {
			payload = append(payload, 0)
		}
	case *ArrayAccessNode:
		payload = encodeU32(payload, e.emit(t.Array))
		payload = encodeU32(payload, e.emit(t.Index))
	case *ArrayInitializerNode:
		items := e.emitAll(t.Items)
		payload = encodeRefs(items)
	case *DesignatedInitializerNode:
		des := e.strs.intern(t.Designator)
		payload = encodeU32(payload, des)
		payload = encodeU32(payload, e.emit(t.Value))
	case *FuncCallNode:
		callee := e.emit(t.Callee)
		args := e.emitAll(t.Args)
		payload = encodeU32(payload, callee)
		payload = encodeRefs(args)
	case *ConstructorCallNode:
		name := e.strs.intern(t.TypeName)
		args := e.emitAll(t.Args)
		payload = encodeU32(payload, name)
		payload = encodeRefs(args)
	case *SizeofNode:
		if t.IsType {
			payload = append(payload, 1)
			payload = encodeU32(payload, e.emit(t.TypeArg))
		} else {
			payload = append(payload, 0)
			payload = encodeU32(payload, e.emit(t.ExprArg))
		}
	case *CastNode:
		payload = encodeU32(payload, e.emit(t.TargetType))
		payload = encodeU32(payload, e.emit(t.Operand))
	case *IdentifierNode:
		payload = encodeU32(payload, e.strs.intern(t.Name))
	case *NumericLiteralNode:
		if t.IsFloat {
			payload = append(payload, 1)
			bits := math.Float64bits(t.FloatVal)
			payload = encodeU32(payload, uint32(bits))
			payload = encodeU32(payload, uint32(bits>>32))
		} else {
			payload = append(payload, 0)
			u := uint64(t.IntVal)
			payload = encodeU32(payload, uint32(u))
			payload = encodeU32(payload, uint32(u>>32))
		}
	case *StringLiteralNode:
		payload = encodeU32(payload, e.strs.intern(t.Value))
	case *CharLiteralNode:
		payload = encodeU32(payload, uint32(t.Value))
	case *BoolLiteralNode:
		if t.Value {
			payload = append(payload, 1)
		} else {
			payload = append(payload, 0)
		}
	case *NullLiteralNode:
	case *TypeNode:
		name := e.strs.intern(t.Name)
		payload = encodeU32(payload, name)
		payload = encodeU32(payload, uint32(t.PointerLevel))
		if t.IsStruct {
			payload = append(payload, 1)
		} else {
			payload = append(payload, 0)
		}
	case *TypedefNode:
		name := e.strs.intern(t.Name)
		payload = encodeU32(payload, name)
		payload = encodeU32(payload, e.emit(t.Underlying))
	default:
		panic("sketchvm: codec: unknown node type in Encode")
	}

	rec := []byte{byte(n.Type()), flags}
	rec = encodeU16(rec, uint16(len(payload)))
	rec = append(rec, payload...)

	idx := uint32(len(e.records))
	e.records = append(e.records, rec)
	e.index[n] = idx
	return idx
}

func (e *encoder) emitAll(ns []Node) []uint32 {
	out := make([]uint32, len(ns))
	for i, n := range ns {
		out[i] = e.emit(n)
	}
	return out
}

func encodeRefs(refs []uint32) []byte {
	out := encodeU32(nil, uint32(len(refs)))
	for _, r := range refs {
		out = encodeU32(out, r)
	}
	return out
}

func nodesOf[T Node](ts []T) []Node {
	out := make([]Node, len(ts))
	for i, t := range ts {
		out[i] = t
	}
	return out
}
