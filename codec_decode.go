package sketchvm

import (
	"encoding/binary"
	"math"
)

// Decode parses a Compact AST binary container produced by Encode and
// reconstructs the root Node. Returns InternalInvariantError for a
// short or bad header, a truncated string table or payload, and an
// empty node stream. A child or string index outside the decoded
// tables is not an error: it decodes as a nil child or an empty string.
func Decode(buf []byte) (Node, error) {
	if len(buf) < 4+2+2+4+4 {
		return nil, &InternalInvariantError{Message: "codec: buffer too short for header"}
	}
	if buf[0] != codecMagic[0] || buf[1] != codecMagic[1] || buf[2] != codecMagic[2] || buf[3] != codecMagic[3] {
		return nil, &InternalInvariantError{Message: "codec: bad magic"}
	}
	off := 4
	version := binary.LittleEndian.Uint16(buf[off:])
	off += 2
	if version != codecVersion {
		return nil, &InternalInvariantError{Message: "codec: unsupported version"}
	}
	off += 2 // flags, reserved
	nodeCount := binary.LittleEndian.Uint32(buf[off:])
	off += 4
	strTableSize := binary.LittleEndian.Uint32(buf[off:])
	off += 4

	if off+int(strTableSize) > len(buf) {
		return nil, &InternalInvariantError{Message: "codec: truncated string table"}
	}
	strs, err := decodeStringTable(buf[off:off+int(strTableSize)], strTableSize)
	if err != nil {
		return nil, err
	}
	off += int(strTableSize)

	d := &decoder{buf: buf, off: off, strs: strs, nodes: make([]Node, 0, nodeCount)}
	for i := uint32(0); i < nodeCount; i++ {
		n, err := d.decodeOne()
		if err != nil {
			return nil, err
		}
		d.nodes = append(d.nodes, n)
	}
	if nodeCount == 0 {
		return nil, &InternalInvariantError{Message: "codec: empty node stream"}
	}
	return d.nodes[nodeCount-1], nil
}

type decoder struct {
	buf   []byte
	off   int
	strs  []string
	nodes []Node
}

func (d *decoder) str(i uint32) string {
	if int(i) >= len(d.strs) {
		return ""
	}
	return d.strs[i]
}

func (d *decoder) ref(i uint32) Node {
	if i == noRef || int(i) >= len(d.nodes) {
		return nil
	}
	return d.nodes[i]
}

func (d *decoder) u32() (uint32, error) {
	if d.off+4 > len(d.buf) {
		return 0, &InternalInvariantError{Message: "codec: truncated payload"}
	}
	v := binary.LittleEndian.Uint32(d.buf[d.off:])
	d.off += 4
	return v, nil
}

func (d *decoder) byte1() (byte, error) {
	if d.off+1 > len(d.buf) {
		return 0, &InternalInvariantError{Message: "codec: truncated payload"}
	}
	v := d.buf[d.off]
	d.off++
	return v, nil
}

func (d *decoder) refs() ([]Node, error) {
	n, err := d.u32()
	if err != nil {
		return nil, err
	}
	out := make([]Node, n)
	for i := range out {
		r, err := d.u32()
		if err != nil {
			return nil, err
		}
		out[i] = d.ref(r)
	}
	return out, nil
}

func (d *decoder) decodeOne() (Node, error) {
	if d.off+4 > len(d.buf) {
		return nil, &InternalInvariantError{Message: "codec: truncated record header"}
	}
	nt := NodeType(d.buf[d.off])
	flags := d.buf[d.off+1]
	dataSize := int(binary.LittleEndian.Uint16(d.buf[d.off+2:]))
	d.off += 4
	payloadStart := d.off
	payloadEnd := payloadStart + dataSize
	if payloadEnd > len(d.buf) {
		return nil, &InternalInvariantError{Message: "codec: truncated node payload"}
	}

	n, err := d.decodePayload(nt, flags)
	if err != nil {
		return nil, err
	}
	if d.off != payloadEnd {
		return nil, &InternalInvariantError{Message: "codec: payload size mismatch"}
	}
	return n, nil
}

func (d *decoder) decodePayload(nt NodeType, flags byte) (Node, error) {
	switch nt {
	case NodeProgram:
		decls, err := d.refs()
		if err != nil {
			return nil, err
		}
		return &ProgramNode{Declarations: decls}, nil

	case NodeFuncDef:
		rt, err := d.u32()
		if err != nil {
			return nil, err
		}
		decl, err := d.u32()
		if err != nil {
			return nil, err
		}
		paramNodes, err := d.refs()
		if err != nil {
			return nil, err
		}
		body, err := d.u32()
		if err != nil {
			return nil, err
		}
		return &FuncDefNode{
			ReturnType: asType(d.ref(rt)),
			Declarator: asDeclarator(d.ref(decl)),
			Params:     asParams(paramNodes),
			Body:       asBlock(d.ref(body)),
		}, nil

	case NodeVarDecl:
		ty, err := d.u32()
		if err != nil {
			return nil, err
		}
		declNodes, err := d.refs()
		if err != nil {
			return nil, err
		}
		return &VarDeclNode{
			TypeNode:    asType(d.ref(ty)),
			Declarators: asDeclarators(declNodes),
			IsConst:     flags&flagIsConst != 0,
		}, nil

	case NodeDeclarator:
		name, err := d.u32()
		if err != nil {
			return nil, err
		}
		plevel, err := d.u32()
		if err != nil {
			return nil, err
		}
		dims, err := d.refs()
		if err != nil {
			return nil, err
		}
		init, err := d.u32()
		if err != nil {
			return nil, err
		}
		return &DeclaratorNode{
			Name:         d.str(name),
			PointerLevel: int(plevel),
			ArrayDims:    dims,
			Initializer:  d.ref(init),
		}, nil

	case NodeFuncPointerDeclarator:
		name, err := d.u32()
		if err != nil {
			return nil, err
		}
		params, err := d.refs()
		if err != nil {
			return nil, err
		}
		return &FuncPointerDeclaratorNode{Name: d.str(name), Params: asParams(params)}, nil

	case NodeParam:
		ty, err := d.u32()
		if err != nil {
			return nil, err
		}
		isFP, err := d.byte1()
		if err != nil {
			return nil, err
		}
		if isFP != 0 {
			fp, err := d.u32()
			if err != nil {
				return nil, err
			}
			return &ParamNode{TypeNode: asType(d.ref(ty)), IsFuncPtr: true, FuncPtr: asFuncPtrDecl(d.ref(fp))}, nil
		}
		name, err := d.u32()
		if err != nil {
			return nil, err
		}
		return &ParamNode{TypeNode: asType(d.ref(ty)), Name: d.str(name)}, nil

	case NodeBlock:
		stmts, err := d.refs()
		if err != nil {
			return nil, err
		}
		return &BlockNode{Statements: stmts}, nil

	case NodeIf:
		cond, err := d.u32()
		if err != nil {
			return nil, err
		}
		cons, err := d.u32()
		if err != nil {
			return nil, err
		}
		alt, err := d.u32()
		if err != nil {
			return nil, err
		}
		return &IfNode{Condition: d.ref(cond), Consequent: d.ref(cons), Alternate: d.ref(alt)}, nil

	case NodeWhile:
		cond, err := d.u32()
		if err != nil {
			return nil, err
		}
		body, err := d.u32()
		if err != nil {
			return nil, err
		}
		return &WhileNode{Condition: d.ref(cond), Body: d.ref(body)}, nil

	case NodeDoWhile:
		body, err := d.u32()
		if err != nil {
			return nil, err
		}
		cond, err := d.u32()
		if err != nil {
			return nil, err
		}
		return &DoWhileNode{Body: d.ref(body), Condition: d.ref(cond)}, nil

	case NodeFor:
		init, err := d.u32()
		if err != nil {
			return nil, err
		}
		cond, err := d.u32()
		if err != nil {
			return nil, err
		}
		upd, err := d.u32()
		if err != nil {
			return nil, err
		}
		body, err := d.u32()
		if err != nil {
			return nil, err
		}
		return &ForNode{Init: d.ref(init), Condition: d.ref(cond), Update: d.ref(upd), Body: d.ref(body)}, nil

	case NodeRangeFor:
		ty, err := d.u32()
		if err != nil {
			return nil, err
		}
		name, err := d.u32()
		if err != nil {
			return nil, err
		}
		iter, err := d.u32()
		if err != nil {
			return nil, err
		}
		body, err := d.u32()
		if err != nil {
			return nil, err
		}
		return &RangeForNode{VarType: asType(d.ref(ty)), VarName: d.str(name), Iterable: d.ref(iter), Body: d.ref(body)}, nil

	case NodeSwitch:
		disc, err := d.u32()
		if err != nil {
			return nil, err
		}
		cases, err := d.refs()
		if err != nil {
			return nil, err
		}
		return &SwitchNode{Discriminant: d.ref(disc), Cases: asCases(cases)}, nil

	case NodeCase:
		test, err := d.u32()
		if err != nil {
			return nil, err
		}
		body, err := d.u32()
		if err != nil {
			return nil, err
		}
		return &CaseNode{Test: d.ref(test), Consequent: asBlock(d.ref(body))}, nil

	case NodeBreak:
		return &BreakNode{}, nil
	case NodeContinue:
		return &ContinueNode{}, nil

	case NodeReturn:
		v, err := d.u32()
		if err != nil {
			return nil, err
		}
		return &ReturnNode{Value: d.ref(v)}, nil

	case NodeExpressionStatement:
		e, err := d.u32()
		if err != nil {
			return nil, err
		}
		return &ExpressionStatementNode{Expr: d.ref(e)}, nil

	case NodeAssignment:
		op, err := d.u32()
		if err != nil {
			return nil, err
		}
		target, err := d.u32()
		if err != nil {
			return nil, err
		}
		value, err := d.u32()
		if err != nil {
			return nil, err
		}
		return &AssignmentNode{Op: d.str(op), Target: d.ref(target), Value: d.ref(value)}, nil

	case NodeBinaryOp:
		op, err := d.u32()
		if err != nil {
			return nil, err
		}
		l, err := d.u32()
		if err != nil {
			return nil, err
		}
		r, err := d.u32()
		if err != nil {
			return nil, err
		}
		return &BinaryOpNode{Op: d.str(op), Left: d.ref(l), Right: d.ref(r)}, nil

	case NodeUnaryOp:
		op, err := d.u32()
		if err != nil {
			return nil, err
		}
		operand, err := d.u32()
		if err != nil {
			return nil, err
		}
		return &UnaryOpNode{Op: d.str(op), Operand: d.ref(operand)}, nil

	case NodePostfix:
		op, err := d.u32()
		if err != nil {
			return nil, err
		}
		operand, err := d.u32()
		if err != nil {
			return nil, err
		}
		return &PostfixNode{Op: d.str(op), Operand: d.ref(operand)}, nil

	case NodeTernary:
		cond, err := d.u32()
		if err != nil {
			return nil, err
		}
		cons, err := d.u32()
		if err != nil {
			return nil, err
		}
		alt, err := d.u32()
		if err != nil {
			return nil, err
		}
		return &TernaryNode{Condition: d.ref(cond), Consequent: d.ref(cons), Alternate: d.ref(alt)}, nil

	case NodeComma:
		items, err := d.refs()
		if err != nil {
			return nil, err
		}
		return &CommaNode{Items: items}, nil

	case NodeMemberAccess:
		obj, err := d.u32()
		if err != nil {
			return nil, err
		}
		field, err := d.u32()
		if err != nil {
			return nil, err
		}
		arrow, err := d.byte1()
		if err != nil {
			return nil, err
		}
		return &MemberAccessNode{Object: d.ref(obj), Field: d.str(field), Arrow: arrow != 0}, nil

	case NodeArrayAccess:
		arr, err := d.u32()
		if err != nil {
			return nil, err
		}
		idx, err := d.u32()
		if err != nil {
			return nil, err
		}
		return &ArrayAccessNode{Array: d.ref(arr), Index: d.ref(idx)}, nil

	case NodeArrayInitializer:
		items, err := d.refs()
		if err != nil {
			return nil, err
		}
		return &ArrayInitializerNode{Items: items}, nil

	case NodeDesignatedInitializer:
		des, err := d.u32()
		if err != nil {
			return nil, err
		}
		val, err := d.u32()
		if err != nil {
			return nil, err
		}
		return &DesignatedInitializerNode{Designator: d.str(des), Value: d.ref(val)}, nil

	case NodeFuncCall:
		callee, err := d.u32()
		if err != nil {
			return nil, err
		}
		args, err := d.refs()
		if err != nil {
			return nil, err
		}
		return &FuncCallNode{Callee: d.ref(callee), Args: args}, nil

	case NodeConstructorCall:
		name, err := d.u32()
		if err != nil {
			return nil, err
		}
		args, err := d.refs()
		if err != nil {
			return nil, err
		}
		return &ConstructorCallNode{TypeName: d.str(name), Args: args}, nil

	case NodeSizeof:
		isType, err := d.byte1()
		if err != nil {
			return nil, err
		}
		ref, err := d.u32()
		if err != nil {
			return nil, err
		}
		if isType != 0 {
			return &SizeofNode{IsType: true, TypeArg: asType(d.ref(ref))}, nil
		}
		return &SizeofNode{IsType: false, ExprArg: d.ref(ref)}, nil

	case NodeCast:
		ty, err := d.u32()
		if err != nil {
			return nil, err
		}
		operand, err := d.u32()
		if err != nil {
			return nil, err
		}
		return &CastNode{TargetType: asType(d.ref(ty)), Operand: d.ref(operand)}, nil

	case NodeIdentifier:
		name, err := d.u32()
		if err != nil {
			return nil, err
		}
		return &IdentifierNode{Name: d.str(name)}, nil

	case NodeNumericLiteral:
		isFloat, err := d.byte1()
		if err != nil {
			return nil, err
		}
		lo, err := d.u32()
		if err != nil {
			return nil, err
		}
		hi, err := d.u32()
		if err != nil {
			return nil, err
		}
		bits := uint64(lo) | uint64(hi)<<32
		if isFloat != 0 {
			return &NumericLiteralNode{IsFloat: true, FloatVal: math.Float64frombits(bits)}, nil
		}
		return &NumericLiteralNode{IsFloat: false, IntVal: int64(bits)}, nil

	case NodeStringLiteral:
		v, err := d.u32()
		if err != nil {
			return nil, err
		}
		return &StringLiteralNode{Value: d.str(v)}, nil

	case NodeCharLiteral:
		v, err := d.u32()
		if err != nil {
			return nil, err
		}
		return &CharLiteralNode{Value: rune(v)}, nil

	case NodeBoolLiteral:
		v, err := d.byte1()
		if err != nil {
			return nil, err
		}
		return &BoolLiteralNode{Value: v != 0}, nil

	case NodeNullLiteral:
		return &NullLiteralNode{}, nil

	case NodeTypeNode:
		name, err := d.u32()
		if err != nil {
			return nil, err
		}
		plevel, err := d.u32()
		if err != nil {
			return nil, err
		}
		isStruct, err := d.byte1()
		if err != nil {
			return nil, err
		}
		return &TypeNode{Name: d.str(name), PointerLevel: int(plevel), IsStruct: isStruct != 0}, nil

	case NodeTypedef:
		name, err := d.u32()
		if err != nil {
			return nil, err
		}
		under, err := d.u32()
		if err != nil {
			return nil, err
		}
		return &TypedefNode{Name: d.str(name), Underlying: asType(d.ref(under))}, nil

	default:
		return nil, &InternalInvariantError{Message: "codec: unknown node type tag in stream"}
	}
}

func asType(n Node) *TypeNode {
	t, _ := n.(*TypeNode)
	return t
}

func asBlock(n Node) *BlockNode {
	b, _ := n.(*BlockNode)
	return b
}

func asDeclarator(n Node) *DeclaratorNode {
	d, _ := n.(*DeclaratorNode)
	return d
}

func asFuncPtrDecl(n Node) *FuncPointerDeclaratorNode {
	f, _ := n.(*FuncPointerDeclaratorNode)
	return f
}

func asDeclarators(ns []Node) []*DeclaratorNode {
	out := make([]*DeclaratorNode, len(ns))
	for i, n := range ns {
		out[i] = asDeclarator(n)
	}
	return out
}

func asParams(ns []Node) []*ParamNode {
	out := make([]*ParamNode, len(ns))
	for i, n := range ns {
		out[i], _ = n.(*ParamNode)
	}
	return out
}

func asCases(ns []Node) []*CaseNode {
	out := make([]*CaseNode, len(ns))
	for i, n := range ns {
		out[i], _ = n.(*CaseNode)
	}
	return out
}
