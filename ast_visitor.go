package sketchvm

// Visitor is a double-dispatch contract with one method per node kind,
// grounded on clarete-langlang/go/grammar_ast_visitor.go's
// AstNodeVisitor interface. The codec encoder, the evaluator and the
// statement executor do not implement it; they type-switch on Node.
type Visitor interface {
	VisitProgram(*ProgramNode) error
	VisitFuncDef(*FuncDefNode) error
	VisitVarDecl(*VarDeclNode) error
	VisitDeclarator(*DeclaratorNode) error
	VisitFuncPointerDeclarator(*FuncPointerDeclaratorNode) error
	VisitParam(*ParamNode) error
	VisitBlock(*BlockNode) error
	VisitIf(*IfNode) error
	VisitWhile(*WhileNode) error
	VisitDoWhile(*DoWhileNode) error
	VisitFor(*ForNode) error
	VisitRangeFor(*RangeForNode) error
	VisitSwitch(*SwitchNode) error
	VisitCase(*CaseNode) error
	VisitBreak(*BreakNode) error
	VisitContinue(*ContinueNode) error
	VisitReturn(*ReturnNode) error
	VisitExpressionStatement(*ExpressionStatementNode) error
	VisitAssignment(*AssignmentNode) error
	VisitBinaryOp(*BinaryOpNode) error
	VisitUnaryOp(*UnaryOpNode) error
	VisitPostfix(*PostfixNode) error
	VisitTernary(*TernaryNode) error
	VisitComma(*CommaNode) error
	VisitMemberAccess(*MemberAccessNode) error
	VisitArrayAccess(*ArrayAccessNode) error
	VisitArrayInitializer(*ArrayInitializerNode) error
	VisitDesignatedInitializer(*DesignatedInitializerNode) error
	VisitFuncCall(*FuncCallNode) error
	VisitConstructorCall(*ConstructorCallNode) error
	VisitSizeof(*SizeofNode) error
	VisitCast(*CastNode) error
	VisitIdentifier(*IdentifierNode) error
	VisitNumericLiteral(*NumericLiteralNode) error
	VisitStringLiteral(*StringLiteralNode) error
	VisitCharLiteral(*CharLiteralNode) error
	VisitBoolLiteral(*BoolLiteralNode) error
	VisitNullLiteral(*NullLiteralNode) error
	VisitTypeNode(*TypeNode) error
	VisitTypedef(*TypedefNode) error
}

// BaseVisitor implements every Visitor method as a no-op, letting
// callers embed it and override only the methods they care about —
// the same partial-visitor convenience as the teacher's
// BaseAstNodeVisitor.
type BaseVisitor struct{}

func (BaseVisitor) VisitProgram(*ProgramNode) error                                 { return nil }
func (BaseVisitor) VisitFuncDef(*FuncDefNode) error                                 { return nil }
func (BaseVisitor) VisitVarDecl(*VarDeclNode) error                                 { return nil }
func (BaseVisitor) VisitDeclarator(*DeclaratorNode) error                          { return nil }
func (BaseVisitor) VisitFuncPointerDeclarator(*FuncPointerDeclaratorNode) error     { return nil }
func (BaseVisitor) VisitParam(*ParamNode) error                                     { return nil }
func (BaseVisitor) VisitBlock(*BlockNode) error                                     { return nil }
func (BaseVisitor) VisitIf(*IfNode) error                                           { return nil }
func (BaseVisitor) VisitWhile(*WhileNode) error                                     { return nil }
func (BaseVisitor) VisitDoWhile(*DoWhileNode) error                                 { return nil }
func (BaseVisitor) VisitFor(*ForNode) error                                         { return nil }
func (BaseVisitor) VisitRangeFor(*RangeForNode) error                               { return nil }
func (BaseVisitor) VisitSwitch(*SwitchNode) error                                   { return nil }
func (BaseVisitor) VisitCase(*CaseNode) error                                       { return nil }
func (BaseVisitor) VisitBreak(*BreakNode) error                                     { return nil }
func (BaseVisitor) VisitContinue(*ContinueNode) error                               { return nil }
func (BaseVisitor) VisitReturn(*ReturnNode) error                                   { return nil }
func (BaseVisitor) VisitExpressionStatement(*ExpressionStatementNode) error         { return nil }
func (BaseVisitor) VisitAssignment(*AssignmentNode) error                          { return nil }
func (BaseVisitor) VisitBinaryOp(*BinaryOpNode) error                              { return nil }
func (BaseVisitor) VisitUnaryOp(*UnaryOpNode) error                                { return nil }
func (BaseVisitor) VisitPostfix(*PostfixNode) error                                { return nil }
func (BaseVisitor) VisitTernary(*TernaryNode) error                                { return nil }
func (BaseVisitor) VisitComma(*CommaNode) error                                    { return nil }
func (BaseVisitor) VisitMemberAccess(*MemberAccessNode) error                      { return nil }
func (BaseVisitor) VisitArrayAccess(*ArrayAccessNode) error                        { return nil }
func (BaseVisitor) VisitArrayInitializer(*ArrayInitializerNode) error              { return nil }
func (BaseVisitor) VisitDesignatedInitializer(*DesignatedInitializerNode) error    { return nil }
func (BaseVisitor) VisitFuncCall(*FuncCallNode) error                              { return nil }
func (BaseVisitor) VisitConstructorCall(*ConstructorCallNode) error                { return nil }
func (BaseVisitor) VisitSizeof(*SizeofNode) error                                  { return nil }
func (BaseVisitor) VisitCast(*CastNode) error                                      { return nil }
func (BaseVisitor) VisitIdentifier(*IdentifierNode) error                          { return nil }
func (BaseVisitor) VisitNumericLiteral(*NumericLiteralNode) error                  { return nil }
func (BaseVisitor) VisitStringLiteral(*StringLiteralNode) error                    { return nil }
func (BaseVisitor) VisitCharLiteral(*CharLiteralNode) error                        { return nil }
func (BaseVisitor) VisitBoolLiteral(*BoolLiteralNode) error                        { return nil }
func (BaseVisitor) VisitNullLiteral(*NullLiteralNode) error                        { return nil }
func (BaseVisitor) VisitTypeNode(*TypeNode) error                                  { return nil }
func (BaseVisitor) VisitTypedef(*TypedefNode) error                                { return nil }

// Children returns a node's direct AST children in traversal order,
// used by Walk and by the CLI's AST dump (cmd/sketchvm). Leaf nodes
// (identifiers, literals, break/continue) return nil.
func Children(n Node) []Node {
	switch t := n.(type) {
	case *ProgramNode:
		return t.Declarations
	case *FuncDefNode:
		out := []Node{t.ReturnType, t.Declarator}
		for _, p := range t.Params {
			out = append(out, p)
		}
		return append(out, t.Body)
	case *VarDeclNode:
		out := []Node{t.TypeNode}
		for _, d := range t.Declarators {
			out = append(out, d)
		}
		return out
	case *DeclaratorNode:
		out := append([]Node{}, t.ArrayDims...)
		if t.Initializer != nil {
			out = append(out, t.Initializer)
		}
		return out
	case *FuncPointerDeclaratorNode:
		out := make([]Node, 0, len(t.Params))
		for _, p := range t.Params {
			out = append(out, p)
		}
		return out
	case *ParamNode:
		if t.IsFuncPtr {
			return []Node{t.TypeNode, t.FuncPtr}
		}
		return []Node{t.TypeNode}
	case *BlockNode:
		return t.Statements
	case *IfNode:
		if t.Alternate != nil {
			return []Node{t.Condition, t.Consequent, t.Alternate}
		}
		return []Node{t.Condition, t.Consequent}
	case *WhileNode:
		return []Node{t.Condition, t.Body}
	case *DoWhileNode:
		return []Node{t.Body, t.Condition}
	case *ForNode:
		var out []Node
		if t.Init != nil {
			out = append(out, t.Init)
		}
		if t.Condition != nil {
			out = append(out, t.Condition)
		}
		if t.Update != nil {
			out = append(out, t.Update)
		}
		return append(out, t.Body)
	case *RangeForNode:
		return []Node{t.VarType, t.Iterable, t.Body}
	case *SwitchNode:
		out := []Node{t.Discriminant}
		for _, c := range t.Cases {
			out = append(out, c)
		}
		return out
	case *CaseNode:
		if t.Test != nil {
			return []Node{t.Test, t.Consequent}
		}
		return []Node{t.Consequent}
	case *ReturnNode:
		if t.Value != nil {
			return []Node{t.Value}
		}
		return nil
	case *ExpressionStatementNode:
		return []Node{t.Expr}
	case *AssignmentNode:
		return []Node{t.Target, t.Value}
	case *BinaryOpNode:
		return []Node{t.Left, t.Right}
	case *UnaryOpNode:
		return []Node{t.Operand}
	case *PostfixNode:
		return []Node{t.Operand}
	case *TernaryNode:
		return []Node{t.Condition, t.Consequent, t.Alternate}
	case *CommaNode:
		return t.Items
	case *MemberAccessNode:
		return []Node{t.Object}
	case *ArrayAccessNode:
		return []Node{t.Array, t.Index}
	case *ArrayInitializerNode:
		return t.Items
	case *DesignatedInitializerNode:
		return []Node{t.Value}
	case *FuncCallNode:
		out := []Node{t.Callee}
		return append(out, t.Args...)
	case *ConstructorCallNode:
		return t.Args
	case *SizeofNode:
		if t.IsType {
			return []Node{t.TypeArg}
		}
		return []Node{t.ExprArg}
	case *CastNode:
		return []Node{t.TargetType, t.Operand}
	case *TypedefNode:
		return []Node{t.Underlying}
	default:
		return nil
	}
}

// Walk visits n and every descendant, depth-first pre-order, calling
// fn on each. Grounded on the teacher's WalkGrammarNode/Inspect helper
// (clarete-langlang/go/grammar_ast.go).
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}
