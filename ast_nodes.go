package sketchvm

// Concrete AST node structs. Each node's children are exposed through
// named, typed fields (spec §3: "every node exposes its typed
// children"), and each implements Accept by calling the matching
// Visitor method — grounded on clarete-langlang/go/grammar_ast.go's
// per-type node + Accept(AstNodeVisitor) pattern.

// ProgramNode is the AST root: an ordered list of top-level
// declarations (function definitions and global variable declarations),
// order preserved from the parser (spec §3 codec invariant).
type ProgramNode struct {
	Declarations []Node
}

func (n *ProgramNode) Type() NodeType      { return NodeProgram }
func (n *ProgramNode) Accept(v Visitor) error { return v.VisitProgram(n) }

// Setup returns the setup() function definition, if present.
func (n *ProgramNode) Setup() *FuncDefNode { return n.findFunc("setup") }

// Loop returns the loop() function definition, if present.
func (n *ProgramNode) Loop() *FuncDefNode { return n.findFunc("loop") }

func (n *ProgramNode) findFunc(name string) *FuncDefNode {
	for _, d := range n.Declarations {
		if fd, ok := d.(*FuncDefNode); ok && fd.Name() == name {
			return fd
		}
	}
	return nil
}

// Functions returns all user-defined function definitions in order.
func (n *ProgramNode) Functions() []*FuncDefNode {
	var out []*FuncDefNode
	for _, d := range n.Declarations {
		if fd, ok := d.(*FuncDefNode); ok {
			out = append(out, fd)
		}
	}
	return out
}

// Globals returns top-level variable declarations in order.
func (n *ProgramNode) Globals() []*VarDeclNode {
	var out []*VarDeclNode
	for _, d := range n.Declarations {
		if vd, ok := d.(*VarDeclNode); ok {
			out = append(out, vd)
		}
	}
	return out
}

// FuncDefNode children, per spec §3: [return_type, declarator, parameters…, body].
type FuncDefNode struct {
	ReturnType *TypeNode
	Declarator *DeclaratorNode
	Params     []*ParamNode
	Body       *BlockNode
}

func (n *FuncDefNode) Type() NodeType      { return NodeFuncDef }
func (n *FuncDefNode) Accept(v Visitor) error { return v.VisitFuncDef(n) }
func (n *FuncDefNode) Name() string        { return n.Declarator.Name }

// VarDeclNode: one type-node shared by one or more declarators. Per
// spec §3's codec invariant, each declarator owns its own initializer
// expression (re-parented from the declaration during decode).
type VarDeclNode struct {
	TypeNode    *TypeNode
	Declarators []*DeclaratorNode
	IsConst     bool
}

func (n *VarDeclNode) Type() NodeType      { return NodeVarDecl }
func (n *VarDeclNode) Accept(v Visitor) error { return v.VisitVarDecl(n) }

// DeclaratorNode binds a name, optionally with array dimensions and/or
// an initializer expression.
type DeclaratorNode struct {
	Name         string
	PointerLevel int
	ArrayDims    []Node // each a constant expression, empty if not an array
	Initializer  Node   // nil if none
}

func (n *DeclaratorNode) Type() NodeType      { return NodeDeclarator }
func (n *DeclaratorNode) Accept(v Visitor) error { return v.VisitDeclarator(n) }

// FuncPointerDeclaratorNode carries its identifier and parameter list
// explicitly (spec §3: "the decoder MUST link both when reconstructing
// parameter lists").
type FuncPointerDeclaratorNode struct {
	Name   string
	Params []*ParamNode
}

func (n *FuncPointerDeclaratorNode) Type() NodeType      { return NodeFuncPointerDeclarator }
func (n *FuncPointerDeclaratorNode) Accept(v Visitor) error { return v.VisitFuncPointerDeclarator(n) }

type ParamNode struct {
	TypeNode   *TypeNode
	Name       string
	IsFuncPtr  bool
	FuncPtr    *FuncPointerDeclaratorNode // set iff IsFuncPtr
}

func (n *ParamNode) Type() NodeType      { return NodeParam }
func (n *ParamNode) Accept(v Visitor) error { return v.VisitParam(n) }

type BlockNode struct {
	Statements []Node
}

func (n *BlockNode) Type() NodeType      { return NodeBlock }
func (n *BlockNode) Accept(v Visitor) error { return v.VisitBlock(n) }

type IfNode struct {
	Condition  Node
	Consequent Node
	Alternate  Node // nil if no else
}

func (n *IfNode) Type() NodeType      { return NodeIf }
func (n *IfNode) Accept(v Visitor) error { return v.VisitIf(n) }

type WhileNode struct {
	Condition Node
	Body      Node
}

func (n *WhileNode) Type() NodeType      { return NodeWhile }
func (n *WhileNode) Accept(v Visitor) error { return v.VisitWhile(n) }

type DoWhileNode struct {
	Body      Node
	Condition Node
}

func (n *DoWhileNode) Type() NodeType      { return NodeDoWhile }
func (n *DoWhileNode) Accept(v Visitor) error { return v.VisitDoWhile(n) }

type ForNode struct {
	Init      Node // nil, ExpressionStatementNode, or VarDeclNode
	Condition Node // nil means "always true"
	Update    Node // nil, or expression
	Body      Node
}

func (n *ForNode) Type() NodeType      { return NodeFor }
func (n *ForNode) Accept(v Visitor) error { return v.VisitFor(n) }

type RangeForNode struct {
	VarType  *TypeNode
	VarName  string
	Iterable Node
	Body     Node
}

func (n *RangeForNode) Type() NodeType      { return NodeRangeFor }
func (n *RangeForNode) Accept(v Visitor) error { return v.VisitRangeFor(n) }

type SwitchNode struct {
	Discriminant Node
	Cases        []*CaseNode
}

func (n *SwitchNode) Type() NodeType      { return NodeSwitch }
func (n *SwitchNode) Accept(v Visitor) error { return v.VisitSwitch(n) }

// CaseNode's consequent children collapse into one synthetic block
// (spec §3 codec invariant). Test is nil for `default:`.
type CaseNode struct {
	Test       Node
	Consequent *BlockNode
}

func (n *CaseNode) Type() NodeType      { return NodeCase }
func (n *CaseNode) Accept(v Visitor) error { return v.VisitCase(n) }

type BreakNode struct{}

func (n *BreakNode) Type() NodeType      { return NodeBreak }
func (n *BreakNode) Accept(v Visitor) error { return v.VisitBreak(n) }

type ContinueNode struct{}

func (n *ContinueNode) Type() NodeType      { return NodeContinue }
func (n *ContinueNode) Accept(v Visitor) error { return v.VisitContinue(n) }

type ReturnNode struct {
	Value Node // nil for `return;`
}

func (n *ReturnNode) Type() NodeType      { return NodeReturn }
func (n *ReturnNode) Accept(v Visitor) error { return v.VisitReturn(n) }

type ExpressionStatementNode struct {
	Expr Node
}

func (n *ExpressionStatementNode) Type() NodeType      { return NodeExpressionStatement }
func (n *ExpressionStatementNode) Accept(v Visitor) error { return v.VisitExpressionStatement(n) }

// AssignmentNode covers `=` and the compound assignment operators.
type AssignmentNode struct {
	Op     string // "=", "+=", "-=", "*=", "/=", "%=", "<<=", ">>=", "&=", "|=", "^="
	Target Node   // Identifier, ArrayAccess, MemberAccess, or UnaryOp("*", ...)
	Value  Node
}

func (n *AssignmentNode) Type() NodeType      { return NodeAssignment }
func (n *AssignmentNode) Accept(v Visitor) error { return v.VisitAssignment(n) }

// BinaryOpNode children, per spec §3: [left, right].
type BinaryOpNode struct {
	Op    string
	Left  Node
	Right Node
}

func (n *BinaryOpNode) Type() NodeType      { return NodeBinaryOp }
func (n *BinaryOpNode) Accept(v Visitor) error { return v.VisitBinaryOp(n) }

// UnaryOpNode covers `!`, `-`, `+`, `&`, `*`, and prefix `++`/`--`.
type UnaryOpNode struct {
	Op      string
	Operand Node
}

func (n *UnaryOpNode) Type() NodeType      { return NodeUnaryOp }
func (n *UnaryOpNode) Accept(v Visitor) error { return v.VisitUnaryOp(n) }

// PostfixNode covers postfix `++`/`--`.
type PostfixNode struct {
	Op      string
	Operand Node
}

func (n *PostfixNode) Type() NodeType      { return NodePostfix }
func (n *PostfixNode) Accept(v Visitor) error { return v.VisitPostfix(n) }

type TernaryNode struct {
	Condition  Node
	Consequent Node
	Alternate  Node
}

func (n *TernaryNode) Type() NodeType      { return NodeTernary }
func (n *TernaryNode) Accept(v Visitor) error { return v.VisitTernary(n) }

type CommaNode struct {
	Items []Node
}

func (n *CommaNode) Type() NodeType      { return NodeComma }
func (n *CommaNode) Accept(v Visitor) error { return v.VisitComma(n) }

// MemberAccessNode covers both `.` (Arrow=false) and `->` (Arrow=true).
type MemberAccessNode struct {
	Object Node
	Field  string
	Arrow  bool
}

func (n *MemberAccessNode) Type() NodeType      { return NodeMemberAccess }
func (n *MemberAccessNode) Accept(v Visitor) error { return v.VisitMemberAccess(n) }

// ArrayAccessNode children, per spec §3: [identifier, index].
type ArrayAccessNode struct {
	Array Node
	Index Node
}

func (n *ArrayAccessNode) Type() NodeType      { return NodeArrayAccess }
func (n *ArrayAccessNode) Accept(v Visitor) error { return v.VisitArrayAccess(n) }

type ArrayInitializerNode struct {
	Items []Node
}

func (n *ArrayInitializerNode) Type() NodeType      { return NodeArrayInitializer }
func (n *ArrayInitializerNode) Accept(v Visitor) error { return v.VisitArrayInitializer(n) }

type DesignatedInitializerNode struct {
	Designator string
	Value      Node
}

func (n *DesignatedInitializerNode) Type() NodeType      { return NodeDesignatedInitializer }
func (n *DesignatedInitializerNode) Accept(v Visitor) error { return v.VisitDesignatedInitializer(n) }

// FuncCallNode's Callee is an IdentifierNode (free function / user
// function), a MemberAccessNode (Serial.println, Keyboard.print, a
// library method), or an arbitrary expression (a function-pointer
// variable).
type FuncCallNode struct {
	Callee Node
	Args   []Node
}

func (n *FuncCallNode) Type() NodeType      { return NodeFuncCall }
func (n *FuncCallNode) Accept(v Visitor) error { return v.VisitFuncCall(n) }

type ConstructorCallNode struct {
	TypeName string
	Args     []Node
}

func (n *ConstructorCallNode) Type() NodeType      { return NodeConstructorCall }
func (n *ConstructorCallNode) Accept(v Visitor) error { return v.VisitConstructorCall(n) }

// SizeofNode operates either on a TypeNode (IsType=true) or on an
// arbitrary expression whose computed type's size is wanted.
type SizeofNode struct {
	IsType  bool
	TypeArg *TypeNode
	ExprArg Node
}

func (n *SizeofNode) Type() NodeType      { return NodeSizeof }
func (n *SizeofNode) Accept(v Visitor) error { return v.VisitSizeof(n) }

type CastNode struct {
	TargetType *TypeNode
	Operand    Node
}

func (n *CastNode) Type() NodeType      { return NodeCast }
func (n *CastNode) Accept(v Visitor) error { return v.VisitCast(n) }

type IdentifierNode struct {
	Name string
}

func (n *IdentifierNode) Type() NodeType      { return NodeIdentifier }
func (n *IdentifierNode) Accept(v Visitor) error { return v.VisitIdentifier(n) }

// NumericLiteralNode carries both an integer and a float
// interpretation; IsFloat selects which is semantically meaningful.
type NumericLiteralNode struct {
	IsFloat  bool
	IntVal   int64
	FloatVal float64
}

func (n *NumericLiteralNode) Type() NodeType      { return NodeNumericLiteral }
func (n *NumericLiteralNode) Accept(v Visitor) error { return v.VisitNumericLiteral(n) }

type StringLiteralNode struct {
	Value string
}

func (n *StringLiteralNode) Type() NodeType      { return NodeStringLiteral }
func (n *StringLiteralNode) Accept(v Visitor) error { return v.VisitStringLiteral(n) }

type CharLiteralNode struct {
	Value rune
}

func (n *CharLiteralNode) Type() NodeType      { return NodeCharLiteral }
func (n *CharLiteralNode) Accept(v Visitor) error { return v.VisitCharLiteral(n) }

type BoolLiteralNode struct {
	Value bool
}

func (n *BoolLiteralNode) Type() NodeType      { return NodeBoolLiteral }
func (n *BoolLiteralNode) Accept(v Visitor) error { return v.VisitBoolLiteral(n) }

type NullLiteralNode struct{}

func (n *NullLiteralNode) Type() NodeType      { return NodeNullLiteral }
func (n *NullLiteralNode) Accept(v Visitor) error { return v.VisitNullLiteral(n) }

// TypeNode names a type: a builtin scalar ("int","char","byte","bool",
// "short","long","float","double","void","String"), a struct name, or
// a pointer thereto (PointerLevel > 0).
type TypeNode struct {
	Name         string
	PointerLevel int
	IsStruct     bool
}

func (n *TypeNode) Type() NodeType      { return NodeTypeNode }
func (n *TypeNode) Accept(v Visitor) error { return v.VisitTypeNode(n) }

type TypedefNode struct {
	Name       string
	Underlying *TypeNode
}

func (n *TypedefNode) Type() NodeType      { return NodeTypedef }
func (n *TypedefNode) Accept(v Visitor) error { return v.VisitTypedef(n) }
