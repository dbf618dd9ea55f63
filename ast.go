package sketchvm

// NodeType is the closed tag set required by spec §3; every node reports
// its tag through Type(). The evaluator, the statement executor and the
// codec select behaviour with Go type switches on the concrete node
// type, not through this tag or the Visitor (ast_visitor.go).
type NodeType int

const (
	NodeProgram NodeType = iota
	NodeFuncDef
	NodeVarDecl
	NodeDeclarator
	NodeFuncPointerDeclarator
	NodeParam
	NodeBlock
	NodeIf
	NodeWhile
	NodeDoWhile
	NodeFor
	NodeRangeFor
	NodeSwitch
	NodeCase
	NodeBreak
	NodeContinue
	NodeReturn
	NodeExpressionStatement
	NodeAssignment
	NodeBinaryOp
	NodeUnaryOp
	NodePostfix
	NodeTernary
	NodeComma
	NodeMemberAccess
	NodeArrayAccess
	NodeArrayInitializer
	NodeDesignatedInitializer
	NodeFuncCall
	NodeConstructorCall
	NodeSizeof
	NodeCast
	NodeIdentifier
	NodeNumericLiteral
	NodeStringLiteral
	NodeCharLiteral
	NodeBoolLiteral
	NodeNullLiteral
	NodeTypeNode
	NodeTypedef
)

var nodeTypeNames = map[NodeType]string{
	NodeProgram:               "program",
	NodeFuncDef:               "func-def",
	NodeVarDecl:               "var-decl",
	NodeDeclarator:            "declarator",
	NodeFuncPointerDeclarator: "func-pointer-declarator",
	NodeParam:                 "param",
	NodeBlock:                 "block",
	NodeIf:                    "if",
	NodeWhile:                 "while",
	NodeDoWhile:               "do-while",
	NodeFor:                   "for",
	NodeRangeFor:              "range-for",
	NodeSwitch:                "switch",
	NodeCase:                  "case",
	NodeBreak:                 "break",
	NodeContinue:              "continue",
	NodeReturn:                "return",
	NodeExpressionStatement:   "expression-statement",
	NodeAssignment:            "assignment",
	NodeBinaryOp:              "binary-op",
	NodeUnaryOp:               "unary-op",
	NodePostfix:               "postfix",
	NodeTernary:               "ternary",
	NodeComma:                 "comma",
	NodeMemberAccess:          "member-access",
	NodeArrayAccess:           "array-access",
	NodeArrayInitializer:      "array-initializer",
	NodeDesignatedInitializer: "designated-initializer",
	NodeFuncCall:              "func-call",
	NodeConstructorCall:       "constructor-call",
	NodeSizeof:                "sizeof",
	NodeCast:                  "cast",
	NodeIdentifier:            "identifier",
	NodeNumericLiteral:        "numeric-literal",
	NodeStringLiteral:         "string-literal",
	NodeCharLiteral:           "char-literal",
	NodeBoolLiteral:           "bool-literal",
	NodeNullLiteral:           "null-literal",
	NodeTypeNode:              "type-node",
	NodeTypedef:               "typedef",
}

func (t NodeType) String() string {
	if s, ok := nodeTypeNames[t]; ok {
		return s
	}
	return "unknown"
}

// Node is the abstract AST node contract of spec §3/C2. Every node
// accepts a Visitor and carries its own NodeType tag explicitly.
type Node interface {
	Type() NodeType
	Accept(Visitor) error
}
