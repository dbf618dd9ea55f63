package sketchvm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ledProgram builds scenario S1: setup() calls pinMode, loop() toggles
// a pin via digitalWrite driven by a global state variable.
func ledProgram() *ProgramNode {
	state := &VarDeclNode{
		TypeNode:    &TypeNode{Name: "int"},
		Declarators: []*DeclaratorNode{{Name: "ledState", Initializer: &NumericLiteralNode{IntVal: 0}}},
	}
	setup := &FuncDefNode{
		ReturnType: &TypeNode{Name: "void"},
		Declarator: &DeclaratorNode{Name: "setup"},
		Body: &BlockNode{Statements: []Node{
			&ExpressionStatementNode{Expr: &FuncCallNode{
				Callee: &IdentifierNode{Name: "pinMode"},
				Args:   []Node{&NumericLiteralNode{IntVal: 13}, &NumericLiteralNode{IntVal: 1}},
			}},
		}},
	}
	loop := &FuncDefNode{
		ReturnType: &TypeNode{Name: "void"},
		Declarator: &DeclaratorNode{Name: "loop"},
		Body: &BlockNode{Statements: []Node{
			&ExpressionStatementNode{Expr: &AssignmentNode{
				Op: "=", Target: &IdentifierNode{Name: "ledState"},
				Value: &BinaryOpNode{Op: "-", Left: &NumericLiteralNode{IntVal: 1}, Right: &IdentifierNode{Name: "ledState"}},
			}},
			&ExpressionStatementNode{Expr: &FuncCallNode{
				Callee: &IdentifierNode{Name: "digitalWrite"},
				Args:   []Node{&NumericLiteralNode{IntVal: 13}, &IdentifierNode{Name: "ledState"}},
			}},
		}},
	}
	return &ProgramNode{Declarations: []Node{state, setup, loop}}
}

func kinds(sink *CollectingSink) []CommandKind {
	out := make([]CommandKind, len(sink.Records))
	for i, r := range sink.Records {
		out[i] = r.Kind
	}
	return out
}

func TestEngineScenarioS1LedToggle(t *testing.T) {
	prog := ledProgram()
	opts := DefaultOptions()
	opts.MaxLoopIterations = 2
	e := NewEngine(prog, opts)
	sink := NewCollectingSink()
	e.SetCommandSink(sink)
	e.SetDataProvider(NopDataProvider{})

	require.NoError(t, e.Start())
	for e.State == StateRunningLoop {
		require.NoError(t, e.Resume())
	}
	assert.Equal(t, StateComplete, e.State)

	ks := kinds(sink)
	assert.Contains(t, ks, KindPinMode)
	assert.Contains(t, ks, KindDigitalWrite)
	assert.Contains(t, ks, KindLoopLimitReached)
	assert.Contains(t, ks, KindProgramEnd)

	var writes []DigitalWriteFields
	for _, r := range sink.Records {
		if r.Kind == KindDigitalWrite {
			writes = append(writes, r.Fields.(DigitalWriteFields))
		}
	}
	require.Len(t, writes, 2)
	assert.Equal(t, 1, writes[0].Value)
	assert.Equal(t, 0, writes[1].Value)
}

// nestedCallProgram builds scenario S2: loop() calls a user function
// which itself calls another user function, and the return value must
// survive both callees' own scope teardown.
func nestedCallProgram() *ProgramNode {
	inner := &FuncDefNode{
		ReturnType: &TypeNode{Name: "int"},
		Declarator: &DeclaratorNode{Name: "inner"},
		Params:     []*ParamNode{{TypeNode: &TypeNode{Name: "int"}, Name: "n"}},
		Body: &BlockNode{Statements: []Node{
			&ReturnNode{Value: &BinaryOpNode{Op: "*", Left: &IdentifierNode{Name: "n"}, Right: &NumericLiteralNode{IntVal: 2}}},
		}},
	}
	outer := &FuncDefNode{
		ReturnType: &TypeNode{Name: "int"},
		Declarator: &DeclaratorNode{Name: "outer"},
		Params:     []*ParamNode{{TypeNode: &TypeNode{Name: "int"}, Name: "n"}},
		Body: &BlockNode{Statements: []Node{
			&VarDeclNode{TypeNode: &TypeNode{Name: "int"}, Declarators: []*DeclaratorNode{
				{Name: "doubled", Initializer: &FuncCallNode{Callee: &IdentifierNode{Name: "inner"}, Args: []Node{&IdentifierNode{Name: "n"}}}},
			}},
			&ReturnNode{Value: &BinaryOpNode{Op: "+", Left: &IdentifierNode{Name: "doubled"}, Right: &NumericLiteralNode{IntVal: 1}}},
		}},
	}
	result := &VarDeclNode{TypeNode: &TypeNode{Name: "int"}, Declarators: []*DeclaratorNode{{Name: "result", Initializer: &NumericLiteralNode{IntVal: 0}}}}
	setup := &FuncDefNode{ReturnType: &TypeNode{Name: "void"}, Declarator: &DeclaratorNode{Name: "setup"}, Body: &BlockNode{}}
	loop := &FuncDefNode{
		ReturnType: &TypeNode{Name: "void"},
		Declarator: &DeclaratorNode{Name: "loop"},
		Body: &BlockNode{Statements: []Node{
			&ExpressionStatementNode{Expr: &AssignmentNode{
				Op: "=", Target: &IdentifierNode{Name: "result"},
				Value: &FuncCallNode{Callee: &IdentifierNode{Name: "outer"}, Args: []Node{&NumericLiteralNode{IntVal: 5}}},
			}},
		}},
	}
	return &ProgramNode{Declarations: []Node{result, inner, outer, setup, loop}}
}

func TestEngineScenarioS2NestedUserCalls(t *testing.T) {
	prog := nestedCallProgram()
	e := NewEngine(prog, DefaultOptions())
	sink := NewCollectingSink()
	e.SetCommandSink(sink)
	e.SetDataProvider(NopDataProvider{})

	require.NoError(t, e.Start())

	v, _, ok := e.Scopes.Lookup("result")
	require.True(t, ok)
	assert.Equal(t, int32(11), v.Value.AsI32()) // (5*2)+1

	var calls []FunctionCallFields
	for _, r := range sink.Records {
		if r.Kind == KindFunctionCall {
			calls = append(calls, r.Fields.(FunctionCallFields))
		}
	}
	require.Len(t, calls, 2)
	assert.Equal(t, "inner", calls[0].Name)
	assert.Equal(t, "outer", calls[1].Name)
	assert.Equal(t, "10", calls[0].Result)
	assert.Equal(t, "11", calls[1].Result)
}

// analogReadProgram builds scenario S6: loop() reads an analog pin with
// no data provider installed, which must fail fast.
func analogReadProgram() *ProgramNode {
	setup := &FuncDefNode{ReturnType: &TypeNode{Name: "void"}, Declarator: &DeclaratorNode{Name: "setup"}, Body: &BlockNode{}}
	loop := &FuncDefNode{
		ReturnType: &TypeNode{Name: "void"},
		Declarator: &DeclaratorNode{Name: "loop"},
		Body: &BlockNode{Statements: []Node{
			&ExpressionStatementNode{Expr: &FuncCallNode{
				Callee: &IdentifierNode{Name: "analogRead"},
				Args:   []Node{&NumericLiteralNode{IntVal: 0}},
			}},
		}},
	}
	return &ProgramNode{Declarations: []Node{setup, loop}}
}

func TestEngineScenarioS6FailFastWithNoProvider(t *testing.T) {
	prog := analogReadProgram()
	e := NewEngine(prog, DefaultOptions())
	sink := NewCollectingSink()
	e.SetCommandSink(sink)
	// Deliberately no SetDataProvider call: spec's fail-fast contract.

	err := e.Start()
	require.Error(t, err)
	assert.Equal(t, KindConfigurationError, AsEngineError(err).Kind())
	assert.Equal(t, StateError, e.State)

	ks := kinds(sink)
	assert.Contains(t, ks, KindError)
}

func TestEngineScenarioS6FailFastStillHaltsAfterSetDataProviderNil(t *testing.T) {
	prog := analogReadProgram()
	e := NewEngine(prog, DefaultOptions())
	e.SetCommandSink(NewCollectingSink())
	e.SetDataProvider(NopDataProvider{})
	e.SetDataProvider(nil) // explicit uninstall must restore fail-fast

	err := e.Start()
	require.Error(t, err)
	assert.Equal(t, KindConfigurationError, AsEngineError(err).Kind())
}

func TestEngineResumeOutsideRunningLoopIsInvariantError(t *testing.T) {
	prog := &ProgramNode{}
	e := NewEngine(prog, DefaultOptions())
	err := e.Resume()
	require.Error(t, err)
	assert.Equal(t, KindInternalInvariant, AsEngineError(err).Kind())
}

func TestEngineDestroyUnwindsScopes(t *testing.T) {
	e, _ := newTestEngine()
	e.Scopes.PushScope()
	e.Scopes.PushScope()
	require.Greater(t, e.Scopes.Depth(), 0)
	e.Destroy()
	assert.Equal(t, 0, e.Scopes.Depth())
}

func TestEngineEncodeDecodeThenRun(t *testing.T) {
	prog := ledProgram()
	buf := Encode(prog)
	decoded, err := Decode(buf)
	require.NoError(t, err)
	reloaded := decoded.(*ProgramNode)

	opts := DefaultOptions()
	opts.MaxLoopIterations = 1
	e := NewEngine(reloaded, opts)
	sink := NewCollectingSink()
	e.SetCommandSink(sink)
	e.SetDataProvider(NopDataProvider{})

	require.NoError(t, e.Start())
	assert.Contains(t, kinds(sink), KindDigitalWrite)
}
