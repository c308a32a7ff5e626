package filter

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/roach88/subsync/internal/record"
	"github.com/roach88/subsync/internal/value"
)

// CEL variables available to expressions:
//
//	r    map of the record's attributes
//	id   the record's logical key ("" if none)
//	cid  the record's client identifier
const (
	celRecord = "r"
	celID     = "id"
	celCID    = "cid"
)

// CompileCEL compiles a boolean CEL expression into a Predicate, e.g.
//
//	r.number < 10 && r.name.startsWith("a")
//
// Evaluation errors (such as a missing attribute) count as no match.
func CompileCEL(expr string) (Predicate, error) {
	env, err := cel.NewEnv(
		cel.Variable(celRecord, cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable(celID, cel.StringType),
		cel.Variable(celCID, cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("creating CEL environment: %w", err)
	}

	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compiling filter %q: %w", expr, iss.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("filter %q must evaluate to bool, got %s", expr, out)
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("generating program for %q: %w", expr, err)
	}

	return func(r *record.Record) bool {
		attrs, _ := value.Native(r.Attributes()).(map[string]any)
		out, _, err := prg.Eval(map[string]any{
			celRecord: attrs,
			celID:     r.ID(),
			celCID:    r.CID(),
		})
		if err != nil {
			return false
		}
		b, ok := out.Value().(bool)
		return ok && b
	}, nil
}
