package reverse

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/parser"
	"github.com/pingcap/tidb/parser/ast"
	"github.com/pingcap/tidb/parser/opcode"
	"github.com/pingcap/tidb/parser/test_driver"

	"github.com/omniql-engine/nlq/engine/models"
	"github.com/omniql-engine/nlq/mapping"
)

// ============================================================================
// ENTRY POINT
// ============================================================================

// SQLToIntent parses one SELECT statement back into an intent
func SQLToIntent(sql string) (*models.Intent, error) {
	if strings.TrimSpace(sql) == "" {
		return nil, ErrEmptyQuery
	}

	p := parser.New()
	stmts, _, err := p.Parse(sql, "", "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseError, err)
	}
	if len(stmts) == 0 {
		return nil, fmt.Errorf("%w: empty statement", ErrParseError)
	}
	if len(stmts) > 1 {
		return nil, fmt.Errorf("%w: multiple statements", ErrNotSupported)
	}

	stmt, ok := stmts[0].(*ast.SelectStmt)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotSupported, stmts[0])
	}
	return convertSelect(stmt)
}

// ============================================================================
// SELECT
// ============================================================================

func convertSelect(stmt *ast.SelectStmt) (*models.Intent, error) {
	if stmt.From == nil {
		return nil, fmt.Errorf("%w: SELECT without FROM", ErrNotSupported)
	}

	intent := &models.Intent{
		Operation: mapping.OpSelectAll,
		Table:     leftTableName(stmt.From.TableRefs),
	}

	if join := extractJoin(stmt.From.TableRefs); join != nil {
		intent.Operation = mapping.OpJoin
		intent.Join = join
	}

	if stmt.Fields != nil {
		if err := convertFields(intent, stmt.Fields.Fields); err != nil {
			return nil, err
		}
	}

	if stmt.Where != nil {
		if err := convertWhere(&intent.Filters, stmt.Where); err != nil {
			return nil, err
		}
	}

	if stmt.GroupBy != nil && len(stmt.GroupBy.Items) > 0 {
		if col, ok := stmt.GroupBy.Items[0].Expr.(*ast.ColumnNameExpr); ok {
			intent.GroupBy = col.Name.Name.O
		}
	}

	if stmt.OrderBy != nil && len(stmt.OrderBy.Items) > 0 {
		item := stmt.OrderBy.Items[0]
		if col, ok := item.Expr.(*ast.ColumnNameExpr); ok {
			dir := mapping.DirectionAsc
			if item.Desc {
				dir = mapping.DirectionDesc
			}
			intent.OrderBy = &models.OrderBy{Field: col.Name.Name.O, Direction: dir}
		}
	}

	return intent, nil
}

// convertFields reads COUNT(*), one aggregate, or a join projection
func convertFields(intent *models.Intent, fields []*ast.SelectField) error {
	var columns []string
	for _, f := range fields {
		if f.WildCard != nil {
			if f.WildCard.Table.O != "" {
				columns = append(columns, f.WildCard.Table.O+".*")
			}
			continue
		}

		switch e := f.Expr.(type) {
		case *ast.AggregateFuncExpr:
			fn := strings.ToUpper(e.F)
			if fn == "COUNT" {
				intent.Operation = mapping.OpCount
				continue
			}
			function, err := aggregateFunction(mapping.Relational, fn)
			if err != nil {
				return err
			}
			if len(e.Args) != 1 {
				return fmt.Errorf("%w: %s with %d arguments", ErrNotSupported, fn, len(e.Args))
			}
			target, err := convertTarget(e.Args[0])
			if err != nil {
				return err
			}
			intent.Operation = mapping.OpAggregate
			intent.Aggregate = &models.Aggregation{Function: function, Target: target}

		case *ast.ColumnNameExpr:
			columns = append(columns, qualifiedName(e))

		default:
			return fmt.Errorf("%w: select expression %T", ErrNotSupported, f.Expr)
		}
	}

	if intent.Join != nil {
		intent.Join.Columns = columns
	}
	return nil
}

// convertTarget reads "field" or "a * b"
func convertTarget(expr ast.ExprNode) (*models.FieldExpression, error) {
	switch e := expr.(type) {
	case *ast.ColumnNameExpr:
		return models.NewField(e.Name.Name.O), nil
	case *ast.ParenthesesExpr:
		return convertTarget(e.Expr)
	case *ast.BinaryOperationExpr:
		if e.Op != opcode.Mul {
			break
		}
		l, lok := e.L.(*ast.ColumnNameExpr)
		r, rok := e.R.(*ast.ColumnNameExpr)
		if lok && rok {
			return models.NewProduct(l.Name.Name.O, r.Name.Name.O), nil
		}
	}
	return nil, fmt.Errorf("%w: aggregate target %T", ErrNotSupported, expr)
}

// ============================================================================
// CONDITIONS - AND-joined numeric comparisons only
// ============================================================================

func convertWhere(filters *models.Filters, expr ast.ExprNode) error {
	switch e := expr.(type) {
	case *ast.ParenthesesExpr:
		return convertWhere(filters, e.Expr)

	case *ast.BinaryOperationExpr:
		if e.Op == opcode.LogicAnd {
			if err := convertWhere(filters, e.L); err != nil {
				return err
			}
			return convertWhere(filters, e.R)
		}

		op, err := filterOperator(mapping.Relational, comparison(e.Op))
		if err != nil {
			return err
		}
		col, ok := e.L.(*ast.ColumnNameExpr)
		if !ok {
			return fmt.Errorf("%w: comparison without column", ErrNotSupported)
		}
		value, err := literalValue(e.R)
		if err != nil {
			return err
		}
		filters.Set(col.Name.Name.O, op, value)
		return nil

	default:
		return fmt.Errorf("%w: condition %T", ErrNotSupported, expr)
	}
}

func comparison(op opcode.Op) string {
	switch op {
	case opcode.GT:
		return ">"
	case opcode.LT:
		return "<"
	case opcode.EQ:
		return "="
	default:
		return op.String()
	}
}

func literalValue(expr ast.ExprNode) (float64, error) {
	switch e := expr.(type) {
	case *test_driver.ValueExpr:
		return numericValue(formatValue(e))
	case *ast.UnaryOperationExpr:
		if e.Op == opcode.Minus {
			v, err := literalValue(e.V)
			return -v, err
		}
	case *ast.ParenthesesExpr:
		return literalValue(e.Expr)
	}
	return 0, fmt.Errorf("%w: comparison value %T", ErrNotSupported, expr)
}

// formatValue renders a literal as text; decimals keep their exact digits
func formatValue(val *test_driver.ValueExpr) string {
	d := val.Datum
	switch d.Kind() {
	case test_driver.KindInt64:
		return fmt.Sprintf("%d", d.GetInt64())
	case test_driver.KindUint64:
		return fmt.Sprintf("%d", d.GetUint64())
	case test_driver.KindFloat64:
		return fmt.Sprintf("%v", d.GetFloat64())
	case test_driver.KindString:
		return d.GetString()
	default:
		return fmt.Sprintf("%v", d.GetValue())
	}
}

// ============================================================================
// TABLES AND JOINS
// ============================================================================

func leftTableName(refs *ast.Join) string {
	if refs == nil {
		return ""
	}
	switch left := refs.Left.(type) {
	case *ast.TableSource:
		if tn, ok := left.Source.(*ast.TableName); ok {
			return tn.Name.O
		}
	case *ast.Join:
		return leftTableName(left)
	}
	return ""
}

func extractJoin(refs *ast.Join) *models.Join {
	if refs == nil || refs.Right == nil {
		return nil
	}

	join := &models.Join{}
	if ts, ok := refs.Right.(*ast.TableSource); ok {
		if tn, ok := ts.Source.(*ast.TableName); ok {
			join.Table = tn.Name.O
		}
	}

	if refs.On != nil {
		if bin, ok := refs.On.Expr.(*ast.BinaryOperationExpr); ok && bin.Op == opcode.EQ {
			l, lok := bin.L.(*ast.ColumnNameExpr)
			r, rok := bin.R.(*ast.ColumnNameExpr)
			if lok && rok {
				join.On = qualifiedName(l) + " = " + qualifiedName(r)
			}
		}
	}
	return join
}

func qualifiedName(col *ast.ColumnNameExpr) string {
	if col.Name.Table.O != "" {
		return col.Name.Table.O + "." + col.Name.Name.O
	}
	return col.Name.Name.O
}
