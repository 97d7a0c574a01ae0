package docstore

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Operator string

const (
	OpEq  Operator = "=="
	OpNe  Operator = "!="
	OpLt  Operator = "<"
	OpLte Operator = "<="
	OpGt  Operator = ">"
	OpGte Operator = ">="
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

type conditionKind int

const (
	kindWhere conditionKind = iota + 1
	kindOrderBy
	kindLimit
)

// Condition is one query clause: a field filter, a sort key or a limit.
type Condition struct {
	kind  conditionKind
	Field string
	Op    Operator
	Value interface{}
	Dir   Direction
	N     int64
}

func Where(field string, op Operator, value interface{}) Condition {
	return Condition{kind: kindWhere, Field: field, Op: op, Value: value}
}

// Eq is shorthand for Where(field, OpEq, value).
func Eq(field string, value interface{}) Condition {
	return Where(field, OpEq, value)
}

func OrderBy(field string, dir Direction) Condition {
	return Condition{kind: kindOrderBy, Field: field, Dir: dir}
}

func Limit(n int) Condition {
	return Condition{kind: kindLimit, N: int64(n)}
}

type plan struct {
	filters []Condition
	sort    *Condition
	limit   int64
}

func compile(conds []Condition) (plan, error) {
	var p plan
	for i := range conds {
		c := conds[i]
		switch c.kind {
		case kindWhere:
			if c.Field == "" {
				return p, fmt.Errorf("%w: empty field", ErrInvalidQuery)
			}
			switch c.Op {
			case OpEq, OpNe, OpLt, OpLte, OpGt, OpGte:
			default:
				return p, fmt.Errorf("%w: unsupported operator %q", ErrInvalidQuery, c.Op)
			}
			p.filters = append(p.filters, c)
		case kindOrderBy:
			if p.sort != nil {
				return p, fmt.Errorf("%w: at most one sort key", ErrInvalidQuery)
			}
			if c.Dir != Asc && c.Dir != Desc {
				return p, fmt.Errorf("%w: unsupported direction %q", ErrInvalidQuery, c.Dir)
			}
			p.sort = &c
		case kindLimit:
			if c.N <= 0 {
				return p, fmt.Errorf("%w: limit must be positive", ErrInvalidQuery)
			}
			p.limit = c.N
		default:
			return p, fmt.Errorf("%w: unknown condition", ErrInvalidQuery)
		}
	}
	return p, nil
}

// apply evaluates the plan over docs the way MongoDB would: a missing field never satisfies
// an equality or range filter but does satisfy "!=", and sorts below every present value.
func (p plan) apply(docs []bson.M) []bson.M {
	out := make([]bson.M, 0, len(docs))
	for _, d := range docs {
		if p.matches(d) {
			out = append(out, d)
		}
	}
	if p.sort != nil {
		field, desc := p.sort.Field, p.sort.Dir == Desc
		sort.SliceStable(out, func(i, j int) bool {
			c := compareForSort(out[i][field], out[j][field])
			if desc {
				return c > 0
			}
			return c < 0
		})
	}
	if p.limit > 0 && int64(len(out)) > p.limit {
		out = out[:p.limit]
	}
	return out
}

func (p plan) matches(doc bson.M) bool {
	for _, f := range p.filters {
		v, ok := doc[f.Field]
		if !ok || v == nil {
			if f.Op == OpNe && f.Value != nil {
				continue
			}
			if f.Op == OpEq && f.Value == nil {
				continue
			}
			return false
		}
		c, comparable := compare(v, f.Value)
		if !comparable {
			if f.Op == OpNe {
				continue
			}
			return false
		}
		switch f.Op {
		case OpEq:
			if c != 0 {
				return false
			}
		case OpNe:
			if c == 0 {
				return false
			}
		case OpLt:
			if c >= 0 {
				return false
			}
		case OpLte:
			if c > 0 {
				return false
			}
		case OpGt:
			if c <= 0 {
				return false
			}
		case OpGte:
			if c < 0 {
				return false
			}
		}
	}
	return true
}

func compareForSort(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if c, ok := compare(a, b); ok {
		return c
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// compare orders two scalar values of the same family. The second result is false when the
// values cannot be compared.
func compare(a, b interface{}) (int, bool) {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		return cmpFloat(af, bf), true
	}
	if at, ok := toTime(a); ok {
		bt, ok := toTime(b)
		if !ok {
			return 0, false
		}
		return at.Compare(bt), true
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		default:
			return 1, true
		}
	}
	return 0, false
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.Truncate(time.Millisecond), true
	case primitive.DateTime:
		return t.Time(), true
	}
	return time.Time{}, false
}
