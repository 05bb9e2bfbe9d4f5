package query

import (
	"regexp"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Kind is the value type a constraint coerces raw input into.
type Kind int

const (
	KindAny Kind = iota
	KindString
	KindInt
	KindFloat
	KindTime
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "integer"
	case KindFloat:
		return "number"
	case KindTime:
		return "timestamp"
	case KindBool:
		return "boolean"
	default:
		return "any"
	}
}

// Constraint declares how one field is validated.
// Rules is a go-playground/validator tag applied after coercion.
type Constraint struct {
	Kind      Kind
	Rules     string
	Precision int
	Required  bool
	// Nullable fields may be cleared with an explicit null in a patch.
	Nullable bool
}

// Schema is the declarative constraint table of one entity, keyed by attribute name.
type Schema map[string]Constraint

const (
	MaxSafeInteger = 1<<53 - 1
	MaxInt32       = 1<<31 - 1
)

var stringIDPattern = regexp.MustCompile(`^[A-Za-z0-9\-_.()!@:/]+$`)

func BigInteger() Constraint {
	return Constraint{Kind: KindInt, Rules: "min=0,max=" + strconv.FormatInt(MaxSafeInteger, 10)}
}

// Int32 is a non-negative count that fits an INTEGER column.
func Int32() Constraint {
	return Constraint{Kind: KindInt, Rules: "min=0,max=" + strconv.Itoa(MaxInt32)}
}

func StringID() Constraint {
	return Constraint{Kind: KindString, Rules: "min=1,max=64,stringid"}
}

func Latitude() Constraint {
	return Constraint{Kind: KindFloat, Rules: "min=-90,max=90", Precision: 6}
}

func Longitude() Constraint {
	return Constraint{Kind: KindFloat, Rules: "min=-180,max=180", Precision: 6}
}

// Req returns a copy of c marked as required on create.
func (c Constraint) Req() Constraint {
	c.Required = true
	return c
}

// Null returns a copy of c that a patch may clear.
func (c Constraint) Null() Constraint {
	c.Nullable = true
	return c
}

// BaseSchema holds the fields every entity understands.
var BaseSchema = Schema{
	"id":        BigInteger(),
	"createdAt": {Kind: KindTime},
	"updatedAt": {Kind: KindTime},
}

// Lookup resolves a constraint from s, falling back to BaseSchema.
func (s Schema) Lookup(attr string) (Constraint, bool) {
	if c, ok := s[attr]; ok {
		return c, true
	}
	c, ok := BaseSchema[attr]
	return c, ok
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("stringid", func(fl validator.FieldLevel) bool {
		return stringIDPattern.MatchString(fl.Field().String())
	})
	return v
}
