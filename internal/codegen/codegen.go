// Package codegen issues the serial codes printed on products and items.
package codegen

import (
	"regexp"
	"strings"

	"luxverify-backend/internal/apperr"

	"github.com/bwmarrin/snowflake"
	"github.com/pkg/errors"
)

// MaxLength bounds a code so it always fits the database column.
const MaxLength = 32

var (
	codePattern   = regexp.MustCompile(`^[A-Z0-9]{6,32}$`)
	prefixPattern = regexp.MustCompile(`^[A-Z0-9]{0,8}$`)
)

// Generator produces PREFIX + base36(snowflake id). Snowflake ids are
// timestamp-derived and serialized per node, so one Generator never repeats
// a code; the caller still checks the store before committing.
type Generator struct {
	prefix string
	node   *snowflake.Node
}

func New(prefix string, nodeID int64) (*Generator, error) {
	prefix = Normalize(prefix)
	if !prefixPattern.MatchString(prefix) {
		return nil, errors.Errorf("invalid code prefix %q", prefix)
	}
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, errors.Wrap(err, "create snowflake node")
	}
	return &Generator{prefix: prefix, node: node}, nil
}

func (g *Generator) Prefix() string {
	return g.prefix
}

func (g *Generator) Generate() string {
	return g.prefix + strings.ToUpper(g.node.Generate().Base36())
}

// Resolve returns the normalized supplied code, or a fresh one when supplied
// is blank. generated tells the caller whether a collision may be retried.
func (g *Generator) Resolve(supplied string) (code string, generated bool, err error) {
	if strings.TrimSpace(supplied) == "" {
		return g.Generate(), true, nil
	}
	code = Normalize(supplied)
	if err := Validate(code); err != nil {
		return "", false, err
	}
	return code, false, nil
}

// Normalize trims surrounding whitespace and uppercases.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks an already normalized code.
func Validate(code string) error {
	if !codePattern.MatchString(code) {
		return apperr.Validation("invalid code", map[string]string{
			"code": "must be 6 to 32 letters or digits",
		})
	}
	return nil
}
