// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var checkpointCmp = []cmp.Option{
	cmp.AllowUnexported(checkpoint{}, ctxMark{}, parseContext{}, quoteState{}, quotePair{}),
	cmpopts.EquateEmpty(),
}

func newTestParser(src string) *parser {
	p := &parser{}
	p.reset(src, "", Config{})
	return p
}

func TestSpeculativeParseRestoresState(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		src  string
		fn   func(p *parser) bool
		ok   bool
		end  int // -1 to not check the position
	}{
		{
			"ProcSubstFallback", "<(fi) x",
			func(p *parser) bool { ps, _ := p.procSubst(); return ps != nil },
			false, 5,
		},
		{
			"ArithFallback", "$((a[)) x",
			func(p *parser) bool { ae, _ := p.arithExpansion(); return ae != nil },
			false, 0,
		},
		{
			"ProcSubst", "<(a) x",
			func(p *parser) bool { ps, _ := p.procSubst(); return ps != nil },
			true, 4,
		},
		{
			"CmdSubst", "$(a; b) x",
			func(p *parser) bool { cs, _ := p.cmdSubst(); return cs != nil },
			true, 7,
		},
		{
			"UnclosedCmdSubst", "$(a; b",
			func(p *parser) bool { cs, _ := p.cmdSubst(); return cs != nil },
			false, 0,
		},
		{
			"ArithExpansion", "$(( (1 + 2) * 3 )) x",
			func(p *parser) bool { ae, _ := p.arithExpansion(); return ae != nil },
			true, 18,
		},
		{
			"UnclosedParamExp", "${a:-\"b",
			func(p *parser) bool {
				return p.try(func() { p.paramExpansion(false) })
			},
			false, -1,
		},
		{
			"UnclosedCase", "case a in (b",
			func(p *parser) bool {
				return p.try(func() { p.caseClause() })
			},
			false, -1,
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := newTestParser(tc.src)
			p.setState(stCondExpr)
			p.dolbrace = dolbraceWord
			p.ctx.push(ctxCmdSubst)
			p.ctx.open('{')
			p.ctx.open('"')
			p.depth = 2

			before := p.save()
			qt.Assert(t, tc.fn(p), qt.Equals, tc.ok)
			after := p.save()
			qt.Assert(t, after, qt.CmpEquals(checkpointCmp...), before)
			qt.Assert(t, p.ctx.stack, qt.HasLen, 2)
			if tc.end >= 0 {
				qt.Assert(t, p.pos, qt.Equals, tc.end)
			}
		})
	}
}

func TestContextCounters(t *testing.T) {
	t.Parallel()
	var c contextStack
	c.reset()
	c.open('(')
	c.open('[')
	c.open('{')
	c.open('`')
	qt.Assert(t, *c.top(), qt.CmpEquals(checkpointCmp...), parseContext{
		parenDepth:   1,
		bracketDepth: 1,
		braceDepth:   1,
	})

	m := c.mark()
	c.push(ctxArith)
	c.open('(')
	c.open('(')
	c.open('\'')
	qt.Assert(t, c.top().arithDepth, qt.Equals, 2)
	qt.Assert(t, c.top().parenDepth, qt.Equals, 0)
	qt.Assert(t, c.top().quote.single, qt.IsTrue)
	c.close('\'')
	qt.Assert(t, c.top().quote.single, qt.IsFalse)

	c.rollback(m)
	qt.Assert(t, c.stack, qt.HasLen, 1)
	qt.Assert(t, c.top().parenDepth, qt.Equals, 1)

	c.open('"')
	c.open('\'')
	qt.Assert(t, c.top().quote.outerDouble(), qt.IsTrue)
	c.close('\'')
	c.close('"')
	c.close('{')
	c.close('[')
	c.close('(')
	qt.Assert(t, *c.top(), qt.CmpEquals(checkpointCmp...), parseContext{})
}

func TestRollbackCopiesQuotes(t *testing.T) {
	t.Parallel()
	var c contextStack
	c.reset()
	c.open('"')
	m := c.mark()
	c.open('\'')
	c.open('\'')
	c.rollback(m)
	qt.Assert(t, c.top().quote.stack, qt.HasLen, 1)
	qt.Assert(t, c.top().quote.double, qt.IsTrue)
	qt.Assert(t, c.top().quote.single, qt.IsFalse)
}

func TestEnterLeave(t *testing.T) {
	t.Parallel()
	p := newTestParser("")
	p.maxDepth = 2
	qt.Assert(t, p.run(func() {
		p.enter(0)
		p.enter(0)
		p.leave()
		p.enter(0)
	}), qt.IsNil)
	qt.Assert(t, p.depth, qt.Equals, 2)

	err := p.run(func() { p.enter(0) })
	qt.Assert(t, err, qt.ErrorMatches, ".*maximum nesting depth exceeded")

	// a fatal bailout is not swallowed by a speculative parse
	p.depth = 2
	err = p.run(func() { p.try(func() { p.enter(0) }) })
	qt.Assert(t, err, qt.ErrorMatches, ".*maximum nesting depth exceeded")

	p.depth = 0
	p.maxDepth = -1
	qt.Assert(t, p.run(func() {
		for i := 0; i < 5000; i++ {
			p.enter(0)
		}
	}), qt.IsNil)
}
