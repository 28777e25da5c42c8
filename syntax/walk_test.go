// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"fmt"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestWalk(t *testing.T) {
	t.Parallel()
	for i, tc := range parseTests {
		tc := tc
		t.Run(fmt.Sprintf("%03d", i), func(t *testing.T) {
			nodes, err := ParseString(tc.in, 0)
			qt.Assert(t, err, qt.IsNil)
			for _, node := range nodes {
				// Each visited node is matched by one nil call once
				// its children are done.
				depth := 0
				Walk(node, func(n Node) bool {
					if n == nil {
						depth--
					} else {
						depth++
					}
					qt.Assert(t, depth >= 0, qt.IsTrue)
					return true
				})
				qt.Assert(t, depth, qt.Equals, 0)
			}
		})
	}
}

func TestWalkStop(t *testing.T) {
	t.Parallel()
	nodes, err := ParseString("a $(b) | c", 0)
	qt.Assert(t, err, qt.IsNil)
	var got []string
	Walk(nodes[0], func(n Node) bool {
		if n == nil {
			return true
		}
		got = append(got, n.Kind())
		_, isCall := n.(*CallExpr)
		return !isCall
	})
	qt.Assert(t, got, qt.DeepEquals, []string{"pipeline", "command", "command"})
}

type newNode struct{}

func (newNode) Kind() string { return "new" }
func (newNode) Sexp() string { return "(new)" }

func TestWalkUnexpectedType(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("did not panic")
		}
	}()
	Walk(newNode{}, func(Node) bool { return true })
}

func TestDebugPrint(t *testing.T) {
	t.Parallel()
	nodes, err := ParseString("echo ${x:-y} <<EOF\nbody\nEOF\n", 0)
	qt.Assert(t, err, qt.IsNil)
	var sb strings.Builder
	err = DebugPrint(&sb, nodes[0])
	qt.Assert(t, err, qt.IsNil)
	got := sb.String()
	for _, want := range []string{
		"*syntax.CallExpr {",
		`Value: "echo"`,
		"*syntax.ParamExp {",
		`Op: ":-"`,
		"*syntax.HereDoc {",
		`Content: "body\n"`,
	} {
		qt.Assert(t, got, qt.Contains, want)
	}
	qt.Assert(t, got, qt.Not(qt.Contains), "startPos")
}
