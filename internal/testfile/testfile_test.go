// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package testfile

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const corpus = `# leading comment

=== simple
echo hi
---
(command (word "echo") (word "hi"))
---

=== multi line
if a; then
  b
fi
---
(if (command (word "a"))
  (command (word "b")))
---
# between cases
=== broken
echo "x
---
<error>
---
=== glob
# @extglob
echo @(a|b)
---
(command (word "echo") (word "@(a|b)"))

---
`

func TestParse(t *testing.T) {
	t.Parallel()
	got := Parse([]byte(corpus))
	want := []Case{
		{Name: "simple", Input: "echo hi", Expected: `(command (word "echo") (word "hi"))`, Line: 3},
		{Name: "multi line", Input: "if a; then\n  b\nfi", Expected: "(if (command (word \"a\"))\n  (command (word \"b\")))", Line: 9},
		{Name: "broken", Input: `echo "x`, Expected: "<error>", Line: 18},
		{Name: "glob", Input: "# @extglob\necho @(a|b)", Expected: `(command (word "echo") (word "@(a|b)"))`, Line: 23},
	}
	qt.Assert(t, got, qt.CmpEquals(cmpopts.IgnoreUnexported(Case{})), want)

	qt.Assert(t, got[2].WantError(), qt.IsTrue)
	qt.Assert(t, got[0].WantError(), qt.IsFalse)
	qt.Assert(t, got[3].Extglob(), qt.IsTrue)
	qt.Assert(t, got[1].Extglob(), qt.IsFalse)
}

func TestRewrite(t *testing.T) {
	t.Parallel()
	cases := Parse([]byte(corpus))

	// Nothing changes if the expectations are kept.
	same := string(Rewrite([]byte(corpus), cases))
	qt.Assert(t, cmp.Diff(corpus, same), qt.Equals, "")

	cases[0].Expected = "(command (word \"echo\") (word \"bye\"))"
	cases[2].Expected = "(command (word \"echo\") (word \"\\\"x\"))"
	got := Parse(Rewrite([]byte(corpus), cases))
	qt.Assert(t, got, qt.HasLen, len(cases))
	for i := range cases {
		qt.Assert(t, got[i].Expected, qt.Equals, cases[i].Expected)
		qt.Assert(t, got[i].Input, qt.Equals, cases[i].Input)
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()
	qt.Assert(t, Normalize("  (a\n\t  (b)  )\n"), qt.Equals, "(a (b) )")
}
