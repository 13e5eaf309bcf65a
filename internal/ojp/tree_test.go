package ojp

import (
	"testing"

	"github.com/mobil-koeln/ojp-sign/internal/testutil"
)

func TestParseTree_KeepsPrefixes(t *testing.T) {
	root, err := parseTree([]byte(`<siri:OJP xmlns:siri="s" xmlns:ojp="o"><ojp:A> x <ojp:Text>hi</ojp:Text></ojp:A><A>bare</A></siri:OJP>`))
	testutil.AssertNil(t, err)

	testutil.AssertEqual(t, root.name, "siri:OJP")
	testutil.AssertLen(t, root.children, 2)
	testutil.AssertEqual(t, root.children[0].name, "ojp:A")
	testutil.AssertEqual(t, root.children[1].name, "A")
}

func TestNode_ChildPrefersPrimary(t *testing.T) {
	root, err := parseTree([]byte(`<R><A>bare</A><ojp:A>prefixed</ojp:A></R>`))
	testutil.AssertNil(t, err)

	testutil.AssertEqual(t, root.child(ojpTag("A")).text, "prefixed")
	testutil.AssertEqual(t, root.child(tag{primary: "x:A", fallback: "A"}).text, "bare")
	testutil.AssertTrue(t, root.child(ojpTag("B")) == nil)
}

func TestNode_AllFallsBackOnlyWhenPrimaryAbsent(t *testing.T) {
	root, err := parseTree([]byte(`<R><A>1</A><ojp:A>2</ojp:A><A>3</A></R>`))
	testutil.AssertNil(t, err)
	testutil.AssertLen(t, root.all(ojpTag("A")), 1)

	root, err = parseTree([]byte(`<R><A>1</A><A>3</A></R>`))
	testutil.AssertNil(t, err)
	testutil.AssertLen(t, root.all(ojpTag("A")), 2)
}

func TestNode_TextValue(t *testing.T) {
	root, err := parseTree([]byte(`<R><Plain> 11 </Plain><Wrapped><ojp:Text>S9</ojp:Text></Wrapped><Empty/></R>`))
	testutil.AssertNil(t, err)

	testutil.AssertEqual(t, root.child(ojpTag("Plain")).textValue(), "11")
	testutil.AssertEqual(t, root.child(ojpTag("Wrapped")).textValue(), "S9")
	testutil.AssertEqual(t, root.child(ojpTag("Empty")).textValue(), "")
	testutil.AssertEqual(t, root.child(ojpTag("Missing")).textValue(), "")
}

func TestNode_NilSafe(t *testing.T) {
	var n *node
	testutil.AssertTrue(t, n.child(ojpTag("A")) == nil)
	testutil.AssertTrue(t, n.path(ojpTag("A"), ojpTag("B")) == nil)
	testutil.AssertLen(t, n.all(ojpTag("A")), 0)
	testutil.AssertFalse(t, n.is(ojpTag("A")))
}

func TestParseTree_Entities(t *testing.T) {
	root, err := parseTree([]byte(`<R><T>Gare &amp; Co</T></R>`))
	testutil.AssertNil(t, err)
	testutil.AssertEqual(t, root.child(ojpTag("T")).text, "Gare & Co")
}
