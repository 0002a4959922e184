package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"testgate/internal/annotation"
	"testgate/internal/env"
)

var linuxNode18 = env.Snapshot{Platform: "linux", NodeMajor: 18, Browser: ""}

func table(pairs ...string) annotation.Table {
	t := annotation.Table{}
	for i := 0; i < len(pairs); i += 2 {
		t[pairs[i]] = pairs[i+1]
	}
	return t
}

func TestCatalogOrder(t *testing.T) {
	want := []string{
		"skipOnBrowser", "enabledOnBrowser",
		"skipOnOS", "enabledOnOS",
		"skipOnNodeVersion", "enabledOnNodeVersion",
		"skipForNodeRange", "enabledForNodeRange",
	}
	var got []string
	for _, rule := range Catalog() {
		got = append(got, rule.Name)
	}
	assert.Equal(t, want, got)
}

func TestDecide_OSRules(t *testing.T) {
	t.Run("skipOnOS matching platform", func(t *testing.T) {
		d := Decide(table("skiponos", "linux, darwin"), linuxNode18)
		assert.True(t, d.Skip)
		assert.Equal(t, "@skipOnOS linux, darwin", d.Reason)
	})

	t.Run("skipOnOS non-matching platform", func(t *testing.T) {
		d := Decide(table("skiponos", "win32"), linuxNode18)
		assert.False(t, d.Skip)
	})

	t.Run("enabledOnOS excluding platform", func(t *testing.T) {
		d := Decide(table("enabledonos", "win32, darwin"), linuxNode18)
		assert.True(t, d.Skip)
	})

	t.Run("enabledOnOS including platform", func(t *testing.T) {
		d := Decide(table("enabledonos", "linux"), linuxNode18)
		assert.False(t, d.Skip)
	})
}

func TestDecide_BrowserRules(t *testing.T) {
	firefox := env.Snapshot{Platform: "linux", NodeMajor: 18, Browser: "firefox"}

	t.Run("skipOnBrowser known and listed", func(t *testing.T) {
		d := Decide(table("skiponbrowser", "firefox"), firefox)
		assert.True(t, d.Skip)
		assert.Equal(t, "@skipOnBrowser firefox", d.Reason)
	})

	t.Run("skipOnBrowser unknown browser never skips", func(t *testing.T) {
		d := Decide(table("skiponbrowser", "firefox"), linuxNode18)
		assert.False(t, d.Skip)
	})

	t.Run("enabledOnBrowser unknown browser skips", func(t *testing.T) {
		d := Decide(table("enabledonbrowser", "Firefox"), linuxNode18)
		assert.True(t, d.Skip)
	})

	t.Run("enabledOnBrowser matching browser runs", func(t *testing.T) {
		d := Decide(table("enabledonbrowser", "firefox, chrome"), firefox)
		assert.False(t, d.Skip)
	})

	t.Run("override-injected fake browser matches verbatim", func(t *testing.T) {
		foo := env.Snapshot{Platform: "linux", NodeMajor: 18, Browser: "foo"}
		d := Decide(table("skiponbrowser", "foo"), foo)
		assert.True(t, d.Skip)
	})
}

func TestDecide_VersionRules(t *testing.T) {
	t.Run("skipOnNodeVersion match", func(t *testing.T) {
		d := Decide(table("skiponnodeversion", "16, v18"), linuxNode18)
		assert.True(t, d.Skip)
	})

	t.Run("enabledOnNodeVersion mismatch skips", func(t *testing.T) {
		d := Decide(table("enabledonnodeversion", "20, 22"), linuxNode18)
		assert.True(t, d.Skip)
	})

	t.Run("range inclusive at both ends", func(t *testing.T) {
		for _, major := range []int{16, 17, 18} {
			snap := env.Snapshot{Platform: "linux", NodeMajor: major}
			d := Decide(table("skipfornoderange", "min=16,max=18"), snap)
			assert.True(t, d.Skip, "major %d", major)
		}
		for _, major := range []int{15, 19} {
			snap := env.Snapshot{Platform: "linux", NodeMajor: major}
			d := Decide(table("skipfornoderange", "min=16,max=18"), snap)
			assert.False(t, d.Skip, "major %d", major)
		}
	})

	t.Run("unbounded enabled range", func(t *testing.T) {
		for _, tc := range []struct {
			major int
			skip  bool
		}{{13, true}, {14, false}, {99, false}} {
			snap := env.Snapshot{Platform: "linux", NodeMajor: tc.major}
			d := Decide(table("enabledfornoderange", "min=14"), snap)
			assert.Equal(t, tc.skip, d.Skip, "major %d", tc.major)
		}
	})

	t.Run("unknown node version disables every version rule", func(t *testing.T) {
		unknown := env.Snapshot{Platform: "linux", NodeMajor: env.NodeMajorUnknown}
		for _, tag := range []string{"skiponnodeversion", "enabledonnodeversion"} {
			d := Decide(table(tag, "18"), unknown)
			assert.False(t, d.Skip, tag)
		}
		for _, tag := range []string{"skipfornoderange", "enabledfornoderange"} {
			d := Decide(table(tag, "min=1,max=99"), unknown)
			assert.False(t, d.Skip, tag)
		}
	})
}

func TestDecide_OrderAndShortCircuit(t *testing.T) {
	t.Run("earlier rule wins when two fire", func(t *testing.T) {
		// skipOnOS (rule 3) and enabledOnNodeVersion (rule 6) both fire;
		// the OS rule is earlier in the catalog so its reason is reported.
		d := Decide(table(
			"skiponos", "linux",
			"enabledonnodeversion", "20",
		), linuxNode18)
		assert.True(t, d.Skip)
		assert.Equal(t, "@skipOnOS linux", d.Reason)
	})

	t.Run("present-but-false rule does not stop the walk", func(t *testing.T) {
		d := Decide(table(
			"skiponos", "win32",
			"skipfornoderange", "min=18",
		), linuxNode18)
		assert.True(t, d.Skip)
		assert.Equal(t, "@skipForNodeRange min=18", d.Reason)
	})

	t.Run("no annotation present yields no skip", func(t *testing.T) {
		d := Decide(annotation.Table{}, linuxNode18)
		assert.False(t, d.Skip)
		assert.Empty(t, d.Reason)
	})

	t.Run("malformed list values degrade to no constraint", func(t *testing.T) {
		d := Decide(table("enabledonos", " , , "), linuxNode18)
		assert.False(t, d.Skip)
	})
}
