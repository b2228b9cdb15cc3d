package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in        string
		wantMods  Modifier
		wantKey   string
		canonical string
	}{
		{"<Control><Super>1", Control | Super, "1", "<Control><Super>1"},
		{"<Super><Ctrl>0", Control | Super, "0", "<Control><Super>0"},
		{"<Primary><Shift>F5", Control | Shift, "F5", "<Control><Shift>F5"},
		{"<Mod1>a", Alt, "a", "<Alt>a"},
		{"<mod4>Return", Super, "Return", "<Super>Return"},
		{"KP_1", 0, "KP_1", "KP_1"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			acc, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMods, acc.Mods)
			assert.Equal(t, tt.wantKey, acc.Key)
			assert.Equal(t, tt.canonical, acc.String())
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"", "<Control>", "<Control", "<Hyper>1", "<Super>a b", "<Super>1>"} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrInvalidAccelerator, "Parse(%q)", in)
	}
}

func TestSxhkd(t *testing.T) {
	acc, err := Parse("<Super><Control>3")
	require.NoError(t, err)
	assert.Equal(t, "ctrl + super + 3", acc.Sxhkd())

	acc, err = Parse("<Alt><Shift>Q")
	require.NoError(t, err)
	assert.Equal(t, "shift + alt + q", acc.Sxhkd())
}

func TestDefault(t *testing.T) {
	assert.Equal(t, "<Control><Super>1", Default(1))
	assert.Equal(t, "<Control><Super>0", Default(10))
}

func TestExportSxhkd(t *testing.T) {
	a3, _ := Parse("<Control><Super>3")
	a1, _ := Parse("<Control><Super>1")

	got := ExportSxhkd([]Binding{{Number: 3, Accelerator: a3}, {Number: 1, Accelerator: a1}}, "wsoverlay")
	want := "# Generated by wsoverlay. Include from sxhkdrc.\n" +
		"\n# overlay workspace 1\nctrl + super + 1\n\twsoverlay toggle 1\n" +
		"\n# overlay workspace 3\nctrl + super + 3\n\twsoverlay toggle 3\n"
	assert.Equal(t, want, got)
}
