// ABOUTME: Tests for resolving the command template.
// ABOUTME: Covers placeholder substitution, whitespace splitting and the empty template.

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCommand(t *testing.T) {
	tests := []struct {
		name     string
		template string
		mode     Mode
		want     ResolvedCommand
	}{
		{"dark", "/usr/local/bin/theme.sh $THEME", ModeDark, ResolvedCommand{"/usr/local/bin/theme.sh", "DARK"}},
		{"light", "/usr/local/bin/theme.sh $THEME", ModeLight, ResolvedCommand{"/usr/local/bin/theme.sh", "LIGHT"}},
		{"no placeholder", "/bin/true", ModeDark, ResolvedCommand{"/bin/true"}},
		{"every occurrence", "/bin/echo $THEME --mode=$THEME", ModeDark, ResolvedCommand{"/bin/echo", "DARK", "--mode=DARK"}},
		{"runs of whitespace", "  /bin/echo \t a   b\n", ModeLight, ResolvedCommand{"/bin/echo", "a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveCommand(tt.template, tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCommandEmpty(t *testing.T) {
	for _, template := range []string{"", "   ", "\t\n"} {
		_, err := ResolveCommand(template, ModeDark)
		assert.ErrorIs(t, err, ErrNoCommand)
		assert.ErrorIs(t, err, ErrConfigInvalid)
	}
}

func TestResolvedCommandParts(t *testing.T) {
	c := ResolvedCommand{"/bin/echo", "a", "b"}
	assert.Equal(t, "/bin/echo", c.Program())
	assert.Equal(t, []string{"a", "b"}, c.Args())
	assert.Equal(t, "/bin/echo a b", c.String())

	assert.Empty(t, ResolvedCommand{"/bin/true"}.Args())
	assert.Equal(t, "", ResolvedCommand(nil).Program())
}
