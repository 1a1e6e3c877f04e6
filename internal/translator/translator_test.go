package translator

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestPassthrough(t *testing.T) {
	out, err := Passthrough{}.Translate(context.Background(), "Привет", language.Russian, language.Spanish)
	require.NoError(t, err)
	assert.Equal(t, "Привет", out)
}

func TestFunc(t *testing.T) {
	var tr Translator = Func(func(_ context.Context, text string, _, to language.Tag) (string, error) {
		return "[" + to.String() + "] " + strings.ToUpper(text), nil
	})

	out, err := tr.Translate(context.Background(), "hola", language.Spanish, language.English)
	require.NoError(t, err)
	assert.Equal(t, "[en] HOLA", out)
}

func TestMatch(t *testing.T) {
	tests := []struct {
		code   string
		want   language.Tag
		wantOK bool
	}{
		{code: "ru", want: language.Russian, wantOK: true},
		{code: "pt-BR", want: language.Portuguese, wantOK: true},
		{code: "es-MX", want: language.Spanish, wantOK: true},
		{code: "ja", wantOK: false},
		{code: "not a code", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, ok := Match(tt.code)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				base, _ := got.Base()
				wantBase, _ := tt.want.Base()
				assert.Equal(t, wantBase, base)
			}
		})
	}
}
