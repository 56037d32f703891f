package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	cases := []struct {
		name  string
		texts []string
		want  []string
	}{
		{"basic", []string{"<lora:foo>, <lyco:Bar:0.8>"}, []string{"foo", "Bar"}},
		{"no tags", []string{"masterpiece, best quality"}, nil},
		{"case-insensitive keyword", []string{"<LoRA:Alpha:1> <LYCO:beta>"}, []string{"Alpha", "beta"}},
		{"dedup keeps first casing", []string{"<lora:Foo> <lora:foo:0.5> <lyco:FOO>"}, []string{"Foo"}},
		{"positive before negative", []string{"<lora:a>", "<lora:b> <lora:A>"}, []string{"a", "b"}},
		{"whitespace trimmed", []string{"<lora: spaced name :0.7>"}, []string{"spaced name"}},
		{"empty name dropped", []string{"<lora: :1> <lora:x>"}, []string{"x"}},
		{"subdir names", []string{"<lora:styles/ink:0.6>"}, []string{"styles/ink"}},
		{"empty inputs", []string{"", ""}, nil},
		{"unterminated", []string{"<lora:broken"}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Extract(tc.texts...))
		})
	}
}

func TestSplitInfotext(t *testing.T) {
	info := "1girl, <lora:myStyle:1>\nsecond line\nNegative prompt: lowres, <lora:badhands:-1>\nSteps: 20, Sampler: Euler a, CFG scale: 7"
	pos, neg := SplitInfotext(info)
	assert.Equal(t, "1girl, <lora:myStyle:1>\nsecond line", pos)
	assert.Equal(t, "lowres, <lora:badhands:-1>", neg)

	pos, neg = SplitInfotext("just a prompt")
	assert.Equal(t, "just a prompt", pos)
	assert.Empty(t, neg)

	assert.Equal(t, []string{"myStyle", "badhands"}, Extract(SplitInfotext(info)))
}
