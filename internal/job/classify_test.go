package job

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teamcutter/linebrew/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		line string
		want domain.Tag
	}{
		{line: "==> Pouring wget--1.24.5.x86_64_linux.bottle.tar.gz", want: domain.TagStep},
		{line: "Error: No such keg: /home/linuxbrew/.linuxbrew/Cellar/foo", want: domain.TagError},
		{line: "  error unpacking", want: domain.TagError},
		{line: "curl: (22) The requested URL returned error: 404", want: domain.TagError},
		{line: "fatal: not a git repository", want: domain.TagError},
		{line: "Warning: wget 1.24.5 is already installed and up-to-date.", want: domain.TagWarning},
		{line: "Caution: this is slow", want: domain.TagWarning},
		{line: "wget successfully installed", want: domain.TagSuccess},
		{line: "Pruned 3 symbolic links", want: domain.TagInfo},
		{line: "", want: domain.TagInfo},
		{line: "an errorless line", want: domain.TagInfo},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.line))
		})
	}
}
