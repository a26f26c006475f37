package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryExtractText(t *testing.T) {
	r := NewRegistry()
	res, err := r.Extract(context.Background(), []byte("hello world\nsecond line"), "text/plain")
	require.NoError(t, err)
	require.Equal(t, "hello world\nsecond line", res.Text)
	require.Equal(t, 4, res.WordCount)
	require.Equal(t, 23, res.CharCount)
}

func TestRegistryExtractMarkdown(t *testing.T) {
	r := NewRegistry()
	md := "# Title\n\nSome *emphasized* prose here.\n\n```go\nfunc main() {}\n```\n"
	res, err := r.Extract(context.Background(), []byte(md), "md")
	require.NoError(t, err)
	require.Contains(t, res.Text, "Title")
	require.Contains(t, res.Text, "emphasized")
	require.Contains(t, res.Text, "func main() {}")
	require.NotContains(t, res.Text, "# Title")
	require.NotContains(t, res.Text, "```")
}

func TestRegistryUnsupportedType(t *testing.T) {
	r := NewRegistry()
	_, err := r.Extract(context.Background(), []byte("data"), "application/pdf")
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	require.Equal(t, "application/pdf", parseErr.FileType)
}

func TestRegistryEmptyExtraction(t *testing.T) {
	r := NewRegistry()
	_, err := r.Extract(context.Background(), []byte("   \n\n  "), "txt")
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
}

func TestRegistryNormalizesTypes(t *testing.T) {
	r := NewRegistry()
	require.True(t, r.Supported(".TXT"))
	require.True(t, r.Supported("text/markdown; charset=utf-8"))
	require.False(t, r.Supported("docx"))
}

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "collapses space runs",
			in:   "a    b\t\tc",
			want: "a b c",
		},
		{
			name: "normalizes blank lines",
			in:   "para one\n\n\n\n\npara two",
			want: "para one\n\npara two",
		},
		{
			name: "strips control characters",
			in:   "ab\x00cd\x07ef",
			want: "abcdef",
		},
		{
			name: "normalizes crlf",
			in:   "line one\r\nline two",
			want: "line one\nline two",
		},
		{
			name: "trims",
			in:   "  \n text \n ",
			want: "text",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Clean(tt.in))
		})
	}
}
