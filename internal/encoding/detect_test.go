package encoding_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/reclaim/internal/encoding"
)

func TestNewUTF8Reader(t *testing.T) {
	tests := []struct {
		name        string
		input       []byte
		want        string
		wantCharset encoding.Charset
	}{
		{
			name:        "UTF8Passthrough",
			input:       []byte("id;productType;status\nA-1;Bildschirm größe;verkauft\n"),
			want:        "id;productType;status\nA-1;Bildschirm größe;verkauft\n",
			wantCharset: encoding.UTF8,
		},
		{
			name:        "UTF8BOMStripped",
			input:       append([]byte{0xEF, 0xBB, 0xBF}, []byte("id,grade\n")...),
			want:        "id,grade\n",
			wantCharset: encoding.UTF8BOM,
		},
		{
			name:  "Windows1252",
			input: []byte{'M', 'o', 'n', 'i', 't', 'e', 'u', 'r', ' ', 'r', 0xE9, 'p', 'a', 'r', 0xE9, '\n'},
			want:  "Moniteur réparé\n",
		},
		{
			name:        "UTF16LE",
			input:       []byte{0xFF, 0xFE, 'i', 0, 'd', 0, '\n', 0},
			want:        "id\n",
			wantCharset: encoding.UTF16LE,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, cs, err := encoding.NewUTF8Reader(bytes.NewReader(tt.input))
			require.NoError(t, err)

			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))

			if tt.wantCharset != "" {
				assert.Equal(t, tt.wantCharset, cs)
			}
		})
	}
}

func TestNewUTF8Reader_RuneSplitAtSampleEdge(t *testing.T) {
	input := strings.Repeat("a", 4095) + "é"

	r, cs, err := encoding.NewUTF8Reader(strings.NewReader(input))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, input, string(got))
	assert.Equal(t, encoding.UTF8, cs)
}

func TestDetect_ShortLatin1IsNotUTF8(t *testing.T) {
	assert.NotEqual(t, encoding.UTF8, encoding.Detect([]byte{'c', 'a', 'f', 0xE9}))
}
