package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNonBlockingReader_ReadLine(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		expectedValue string
	}{
		{
			name:          "successful read",
			input:         "yes\n",
			expectedValue: "yes",
		},
		{
			name:          "read with extra whitespace",
			input:         "  yes  \n",
			expectedValue: "yes",
		},
		{
			name:          "empty line",
			input:         "\n",
			expectedValue: "",
		},
		{
			name:          "eof without newline",
			input:         "y",
			expectedValue: "y",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nbr := NewNonBlockingReader(strings.NewReader(tt.input))

			result, err := nbr.ReadLine(context.Background())

			require.NoError(t, err)
			assert.Equal(t, tt.expectedValue, result)
		})
	}
}

func TestNonBlockingReader_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A blocked pipe-like reader would hang forever without the context.
	nbr := NewNonBlockingReader(blockingReader{})

	_, err := nbr.ReadLine(ctx)
	assert.ErrorIs(t, err, ErrInputCancelled)
}

// blockingReader never returns, like a terminal with no input.
type blockingReader struct{}

func (blockingReader) Read(_ []byte) (int, error) {
	select {}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "yes", input: "y\n", expected: true},
		{name: "yes word", input: "YES\n", expected: true},
		{name: "no", input: "n\n", expected: false},
		{name: "default is no", input: "\n", expected: false},
		{name: "garbage is no", input: "maybe\n", expected: false},
		{name: "closed stdin is no", input: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer

			ok, err := Confirm(context.Background(), strings.NewReader(tt.input), &out, "Proceed?")

			require.NoError(t, err)
			assert.Equal(t, tt.expected, ok)
			assert.Contains(t, out.String(), "Proceed?")
			assert.Contains(t, out.String(), "[y/N]")
		})
	}
}
