package admincli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPassword_Error(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) {
		return nil, errors.New("boom")
	}
	var out bytes.Buffer
	_, err := getPassword(&out, "Enter password: ")
	if err == nil {
		t.Fatal("expected error")
	}
	assert.Equal(t, "Enter password: \n", out.String())
}

func TestPromptNewPassword(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) { return []byte("same"), nil }

	var out bytes.Buffer
	pw, err := promptNewPassword(&out)
	require.NoError(t, err)
	assert.Equal(t, "same", pw)
	assert.Contains(t, out.String(), "Repeat password: ")
}

func TestReadPasswordLine(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"secret\n", "secret", false},
		{"secret\r\nignored\n", "secret", false},
		{"no-newline", "no-newline", false},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := readPasswordLine(strings.NewReader(tt.in))
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
