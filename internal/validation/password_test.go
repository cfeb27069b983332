package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "password123", false},
		{"Single Character", "x", false},
		{"Exactly Max Length", strings.Repeat("a", 72), false},
		{"Empty", "", true},
		{"Whitespace Only", "   ", true},
		{"Too Long", strings.Repeat("a", 73), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"Valid", "hello123@gmail.com", false},
		{"Plus Addressing", "a.b+tag@sub.example.org", false},
		{"Empty", "", true},
		{"No At", "hello123gmail.com", true},
		{"No Domain", "hello@", true},
		{"No TLD", "hello@gmail", true},
		{"Spaces", "hello 123@gmail.com", true},
		{"Too Long", strings.Repeat("a", 250) + "@x.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePostContent(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidatePostContent("title", "content"))
	assert.Error(t, ValidatePostContent("", "content"))
	assert.Error(t, ValidatePostContent("title", " "))
	assert.Error(t, ValidatePostContent(strings.Repeat("t", 301), "content"))
	assert.Error(t, ValidatePostContent("title", strings.Repeat("c", 50001)))
}
