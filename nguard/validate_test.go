package nguard_test

import (
	"testing"

	"github.com/muir/nctl/nguard"
	"github.com/muir/nctl/nreply"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterValidator(t *testing.T) {
	t.Parallel()
	v := nguard.NewRegisterValidator()
	cases := []struct {
		email, password string
		msg             string
	}{
		{"a@b.co", "abc123", ""},
		{"not-an-email", "abc123", "Invalid email format"},
		{"a b@c.d", "abc123", "Invalid email format"},
		{"a@b.co", "ab1", "Password must be longer than 5 characters"},
		{"a@b.co", "abcdef", "Password must contain at least one letter and one number"},
		{"a@b.co", "123456", "Password must contain at least one letter and one number"},
		{"a@b.co", "abc12!", "Password must contain at least one letter and one number"},
	}
	for _, tc := range cases {
		err := v.Validate(nguard.Credentials{Email: tc.email, Password: tc.password})
		if tc.msg == "" {
			assert.NoError(t, err)
			continue
		}
		require.Error(t, err, tc.msg)
		assert.Equal(t, 400, nreply.GetReturnCode(err))
		assert.Equal(t, tc.msg, nreply.Message(err))
	}
	assert.NoError(t, v.Validate(&nguard.Credentials{Email: "x@y.zz", Password: "pass99"}))
	err := v.Validate("a string")
	require.Error(t, err)
	assert.Equal(t, 500, nreply.GetReturnCode(err))
}

type signup struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required"`
	Age   int    `json:"age" validate:"min=18"`
}

func TestStructValidator(t *testing.T) {
	t.Parallel()
	v := nguard.NewStructValidator()
	assert.NoError(t, v.Validate(signup{Email: "a@b.co", Name: "A", Age: 20}))
	assert.NoError(t, v.Validate(&signup{Email: "a@b.co", Name: "A", Age: 20}))

	err := v.Validate(signup{Email: "nope", Name: "A", Age: 20})
	assert.Equal(t, 400, nreply.GetReturnCode(err))
	assert.Equal(t, "Invalid email format", nreply.Message(err))

	err = v.Validate(signup{Email: "a@b.co", Age: 20})
	assert.Equal(t, "name is required", nreply.Message(err))

	err = v.Validate(signup{Email: "a@b.co", Name: "A", Age: 3})
	assert.Equal(t, "age must be at least 18", nreply.Message(err))

	err = v.Validate(7)
	require.Error(t, err)
	assert.Equal(t, 500, nreply.GetReturnCode(err))
}
