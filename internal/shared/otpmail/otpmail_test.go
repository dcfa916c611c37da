package otpmail

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	msg, err := Render("no-reply@shop.test", Data{
		Email:    "a@x.test",
		Code:     "123456",
		ValidFor: 5 * time.Minute,
	})
	require.NoError(t, err)

	assert.Equal(t, "no-reply@shop.test", msg.From)
	assert.Equal(t, []string{"a@x.test"}, msg.To)
	assert.Equal(t, "Your Passwordless login code", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "123456")
	assert.Contains(t, msg.TextBody, "123456")
	assert.Contains(t, msg.TextBody, "expires in 5 minutes")
}

func TestRender_EscapesHTML(t *testing.T) {
	msg, err := Render("", Data{AppName: "<b>Shop</b>", Email: "a@x", Code: "1", ValidFor: time.Minute})
	require.NoError(t, err)
	assert.Contains(t, msg.HTMLBody, "&lt;b&gt;Shop&lt;/b&gt;")
}

func TestData_Minutes(t *testing.T) {
	assert.Equal(t, 1, Data{}.Minutes())
	assert.Equal(t, 2, Data{ValidFor: 90 * time.Second}.Minutes())
}
