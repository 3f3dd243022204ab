package inbox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailtriage/internal/extract"
)

const plainMessage = "From: \"Brian Lee\" <brian@apexcorp.com>\r\n" +
	"To: sales@example.com\r\n" +
	"Subject: Purchase Order PO-2025-781\r\n" +
	"Message-ID: <po-781@apexcorp.com>\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Please find attached our PO for 20 units.\r\n"

const htmlMessage = "From: ops@lfw.com\r\n" +
	"Subject: Delivery status\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<html><head><style>p{}</style></head><body><p>Could you share the</p><p>dispatch date?</p></body></html>\r\n"

func TestToEmailTextPlain(t *testing.T) {
	text, err := ToEmailText([]byte(plainMessage))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(text, "From: "))
	assert.Contains(t, text, "Subject: Purchase Order PO-2025-781\n\n")
	assert.Contains(t, text, "Please find attached our PO for 20 units.")

	name, email := extract.ExtractSenderInfo(text)
	assert.Equal(t, "brian@apexcorp.com", email)
	assert.Equal(t, "Brian Lee", name)
	assert.Equal(t, "Purchase Order PO-2025-781", extract.ExtractSubject(text))
}

func TestToEmailTextHTMLOnly(t *testing.T) {
	text, err := ToEmailText([]byte(htmlMessage))
	require.NoError(t, err)

	assert.Contains(t, text, "From: ops@lfw.com\n")
	assert.Contains(t, text, "dispatch date?")
	assert.NotContains(t, text, "<p>")
}

func TestHTMLToText(t *testing.T) {
	out, err := HTMLToText(`<div>Hello   <b>team</b></div><script>x()</script><p>Line two<br>Line three</p>`)
	require.NoError(t, err)
	assert.Equal(t, "Hello team\nLine two\nLine three", out)
}
