package mailbox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

func TestParseMessage_PrefersPlainText(t *testing.T) {
	raw := crlf(`From: "James Liu" <james.liu@example.com>
To: ops@example.com
Subject: =?UTF-8?B?T3JkZXIgc3RhdHVz?=
Date: Mon, 02 Mar 2026 10:00:00 +0000
MIME-Version: 1.0
Content-Type: multipart/alternative; boundary="b1"

--b1
Content-Type: text/html; charset=utf-8

<p>HTML version</p>
--b1
Content-Type: text/plain; charset=utf-8

Where is my order?
--b1--
`)

	email, err := parseMessage("id-1", raw)
	require.NoError(t, err)

	assert.Equal(t, "id-1", email.ID)
	assert.Equal(t, "Order status", email.Subject)
	assert.Equal(t, "James Liu", email.SenderName)
	assert.Equal(t, "james.liu@example.com", email.SenderEmail)
	require.NotNil(t, email.Timestamp)
	assert.Equal(t, "2026-03-02T10:00:00Z", *email.Timestamp)
	assert.Equal(t, "Where is my order?", email.Body)
}

func TestParseMessage_FallsBackToHTML(t *testing.T) {
	raw := crlf(`From: ann@example.com
Subject: Promo
Content-Type: text/html; charset=utf-8

<html><head><style>p{color:red}</style></head><body><p>Big&nbsp;sale</p><script>alert(1)</script><div>Today   only</div></body></html>
`)

	email, err := parseMessage("id-2", raw)
	require.NoError(t, err)

	assert.Equal(t, "ann@example.com", email.SenderEmail)
	assert.Empty(t, email.SenderName)
	assert.Nil(t, email.Timestamp)
	assert.Equal(t, "Big sale\nToday only", email.Body)
}

func TestParseMessage_MissingHeaders(t *testing.T) {
	email, err := parseMessage("id-3", crlf("Content-Type: text/plain\n\nhello\n"))
	require.NoError(t, err)

	assert.Equal(t, "(no subject)", email.Subject)
	assert.Equal(t, "unknown@example.com", email.SenderEmail)
	assert.Equal(t, "hello", email.Body)
}

func TestHTMLToText(t *testing.T) {
	assert.Equal(t, "Line one\nLine two\nitem", htmlToText("Line <b>one</b><br>Line two<ul><li>item</li></ul>"))
	assert.Empty(t, htmlToText("<style>body{}</style>"))
}

func TestStableID(t *testing.T) {
	a := StableID("<abc@mail.example.com>")
	assert.Len(t, a, 24)
	assert.Equal(t, a, StableID("abc@mail.example.com"))
	assert.NotEqual(t, a, StableID("<abd@mail.example.com>"))
}
