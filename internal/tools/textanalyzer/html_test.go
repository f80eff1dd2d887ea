package textanalyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuditHTML(t *testing.T) {
	input := `<p><img src="a.png"><img src='b.png' alt='B'><IMG SRC="c.png"></p>` +
		`<a href="/x">x</a><a href="/y" target="_self" rel="nofollow">y</a><abbr>z</abbr>`

	audit := AuditHTML(input)

	assert.Equal(t, []string{
		`image 1: <img src="a.png">`,
		`image 2: <IMG SRC="c.png">`,
	}, audit.MissingAltImages)
	assert.Equal(t, 2, audit.LinksRewritten)
	assert.Equal(t, `<p><img src="a.png"><img src='b.png' alt='B'><IMG SRC="c.png"></p>`+
		`<a target="_blank" href="/x" rel="noopener noreferrer">x</a>`+
		`<a href="/y" target="_blank" rel="noopener noreferrer">y</a><abbr>z</abbr>`, audit.Cleaned)
}

func TestAuditHTML_NothingToDo(t *testing.T) {
	audit := AuditHTML("plain text")
	assert.Equal(t, "plain text", audit.Cleaned)
	assert.Empty(t, audit.MissingAltImages)
	assert.NotNil(t, audit.MissingAltImages)
	assert.Zero(t, audit.LinksRewritten)

	bare := AuditHTML("<a>x</a>")
	assert.Equal(t, `<a target="_blank" rel="noopener noreferrer">x</a>`, bare.Cleaned)
}
