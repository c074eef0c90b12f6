package templating

import (
	"bytes"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
)

const testTemplate = `<!DOCTYPE html><html><body>
<span id="date">unknown</span>
<a id="img-link" href="#"><img id="img" src="" alt="x"></a>
<p id="other">untouched</p>
</body></html>`

func TestRenderLanding(t *testing.T) {
	out, err := RenderLanding([]byte(testTemplate), LandingModel{
		Date:    "2024-01-01",
		FileUrl: "https://snapshots.example.org/abc123.png",
	})
	assert.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(out))
	assert.NoError(t, err)
	assert.Equal(t, "2024-01-01", doc.Find("#date").Text())
	src, _ := doc.Find("#img").Attr("src")
	assert.Equal(t, "https://snapshots.example.org/abc123.png", src)
	href, _ := doc.Find("#img-link").Attr("href")
	assert.Equal(t, "https://snapshots.example.org/abc123.png", href)
	assert.Equal(t, "untouched", doc.Find("#other").Text())
}

func TestRenderLandingEscapesDate(t *testing.T) {
	out, err := RenderLanding([]byte(testTemplate), LandingModel{Date: "<script>", FileUrl: "x"})
	assert.NoError(t, err)
	assert.NotContains(t, string(out), "<script>")
	assert.Contains(t, string(out), "&lt;script&gt;")
}
