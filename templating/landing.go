package templating

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"
)

// RenderLanding fills the landing page placeholders: the text of #date, the src of #img and the
// href of #img-link. Everything else in the template is passed through.
func RenderLanding(tmpl []byte, model LandingModel) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(tmpl))
	if err != nil {
		return nil, err
	}

	doc.Find("#date").SetText(model.Date)
	doc.Find("#img").SetAttr("src", model.FileUrl)
	doc.Find("#img-link").SetAttr("href", model.FileUrl)

	html, err := goquery.OuterHtml(doc.Selection)
	if err != nil {
		return nil, err
	}
	return []byte(html), nil
}
