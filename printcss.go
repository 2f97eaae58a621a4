package pdfwatch

import (
	"fmt"

	"github.com/go-rod/rod"
)

// PrintStylesheet holds the print rules injected into every rendered page.
// It is prepended to <head>, so same-selector rules of equal importance
// declared by the page itself come later in the cascade and win.
const PrintStylesheet = `
@page {
  size: letter;
}
p {
  margin-top: 0em !important;
  margin-bottom: 0em !important;
}
.page-title {
  margin-bottom: 0.0em !important;
}
.page-description {
  margin: 0em !important;
}
.body {
  line-height: 1.0em !important;
}
ul {
  margin: 0;
  margin-block-start: 0.35em !important;
  margin-block-end: 0.35em !important;
}
`

// printStyleMarker tags the injected <style> element.
const printStyleMarker = "data-pdfwatch"

// injectStyleJS prepends a <style> element to <head>, creating <head> if the
// document somehow lacks one. Returns whether the element ended up first.
const injectStyleJS = `(css, marker) => {
  let head = document.head;
  if (!head) {
    head = document.createElement('head');
    document.documentElement.insertBefore(head, document.documentElement.firstChild);
  }
  const style = document.createElement('style');
  style.setAttribute(marker, 'print');
  style.textContent = css;
  head.insertBefore(style, head.firstChild);
  return head.firstChild === style;
}`

// injectPrintStyles runs injectStyleJS in page.
func injectPrintStyles(page *rod.Page) error {
	res, err := page.Eval(injectStyleJS, PrintStylesheet, printStyleMarker)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStyleInject, err)
	}
	if !res.Value.Bool() {
		return fmt.Errorf("%w: style element is not the first child of <head>", ErrStyleInject)
	}
	return nil
}
