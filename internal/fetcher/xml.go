package fetcher

import (
	"context"
	"encoding/xml"
	"io"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// StreamXML decodes every XML element whose local name matches
// elementName into T and sends it on the returned channel. Filing
// documents occasionally declare legacy charsets, handled via htmlindex.
// Both channels close when the stream ends.
func StreamXML[T any](ctx context.Context, r io.Reader, elementName string) (<-chan T, <-chan error) {
	items := make(chan T, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(items)
		defer close(errs)

		dec := xml.NewDecoder(r)
		dec.CharsetReader = charsetReader

		for {
			if ctx.Err() != nil {
				errs <- eris.Wrap(ctx.Err(), "xml: context cancelled")
				return
			}

			tok, err := dec.Token()
			if err == io.EOF {
				return
			}
			if err != nil {
				errs <- eris.Wrap(err, "xml: read token")
				return
			}

			start, ok := tok.(xml.StartElement)
			if !ok || start.Name.Local != elementName {
				continue
			}

			var item T
			if err := dec.DecodeElement(&item, &start); err != nil {
				errs <- eris.Wrapf(err, "xml: decode %s element", elementName)
				return
			}

			select {
			case items <- item:
			case <-ctx.Done():
				errs <- eris.Wrap(ctx.Err(), "xml: context cancelled")
				return
			}
		}
	}()

	return items, errs
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, eris.Wrapf(err, "xml: unsupported charset %q", charset)
	}
	return enc.NewDecoder().Reader(input), nil
}
