package fetcher

import (
	"context"
	"encoding/xml"
	"io"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// streamTables decodes each <table:table> in an OpenDocument content.xml
// and sends it on the returned channel. Tables are decoded one at a time,
// so a workbook with many large sheets never sits in memory all at once.
// Cancelling ctx stops the stream; both channels close when it ends.
func streamTables(ctx context.Context, r io.Reader) (<-chan odsNode, <-chan error) {
	tables := make(chan odsNode, 4)
	errs := make(chan error, 1)

	go func() {
		defer close(tables)
		defer close(errs)

		dec := xml.NewDecoder(r)
		dec.CharsetReader = odsCharsetReader

		for ctx.Err() == nil {
			tok, err := dec.Token()
			if err == io.EOF {
				return
			}
			if err != nil {
				errs <- eris.Wrap(err, "ods: read token")
				return
			}

			se, ok := tok.(xml.StartElement)
			if !ok || se.Name.Local != "table" {
				continue
			}

			var table odsNode
			if err := dec.DecodeElement(&table, &se); err != nil {
				errs <- eris.Wrap(err, "ods: decode table")
				return
			}

			select {
			case tables <- table:
			case <-ctx.Done():
			}
		}
		errs <- eris.Wrap(ctx.Err(), "ods: context cancelled")
	}()

	return tables, errs
}

// odsCharsetReader handles documents not saved as UTF-8. LibreOffice always
// writes UTF-8 but some converters declare a legacy charset.
func odsCharsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, eris.Wrapf(err, "ods: unsupported charset %q", charset)
	}
	return enc.NewDecoder().Reader(input), nil
}
