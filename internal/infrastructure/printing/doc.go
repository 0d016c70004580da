// Package printing assembles the printable return packet.
//
// This package contains:
//   - Composer, which appends the instructions pages and one US Letter page
//     carrying the scaled and centered 4x6 label
//   - FitLabel, the pure placement computation used by Composer
//   - instruction sources (local PDF, object storage, HTML rendered by Chrome)
//   - ChromedpRenderer for the HTML source
//   - FileSystemArchive for keeping a local copy of composed packets
//
// Example usage:
//
//	composer := printing.NewComposer(logger)
//	doc, err := composer.Compose(ctx, label.LabelBytes, instructions)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("packet has %d pages\n", doc.PageCount)
package printing
