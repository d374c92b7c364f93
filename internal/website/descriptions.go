package website

import (
	"strings"

	"git.home.luguber.info/inful/bookbuilder/internal/lang"
)

var suffixDescriptions = map[string]map[string]string{
	"en": {
		"md":     `The expanded <code><a href="https://pandoc.org/MANUAL.html#pandocs-markdown">markdown</a></code> source of the book, ready for pandoc.`,
		"yaml":   `The numbers assigned to figures, listings, tables and definitions, as <code><a href="https://yaml.org/">yaml</a></code>.`,
		"pdf":    `The &quot;portable document format&quot; (<code><a href="https://www.iso.org/standard/75839.html">pdf</a></code>) is most suitable for reading on a PC and for printing documents.`,
		"html":   `A stand-alone web page (<code><a href="https://www.w3.org/TR/html5/">html</a></code>) can be viewed well both on mobile phones as well as on PCs.`,
		"epub":   `The electronic book format (<code><a href="https://www.w3.org/publishing/epub32/">epub</a></code>) is convenient for many e-book readers as well as mobile phones.`,
		"zip":    `A <code><a href="https://www.loc.gov/preservation/digital/formats/fdd/fdd000354.shtml">zip</a></code> archive containing the book in all the formats mentioned above for convenient download.`,
		"tar.xz": `A <code>tar.xz</code> archive containing the book in all the formats mentioned above for convenient download.`,
	},
	"de": {
		"md":     `Die expandierte <code><a href="https://pandoc.org/MANUAL.html#pandocs-markdown">Markdown</a></code>-Quelle des Buchs, bereit f&uuml;r pandoc.`,
		"yaml":   `Die Nummern der Abbildungen, Listings, Tabellen und Definitionen als <code><a href="https://yaml.org/">yaml</a></code>.`,
		"pdf":    `Das &quot;portable document format&quot; (<code><a href="https://www.iso.org/standard/75839.html">pdf</a></code>) ist f&uuml;r das Lesen am PC oder das Ausdrucken geeignet.`,
		"html":   `Eine stand-alone Webseite (<code><a href="https://www.w3.org/TR/html5/">html</a></code>) kann sowohl auf dem Mobiltelefon als auch auf dem PC gut gelesen werden.`,
		"epub":   `Das Format f&uuml;r E-Books (<code><a href="https://www.w3.org/publishing/epub32/">epub</a></code>) ist g&uuml;nstig f&uuml;r E-Book Leseger&auml;te, Tablets und Mobiltelefone.`,
		"zip":    `Ein <code><a href="https://www.loc.gov/preservation/digital/formats/fdd/fdd000354.shtml">zip</a></code> Archiv mit allen oben genannten Formaten des Buchs.`,
		"tar.xz": `Ein <code>tar.xz</code> Archiv mit allen oben genannten Formaten des Buchs.`,
	},
}

// descriptions returns the suffix explanations for a language, falling back
// to English.
func descriptions(id string) map[string]string {
	loc, _, _ := strings.Cut(lang.Locale(id), "_")
	if d, ok := suffixDescriptions[loc]; ok {
		return d
	}
	return suffixDescriptions["en"]
}
