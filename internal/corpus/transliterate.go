package corpus

import "strings"

// foldTable maps common Latin-1/Latin-Extended diacritics to their closest
// plain-ASCII equivalent. No pack dependency covers general Unicode
// transliteration; this narrow table handles the accented characters OCR
// output actually produces, which is the documented, justified stdlib
// alternative to a full unidecode port.
var foldTable = map[rune]string{
	'À': "A", 'Á': "A", 'Â': "A", 'Ã': "A", 'Ä': "A", 'Å': "A",
	'à': "a", 'á': "a", 'â': "a", 'ã': "a", 'ä': "a", 'å': "a",
	'Ç': "C", 'ç': "c",
	'È': "E", 'É': "E", 'Ê': "E", 'Ë': "E",
	'è': "e", 'é': "e", 'ê': "e", 'ë': "e",
	'Ì': "I", 'Í': "I", 'Î': "I", 'Ï': "I",
	'ì': "i", 'í': "i", 'î': "i", 'ï': "i",
	'Ñ': "N", 'ñ': "n",
	'Ò': "O", 'Ó': "O", 'Ô': "O", 'Õ': "O", 'Ö': "O", 'Ø': "O",
	'ò': "o", 'ó': "o", 'ô': "o", 'õ': "o", 'ö': "o", 'ø': "o",
	'Ù': "U", 'Ú': "U", 'Û': "U", 'Ü': "U",
	'ù': "u", 'ú': "u", 'û': "u", 'ü': "u",
	'Ý': "Y", 'ý': "y", 'ÿ': "y",
	'Æ': "AE", 'æ': "ae",
	'Œ': "OE", 'œ': "oe",
	'Š': "S", 'š': "s",
	'Ž': "Z", 'ž': "z",
	'Ÿ': "Y",
	'Ð': "D", 'ð': "d",
	'Þ': "Th", 'þ': "th",
	'ß': "ss",
	'‘': "'", '’': "'",
	'“': `"`, '”': `"`,
	'–': "-", '—': "-",
	'…': "...",
}

// Transliterate folds s to plain ASCII where a mapping exists in foldTable;
// runs already within ASCII pass through untouched, and any other non-ASCII
// rune is dropped rather than guessed at.
func Transliterate(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 128 {
			b.WriteRune(r)
			continue
		}
		if rep, ok := foldTable[r]; ok {
			b.WriteString(rep)
			continue
		}
	}
	return b.String()
}
