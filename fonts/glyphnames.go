package fonts

import "strings"

// glyphNames is the slice of the Adobe Glyph List that shows up in
// Differences arrays of real documents: ASCII, Latin-1 supplements and
// the common typographic marks.
var glyphNames = map[string]rune{
	"space": 0x0020, "exclam": 0x0021, "quotedbl": 0x0022, "numbersign": 0x0023,
	"dollar": 0x0024, "percent": 0x0025, "ampersand": 0x0026, "quotesingle": 0x0027,
	"parenleft": 0x0028, "parenright": 0x0029, "asterisk": 0x002A, "plus": 0x002B,
	"comma": 0x002C, "hyphen": 0x002D, "period": 0x002E, "slash": 0x002F,
	"zero": 0x0030, "one": 0x0031, "two": 0x0032, "three": 0x0033,
	"four": 0x0034, "five": 0x0035, "six": 0x0036, "seven": 0x0037,
	"eight": 0x0038, "nine": 0x0039, "colon": 0x003A, "semicolon": 0x003B,
	"less": 0x003C, "equal": 0x003D, "greater": 0x003E, "question": 0x003F,
	"at": 0x0040, "bracketleft": 0x005B, "backslash": 0x005C, "bracketright": 0x005D,
	"asciicircum": 0x005E, "underscore": 0x005F, "grave": 0x0060,
	"braceleft": 0x007B, "bar": 0x007C, "braceright": 0x007D, "asciitilde": 0x007E,

	"exclamdown": 0x00A1, "cent": 0x00A2, "sterling": 0x00A3, "currency": 0x00A4,
	"yen": 0x00A5, "brokenbar": 0x00A6, "section": 0x00A7, "dieresis": 0x00A8,
	"copyright": 0x00A9, "ordfeminine": 0x00AA, "guillemotleft": 0x00AB,
	"logicalnot": 0x00AC, "registered": 0x00AE, "macron": 0x00AF,
	"degree": 0x00B0, "plusminus": 0x00B1, "acute": 0x00B4, "mu": 0x00B5,
	"paragraph": 0x00B6, "periodcentered": 0x00B7, "cedilla": 0x00B8,
	"ordmasculine": 0x00BA, "guillemotright": 0x00BB, "onequarter": 0x00BC,
	"onehalf": 0x00BD, "threequarters": 0x00BE, "questiondown": 0x00BF,
	"multiply": 0x00D7, "divide": 0x00F7,

	"Agrave": 0x00C0, "Aacute": 0x00C1, "Acircumflex": 0x00C2, "Atilde": 0x00C3,
	"Adieresis": 0x00C4, "Aring": 0x00C5, "AE": 0x00C6, "Ccedilla": 0x00C7,
	"Egrave": 0x00C8, "Eacute": 0x00C9, "Ecircumflex": 0x00CA, "Edieresis": 0x00CB,
	"Igrave": 0x00CC, "Iacute": 0x00CD, "Icircumflex": 0x00CE, "Idieresis": 0x00CF,
	"Eth": 0x00D0, "Ntilde": 0x00D1, "Ograve": 0x00D2, "Oacute": 0x00D3,
	"Ocircumflex": 0x00D4, "Otilde": 0x00D5, "Odieresis": 0x00D6, "Oslash": 0x00D8,
	"Ugrave": 0x00D9, "Uacute": 0x00DA, "Ucircumflex": 0x00DB, "Udieresis": 0x00DC,
	"Yacute": 0x00DD, "Thorn": 0x00DE, "germandbls": 0x00DF,
	"agrave": 0x00E0, "aacute": 0x00E1, "acircumflex": 0x00E2, "atilde": 0x00E3,
	"adieresis": 0x00E4, "aring": 0x00E5, "ae": 0x00E6, "ccedilla": 0x00E7,
	"egrave": 0x00E8, "eacute": 0x00E9, "ecircumflex": 0x00EA, "edieresis": 0x00EB,
	"igrave": 0x00EC, "iacute": 0x00ED, "icircumflex": 0x00EE, "idieresis": 0x00EF,
	"eth": 0x00F0, "ntilde": 0x00F1, "ograve": 0x00F2, "oacute": 0x00F3,
	"ocircumflex": 0x00F4, "otilde": 0x00F5, "odieresis": 0x00F6, "oslash": 0x00F8,
	"ugrave": 0x00F9, "uacute": 0x00FA, "ucircumflex": 0x00FB, "udieresis": 0x00FC,
	"yacute": 0x00FD, "thorn": 0x00FE, "ydieresis": 0x00FF, "Ydieresis": 0x0178,

	"Amacron": 0x0100, "amacron": 0x0101, "Abreve": 0x0102, "abreve": 0x0103,
	"Aogonek": 0x0104, "aogonek": 0x0105, "Cacute": 0x0106, "cacute": 0x0107,
	"Ccaron": 0x010C, "ccaron": 0x010D, "Dcaron": 0x010E, "dcaron": 0x010F,
	"Emacron": 0x0112, "emacron": 0x0113, "Eogonek": 0x0118, "eogonek": 0x0119,
	"Ecaron": 0x011A, "ecaron": 0x011B, "Gbreve": 0x011E, "gbreve": 0x011F,
	"Iogonek": 0x012E, "iogonek": 0x012F, "Imacron": 0x012A, "imacron": 0x012B,
	"dotlessi": 0x0131, "Lacute": 0x0139, "lacute": 0x013A,
	"Lslash": 0x0141, "lslash": 0x0142, "Nacute": 0x0143, "nacute": 0x0144,
	"Ncaron": 0x0147, "ncaron": 0x0148, "OE": 0x0152, "oe": 0x0153,
	"Racute": 0x0154, "racute": 0x0155, "Rcaron": 0x0158, "rcaron": 0x0159,
	"Sacute": 0x015A, "sacute": 0x015B, "Scedilla": 0x015E, "scedilla": 0x015F,
	"Scaron": 0x0160, "scaron": 0x0161, "Tcaron": 0x0164, "tcaron": 0x0165,
	"Umacron": 0x016A, "umacron": 0x016B, "Uring": 0x016E, "uring": 0x016F,
	"Uogonek": 0x0172, "uogonek": 0x0173, "Zacute": 0x0179, "zacute": 0x017A,
	"Zdotaccent": 0x017B, "zdotaccent": 0x017C, "Zcaron": 0x017D, "zcaron": 0x017E,
	"florin": 0x0192,

	"circumflex": 0x02C6, "caron": 0x02C7, "breve": 0x02D8, "dotaccent": 0x02D9,
	"ring": 0x02DA, "ogonek": 0x02DB, "tilde": 0x02DC, "hungarumlaut": 0x02DD,

	"endash": 0x2013, "emdash": 0x2014, "quoteleft": 0x2018, "quoteright": 0x2019,
	"quotesinglbase": 0x201A, "quotedblleft": 0x201C, "quotedblright": 0x201D,
	"quotedblbase": 0x201E, "dagger": 0x2020, "daggerdbl": 0x2021,
	"bullet": 0x2022, "ellipsis": 0x2026, "perthousand": 0x2030,
	"guilsinglleft": 0x2039, "guilsinglright": 0x203A, "fraction": 0x2044,
	"Euro": 0x20AC, "trademark": 0x2122, "minus": 0x2212,
	"fi": 0xFB01, "fl": 0xFB02,
	"softhyphen": 0x00AD, "nbspace": 0x00A0,
}

// MapGlyphName resolves a Differences glyph name to a codepoint.
// Beyond the glyph list it accepts uniXXXX and uXXXXX hex names, plus
// the gNN convention where NN plus 29 gives the code. The offset of 29
// is empirical, observed in generated documents, and is kept as-is.
func MapGlyphName(name string) (rune, bool) {
	if r, ok := glyphNames[name]; ok {
		return r, true
	}
	if strings.HasPrefix(name, "uni") && len(name) == 7 {
		if v, ok := parseHexRune(name[3:]); ok {
			return v, true
		}
	}
	if strings.HasPrefix(name, "u") && len(name) >= 5 && len(name) <= 7 {
		if v, ok := parseHexRune(name[1:]); ok && v <= 0x10FFFF {
			return v, true
		}
	}
	if strings.HasPrefix(name, "g") && len(name) > 1 {
		n := 0
		for _, c := range name[1:] {
			if c < '0' || c > '9' {
				return 0, false
			}
			n = n*10 + int(c-'0')
		}
		return rune(n + 29), true
	}
	return 0, false
}

func parseHexRune(s string) (rune, bool) {
	var v rune
	for _, c := range s {
		v <<= 4
		switch {
		case c >= '0' && c <= '9':
			v |= c - '0'
		case c >= 'A' && c <= 'F':
			v |= c - 'A' + 10
		case c >= 'a' && c <= 'f':
			v |= c - 'a' + 10
		default:
			return 0, false
		}
	}
	return v, v > 0
}
