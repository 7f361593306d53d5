package mediastorage

import "strings"

// transliterationTables maps a locale to its character substitution
// table. Unknown locales leave names untouched.
var transliterationTables = map[string]map[rune]string{
	"ru": {
		'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d",
		'е': "e", 'ё': "e", 'ж': "zh", 'з': "z", 'и': "i",
		'й': "i", 'к': "k", 'л': "l", 'м': "m", 'н': "n",
		'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t",
		'у': "u", 'ф': "f", 'х': "h", 'ц': "c", 'ч': "ch",
		'ш': "sh", 'щ': "sch", 'ъ': "", 'ы': "y", 'ь': "",
		'э': "e", 'ю': "yu", 'я': "ya",
		'А': "A", 'Б': "B", 'В': "V", 'Г': "G", 'Д': "D",
		'Е': "E", 'Ё': "E", 'Ж': "Zh", 'З': "Z", 'И': "I",
		'Й': "I", 'К': "K", 'Л': "L", 'М': "M", 'Н': "N",
		'О': "O", 'П': "P", 'Р': "R", 'С': "S", 'Т': "T",
		'У': "U", 'Ф': "F", 'Х': "H", 'Ц': "C", 'Ч': "Ch",
		'Ш': "Sh", 'Щ': "Sch", 'Ъ': "", 'Ы': "Y", 'Ь': "",
		'Э': "E", 'Ю': "Yu", 'Я': "Ya",
		' ': "-",
	},
}

// Transliterate rewrites name with the substitution table of the given
// locale. Characters without a substitution pass through unchanged.
func Transliterate(locale, name string) string {
	table, ok := transliterationTables[locale]
	if !ok {
		return name
	}

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if sub, ok := table[r]; ok {
			b.WriteString(sub)
		} else {
			b.WriteRune(r)
		}
	}

	return b.String()
}
