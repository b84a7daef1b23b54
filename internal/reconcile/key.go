// Package reconcile resolves differently spelled names of the same stop, line or
// terminus onto one key and joins the feeds on it.
package reconcile

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Alias replaces one whitespace-separated token.
type Alias struct {
	From string
	To   string
}

// Aliases is an ordered substitution table. For each token the first matching entry wins.
type Aliases []Alias

// Apply expands every token of s that has an alias.
func (a Aliases) Apply(s string) string {
	tokens := strings.Fields(s)
	for i, tok := range tokens {
		for _, al := range a {
			if tok == al.From {
				tokens[i] = al.To
				break
			}
		}
	}
	return strings.Join(tokens, " ")
}

// EntityKey identifies a physical entity across feeds.
type EntityKey struct {
	Name  string `json:"name"`
	ID    int64  `json:"id,omitempty"`
	HasID bool   `json:"-"`
}

func (k EntityKey) String() string {
	if k.HasID {
		return k.Name + "#" + strconv.FormatInt(k.ID, 10)
	}
	return k.Name
}

// Keyer canonicalizes names: aliases expanded, accents folded, lower case,
// punctuation collapsed into single spaces.
type Keyer struct {
	Aliases Aliases
}

func (k Keyer) Canonical(name string) string {
	folded, _, err := transform.String(foldAccents(), k.Aliases.Apply(name))
	if err != nil {
		folded = name
	}
	folded = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, folded)
	return strings.Join(strings.Fields(folded), " ")
}

func (k Keyer) Key(name string) EntityKey {
	return EntityKey{Name: k.Canonical(name)}
}

func (k Keyer) KeyWithID(name string, id int64) EntityKey {
	return EntityKey{Name: k.Canonical(name), ID: id, HasID: true}
}

// a transform.Transformer is stateful, build one per use.
func foldAccents() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
