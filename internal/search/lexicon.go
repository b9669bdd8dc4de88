package search

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PetClass groups the keywords that identify one pet type in a query or a
// product's name/category. A generic class (e.g. "young animal") spans
// multiple species and never triggers cross-species exclusion.
type PetClass struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Generic  bool     `yaml:"generic,omitempty"`
}

// Lexicon is the injectable language resource for the fallback scorer:
// a synonym table mapping a canonical term to its variant spellings and
// translations, plus the pet-type keyword classes used for the exclusion
// rule. Defaults cover the mixed Hebrew/English catalog vocabulary.
type Lexicon struct {
	Synonyms   map[string][]string `yaml:"synonyms"`
	PetClasses []PetClass          `yaml:"pet_classes"`
}

// DefaultLexicon returns the built-in Hebrew/English lexicon.
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		Synonyms: map[string][]string{
			"dog":    {"dogs", "כלב", "כלבים", "כלבלב", "דוג"},
			"cat":    {"cats", "חתול", "חתולים", "חתלתול", "קט"},
			"bird":   {"birds", "parrot", "ציפור", "ציפורים", "תוכי"},
			"fish":   {"דג", "דגים", "אקווריום", "aquarium"},
			"food":   {"מזון", "אוכל", "מזונות"},
			"toy":    {"toys", "משחק", "משחקים", "צעצוע", "צעצועים"},
			"treat":  {"treats", "חטיף", "חטיפים"},
			"leash":  {"רצועה", "רצועות"},
			"collar": {"קולר", "קולרים"},
			"litter": {"חול", "מצע"},
			"cage":   {"כלוב", "כלובים"},
			"puppy":  {"puppies", "גור", "גורים", "גור כלבים"},
			"kitten": {"kittens", "גור חתולים", "חתלתול"},
			"shampo": {"shampoo", "שמפו"},
			"bed":    {"מיטה", "מיטות", "מזרן"},
		},
		PetClasses: []PetClass{
			{Name: "dog", Keywords: []string{"dog", "puppy", "כלב", "כלבים", "כלבלב", "גור כלבים"}},
			{Name: "cat", Keywords: []string{"cat", "kitten", "חתול", "חתולים", "חתלתול", "גור חתולים"}},
			{Name: "bird", Keywords: []string{"bird", "parrot", "canary", "ציפור", "ציפורים", "תוכי", "קנרית"}},
			{Name: "fish", Keywords: []string{"fish", "aquarium", "דג", "דגים", "אקווריום"}},
			{Name: "young", Keywords: []string{"גור", "גורים"}, Generic: true},
		},
	}
}

// LoadLexicon reads a lexicon override from a YAML file. Sections omitted in
// the file keep their defaults.
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon file: %w", err)
	}
	lex := DefaultLexicon()
	var override Lexicon
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon file: %w", err)
	}
	if len(override.Synonyms) > 0 {
		lex.Synonyms = override.Synonyms
	}
	if len(override.PetClasses) > 0 {
		lex.PetClasses = override.PetClasses
	}
	return lex, nil
}

// ExpandTerms expands a query into its search terms: the query's own tokens
// plus every synonym variant of any canonical term the query mentions.
func (l *Lexicon) ExpandTerms(query string) []string {
	lowered := strings.ToLower(query)
	seen := make(map[string]bool)
	var terms []string

	add := func(t string) {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		terms = append(terms, t)
	}

	for _, tok := range strings.Fields(lowered) {
		add(strings.Trim(tok, ".,!?:;\"'()"))
	}

	for canonical, variants := range l.Synonyms {
		matched := strings.Contains(lowered, canonical)
		if !matched {
			for _, v := range variants {
				if strings.Contains(lowered, strings.ToLower(v)) {
					matched = true
					break
				}
			}
		}
		if matched {
			add(canonical)
			for _, v := range variants {
				add(strings.ToLower(v))
			}
		}
	}

	return terms
}

// DetectPetClass identifies which single pet type a query refers to. Returns
// nil when no class matches, when the match is ambiguous across types, or
// when only a generic class matches.
func (l *Lexicon) DetectPetClass(query string) *PetClass {
	lowered := strings.ToLower(query)
	var detected *PetClass
	for i := range l.PetClasses {
		class := &l.PetClasses[i]
		if class.Generic {
			continue
		}
		for _, kw := range class.Keywords {
			if strings.Contains(lowered, strings.ToLower(kw)) {
				if detected != nil && detected.Name != class.Name {
					return nil // ambiguous
				}
				detected = class
				break
			}
		}
	}
	return detected
}

// ExcludedByPetClass reports whether a candidate's name or category mentions
// a pet type other than the detected one. Used to keep, e.g., cat products
// out of dog-food results.
func (l *Lexicon) ExcludedByPetClass(detected *PetClass, name, category string) bool {
	if detected == nil {
		return false
	}
	text := strings.ToLower(name + " " + category)
	for i := range l.PetClasses {
		class := &l.PetClasses[i]
		if class.Generic || class.Name == detected.Name {
			continue
		}
		for _, kw := range class.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				return true
			}
		}
	}
	return false
}
