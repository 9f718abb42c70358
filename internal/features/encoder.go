package features

import "sort"

// CategoryEncoder maps a fixed vocabulary of strings to dense integer codes in lexical order.
// It is immutable once fitted.
type CategoryEncoder struct {
	classes []string
	codes   map[string]int
}

// FitEncoder builds an encoder over the unique values.
func FitEncoder(values []string) *CategoryEncoder {
	codes := make(map[string]int, len(values))
	classes := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := codes[v]; ok {
			continue
		}
		codes[v] = 0
		classes = append(classes, v)
	}
	sort.Strings(classes)
	for i, c := range classes {
		codes[c] = i
	}
	return &CategoryEncoder{classes: classes, codes: codes}
}

// Code returns the integer code for value.
func (e *CategoryEncoder) Code(value string) (int, bool) {
	c, ok := e.codes[value]
	return c, ok
}

// Classes returns the vocabulary in code order.
func (e *CategoryEncoder) Classes() []string {
	return append([]string(nil), e.classes...)
}

// Len is the vocabulary size.
func (e *CategoryEncoder) Len() int {
	return len(e.classes)
}
