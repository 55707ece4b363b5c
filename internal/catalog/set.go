package catalog

import "strings"

// Set accumulates accepted products for one run and rejects duplicates.
// Two records are duplicates when their names are equal ignoring case, or when
// both have a first image and those images are identical.
type Set struct {
	products    []Product
	names       map[string]struct{}
	firstImages map[string]struct{}
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{
		names:       make(map[string]struct{}),
		firstImages: make(map[string]struct{}),
	}
}

// Contains reports whether p would be rejected as a duplicate.
func (s *Set) Contains(p Product) bool {
	if _, ok := s.names[nameKey(p.Name)]; ok {
		return true
	}
	if img := p.FirstImage(); img != "" {
		if _, ok := s.firstImages[img]; ok {
			return true
		}
	}
	return false
}

// Add appends p unless it duplicates an accepted record.
func (s *Set) Add(p Product) bool {
	if s.Contains(p) {
		return false
	}
	p = p.Clone()
	s.products = append(s.products, p)
	s.names[nameKey(p.Name)] = struct{}{}
	if img := p.FirstImage(); img != "" {
		s.firstImages[img] = struct{}{}
	}
	return true
}

// Len returns the number of accepted records.
func (s *Set) Len() int {
	return len(s.products)
}

// Products returns a copy of the accepted records in insertion order.
func (s *Set) Products() []Product {
	out := make([]Product, len(s.products))
	for i, p := range s.products {
		out[i] = p.Clone()
	}
	return out
}

func nameKey(name string) string {
	return strings.ToLower(CollapseSpace(name))
}
