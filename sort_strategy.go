package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/maruel/natural"
)

// SortStrategy orders the pages of a document
type SortStrategy interface {
	// Sort returns a new sorted slice without modifying the original
	Sort(images []ImagePath) []ImagePath
	// Name returns the human-readable name of the strategy
	Name() string
	// ID returns the numeric identifier for config storage
	ID() int
}

// sortedCopy returns a stably sorted copy of images; a nil less keeps the order
func sortedCopy(images []ImagePath, less func(a, b ImagePath) bool) []ImagePath {
	result := make([]ImagePath, len(images))
	copy(result, images)
	if less != nil {
		sort.SliceStable(result, func(i, j int) bool {
			return less(result[i], result[j])
		})
	}
	return result
}

// NaturalSortStrategy orders numbered pages numerically (page2 before page10)
type NaturalSortStrategy struct{}

func (s *NaturalSortStrategy) Sort(images []ImagePath) []ImagePath {
	return sortedCopy(images, func(a, b ImagePath) bool {
		return natural.Less(a.Path, b.Path)
	})
}

func (s *NaturalSortStrategy) Name() string { return "Natural" }
func (s *NaturalSortStrategy) ID() int      { return SortNatural }

// SimpleSortStrategy implements lexicographical sorting
type SimpleSortStrategy struct{}

func (s *SimpleSortStrategy) Sort(images []ImagePath) []ImagePath {
	return sortedCopy(images, func(a, b ImagePath) bool {
		return a.Path < b.Path
	})
}

func (s *SimpleSortStrategy) Name() string { return "Simple" }
func (s *SimpleSortStrategy) ID() int      { return SortSimple }

// EntryOrderSortStrategy keeps directory walk or archive entry order
type EntryOrderSortStrategy struct{}

func (s *EntryOrderSortStrategy) Sort(images []ImagePath) []ImagePath {
	return sortedCopy(images, nil)
}

func (s *EntryOrderSortStrategy) Name() string { return "Entry Order" }
func (s *EntryOrderSortStrategy) ID() int      { return SortEntryOrder }

// GetSortStrategy returns the appropriate strategy based on the sort method ID
func GetSortStrategy(sortMethod int) SortStrategy {
	switch sortMethod {
	case SortSimple:
		return &SimpleSortStrategy{}
	case SortEntryOrder:
		return &EntryOrderSortStrategy{}
	default:
		return &NaturalSortStrategy{}
	}
}

// GetAllSortStrategies returns all available sort strategies
func GetAllSortStrategies() []SortStrategy {
	return []SortStrategy{
		&NaturalSortStrategy{},
		&SimpleSortStrategy{},
		&EntryOrderSortStrategy{},
	}
}

// ParseSortMethod maps a command line name ("natural", "simple", "entry")
// to a sort method ID
func ParseSortMethod(name string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "natural":
		return SortNatural, nil
	case "simple":
		return SortSimple, nil
	case "entry", "entry-order", "none":
		return SortEntryOrder, nil
	default:
		return SortNatural, fmt.Errorf("unknown sort method %q (want natural, simple or entry)", name)
	}
}
